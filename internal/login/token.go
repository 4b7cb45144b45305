package login

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"veridoc/internal/platform/middleware"
	"veridoc/pkg/domain"
)

// Claims are the session token claims. Factor records which second factor
// completed the login.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	OrgCode  string `json:"org_code"`
	Factor   string `json:"factor"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates HS256 session tokens.
type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

func NewTokenIssuer(signingKey, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// Issue mints a session token for an authenticated login.
func (t *TokenIssuer) Issue(username string, role domain.Role, orgCode, factor string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		Role:     string(role),
		OrgCode:  orgCode,
		Factor:   factor,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token. Satisfies middleware.JWTValidator.
func (t *TokenIssuer) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Header["alg"])
		}
		return t.key, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &middleware.JWTClaims{
		Username: claims.Username,
		Role:     claims.Role,
		OrgCode:  claims.OrgCode,
	}, nil
}
