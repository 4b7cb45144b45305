package login

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridoc/pkg/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "veridoc-test", time.Hour)

	token, err := issuer.Issue("alice", domain.RoleStudent, "SCH_001", FactorBiometric)
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "SCH_001", claims.OrgCode)
}

func TestTokenRejections(t *testing.T) {
	issuer := NewTokenIssuer("secret", "veridoc-test", time.Hour)

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewTokenIssuer("different-secret", "veridoc-test", time.Hour)
		token, err := other.Issue("alice", domain.RoleStudent, "SCH_001", FactorOTP)
		require.NoError(t, err)
		_, err = issuer.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenIssuer("secret", "someone-else", time.Hour)
		token, err := other.Issue("alice", domain.RoleStudent, "SCH_001", FactorOTP)
		require.NoError(t, err)
		_, err = issuer.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		short := NewTokenIssuer("secret", "veridoc-test", -time.Minute)
		token, err := short.Issue("alice", domain.RoleStudent, "SCH_001", FactorOTP)
		require.NoError(t, err)
		_, err = issuer.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}
