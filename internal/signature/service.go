// Package signature canonicalizes document content and produces/verifies
// RSA-PSS signatures over it. Private keys live in a keystore addressed by
// identifier and are never handed to the certificate or account stores.
package signature

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

// ErrKeyNotFound reports a sign attempt with no provisioned private key.
// Callers recover by generating a keypair first; issuance treats this as the
// only trigger for auto-generation.
var ErrKeyNotFound = errors.New("signing key not found")

const keySize = 2048

type Service struct {
	keys Keystore
}

func NewService(keys Keystore) *Service {
	return &Service{keys: keys}
}

// GenerateKeyPair creates a fresh RSA-2048 keypair, persists the private
// half under identifier, and returns the public half as SPKI PEM for storage
// alongside the certificate. Regenerating for an existing identifier
// invalidates all signatures produced under the old key; callers must
// re-sign afterwards.
func (s *Service) GenerateKeyPair(ctx context.Context, identifier domain.Key) ([]byte, error) {
	priv, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := s.keys.Put(ctx, identifier, privPEM); err != nil {
		return nil, err
	}

	return marshalPublicKey(&priv.PublicKey)
}

// PublicKey derives the public half from the stored private key.
func (s *Service) PublicKey(ctx context.Context, identifier domain.Key) ([]byte, error) {
	priv, err := s.loadPrivateKey(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return marshalPublicKey(&priv.PublicKey)
}

// Sign produces an RSA-PSS signature (SHA-256 digest, maximal salt) over
// message. The padding is randomized: two signatures over the same message
// differ byte-wise yet both verify.
func (s *Service) Sign(ctx context.Context, identifier domain.Key, message []byte) ([]byte, error) {
	priv, err := s.loadPrivateKey(ctx, identifier)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(message)
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	return sig, nil
}

// Verify reports whether signature is a valid RSA-PSS signature of message
// under the SPKI PEM public key. Every parse or verification fault maps to
// false; this function never returns an error.
func Verify(publicKeyPEM, signature, message []byte) bool {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return false
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return false
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return false
	}
	digest := sha256.Sum256(message)
	err = rsa.VerifyPSS(pub, crypto.SHA256, digest[:], signature, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
		Hash:       crypto.SHA256,
	})
	return err == nil
}

func (s *Service) loadPrivateKey(ctx context.Context, identifier domain.Key) (*rsa.PrivateKey, error) {
	pemBytes, err := s.keys.Get(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("malformed private key PEM for %s", identifier)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key for %s is not RSA", identifier)
	}
	return priv, nil
}

func marshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), nil
}
