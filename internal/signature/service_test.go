package signature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"veridoc/pkg/domain"
)

type SignatureServiceSuite struct {
	suite.Suite
	svc *Service
}

func (s *SignatureServiceSuite) SetupTest() {
	s.svc = NewService(NewMemoryKeystore())
}

func TestSignatureServiceSuite(t *testing.T) {
	suite.Run(t, new(SignatureServiceSuite))
}

func (s *SignatureServiceSuite) TestSignVerifyRoundTrip() {
	ctx := context.Background()
	identifier := domain.NewKey("SCH", "001")
	message := []byte("Bachelor of Science")

	pub, err := s.svc.GenerateKeyPair(ctx, identifier)
	s.Require().NoError(err)
	s.Contains(string(pub), "BEGIN PUBLIC KEY")

	sig, err := s.svc.Sign(ctx, identifier, message)
	s.Require().NoError(err)

	s.True(Verify(pub, sig, message))
}

func (s *SignatureServiceSuite) TestTamperedMessageFailsVerification() {
	ctx := context.Background()
	identifier := domain.NewKey("SCH", "001")
	message := []byte("Bachelor of Science")

	pub, err := s.svc.GenerateKeyPair(ctx, identifier)
	s.Require().NoError(err)
	sig, err := s.svc.Sign(ctx, identifier, message)
	s.Require().NoError(err)

	s.False(Verify(pub, sig, append(message, 'X')))
}

func (s *SignatureServiceSuite) TestRepeatedSigningBothVerify() {
	// PSS padding is randomized, so no byte-equality assertion between the
	// two signatures — only that each verifies independently.
	ctx := context.Background()
	identifier := domain.NewKey("SCH", "001")
	message := []byte("same content, signed twice")

	pub, err := s.svc.GenerateKeyPair(ctx, identifier)
	s.Require().NoError(err)

	first, err := s.svc.Sign(ctx, identifier, message)
	s.Require().NoError(err)
	second, err := s.svc.Sign(ctx, identifier, message)
	s.Require().NoError(err)

	s.True(Verify(pub, first, message))
	s.True(Verify(pub, second, message))
}

func (s *SignatureServiceSuite) TestSignWithoutKeyReturnsKeyNotFound() {
	_, err := s.svc.Sign(context.Background(), domain.NewKey("SCH", "missing"), []byte("x"))
	s.Require().ErrorIs(err, ErrKeyNotFound)
}

func (s *SignatureServiceSuite) TestRegenerationInvalidatesOldSignatures() {
	ctx := context.Background()
	identifier := domain.NewKey("SCH", "001")
	message := []byte("diploma")

	_, err := s.svc.GenerateKeyPair(ctx, identifier)
	s.Require().NoError(err)
	oldSig, err := s.svc.Sign(ctx, identifier, message)
	s.Require().NoError(err)

	newPub, err := s.svc.GenerateKeyPair(ctx, identifier)
	s.Require().NoError(err)

	s.False(Verify(newPub, oldSig, message), "old signature must not verify under the regenerated key")

	newSig, err := s.svc.Sign(ctx, identifier, message)
	s.Require().NoError(err)
	s.True(Verify(newPub, newSig, message))
}

func (s *SignatureServiceSuite) TestVerifyToleratesGarbageInput() {
	s.Run("garbage public key", func() {
		s.False(Verify([]byte("not a pem"), []byte("sig"), []byte("msg")))
	})

	s.Run("garbage signature", func() {
		ctx := context.Background()
		pub, err := s.svc.GenerateKeyPair(ctx, domain.NewKey("SCH", "001"))
		s.Require().NoError(err)
		s.False(Verify(pub, []byte("definitely not a signature"), []byte("msg")))
	})

	s.Run("empty everything", func() {
		s.False(Verify(nil, nil, nil))
	})
}

func (s *SignatureServiceSuite) TestPublicKeyMatchesGenerated() {
	ctx := context.Background()
	identifier := domain.NewKey("SCH", "009")

	generated, err := s.svc.GenerateKeyPair(ctx, identifier)
	s.Require().NoError(err)

	derived, err := s.svc.PublicKey(ctx, identifier)
	s.Require().NoError(err)
	s.Equal(generated, derived)
}
