package service

import (
	"context"
	"errors"
	"log/slog"

	"veridoc/internal/certificate/models"
	"veridoc/internal/certificate/store"
	"veridoc/internal/platform/metrics"
	"veridoc/internal/signature"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/audit"
	"veridoc/pkg/platform/sentinel"
)

// VerifyOutcome classifies a document verification result.
type VerifyOutcome string

const (
	OutcomeValid    VerifyOutcome = "valid"
	OutcomeInvalid  VerifyOutcome = "invalid"
	OutcomeNotFound VerifyOutcome = "not_found"
)

// KeyRegistry records the subject's current public key after generation.
type KeyRegistry interface {
	UpdatePublicKey(ctx context.Context, key domain.Key, publicKey []byte) error
}

// IssueRequest carries the issuance input. Document is the raw file content;
// its bytes are what gets signed. The certificate identifier is derived from
// the org/person pair, the same key that addresses the face template and the
// signing key.
type IssueRequest struct {
	OrgCode  string
	PersonID string
	Document []byte
}

// Service implements certificate issuance, verification, and lifecycle.
type Service struct {
	certs    store.Store
	signer   *signature.Service
	registry KeyRegistry
	metrics  *metrics.Metrics
	auditor  *audit.Publisher
	logger   *slog.Logger
}

func New(certs store.Store, signer *signature.Service, registry KeyRegistry, m *metrics.Metrics, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{
		certs:    certs,
		signer:   signer,
		registry: registry,
		metrics:  m,
		auditor:  auditor,
		logger:   logger,
	}
}

// Issue signs the document under the subject's key and upserts the record.
// A missing key pair is generated on first use; any other signing fault
// aborts issuance.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (models.Certificate, error) {
	switch {
	case req.OrgCode == "" || req.PersonID == "":
		return models.Certificate{}, dErrors.New(dErrors.CodeInvalidInput, "org code and person id are required")
	case len(req.Document) == 0:
		return models.Certificate{}, dErrors.New(dErrors.CodeInvalidInput, "document is empty")
	}

	cleanedText, message := signature.Canonicalize(req.Document)
	key := domain.NewKey(req.OrgCode, req.PersonID)
	identifier := key.String()

	sig, err := s.signer.Sign(ctx, key, message)
	if errors.Is(err, signature.ErrKeyNotFound) {
		publicKey, genErr := s.signer.GenerateKeyPair(ctx, key)
		if genErr != nil {
			return models.Certificate{}, dErrors.Wrap(genErr, dErrors.CodeInternal, "failed to generate key pair")
		}
		if regErr := s.registry.UpdatePublicKey(ctx, key, publicKey); regErr != nil {
			return models.Certificate{}, dErrors.Wrap(regErr, dErrors.CodeInternal, "failed to record public key")
		}
		s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionKeyGenerated,
			Subject: key.String(),
		})
		sig, err = s.signer.Sign(ctx, key, message)
	}
	if err != nil {
		return models.Certificate{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign document")
	}

	publicKey, err := s.signer.PublicKey(ctx, key)
	if err != nil {
		return models.Certificate{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load public key")
	}

	cert := models.Certificate{
		Identifier:  identifier,
		OrgCode:     req.OrgCode,
		PersonID:    req.PersonID,
		Text:        string(req.Document),
		CleanedText: cleanedText,
		Message:     message,
		Signature:   sig,
		PublicKey:   publicKey,
	}
	if err := s.certs.Upsert(ctx, cert); err != nil {
		return models.Certificate{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store certificate")
	}

	s.metrics.CertificatesIssued.Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionCertificateIssued,
		Subject: identifier,
	})
	s.logger.InfoContext(ctx, "certificate issued", "identifier", identifier)
	return cert, nil
}

// Lookup returns the stored certificate.
func (s *Service) Lookup(ctx context.Context, identifier string) (models.Certificate, error) {
	cert, err := s.certs.FindByIdentifier(ctx, identifier)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Certificate{}, dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	if err != nil {
		return models.Certificate{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	return cert, nil
}

// Verify checks the presented document bytes against the stored signature and
// embedded public key. Tampered or substituted documents come back invalid,
// never as an error.
func (s *Service) Verify(ctx context.Context, identifier string, document []byte) (VerifyOutcome, error) {
	cert, err := s.certs.FindByIdentifier(ctx, identifier)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.DocumentVerified.WithLabelValues(string(OutcomeNotFound)).Inc()
		return OutcomeNotFound, nil
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}

	outcome := OutcomeInvalid
	if signature.Verify(cert.PublicKey, cert.Signature, document) {
		outcome = OutcomeValid
	}
	s.metrics.DocumentVerified.WithLabelValues(string(outcome)).Inc()
	return outcome, nil
}

// Delete removes the certificate. Deleting an unknown identifier succeeds.
func (s *Service) Delete(ctx context.Context, identifier string) error {
	if err := s.certs.Delete(ctx, identifier); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete certificate")
	}
	s.metrics.CertificatesDeleted.Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionCertificateDeleted,
		Subject: identifier,
	})
	return nil
}

// Search runs a keyword search, optionally scoped to one org.
func (s *Service) Search(ctx context.Context, keyword, orgScope string) ([]models.Certificate, error) {
	if keyword == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "keyword is required")
	}
	certs, err := s.certs.Search(ctx, keyword, orgScope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search certificates")
	}
	return certs, nil
}
