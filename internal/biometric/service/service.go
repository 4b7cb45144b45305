package service

import (
	"context"
	"errors"
	"log/slog"

	"veridoc/internal/biometric/extractor"
	"veridoc/internal/biometric/models"
	"veridoc/internal/biometric/store"
	"veridoc/internal/platform/metrics"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/audit"
	"veridoc/pkg/platform/sentinel"
)

// Service handles face enrollment: feature extraction plus template upsert.
type Service struct {
	templates store.Store
	extract   extractor.Extractor
	metrics   *metrics.Metrics
	auditor   *audit.Publisher
	logger    *slog.Logger
}

func New(templates store.Store, extract extractor.Extractor, m *metrics.Metrics, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{
		templates: templates,
		extract:   extract,
		metrics:   m,
		auditor:   auditor,
		logger:    logger,
	}
}

// Enroll extracts a feature vector from image and upserts the template under
// orgCode_personID. Re-enrolling the same key replaces the prior vector.
func (s *Service) Enroll(ctx context.Context, orgCode, personID string, image []byte, imageRef string) (domain.Key, error) {
	if orgCode == "" || personID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "org code and person id are required")
	}

	vector, err := s.extract.Extract(ctx, image)
	if err != nil {
		switch {
		case errors.Is(err, extractor.ErrExtractionFailed):
			return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "no usable face in image")
		case errors.Is(err, sentinel.ErrUnavailable):
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "embedding service unavailable")
		default:
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "feature extraction failed")
		}
	}

	key := domain.NewKey(orgCode, personID)
	err = s.templates.Upsert(ctx, models.Template{
		Key:      key,
		OrgCode:  orgCode,
		PersonID: personID,
		Vector:   vector,
		ImageRef: imageRef,
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store face template")
	}

	s.metrics.TemplatesEnrolled.Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionTemplateEnrolled,
		Subject: key.String(),
	})
	s.logger.InfoContext(ctx, "face template enrolled", "key", key.String())
	return key, nil
}
