package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"veridoc/internal/biometric/extractor"
	"veridoc/internal/biometric/store"
	"veridoc/internal/platform/metrics"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/audit"
	"veridoc/pkg/platform/sentinel"
)

type stubExtractor struct {
	vector []float64
	err    error
}

func (s *stubExtractor) Extract(context.Context, []byte) ([]float64, error) {
	return s.vector, s.err
}

type EnrollmentSuite struct {
	suite.Suite
	ctx       context.Context
	templates *store.InMemoryStore
	extract   *stubExtractor
	service   *Service
}

func TestEnrollmentSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentSuite))
}

func (s *EnrollmentSuite) SetupTest() {
	s.ctx = context.Background()
	s.templates = store.NewInMemoryStore()
	s.extract = &stubExtractor{vector: []float64{1, 2, 3}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(
		s.templates,
		s.extract,
		metrics.New(prometheus.NewRegistry()),
		audit.NewPublisher(16, logger),
		logger,
	)
}

func (s *EnrollmentSuite) TestEnroll() {
	key, err := s.service.Enroll(s.ctx, "SCH_001", "ST_001", []byte("image"), "photos/st_001.jpg")
	s.Require().NoError(err)
	s.Equal(domain.NewKey("SCH_001", "ST_001"), key)

	template, err := s.templates.FindByKey(s.ctx, key)
	s.Require().NoError(err)
	s.Equal([]float64{1, 2, 3}, template.Vector)
	s.Equal("photos/st_001.jpg", template.ImageRef)
}

func (s *EnrollmentSuite) TestReenrollReplacesVector() {
	key, err := s.service.Enroll(s.ctx, "SCH_001", "ST_001", []byte("image"), "")
	s.Require().NoError(err)

	s.extract.vector = []float64{4, 5, 6}
	_, err = s.service.Enroll(s.ctx, "SCH_001", "ST_001", []byte("newer image"), "")
	s.Require().NoError(err)

	template, err := s.templates.FindByKey(s.ctx, key)
	s.Require().NoError(err)
	s.Equal([]float64{4, 5, 6}, template.Vector)
}

func (s *EnrollmentSuite) TestEnrollFailures() {
	s.Run("missing identifiers", func() {
		_, err := s.service.Enroll(s.ctx, "", "ST_001", []byte("image"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("no face in image", func() {
		s.extract.err = extractor.ErrExtractionFailed
		_, err := s.service.Enroll(s.ctx, "SCH_001", "ST_001", []byte("noise"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("extractor unreachable", func() {
		s.extract.err = sentinel.ErrUnavailable
		_, err := s.service.Enroll(s.ctx, "SCH_001", "ST_001", []byte("image"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
