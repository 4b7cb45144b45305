package matcher

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"veridoc/internal/biometric/models"
	"veridoc/pkg/domain"
)

type EuclideanSuite struct {
	suite.Suite
	matcher *Euclidean
}

func (s *EuclideanSuite) SetupTest() {
	s.matcher = NewEuclidean()
}

func TestEuclideanSuite(t *testing.T) {
	suite.Run(t, new(EuclideanSuite))
}

func tpl(key string, vector ...float64) models.Template {
	return models.Template{Key: domain.Key(key), Vector: vector}
}

func (s *EuclideanSuite) TestEmptyTemplateSetNeverMatches() {
	_, ok := s.matcher.Match([]float64{1, 2, 3}, nil, 1e9)
	s.False(ok)
}

func (s *EuclideanSuite) TestClosestTemplateWins() {
	templates := []models.Template{
		tpl("SCH_001", 0, 0),
		tpl("SCH_002", 3, 4), // distance 5 from query
		tpl("SCH_003", 1, 0), // distance 1 from query
	}

	match, ok := s.matcher.Match([]float64{0, 0}, templates, 10)
	s.Require().True(ok)
	s.Equal(domain.Key("SCH_001"), match.Key)
	s.Zero(match.Distance)

	match, ok = s.matcher.Match([]float64{2, 0}, templates, 10)
	s.Require().True(ok)
	s.Equal(domain.Key("SCH_003"), match.Key)
	s.InDelta(1.0, match.Distance, 1e-9)
}

func (s *EuclideanSuite) TestDistanceAtOrAboveThresholdIsNoMatch() {
	templates := []models.Template{tpl("SCH_001", 10, 0)}

	// distance exactly 10 against threshold 10: not a match (strict <).
	_, ok := s.matcher.Match([]float64{0, 0}, templates, 10)
	s.False(ok)

	match, ok := s.matcher.Match([]float64{0.5, 0}, templates, 10)
	s.Require().True(ok)
	s.InDelta(9.5, match.Distance, 1e-9)
}

func (s *EuclideanSuite) TestTieBreaksKeepFirstEncountered() {
	templates := []models.Template{
		tpl("SCH_001", 1, 0),
		tpl("SCH_002", -1, 0), // same distance from origin
	}
	for i := 0; i < 10; i++ {
		match, ok := s.matcher.Match([]float64{0, 0}, templates, 10)
		s.Require().True(ok)
		s.Equal(domain.Key("SCH_001"), match.Key)
	}
}

func (s *EuclideanSuite) TestDeterministicForFixedInput() {
	templates := []models.Template{
		tpl("SCH_001", 1, 2, 3),
		tpl("SCH_002", 4, 5, 6),
		tpl("SCH_003", 1, 2, 4),
	}
	query := []float64{1, 2, 3.4}

	first, ok := s.matcher.Match(query, templates, 10)
	s.Require().True(ok)
	for i := 0; i < 5; i++ {
		again, ok := s.matcher.Match(query, templates, 10)
		s.Require().True(ok)
		s.Equal(first, again)
	}
}

func (s *EuclideanSuite) TestMismatchedVectorLengthsAreSkipped() {
	templates := []models.Template{
		tpl("SCH_001", 1, 2),       // wrong length, skipped
		tpl("SCH_002", 0, 0, 0.5),  // comparable
	}
	match, ok := s.matcher.Match([]float64{0, 0, 0}, templates, 10)
	s.Require().True(ok)
	s.Equal(domain.Key("SCH_002"), match.Key)
}

func (s *EuclideanSuite) TestEnrolledScenario() {
	// Enrollment "SCH_001" with vector V; captures at distance 3 and 15
	// against threshold 10.
	templates := []models.Template{tpl("SCH_001", 0, 0)}

	match, ok := s.matcher.Match([]float64{3, 0}, templates, 10)
	s.Require().True(ok)
	s.Equal(domain.Key("SCH_001"), match.Key)
	s.InDelta(3.0, match.Distance, 1e-9)

	_, ok = s.matcher.Match([]float64{15, 0}, templates, 10)
	s.False(ok)
}
