package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"veridoc/internal/biometric/models"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) TestUpsertReplacesVectorInPlace() {
	ctx := context.Background()
	key := domain.NewKey("SCH", "001")

	s.Require().NoError(s.store.Upsert(ctx, models.Template{Key: key, Vector: []float64{1, 2}}))
	s.Require().NoError(s.store.Upsert(ctx, models.Template{Key: domain.NewKey("SCH", "002"), Vector: []float64{3, 4}}))
	s.Require().NoError(s.store.Upsert(ctx, models.Template{Key: key, Vector: []float64{9, 9}}))

	all, err := s.store.All(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	// Scan order is enrollment order; replacement keeps the original slot.
	s.Equal(key, all[0].Key)
	s.Equal([]float64{9, 9}, all[0].Vector)
	s.Equal(domain.NewKey("SCH", "002"), all[1].Key)
}

func (s *InMemoryStoreSuite) TestFindByKey() {
	ctx := context.Background()
	key := domain.NewKey("SCH", "001")
	s.Require().NoError(s.store.Upsert(ctx, models.Template{Key: key, Vector: []float64{1}}))

	found, err := s.store.FindByKey(ctx, key)
	s.Require().NoError(err)
	s.Equal([]float64{1}, found.Vector)

	_, err = s.store.FindByKey(ctx, domain.NewKey("SCH", "missing"))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestExists() {
	ctx := context.Background()
	key := domain.NewKey("SCH", "001")

	ok, err := s.store.Exists(ctx, key)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Upsert(ctx, models.Template{Key: key}))

	ok, err = s.store.Exists(ctx, key)
	s.Require().NoError(err)
	s.True(ok)
}
