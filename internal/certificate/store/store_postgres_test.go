//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"veridoc/internal/certificate/models"
	"veridoc/internal/platform/postgres"
	"veridoc/pkg/platform/sentinel"
	"veridoc/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}

	db := containers.StartPostgres(t)
	ctx := context.Background()
	if err := postgres.InitSchema(ctx, db); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	suite.Run(t, &PostgresStoreSuite{ctx: ctx, store: NewPostgresStore(db)})
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.store.db.ExecContext(s.ctx, `TRUNCATE certificates`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) cert(orgCode, personID, text string) models.Certificate {
	return models.Certificate{
		Identifier:  orgCode + "_" + personID,
		OrgCode:     orgCode,
		PersonID:    personID,
		Text:        text,
		CleanedText: text,
		Message:     []byte(text),
		Signature:   []byte("sig-" + personID),
		PublicKey:   []byte("pub"),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	s.Require().NoError(s.store.Upsert(s.ctx, s.cert("SCH_001", "ST_001", "Bachelor of Science")))

	got, err := s.store.FindByIdentifier(s.ctx, "SCH_001_ST_001")
	s.Require().NoError(err)
	s.Equal("Bachelor of Science", got.Text)
	s.Equal([]byte("Bachelor of Science"), got.Message)
	s.Equal([]byte("sig-ST_001"), got.Signature)
	s.False(got.CreatedAt.IsZero())
}

func (s *PostgresStoreSuite) TestUpsertReplacesRow() {
	s.Require().NoError(s.store.Upsert(s.ctx, s.cert("SCH_001", "ST_001", "first")))
	first, err := s.store.FindByIdentifier(s.ctx, "SCH_001_ST_001")
	s.Require().NoError(err)

	s.Require().NoError(s.store.Upsert(s.ctx, s.cert("SCH_001", "ST_001", "second")))
	second, err := s.store.FindByIdentifier(s.ctx, "SCH_001_ST_001")
	s.Require().NoError(err)

	s.Equal("second", second.Text)
	s.Equal(first.ID, second.ID)
	s.False(second.CreatedAt.Before(first.CreatedAt))
}

func (s *PostgresStoreSuite) TestDeleteIdempotent() {
	s.Require().NoError(s.store.Upsert(s.ctx, s.cert("SCH_001", "ST_001", "text")))
	s.Require().NoError(s.store.Delete(s.ctx, "SCH_001_ST_001"))

	_, err := s.store.FindByIdentifier(s.ctx, "SCH_001_ST_001")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.NoError(s.store.Delete(s.ctx, "SCH_001_ST_001"))
}

func (s *PostgresStoreSuite) TestSearch() {
	s.Require().NoError(s.store.Upsert(s.ctx, s.cert("SCH_001", "ST_001", "Bachelor of Science")))
	s.Require().NoError(s.store.Upsert(s.ctx, s.cert("SCH_001", "ST_002", "Master of Arts")))
	s.Require().NoError(s.store.Upsert(s.ctx, s.cert("SCH_002", "ST_001", "Bachelor of Arts")))

	got, err := s.store.Search(s.ctx, "BACHELOR", "")
	s.Require().NoError(err)
	s.Len(got, 2)

	got, err = s.store.Search(s.ctx, "bachelor", "SCH_001")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("SCH_001_ST_001", got[0].Identifier)
}
