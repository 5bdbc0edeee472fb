//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"profiled/internal/audit"
	"profiled/internal/platform/postgres"
	"profiled/internal/profile"
	"profiled/pkg/domain"
	"profiled/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	store  *audit.PostgresStore
	users  *profile.PostgresStore
	runner *postgres.TxRunner
	ctx    context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = audit.NewPostgres(s.pg.DB)
	s.users = profile.NewPostgres(s.pg.DB)
	s.runner = postgres.NewTxRunner(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresStoreSuite) seedUser() domain.UserID {
	id := domain.NewUserID()
	err := s.users.Create(s.ctx, &profile.User{
		ID: id, Name: "Audit Subject", Email: id.String() + "@example.com",
	})
	s.Require().NoError(err)
	return id
}

func (s *PostgresStoreSuite) appendEntry(userID domain.UserID, action audit.Action, ts time.Time) audit.Entry {
	e := audit.Entry{
		ID:        domain.NewAuditLogID(),
		UserID:    userID,
		Action:    action,
		Changes:   domain.ChangeSet{"name": {Old: "Ann", New: "Anna"}},
		ChangedBy: userID,
		Timestamp: ts,
		IPAddress: "203.0.113.7",
		UserAgent: "curl/8.0",
		Client:    "curl",
	}
	s.Require().NoError(s.store.Append(s.ctx, e))
	return e
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	userID := s.seedUser()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	want := s.appendEntry(userID, audit.ActionUpdate, base)

	entries, total, err := s.store.ListByUser(s.ctx, userID, audit.ListParams{
		Page: 1, Limit: 10, SortBy: audit.SortByTimestamp, Order: audit.OrderDesc,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(entries, 1)

	got := entries[0]
	s.Equal(want.ID, got.ID)
	s.Equal(audit.ActionUpdate, got.Action)
	s.Equal(domain.ChangeSet{"name": {Old: "Ann", New: "Anna"}}, got.Changes)
	s.Equal("203.0.113.7", got.IPAddress)
	s.Equal("curl", got.Client)
	s.True(got.Timestamp.Equal(base))
}

func (s *PostgresStoreSuite) TestListPaginationAndOrdering() {
	userID := s.seedUser()
	other := s.seedUser()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		s.appendEntry(userID, audit.ActionUpdate, base.Add(time.Duration(i)*time.Minute))
	}
	s.appendEntry(other, audit.ActionDelete, base)

	s.Run("newest first with a partial last page", func() {
		entries, total, err := s.store.ListByUser(s.ctx, userID, audit.ListParams{
			Page: 2, Limit: 10, SortBy: audit.SortByTimestamp, Order: audit.OrderDesc,
		})
		s.Require().NoError(err)
		s.Equal(12, total)
		s.Require().Len(entries, 2)
		s.True(entries[0].Timestamp.After(entries[1].Timestamp))
	})

	s.Run("ascending starts at the oldest entry", func() {
		entries, _, err := s.store.ListByUser(s.ctx, userID, audit.ListParams{
			Page: 1, Limit: 1, SortBy: audit.SortByTimestamp, Order: audit.OrderAsc,
		})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.True(entries[0].Timestamp.Equal(base))
	})

	s.Run("out-of-range page is empty with the true total", func() {
		entries, total, err := s.store.ListByUser(s.ctx, userID, audit.ListParams{
			Page: 5, Limit: 10, SortBy: audit.SortByTimestamp, Order: audit.OrderDesc,
		})
		s.Require().NoError(err)
		s.Equal(12, total)
		s.Empty(entries)
	})
}

// TestAppendInRolledBackTx verifies the entry vanishes with the transaction,
// the property that keeps profile writes and their audit entries atomic.
func (s *PostgresStoreSuite) TestAppendInRolledBackTx() {
	userID := s.seedUser()
	boom := domain.NewAuditLogID()

	err := s.runner.RunInTx(s.ctx, func(ctx context.Context) error {
		e := audit.Entry{
			ID:        boom,
			UserID:    userID,
			Action:    audit.ActionUpdate,
			Changes:   domain.ChangeSet{"bio": {Old: "", New: "x"}},
			ChangedBy: userID,
			Timestamp: time.Now(),
		}
		if err := s.store.Append(ctx, e); err != nil {
			return err
		}
		return context.DeadlineExceeded // force rollback
	})
	s.Require().Error(err)

	_, total, err := s.store.ListByUser(s.ctx, userID, audit.ListParams{
		Page: 1, Limit: 10, SortBy: audit.SortByTimestamp, Order: audit.OrderDesc,
	})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *PostgresStoreSuite) TestDeleteOlderThan() {
	userID := s.seedUser()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s.appendEntry(userID, audit.ActionUpdate, base)
	s.appendEntry(userID, audit.ActionUpdate, base.Add(2*time.Hour))

	deleted, err := s.store.DeleteOlderThan(s.ctx, base.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	_, total, err := s.store.ListByUser(s.ctx, userID, audit.ListParams{
		Page: 1, Limit: 10, SortBy: audit.SortByTimestamp, Order: audit.OrderDesc,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
}
