//go:build integration

package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rongwang/litigation-tracker/internal/config"
	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

func newPostgresRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	ctx := context.Background()

	dbName := config.LoadConfig().Database.TestDBName
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, config.CreateTables(ctx, db, zap.NewNop()))

	repo := NewPostgresRepository(db)
	now := time.Now().UTC()
	require.NoError(t, repo.CreateUser(ctx, &models.User{
		Username: "clerk", PasswordHash: "x", Role: models.RoleAdmin, Active: true,
		CreatedAt: now, UpdatedAt: now,
	}, 10))
	return repo
}

func newCase(filed time.Time) *models.Case {
	now := time.Now().UTC()
	return &models.Case{
		Forum:     models.ForumHC,
		Status:    models.StatusFiled,
		FiledDate: filed,
		CreatedBy: "clerk",
		CreatedAt: now,
		UpdatedBy: "clerk",
		UpdatedAt: now,
	}
}

func TestIntegrationConcurrentAllocation(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()
	filed := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)

	const workers = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]bool{}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newCase(filed)
			_, err := repo.CreateCase(ctx, c, []models.NewParty{{Role: models.Petitioner, Name: "P"}})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[c.CaseID], "duplicate id %s", c.CaseID)
			seen[c.CaseID] = true
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
	assert.True(t, seen["2024001"])
	assert.True(t, seen["2024025"])

	c := newCase(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err := repo.CreateCase(ctx, c, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025001", c.CaseID)
}

func TestIntegrationConcurrentTransitions(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	c := newCase(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	_, err := repo.CreateCase(ctx, c, nil)
	require.NoError(t, err)
	for _, st := range []models.CaseStatus{models.StatusAdmission, models.StatusHearing} {
		_, err := repo.TransitionCase(ctx, c.CaseID, st, "clerk", time.Now().UTC())
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, to := range []models.CaseStatus{models.StatusAllowed, models.StatusDismissed} {
		wg.Add(1)
		go func(i int, to models.CaseStatus) {
			defer wg.Done()
			_, results[i] = repo.TransitionCase(ctx, c.CaseID, to, "clerk", time.Now().UTC())
		}(i, to)
	}
	wg.Wait()

	failures := 0
	for _, err := range results {
		if err != nil {
			assert.True(t, errors.Is(err, models.ErrInvalidTransition))
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	got, err := repo.GetCase(ctx, c.CaseID)
	require.NoError(t, err)
	assert.True(t, got.Status.Terminal())
}

func TestIntegrationHearingsAndUpcoming(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()

	c := newCase(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	_, err := repo.CreateCase(ctx, c, nil)
	require.NoError(t, err)

	for _, d := range []string{"2024-06-20", "2024-06-05", "2024-05-01"} {
		date, _ := models.ParseDate(d)
		require.NoError(t, repo.AppendHearing(ctx, &models.HearingEvent{
			CaseID: c.CaseID, HearingDate: date, CreatedBy: "clerk", CreatedAt: time.Now().UTC(),
		}))
	}

	events, err := repo.ListHearings(ctx, c.CaseID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "2024-05-01", events[0].HearingDate.Format(models.DateLayout))

	after, until := models.UpcomingWindow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	rows, err := repo.UpcomingHearings(ctx, after, until)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-06-05", rows[0].NextHearingDate.Format(models.DateLayout))
}

func TestIntegrationUserLimit(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 9; i++ {
		u := &models.User{Username: string(rune('a' + i)), PasswordHash: "x", Role: models.RoleStandard, Active: true, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, repo.CreateUser(ctx, u, 10))
	}

	err := repo.CreateUser(ctx, &models.User{Username: "overflow", PasswordHash: "x", Role: models.RoleStandard, CreatedAt: now, UpdatedAt: now}, 10)
	assert.ErrorIs(t, err, ErrLimitReached)

	err = repo.CreateUser(ctx, &models.User{Username: "a", PasswordHash: "x", Role: models.RoleStandard, CreatedAt: now, UpdatedAt: now}, 20)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestIntegrationDeleteUser(t *testing.T) {
	repo := newPostgresRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()
	allow := func(*models.User, int) error { return nil }

	require.NoError(t, repo.CreateUser(ctx, &models.User{
		Username: "temp", PasswordHash: "x", Role: models.RoleStandard, Active: true,
		CreatedAt: now, UpdatedAt: now,
	}, 10))
	require.NoError(t, repo.DeleteUser(ctx, "temp", allow))
	_, err := repo.GetUser(ctx, "temp")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.CreateCase(ctx, newCase(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.DeleteUser(ctx, "clerk", allow), ErrReferenced)
}
