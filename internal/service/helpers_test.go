package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/rongwang/litigation-tracker/internal/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret        = "test-secret-key"
	testAdminName     = "admin"
	testAdminPassword = "admin123"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	svc   *DefaultService
	repo  repository.Repository
	clock *fakeClock
	admin models.Identity
}

func newTestEnvWithRepo(t *testing.T, repo repository.Repository, now time.Time, loc *time.Location) *testEnv {
	t.Helper()
	clock := &fakeClock{t: now}
	svc := NewDefaultService(repo, Options{
		JWTSecret:    testSecret,
		TokenTTL:     480 * time.Minute,
		StoreTimeout: time.Second,
		Location:     loc,
		BcryptCost:   bcrypt.MinCost,
		Now:          clock.Now,
	}).(*DefaultService)

	created, err := svc.EnsureDefaultAdmin(context.Background(), testAdminName, testAdminPassword)
	require.NoError(t, err)
	require.True(t, created)

	return &testEnv{
		svc:   svc,
		repo:  repo,
		clock: clock,
		admin: models.Identity{Username: testAdminName, Role: models.RoleAdmin},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithRepo(t, repository.NewMemoryRepository(),
		time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC), time.UTC)
}

// standardUser creates an active standard account and returns its identity.
func (e *testEnv) standardUser(t *testing.T, username string) models.Identity {
	t.Helper()
	_, err := e.svc.CreateUser(context.Background(), e.admin, models.CreateUserRequest{
		Username: username,
		Password: "secret1",
		Role:     string(models.RoleStandard),
	})
	require.NoError(t, err)
	return models.Identity{Username: username, Role: models.RoleStandard}
}

func mustDate(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func details(forum models.Forum, filed string) models.CaseDetails {
	return models.CaseDetails{Forum: forum, FiledDate: mustDate(filed)}
}

func (e *testEnv) createCase(t *testing.T, id models.Identity, filed string, parties ...models.NewParty) *models.Case {
	t.Helper()
	c, err := e.svc.CreateCase(context.Background(), id, details(models.ForumHC, filed), parties)
	require.NoError(t, err)
	return c
}

func (e *testEnv) walk(t *testing.T, id models.Identity, caseID string, statuses ...models.CaseStatus) {
	t.Helper()
	for _, st := range statuses {
		_, err := e.svc.TransitionCase(context.Background(), id, caseID, st)
		require.NoError(t, err)
	}
}
