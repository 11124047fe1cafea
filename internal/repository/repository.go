package repository

import (
	"context"
	"time"

	"github.com/rongwang/litigation-tracker/internal/models"
)

// UserMutation edits a user row while the users table is locked.
// activeAdmins is the number of active admins before the edit.
type UserMutation func(u *models.User, activeAdmins int) error

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User, limit int) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdateUser(ctx context.Context, username string, at time.Time, mutate UserMutation) (*models.User, error)
	// DeleteUser removes an account that authored nothing. check runs first
	// under the same lock and may veto the delete.
	DeleteUser(ctx context.Context, username string, check UserMutation) error

	// Case operations
	CreateCase(ctx context.Context, c *models.Case, parties []models.NewParty) ([]models.Party, error)
	GetCase(ctx context.Context, caseID string) (*models.Case, error)
	ListCases(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error)
	UpdateCaseDetails(ctx context.Context, caseID string, details models.CaseDetails, actor string, at time.Time) (*models.Case, error)
	TransitionCase(ctx context.Context, caseID string, to models.CaseStatus, actor string, at time.Time) (*models.Case, error)

	// Party operations
	AddParty(ctx context.Context, party *models.Party, actor string) error
	ListParties(ctx context.Context, caseID string) ([]models.Party, error)

	// Hearing operations
	AppendHearing(ctx context.Context, event *models.HearingEvent) error
	ListHearings(ctx context.Context, caseID string) ([]models.HearingEvent, error)
	UpcomingHearings(ctx context.Context, after, until time.Time) ([]models.UpcomingHearing, error)

	// Document operations
	AttachDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)
	ListDocuments(ctx context.Context, caseID string) ([]models.Document, error)

	// Dashboard queries
	CountCases(ctx context.Context) (int, error)
	CountCasesByStatus(ctx context.Context) ([]models.CaseCount, error)
	CountCasesByForum(ctx context.Context) ([]models.CaseCount, error)
	RecentlyUpdatedCases(ctx context.Context, limit int) ([]models.Case, error)
}
