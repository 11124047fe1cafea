package service

import (
	"context"
	"errors"
	"time"

	"github.com/rongwang/litigation-tracker/internal/metrics"
	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/rongwang/litigation-tracker/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MaxUsers caps the total number of accounts, active or not.
const MaxUsers = 10

// MinPasswordLength applies to every password set through the service.
const MinPasswordLength = 6

// Service defines all the business logic operations
type Service interface {
	// Authentication
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Authenticate(ctx context.Context, token string) (models.Identity, error)

	// Users
	CurrentUser(ctx context.Context, id models.Identity) (*models.User, error)
	ChangePassword(ctx context.Context, id models.Identity, current, next string) error
	CreateUser(ctx context.Context, id models.Identity, req models.CreateUserRequest) (*models.User, error)
	ListUsers(ctx context.Context, id models.Identity) ([]models.User, error)
	SetUserActive(ctx context.Context, id models.Identity, username string, active bool) (*models.User, error)
	SetUserRole(ctx context.Context, id models.Identity, username string, role models.Role) (*models.User, error)
	UpdateUser(ctx context.Context, id models.Identity, username string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id models.Identity, username string) error
	ResetPassword(ctx context.Context, id models.Identity, username, newPassword string) error
	EnsureDefaultAdmin(ctx context.Context, username, password string) (bool, error)

	// Cases
	CreateCase(ctx context.Context, id models.Identity, details models.CaseDetails, parties []models.NewParty) (*models.Case, error)
	GetCase(ctx context.Context, id models.Identity, caseID string) (*models.Case, error)
	AssembleCase(ctx context.Context, id models.Identity, caseID string) (*models.CaseView, error)
	ListCases(ctx context.Context, id models.Identity, filter models.CaseFilter) (*models.CaseList, error)
	UpdateCaseDetails(ctx context.Context, id models.Identity, caseID string, details models.CaseDetails) (*models.Case, error)
	TransitionCase(ctx context.Context, id models.Identity, caseID string, to models.CaseStatus) (*models.Case, error)

	// Parties
	AddParty(ctx context.Context, id models.Identity, caseID string, party models.NewParty) (*models.Party, error)
	ListParties(ctx context.Context, id models.Identity, caseID string) (petitioners, respondents []models.Party, err error)

	// Hearings
	AppendHearing(ctx context.Context, id models.Identity, caseID string, date time.Time, note string) (*models.HearingEvent, error)
	ListHearings(ctx context.Context, id models.Identity, caseID string) (*models.HearingLedger, error)
	UpcomingHearings(ctx context.Context, id models.Identity) ([]models.UpcomingHearing, error)

	// Documents
	AttachDocument(ctx context.Context, id models.Identity, caseID string, doc models.NewDocument) (*models.Document, error)
	GetDocument(ctx context.Context, id models.Identity, documentID string) (*models.Document, error)
	ListDocuments(ctx context.Context, id models.Identity, caseID string) ([]models.Document, error)

	// Dashboard
	Dashboard(ctx context.Context, id models.Identity) (*models.Dashboard, error)
}

// Options configures a DefaultService. Zero values fall back to defaults.
type Options struct {
	JWTSecret    string
	TokenTTL     time.Duration
	StoreTimeout time.Duration
	Location     *time.Location
	BcryptCost   int
	Now          func() time.Time
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
	storeTimeout  time.Duration
	location      *time.Location
	bcryptCost    int
	dummyHash     []byte
	now           func() time.Time
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, opts Options) Service {
	s := &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(opts.JWTSecret),
		tokenDuration: opts.TokenTTL,
		storeTimeout:  opts.StoreTimeout,
		location:      opts.Location,
		bcryptCost:    opts.BcryptCost,
		now:           opts.Now,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
	if s.tokenDuration <= 0 {
		s.tokenDuration = 480 * time.Minute
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = 5 * time.Second
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	// Unknown usernames are compared against this so a failed login costs
	// the same whether or not the account exists.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	return s
}

// storeContext bounds a single store call.
func (s *DefaultService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// today is the calendar date of now in the configured time zone.
func (s *DefaultService) today() time.Time {
	return models.DateOnly(s.now().In(s.location))
}

func (s *DefaultService) timestamp() time.Time {
	return s.now().UTC()
}

// withRetry runs fn under a fresh store timeout, retrying once on Conflict.
func (s *DefaultService) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		sctx, cancel := s.storeContext(ctx)
		err = translate(fn(sctx))
		cancel()
		if !errors.Is(err, ErrConflict) {
			return err
		}
		s.logger.Warn("store conflict", zap.String("op", op), zap.Int("attempt", attempt))
	}
	return err
}

// read runs a single bounded store call.
func (s *DefaultService) read(ctx context.Context, fn func(ctx context.Context) error) error {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()
	return translate(fn(sctx))
}
