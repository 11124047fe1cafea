package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rongwang/litigation-tracker/internal/identity"
	"github.com/rongwang/litigation-tracker/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// validateDetails rejects enum values outside their sets and normalises
// the connected case list.
func validateDetails(d *models.CaseDetails) error {
	if !d.Forum.Valid() {
		return invalidInput("unknown forum %q", d.Forum)
	}
	if d.FiledDate.IsZero() {
		return invalidInput("filed date is required")
	}
	if _, err := identity.Format(d.FiledDate.Year(), 1); err != nil {
		return invalidInput("filed date %s is out of range", d.FiledDate.Format(models.DateLayout))
	}
	if !d.AffidavitStatus.Valid() {
		return invalidInput("unknown affidavit status %q", d.AffidavitStatus)
	}

	seen := map[string]bool{}
	connected := make([]string, 0, len(d.ConnectedCases))
	for _, c := range d.ConnectedCases {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		if !identity.Valid(c) {
			return invalidInput("connected case %q is not a case identifier", c)
		}
		seen[c] = true
		connected = append(connected, c)
	}
	d.ConnectedCases = connected

	if !d.IsAppeal {
		d.LowerCourt = ""
		d.LowerCourtCaseNo = ""
		d.LowerCourtOrderDate = nil
	}
	return nil
}

func validateParty(p models.NewParty) error {
	if !p.Role.Valid() {
		return invalidInput("unknown party role %q", p.Role)
	}
	if strings.TrimSpace(p.Name) == "" {
		return invalidInput("party name is required")
	}
	return nil
}

func (s *DefaultService) CreateCase(
	ctx context.Context,
	id models.Identity,
	details models.CaseDetails,
	parties []models.NewParty,
) (*models.Case, error) {
	if err := id.Require(models.PermWrite); err != nil {
		return nil, err
	}
	if err := validateDetails(&details); err != nil {
		return nil, err
	}
	for i := range parties {
		parties[i].Name = strings.TrimSpace(parties[i].Name)
		if err := validateParty(parties[i]); err != nil {
			return nil, err
		}
	}

	var c *models.Case
	err := s.withRetry(ctx, "create_case", func(ctx context.Context) error {
		now := s.timestamp()
		c = &models.Case{
			Status:    models.InitialStatus,
			CreatedBy: id.Username,
			CreatedAt: now,
			UpdatedBy: id.Username,
			UpdatedAt: now,
		}
		details.Apply(c)
		_, err := s.repo.CreateCase(ctx, c, parties)
		return err
	})
	if errors.Is(err, ErrAllocationExhausted) {
		s.metrics.AllocationExhausted()
		s.logger.Error("case identifiers exhausted",
			zap.Int("year", details.FiledDate.Year()),
			zap.String("by", id.Username))
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	s.metrics.CaseCreated()
	s.logger.Info("case created",
		zap.String("case_id", c.CaseID),
		zap.String("forum", string(c.Forum)),
		zap.Int("parties", len(parties)),
		zap.String("by", id.Username))
	return c, nil
}

func (s *DefaultService) GetCase(ctx context.Context, id models.Identity, caseID string) (*models.Case, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, err
	}
	return s.getCase(ctx, caseID)
}

func (s *DefaultService) getCase(ctx context.Context, caseID string) (*models.Case, error) {
	if !identity.Valid(caseID) {
		return nil, notFound("case", caseID)
	}

	var c *models.Case
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetCase(ctx, caseID)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("case", caseID)
	}
	return c, err
}

// AssembleCase loads a case with everything that references it. The
// sub-reads run concurrently and are not a single snapshot.
func (s *DefaultService) AssembleCase(ctx context.Context, id models.Identity, caseID string) (*models.CaseView, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, err
	}

	c, err := s.getCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	var (
		parties   []models.Party
		hearings  []models.HearingEvent
		documents []models.Document
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.read(gctx, func(ctx context.Context) error {
			var err error
			parties, err = s.repo.ListParties(ctx, caseID)
			return err
		})
	})
	g.Go(func() error {
		return s.read(gctx, func(ctx context.Context) error {
			var err error
			hearings, err = s.repo.ListHearings(ctx, caseID)
			return err
		})
	})
	g.Go(func() error {
		return s.read(gctx, func(ctx context.Context) error {
			var err error
			documents, err = s.repo.ListDocuments(ctx, caseID)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	petitioners, respondents := splitParties(parties)
	models.SortHearings(hearings)
	last, next := models.DeriveHearingDates(hearings, s.today())

	return &models.CaseView{
		Case:            *c,
		Petitioners:     petitioners,
		Respondents:     respondents,
		Hearings:        hearings,
		Documents:       documents,
		LastHearingDate: last,
		NextHearingDate: next,
	}, nil
}

func (s *DefaultService) ListCases(ctx context.Context, id models.Identity, filter models.CaseFilter) (*models.CaseList, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalidInput("unknown status %q", filter.Status)
	}
	if filter.Forum != "" && !filter.Forum.Valid() {
		return nil, invalidInput("unknown forum %q", filter.Forum)
	}
	if filter.Sort != "" && !filter.Sort.Valid() {
		return nil, invalidInput("unknown sort %q", filter.Sort)
	}
	filter = filter.Normalize()

	var (
		cases []models.Case
		total int
	)
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		cases, total, err = s.repo.ListCases(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.CaseList{
		Cases:      cases,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: (total + filter.PerPage - 1) / filter.PerPage,
	}, nil
}

func (s *DefaultService) UpdateCaseDetails(
	ctx context.Context,
	id models.Identity,
	caseID string,
	details models.CaseDetails,
) (*models.Case, error) {
	if err := id.Require(models.PermWrite); err != nil {
		return nil, err
	}
	if err := validateDetails(&details); err != nil {
		return nil, err
	}
	if !identity.Valid(caseID) {
		return nil, notFound("case", caseID)
	}

	var c *models.Case
	err := s.withRetry(ctx, "update_case", func(ctx context.Context) error {
		var err error
		c, err = s.repo.UpdateCaseDetails(ctx, caseID, details, id.Username, s.timestamp())
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("case", caseID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("case updated", zap.String("case_id", caseID), zap.String("by", id.Username))
	return c, nil
}

func (s *DefaultService) TransitionCase(
	ctx context.Context,
	id models.Identity,
	caseID string,
	to models.CaseStatus,
) (*models.Case, error) {
	if err := id.Require(models.PermWrite); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, invalidInput("unknown status %q", to)
	}
	if !identity.Valid(caseID) {
		return nil, notFound("case", caseID)
	}

	var c *models.Case
	err := s.withRetry(ctx, "transition_case", func(ctx context.Context) error {
		var err error
		c, err = s.repo.TransitionCase(ctx, caseID, to, id.Username, s.timestamp())
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("case", caseID)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.StatusTransition(string(to))
	s.logger.Info("case status changed",
		zap.String("case_id", caseID),
		zap.String("status", string(to)),
		zap.String("by", id.Username))
	return c, nil
}
