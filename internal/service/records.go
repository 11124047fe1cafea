package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rongwang/litigation-tracker/internal/ids"
	"github.com/rongwang/litigation-tracker/internal/models"
	"go.uber.org/zap"
)

func splitParties(parties []models.Party) (petitioners, respondents []models.Party) {
	petitioners, respondents = []models.Party{}, []models.Party{}
	for _, p := range parties {
		if p.Role == models.Respondent {
			respondents = append(respondents, p)
			continue
		}
		petitioners = append(petitioners, p)
	}
	return petitioners, respondents
}

// Party registry

func (s *DefaultService) AddParty(
	ctx context.Context,
	id models.Identity,
	caseID string,
	np models.NewParty,
) (*models.Party, error) {
	if err := id.Require(models.PermWrite); err != nil {
		return nil, err
	}
	np.Name = strings.TrimSpace(np.Name)
	if err := validateParty(np); err != nil {
		return nil, err
	}

	var party *models.Party
	err := s.withRetry(ctx, "add_party", func(ctx context.Context) error {
		party = &models.Party{
			CaseID:    caseID,
			Role:      np.Role,
			Name:      np.Name,
			Address:   np.Address,
			CreatedAt: s.timestamp(),
		}
		return s.repo.AddParty(ctx, party, id.Username)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("case", caseID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("party added",
		zap.String("case_id", caseID),
		zap.String("label", party.Label()),
		zap.String("by", id.Username))
	return party, nil
}

func (s *DefaultService) ListParties(
	ctx context.Context,
	id models.Identity,
	caseID string,
) ([]models.Party, []models.Party, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, nil, err
	}
	if _, err := s.getCase(ctx, caseID); err != nil {
		return nil, nil, err
	}

	var parties []models.Party
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		parties, err = s.repo.ListParties(ctx, caseID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	petitioners, respondents := splitParties(parties)
	return petitioners, respondents, nil
}

// Hearing ledger

func (s *DefaultService) AppendHearing(
	ctx context.Context,
	id models.Identity,
	caseID string,
	date time.Time,
	note string,
) (*models.HearingEvent, error) {
	if err := id.Require(models.PermWrite); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, invalidInput("hearing date is required")
	}

	event := &models.HearingEvent{
		CaseID:      caseID,
		HearingDate: models.DateOnly(date),
		Note:        strings.TrimSpace(note),
		CreatedBy:   id.Username,
	}
	err := s.withRetry(ctx, "append_hearing", func(ctx context.Context) error {
		// The store mints the id under its case lock
		event.ID = ""
		event.CreatedAt = s.timestamp()
		return s.repo.AppendHearing(ctx, event)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("case", caseID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("hearing recorded",
		zap.String("case_id", caseID),
		zap.String("date", event.HearingDate.Format(models.DateLayout)),
		zap.String("by", id.Username))
	return event, nil
}

func (s *DefaultService) ListHearings(ctx context.Context, id models.Identity, caseID string) (*models.HearingLedger, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, err
	}
	if _, err := s.getCase(ctx, caseID); err != nil {
		return nil, err
	}

	var events []models.HearingEvent
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		events, err = s.repo.ListHearings(ctx, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	models.SortHearings(events)
	last, next := models.DeriveHearingDates(events, s.today())
	return &models.HearingLedger{
		Hearings:        events,
		LastHearingDate: last,
		NextHearingDate: next,
	}, nil
}

func (s *DefaultService) UpcomingHearings(ctx context.Context, id models.Identity) ([]models.UpcomingHearing, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, err
	}
	return s.upcomingHearings(ctx)
}

func (s *DefaultService) upcomingHearings(ctx context.Context) ([]models.UpcomingHearing, error) {
	after, until := models.UpcomingWindow(s.today())

	var rows []models.UpcomingHearing
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		rows, err = s.repo.UpcomingHearings(ctx, after, until)
		return err
	})
	return rows, err
}

// Document index

func (s *DefaultService) AttachDocument(
	ctx context.Context,
	id models.Identity,
	caseID string,
	nd models.NewDocument,
) (*models.Document, error) {
	if err := id.Require(models.PermWrite); err != nil {
		return nil, err
	}
	if !nd.DocType.Valid() {
		return nil, invalidInput("unknown document type %q", nd.DocType)
	}
	if nd.BlobRef == "" {
		return nil, invalidInput("document content is required")
	}
	if strings.TrimSpace(nd.FileName) == "" {
		return nil, invalidInput("file name is required")
	}

	doc := &models.Document{
		ID:         ids.New(),
		CaseID:     caseID,
		DocType:    nd.DocType,
		FileName:   nd.FileName,
		FilingDate: models.DatePtr(nd.FilingDate),
		BlobRef:    nd.BlobRef,
		UploadedBy: id.Username,
	}
	err := s.withRetry(ctx, "attach_document", func(ctx context.Context) error {
		doc.UploadedAt = s.timestamp()
		return s.repo.AttachDocument(ctx, doc)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("case", caseID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("document attached",
		zap.String("case_id", caseID),
		zap.String("document_id", doc.ID),
		zap.String("type", string(doc.DocType)),
		zap.String("by", id.Username))
	return doc, nil
}

func (s *DefaultService) GetDocument(ctx context.Context, id models.Identity, documentID string) (*models.Document, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, err
	}

	var doc *models.Document
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetDocument(ctx, documentID)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("document", documentID)
	}
	return doc, err
}

func (s *DefaultService) ListDocuments(ctx context.Context, id models.Identity, caseID string) ([]models.Document, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, err
	}
	if _, err := s.getCase(ctx, caseID); err != nil {
		return nil, err
	}

	var docs []models.Document
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		docs, err = s.repo.ListDocuments(ctx, caseID)
		return err
	})
	return docs, err
}
