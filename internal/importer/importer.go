package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rongwang/litigation-tracker/internal/identity"
	"github.com/rongwang/litigation-tracker/internal/metrics"
	"github.com/rongwang/litigation-tracker/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidManifest is returned when the payload is not a YAML list of rows.
	ErrInvalidManifest = errors.New("import: invalid manifest")
	// ErrEmptyManifest is returned when the payload holds no rows.
	ErrEmptyManifest = errors.New("import: manifest is empty")
)

// ImportedNote is attached to hearing events created from a manifest.
const ImportedNote = "imported"

// Party is a petitioner or respondent as written in a manifest
type Party struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// Row is one case in a manifest. Values are kept as text so that
// normalization, not the decoder, decides what is acceptable.
type Row struct {
	Forum               string   `yaml:"forum"`
	Status              string   `yaml:"status"`
	FiledDate           string   `yaml:"filed_date"`
	CaseType            string   `yaml:"case_type"`
	CaseNumber          string   `yaml:"case_no"`
	ConnectedCases      []string `yaml:"connected_cases"`
	IsAppeal            string   `yaml:"is_appeal"`
	LowerCourt          string   `yaml:"lower_court"`
	LowerCourtCaseNo    string   `yaml:"lower_court_case_no"`
	LowerCourtOrderDate string   `yaml:"lower_court_order_date"`
	CounselName         string   `yaml:"counsel_name"`
	CounselContact      string   `yaml:"counsel_contact"`
	ASGEngaged          string   `yaml:"asg_engaged"`
	BriefFacts          string   `yaml:"brief_facts"`
	AffidavitStatus     string   `yaml:"affidavit_status"`
	FinalOrderDate      string   `yaml:"final_order_date"`
	LastHearingDate     string   `yaml:"last_hearing_date"`
	NextHearingDate     string   `yaml:"next_hearing_date"`
	Petitioners         []Party  `yaml:"petitioners"`
	Respondents         []Party  `yaml:"respondents"`
}

// RowError describes why one row was not imported. Row numbers start at 1.
type RowError struct {
	Row     int    `json:"row"`
	CaseID  string `json:"caseId,omitempty"`
	Message string `json:"message"`
}

// Report summarises an import run
type Report struct {
	Strict   bool       `json:"strict"`
	Total    int        `json:"total"`
	Imported []string   `json:"imported"`
	Errors   []RowError `json:"errors"`
}

// CaseWriter is the subset of the service the importer drives.
type CaseWriter interface {
	CreateCase(ctx context.Context, id models.Identity, details models.CaseDetails, parties []models.NewParty) (*models.Case, error)
	AppendHearing(ctx context.Context, id models.Identity, caseID string, date time.Time, note string) (*models.HearingEvent, error)
	TransitionCase(ctx context.Context, id models.Identity, caseID string, to models.CaseStatus) (*models.Case, error)
}

// Options configures an Importer. Zero values fall back to defaults.
type Options struct {
	Now      func() time.Time
	Location *time.Location
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Importer creates cases from YAML manifests through the normal service path
type Importer struct {
	cases    CaseWriter
	now      func() time.Time
	location *time.Location
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func New(cases CaseWriter, opts Options) *Importer {
	im := &Importer{
		cases:    cases,
		now:      opts.Now,
		location: opts.Location,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if im.now == nil {
		im.now = time.Now
	}
	if im.location == nil {
		im.location = time.UTC
	}
	if im.logger == nil {
		im.logger = zap.NewNop()
	}
	if im.metrics == nil {
		im.metrics = metrics.New()
	}
	return im
}

// ParseManifest decodes a YAML list of rows.
func ParseManifest(data []byte) ([]Row, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyManifest
	}
	var rows []Row
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyManifest
	}
	return rows, nil
}

// Import parses the manifest and imports every row. A malformed manifest
// fails as a whole; a bad row is recorded in the report and skipped.
func (im *Importer) Import(ctx context.Context, id models.Identity, data []byte, strict bool) (*Report, error) {
	if err := id.Require(models.PermWrite); err != nil {
		return nil, err
	}
	rows, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	return im.ImportRows(ctx, id, rows, strict)
}

func (im *Importer) ImportRows(ctx context.Context, id models.Identity, rows []Row, strict bool) (*Report, error) {
	if err := id.Require(models.PermWrite); err != nil {
		return nil, err
	}

	report := &Report{
		Strict:   strict,
		Total:    len(rows),
		Imported: []string{},
		Errors:   []RowError{},
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		caseID, err := im.importRow(ctx, id, row, strict)
		if err != nil {
			im.metrics.ImportRow("failed")
			report.Errors = append(report.Errors, RowError{Row: i + 1, CaseID: caseID, Message: err.Error()})
			continue
		}
		im.metrics.ImportRow("imported")
		report.Imported = append(report.Imported, caseID)
	}

	im.logger.Info("import finished",
		zap.String("by", id.Username),
		zap.Bool("strict", strict),
		zap.Int("total", report.Total),
		zap.Int("imported", len(report.Imported)),
		zap.Int("failed", len(report.Errors)))
	return report, nil
}

// plan is a normalised row ready to be written.
type plan struct {
	details  models.CaseDetails
	parties  []models.NewParty
	status   models.CaseStatus
	hearings []time.Time
}

func (im *Importer) importRow(ctx context.Context, id models.Identity, row Row, strict bool) (string, error) {
	p, err := im.normalize(row, strict)
	if err != nil {
		return "", err
	}

	c, err := im.cases.CreateCase(ctx, id, p.details, p.parties)
	if err != nil {
		return "", err
	}
	for _, d := range p.hearings {
		if _, err := im.cases.AppendHearing(ctx, id, c.CaseID, d, ImportedNote); err != nil {
			return c.CaseID, fmt.Errorf("case %s created but hearing %s failed: %w", c.CaseID, d.Format(models.DateLayout), err)
		}
	}
	path, _ := models.TransitionPath(c.Status, p.status)
	for _, st := range path {
		if _, err := im.cases.TransitionCase(ctx, id, c.CaseID, st); err != nil {
			return c.CaseID, fmt.Errorf("case %s created but moving to %s failed: %w", c.CaseID, st, err)
		}
	}
	return c.CaseID, nil
}

// normalize applies aliases and date formats. Strict mode rejects what
// lenient mode replaces with a default.
func (im *Importer) normalize(row Row, strict bool) (*plan, error) {
	p := &plan{}
	d := &p.details

	forum, err := parseForum(row.Forum)
	if err != nil {
		if strict {
			return nil, err
		}
		forum = models.ForumOther
	}
	d.Forum = forum

	p.status, err = parseStatus(row.Status)
	if err != nil {
		if strict {
			return nil, err
		}
		p.status = models.StatusFiled
	}

	d.AffidavitStatus, err = parseAffidavitStatus(row.AffidavitStatus)
	if err != nil {
		if strict {
			return nil, err
		}
		d.AffidavitStatus = ""
	}

	date := func(field, value string) (*time.Time, error) {
		t, err := parseDate(value)
		if err != nil {
			if strict {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
			return nil, nil
		}
		return t, nil
	}

	filed, err := date("filed_date", row.FiledDate)
	if err != nil {
		return nil, err
	}
	if filed == nil {
		today := models.DateOnly(im.now().In(im.location))
		filed = &today
	}
	d.FiledDate = *filed

	if d.LowerCourtOrderDate, err = date("lower_court_order_date", row.LowerCourtOrderDate); err != nil {
		return nil, err
	}
	if d.FinalOrderDate, err = date("final_order_date", row.FinalOrderDate); err != nil {
		return nil, err
	}
	last, err := date("last_hearing_date", row.LastHearingDate)
	if err != nil {
		return nil, err
	}
	next, err := date("next_hearing_date", row.NextHearingDate)
	if err != nil {
		return nil, err
	}
	for _, h := range []*time.Time{last, next} {
		if h != nil {
			p.hearings = append(p.hearings, *h)
		}
	}

	d.CaseType = clean(row.CaseType)
	d.CaseNumber = clean(row.CaseNumber)
	d.IsAppeal = parseFlag(row.IsAppeal)
	d.LowerCourt = clean(row.LowerCourt)
	d.LowerCourtCaseNo = clean(row.LowerCourtCaseNo)
	d.CounselName = clean(row.CounselName)
	d.CounselContact = clean(row.CounselContact)
	d.ASGEngaged = parseFlag(row.ASGEngaged)
	d.BriefFacts = clean(row.BriefFacts)

	for _, c := range row.ConnectedCases {
		c = clean(c)
		if c == "" {
			continue
		}
		if !identity.Valid(c) {
			if strict {
				return nil, fmt.Errorf("connected case %q is not a case identifier", c)
			}
			continue
		}
		d.ConnectedCases = append(d.ConnectedCases, c)
	}

	add := func(role models.PartyRole, parties []Party) {
		for _, party := range parties {
			if name := clean(party.Name); name != "" {
				p.parties = append(p.parties, models.NewParty{Role: role, Name: name, Address: clean(party.Address)})
			}
		}
	}
	add(models.Petitioner, row.Petitioners)
	add(models.Respondent, row.Respondents)

	if strict && d.CaseNumber == "" && !hasRole(p.parties, models.Petitioner) {
		return nil, errors.New("either a case number or at least one petitioner is required")
	}
	return p, nil
}

func hasRole(parties []models.NewParty, role models.PartyRole) bool {
	for _, p := range parties {
		if p.Role == role {
			return true
		}
	}
	return false
}
