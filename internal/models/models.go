package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// User represents an account allowed to sign in
type User struct {
	Username     string    `db:"username" json:"username"`
	FullName     string    `db:"full_name" json:"fullName"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // bcrypt hash, never returned in JSON
	Role         Role      `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// UserUpdate is a partial change to an account. Nil fields are left alone.
type UserUpdate struct {
	Active *bool
	Role   *Role
}

// Case is a litigation record. CaseID is assigned once at creation and never changes.
type Case struct {
	CaseID              string          `db:"case_id" json:"caseId"`
	Forum               Forum           `db:"forum" json:"forum"`
	Status              CaseStatus      `db:"status" json:"status"`
	FiledDate           time.Time       `db:"filed_date" json:"filedDate"`
	CaseType            string          `db:"case_type" json:"caseType"`
	CaseNumber          string          `db:"case_no" json:"caseNo"`
	ConnectedCases      pq.StringArray  `db:"connected_cases" json:"connectedCases"`
	IsAppeal            bool            `db:"is_appeal" json:"isAppeal"`
	LowerCourt          string          `db:"lower_court" json:"lowerCourt"`
	LowerCourtCaseNo    string          `db:"lower_court_case_no" json:"lowerCourtCaseNo"`
	LowerCourtOrderDate *time.Time      `db:"lower_court_order_date" json:"lowerCourtOrderDate,omitempty"`
	CounselName         string          `db:"counsel_name" json:"counselName"`
	CounselContact      string          `db:"counsel_contact" json:"counselContact"`
	ASGEngaged          bool            `db:"asg_engaged" json:"asgEngaged"`
	BriefFacts          string          `db:"brief_facts" json:"briefFacts"`
	AffidavitStatus     AffidavitStatus `db:"affidavit_status" json:"affidavitStatus"`
	FinalOrderDate      *time.Time      `db:"final_order_date" json:"finalOrderDate,omitempty"`
	CreatedBy           string          `db:"created_by" json:"createdBy"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
	UpdatedBy           string          `db:"updated_by" json:"updatedBy"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updatedAt"`
}

// FilingYear is the year that scopes the case identifier.
func (c *Case) FilingYear() int {
	return c.FiledDate.Year()
}

// CaseDetails holds the editable descriptive fields of a case.
// Identifier, status and creation audit fields are deliberately absent.
type CaseDetails struct {
	Forum               Forum
	FiledDate           time.Time
	CaseType            string
	CaseNumber          string
	ConnectedCases      []string
	IsAppeal            bool
	LowerCourt          string
	LowerCourtCaseNo    string
	LowerCourtOrderDate *time.Time
	CounselName         string
	CounselContact      string
	ASGEngaged          bool
	BriefFacts          string
	AffidavitStatus     AffidavitStatus
	FinalOrderDate      *time.Time
}

// Apply copies the details onto c.
func (d CaseDetails) Apply(c *Case) {
	c.Forum = d.Forum
	c.FiledDate = DateOnly(d.FiledDate)
	c.CaseType = d.CaseType
	c.CaseNumber = d.CaseNumber
	c.ConnectedCases = append(pq.StringArray{}, d.ConnectedCases...)
	c.IsAppeal = d.IsAppeal
	c.LowerCourt = d.LowerCourt
	c.LowerCourtCaseNo = d.LowerCourtCaseNo
	c.LowerCourtOrderDate = DatePtr(d.LowerCourtOrderDate)
	c.CounselName = d.CounselName
	c.CounselContact = d.CounselContact
	c.ASGEngaged = d.ASGEngaged
	c.BriefFacts = d.BriefFacts
	c.AffidavitStatus = d.AffidavitStatus
	c.FinalOrderDate = DatePtr(d.FinalOrderDate)
}

// Party is a petitioner or respondent attached to a case
type Party struct {
	ID        string    `db:"id" json:"id"`
	CaseID    string    `db:"case_id" json:"caseId"`
	Role      PartyRole `db:"role" json:"role"`
	Seq       int       `db:"seq" json:"seq"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Label returns the display label, e.g. P1 or R3.
func (p Party) Label() string {
	return fmt.Sprintf("%s%d", p.Role.Prefix(), p.Seq)
}

// NewParty is a party supplied at case creation time
type NewParty struct {
	Role    PartyRole
	Name    string
	Address string
}

// HearingEvent is an immutable entry in a case's hearing chronology
type HearingEvent struct {
	ID          string    `db:"id" json:"id"`
	CaseID      string    `db:"case_id" json:"caseId"`
	HearingDate time.Time `db:"hearing_date" json:"hearingDate"`
	Note        string    `db:"note" json:"note"`
	CreatedBy   string    `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Document maps an uploaded file to a case
type Document struct {
	ID         string       `db:"id" json:"id"`
	CaseID     string       `db:"case_id" json:"caseId"`
	DocType    DocumentType `db:"doc_type" json:"docType"`
	FileName   string       `db:"file_name" json:"fileName"`
	FilingDate *time.Time   `db:"filing_date" json:"filingDate,omitempty"`
	BlobRef    string       `db:"blob_ref" json:"-"`
	UploadedBy string       `db:"uploaded_by" json:"uploadedBy"`
	UploadedAt time.Time    `db:"uploaded_at" json:"uploadedAt"`
}

// UpcomingHearing is one row of the upcoming hearings view
type UpcomingHearing struct {
	CaseID          string     `db:"case_id" json:"caseId"`
	Forum           Forum      `db:"forum" json:"forum"`
	Status          CaseStatus `db:"status" json:"status"`
	CaseNumber      string     `db:"case_no" json:"caseNo"`
	NextHearingDate time.Time  `db:"next_hearing_date" json:"nextHearingDate"`
}

// CaseView is the assembled case: the record plus everything that references it.
type CaseView struct {
	Case            Case           `json:"case"`
	Petitioners     []Party        `json:"petitioners"`
	Respondents     []Party        `json:"respondents"`
	Hearings        []HearingEvent `json:"hearings"`
	Documents       []Document     `json:"documents"`
	LastHearingDate *time.Time     `json:"lastHearingDate,omitempty"`
	NextHearingDate *time.Time     `json:"nextHearingDate,omitempty"`
}

// NewDocument is the metadata recorded when a file is attached to a case
type NewDocument struct {
	DocType    DocumentType
	FilingDate *time.Time
	FileName   string
	BlobRef    string
}

// HearingLedger is a case's hearing chronology with its derived dates
type HearingLedger struct {
	Hearings        []HearingEvent `json:"hearings"`
	LastHearingDate *time.Time     `json:"lastHearingDate,omitempty"`
	NextHearingDate *time.Time     `json:"nextHearingDate,omitempty"`
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
)

// Identity is the authenticated caller passed explicitly into every operation
type Identity struct {
	Username string
	Role     Role
}

// Can reports whether the identity holds the given permission.
func (i Identity) Can(p Permission) bool {
	return i.Username != "" && i.Role.Grants(p)
}

// Require returns ErrUnauthenticated for an empty identity and
// ErrForbidden when the role lacks p.
func (i Identity) Require(p Permission) error {
	if i.Username == "" {
		return ErrUnauthenticated
	}
	if !i.Role.Grants(p) {
		return fmt.Errorf("%w: %s requires %s", ErrForbidden, i.Role, p)
	}
	return nil
}
