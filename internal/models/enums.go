package models

import "fmt"

// Forum is the court or tribunal level hearing a case
type Forum string

const (
	ForumCAT   Forum = "CAT"
	ForumHC    Forum = "HC"
	ForumSC    Forum = "SC"
	ForumOther Forum = "Other Tribunals"
)

// Forums lists every forum in display order.
var Forums = []Forum{ForumCAT, ForumHC, ForumSC, ForumOther}

func (f Forum) Valid() bool {
	switch f {
	case ForumCAT, ForumHC, ForumSC, ForumOther:
		return true
	}
	return false
}

// ParseForum rejects anything outside the enumeration.
func ParseForum(s string) (Forum, error) {
	f := Forum(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown forum %q", s)
	}
	return f, nil
}

// PartyRole is the side a party appears on
type PartyRole string

const (
	Petitioner PartyRole = "petitioner"
	Respondent PartyRole = "respondent"
)

func (r PartyRole) Valid() bool {
	return r == Petitioner || r == Respondent
}

// Prefix is the letter used in party labels.
func (r PartyRole) Prefix() string {
	if r == Respondent {
		return "R"
	}
	return "P"
}

// ParsePartyRole rejects anything outside the enumeration.
func ParsePartyRole(s string) (PartyRole, error) {
	r := PartyRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown party role %q", s)
	}
	return r, nil
}

// DocumentType classifies uploaded documents
type DocumentType string

const (
	DocAffidavit        DocumentType = "Affidavit"
	DocCounterAffidavit DocumentType = "Counter-Affidavit"
	DocRejoinder        DocumentType = "Rejoinder"
	DocCourtOrder       DocumentType = "Court-Order"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocAffidavit, DocCounterAffidavit, DocRejoinder, DocCourtOrder:
		return true
	}
	return false
}

// ParseDocumentType rejects anything outside the enumeration.
func ParseDocumentType(s string) (DocumentType, error) {
	d := DocumentType(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown document type %q", s)
	}
	return d, nil
}

// AffidavitStatus tracks the department's affidavit preparation.
// The empty value means not yet started.
type AffidavitStatus string

const (
	AffidavitFiled          AffidavitStatus = "Filed"
	AffidavitPWCSubmittedSC AffidavitStatus = "PWC Submitted to SC"
	AffidavitPWCPending     AffidavitStatus = "PWC Pending"
	AffidavitSubmittedSC    AffidavitStatus = "Affidavit Submitted to SC"
	AffidavitDraftReceived  AffidavitStatus = "Draft Affidavit Received"
	AffidavitSentForVetting AffidavitStatus = "Sent for Vetting"
)

// AffidavitStatuses lists every non-empty affidavit status.
var AffidavitStatuses = []AffidavitStatus{
	AffidavitFiled, AffidavitPWCSubmittedSC, AffidavitPWCPending,
	AffidavitSubmittedSC, AffidavitDraftReceived, AffidavitSentForVetting,
}

func (a AffidavitStatus) Valid() bool {
	if a == "" {
		return true
	}
	for _, s := range AffidavitStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// Role is a user's authorization level
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStandard
}

// Permission is what an operation requires of its caller
type Permission string

const (
	PermRead  Permission = "read"
	PermWrite Permission = "write"
	PermAdmin Permission = "admin"
)

// Grants reports whether the role carries the permission.
func (r Role) Grants(p Permission) bool {
	switch r {
	case RoleAdmin:
		return p == PermRead || p == PermWrite || p == PermAdmin
	case RoleStandard:
		return p == PermRead || p == PermWrite
	}
	return false
}
