package importer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rongwang/litigation-tracker/internal/models"
)

var (
	joiners    = regexp.MustCompile(`[-_/]+`)
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// normalizeKey lowercases s, turns joining punctuation into spaces, drops
// the rest and collapses whitespace. "High-Court" and "high court" compare
// equal, and so do "C.A.T." and "cat".
func normalizeKey(s string) string {
	s = joiners.ReplaceAllString(strings.ToLower(s), " ")
	s = nonAlnum.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

var forumAliases = map[string]models.Forum{
	"cat":                             models.ForumCAT,
	"central administrative tribunal": models.ForumCAT,
	"hc":                              models.ForumHC,
	"high court":                      models.ForumHC,
	"sc":                              models.ForumSC,
	"supreme court":                   models.ForumSC,
	"other":                           models.ForumOther,
	"other tribunals":                 models.ForumOther,
	"tribunal":                        models.ForumOther,
	"ngt":                             models.ForumOther,
	"nclt":                            models.ForumOther,
	"itat":                            models.ForumOther,
}

var statusAliases = map[string]models.CaseStatus{
	"filed":                 models.StatusFiled,
	"new":                   models.StatusFiled,
	"admission":             models.StatusAdmission,
	"admitted":              models.StatusAdmission,
	"hearing":               models.StatusHearing,
	"in hearing":            models.StatusHearing,
	"under hearing":         models.StatusHearing,
	"adjourned":             models.StatusAdjourned,
	"reserved":              models.StatusReserved,
	"reserved for judgment": models.StatusReserved,
	"allowed":               models.StatusAllowed,
	"disposed":              models.StatusAllowed,
	"decided":               models.StatusAllowed,
	"dismissed":             models.StatusDismissed,
	"closed":                models.StatusDismissed,
}

var affidavitAliases = map[string]models.AffidavitStatus{
	"filed":                     models.AffidavitFiled,
	"pwc submitted":             models.AffidavitPWCSubmittedSC,
	"pwc submitted to sc":       models.AffidavitPWCSubmittedSC,
	"pwc pending":               models.AffidavitPWCPending,
	"pending":                   models.AffidavitPWCPending,
	"affidavit submitted":       models.AffidavitSubmittedSC,
	"affidavit submitted to sc": models.AffidavitSubmittedSC,
	"draft received":            models.AffidavitDraftReceived,
	"draft affidavit received":  models.AffidavitDraftReceived,
	"sent for vetting":          models.AffidavitSentForVetting,
	"vetting":                   models.AffidavitSentForVetting,
}

// dateLayouts are tried in order. Single-digit days and months are accepted.
var dateLayouts = []string{
	"2006-01-02",
	"2-1-2006",
	"2/1/2006",
	"2.1.2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"2 January 2006",
}

// blank reports whether a cell carries no value.
func blank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "na", "n/a", "none", "null", "nan", "nat":
		return true
	}
	return false
}

func clean(s string) string {
	if blank(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

func parseDate(s string) (*time.Time, error) {
	if blank(s) {
		return nil, nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD, DD-MM-YYYY, DD/MM/YYYY, DD.MM.YYYY or DD Mon YYYY", s)
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "on", "x":
		return true
	}
	return false
}

func parseForum(s string) (models.Forum, error) {
	if blank(s) {
		return "", fmt.Errorf("forum is required")
	}
	if f, ok := forumAliases[normalizeKey(s)]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown forum %q", s)
}

// parseStatus treats a blank status as Filed.
func parseStatus(s string) (models.CaseStatus, error) {
	if blank(s) {
		return models.StatusFiled, nil
	}
	if st, ok := statusAliases[normalizeKey(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown case status %q", s)
}

func parseAffidavitStatus(s string) (models.AffidavitStatus, error) {
	if blank(s) {
		return "", nil
	}
	if a, ok := affidavitAliases[normalizeKey(s)]; ok {
		return a, nil
	}
	return "", fmt.Errorf("unknown affidavit status %q", s)
}
