package models

import "time"

// CaseSort selects the ordering of a case listing
type CaseSort string

const (
	SortFiledDesc   CaseSort = "filed_desc"
	SortFiledAsc    CaseSort = "filed_asc"
	SortUpdatedDesc CaseSort = "updated_desc"
)

func (s CaseSort) Valid() bool {
	return s == SortFiledDesc || s == SortFiledAsc || s == SortUpdatedDesc
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	// MaxPage keeps the row offset well inside int range.
	MaxPage = 1_000_000
)

// CaseFilter narrows a case listing. Zero values mean no restriction.
type CaseFilter struct {
	Status    CaseStatus
	Forum     Forum
	FiledFrom *time.Time
	FiledTo   *time.Time
	Search    string
	Sort      CaseSort
	Page      int
	PerPage   int
}

// Normalize fills defaults and clamps pagination.
func (f CaseFilter) Normalize() CaseFilter {
	if !f.Sort.Valid() {
		f.Sort = SortFiledDesc
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	return f
}

// Offset is the number of rows skipped for the current page.
func (f CaseFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// CaseList is one page of a case listing
type CaseList struct {
	Cases      []Case `json:"cases"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PerPage    int    `json:"perPage"`
	TotalPages int    `json:"totalPages"`
}

// CaseCount is a grouped count used by the dashboard
type CaseCount struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

// Dashboard is the read-only summary shown after login
type Dashboard struct {
	TotalCases       int               `json:"totalCases"`
	ByStatus         map[string]int    `json:"byStatus"`
	ByForum          map[string]int    `json:"byForum"`
	UpcomingHearings []UpcomingHearing `json:"upcomingHearings"`
	RecentlyUpdated  []Case            `json:"recentlyUpdated"`
}

// RecentlyUpdatedLimit is the size of the dashboard's recent cases list.
const RecentlyUpdatedLimit = 5
