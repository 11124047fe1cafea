package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rongwang/litigation-tracker/internal/identity"
	"github.com/rongwang/litigation-tracker/internal/ids"
	"github.com/rongwang/litigation-tracker/internal/models"
)

// MemoryRepository implements Repository in process memory. A single mutex
// stands in for the row and table locks the Postgres implementation takes.
type MemoryRepository struct {
	mu        sync.RWMutex
	users     map[string]models.User
	sequences map[int]int
	cases     map[string]models.Case
	parties   []models.Party
	hearings  []models.HearingEvent
	documents []models.Document
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:     make(map[string]models.User),
		sequences: make(map[int]int),
		cases:     make(map[string]models.Case),
	}
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return mapError(err)
	}
	return nil
}

func cloneCase(c models.Case) models.Case {
	c.ConnectedCases = append(pq.StringArray{}, c.ConnectedCases...)
	c.LowerCourtOrderDate = models.DatePtr(c.LowerCourtOrderDate)
	c.FinalOrderDate = models.DatePtr(c.FinalOrderDate)
	return c
}

// User operations

func (m *MemoryRepository) CreateUser(ctx context.Context, user *models.User, limit int) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Username]; ok {
		return ErrConflict
	}
	if limit > 0 && len(m.users) >= limit {
		return ErrLimitReached
	}
	m.users[user.Username] = *user
	return nil
}

func (m *MemoryRepository) GetUser(ctx context.Context, username string) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemoryRepository) CountUsers(ctx context.Context) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *MemoryRepository) UpdateUser(
	ctx context.Context,
	username string,
	at time.Time,
	mutate UserMutation,
) (*models.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}

	if err := mutate(&u, m.activeAdmins()); err != nil {
		return nil, err
	}
	u.Username = username
	u.UpdatedAt = at
	m.users[username] = u
	return &u, nil
}

func (m *MemoryRepository) DeleteUser(ctx context.Context, username string, check UserMutation) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return ErrNotFound
	}
	if err := check(&u, m.activeAdmins()); err != nil {
		return err
	}
	if m.authored(username) {
		return ErrReferenced
	}
	delete(m.users, username)
	return nil
}

func (m *MemoryRepository) activeAdmins() int {
	n := 0
	for _, u := range m.users {
		if u.Role == models.RoleAdmin && u.Active {
			n++
		}
	}
	return n
}

// authored reports whether any case, hearing or document names username.
func (m *MemoryRepository) authored(username string) bool {
	for _, c := range m.cases {
		if c.CreatedBy == username || c.UpdatedBy == username {
			return true
		}
	}
	for _, h := range m.hearings {
		if h.CreatedBy == username {
			return true
		}
	}
	for _, d := range m.documents {
		if d.UploadedBy == username {
			return true
		}
	}
	return false
}

// Case operations

func (m *MemoryRepository) CreateCase(
	ctx context.Context,
	c *models.Case,
	parties []models.NewParty,
) ([]models.Party, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	year := c.FilingYear()
	seq := m.sequences[year] + 1
	if seq > identity.MaxSequence {
		return nil, ErrSequenceExhausted
	}
	caseID, err := identity.Format(year, seq)
	if err != nil {
		return nil, err
	}
	if _, taken := m.cases[caseID]; taken {
		return nil, ErrConflict
	}
	m.sequences[year] = seq

	c.CaseID = caseID
	if c.ConnectedCases == nil {
		c.ConnectedCases = pq.StringArray{}
	}
	m.cases[caseID] = cloneCase(*c)

	created := make([]models.Party, 0, len(parties))
	next := map[models.PartyRole]int{}
	for _, np := range parties {
		next[np.Role]++
		p := models.Party{
			ID:        uuid.New().String(),
			CaseID:    caseID,
			Role:      np.Role,
			Seq:       next[np.Role],
			Name:      np.Name,
			Address:   np.Address,
			CreatedAt: c.CreatedAt,
		}
		m.parties = append(m.parties, p)
		created = append(created, p)
	}
	return created, nil
}

func (m *MemoryRepository) GetCase(ctx context.Context, caseID string) (*models.Case, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cases[caseID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneCase(c)
	return &out, nil
}

func (m *MemoryRepository) matches(c models.Case, f models.CaseFilter) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Forum != "" && c.Forum != f.Forum {
		return false
	}
	if f.FiledFrom != nil && c.FiledDate.Before(models.DateOnly(*f.FiledFrom)) {
		return false
	}
	if f.FiledTo != nil && c.FiledDate.After(models.DateOnly(*f.FiledTo)) {
		return false
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(c.CaseNumber), search) ||
		strings.Contains(strings.ToLower(c.CaseID), search) {
		return true
	}
	for _, p := range m.parties {
		if p.CaseID == c.CaseID && strings.Contains(strings.ToLower(p.Name), search) {
			return true
		}
	}
	return false
}

func caseLess(sortBy models.CaseSort, a, b models.Case) bool {
	switch sortBy {
	case models.SortFiledAsc:
		if !a.FiledDate.Equal(b.FiledDate) {
			return a.FiledDate.Before(b.FiledDate)
		}
	case models.SortUpdatedDesc:
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
	default:
		if !a.FiledDate.Equal(b.FiledDate) {
			return a.FiledDate.After(b.FiledDate)
		}
	}
	return a.CaseID < b.CaseID
}

func (m *MemoryRepository) ListCases(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error) {
	if err := checkContext(ctx); err != nil {
		return nil, 0, err
	}
	filter = filter.Normalize()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []models.Case
	for _, c := range m.cases {
		if m.matches(c, filter) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return caseLess(filter.Sort, all[i], all[j]) })

	page := []models.Case{}
	for i := filter.Offset(); i < len(all) && len(page) < filter.PerPage; i++ {
		page = append(page, cloneCase(all[i]))
	}
	return page, len(all), nil
}

func (m *MemoryRepository) UpdateCaseDetails(
	ctx context.Context,
	caseID string,
	details models.CaseDetails,
	actor string,
	at time.Time,
) (*models.Case, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cases[caseID]
	if !ok {
		return nil, ErrNotFound
	}
	details.Apply(&c)
	c.UpdatedBy = actor
	c.UpdatedAt = at
	m.cases[caseID] = c

	out := cloneCase(c)
	return &out, nil
}

func (m *MemoryRepository) TransitionCase(
	ctx context.Context,
	caseID string,
	to models.CaseStatus,
	actor string,
	at time.Time,
) (*models.Case, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cases[caseID]
	if !ok {
		return nil, ErrNotFound
	}
	if err := models.CheckTransition(c.Status, to); err != nil {
		return nil, err
	}
	c.Status = to
	c.UpdatedBy = actor
	c.UpdatedAt = at
	m.cases[caseID] = c

	out := cloneCase(c)
	return &out, nil
}

// touch must be called with mu held.
func (m *MemoryRepository) touch(caseID, actor string, at time.Time) {
	c := m.cases[caseID]
	c.UpdatedBy = actor
	c.UpdatedAt = at
	m.cases[caseID] = c
}

// Party operations

func (m *MemoryRepository) AddParty(ctx context.Context, party *models.Party, actor string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cases[party.CaseID]; !ok {
		return ErrNotFound
	}

	maxSeq := 0
	for _, p := range m.parties {
		if p.CaseID == party.CaseID && p.Role == party.Role && p.Seq > maxSeq {
			maxSeq = p.Seq
		}
	}
	if party.ID == "" {
		party.ID = uuid.New().String()
	}
	party.Seq = maxSeq + 1
	m.parties = append(m.parties, *party)
	m.touch(party.CaseID, actor, party.CreatedAt)
	return nil
}

func (m *MemoryRepository) ListParties(ctx context.Context, caseID string) ([]models.Party, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Party{}
	for _, p := range m.parties {
		if p.CaseID == caseID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role == models.Petitioner
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

// Hearing operations

func (m *MemoryRepository) AppendHearing(ctx context.Context, event *models.HearingEvent) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cases[event.CaseID]; !ok {
		return ErrNotFound
	}
	if event.ID == "" {
		event.ID = ids.NewOrdered()
	}
	event.HearingDate = models.DateOnly(event.HearingDate)
	m.hearings = append(m.hearings, *event)
	m.touch(event.CaseID, event.CreatedBy, event.CreatedAt)
	return nil
}

func (m *MemoryRepository) ListHearings(ctx context.Context, caseID string) ([]models.HearingEvent, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.HearingEvent{}
	for _, h := range m.hearings {
		if h.CaseID == caseID {
			out = append(out, h)
		}
	}
	models.SortHearings(out)
	return out, nil
}

func (m *MemoryRepository) UpcomingHearings(
	ctx context.Context,
	after time.Time,
	until time.Time,
) ([]models.UpcomingHearing, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	next := map[string]time.Time{}
	for _, h := range m.hearings {
		if !h.HearingDate.After(after) {
			continue
		}
		if d, ok := next[h.CaseID]; !ok || h.HearingDate.Before(d) {
			next[h.CaseID] = h.HearingDate
		}
	}

	out := []models.UpcomingHearing{}
	for caseID, d := range next {
		if d.After(until) {
			continue
		}
		c := m.cases[caseID]
		out = append(out, models.UpcomingHearing{
			CaseID:          caseID,
			Forum:           c.Forum,
			Status:          c.Status,
			CaseNumber:      c.CaseNumber,
			NextHearingDate: d,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextHearingDate.Equal(out[j].NextHearingDate) {
			return out[i].NextHearingDate.Before(out[j].NextHearingDate)
		}
		return out[i].CaseID < out[j].CaseID
	})
	return out, nil
}

// Document operations

func (m *MemoryRepository) AttachDocument(ctx context.Context, doc *models.Document) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cases[doc.CaseID]; !ok {
		return ErrNotFound
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.FilingDate = models.DatePtr(doc.FilingDate)
	m.documents = append(m.documents, *doc)
	m.touch(doc.CaseID, doc.UploadedBy, doc.UploadedAt)
	return nil
}

func (m *MemoryRepository) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.documents {
		if d.ID == documentID {
			out := d
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListDocuments(ctx context.Context, caseID string) ([]models.Document, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Document{}
	for _, d := range m.documents {
		if d.CaseID == caseID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].FilingDate, out[j].FilingDate
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// Dashboard queries

func (m *MemoryRepository) CountCases(ctx context.Context) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cases), nil
}

func (m *MemoryRepository) CountCasesByStatus(ctx context.Context) ([]models.CaseCount, error) {
	return m.countBy(ctx, func(c models.Case) string { return string(c.Status) })
}

func (m *MemoryRepository) CountCasesByForum(ctx context.Context) ([]models.CaseCount, error) {
	return m.countBy(ctx, func(c models.Case) string { return string(c.Forum) })
}

func (m *MemoryRepository) countBy(ctx context.Context, key func(models.Case) string) ([]models.CaseCount, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[string]int{}
	for _, c := range m.cases {
		counts[key(c)]++
	}
	out := make([]models.CaseCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.CaseCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryRepository) RecentlyUpdatedCases(ctx context.Context, limit int) ([]models.Case, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]models.Case, 0, len(m.cases))
	for _, c := range m.cases {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return caseLess(models.SortUpdatedDesc, all[i], all[j]) })
	if len(all) > limit {
		all = all[:limit]
	}
	for i := range all {
		all[i] = cloneCase(all[i])
	}
	return all, nil
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
