package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTableIsClosed(t *testing.T) {
	allowed := map[CaseStatus][]CaseStatus{
		StatusFiled:     {StatusAdmission},
		StatusAdmission: {StatusHearing},
		StatusHearing:   {StatusAdjourned, StatusReserved, StatusAllowed, StatusDismissed},
		StatusAdjourned: {StatusHearing, StatusReserved, StatusAllowed, StatusDismissed},
		StatusReserved:  {StatusAllowed, StatusDismissed},
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			want := false
			for _, n := range allowed[from] {
				if n == to {
					want = true
				}
			}
			err := CheckTransition(from, to)
			if want {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, errors.Is(err, ErrInvalidTransition))

			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, from, te.From)
			assert.Equal(t, to, te.To)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusAllowed.Terminal())
	assert.True(t, StatusDismissed.Terminal())
	assert.False(t, StatusReserved.Terminal())
	assert.False(t, CaseStatus("Closed").Terminal())

	for _, to := range Statuses {
		assert.Error(t, CheckTransition(StatusAllowed, to))
		assert.Error(t, CheckTransition(StatusDismissed, to))
	}
}

func TestHearingAdjournedCycle(t *testing.T) {
	s := StatusHearing
	for i := 0; i < 5; i++ {
		require.NoError(t, CheckTransition(s, StatusAdjourned))
		require.NoError(t, CheckTransition(StatusAdjourned, StatusHearing))
	}
	assert.Error(t, CheckTransition(StatusReserved, StatusAdjourned))
	assert.Error(t, CheckTransition(StatusReserved, StatusHearing))
}

func TestParseCaseStatus(t *testing.T) {
	st, err := ParseCaseStatus("Reserved")
	require.NoError(t, err)
	assert.Equal(t, StatusReserved, st)

	_, err = ParseCaseStatus("reserved")
	assert.Error(t, err)
	_, err = ParseCaseStatus("")
	assert.Error(t, err)
}

func TestTransitionPath(t *testing.T) {
	path, ok := TransitionPath(StatusFiled, StatusAllowed)
	require.True(t, ok)
	assert.Equal(t, []CaseStatus{StatusAdmission, StatusHearing, StatusAllowed}, path)

	path, ok = TransitionPath(StatusFiled, StatusFiled)
	require.True(t, ok)
	assert.Empty(t, path)

	path, ok = TransitionPath(StatusFiled, StatusReserved)
	require.True(t, ok)
	assert.Equal(t, []CaseStatus{StatusAdmission, StatusHearing, StatusReserved}, path)

	_, ok = TransitionPath(StatusAllowed, StatusHearing)
	assert.False(t, ok)
}

func date(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDeriveHearingDates(t *testing.T) {
	events := []HearingEvent{
		{ID: "01", HearingDate: date("2024-01-10")},
		{ID: "02", HearingDate: date("2099-01-01")},
		{ID: "03", HearingDate: date("2024-03-05")},
	}
	now := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)

	last, next := DeriveHearingDates(events, now)
	require.NotNil(t, last)
	require.NotNil(t, next)
	assert.Equal(t, date("2024-03-05"), *last)
	assert.Equal(t, date("2099-01-01"), *next)
}

func TestDeriveHearingDatesEdges(t *testing.T) {
	last, next := DeriveHearingDates(nil, time.Now())
	assert.Nil(t, last)
	assert.Nil(t, next)

	today := date("2024-06-01")
	last, next = DeriveHearingDates([]HearingEvent{{HearingDate: today}}, today.Add(9*time.Hour))
	require.NotNil(t, last)
	assert.Equal(t, today, *last)
	assert.Nil(t, next)
}

func TestSortHearings(t *testing.T) {
	events := []HearingEvent{
		{ID: "03", HearingDate: date("2024-02-01")},
		{ID: "02", HearingDate: date("2024-01-01")},
		{ID: "01", HearingDate: date("2024-02-01")},
	}
	SortHearings(events)
	assert.Equal(t, "02", events[0].ID)
	assert.Equal(t, "01", events[1].ID)
	assert.Equal(t, "03", events[2].ID)
}

func TestPartyLabel(t *testing.T) {
	assert.Equal(t, "P1", Party{Role: Petitioner, Seq: 1}.Label())
	assert.Equal(t, "R12", Party{Role: Respondent, Seq: 12}.Label())
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleAdmin.Grants(PermAdmin))
	assert.True(t, RoleStandard.Grants(PermWrite))
	assert.False(t, RoleStandard.Grants(PermAdmin))
	assert.False(t, Identity{Role: RoleAdmin}.Can(PermRead))
	assert.True(t, Identity{Username: "clerk", Role: RoleStandard}.Can(PermRead))
}

func TestIdentityRequire(t *testing.T) {
	assert.ErrorIs(t, Identity{}.Require(PermRead), ErrUnauthenticated)
	assert.ErrorIs(t, Identity{Username: "clerk", Role: RoleStandard}.Require(PermAdmin), ErrForbidden)
	assert.NoError(t, Identity{Username: "clerk", Role: RoleStandard}.Require(PermWrite))
	assert.NoError(t, Identity{Username: "root", Role: RoleAdmin}.Require(PermAdmin))
}
