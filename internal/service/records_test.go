package service

import (
	"context"
	"testing"
	"time"

	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/rongwang/litigation-tracker/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHearingLedgerDerivation(t *testing.T) {
	env := newTestEnv(t) // now is 2024-06-01 15:30 UTC
	ctx := context.Background()
	c := env.createCase(t, env.admin, "2023-11-11")

	for _, d := range []string{"2024-01-10", "2099-01-01", "2024-03-05"} {
		_, err := env.svc.AppendHearing(ctx, env.admin, c.CaseID, mustDate(d), "")
		require.NoError(t, err)
	}

	ledger, err := env.svc.ListHearings(ctx, env.admin, c.CaseID)
	require.NoError(t, err)
	require.Len(t, ledger.Hearings, 3)
	assert.Equal(t, mustDate("2024-01-10"), ledger.Hearings[0].HearingDate)
	assert.Equal(t, mustDate("2024-03-05"), ledger.Hearings[1].HearingDate)
	assert.Equal(t, mustDate("2099-01-01"), ledger.Hearings[2].HearingDate)
	require.NotNil(t, ledger.LastHearingDate)
	require.NotNil(t, ledger.NextHearingDate)
	assert.Equal(t, mustDate("2024-03-05"), *ledger.LastHearingDate)
	assert.Equal(t, mustDate("2099-01-01"), *ledger.NextHearingDate)
}

func TestHearingSameDateKeepsInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.createCase(t, env.admin, "2024-01-01")

	for _, note := range []string{"morning", "afternoon", "evening"} {
		_, err := env.svc.AppendHearing(ctx, env.admin, c.CaseID, mustDate("2024-04-04"), note)
		require.NoError(t, err)
	}

	ledger, err := env.svc.ListHearings(ctx, env.admin, c.CaseID)
	require.NoError(t, err)
	require.Len(t, ledger.Hearings, 3)
	assert.Equal(t, "morning", ledger.Hearings[0].Note)
	assert.Equal(t, "afternoon", ledger.Hearings[1].Note)
	assert.Equal(t, "evening", ledger.Hearings[2].Note)
	assert.Nil(t, ledger.NextHearingDate)
}

func TestTodayFollowsConfiguredZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on May 31 is already June 1 in IST
	env := newTestEnvWithRepo(t, repository.NewMemoryRepository(),
		time.Date(2024, 5, 31, 20, 0, 0, 0, time.UTC), ist)
	ctx := context.Background()
	c := env.createCase(t, env.admin, "2024-01-01")

	_, err := env.svc.AppendHearing(ctx, env.admin, c.CaseID, mustDate("2024-06-01"), "")
	require.NoError(t, err)

	ledger, err := env.svc.ListHearings(ctx, env.admin, c.CaseID)
	require.NoError(t, err)
	require.NotNil(t, ledger.LastHearingDate)
	assert.Nil(t, ledger.NextHearingDate)
}

func TestUpcomingHearingsWindow(t *testing.T) {
	env := newTestEnv(t) // today is 2024-06-01
	ctx := context.Background()

	add := func(caseID string, dates ...string) {
		for _, d := range dates {
			_, err := env.svc.AppendHearing(ctx, env.admin, caseID, mustDate(d), "")
			require.NoError(t, err)
		}
	}

	edge := env.createCase(t, env.admin, "2024-01-01")    // 2024001
	outside := env.createCase(t, env.admin, "2024-01-02") // 2024002
	today := env.createCase(t, env.admin, "2024-01-03")   // 2024003
	soon := env.createCase(t, env.admin, "2024-01-04")    // 2024004
	tie := env.createCase(t, env.admin, "2024-01-05")     // 2024005

	add(edge.CaseID, "2024-06-11")
	add(outside.CaseID, "2024-06-12")
	add(today.CaseID, "2024-06-01")
	add(soon.CaseID, "2024-06-09", "2024-06-03", "2024-05-01")
	add(tie.CaseID, "2024-06-03")

	rows, err := env.svc.UpcomingHearings(ctx, env.admin)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, soon.CaseID, rows[0].CaseID)
	assert.Equal(t, mustDate("2024-06-03"), rows[0].NextHearingDate)
	assert.Equal(t, tie.CaseID, rows[1].CaseID)
	assert.Equal(t, edge.CaseID, rows[2].CaseID)
	assert.Equal(t, mustDate("2024-06-11"), rows[2].NextHearingDate)
}

func TestDocuments(t *testing.T) {
	env := newTestEnv(t)
	clerk := env.standardUser(t, "clerk")
	ctx := context.Background()
	c := env.createCase(t, clerk, "2024-02-02")

	filed := mustDate("2024-03-01")
	older := mustDate("2024-02-15")
	order, err := env.svc.AttachDocument(ctx, clerk, c.CaseID, models.NewDocument{
		DocType: models.DocCourtOrder, FilingDate: &older, FileName: "order.pdf", BlobRef: "ref-1",
	})
	require.NoError(t, err)
	affidavit, err := env.svc.AttachDocument(ctx, clerk, c.CaseID, models.NewDocument{
		DocType: models.DocCounterAffidavit, FilingDate: &filed, FileName: "ca.pdf", BlobRef: "ref-2",
	})
	require.NoError(t, err)
	undated, err := env.svc.AttachDocument(ctx, clerk, c.CaseID, models.NewDocument{
		DocType: models.DocRejoinder, FileName: "rj.pdf", BlobRef: "ref-3",
	})
	require.NoError(t, err)

	got, err := env.svc.GetDocument(ctx, clerk, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", got.BlobRef)
	assert.Equal(t, "clerk", got.UploadedBy)

	docs, err := env.svc.ListDocuments(ctx, clerk, c.CaseID)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, affidavit.ID, docs[0].ID)
	assert.Equal(t, order.ID, docs[1].ID)
	assert.Equal(t, undated.ID, docs[2].ID)

	_, err = env.svc.GetDocument(ctx, clerk, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.AttachDocument(ctx, clerk, "2024999", models.NewDocument{DocType: models.DocAffidavit, FileName: "a.pdf", BlobRef: "r"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.AttachDocument(ctx, clerk, c.CaseID, models.NewDocument{DocType: "Memo", FileName: "a.pdf", BlobRef: "r"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 7; i++ {
		env.clock.Advance(time.Minute)
		ids = append(ids, env.createCase(t, env.admin, "2024-01-01").CaseID)
	}
	_, err := env.svc.CreateCase(ctx, env.admin, details(models.ForumSC, "2024-02-01"), nil)
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	env.walk(t, env.admin, ids[0], models.StatusAdmission, models.StatusHearing)
	_, err = env.svc.AppendHearing(ctx, env.admin, ids[0], mustDate("2024-06-05"), "")
	require.NoError(t, err)

	d, err := env.svc.Dashboard(ctx, env.admin)
	require.NoError(t, err)

	assert.Equal(t, 8, d.TotalCases)
	assert.Equal(t, 7, d.ByStatus["Filed"])
	assert.Equal(t, 1, d.ByStatus["Hearing"])
	assert.Equal(t, 0, d.ByStatus["Dismissed"])
	assert.Equal(t, 7, d.ByForum["HC"])
	assert.Equal(t, 1, d.ByForum["SC"])
	assert.Equal(t, 0, d.ByForum["CAT"])
	require.Len(t, d.UpcomingHearings, 1)
	assert.Equal(t, ids[0], d.UpcomingHearings[0].CaseID)
	require.Len(t, d.RecentlyUpdated, models.RecentlyUpdatedLimit)
	assert.Equal(t, ids[0], d.RecentlyUpdated[0].CaseID)

	_, err = env.svc.Dashboard(ctx, models.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
