package service

import (
	"context"

	"github.com/rongwang/litigation-tracker/internal/models"
	"golang.org/x/sync/errgroup"
)

// Dashboard summarises the case load. Its queries run concurrently.
func (s *DefaultService) Dashboard(ctx context.Context, id models.Identity) (*models.Dashboard, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, err
	}

	d := &models.Dashboard{
		ByStatus: map[string]int{},
		ByForum:  map[string]int{},
	}
	var byStatus, byForum []models.CaseCount

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.read(gctx, func(ctx context.Context) error {
			var err error
			d.TotalCases, err = s.repo.CountCases(ctx)
			return err
		})
	})
	g.Go(func() error {
		return s.read(gctx, func(ctx context.Context) error {
			var err error
			byStatus, err = s.repo.CountCasesByStatus(ctx)
			return err
		})
	})
	g.Go(func() error {
		return s.read(gctx, func(ctx context.Context) error {
			var err error
			byForum, err = s.repo.CountCasesByForum(ctx)
			return err
		})
	})
	g.Go(func() error {
		var err error
		d.UpcomingHearings, err = s.upcomingHearings(gctx)
		return err
	})
	g.Go(func() error {
		return s.read(gctx, func(ctx context.Context) error {
			var err error
			d.RecentlyUpdated, err = s.repo.RecentlyUpdatedCases(ctx, models.RecentlyUpdatedLimit)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Every known status and forum appears, even at zero
	for _, st := range models.Statuses {
		d.ByStatus[string(st)] = 0
	}
	for _, f := range models.Forums {
		d.ByForum[string(f)] = 0
	}
	for _, c := range byStatus {
		d.ByStatus[c.Key] = c.Count
	}
	for _, c := range byForum {
		d.ByForum[c.Key] = c.Count
	}
	return d, nil
}
