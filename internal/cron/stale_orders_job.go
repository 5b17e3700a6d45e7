package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/prayagtech/storefront/pkg/logger"
)

const defaultStaleOrderTTL = 24 * time.Hour

type staleOrdersRepo interface {
	DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// StaleOrdersJobParams configure the stale order cleanup job.
type StaleOrdersJobParams struct {
	Logger     *logger.Logger
	Repository staleOrdersRepo
	TTL        time.Duration
}

// NewStaleOrdersJob builds the job that deletes online-payment orders stuck
// pending past the TTL: abandoned gateway redirects that will never settle.
// COD and settled orders are never touched.
func NewStaleOrdersJob(params StaleOrdersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultStaleOrderTTL
	}
	return &staleOrdersJob{
		logg: params.Logger,
		repo: params.Repository,
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

type staleOrdersJob struct {
	logg *logger.Logger
	repo staleOrdersRepo
	ttl  time.Duration
	now  func() time.Time
}

func (j *staleOrdersJob) Name() string { return "stale-orders" }

func (j *staleOrdersJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	deleted, err := j.repo.DeleteStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("stale order cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"ttl_hours":    j.ttl.Hours(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "stale order cleanup complete")
	return nil
}
