package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/prayagtech/storefront/pkg/logger"
)

type otpSweepRepo interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OtpSweepJobParams configure the OTP sweep job.
type OtpSweepJobParams struct {
	Logger     *logger.Logger
	Repository otpSweepRepo
}

// NewOtpSweepJob builds the job that purges expired one-time codes. Expired
// rows are already refused at verify time; the sweep keeps the table small.
func NewOtpSweepJob(params OtpSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("otp repository required")
	}
	return &otpSweepJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type otpSweepJob struct {
	logg *logger.Logger
	repo otpSweepRepo
	now  func() time.Time
}

func (j *otpSweepJob) Name() string { return "otp-sweep" }

func (j *otpSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	deleted, err := j.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("otp sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "otp sweep complete")
	return nil
}
