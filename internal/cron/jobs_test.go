package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prayagtech/storefront/pkg/logger"
)

type fakeOtpRepo struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
	called      int
}

func (f *fakeOtpRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}

func TestOtpSweepJobUsesCurrentTimeAsCutoff(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	repo := &fakeOtpRepo{deletedRows: 3}
	jobIface, err := NewOtpSweepJob(OtpSweepJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewOtpSweepJob: %v", err)
	}
	job := jobIface.(*otpSweepJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestOtpSweepJobPropagatesErrors(t *testing.T) {
	jobIface, err := NewOtpSweepJob(OtpSweepJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: &fakeOtpRepo{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewOtpSweepJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeOrdersRepo struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
	called      int
}

func (f *fakeOrdersRepo) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}

func TestStaleOrdersJobAppliesTTL(t *testing.T) {
	now := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	repo := &fakeOrdersRepo{deletedRows: 2}
	jobIface, err := NewStaleOrdersJob(StaleOrdersJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		TTL:        24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewStaleOrdersJob: %v", err)
	}
	job := jobIface.(*staleOrdersJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-24 * time.Hour)
	if !repo.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, repo.lastCutoff)
	}
}

func TestStaleOrdersJobDefaultsTTL(t *testing.T) {
	jobIface, err := NewStaleOrdersJob(StaleOrdersJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: &fakeOrdersRepo{},
	})
	if err != nil {
		t.Fatalf("NewStaleOrdersJob: %v", err)
	}
	if jobIface.(*staleOrdersJob).ttl != defaultStaleOrderTTL {
		t.Fatalf("ttl: %s", jobIface.(*staleOrdersJob).ttl)
	}
}
