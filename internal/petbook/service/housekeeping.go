package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/internal/petbook/telemetry"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
)

// PendingShopMaxAge is how long sign-up shop data waits for confirmation.
const PendingShopMaxAge = 7 * 24 * time.Hour

// HousekeepingService periodically deletes expired tokens, invites and
// stale pending shops, and sweeps expired rate-limit windows.
type HousekeepingService struct {
	Store    store.Store
	Limiter  *ratelimit.Limiter
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the service. A non-positive interval
// defaults to one hour.
func NewHousekeepingService(store store.Store, limiter *ratelimit.Limiter, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Limiter:  limiter,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs a cleanup now and then every Interval until Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs every deletion once. A failing deletion is logged and does
// not stop the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now()
	s.Logger.Debug("starting housekeeping cleanup")

	tasks := []struct {
		table string
		fn    func() (int64, error)
	}{
		{"refresh_tokens", func() (int64, error) { return s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now) }},
		{"email_tokens", func() (int64, error) { return s.Store.EmailTokens().DeleteExpiredEmailTokens(ctx, now) }},
		{"staff_invites", func() (int64, error) { return s.Store.StaffInvites().DeleteExpiredInvites(ctx, now) }},
		{"pending_shops", func() (int64, error) {
			return s.Store.PendingShops().DeletePendingShopsBefore(ctx, now.Add(-PendingShopMaxAge))
		}},
	}

	var total int64
	for _, task := range tasks {
		n, err := task.fn()
		if err != nil {
			s.Logger.Error("housekeeping delete failed", "table", task.table, "error", err)
			continue
		}
		s.Metrics.Deleted(task.table, n)
		total += n
	}

	swept := 0
	if s.Limiter != nil {
		swept = s.Limiter.Sweep()
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", total, "rate_limit_swept", swept)
}
