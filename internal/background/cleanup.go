package background

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	pkglogger "github.com/BradenHooton/nbatrivia/pkg/logger"
)

const cleanupTimeout = 30 * time.Second

// ExpiredResetPurger deletes password-reset tokens that expired before now.
type ExpiredResetPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CleanupManager periodically removes expired password-reset tokens.
// Expired tokens are rejected on use regardless; this only reclaims rows.
type CleanupManager struct {
	resets      ExpiredResetPurger
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	interval    time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

func NewCleanupManager(
	resets ExpiredResetPurger,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		resets:      resets,
		logger:      logger,
		auditLogger: auditLogger,
		interval:    interval,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}
}

// Start runs a cleanup immediately and then every interval until ctx is done
// or Stop is called. It blocks.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce performs a single purge and returns the number of deleted tokens.
func (cm *CleanupManager) RunOnce(ctx context.Context) int64 {
	cleanupCtx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	rowsDeleted, err := cm.resets.DeleteExpired(cleanupCtx, cm.now())
	if err != nil {
		cm.logger.Error("failed to purge expired reset tokens", slog.Any("error", err))
		return 0
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired reset tokens purged", slog.Int64("rows_deleted", rowsDeleted))
		cm.auditLogger.Log(ctx, pkglogger.AuditEvent{
			EventType: pkglogger.EventResetTokensPurged,
			Success:   true,
			Metadata:  map[string]string{"rows_deleted": strconv.FormatInt(rowsDeleted, 10)},
		})
	}
	return rowsDeleted
}

// Stop signals the cleanup manager to stop. It is safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
