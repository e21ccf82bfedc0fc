// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/store/oauthstate"
	"github.com/dalemusser/rotaractportal/internal/app/system/billing"
	"github.com/dalemusser/rotaractportal/internal/app/system/payments"
	"go.uber.org/zap"
)

// sweepBatch bounds how many stale checkouts one run asks Stripe about.
const sweepBatch = 100

// CheckoutReconcileJob settles checkouts that stayed open longer than
// olderThan, covering webhooks Stripe never delivered. schedule is a cron
// spec; an empty one runs every 15 minutes.
func CheckoutReconcileJob(rec *billing.Reconciler, gw payments.Gateway, logger *zap.Logger, schedule string, olderThan time.Duration) Job {
	return Job{
		Name:     "checkout-reconcile",
		Schedule: schedule,
		Interval: 15 * time.Minute,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			res, err := rec.Sweep(ctx, gw, olderThan, sweepBatch)
			if err != nil {
				return err
			}
			if res.Checked > 0 {
				logger.Info("reconciled open checkouts",
					zap.Int("checked", res.Checked),
					zap.Int("completed", res.Completed),
					zap.Int("expired", res.Expired),
					zap.Int("still_open", res.Open),
					zap.Int("failed", res.Failed))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}
