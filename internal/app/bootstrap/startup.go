// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/store/oauthstate"
	"github.com/dalemusser/rotaractportal/internal/app/system/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/system/billing"
	"github.com/dalemusser/rotaractportal/internal/app/system/mailer"
	"github.com/dalemusser/rotaractportal/internal/app/system/metrics"
	"github.com/dalemusser/rotaractportal/internal/app/system/notify"
	"github.com/dalemusser/rotaractportal/internal/app/system/payments"
	"github.com/dalemusser/rotaractportal/internal/app/system/tasks"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the long-lived collaborators built once in Startup and
// shared by BuildHandler and Shutdown.
type services struct {
	Metrics   *metrics.Metrics
	Audit     *auditlog.Logger
	Mail      *workers.MailDispatch
	Notify    *notify.Notifier
	Stripe    *payments.Stripe
	Billing   *billing.Reconciler
	Scheduler *tasks.Scheduler
	SMTP      bool
}

var svc *services

// gateway returns the Stripe client as a payments.Gateway, or a nil
// interface when payments are disabled.
func (s *services) gateway() payments.Gateway {
	if s.Stripe == nil {
		return nil
	}
	return s.Stripe
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It starts
// the mail dispatcher and the cron scheduler and makes sure the configured
// president exists.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	s, err := buildServices(appCfg, deps, logger)
	if err != nil {
		return err
	}

	if appCfg.PresidentEmail != "" {
		ensureCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()
		if err := ensurePresident(ensureCtx, deps, appCfg.PresidentEmail, appCfg.PresidentName, logger); err != nil {
			return err
		}
	}

	s.Mail.Start()
	s.Scheduler.Start()
	svc = s
	return nil
}

func buildServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	db := deps.MongoDatabase
	s := &services{
		Metrics: metrics.New(),
		SMTP:    appCfg.MailSMTPHost != "",
	}
	s.Audit = auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		Admin:    appCfg.AuditLogAdmin,
		Finance:  appCfg.AuditLogFinance,
		Payments: appCfg.AuditLogPayments,
	})

	sender, err := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
		Timeout:  timeouts.Long(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}
	s.Mail = workers.NewMailDispatch(sender, logger, appCfg.MailQueueSize, 0)
	s.Notify = notify.New(s.Mail, s.Metrics, notify.Config{
		SiteName:  appCfg.SiteName,
		PortalURL: appCfg.BaseURL,
		Currency:  appCfg.Currency,
	}, logger)

	s.Stripe = payments.NewStripe(appCfg.StripeSecretKey, appCfg.Currency)
	s.Billing = billing.New(db, logger, s.Audit, s.Notify, s.Metrics)

	s.Scheduler = tasks.NewScheduler(logger)
	if err := s.Scheduler.Add(tasks.OAuthStateCleanupJob(oauthstate.New(db), logger)); err != nil {
		return nil, err
	}
	if s.Stripe != nil {
		job := tasks.CheckoutReconcileJob(s.Billing, s.Stripe, logger, appCfg.ReconcileSchedule, appCfg.ReconcileAfter)
		if err := s.Scheduler.Add(job); err != nil {
			return nil, fmt.Errorf("reconcile schedule: %w", err)
		}
	} else {
		logger.Warn("stripe_secret_key not set; online dues and ticket payments are disabled")
	}
	return s, nil
}

// ensurePresident promotes or creates the configured president so a fresh
// deployment always has someone who can approve budgets and assign roles.
func ensurePresident(ctx context.Context, deps DBDeps, email, name string, logger *zap.Logger) error {
	changed, err := memberstore.New(deps.MongoDatabase).EnsurePresident(ctx, email, name)
	if err != nil {
		logger.Error("ensure president failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("ensure president: %w", err)
	}
	if changed {
		logger.Info("president account ensured", zap.String("email", email))
	}
	return nil
}
