// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/system/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const devSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for the portal.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: ROTARACT_MONGO_URI, ROTARACT_STRIPE_SECRET_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "rotaract_portal", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: devSecret, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "rotaract-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},
	{Name: "token_secret", Default: devSecret, Desc: "HS256 secret for API bearer tokens (32+ characters)"},
	{Name: "token_ttl", Default: "1h", Desc: "Bearer token lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs mail instead of sending)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.org", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Rotaract Club", Desc: "From display name"},
	{Name: "mail_queue_size", Default: 256, Desc: "Outgoing mail queue length"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public portal URL for email links and Stripe redirects"},
	{Name: "site_name", Default: "Rotaract Club", Desc: "Club name used in emails"},
	{Name: "currency", Default: "usd", Desc: "ISO currency code for dues and tickets"},

	// Stripe
	{Name: "stripe_secret_key", Default: "", Desc: "Stripe secret API key (blank disables online payments)"},
	{Name: "stripe_webhook_secret", Default: "", Desc: "Stripe webhook signing secret"},
	{Name: "reconcile_schedule", Default: "", Desc: "Cron spec for the open-checkout sweep (blank: every 15m)"},
	{Name: "reconcile_after", Default: "30m", Desc: "Age at which an open checkout is checked against Stripe"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all', 'db', 'log', or 'off'"},
	{Name: "audit_log_finance", Default: "all", Desc: "Finance event logging: 'all', 'db', 'log', or 'off'"},
	{Name: "audit_log_payments", Default: "all", Desc: "Payment event logging: 'all', 'db', 'log', or 'off'"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "contact_limit", Default: 5, Desc: "Contact form submissions allowed per IP per window"},
	{Name: "contact_window", Default: "1h", Desc: "Contact form rate limit window"},

	// President bootstrap
	{Name: "president_email", Default: "", Desc: "Email of the club president (promotes/creates on startup)"},
	{Name: "president_name", Default: "", Desc: "Full name used when the president record is created"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env > files > defaults.
// Request timeouts are read separately from ROTARACT_TIMEOUT_*.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ROTARACT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),
		TokenSecret:      appValues.String("token_secret"),
		TokenTTL:         appValues.Duration("token_ttl", time.Hour),

		MailSMTPHost:  appValues.String("mail_smtp_host"),
		MailSMTPPort:  appValues.Int("mail_smtp_port"),
		MailSMTPUser:  appValues.String("mail_smtp_user"),
		MailSMTPPass:  appValues.String("mail_smtp_pass"),
		MailFrom:      appValues.String("mail_from"),
		MailFromName:  appValues.String("mail_from_name"),
		MailQueueSize: appValues.Int("mail_queue_size"),

		BaseURL:  strings.TrimRight(appValues.String("base_url"), "/"),
		SiteName: appValues.String("site_name"),
		Currency: strings.ToLower(strings.TrimSpace(appValues.String("currency"))),

		StripeSecretKey:     appValues.String("stripe_secret_key"),
		StripeWebhookSecret: appValues.String("stripe_webhook_secret"),
		ReconcileSchedule:   appValues.String("reconcile_schedule"),
		ReconcileAfter:      appValues.Duration("reconcile_after", 30*time.Minute),

		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogAdmin:    appValues.String("audit_log_admin"),
		AuditLogFinance:  appValues.String("audit_log_finance"),
		AuditLogPayments: appValues.String("audit_log_payments"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		ContactLimit:  appValues.Int("contact_limit"),
		ContactWindow: appValues.Duration("contact_window", time.Hour),

		PresidentEmail: strings.TrimSpace(appValues.String("president_email")),
		PresidentName:  strings.TrimSpace(appValues.String("president_name")),
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("request timeouts overridden from environment", zap.Int("count", n))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It catches a bad MongoDB URI before connecting, refuses to take Stripe
// payments without a webhook secret, and keeps development secrets out of
// production.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.StripeSecretKey != "" && appCfg.StripeWebhookSecret == "" {
		return fmt.Errorf("stripe_webhook_secret is required when stripe_secret_key is set")
	}
	if len(appCfg.Currency) != 3 {
		return fmt.Errorf("currency must be a three-letter ISO code, got %q", appCfg.Currency)
	}
	if len(appCfg.TokenSecret) < 32 {
		return fmt.Errorf("token_secret must be at least 32 characters")
	}
	if appCfg.ContactLimit <= 0 {
		return fmt.Errorf("contact_limit must be positive")
	}
	for name, mode := range map[string]string{
		"audit_log_auth":     appCfg.AuditLogAuth,
		"audit_log_admin":    appCfg.AuditLogAdmin,
		"audit_log_finance":  appCfg.AuditLogFinance,
		"audit_log_payments": appCfg.AuditLogPayments,
	} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s: unknown mode %q (want all, db, log or off)", name, mode)
		}
	}
	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.SessionKey == devSecret || appCfg.TokenSecret == devSecret {
			return fmt.Errorf("session_key and token_secret must be changed in production")
		}
	}
	return nil
}
