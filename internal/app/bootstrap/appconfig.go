// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (ROTARACT_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything specific to the club
// portal lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies
	SessionName   string
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	// Bearer tokens for API clients
	TokenSecret string
	TokenTTL    time.Duration

	// Email/SMTP configuration. An empty host logs mail instead of sending.
	MailSMTPHost  string
	MailSMTPPort  int
	MailSMTPUser  string
	MailSMTPPass  string
	MailFrom      string
	MailFromName  string
	MailQueueSize int

	// Public portal settings stamped into emails and Stripe return URLs
	BaseURL  string // e.g., "https://portal.example.org"
	SiteName string
	Currency string // ISO code, lower case

	// Stripe. Payments are disabled when the secret key is empty.
	StripeSecretKey     string
	StripeWebhookSecret string
	ReconcileSchedule   string        // cron spec; blank runs every 15 minutes
	ReconcileAfter      time.Duration // age at which an open checkout is swept

	// Audit logging destination per category: all, db, log, off
	AuditLogAuth     string
	AuditLogAdmin    string
	AuditLogFinance  string
	AuditLogPayments string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Contact form rate limit per client IP
	ContactLimit  int
	ContactWindow time.Duration

	// President bootstrap (promotes/creates on startup)
	PresidentEmail string
	PresidentName  string
}
