// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	auditlogfeature "github.com/dalemusser/rotaractportal/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/rotaractportal/internal/app/features/authgoogle"
	committeesfeature "github.com/dalemusser/rotaractportal/internal/app/features/committees"
	duesfeature "github.com/dalemusser/rotaractportal/internal/app/features/dues"
	eventsfeature "github.com/dalemusser/rotaractportal/internal/app/features/events"
	financefeature "github.com/dalemusser/rotaractportal/internal/app/features/finance"
	healthfeature "github.com/dalemusser/rotaractportal/internal/app/features/health"
	loginfeature "github.com/dalemusser/rotaractportal/internal/app/features/login"
	membersfeature "github.com/dalemusser/rotaractportal/internal/app/features/members"
	messagesfeature "github.com/dalemusser/rotaractportal/internal/app/features/messages"
	postsfeature "github.com/dalemusser/rotaractportal/internal/app/features/posts"
	webhooksfeature "github.com/dalemusser/rotaractportal/internal/app/features/webhooks"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/store/oauthstate"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// closers release in-process resources (rate limiter sweepers) on Shutdown.
var closers []func()

// BuildHandler constructs the root HTTP handler for the portal.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. Every request passes through LoadSessionUser, which
// resolves the session cookie or bearer token and re-reads the member so
// role and status changes take effect immediately. Feature routers are
// mounted under /api; public and admin halves of a feature mount separately.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, errors.New("bootstrap: Startup has not run")
	}
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetUserFetcher(memberstore.NewFetcher(db))

	tokens, err := auth.NewTokenIssuer(appCfg.TokenSecret, appCfg.SiteName, appCfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	sessionMgr.SetTokenIssuer(tokens)

	loginLimiter := ratelimit.NewLoginLimiter()
	contactLimiter := ratelimit.New(appCfg.ContactLimit, appCfg.ContactWindow)
	closers = append(closers, loginLimiter.Close, contactLimiter.Close)

	gw := svc.gateway()

	r := chi.NewRouter()
	r.Use(sessionMgr.LoadSessionUser)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apiresp.NotFound(w, "not found")
	})

	// Health and metrics for load balancers and scrapers
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, svc.Stripe != nil, svc.SMTP, logger)))
	r.Handle("/metrics", svc.Metrics.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, loginLimiter, svc.Audit, logger)
	r.Mount("/api/auth", loginfeature.Routes(loginHandler))

	if appCfg.GoogleClientID != "" {
		googleHandler := authgooglefeature.NewHandler(db, sessionMgr, svc.Audit, oauthstate.New(db),
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	// Committees and waitlists
	committeesHandler := committeesfeature.NewHandler(db, svc.Audit, svc.Notify, svc.Metrics, logger)
	r.Mount("/api/portal/committees", committeesfeature.Routes(committeesHandler))
	r.Mount("/api/admin/committees", committeesfeature.AdminRoutes(committeesHandler))

	// Budgets, expenses and offline payments
	financeHandler := financefeature.NewHandler(db, svc.Audit, svc.Notify, svc.Metrics, appCfg.Currency, logger)
	r.Mount("/api/finance", financefeature.Routes(financeHandler))

	// Member administration
	membersHandler := membersfeature.NewHandler(db, svc.Audit, logger)
	r.Mount("/api/admin/members", membersfeature.Routes(membersHandler))

	// Events, RSVPs and ticket checkout
	eventsHandler := eventsfeature.NewHandler(db, gw, svc.Audit, svc.Metrics, appCfg.BaseURL, logger)
	r.Mount("/api/events", eventsfeature.Routes(eventsHandler))
	r.Mount("/api/admin/events", eventsfeature.AdminRoutes(eventsHandler))

	// Dues
	duesHandler := duesfeature.NewHandler(db, gw, svc.Audit, svc.Metrics, appCfg.BaseURL, logger)
	r.Mount("/api/dues", duesfeature.Routes(duesHandler))
	r.Mount("/api/admin/dues", duesfeature.AdminRoutes(duesHandler))

	// Stripe webhooks. The applier stays nil when payments are disabled so
	// the endpoint answers 503.
	var applier webhooksfeature.EventApplier
	if svc.Stripe != nil {
		applier = svc.Billing
	}
	webhooksHandler := webhooksfeature.NewHandler(applier, appCfg.StripeWebhookSecret, svc.Metrics, logger)
	r.Mount("/api/webhooks", webhooksfeature.Routes(webhooksHandler))

	// Content
	postsHandler := postsfeature.NewHandler(db, svc.Audit, logger)
	r.Mount("/api/posts", postsfeature.Routes(postsHandler))
	r.Mount("/api/admin/posts", postsfeature.AdminRoutes(postsHandler))

	messagesHandler := messagesfeature.NewHandler(db, contactLimiter, logger)
	r.Mount("/api/messages", messagesfeature.Routes(messagesHandler))
	r.Mount("/api/admin/messages", messagesfeature.AdminRoutes(messagesHandler))

	// Audit trail
	r.Mount("/api/admin/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(db, logger)))

	return r, nil
}
