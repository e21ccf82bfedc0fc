// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	"github.com/dalemusser/rotaractportal/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination modes for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config selects a destination mode per event category. Empty means ModeAll.
type Config struct {
	Auth     string
	Admin    string
	Finance  string
	Payments string
}

// ValidMode reports whether m is a known destination mode.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Logger writes audit events to MongoDB and zap according to Config.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryAdmin:
		m = l.config.Admin
	case audit.CategoryFinance:
		m = l.config.Finance
	case audit.CategoryPayments:
		m = l.config.Payments
	}
	if m == "" {
		return ModeAll
	}
	return m
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.SubjectID != nil {
		fields = append(fields, zap.String("subject_id", event.SubjectID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event. A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	m := l.mode(event.Category)
	if m == ModeOff {
		return
	}
	if (m == ModeAll || m == ModeLog) && l.zapLog != nil {
		l.logToZap(event)
	}
	if (m == ModeAll || m == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil && l.zapLog != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func withRequest(e audit.Event, r *http.Request) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

func oidPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// --- Authentication ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, memberID primitive.ObjectID, method, email string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorID:   oidPtr(memberID),
		Success:   true,
		Details:   map[string]string{"auth_method": method, "email": email},
	}, r))
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		FailureReason: "member not found",
		Details:       map[string]string{"email": email},
	}, r))
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, memberID primitive.ObjectID, email string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		ActorID:       oidPtr(memberID),
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	}, r))
}

// LoginFailedInactive logs a sign-in refused because the member's status
// does not allow it.
func (l *Logger) LoginFailedInactive(ctx context.Context, r *http.Request, memberID primitive.ObjectID, status string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedInactive,
		ActorID:       oidPtr(memberID),
		FailureReason: "member status " + status,
	}, r))
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, limitType string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"email": email, "limit_type": limitType},
	}, r))
}

// Logout accepts the session's hex member id.
func (l *Logger) Logout(ctx context.Context, r *http.Request, memberIDHex string) {
	var actor *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(memberIDHex); err == nil {
		actor = &oid
	}
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		ActorID:   actor,
		Success:   true,
	}, r))
}

func (l *Logger) Registered(ctx context.Context, r *http.Request, memberID primitive.ObjectID, email string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegistered,
		ActorID:   oidPtr(memberID),
		Success:   true,
		Details:   map[string]string{"email": email},
	}, r))
}

func (l *Logger) TokenIssued(ctx context.Context, r *http.Request, memberID primitive.ObjectID) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventTokenIssued,
		ActorID:   oidPtr(memberID),
		Success:   true,
	}, r))
}

// --- Admin ---

// Admin logs an officer action. subject is the affected member, if any.
func (l *Logger) Admin(ctx context.Context, r *http.Request, eventType string, actor, subject primitive.ObjectID, details map[string]string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   oidPtr(actor),
		SubjectID: oidPtr(subject),
		Success:   true,
		Details:   details,
	}, r))
}

func (l *Logger) RoleChanged(ctx context.Context, r *http.Request, actor, subject primitive.ObjectID, from, to string) {
	l.Admin(ctx, r, audit.EventRoleChanged, actor, subject, map[string]string{"from": from, "to": to})
}

func (l *Logger) StatusChanged(ctx context.Context, r *http.Request, actor, subject primitive.ObjectID, from, to string) {
	l.Admin(ctx, r, audit.EventStatusChanged, actor, subject, map[string]string{"from": from, "to": to})
}

// WaitlistPromoted logs an automatic promotion. trigger names what freed the
// seat (leave, remove, capacity).
func (l *Logger) WaitlistPromoted(ctx context.Context, r *http.Request, actor, promoted, committeeID primitive.ObjectID, trigger string) {
	l.Admin(ctx, r, audit.EventWaitlistPromotion, actor, promoted, map[string]string{
		"committee_id": committeeID.Hex(),
		"trigger":      trigger,
	})
}

// --- Finance ---

// Finance logs a budget, expense or offline-payment decision.
func (l *Logger) Finance(ctx context.Context, r *http.Request, eventType string, actor primitive.ObjectID, subject primitive.ObjectID, details map[string]string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryFinance,
		EventType: eventType,
		ActorID:   oidPtr(actor),
		SubjectID: oidPtr(subject),
		Success:   true,
		Details:   details,
	}, r))
}

// --- Payments ---

// Checkout logs a checkout lifecycle event. source is webhook, sweep or api.
func (l *Logger) Checkout(ctx context.Context, eventType, sessionID, kind, source string, amount int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryPayments,
		EventType: eventType,
		Success:   true,
		Details: map[string]string{
			"session_id": sessionID,
			"kind":       kind,
			"source":     source,
			"amount":     strconv.FormatInt(amount, 10),
		},
	})
}
