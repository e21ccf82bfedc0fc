package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// DefaultSessionName is the portal cookie name.
	DefaultSessionName = "rotaract_portal_session"

	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated member injected into r.Context().
type SessionUser struct {
	ID     string
	Name   string
	Email  string
	Role   string
	Status string
}

// IsActive reports whether the member is in good standing.
func (u *SessionUser) IsActive() bool { return u != nil && u.Status == "active" }

// UserFetcher loads fresh member data for an authenticated id. Returning
// ErrUserGone signs the request out (deleted or deactivated account).
type UserFetcher interface {
	FetchUser(ctx context.Context, id string) (*SessionUser, error)
}

// ErrUserGone is returned by a UserFetcher when the member no longer exists.
var ErrUserGone = errors.New("user no longer exists")

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context. It exists for handler tests
// that bypass the session middleware.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store, bearer-token verification and the
// per-request user loading.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	tokens  *TokenIssuer
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds the cookie store. Cookies are always SameSite=Lax
// so cross-site POSTs never carry the session; secure adds the Secure flag.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher makes LoadSessionUser fetch fresh member data per request so
// role and status changes take effect immediately.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// SetTokenIssuer enables bearer-token authentication.
func (sm *SessionManager) SetTokenIssuer(t *TokenIssuer) { sm.tokens = t }

// Tokens returns the configured token issuer (nil when bearer auth is off).
func (sm *SessionManager) Tokens() *TokenIssuer { return sm.tokens }

// GetSession returns the portal session. On a decode error a fresh session
// is still returned together with the error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SignIn marks the session authenticated for the given member id.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			sm.log.Warn("session cookie invalid, using fresh session", zap.Error(err))
		} else {
			sm.log.Error("session store error during sign-in, using fresh session", zap.Error(err))
		}
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.GetSession(r)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are authenticated by
// a bearer token or the session cookie. Bearer tokens win when both exist.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := sm.userIDFromRequest(r)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		u := &SessionUser{ID: userID}
		if sm.fetcher != nil {
			fresh, err := sm.fetcher.FetchUser(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, ErrUserGone) {
					sm.log.Warn("failed to load session user", zap.Error(err), zap.String("user_id", userID))
				}
				next.ServeHTTP(w, r)
				return
			}
			u = fresh
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

func (sm *SessionManager) userIDFromRequest(r *http.Request) string {
	if sm.tokens != nil {
		if raw, ok := bearerToken(r); ok {
			claims, err := sm.tokens.Parse(raw)
			if err != nil {
				sm.log.Debug("rejected bearer token", zap.Error(err))
				return ""
			}
			return claims.Subject
		}
	}

	sess, err := sm.GetSession(r)
	if err != nil {
		return ""
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return ""
	}
	id, _ := sess.Values[userIDKey].(string)
	return id
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}
