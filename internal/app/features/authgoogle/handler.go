// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/store/oauthstate"
	"github.com/dalemusser/rotaractportal/internal/app/system/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateTTL bounds how long a user may sit on Google's consent screen.
const stateTTL = 10 * time.Minute

// Handler handles Google OAuth sign-in for existing members.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://portal.example.org/auth/google/callback"

	// fetchUser is swapped in tests.
	fetchUser func(ctx context.Context, cfg *oauth2.Config, code string) (*googleUserInfo, error)
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		StateStore:   stateStore,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		fetchUser:    exchangeAndFetch,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		redirectToLogin(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOnline)
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the Google profile, matches it to an active      |
| member and signs them in. Google never creates accounts.                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		redirectToLogin(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		redirectToLogin(w, r, "invalid_state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	returnURL, valid, err := h.StateStore.Consume(ctx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		redirectToLogin(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		redirectToLogin(w, r, "invalid_code")
		return
	}

	googleUser, err := h.fetchUser(ctx, h.oauth2Config(), code)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		redirectToLogin(w, r, "user_info")
		return
	}

	m, err := h.findMember(ctx, googleUser)
	switch {
	case errors.Is(err, memberstore.ErrNotFound):
		h.Log.Info("Google OAuth: no member for account", zap.String("email", googleUser.Email))
		h.AuditLog.LoginFailedUserNotFound(ctx, r, googleUser.Email)
		redirectToLogin(w, r, "no_account")
		return
	case err != nil:
		h.Log.Error("failed to look up member", zap.Error(err))
		redirectToLogin(w, r, "internal")
		return
	}
	if !m.IsActive() {
		h.AuditLog.LoginFailedInactive(ctx, r, m.ID, m.Status)
		redirectToLogin(w, r, "not_active")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, m.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("member_id", m.ID.Hex()))
		redirectToLogin(w, r, "session")
		return
	}

	h.AuditLog.LoginSuccess(ctx, r, m.ID, models.AuthGoogle, m.Email)
	h.Log.Info("member signed in via Google", zap.String("member_id", m.ID.Hex()))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Member lookup                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// exchangeAndFetch trades the code for a token and reads the userinfo endpoint.
func exchangeAndFetch(ctx context.Context, cfg *oauth2.Config, code string) (*googleUserInfo, error) {
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// findMember matches by linked Google id first, then by verified email. An
// email match links the Google id for next time.
func (h *Handler) findMember(ctx context.Context, g *googleUserInfo) (models.Member, error) {
	members := memberstore.New(h.DB)

	m, err := members.GetByGoogleID(ctx, g.ID)
	if err == nil || !errors.Is(err, memberstore.ErrNotFound) {
		return m, err
	}
	if !g.EmailVerified || g.Email == "" {
		return models.Member{}, memberstore.ErrNotFound
	}

	m, err = members.GetByEmail(ctx, g.Email)
	if err != nil {
		return models.Member{}, err
	}
	switch {
	case m.GoogleID == "":
		if err := members.LinkGoogle(ctx, m.ID, g.ID); err != nil {
			h.Log.Warn("failed to link Google id", zap.Error(err), zap.String("member_id", m.ID.Hex()))
		}
	case m.GoogleID != g.ID:
		// Linked to a different Google account.
		return models.Member{}, memberstore.ErrNotFound
	}
	return m, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func redirectToLogin(w http.ResponseWriter, r *http.Request, errorCode string) {
	http.Redirect(w, r, "/login?error="+errorCode, http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
