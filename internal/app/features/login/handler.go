// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/ratelimit"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves password sign-in, sign-out, self-registration and bearer
// token issuance.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *apiresp.ErrorLogger
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     apiresp.NewErrorLogger(logger),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
	}
}

// memberView is what the portal shows about the signed-in member.
type memberView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

func viewOf(m models.Member) memberView {
	return memberView{ID: m.ID.Hex(), Name: m.FullName, Email: m.Email, Role: m.Role, Status: m.Status}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/login                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode login", err)
		return
	}
	in.Email = memberstore.NormalizeEmail(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, in.Email); !ok {
			h.AuditLog.LoginFailedRateLimit(r.Context(), r, in.Email, "login")
			apiresp.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := memberstore.New(h.DB).GetByEmail(ctx, in.Email)
	if errors.Is(err, memberstore.ErrNotFound) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, in.Email)
		apiresp.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.ErrLog.ServerError(w, r, "login lookup failed", err)
		return
	}

	if m.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(in.Password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, m.ID, in.Email)
		apiresp.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !m.IsActive() {
		h.AuditLog.LoginFailedInactive(ctx, r, m.ID, m.Status)
		apiresp.Forbidden(w, "membership is "+m.Status)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, m.ID.Hex()); err != nil {
		h.ErrLog.ServerError(w, r, "save session failed", err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(in.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, m.ID, models.AuthPassword, in.Email)
	h.Log.Info("member signed in", zap.String("member_id", m.ID.Hex()))

	apiresp.OK(w, map[string]any{"member": viewOf(m)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/logout                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("clear session failed", zap.Error(err))
	}
	apiresp.OK(w, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/me                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	apiresp.OK(w, map[string]any{"member": memberView{
		ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Status: u.Status,
	}})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/token                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleToken issues a bearer token for the signed-in member so API clients
// can call the portal without a cookie.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	tokens := h.SessionMgr.Tokens()
	if tokens == nil {
		apiresp.Error(w, http.StatusServiceUnavailable, "token issuance is not configured")
		return
	}
	raw, exp, err := tokens.Issue(u.ID, u.Role)
	if err != nil {
		h.ErrLog.ServerError(w, r, "issue token failed", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	h.AuditLog.TokenIssued(r.Context(), r, uid)
	apiresp.OK(w, tokenResponse{Token: raw, TokenType: "Bearer", ExpiresAt: exp})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/register                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type registerRequest struct {
	FullName string `json:"full_name" validate:"required,max=200" label:"full name"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=40"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// HandleRegister creates a pending member. An officer activates the account
// before it can sign in.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode register", err)
		return
	}
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = memberstore.NormalizeEmail(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.ServerError(w, r, "hash password failed", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := memberstore.New(h.DB).Create(ctx, models.Member{
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		AuthMethod:   models.AuthPassword,
		Role:         models.RoleMember,
		Status:       models.MemberPending,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "register member failed", err)
		return
	}
	h.AuditLog.Registered(ctx, r, m.ID, m.Email)
	apiresp.Created(w, map[string]any{"member": viewOf(m)})
}
