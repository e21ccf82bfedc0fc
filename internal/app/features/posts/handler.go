// internal/app/features/posts/handler.go
package posts

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	poststore "github.com/dalemusser/rotaractportal/internal/app/store/posts"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler serves news posts publicly and lets officers manage them.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *apiresp.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   apiresp.NewErrorLogger(logger),
		AuditLog: audit,
	}
}

type postInput struct {
	Title     *string `json:"title" validate:"omitempty,min=1,max=200"`
	Slug      *string `json:"slug" validate:"omitempty,max=200"`
	Body      *string `json:"body" validate:"omitempty,max=100000"`
	Published *bool   `json:"published"`
}

func limitParam(r *http.Request) int64 {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return int64(n)
}

// ServeList returns published posts, newest first. Officers may pass
// drafts=1 to include unpublished ones.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	publishedOnly := !(authz.IsOfficer(r) && r.URL.Query().Get("drafts") == "1")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := poststore.New(h.DB).List(ctx, publishedOnly, limitParam(r))
	if err != nil {
		h.ErrLog.ServerError(w, r, "list posts failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"posts": list})
}

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := poststore.New(h.DB).GetBySlug(ctx, slug, !authz.IsOfficer(r))
	if err != nil {
		h.ErrLog.Fail(w, r, "get post failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"post": p})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (postInput, bool) {
	var in postInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode post", err)
		return in, false
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return in, false
	}
	if in.Body != nil {
		clean := htmlsanitize.Sanitize(*in.Body)
		in.Body = &clean
	}
	return in, true
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		apiresp.BadRequest(w, "title is required")
		return
	}
	p := models.Post{Title: *in.Title, AuthorID: uid}
	if in.Slug != nil {
		p.Slug = *in.Slug
	}
	if in.Body != nil {
		p.Body = *in.Body
	}
	if in.Published != nil {
		p.Published = *in.Published
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := poststore.New(h.DB).Create(ctx, p)
	if err != nil {
		h.ErrLog.Fail(w, r, "create post failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventPostCreated, uid, created.ID, map[string]string{"slug": created.Slug})
	apiresp.Created(w, map[string]any{"post": created})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "post id", err)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := poststore.New(h.DB).Update(ctx, id, poststore.Patch{
		Title:     in.Title,
		Slug:      in.Slug,
		Body:      in.Body,
		Published: in.Published,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "update post failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventPostUpdated, uid, id, map[string]string{"slug": updated.Slug})
	apiresp.OK(w, map[string]any{"post": updated})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	id, err := pathID(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "post id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := poststore.New(h.DB).Delete(ctx, id); err != nil {
		h.ErrLog.Fail(w, r, "delete post failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventPostDeleted, uid, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, errs.Invalid("invalid post id")
	}
	return id, nil
}
