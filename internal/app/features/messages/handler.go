// internal/app/features/messages/handler.go
package messages

import (
	"context"
	"net/http"
	"strconv"

	messagestore "github.com/dalemusser/rotaractportal/internal/app/store/messages"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/ratelimit"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const listLimit = 200

// Handler accepts contact-form messages and lets officers triage them.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *apiresp.ErrorLogger
	Limiter *ratelimit.Limiter
}

// NewHandler wires the contact form. A nil limiter disables rate limiting.
func NewHandler(db *mongo.Database, limiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  apiresp.NewErrorLogger(logger),
		Limiter: limiter,
	}
}

type messageInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
	Body    string `json:"body" validate:"required,max=10000"`
}

// HandleSubmit stores a public contact-form submission. Name and subject are
// reduced to plain text; the body keeps only safe markup.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in messageInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode message", err)
		return
	}
	in.Name = htmlsanitize.PlainText(in.Name)
	in.Subject = htmlsanitize.PlainText(in.Subject)
	in.Body = htmlsanitize.Sanitize(in.Body)
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := messagestore.New(h.DB).Create(ctx, models.Message{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Body:    in.Body,
	})
	if err != nil {
		h.ErrLog.ServerError(w, r, "store message failed", err)
		return
	}
	h.Log.Info("contact message received", zap.String("message_id", m.ID.Hex()))
	apiresp.Created(w, map[string]any{"id": m.ID.Hex()})
}

// ServeList returns messages newest first; ?handled=true|false filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var handled *bool
	if raw := r.URL.Query().Get("handled"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			apiresp.BadRequest(w, "handled must be true or false")
			return
		}
		handled = &b
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := messagestore.New(h.DB).List(ctx, handled, listLimit)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list messages failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"messages": list})
}

func (h *Handler) HandleMarkHandled(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Fail(w, r, "message id", errs.Invalid("invalid message id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := messagestore.New(h.DB).MarkHandled(ctx, id); err != nil {
		h.ErrLog.Fail(w, r, "mark message handled failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"id": id.Hex(), "handled": true})
}
