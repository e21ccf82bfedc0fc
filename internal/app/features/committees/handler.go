// internal/app/features/committees/handler.go
package committees

import (
	"context"
	"net/http"

	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/system/metrics"
	"github.com/dalemusser/rotaractportal/internal/app/system/notify"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Promotion triggers recorded in metrics and the audit log.
const (
	triggerLeave    = "leave"
	triggerRemove   = "remove"
	triggerCapacity = "capacity"
)

// Handler serves committee rosters for members and committee
// administration for officers.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *apiresp.ErrorLogger
	AuditLog *auditlog.Logger
	Notify   *notify.Notifier
	Metrics  *metrics.Metrics
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, n *notify.Notifier, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   apiresp.NewErrorLogger(logger),
		AuditLog: audit,
		Notify:   n,
		Metrics:  m,
	}
}

func pathID(r *http.Request, key string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, key))
	if err != nil {
		return primitive.NilObjectID, errs.Invalid("invalid %s", key)
	}
	return id, nil
}

// announcePromotions emails, audits and counts each promoted member. Mail is
// queued, so a slow SMTP server never holds the request.
func (h *Handler) announcePromotions(ctx context.Context, r *http.Request, c models.Committee, promoted []primitive.ObjectID, actor primitive.ObjectID, trigger string) {
	if len(promoted) == 0 {
		return
	}
	h.Metrics.Promoted(trigger, len(promoted))

	contacts, err := memberstore.New(h.DB).Contacts(ctx, promoted)
	if err != nil {
		h.Log.Warn("load promoted member contacts failed",
			zap.Error(err),
			zap.String("committee_id", c.ID.Hex()))
	}
	for _, id := range promoted {
		h.AuditLog.WaitlistPromoted(ctx, r, actor, id, c.ID, trigger)
		h.Log.Info("waitlist promotion",
			zap.String("committee_id", c.ID.Hex()),
			zap.String("member_id", id.Hex()),
			zap.String("trigger", trigger))
		if ct, ok := contacts[id]; ok && ct.Email != "" {
			h.Notify.Promoted(ct.Email, ct.Name, c.Name)
		}
	}
}
