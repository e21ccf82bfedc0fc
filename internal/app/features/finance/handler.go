// internal/app/features/finance/handler.go
package finance

import (
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/system/metrics"
	"github.com/dalemusser/rotaractportal/internal/app/system/notify"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves activity budgets, expenses, offline payments and the
// budget summary.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *apiresp.ErrorLogger
	AuditLog *auditlog.Logger
	Notify   *notify.Notifier
	Metrics  *metrics.Metrics
	Currency string
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, n *notify.Notifier, m *metrics.Metrics, currency string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   apiresp.NewErrorLogger(logger),
		AuditLog: audit,
		Notify:   n,
		Metrics:  m,
		Currency: currency,
	}
}

func pathID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, errs.Invalid("invalid id")
	}
	return id, nil
}

func parseIDs(raw []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		if id, err := primitive.ObjectIDFromHex(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}
