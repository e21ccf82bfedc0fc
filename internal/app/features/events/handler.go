// internal/app/features/events/handler.go
package events

import (
	"net/http"
	"strings"

	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/auditlog"
	"github.com/dalemusser/rotaractportal/internal/app/system/metrics"
	"github.com/dalemusser/rotaractportal/internal/app/system/payments"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the public event calendar, RSVPs, ticket checkout and the
// officer event admin.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *apiresp.ErrorLogger
	AuditLog *auditlog.Logger
	Metrics  *metrics.Metrics

	// Gateway is nil when online payments are not configured; paid events
	// then answer 503 at checkout.
	Gateway payments.Gateway
	BaseURL string
}

func NewHandler(db *mongo.Database, gw payments.Gateway, audit *auditlog.Logger, m *metrics.Metrics, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   apiresp.NewErrorLogger(logger),
		AuditLog: audit,
		Metrics:  m,
		Gateway:  gw,
		BaseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func pathID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, errs.Invalid("invalid event id")
	}
	return id, nil
}
