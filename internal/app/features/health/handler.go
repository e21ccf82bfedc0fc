package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger

	// Reported so operators can tell a misconfigured deploy at a glance.
	PaymentsEnabled bool
	SMTPEnabled     bool
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, paymentsEnabled, smtpEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Client:          client,
		Log:             logger,
		PaymentsEnabled: paymentsEnabled,
		SMTPEnabled:     smtpEnabled,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Payments string `json:"payments"`
	Mail     string `json:"mail"`
	Message  string `json:"message,omitempty"`
}

func enabled(b bool, on, off string) string {
	if b {
		return on
	}
	return off
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "payments":"stripe", "mail":"smtp" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", ... }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Payments: enabled(h.PaymentsEnabled, "stripe", "disabled"),
		Mail:     enabled(h.SMTPEnabled, "smtp", "log"),
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
