// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *apiresp.ErrorLogger
}

// NewHandler constructs the audit log viewer bound to the given database.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: apiresp.NewErrorLogger(logger),
	}
}
