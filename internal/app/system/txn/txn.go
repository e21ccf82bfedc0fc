// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a MongoDB multi-document transaction.
//
// Standalone servers (local dev, some CI) cannot run transactions; in that
// case fn is executed once without a session and a debug line is logged.
// fn must only use the ctx it is given so its writes join the transaction.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions unsupported; running without transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// notSupportedCodes are server codes returned when sessions or transactions
// cannot be used on this deployment.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // IllegalOperation (older servers)
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err means transactions are unavailable
// rather than that the transaction body failed.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if notSupportedCodes[ce.Code] {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "session"):
		return true
	case strings.Contains(msg, "illegal operation") && strings.Contains(msg, "transaction"):
		return true
	}
	return false
}
