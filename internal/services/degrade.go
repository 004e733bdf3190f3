package services

import (
	"habit-tracker/internal/errors"
	"habit-tracker/internal/metrics"

	"go.uber.org/zap"
)

// Degrade is the single fallback policy for collaborator calls. A nil err
// returns false. Otherwise the failure is logged and counted under op, and
// true tells the caller to continue with its safe default.
func Degrade(logger *zap.Logger, op string, err error) bool {
	if err == nil {
		return false
	}
	metrics.IncrementDegraded(op)
	if logger == nil {
		return true
	}
	fields := []zap.Field{zap.String("operation", op), zap.Error(err)}
	if errors.IsAppError(err) {
		fields = append(fields, zap.String("code", errors.GetErrorCode(err)))
	}
	logger.Warn("collaborator call failed, using default", fields...)
	return true
}
