package logger

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.uber.org/zap"
)

// NewMongoMonitor returns a command monitor that logs failed commands as
// errors, commands slower than slowQuerySeconds as warnings, and everything
// else at debug level.
func NewMongoMonitor(zapLogger *zap.Logger, slowQuerySeconds float64) *event.CommandMonitor {
	m := &mongoMonitor{
		log:           zapLogger.Named("mongo"),
		slowThreshold: secondsToDuration(slowQuerySeconds),
	}
	return &event.CommandMonitor{
		Started:   m.started,
		Succeeded: m.succeeded,
		Failed:    m.failed,
	}
}

type mongoMonitor struct {
	log           *zap.Logger
	slowThreshold time.Duration
	// request id → collection, filled on start and drained on finish
	collections sync.Map
}

func (m *mongoMonitor) started(_ context.Context, e *event.CommandStartedEvent) {
	if coll, ok := e.Command.Lookup(e.CommandName).StringValueOK(); ok {
		m.collections.Store(e.RequestID, coll)
	}
}

func (m *mongoMonitor) fields(e event.CommandFinishedEvent) []zap.Field {
	fields := []zap.Field{
		zap.String("command", e.CommandName),
		zap.String("database", e.DatabaseName),
		zap.Int64("mongo_request_id", e.RequestID),
	}
	fields = append(fields, elapsedFields(e.Duration)...)
	if coll, ok := m.collections.LoadAndDelete(e.RequestID); ok {
		fields = append(fields, zap.String("collection", coll.(string)))
	}
	return fields
}

func (m *mongoMonitor) succeeded(ctx context.Context, e *event.CommandSucceededEvent) {
	logger := WithContext(ctx, m.log)
	fields := m.fields(e.CommandFinishedEvent)

	if isSlow(e.Duration, m.slowThreshold) {
		logger.Warn("mongo slow command", append(fields, zap.Duration("threshold", m.slowThreshold))...)
		return
	}
	logger.Debug("mongo command", fields...)
}

func (m *mongoMonitor) failed(ctx context.Context, e *event.CommandFailedEvent) {
	logger := WithContext(ctx, m.log)
	logger.Error("mongo command failed", append(m.fields(e.CommandFinishedEvent), zap.String("failure", e.Failure))...)
}
