package table

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/config"
	"github.com/Additional-Code/tableside/internal/event"
	"github.com/Additional-Code/tableside/internal/messaging"
	"github.com/Additional-Code/tableside/internal/service/workflow"
	"github.com/Additional-Code/tableside/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/tableside/worker/table")

// Module registers table-related worker handlers.
var Module = fx.Module("worker_table",
	fx.Provide(
		fx.Annotate(
			NewReconcileHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Reconciler is the part of the workflow the handler needs.
type Reconciler interface {
	ReconcileTable(ctx context.Context, tableID string) error
}

var _ Reconciler = (*workflow.Coordinator)(nil)

// NewReconcileHandler converges the table named by every event that carries
// one. Undecodable messages are logged and skipped; reconcile failures are
// returned so the message is retried.
func NewReconcileHandler(wf *workflow.Coordinator, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: reconcile(wf, logger),
	}
}

func reconcile(r Reconciler, logger *zap.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.tables.reconcile", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		env, err := event.Decode(msg.Value)
		if err != nil {
			logger.Error("failed to decode event", zap.Error(err), zap.Int64("offset", msg.Offset))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return nil
		}
		span.SetAttributes(attribute.String("event.type", string(env.Type)))
		if env.TableID == "" {
			return nil
		}

		if err := r.ReconcileTable(ctx, env.TableID); err != nil {
			logger.Warn("table reconcile failed",
				zap.String("table_id", env.TableID),
				zap.String("event", string(env.Type)),
				zap.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "reconcile failed")
			return err
		}
		logger.Debug("table reconciled", zap.String("table_id", env.TableID), zap.String("event", string(env.Type)))
		return nil
	}
}
