package consumer

import (
	"context"
	"encoding/json"

	"go-paytax/internal/events"
	"go-paytax/internal/revision"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeSalaryChangeApproved feeds approved salary change events into the
// revision pipeline. The pipeline is idempotent and enforces effective-date
// ordering itself, so the message is committed even when the event was merely
// buffered behind an earlier sibling.
func ConsumeSalaryChangeApproved(
	ctx context.Context,
	reader *kafkago.Reader,
	pipeline *revision.Pipeline,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.salary_change")
	log.Info("salary change consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("salary change consumer stopped")
				return
			}
			log.Error("fetch salary change message failed", zap.Error(err))
			continue
		}

		var event events.SalaryChangeApprovedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode salary change event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := pipeline.Process(ctx, event.EventID); err != nil {
			log.Error("process salary change event failed",
				zap.String("event_id", event.EventID),
				zap.String("employee_id", event.EmployeeID),
				zap.Error(err),
			)
			// Retry scheduling lives on the event row; the poll loop
			// picks it up again, so the message still commits.
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit salary change message failed", zap.Error(err))
			continue
		}

		log.Info("salary change event consumed",
			zap.String("event_id", event.EventID),
			zap.String("employee_id", event.EmployeeID),
			zap.String("tax_year", event.TaxYear),
		)
	}
}
