package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-paytax/internal/events"
	"go-paytax/internal/shared/fiscal"
	"go-paytax/internal/taxation"
	taxationerrors "go-paytax/internal/taxation/errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeRecalculationRequested refreshes the taxation record named by each
// recalculation request. A missing record commits without retrying: the
// record may never have been created, and recomputing it later is harmless.
func ConsumeRecalculationRequested(
	ctx context.Context,
	reader *kafkago.Reader,
	taxationService taxation.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.recalculation")
	log.Info("recalculation consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("recalculation consumer stopped")
				return
			}
			log.Error("fetch recalculation message failed", zap.Error(err))
			continue
		}

		var event events.TaxationRecalculationRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode recalculation event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		year, err := fiscal.Parse(event.TaxYear)
		if err != nil {
			log.Error("recalculation event has invalid tax year",
				zap.String("tax_year", event.TaxYear),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		err = taxationService.Recalculate(ctx, event.EmployeeID, year)
		if err != nil && !errors.Is(err, taxationerrors.ErrRecordNotFound) {
			log.Error("recalculate taxation record failed",
				zap.String("employee_id", event.EmployeeID),
				zap.String("tax_year", event.TaxYear),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit recalculation message failed", zap.Error(err))
			continue
		}

		log.Info("taxation record recalculated from event",
			zap.String("employee_id", event.EmployeeID),
			zap.String("tax_year", event.TaxYear),
			zap.String("reason", event.Reason),
		)
	}
}
