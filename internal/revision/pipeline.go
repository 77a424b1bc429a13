package revision

import (
	"context"
	"encoding/json"
	"time"

	"go-paytax/internal/events"
	"go-paytax/internal/messaging/kafka"
	"go-paytax/internal/rates"
	"go-paytax/internal/salary"
	"go-paytax/internal/taxation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PipelineConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
	PollInterval time.Duration
	BatchSize    int
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 15 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	return c
}

// Pipeline applies approved salary change events to taxation records. Events
// for the same employee and tax year apply strictly in effective-date order;
// an event delivered ahead of an earlier-dated sibling is left on the queue
// until the sibling has been applied. Delivery is at-least-once, application
// is idempotent, and an event that exhausts its retry budget parks in the
// dead-letter state with its last error recorded.
type Pipeline struct {
	repo     Repository
	taxation taxation.Service
	rates    rates.Provider
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
	cfg      PipelineConfig
	now      func() time.Time
}

func NewPipeline(
	repo Repository,
	taxationService taxation.Service,
	ratesProvider rates.Provider,
	outboxRepo kafka.OutboxRepository,
	logger *zap.Logger,
	cfg PipelineConfig,
) *Pipeline {
	return &Pipeline{
		repo:     repo,
		taxation: taxationService,
		rates:    ratesProvider,
		outbox:   outboxRepo,
		logger:   logger.Named("revision.pipeline"),
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// Run drains due events on a fixed poll interval until the context ends. It
// backstops the kafka consumer: events whose approval message was lost, and
// events waiting out a retry backoff, get picked up here.
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.logger.Info("revision pipeline started",
		zap.Duration("poll_interval", p.cfg.PollInterval),
		zap.Int("max_attempts", p.cfg.MaxAttempts),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("revision pipeline stopped")
			return
		case <-ticker.C:
			if err := p.drainDue(ctx); err != nil {
				p.logger.Error("drain due events failed", zap.Error(err))
			}
		}
	}
}

func (p *Pipeline) drainDue(ctx context.Context) error {
	due, err := p.repo.ListDue(ctx, p.now(), p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, ev := range due {
		if err := p.Process(ctx, ev.ID.String()); err != nil {
			p.logger.Warn("event processing failed",
				zap.String("event_id", ev.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Process applies one approved event by id. Safe to call repeatedly: an
// already-applied event is a no-op, an out-of-order event stays queued.
func (p *Pipeline) Process(ctx context.Context, eventID string) error {
	ev, err := p.repo.FindByID(ctx, eventID)
	if err != nil {
		return err
	}

	if ev.ApprovalState != ApprovalApproved || ev.Terminal() {
		return nil
	}

	approved, err := p.repo.ListApproved(ctx, ev.EmployeeID.String(), ev.TaxYear)
	if err != nil {
		return err
	}

	if blocker := earliestUnapplied(approved); blocker != nil && blocker.ID != ev.ID {
		p.logger.Debug("event buffered behind earlier effective date",
			zap.String("event_id", ev.ID.String()),
			zap.String("blocking_event_id", blocker.ID.String()),
			zap.Time("blocking_effective_date", blocker.EffectiveDate),
		)
		return nil
	}

	ev.QueueStatus = QueueProcessing
	if err := p.repo.Update(ctx, ev); err != nil {
		return err
	}

	if err := p.apply(ctx, ev, approved); err != nil {
		return p.handleFailure(ctx, ev, err)
	}
	return nil
}

// earliestUnapplied returns the first approved event, in application order,
// that has not yet been applied or dead-lettered.
func earliestUnapplied(approved []*SalaryChangeEvent) *SalaryChangeEvent {
	ordered := make([]*SalaryChangeEvent, len(approved))
	copy(ordered, approved)
	sortForApplication(ordered)

	for _, ev := range ordered {
		if ev.QueueStatus == QueueApplied || ev.QueueStatus == QueueDeadLetter {
			continue
		}
		return ev
	}
	return nil
}

func (p *Pipeline) apply(ctx context.Context, ev *SalaryChangeEvent, approved []*SalaryChangeEvent) error {
	tables, err := p.rates.Tables(ctx, ev.TaxYear)
	if err != nil {
		return err
	}

	// The projection is rebuilt from every event already applied plus this
	// one, over the baseline components that predate them all.
	inEffect := make([]*SalaryChangeEvent, 0, len(approved))
	for _, other := range approved {
		if other.QueueStatus == QueueApplied || other.ID == ev.ID {
			inEffect = append(inEffect, other)
		}
	}

	baseline := baselineComponents(ev, inEffect)
	projection := BuildProjection(ev.TaxYear, baseline, inEffect, tables)
	arrears := ArrearsDelta(ev.TaxYear, ev, tables)
	effective := EffectiveComponents(ev.TaxYear, baseline, inEffect)

	// The taxation record takes the cumulative arrears over every event in
	// effect, recomputed from the total order each time. A redelivery after
	// a lost status write lands on the same figure instead of adding this
	// event's delta twice.
	pendingArrears := 0.0
	for _, other := range inEffect {
		pendingArrears += ArrearsDelta(ev.TaxYear, other, tables)
	}

	if err := p.taxation.ApplyRevision(ctx, ev.EmployeeID.String(), ev.TaxYear, effective, pendingArrears); err != nil {
		return err
	}

	appliedAt := p.now().UTC()
	ev.QueueStatus = QueueApplied
	ev.AppliedAt = &appliedAt
	ev.Projection = projection
	ev.ArrearsDelta = arrears
	ev.LastError = ""
	ev.NextRetryAt = nil
	if err := p.repo.Update(ctx, ev); err != nil {
		return err
	}

	p.logger.Info("salary change event applied",
		zap.String("event_id", ev.ID.String()),
		zap.String("employee_id", ev.EmployeeID.String()),
		zap.String("tax_year", ev.TaxYear.String()),
		zap.String("change_type", string(ev.ChangeType)),
		zap.Float64("arrears_delta", arrears),
	)

	return p.requestRecalculation(ctx, ev)
}

// baselineComponents picks the components in force before any of the events:
// the previous snapshot of the earliest one, falling back to this event's own.
func baselineComponents(ev *SalaryChangeEvent, inEffect []*SalaryChangeEvent) salary.SalaryComponents {
	if len(inEffect) == 0 {
		return ev.PreviousSalary
	}
	ordered := make([]*SalaryChangeEvent, len(inEffect))
	copy(ordered, inEffect)
	sortForApplication(ordered)
	return ordered[0].PreviousSalary
}

func (p *Pipeline) requestRecalculation(ctx context.Context, ev *SalaryChangeEvent) error {
	payload, err := json.Marshal(events.TaxationRecalculationRequestedEvent{
		EventType:  "taxation_recalculation_requested",
		EmployeeID: ev.EmployeeID.String(),
		TaxYear:    ev.TaxYear.String(),
		Reason:     "salary_change_" + string(ev.ChangeType),
		OccurredAt: p.now().UTC(),
	})
	if err != nil {
		return err
	}

	return p.outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		AggregateType: "taxation_record",
		AggregateID:   ev.EmployeeID.String(),
		EventType:     "taxation_recalculation_requested",
		Topic:         events.TaxationRecalculationRequestedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (p *Pipeline) handleFailure(ctx context.Context, ev *SalaryChangeEvent, cause error) error {
	ev.RetryCount++
	ev.LastError = cause.Error()

	if ev.RetryCount >= p.cfg.MaxAttempts {
		ev.QueueStatus = QueueDeadLetter
		ev.NextRetryAt = nil
		p.logger.Error("salary change event dead-lettered",
			zap.String("event_id", ev.ID.String()),
			zap.String("employee_id", ev.EmployeeID.String()),
			zap.Int("attempts", ev.RetryCount),
			zap.Error(cause),
		)
	} else {
		backoff := time.Duration(ev.RetryCount) * p.cfg.RetryBackoff
		next := p.now().Add(backoff)
		ev.QueueStatus = QueueFailed
		ev.NextRetryAt = &next
		p.logger.Warn("salary change event will retry",
			zap.String("event_id", ev.ID.String()),
			zap.Int("attempt", ev.RetryCount),
			zap.Duration("backoff", backoff),
			zap.Error(cause),
		)
	}

	if err := p.repo.Update(ctx, ev); err != nil {
		return err
	}
	return cause
}
