package revision

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-paytax/internal/events"
	"go-paytax/internal/messaging/kafka"
	"go-paytax/internal/rates"
	revisionerrors "go-paytax/internal/revision/errors"
	"go-paytax/internal/salary"
	"go-paytax/internal/shared/apperror"
	"go-paytax/internal/shared/contextutil"
	"go-paytax/internal/shared/fiscal"
	"go-paytax/internal/taxation"
	taxationerrors "go-paytax/internal/taxation/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=revision_service.go -destination=mock/revision_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, req SubmitRevisionRequest) (RevisionResponse, error)
	Get(ctx context.Context, id string) (RevisionResponse, error)
	List(ctx context.Context, employeeID, taxYear string) ([]RevisionResponse, error)
	Approve(ctx context.Context, id string, req ApproveRevisionRequest) (RevisionResponse, error)
	Reject(ctx context.Context, id string) (RevisionResponse, error)
	Cancel(ctx context.Context, id string) (RevisionResponse, error)
	ListDeadLetters(ctx context.Context, limit int) ([]RevisionResponse, error)
	Requeue(ctx context.Context, id string) (RevisionResponse, error)
	Projection(ctx context.Context, employeeID, taxYear string) (ProjectionResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	outbox  kafka.OutboxRepository
	rates   rates.Provider
	taxRepo taxation.Repository
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	ratesProvider rates.Provider,
	taxationRepo taxation.Repository,
	logger *zap.Logger,
) Service {
	return &service{
		db:      db,
		repo:    repo,
		outbox:  outboxRepo,
		rates:   ratesProvider,
		taxRepo: taxationRepo,
		logger:  logger.Named("revision.service"),
		now:     time.Now,
	}
}

func (s *service) Submit(ctx context.Context, req SubmitRevisionRequest) (RevisionResponse, error) {
	empID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return RevisionResponse{}, apperror.InvalidField("employee_id")
	}
	year, err := fiscal.Parse(req.TaxYear)
	if err != nil {
		return RevisionResponse{}, apperror.FieldRule("tax_year", err.Error())
	}
	effective, err := time.Parse(time.DateOnly, req.EffectiveDate)
	if err != nil {
		return RevisionResponse{}, apperror.FieldRule("effective_date", "must be a YYYY-MM-DD date")
	}
	if !year.Contains(effective) {
		return RevisionResponse{}, apperror.FieldRule("effective_date", "must fall inside the tax year")
	}
	if err := req.PreviousSalary.Validate(); err != nil {
		return RevisionResponse{}, apperror.FieldRule("previous_salary", err.Error())
	}
	if err := req.NewSalary.Validate(); err != nil {
		return RevisionResponse{}, apperror.FieldRule("new_salary", err.Error())
	}

	ev := NewSalaryChangeEvent(
		empID, year,
		ChangeType(req.ChangeType),
		effective,
		req.PreviousSalary, req.NewSalary,
		Priority(req.Priority),
	)
	ev.SubmittedBy = req.SubmittedBy

	if req.Retroactive || req.RetroactiveFrom != "" {
		if req.RetroactiveFrom == "" {
			return RevisionResponse{}, apperror.RequiredField("retroactive_from")
		}
		from, err := time.Parse(time.DateOnly, req.RetroactiveFrom)
		if err != nil {
			return RevisionResponse{}, apperror.FieldRule("retroactive_from", "must be a YYYY-MM-DD date")
		}
		if from.After(effective) {
			return RevisionResponse{}, apperror.FieldRule("retroactive_from", "must not be after effective_date")
		}
		ev.MarkRetroactive(from)
	}

	if err := s.repo.Create(ctx, ev); err != nil {
		return RevisionResponse{}, err
	}

	s.logger.Info("salary change event submitted",
		zap.String("event_id", ev.ID.String()),
		zap.String("employee_id", empID.String()),
		zap.String("tax_year", year.String()),
		zap.String("change_type", string(ev.ChangeType)),
		zap.String("priority", string(ev.Priority)),
		zap.Bool("retroactive", ev.Retroactive),
	)

	return mapToResponse(*ev), nil
}

func (s *service) Get(ctx context.Context, id string) (RevisionResponse, error) {
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return RevisionResponse{}, err
	}
	return mapToResponse(*ev), nil
}

func (s *service) List(ctx context.Context, employeeID, taxYear string) ([]RevisionResponse, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, apperror.InvalidField("employee_id")
	}
	year, err := fiscal.Parse(taxYear)
	if err != nil {
		return nil, apperror.FieldRule("tax_year", err.Error())
	}

	evs, err := s.repo.ListByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(evs), nil
}

// Approve moves a pending event to approved and queues the approval event on
// the outbox in the same transaction, so the pipeline learns about it exactly
// when the state change commits.
func (s *service) Approve(ctx context.Context, id string, req ApproveRevisionRequest) (RevisionResponse, error) {
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return RevisionResponse{}, err
	}
	if ev.ApprovalState != ApprovalPending {
		return RevisionResponse{}, revisionerrors.InvalidTransition("approve", string(ev.ApprovalState))
	}

	ev.ApprovalState = ApprovalApproved
	ev.ApprovedBy = req.ApprovedBy

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RevisionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Update(ctx, ev); err != nil {
		return RevisionResponse{}, err
	}

	payload, err := json.Marshal(events.SalaryChangeApprovedEvent{
		EventType:   "salary_change_approved",
		EventID:     ev.ID.String(),
		EmployeeID:  ev.EmployeeID.String(),
		TaxYear:     ev.TaxYear.String(),
		ChangeType:  string(ev.ChangeType),
		Priority:    string(ev.Priority),
		Retroactive: ev.Retroactive,
		OccurredAt:  s.now().UTC(),
	})
	if err != nil {
		return RevisionResponse{}, err
	}

	outboxRepo := s.outbox.WithTx(tx)
	if err := outboxRepo.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "salary_change_event",
		AggregateID:   ev.ID.String(),
		EventType:     "salary_change_approved",
		Topic:         events.SalaryChangeApprovedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return RevisionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return RevisionResponse{}, err
	}

	s.logger.Info("salary change event approved",
		zap.String("event_id", ev.ID.String()),
		zap.String("employee_id", ev.EmployeeID.String()),
	)

	return mapToResponse(*ev), nil
}

func (s *service) Reject(ctx context.Context, id string) (RevisionResponse, error) {
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return RevisionResponse{}, err
	}
	if ev.ApprovalState != ApprovalPending {
		return RevisionResponse{}, revisionerrors.InvalidTransition("reject", string(ev.ApprovalState))
	}

	ev.ApprovalState = ApprovalRejected
	if err := s.repo.Update(ctx, ev); err != nil {
		return RevisionResponse{}, err
	}
	return mapToResponse(*ev), nil
}

func (s *service) Cancel(ctx context.Context, id string) (RevisionResponse, error) {
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return RevisionResponse{}, err
	}
	if !ev.Cancellable() {
		return RevisionResponse{}, revisionerrors.InvalidTransition("cancel", string(ev.QueueStatus))
	}

	ev.ApprovalState = ApprovalCancelled
	if err := s.repo.Update(ctx, ev); err != nil {
		return RevisionResponse{}, err
	}
	return mapToResponse(*ev), nil
}

func (s *service) ListDeadLetters(ctx context.Context, limit int) ([]RevisionResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	evs, err := s.repo.ListDeadLettered(ctx, limit)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(evs), nil
}

// Requeue puts a dead-lettered event back on the queue with a fresh retry
// budget. The recorded last error stays visible until the next attempt.
func (s *service) Requeue(ctx context.Context, id string) (RevisionResponse, error) {
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return RevisionResponse{}, err
	}
	if ev.QueueStatus != QueueDeadLetter {
		return RevisionResponse{}, revisionerrors.ErrEventNotDeadLettered
	}

	ev.QueueStatus = QueueQueued
	ev.RetryCount = 0
	ev.NextRetryAt = nil
	if err := s.repo.Update(ctx, ev); err != nil {
		return RevisionResponse{}, err
	}

	s.logger.Info("dead-lettered event requeued",
		zap.String("event_id", ev.ID.String()),
		zap.String("employee_id", ev.EmployeeID.String()),
	)
	return mapToResponse(*ev), nil
}

// Projection rebuilds the twelve-month basis array from the approved events
// over the salary in force before any of them took effect.
func (s *service) Projection(ctx context.Context, employeeID, taxYear string) (ProjectionResponse, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return ProjectionResponse{}, apperror.InvalidField("employee_id")
	}
	year, err := fiscal.Parse(taxYear)
	if err != nil {
		return ProjectionResponse{}, apperror.FieldRule("tax_year", err.Error())
	}

	tables, err := s.rates.Tables(ctx, year)
	if err != nil {
		return ProjectionResponse{}, err
	}

	approved, err := s.repo.ListApproved(ctx, empID.String(), year)
	if err != nil {
		return ProjectionResponse{}, err
	}

	var baseline salary.SalaryComponents
	if len(approved) > 0 {
		ordered := make([]*SalaryChangeEvent, len(approved))
		copy(ordered, approved)
		sortForApplication(ordered)
		baseline = ordered[0].PreviousSalary
	} else {
		rec, err := s.taxRepo.FindByEmployeeAndYear(ctx, empID.String(), year)
		if errors.Is(err, taxationerrors.ErrRecordNotFound) {
			baseline = salary.NewSalaryComponents()
		} else if err != nil {
			return ProjectionResponse{}, err
		} else {
			baseline = rec.Salary
		}
	}

	projection := BuildProjection(year, baseline, approved, tables)
	return ProjectionResponse{
		EmployeeID: empID.String(),
		TaxYear:    year.String(),
		Projection: projection,
		Total:      projection.Total(),
	}, nil
}
