package revision

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"go-paytax/internal/events"
	"go-paytax/internal/messaging/kafka"
	"go-paytax/internal/rates"
	ratesMock "go-paytax/internal/rates/mock"
	revisionerrors "go-paytax/internal/revision/errors"
	"go-paytax/internal/salary"
	"go-paytax/internal/shared/fiscal"
	"go-paytax/internal/taxation"
	"go-paytax/internal/taxation/regime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// fakeRevisionRepo is an in-memory Repository for pipeline tests. updateHook,
// when set, runs before each Update and can reject the write.
type fakeRevisionRepo struct {
	mu         sync.Mutex
	events     map[string]*SalaryChangeEvent
	updateHook func(ev *SalaryChangeEvent) error
}

func newFakeRevisionRepo() *fakeRevisionRepo {
	return &fakeRevisionRepo{events: make(map[string]*SalaryChangeEvent)}
}

func (f *fakeRevisionRepo) add(ev *SalaryChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *ev
	f.events[ev.ID.String()] = &stored
}

func (f *fakeRevisionRepo) get(id uuid.UUID) *SalaryChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := *f.events[id.String()]
	return &out
}

func (f *fakeRevisionRepo) WithTx(_ *sql.Tx) Repository { return f }

func (f *fakeRevisionRepo) Create(_ context.Context, ev *SalaryChangeEvent) error {
	f.add(ev)
	return nil
}

func (f *fakeRevisionRepo) FindByID(_ context.Context, id string) (*SalaryChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, revisionerrors.ErrEventNotFound
	}
	out := *ev
	return &out, nil
}

func (f *fakeRevisionRepo) ListByEmployeeAndYear(_ context.Context, employeeID string, year fiscal.Year) ([]*SalaryChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*SalaryChangeEvent
	for _, ev := range f.events {
		if ev.EmployeeID.String() == employeeID && ev.TaxYear == year {
			copied := *ev
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRevisionRepo) ListApproved(_ context.Context, employeeID string, year fiscal.Year) ([]*SalaryChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*SalaryChangeEvent
	for _, ev := range f.events {
		if ev.EmployeeID.String() == employeeID && ev.TaxYear == year && ev.ApprovalState == ApprovalApproved {
			copied := *ev
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRevisionRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*SalaryChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*SalaryChangeEvent
	for _, ev := range f.events {
		if ev.ApprovalState != ApprovalApproved {
			continue
		}
		if ev.QueueStatus != QueueQueued && ev.QueueStatus != QueueFailed {
			continue
		}
		if ev.NextRetryAt != nil && ev.NextRetryAt.After(now) {
			continue
		}
		copied := *ev
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRevisionRepo) ListDeadLettered(_ context.Context, limit int) ([]*SalaryChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*SalaryChangeEvent
	for _, ev := range f.events {
		if ev.QueueStatus == QueueDeadLetter {
			copied := *ev
			out = append(out, &copied)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRevisionRepo) Update(_ context.Context, ev *SalaryChangeEvent) error {
	f.mu.Lock()
	hook := f.updateHook
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ev); err != nil {
			return err
		}
	}
	f.add(ev)
	return nil
}

// fakeTaxationService records ApplyRevision calls; the remaining Service
// methods are unused by the pipeline.
type fakeTaxationService struct {
	mu             sync.Mutex
	applyErr       error
	applied        []appliedRevision
	recalculations []string
}

type appliedRevision struct {
	employeeID string
	year       fiscal.Year
	salary     salary.SalaryComponents
	arrears    float64
}

func (f *fakeTaxationService) ApplyRevision(_ context.Context, employeeID string, year fiscal.Year, newSalary salary.SalaryComponents, arrears float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, appliedRevision{employeeID, year, newSalary, arrears})
	return nil
}

func (f *fakeTaxationService) Recalculate(_ context.Context, employeeID string, _ fiscal.Year) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recalculations = append(f.recalculations, employeeID)
	return nil
}

func (f *fakeTaxationService) Upsert(context.Context, string, string, taxation.UpsertTaxationRequest) (taxation.TaxationResponse, error) {
	return taxation.TaxationResponse{}, nil
}
func (f *fakeTaxationService) Get(context.Context, string, string) (taxation.TaxationResponse, error) {
	return taxation.TaxationResponse{}, nil
}
func (f *fakeTaxationService) Compute(context.Context, string, string, taxation.ComputeRequest) (taxation.TaxationResponse, error) {
	return taxation.TaxationResponse{}, nil
}
func (f *fakeTaxationService) ComputeComponent(context.Context, string, string, taxation.ComputeComponentRequest) (taxation.ComponentResponse, error) {
	return taxation.ComponentResponse{}, nil
}
func (f *fakeTaxationService) Compare(context.Context, string, string) (regime.Comparison, error) {
	return regime.Comparison{}, nil
}
func (f *fakeTaxationService) SelectRegime(context.Context, string, string, taxation.SelectRegimeRequest) (taxation.TaxationResponse, error) {
	return taxation.TaxationResponse{}, nil
}
func (f *fakeTaxationService) Finalize(context.Context, string, string) (taxation.TaxationResponse, error) {
	return taxation.TaxationResponse{}, nil
}
func (f *fakeTaxationService) UpdatePayments(context.Context, string, string, taxation.UpdatePaymentsRequest) (taxation.TaxationResponse, error) {
	return taxation.TaxationResponse{}, nil
}
func (f *fakeTaxationService) RecordPayout(context.Context, string, string, taxation.RecordPayoutRequest) (taxation.TaxationResponse, error) {
	return taxation.TaxationResponse{}, nil
}
func (f *fakeTaxationService) BulkCompute(context.Context, taxation.BulkComputeRequest) (taxation.BulkComputeResponse, error) {
	return taxation.BulkComputeResponse{}, nil
}

// fakeOutboxRepo records staged events.
type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []kafka.OutboxEvent
}

func (f *fakeOutboxRepo) WithTx(_ *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepo) Create(_ context.Context, event kafka.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) ListPending(context.Context, int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutboxRepo) MarkSent(context.Context, string) error            { return nil }
func (f *fakeOutboxRepo) MarkFailed(context.Context, string, string) error { return nil }

func setupPipelineTest(t *testing.T, cfg PipelineConfig) (*Pipeline, *fakeRevisionRepo, *fakeTaxationService, *fakeOutboxRepo) {
	t.Helper()
	repo := newFakeRevisionRepo()
	taxSvc := &fakeTaxationService{}
	outbox := &fakeOutboxRepo{}
	p := NewPipeline(repo, taxSvc, rates.NewStaticProvider(), outbox, zap.NewNop(), cfg)
	return p, repo, taxSvc, outbox
}

func approvedEvent(empID uuid.UUID, effective time.Time, prev, next float64, createdAt time.Time) *SalaryChangeEvent {
	ev := changeEvent(empID, effective, prev, next, createdAt)
	return ev
}

func TestPipelineProcess(t *testing.T) {
	ctx := context.Background()
	empID := uuid.New()

	t.Run("applies an approved event and requests recalculation", func(t *testing.T) {
		p, repo, taxSvc, outbox := setupPipelineTest(t, PipelineConfig{})

		ev := approvedEvent(empID,
			time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		repo.add(ev)

		require.NoError(t, p.Process(ctx, ev.ID.String()))

		stored := repo.get(ev.ID)
		assert.Equal(t, QueueApplied, stored.QueueStatus)
		assert.NotNil(t, stored.AppliedAt)
		assert.Len(t, stored.Projection, 12)

		require.Len(t, taxSvc.applied, 1)
		assert.Equal(t, empID.String(), taxSvc.applied[0].employeeID)
		assert.Equal(t, 720000.0, taxSvc.applied[0].salary.Basic)
		assert.Equal(t, 0.0, taxSvc.applied[0].arrears)

		require.Len(t, outbox.events, 1)
		assert.Equal(t, events.TaxationRecalculationRequestedTopic, outbox.events[0].Topic)
		assert.Equal(t, "taxation_recalculation_requested", outbox.events[0].EventType)
	})

	t.Run("retroactive event carries its arrears delta", func(t *testing.T) {
		p, repo, taxSvc, _ := setupPipelineTest(t, PipelineConfig{})

		ev := approvedEvent(empID,
			time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		ev.MarkRetroactive(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
		repo.add(ev)

		require.NoError(t, p.Process(ctx, ev.ID.String()))

		require.Len(t, taxSvc.applied, 1)
		assert.InDelta(t, 40000.0, taxSvc.applied[0].arrears, 0.01)
		assert.InDelta(t, 40000.0, repo.get(ev.ID).ArrearsDelta, 0.01)
	})

	t.Run("out-of-order event is buffered until its sibling applies", func(t *testing.T) {
		p, repo, taxSvc, _ := setupPipelineTest(t, PipelineConfig{})

		earlier := approvedEvent(empID,
			time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			600000, 660000,
			time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
		later := approvedEvent(empID,
			time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
			660000, 840000,
			time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC))
		repo.add(earlier)
		repo.add(later)

		// Delivered out of order: the later event must wait.
		require.NoError(t, p.Process(ctx, later.ID.String()))
		assert.Equal(t, QueueQueued, repo.get(later.ID).QueueStatus)
		assert.Empty(t, taxSvc.applied)

		require.NoError(t, p.Process(ctx, earlier.ID.String()))
		require.NoError(t, p.Process(ctx, later.ID.String()))

		assert.Equal(t, QueueApplied, repo.get(earlier.ID).QueueStatus)
		assert.Equal(t, QueueApplied, repo.get(later.ID).QueueStatus)

		// Applied in effective-date order despite delivery order.
		require.Len(t, taxSvc.applied, 2)
		assert.Equal(t, 660000.0, taxSvc.applied[0].salary.Basic)
		assert.Equal(t, 840000.0, taxSvc.applied[1].salary.Basic)
	})

	t.Run("reprocessing an applied event is a no-op", func(t *testing.T) {
		p, repo, taxSvc, outbox := setupPipelineTest(t, PipelineConfig{})

		ev := approvedEvent(empID,
			time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		repo.add(ev)

		require.NoError(t, p.Process(ctx, ev.ID.String()))
		require.NoError(t, p.Process(ctx, ev.ID.String()))

		assert.Len(t, taxSvc.applied, 1)
		assert.Len(t, outbox.events, 1)
	})

	t.Run("a pending event is not processed", func(t *testing.T) {
		p, repo, taxSvc, _ := setupPipelineTest(t, PipelineConfig{})

		ev := approvedEvent(empID,
			time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		ev.ApprovalState = ApprovalPending
		repo.add(ev)

		require.NoError(t, p.Process(ctx, ev.ID.String()))
		assert.Equal(t, QueueQueued, repo.get(ev.ID).QueueStatus)
		assert.Empty(t, taxSvc.applied)
	})

	t.Run("unknown event id errors", func(t *testing.T) {
		p, _, _, _ := setupPipelineTest(t, PipelineConfig{})
		assert.Error(t, p.Process(ctx, uuid.NewString()))
	})
}

func TestPipelineRetryAndDeadLetter(t *testing.T) {
	ctx := context.Background()
	empID := uuid.New()
	cause := errors.New("taxation unavailable")

	t.Run("failure schedules a retry with backoff", func(t *testing.T) {
		p, repo, taxSvc, _ := setupPipelineTest(t, PipelineConfig{MaxAttempts: 3, RetryBackoff: time.Minute})
		taxSvc.applyErr = cause

		ev := approvedEvent(empID,
			time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		repo.add(ev)

		err := p.Process(ctx, ev.ID.String())
		assert.ErrorIs(t, err, cause)

		stored := repo.get(ev.ID)
		assert.Equal(t, QueueFailed, stored.QueueStatus)
		assert.Equal(t, 1, stored.RetryCount)
		assert.Equal(t, cause.Error(), stored.LastError)
		require.NotNil(t, stored.NextRetryAt)
		assert.True(t, stored.NextRetryAt.After(time.Now()))
	})

	t.Run("exhausting the retry budget parks in dead letter", func(t *testing.T) {
		p, repo, taxSvc, outbox := setupPipelineTest(t, PipelineConfig{MaxAttempts: 2, RetryBackoff: time.Nanosecond})
		taxSvc.applyErr = cause

		ev := approvedEvent(empID,
			time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		repo.add(ev)

		require.Error(t, p.Process(ctx, ev.ID.String()))
		require.Error(t, p.Process(ctx, ev.ID.String()))

		stored := repo.get(ev.ID)
		assert.Equal(t, QueueDeadLetter, stored.QueueStatus)
		assert.Equal(t, 2, stored.RetryCount)
		assert.Nil(t, stored.NextRetryAt)
		assert.Empty(t, outbox.events)

		// Dead-lettered events are terminal for the queue.
		require.NoError(t, p.Process(ctx, ev.ID.String()))
		assert.Equal(t, 2, repo.get(ev.ID).RetryCount)
	})

	t.Run("redelivery after a lost status write lands on the same arrears", func(t *testing.T) {
		p, repo, taxSvc, _ := setupPipelineTest(t, PipelineConfig{MaxAttempts: 5, RetryBackoff: time.Nanosecond})

		ev := approvedEvent(empID,
			time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		ev.MarkRetroactive(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
		repo.add(ev)

		// The applied-status write fails once, after the taxation side has
		// already taken the revision.
		statusWriteLost := errors.New("connection reset")
		repo.updateHook = func(updated *SalaryChangeEvent) error {
			if updated.QueueStatus == QueueApplied {
				repo.updateHook = nil
				return statusWriteLost
			}
			return nil
		}

		assert.ErrorIs(t, p.Process(ctx, ev.ID.String()), statusWriteLost)
		require.NoError(t, p.Process(ctx, ev.ID.String()))

		// Both deliveries handed over the same cumulative figure, so the
		// taxation record never double-counts the delta.
		require.Len(t, taxSvc.applied, 2)
		assert.InDelta(t, 40000.0, taxSvc.applied[0].arrears, 0.01)
		assert.InDelta(t, 40000.0, taxSvc.applied[1].arrears, 0.01)
		assert.Equal(t, QueueApplied, repo.get(ev.ID).QueueStatus)
	})

	t.Run("a recovered dependency lets the retry succeed", func(t *testing.T) {
		p, repo, taxSvc, _ := setupPipelineTest(t, PipelineConfig{MaxAttempts: 5, RetryBackoff: time.Nanosecond})
		taxSvc.applyErr = cause

		ev := approvedEvent(empID,
			time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		repo.add(ev)

		require.Error(t, p.Process(ctx, ev.ID.String()))
		taxSvc.applyErr = nil
		require.NoError(t, p.Process(ctx, ev.ID.String()))

		assert.Equal(t, QueueApplied, repo.get(ev.ID).QueueStatus)
		assert.Empty(t, repo.get(ev.ID).LastError)
	})
}

func TestPipelineRatesFailureSchedulesRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	repo := newFakeRevisionRepo()
	taxSvc := &fakeTaxationService{}
	mockRates := ratesMock.NewMockProvider(ctrl)
	p := NewPipeline(repo, taxSvc, mockRates, &fakeOutboxRepo{}, zap.NewNop(),
		PipelineConfig{MaxAttempts: 3, RetryBackoff: time.Minute})

	ev := approvedEvent(uuid.New(),
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		600000, 720000, time.Now())
	repo.add(ev)

	cause := errors.New("tables unavailable")
	mockRates.EXPECT().Tables(gomock.Any(), fiscal.Year(2024)).Return(nil, cause)

	assert.ErrorIs(t, p.Process(ctx, ev.ID.String()), cause)

	stored := repo.get(ev.ID)
	assert.Equal(t, QueueFailed, stored.QueueStatus)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Empty(t, taxSvc.applied)
}

func TestPipelineListDueOrdering(t *testing.T) {
	ctx := context.Background()
	empID := uuid.New()

	p, repo, taxSvc, _ := setupPipelineTest(t, PipelineConfig{})

	first := approvedEvent(empID,
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		600000, 630000,
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	second := approvedEvent(empID,
		time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC),
		630000, 690000,
		time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC))
	repo.add(first)
	repo.add(second)

	// A full drain applies both; the buffer guard keeps the order right
	// even though the fake returns due events unordered.
	require.NoError(t, p.drainDue(ctx))
	require.NoError(t, p.drainDue(ctx))

	assert.Equal(t, QueueApplied, repo.get(first.ID).QueueStatus)
	assert.Equal(t, QueueApplied, repo.get(second.ID).QueueStatus)
	require.Len(t, taxSvc.applied, 2)
	assert.Equal(t, 630000.0, taxSvc.applied[0].salary.Basic)
	assert.Equal(t, 690000.0, taxSvc.applied[1].salary.Basic)
}
