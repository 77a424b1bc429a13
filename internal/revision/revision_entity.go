package revision

import (
	"time"

	"go-paytax/internal/salary"
	"go-paytax/internal/shared/fiscal"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeHike       ChangeType = "hike"
	ChangePromotion  ChangeType = "promotion"
	ChangeArrears    ChangeType = "arrears"
	ChangeCorrection ChangeType = "correction"
)

// Priority orders events within the processing queue. Higher values drain
// first when effective dates tie.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type ApprovalState string

const (
	ApprovalPending   ApprovalState = "pending"
	ApprovalApproved  ApprovalState = "approved"
	ApprovalRejected  ApprovalState = "rejected"
	ApprovalCancelled ApprovalState = "cancelled"
)

type QueueStatus string

const (
	QueueQueued     QueueStatus = "queued"
	QueueProcessing QueueStatus = "processing"
	QueueApplied    QueueStatus = "applied"
	QueueFailed     QueueStatus = "failed"
	QueueDeadLetter QueueStatus = "dead_letter"
)

// SalaryChangeEvent captures one salary revision from submission through
// approval and queue processing. Previous and new component snapshots persist
// as JSON so the projection can be rebuilt without the live salary record.
type SalaryChangeEvent struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID   `gorm:"type:uuid;index:idx_revision_employee_year"`
	TaxYear    fiscal.Year `gorm:"index:idx_revision_employee_year"`

	ChangeType    ChangeType `gorm:"type:varchar(16)"`
	EffectiveDate time.Time

	Retroactive     bool
	RetroactiveFrom *time.Time

	PreviousSalary salary.SalaryComponents `gorm:"serializer:json"`
	NewSalary      salary.SalaryComponents `gorm:"serializer:json"`

	ApprovalState ApprovalState `gorm:"type:varchar(16)"`
	QueueStatus   QueueStatus   `gorm:"type:varchar(16)"`
	Priority      Priority      `gorm:"type:varchar(16)"`

	// Projection is the monthly basis array as of applying this event,
	// written by the pipeline when the event is applied.
	Projection MonthlyProjections `gorm:"serializer:json"`
	// ArrearsDelta is the signed retroactive adjustment this event produced.
	ArrearsDelta float64

	RetryCount  int
	LastError   string
	NextRetryAt *time.Time
	AppliedAt   *time.Time

	SubmittedBy string
	ApprovedBy  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSalaryChangeEvent builds a pending, queued event with the priority floor
// applied: retroactive corrections never queue below high.
func NewSalaryChangeEvent(
	employeeID uuid.UUID,
	year fiscal.Year,
	changeType ChangeType,
	effectiveDate time.Time,
	prev, next salary.SalaryComponents,
	priority Priority,
) *SalaryChangeEvent {
	ev := &SalaryChangeEvent{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		TaxYear:        year,
		ChangeType:     changeType,
		EffectiveDate:  effectiveDate,
		PreviousSalary: prev,
		NewSalary:      next,
		ApprovalState:  ApprovalPending,
		QueueStatus:    QueueQueued,
		Priority:       priority,
	}
	if ev.Priority.Rank() == 0 {
		ev.Priority = PriorityMedium
	}
	ev.normalizePriority()
	return ev
}

func (e *SalaryChangeEvent) normalizePriority() {
	if e.Retroactive || e.ChangeType == ChangeCorrection || e.ChangeType == ChangeArrears {
		if e.Priority.Rank() < PriorityHigh.Rank() {
			e.Priority = PriorityHigh
		}
	}
}

// MarkRetroactive flags the event retroactive from the given date and raises
// its priority floor.
func (e *SalaryChangeEvent) MarkRetroactive(from time.Time) {
	e.Retroactive = true
	e.RetroactiveFrom = &from
	e.normalizePriority()
}

// Cancellable reports whether the event can still be cancelled: only before
// approval processing has taken it out of the queued state.
func (e *SalaryChangeEvent) Cancellable() bool {
	return e.ApprovalState == ApprovalPending && e.QueueStatus == QueueQueued
}

// Terminal reports whether the queue will never touch the event again.
func (e *SalaryChangeEvent) Terminal() bool {
	switch e.ApprovalState {
	case ApprovalRejected, ApprovalCancelled:
		return true
	}
	return e.QueueStatus == QueueApplied || e.QueueStatus == QueueDeadLetter
}
