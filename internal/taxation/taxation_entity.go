package taxation

import (
	"time"

	"go-paytax/internal/rates"
	"go-paytax/internal/salary"
	"go-paytax/internal/shared/fiscal"
	"go-paytax/internal/taxation/regime"
	"go-paytax/internal/taxation/valuation"

	"github.com/google/uuid"
)

// RegimeState is the regime-lock state machine: Unset until the first
// computation or explicit choice, Selected until filing finalizes or payroll
// pays out, then Locked for the rest of the tax year.
type RegimeState string

const (
	RegimeUnset    RegimeState = "unset"
	RegimeSelected RegimeState = "selected"
	RegimeLocked   RegimeState = "locked"
)

type FilingStatus string

const (
	FilingDraft     FilingStatus = "draft"
	FilingFinalized FilingStatus = "finalized"
	FilingLocked    FilingStatus = "locked"
)

const (
	LockReasonFinalized = "filing finalized"
	LockReasonPaidOut   = "payroll paid out under this regime"
)

// TaxationRecord is the aggregate root for one employee and tax year. The
// nested income structures persist as JSON; Version backs optimistic
// concurrency on save.
type TaxationRecord struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID   `gorm:"type:uuid;index:idx_taxation_employee_year,unique"`
	TaxYear    fiscal.Year `gorm:"index:idx_taxation_employee_year,unique"`

	Regime           rates.Regime `gorm:"type:varchar(16)"`
	RegimeState      RegimeState  `gorm:"type:varchar(16)"`
	RegimeLockReason string

	FilingStatus FilingStatus `gorm:"type:varchar(16)"`
	EmployeeAge  int

	Salary          salary.SalaryComponents `gorm:"serializer:json"`
	OtherSources    OtherSources            `gorm:"serializer:json"`
	CapitalGains    CapitalGains            `gorm:"serializer:json"`
	HouseProperty   HouseProperty           `gorm:"serializer:json"`
	LeaveEncashment LeaveEncashment         `gorm:"serializer:json"`
	Deductions      Deductions              `gorm:"serializer:json"`

	Breakup             regime.Breakup      `gorm:"serializer:json"`
	PerquisiteBreakdown valuation.Breakdown `gorm:"serializer:json"`
	ComputedAt          *time.Time

	RequiresRecalculation bool
	// PendingArrears is the signed adjustment accumulated by retroactive
	// salary corrections, taxable on receipt in a future payout.
	PendingArrears float64

	// Payment tracking stays mutable after finalization.
	TaxPaid       float64
	TaxDue        float64
	TaxRefundable float64
	TaxPending    float64

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTaxationRecord builds a zero-valued draft record through the component
// factories.
func NewTaxationRecord(employeeID uuid.UUID, year fiscal.Year) *TaxationRecord {
	return &TaxationRecord{
		ID:           uuid.New(),
		EmployeeID:   employeeID,
		TaxYear:      year,
		RegimeState:  RegimeUnset,
		FilingStatus: FilingDraft,
		Salary:       salary.NewSalaryComponents(),
	}
}

// Finalized reports whether income-affecting fields are frozen.
func (r *TaxationRecord) Finalized() bool {
	return r.FilingStatus == FilingFinalized || r.FilingStatus == FilingLocked
}

// RefreshPayments recomputes the derived payment-tracking fields from the
// current breakup and the tax actually paid.
func (r *TaxationRecord) RefreshPayments() {
	r.TaxDue = r.Breakup.TaxPayable
	pending := r.TaxDue - r.TaxPaid
	if pending > 0 {
		r.TaxPending = pending
		r.TaxRefundable = 0
	} else {
		r.TaxPending = 0
		r.TaxRefundable = -pending
	}
}

// Validate runs the structural checks across every income structure.
func (r *TaxationRecord) Validate() error {
	if err := r.Salary.Validate(); err != nil {
		return err
	}
	if err := r.OtherSources.Validate(); err != nil {
		return err
	}
	if err := r.CapitalGains.Validate(); err != nil {
		return err
	}
	if err := r.HouseProperty.Validate(); err != nil {
		return err
	}
	if err := r.LeaveEncashment.Validate(); err != nil {
		return err
	}
	return r.Deductions.Validate()
}
