package taxation

import (
	"time"

	"go-paytax/internal/salary"
	"go-paytax/internal/taxation/regime"
	"go-paytax/internal/taxation/valuation"
)

// UpsertTaxationRequest carries a full or partial taxation payload. Absent
// sections leave the stored section untouched.
type UpsertTaxationRequest struct {
	EmployeeAge     *int                     `json:"employee_age,omitempty"`
	Salary          *salary.SalaryComponents `json:"salary,omitempty"`
	OtherSources    *OtherSources            `json:"other_sources,omitempty"`
	CapitalGains    *CapitalGains            `json:"capital_gains,omitempty"`
	HouseProperty   *HouseProperty           `json:"house_property,omitempty"`
	LeaveEncashment *LeaveEncashment         `json:"leave_encashment,omitempty"`
	Deductions      *Deductions              `json:"deductions,omitempty"`
}

type ComputeRequest struct {
	Regime string `json:"regime,omitempty"`
}

type SelectRegimeRequest struct {
	Regime string `json:"regime" binding:"required"`
}

type UpdatePaymentsRequest struct {
	TaxPaid *float64 `json:"tax_paid,omitempty"`
}

type RecordPayoutRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

type ComputeComponentRequest struct {
	Component string `json:"component" binding:"required"`
}

type BulkComputeOptions struct {
	RegimeOverride string `json:"regime_override,omitempty"`
	IncludeArrears bool   `json:"include_arrears"`
	IncludeBonus   bool   `json:"include_bonus"`
}

type BulkComputeRequest struct {
	EmployeeIDs []string           `json:"employee_ids" binding:"required"`
	TaxYear     string             `json:"tax_year" binding:"required"`
	Options     BulkComputeOptions `json:"options"`
}

type BulkItemResult struct {
	EmployeeID string `json:"employee_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

type BulkComputeResponse struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Skipped    int              `json:"skipped"`
	Items      []BulkItemResult `json:"items"`
}

type TaxationResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	TaxYear    string `json:"tax_year"`

	Regime           string `json:"regime,omitempty"`
	RegimeState      string `json:"regime_state"`
	RegimeLockReason string `json:"regime_lock_reason,omitempty"`
	FilingStatus     string `json:"filing_status"`

	Salary          salary.SalaryComponents `json:"salary"`
	OtherSources    OtherSources            `json:"other_sources"`
	CapitalGains    CapitalGains            `json:"capital_gains"`
	HouseProperty   HouseProperty           `json:"house_property"`
	LeaveEncashment LeaveEncashment         `json:"leave_encashment"`
	Deductions      Deductions              `json:"deductions"`

	Breakup             regime.Breakup      `json:"breakup"`
	PerquisiteBreakdown valuation.Breakdown `json:"perquisite_breakdown,omitempty"`
	Warnings            []string            `json:"warnings,omitempty"`
	ComputedAt          *string             `json:"computed_at,omitempty"`

	RequiresRecalculation bool    `json:"requires_recalculation"`
	PendingArrears        float64 `json:"pending_arrears"`

	TaxPaid       float64 `json:"tax_paid"`
	TaxDue        float64 `json:"tax_due"`
	TaxRefundable float64 `json:"tax_refundable"`
	TaxPending    float64 `json:"tax_pending"`

	Version int `json:"version"`
}

type ComponentResponse struct {
	Component string           `json:"component"`
	Result    valuation.Result `json:"result"`
	Breakup   regime.Breakup   `json:"breakup"`
}

func mapToResponse(rec TaxationRecord) TaxationResponse {
	resp := TaxationResponse{
		ID:                    rec.ID.String(),
		EmployeeID:            rec.EmployeeID.String(),
		TaxYear:               rec.TaxYear.String(),
		Regime:                string(rec.Regime),
		RegimeState:           string(rec.RegimeState),
		RegimeLockReason:      rec.RegimeLockReason,
		FilingStatus:          string(rec.FilingStatus),
		Salary:                rec.Salary,
		OtherSources:          rec.OtherSources,
		CapitalGains:          rec.CapitalGains,
		HouseProperty:         rec.HouseProperty,
		LeaveEncashment:       rec.LeaveEncashment,
		Deductions:            rec.Deductions,
		Breakup:               rec.Breakup,
		PerquisiteBreakdown:   rec.PerquisiteBreakdown,
		Warnings:              rec.PerquisiteBreakdown.Warnings(),
		RequiresRecalculation: rec.RequiresRecalculation,
		PendingArrears:        rec.PendingArrears,
		TaxPaid:               rec.TaxPaid,
		TaxDue:                rec.TaxDue,
		TaxRefundable:         rec.TaxRefundable,
		TaxPending:            rec.TaxPending,
		Version:               rec.Version,
	}
	if rec.ComputedAt != nil {
		v := rec.ComputedAt.Format(time.RFC3339)
		resp.ComputedAt = &v
	}
	return resp
}
