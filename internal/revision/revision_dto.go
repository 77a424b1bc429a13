package revision

import (
	"time"

	"go-paytax/internal/salary"
)

type SubmitRevisionRequest struct {
	EmployeeID    string `json:"employee_id" binding:"required,uuid"`
	TaxYear       string `json:"tax_year" binding:"required"`
	ChangeType    string `json:"change_type" binding:"required,oneof=hike promotion arrears correction"`
	EffectiveDate string `json:"effective_date" binding:"required"`

	Retroactive     bool   `json:"retroactive"`
	RetroactiveFrom string `json:"retroactive_from,omitempty"`

	PreviousSalary salary.SalaryComponents `json:"previous_salary"`
	NewSalary      salary.SalaryComponents `json:"new_salary"`

	Priority    string `json:"priority,omitempty" binding:"omitempty,oneof=low medium high critical"`
	SubmittedBy string `json:"submitted_by,omitempty"`
}

type ApproveRevisionRequest struct {
	ApprovedBy string `json:"approved_by,omitempty"`
}

type RevisionResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	TaxYear    string `json:"tax_year"`

	ChangeType    string `json:"change_type"`
	EffectiveDate string `json:"effective_date"`

	Retroactive     bool    `json:"retroactive"`
	RetroactiveFrom *string `json:"retroactive_from,omitempty"`

	PreviousSalary salary.SalaryComponents `json:"previous_salary"`
	NewSalary      salary.SalaryComponents `json:"new_salary"`

	ApprovalState string `json:"approval_state"`
	QueueStatus   string `json:"queue_status"`
	Priority      string `json:"priority"`

	Projection   MonthlyProjections `json:"projection,omitempty"`
	ArrearsDelta float64            `json:"arrears_delta"`

	RetryCount  int     `json:"retry_count"`
	LastError   string  `json:"last_error,omitempty"`
	NextRetryAt *string `json:"next_retry_at,omitempty"`
	AppliedAt   *string `json:"applied_at,omitempty"`

	SubmittedBy string `json:"submitted_by,omitempty"`
	ApprovedBy  string `json:"approved_by,omitempty"`

	CreatedAt string `json:"created_at"`
}

type ProjectionResponse struct {
	EmployeeID string             `json:"employee_id"`
	TaxYear    string             `json:"tax_year"`
	Projection MonthlyProjections `json:"projection"`
	Total      float64            `json:"total"`
}

func mapToResponse(ev SalaryChangeEvent) RevisionResponse {
	resp := RevisionResponse{
		ID:             ev.ID.String(),
		EmployeeID:     ev.EmployeeID.String(),
		TaxYear:        ev.TaxYear.String(),
		ChangeType:     string(ev.ChangeType),
		EffectiveDate:  ev.EffectiveDate.Format(time.DateOnly),
		Retroactive:    ev.Retroactive,
		PreviousSalary: ev.PreviousSalary,
		NewSalary:      ev.NewSalary,
		ApprovalState:  string(ev.ApprovalState),
		QueueStatus:    string(ev.QueueStatus),
		Priority:       string(ev.Priority),
		Projection:     ev.Projection,
		ArrearsDelta:   ev.ArrearsDelta,
		RetryCount:     ev.RetryCount,
		LastError:      ev.LastError,
		SubmittedBy:    ev.SubmittedBy,
		ApprovedBy:     ev.ApprovedBy,
		CreatedAt:      ev.CreatedAt.Format(time.RFC3339),
	}
	if ev.RetroactiveFrom != nil {
		v := ev.RetroactiveFrom.Format(time.DateOnly)
		resp.RetroactiveFrom = &v
	}
	if ev.NextRetryAt != nil {
		v := ev.NextRetryAt.Format(time.RFC3339)
		resp.NextRetryAt = &v
	}
	if ev.AppliedAt != nil {
		v := ev.AppliedAt.Format(time.RFC3339)
		resp.AppliedAt = &v
	}
	return resp
}

func mapToListResponse(evs []*SalaryChangeEvent) []RevisionResponse {
	resps := make([]RevisionResponse, 0, len(evs))
	for _, ev := range evs {
		resps = append(resps, mapToResponse(*ev))
	}
	return resps
}
