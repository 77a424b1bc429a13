package events

import "time"

const SalaryChangeApprovedTopic = "paytax.salary.change.approved.v1"

type SalaryChangeApprovedEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	EmployeeID  string    `json:"employee_id"`
	TaxYear     string    `json:"tax_year"`
	ChangeType  string    `json:"change_type"`
	Priority    string    `json:"priority"`
	Retroactive bool      `json:"retroactive"`
	OccurredAt  time.Time `json:"occurred_at"`
}
