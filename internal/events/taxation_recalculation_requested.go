package events

import "time"

const TaxationRecalculationRequestedTopic = "paytax.taxation.recalculation.requested.v1"

type TaxationRecalculationRequestedEvent struct {
	EventType  string    `json:"event_type"`
	EmployeeID string    `json:"employee_id"`
	TaxYear    string    `json:"tax_year"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
