package revision

import (
	"sort"
	"time"

	"go-paytax/internal/rates"
	"go-paytax/internal/salary"
	"go-paytax/internal/shared/fiscal"
)

// MonthlyProjection is the projected cash salary for one financial-year month.
// SourceEventID names the change event whose components govern the month, or
// is empty where the baseline still applies.
type MonthlyProjection struct {
	Index         int        `json:"index"`
	Month         time.Month `json:"month"`
	CalendarYear  int        `json:"calendar_year"`
	Amount        float64    `json:"amount"`
	SourceEventID string     `json:"source_event_id,omitempty"`
}

type MonthlyProjections []MonthlyProjection

func (p MonthlyProjections) Total() float64 {
	var total float64
	for _, m := range p {
		total += m.Amount
	}
	return total
}

// sortForApplication orders events the way the queue must apply them: by
// effective date, then priority rank descending, then submission time. The
// order is total, so reordering a buffered out-of-order batch always
// reconverges on the same application sequence.
func sortForApplication(events []*SalaryChangeEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].EffectiveDate.Equal(events[j].EffectiveDate) {
			return events[i].EffectiveDate.Before(events[j].EffectiveDate)
		}
		if events[i].Priority.Rank() != events[j].Priority.Rank() {
			return events[i].Priority.Rank() > events[j].Priority.Rank()
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
}

// BuildProjection lays the approved events over the baseline components and
// returns the twelve-month basis array. For each month the latest event whose
// effective date falls on or before the month start governs; a later event
// supersedes an earlier one from its own effective month onward.
func BuildProjection(
	year fiscal.Year,
	baseline salary.SalaryComponents,
	events []*SalaryChangeEvent,
	tables *rates.TaxYearTables,
) MonthlyProjections {
	ordered := make([]*SalaryChangeEvent, len(events))
	copy(ordered, events)
	sortForApplication(ordered)

	projections := make(MonthlyProjections, 0, 12)
	for i := 0; i < 12; i++ {
		month := fiscal.MonthAt(i)
		calendarYear := int(year)
		if month < time.April {
			calendarYear++
		}
		monthStart := time.Date(calendarYear, month, 1, 0, 0, 0, 0, time.UTC)

		basis := baseline
		sourceID := ""
		for _, ev := range ordered {
			if ev.EffectiveDate.After(monthStart) {
				break
			}
			basis = ev.NewSalary
			sourceID = ev.ID.String()
		}

		projections = append(projections, MonthlyProjection{
			Index:         i,
			Month:         month,
			CalendarYear:  calendarYear,
			Amount:        basis.MonthlyBasis(tables),
			SourceEventID: sourceID,
		})
	}
	return projections
}

// ArrearsDelta computes the signed adjustment a retroactive event owes for
// months already elapsed: the difference between the new and previous monthly
// basis over the months from retroactive-from up to the effective date,
// clipped to the financial year. Non-retroactive events owe nothing.
func ArrearsDelta(year fiscal.Year, ev *SalaryChangeEvent, tables *rates.TaxYearTables) float64 {
	if !ev.Retroactive || ev.RetroactiveFrom == nil {
		return 0
	}

	from := *ev.RetroactiveFrom
	if from.Before(year.Start()) {
		from = year.Start()
	}
	until := ev.EffectiveDate
	if until.After(year.End()) {
		until = year.End()
	}
	if !from.Before(until) {
		return 0
	}

	months := year.MonthsElapsed(until) - year.MonthsElapsed(from)
	if months <= 0 {
		return 0
	}

	delta := ev.NewSalary.MonthlyBasis(tables) - ev.PreviousSalary.MonthlyBasis(tables)
	return delta * float64(months)
}

// EffectiveComponents returns the components governing the end of the year
// after applying every event in order, falling back to the baseline when no
// event has taken effect.
func EffectiveComponents(
	year fiscal.Year,
	baseline salary.SalaryComponents,
	events []*SalaryChangeEvent,
) salary.SalaryComponents {
	ordered := make([]*SalaryChangeEvent, len(events))
	copy(ordered, events)
	sortForApplication(ordered)

	components := baseline
	for _, ev := range ordered {
		if ev.EffectiveDate.After(year.End()) {
			continue
		}
		components = ev.NewSalary
	}
	return components
}
