package revision

import (
	"context"
	"testing"
	"time"

	"go-paytax/internal/rates"
	"go-paytax/internal/salary"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statTables(t *testing.T) *rates.TaxYearTables {
	t.Helper()
	tb, err := rates.NewStaticProvider().Tables(context.Background(), 2024)
	require.NoError(t, err)
	return tb
}

func componentsWithBasic(basic float64) salary.SalaryComponents {
	c := salary.NewSalaryComponents()
	c.Basic = basic
	return c
}

func changeEvent(
	employeeID uuid.UUID,
	effective time.Time,
	prev, next float64,
	createdAt time.Time,
) *SalaryChangeEvent {
	ev := NewSalaryChangeEvent(
		employeeID,
		2024,
		ChangeHike,
		effective,
		componentsWithBasic(prev),
		componentsWithBasic(next),
		PriorityMedium,
	)
	ev.ApprovalState = ApprovalApproved
	ev.CreatedAt = createdAt
	return ev
}

func TestNewSalaryChangeEvent(t *testing.T) {
	empID := uuid.New()
	effective := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	t.Run("defaults to medium priority", func(t *testing.T) {
		ev := NewSalaryChangeEvent(empID, 2024, ChangeHike, effective,
			componentsWithBasic(500000), componentsWithBasic(600000), "")
		assert.Equal(t, PriorityMedium, ev.Priority)
		assert.Equal(t, ApprovalPending, ev.ApprovalState)
		assert.Equal(t, QueueQueued, ev.QueueStatus)
	})

	t.Run("corrections are floored at high priority", func(t *testing.T) {
		ev := NewSalaryChangeEvent(empID, 2024, ChangeCorrection, effective,
			componentsWithBasic(500000), componentsWithBasic(600000), PriorityLow)
		assert.Equal(t, PriorityHigh, ev.Priority)
	})

	t.Run("critical priority survives the floor", func(t *testing.T) {
		ev := NewSalaryChangeEvent(empID, 2024, ChangeArrears, effective,
			componentsWithBasic(500000), componentsWithBasic(600000), PriorityCritical)
		assert.Equal(t, PriorityCritical, ev.Priority)
	})

	t.Run("marking retroactive raises the floor", func(t *testing.T) {
		ev := NewSalaryChangeEvent(empID, 2024, ChangeHike, effective,
			componentsWithBasic(500000), componentsWithBasic(600000), PriorityLow)
		assert.Equal(t, PriorityLow, ev.Priority)

		ev.MarkRetroactive(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, PriorityHigh, ev.Priority)
		assert.True(t, ev.Retroactive)
	})
}

func TestBuildProjection(t *testing.T) {
	tb := statTables(t)
	empID := uuid.New()
	baseline := componentsWithBasic(600000)

	t.Run("baseline alone fills all twelve months", func(t *testing.T) {
		p := BuildProjection(2024, baseline, nil, tb)
		require.Len(t, p, 12)
		assert.Equal(t, time.April, p[0].Month)
		assert.Equal(t, 2024, p[0].CalendarYear)
		assert.Equal(t, time.March, p[11].Month)
		assert.Equal(t, 2025, p[11].CalendarYear)
		for _, m := range p {
			assert.Equal(t, 50000.0, m.Amount)
			assert.Empty(t, m.SourceEventID)
		}
		assert.Equal(t, 600000.0, p.Total())
	})

	t.Run("an event governs from its effective month onward", func(t *testing.T) {
		ev := changeEvent(empID,
			time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000,
			time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC))

		p := BuildProjection(2024, baseline, []*SalaryChangeEvent{ev}, tb)
		require.Len(t, p, 12)

		// April..September at the baseline, October..March at the new basis.
		for i := 0; i < 6; i++ {
			assert.Equal(t, 50000.0, p[i].Amount)
		}
		for i := 6; i < 12; i++ {
			assert.Equal(t, 60000.0, p[i].Amount)
			assert.Equal(t, ev.ID.String(), p[i].SourceEventID)
		}
	})

	t.Run("a later event supersedes an earlier one", func(t *testing.T) {
		first := changeEvent(empID,
			time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			600000, 660000,
			time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
		second := changeEvent(empID,
			time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
			660000, 840000,
			time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC))

		p := BuildProjection(2024, baseline, []*SalaryChangeEvent{first, second}, tb)
		assert.Equal(t, 50000.0, p[0].Amount)
		assert.Equal(t, 55000.0, p[2].Amount)
		assert.Equal(t, 70000.0, p[8].Amount)
		assert.Equal(t, 70000.0, p[11].Amount)
	})

	// Delivery order must not matter: the projection rebuilds from the
	// totally ordered event set, so D3,D1,D2 converges to D1,D2,D3.
	t.Run("projection is independent of delivery order", func(t *testing.T) {
		d1 := changeEvent(empID,
			time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
			600000, 630000,
			time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC))
		d2 := changeEvent(empID,
			time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC),
			630000, 690000,
			time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC))
		d3 := changeEvent(empID,
			time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			690000, 750000,
			time.Date(2024, time.December, 10, 0, 0, 0, 0, time.UTC))

		inOrder := BuildProjection(2024, baseline, []*SalaryChangeEvent{d1, d2, d3}, tb)
		shuffled := BuildProjection(2024, baseline, []*SalaryChangeEvent{d3, d1, d2}, tb)

		assert.Equal(t, inOrder, shuffled)
	})

	t.Run("ties on effective date break by priority then submission", func(t *testing.T) {
		effective := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
		low := changeEvent(empID, effective, 600000, 640000,
			time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
		low.Priority = PriorityLow
		critical := changeEvent(empID, effective, 600000, 700000,
			time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC))
		critical.Priority = PriorityCritical

		// The critical event applies first, so the low one governs July on.
		p := BuildProjection(2024, baseline, []*SalaryChangeEvent{low, critical}, tb)
		assert.Equal(t, low.ID.String(), p[3].SourceEventID)
	})
}

func TestArrearsDelta(t *testing.T) {
	tb := statTables(t)
	empID := uuid.New()

	t.Run("non-retroactive events owe nothing", func(t *testing.T) {
		ev := changeEvent(empID,
			time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		assert.Equal(t, 0.0, ArrearsDelta(2024, ev, tb))
	})

	t.Run("positive delta for a retroactive hike", func(t *testing.T) {
		ev := changeEvent(empID,
			time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		ev.MarkRetroactive(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

		// June..September at +10000 a month.
		assert.InDelta(t, 40000.0, ArrearsDelta(2024, ev, tb), 0.01)
	})

	t.Run("negative delta for a downward correction", func(t *testing.T) {
		ev := changeEvent(empID,
			time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
			720000, 600000, time.Now())
		ev.MarkRetroactive(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

		assert.InDelta(t, -40000.0, ArrearsDelta(2024, ev, tb), 0.01)
	})

	t.Run("retroactive window clips to the year start", func(t *testing.T) {
		ev := changeEvent(empID,
			time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		ev.MarkRetroactive(time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC))

		// Clipped to April and May of the current year.
		assert.InDelta(t, 20000.0, ArrearsDelta(2024, ev, tb), 0.01)
	})

	t.Run("retroactive-from after the effective date owes nothing", func(t *testing.T) {
		ev := changeEvent(empID,
			time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			600000, 720000, time.Now())
		ev.MarkRetroactive(time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC))

		assert.Equal(t, 0.0, ArrearsDelta(2024, ev, tb))
	})
}

func TestEffectiveComponents(t *testing.T) {
	empID := uuid.New()
	baseline := componentsWithBasic(600000)

	t.Run("baseline when nothing has taken effect", func(t *testing.T) {
		c := EffectiveComponents(2024, baseline, nil)
		assert.Equal(t, 600000.0, c.Basic)
	})

	t.Run("the last event inside the year wins", func(t *testing.T) {
		first := changeEvent(empID,
			time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			600000, 660000, time.Now())
		second := changeEvent(empID,
			time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
			660000, 840000, time.Now())
		outside := changeEvent(empID,
			time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			840000, 900000, time.Now())

		c := EffectiveComponents(2024, baseline, []*SalaryChangeEvent{outside, second, first})
		assert.Equal(t, 840000.0, c.Basic)
	})
}

func TestEventLifecycleHelpers(t *testing.T) {
	empID := uuid.New()
	ev := NewSalaryChangeEvent(empID, 2024, ChangeHike,
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		componentsWithBasic(500000), componentsWithBasic(600000), PriorityMedium)

	assert.True(t, ev.Cancellable())
	assert.False(t, ev.Terminal())

	ev.ApprovalState = ApprovalApproved
	assert.False(t, ev.Cancellable())

	ev.QueueStatus = QueueDeadLetter
	assert.True(t, ev.Terminal())

	ev.QueueStatus = QueueApplied
	assert.True(t, ev.Terminal())

	ev.ApprovalState = ApprovalCancelled
	assert.True(t, ev.Terminal())
}
