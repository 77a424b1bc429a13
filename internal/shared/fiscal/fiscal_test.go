package fiscal_test

import (
	"testing"
	"time"

	"go-paytax/internal/shared/fiscal"

	"github.com/stretchr/testify/assert"
)

func TestYearFor(t *testing.T) {
	t.Run("April starts the new financial year", func(t *testing.T) {
		d := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, fiscal.Year(2025), fiscal.YearFor(d))
	})

	t.Run("March still belongs to the previous financial year", func(t *testing.T) {
		d := time.Date(2025, time.March, 31, 23, 59, 0, 0, time.UTC)
		assert.Equal(t, fiscal.Year(2024), fiscal.YearFor(d))
	})

	t.Run("December belongs to the current financial year", func(t *testing.T) {
		d := time.Date(2025, time.December, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, fiscal.Year(2025), fiscal.YearFor(d))
	})
}

func TestParse(t *testing.T) {
	t.Run("accepts both forms", func(t *testing.T) {
		y, err := fiscal.Parse("2025-26")
		assert.NoError(t, err)
		assert.Equal(t, fiscal.Year(2025), y)

		y, err = fiscal.Parse("2025")
		assert.NoError(t, err)
		assert.Equal(t, fiscal.Year(2025), y)
	})

	t.Run("rejects a mismatched suffix", func(t *testing.T) {
		_, err := fiscal.Parse("2025-27")
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := fiscal.Parse("not-a-year")
		assert.Error(t, err)
	})
}

func TestString(t *testing.T) {
	assert.Equal(t, "2025-26", fiscal.Year(2025).String())
	assert.Equal(t, "2099-00", fiscal.Year(2099).String())
}

func TestMonthIndex(t *testing.T) {
	assert.Equal(t, 0, fiscal.MonthIndex(time.April))
	assert.Equal(t, 8, fiscal.MonthIndex(time.December))
	assert.Equal(t, 9, fiscal.MonthIndex(time.January))
	assert.Equal(t, 11, fiscal.MonthIndex(time.March))

	for i := 0; i < 12; i++ {
		assert.Equal(t, i, fiscal.MonthIndex(fiscal.MonthAt(i)))
	}
}

func TestMonthsElapsed(t *testing.T) {
	year := fiscal.Year(2024)

	assert.Equal(t, 0, year.MonthsElapsed(year.Start()))
	assert.Equal(t, 12, year.MonthsElapsed(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, year.MonthsElapsed(time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)))

	// Mid-year: October means April..September have elapsed.
	oct := time.Date(2024, time.October, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 6, year.MonthsElapsed(oct))
	assert.Equal(t, 6, year.MonthsRemaining(oct))
}

func TestContains(t *testing.T) {
	year := fiscal.Year(2024)
	assert.True(t, year.Contains(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, year.Contains(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.False(t, year.Contains(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))
}
