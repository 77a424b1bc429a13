package regime_test

import (
	"context"
	"testing"

	"go-paytax/internal/rates"
	"go-paytax/internal/taxation/regime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tables(t *testing.T) *rates.TaxYearTables {
	t.Helper()
	tb, err := rates.NewStaticProvider().Tables(context.Background(), 2024)
	require.NoError(t, err)
	return tb
}

func TestOldRegimeCalculate(t *testing.T) {
	tb := tables(t)
	strategy, err := regime.ForTables(rates.RegimeOld, tb)
	require.NoError(t, err)

	t.Run("full slab walk with deductions", func(t *testing.T) {
		b, err := strategy.Calculate(regime.Snapshot{
			SalaryIncome:        1200000,
			DeductionsOldRegime: 150000,
		})
		require.NoError(t, err)

		// 1200000 - 150000 - 50000 = 1000000 slab income.
		// 250000*5% + 500000*20% = 112500, cess 4500.
		assert.Equal(t, 1000000.0, b.TaxableIncome)
		assert.Equal(t, 50000.0, b.StandardDeduction)
		assert.Equal(t, 112500.0, b.SlabTax)
		assert.Equal(t, 0.0, b.Rebate)
		assert.Equal(t, 4500.0, b.Cess)
		assert.Equal(t, 117000.0, b.TaxPayable)
	})

	t.Run("rebate wipes tax under the threshold", func(t *testing.T) {
		b, err := strategy.Calculate(regime.Snapshot{SalaryIncome: 540000})
		require.NoError(t, err)

		// 540000 - 50000 = 490000; 240000*5% = 12000, fully rebated.
		assert.Equal(t, 12000.0, b.SlabTax)
		assert.Equal(t, 12000.0, b.Rebate)
		assert.Equal(t, 0.0, b.TaxPayable)
	})

	t.Run("standard deduction needs salary income", func(t *testing.T) {
		b, err := strategy.Calculate(regime.Snapshot{OtherIncome: 400000})
		require.NoError(t, err)
		assert.Equal(t, 0.0, b.StandardDeduction)
	})

	t.Run("negative deduction total is rejected", func(t *testing.T) {
		_, err := strategy.Calculate(regime.Snapshot{
			SalaryIncome:        500000,
			DeductionsOldRegime: -1,
		})
		assert.Error(t, err)
	})
}

func TestNewRegimeCalculate(t *testing.T) {
	tb := tables(t)
	strategy, err := regime.ForTables(rates.RegimeNew, tb)
	require.NoError(t, err)

	t.Run("full slab walk", func(t *testing.T) {
		b, err := strategy.Calculate(regime.Snapshot{SalaryIncome: 1200000})
		require.NoError(t, err)

		// 1200000 - 75000 = 1125000 slab income.
		// 400000*5% + 300000*10% + 125000*15% = 68750, cess 2750.
		assert.Equal(t, 1125000.0, b.TaxableIncome)
		assert.Equal(t, 75000.0, b.StandardDeduction)
		assert.Equal(t, 68750.0, b.SlabTax)
		assert.Equal(t, 71500.0, b.TaxPayable)
	})

	t.Run("old-regime deductions are ignored", func(t *testing.T) {
		with, err := strategy.Calculate(regime.Snapshot{
			SalaryIncome:        1200000,
			DeductionsOldRegime: 150000,
		})
		require.NoError(t, err)
		without, err := strategy.Calculate(regime.Snapshot{SalaryIncome: 1200000})
		require.NoError(t, err)
		assert.Equal(t, without.TaxPayable, with.TaxPayable)
	})

	t.Run("rebate up to the higher threshold", func(t *testing.T) {
		b, err := strategy.Calculate(regime.Snapshot{SalaryIncome: 775000})
		require.NoError(t, err)

		// 775000 - 75000 = 700000; 400000*5% = 20000, fully rebated.
		assert.Equal(t, 20000.0, b.SlabTax)
		assert.Equal(t, 20000.0, b.Rebate)
		assert.Equal(t, 0.0, b.TaxPayable)
	})
}

func TestSpecialRateTax(t *testing.T) {
	tb := tables(t)
	strategy, err := regime.ForTables(rates.RegimeNew, tb)
	require.NoError(t, err)

	t.Run("equity gains outside the slabs", func(t *testing.T) {
		b, err := strategy.Calculate(regime.Snapshot{
			STCGEquity: 100000,
			LTCGEquity: 150000,
		})
		require.NoError(t, err)

		// 100000*15% + (150000-100000)*10% = 20000.
		assert.Equal(t, 20000.0, b.SpecialRateTax)
		assert.Equal(t, 0.0, b.SlabTax)
	})

	t.Run("rebate never offsets special-rate tax", func(t *testing.T) {
		b, err := strategy.Calculate(regime.Snapshot{STCGEquity: 100000})
		require.NoError(t, err)

		// Slab income is zero and under the rebate threshold, but the
		// rebate is limited to slab tax.
		assert.Equal(t, 0.0, b.Rebate)
		assert.Equal(t, 15000.0, b.SpecialRateTax)
		assert.Equal(t, 15600.0, b.TaxPayable)
	})

	t.Run("LTCG equity under the exemption is untaxed", func(t *testing.T) {
		b, err := strategy.Calculate(regime.Snapshot{LTCGEquity: 90000})
		require.NoError(t, err)
		assert.Equal(t, 0.0, b.SpecialRateTax)
	})

	t.Run("other long-term gains at the flat rate", func(t *testing.T) {
		b, err := strategy.Calculate(regime.Snapshot{LTCGOther: 200000})
		require.NoError(t, err)
		assert.Equal(t, 40000.0, b.SpecialRateTax)
	})
}

func TestSurcharge(t *testing.T) {
	tb := tables(t)
	strategy, err := regime.ForTables(rates.RegimeOld, tb)
	require.NoError(t, err)

	b, err := strategy.Calculate(regime.Snapshot{SalaryIncome: 6000000})
	require.NoError(t, err)

	assert.Greater(t, b.Surcharge, 0.0)
	assert.Equal(t, b.TaxAfterRebate*0.10, b.Surcharge)
}

func TestCompare(t *testing.T) {
	tb := tables(t)

	t.Run("matches the individual strategies regardless of order", func(t *testing.T) {
		snap := regime.Snapshot{
			SalaryIncome:        1500000,
			DeductionsOldRegime: 200000,
			OtherIncome:         50000,
		}

		cmp, err := regime.Compare(snap, tb)
		require.NoError(t, err)

		oldStrategy, err := regime.ForTables(rates.RegimeOld, tb)
		require.NoError(t, err)
		newStrategy, err := regime.ForTables(rates.RegimeNew, tb)
		require.NoError(t, err)

		// Run them in the opposite order; the breakups must be identical.
		newDirect, err := newStrategy.Calculate(snap)
		require.NoError(t, err)
		oldDirect, err := oldStrategy.Calculate(snap)
		require.NoError(t, err)

		assert.Equal(t, oldDirect, cmp.Old)
		assert.Equal(t, newDirect, cmp.New)
	})

	t.Run("heavy deductions favour the old regime", func(t *testing.T) {
		cmp, err := regime.Compare(regime.Snapshot{
			SalaryIncome:        1200000,
			DeductionsOldRegime: 450000,
		}, tb)
		require.NoError(t, err)

		assert.Equal(t, rates.RegimeOld, cmp.Recommended)
		assert.Equal(t, cmp.New.TaxPayable-cmp.Old.TaxPayable, cmp.Saving)
	})

	t.Run("no deductions favour the new regime", func(t *testing.T) {
		cmp, err := regime.Compare(regime.Snapshot{SalaryIncome: 1200000}, tb)
		require.NoError(t, err)
		assert.Equal(t, rates.RegimeNew, cmp.Recommended)
	})

	t.Run("a tie recommends the new regime", func(t *testing.T) {
		cmp, err := regime.Compare(regime.Snapshot{}, tb)
		require.NoError(t, err)
		assert.Equal(t, rates.RegimeNew, cmp.Recommended)
		assert.Equal(t, 0.0, cmp.Saving)
	})
}
