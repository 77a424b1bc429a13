package regime

import "go-paytax/internal/rates"

// newRegime applies the concessional slab table: perquisites stay taxable,
// nearly all deductions are disallowed, and the standard deduction is larger.
type newRegime struct {
	table  rates.RegimeTable
	tables *rates.TaxYearTables
}

func (s *newRegime) Regime() rates.Regime {
	return rates.RegimeNew
}

func (s *newRegime) Calculate(snap Snapshot) (Breakup, error) {
	return compute(rates.RegimeNew, s.table, s.tables, snap, snap.DeductionsNewRegime)
}
