package regime

import "go-paytax/internal/rates"

// oldRegime applies the classic slab table with the full chapter VI-A
// deduction set and exemptions.
type oldRegime struct {
	table  rates.RegimeTable
	tables *rates.TaxYearTables
}

func (s *oldRegime) Regime() rates.Regime {
	return rates.RegimeOld
}

func (s *oldRegime) Calculate(snap Snapshot) (Breakup, error) {
	return compute(rates.RegimeOld, s.table, s.tables, snap, snap.DeductionsOldRegime)
}
