package regime

import "go-paytax/internal/rates"

// Comparison reports both regimes side by side. The engine never selects a
// regime on the caller's behalf; it only flags the cheaper one.
type Comparison struct {
	Old         Breakup      `json:"old"`
	New         Breakup      `json:"new"`
	Recommended rates.Regime `json:"recommended"`
	Saving      float64      `json:"saving"`
}

// Compare runs both strategies over the same snapshot. The computation has no
// side effects, so the order the regimes run in cannot change either breakup.
func Compare(snap Snapshot, tables *rates.TaxYearTables) (Comparison, error) {
	oldStrategy, err := ForTables(rates.RegimeOld, tables)
	if err != nil {
		return Comparison{}, err
	}
	newStrategy, err := ForTables(rates.RegimeNew, tables)
	if err != nil {
		return Comparison{}, err
	}

	oldBreakup, err := oldStrategy.Calculate(snap)
	if err != nil {
		return Comparison{}, err
	}
	newBreakup, err := newStrategy.Calculate(snap)
	if err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{Old: oldBreakup, New: newBreakup}
	if newBreakup.TaxPayable <= oldBreakup.TaxPayable {
		cmp.Recommended = rates.RegimeNew
		cmp.Saving = oldBreakup.TaxPayable - newBreakup.TaxPayable
	} else {
		cmp.Recommended = rates.RegimeOld
		cmp.Saving = newBreakup.TaxPayable - oldBreakup.TaxPayable
	}

	return cmp, nil
}
