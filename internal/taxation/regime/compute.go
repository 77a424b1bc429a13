package regime

import (
	"fmt"

	"go-paytax/internal/rates"
)

// compute is the shared spine of both strategies; only the slab table,
// standard deduction and allowed-deduction total differ between regimes.
func compute(
	r rates.Regime,
	table rates.RegimeTable,
	tables *rates.TaxYearTables,
	snap Snapshot,
	allowedDeductions float64,
) (Breakup, error) {
	if allowedDeductions < 0 {
		return Breakup{}, fmt.Errorf("deduction total must not be negative, got %0.2f", allowedDeductions)
	}

	specialGains := snap.STCGEquity + snap.LTCGEquity + snap.LTCGOther

	gross := snap.SalaryIncome + snap.PerquisiteValue + snap.OtherIncome +
		snap.HousePropertyIncome + snap.LeaveEncashmentTaxable +
		snap.STCGNormal + specialGains

	stdDeduction := table.StandardDeduction
	if snap.SalaryIncome+snap.PerquisiteValue <= 0 {
		stdDeduction = 0
	}

	slabIncome := gross - specialGains - allowedDeductions - stdDeduction
	if slabIncome < 0 {
		slabIncome = 0
	}

	slabs, slabTax := applySlabs(slabIncome, table.Slabs)

	var specialTax float64
	specialTax += snap.STCGEquity * tables.STCGEquityRate
	ltcgEquityTaxable := snap.LTCGEquity - tables.LTCGEquityExemption
	if ltcgEquityTaxable > 0 {
		specialTax += ltcgEquityTaxable * tables.LTCGEquityRate
	}
	specialTax += snap.LTCGOther * tables.LTCGOtherRate

	taxBeforeRebate := slabTax + specialTax

	// The low-income rebate applies to slab tax only, and only while slab
	// income stays under the threshold.
	var rebate float64
	if slabIncome <= table.RebateThreshold {
		rebate = slabTax
		if rebate > table.RebateCap {
			rebate = table.RebateCap
		}
	}

	taxAfterRebate := taxBeforeRebate - rebate
	if taxAfterRebate < 0 {
		taxAfterRebate = 0
	}

	surcharge := surchargeFor(slabIncome+specialGains, taxAfterRebate, table.SurchargeBands)
	cess := (taxAfterRebate + surcharge) * table.CessRate

	return Breakup{
		Regime:            r,
		GrossTotalIncome:  roundRupee(gross),
		TotalDeductions:   roundRupee(allowedDeductions),
		StandardDeduction: stdDeduction,
		TaxableIncome:     roundRupee(slabIncome + specialGains),
		Slabs:             slabs,
		SlabTax:           roundRupee(slabTax),
		SpecialRateTax:    roundRupee(specialTax),
		TaxBeforeRebate:   roundRupee(taxBeforeRebate),
		Rebate:            roundRupee(rebate),
		TaxAfterRebate:    roundRupee(taxAfterRebate),
		Surcharge:         roundRupee(surcharge),
		Cess:              roundRupee(cess),
		TaxPayable:        roundRupee(taxAfterRebate + surcharge + cess),
	}, nil
}
