package regime

import (
	"fmt"
	"math"

	"go-paytax/internal/rates"
)

// Snapshot is the normalized income and deduction picture the strategies
// consume. It is regime-neutral: each strategy applies its own standard
// deduction and picks the deduction total it allows.
type Snapshot struct {
	// SalaryIncome is cash salary after allowance/HRA exemptions.
	SalaryIncome float64 `json:"salary_income"`
	// PerquisiteValue is the summed taxable value of all perquisites.
	PerquisiteValue float64 `json:"perquisite_value"`
	OtherIncome     float64 `json:"other_income"`
	// HousePropertyIncome may be negative after interest set-off (already
	// capped by the engine).
	HousePropertyIncome    float64 `json:"house_property_income"`
	LeaveEncashmentTaxable float64 `json:"leave_encashment_taxable"`

	// Capital gains taxed at special rates, outside the slabs.
	STCGEquity float64 `json:"stcg_equity"`
	LTCGEquity float64 `json:"ltcg_equity"`
	LTCGOther  float64 `json:"ltcg_other"`
	// STCGNormal joins slab income.
	STCGNormal float64 `json:"stcg_normal"`

	// DeductionsOldRegime is the full chapter VI-A total; DeductionsNewRegime
	// is the small surviving subset (employer pension contribution).
	DeductionsOldRegime float64 `json:"deductions_old_regime"`
	DeductionsNewRegime float64 `json:"deductions_new_regime"`

	Age int `json:"age"`
}

// SlabLine is one row of the per-slab tax breakdown.
type SlabLine struct {
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Rate   float64 `json:"rate"`
	Income float64 `json:"income"`
	Tax    float64 `json:"tax"`
}

// Breakup is the full result of one regime computation.
type Breakup struct {
	Regime            rates.Regime `json:"regime"`
	GrossTotalIncome  float64      `json:"gross_total_income"`
	TotalDeductions   float64      `json:"total_deductions"`
	StandardDeduction float64      `json:"standard_deduction"`
	TaxableIncome     float64      `json:"taxable_income"`
	Slabs             []SlabLine   `json:"slabs"`
	SlabTax           float64      `json:"slab_tax"`
	SpecialRateTax    float64      `json:"special_rate_tax"`
	TaxBeforeRebate   float64      `json:"tax_before_rebate"`
	Rebate            float64      `json:"rebate"`
	TaxAfterRebate    float64      `json:"tax_after_rebate"`
	Surcharge         float64      `json:"surcharge"`
	Cess              float64      `json:"cess"`
	TaxPayable        float64      `json:"tax_payable"`
}

//go:generate mockgen -source=regime.go -destination=mock/regime_mock.go -package=mock
type Strategy interface {
	Regime() rates.Regime
	Calculate(snap Snapshot) (Breakup, error)
}

// ForTables returns the strategy for one regime backed by the given year's
// tables.
func ForTables(r rates.Regime, tables *rates.TaxYearTables) (Strategy, error) {
	rt, ok := tables.Regime(r)
	if !ok {
		return nil, fmt.Errorf("no table for regime %q in %s", r, tables.Year)
	}
	switch r {
	case rates.RegimeOld:
		return &oldRegime{table: rt, tables: tables}, nil
	case rates.RegimeNew:
		return &newRegime{table: rt, tables: tables}, nil
	default:
		return nil, fmt.Errorf("unknown regime %q", r)
	}
}

// applySlabs runs taxable income through a progressive slab table and returns
// the per-slab lines. Upper of 0 means unbounded.
func applySlabs(taxable float64, slabs []rates.Slab) ([]SlabLine, float64) {
	lines := make([]SlabLine, 0, len(slabs))
	var total float64

	for _, s := range slabs {
		if taxable <= s.Lower {
			break
		}
		upper := s.Upper
		income := taxable - s.Lower
		if upper > 0 && taxable > upper {
			income = upper - s.Lower
		}
		tax := income * s.Rate
		lines = append(lines, SlabLine{
			Lower:  s.Lower,
			Upper:  upper,
			Rate:   s.Rate,
			Income: income,
			Tax:    tax,
		})
		total += tax
	}

	return lines, total
}

// surchargeFor picks the highest band the taxable income crosses.
func surchargeFor(taxable, tax float64, bands []rates.SurchargeBand) float64 {
	var rate float64
	for _, b := range bands {
		if taxable > b.Above && b.Rate > rate {
			rate = b.Rate
		}
	}
	return tax * rate
}

func roundRupee(v float64) float64 {
	return math.Round(v)
}
