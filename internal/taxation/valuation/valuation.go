package valuation

import (
	"fmt"
	"time"

	"go-paytax/internal/rates"
)

// Context carries the statutory tables and the employee facts a valuation
// needs. Valuation functions are pure: same context and sub-record in, same
// result out.
type Context struct {
	Tables *rates.TaxYearTables
	// AnnualSalary is the salary basis for percentage-of-salary rules
	// (basic + DA + taxable allowances, before perquisites).
	AnnualSalary float64
	AsOf         time.Time
}

// Result is the outcome of valuing one perquisite category.
type Result struct {
	TaxableValue float64  `json:"taxable_value"`
	Exemption    float64  `json:"exemption"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Breakdown maps perquisite category names to their valuation results.
type Breakdown map[string]Result

// Total sums the taxable values across all categories.
func (b Breakdown) Total() float64 {
	var total float64
	for _, r := range b {
		total += r.TaxableValue
	}
	return total
}

// Warnings flattens category warnings with a category prefix.
func (b Breakdown) Warnings() []string {
	var all []string
	for name, r := range b {
		for _, w := range r.Warnings {
			all = append(all, name+": "+w)
		}
	}
	return all
}

// ValueAll values every present perquisite category. Absent categories
// contribute nothing and do not appear in the breakdown.
func ValueAll(p Perquisites, ctx Context) Breakdown {
	out := Breakdown{}

	if p.Accommodation != nil {
		out["accommodation"] = ValueAccommodation(*p.Accommodation, ctx)
	}
	if p.Car != nil {
		out["car"] = ValueCar(*p.Car, ctx)
	}
	if p.OtherVehicle != nil {
		out["other_vehicle"] = ValueOtherVehicle(*p.OtherVehicle, ctx)
	}
	if p.Medical != nil {
		out["medical"] = ValueMedical(*p.Medical, ctx)
	}
	if p.LTA != nil {
		out["lta"] = ValueLTA(*p.LTA, ctx)
	}
	if p.FreeEducation != nil {
		out["free_education"] = ValueFreeEducation(*p.FreeEducation, ctx)
	}
	if p.Gas != nil {
		out["gas"] = ValueUtility(*p.Gas, ctx)
	}
	if p.Electricity != nil {
		out["electricity"] = ValueUtility(*p.Electricity, ctx)
	}
	if p.Water != nil {
		out["water"] = ValueUtility(*p.Water, ctx)
	}
	if p.DomesticHelp != nil {
		out["domestic_help"] = ValueRecoveredBenefit(*p.DomesticHelp)
	}
	if p.Lunch != nil {
		out["lunch"] = ValueRecoveredBenefit(*p.Lunch)
	}
	if p.MonetaryBenefit != nil {
		out["monetary_benefit"] = ValueRecoveredBenefit(*p.MonetaryBenefit)
	}
	if p.GiftVoucher != nil {
		out["gift_voucher"] = ValueRecoveredBenefit(*p.GiftVoucher)
	}
	if p.ClubExpense != nil {
		out["club_expense"] = ValueRecoveredBenefit(*p.ClubExpense)
	}
	if p.Loan != nil {
		out["loan"] = ValueLoan(*p.Loan, ctx)
	}
	if p.ESOP != nil {
		out["esop"] = ValueESOP(*p.ESOP, ctx)
	}
	if p.MovableUsage != nil {
		out["movable_usage"] = ValueMovableUsage(*p.MovableUsage, ctx)
	}
	if p.MovableTransfer != nil {
		out["movable_transfer"] = ValueMovableTransfer(*p.MovableTransfer, ctx)
	}

	return out
}

// ValueCategory values a single named category, for component-only
// recomputation. Unknown or absent categories return an error.
func ValueCategory(p Perquisites, name string, ctx Context) (Result, error) {
	all := ValueAll(p, ctx)
	r, ok := all[name]
	if !ok {
		return Result{}, fmt.Errorf("perquisite category %q is absent or unknown", name)
	}
	return r, nil
}

// amount treats negative raw inputs as zero and records a data-quality
// warning, per the zero-floor rule. It never propagates negative income.
func amount(v float64, field string, warnings *[]string) float64 {
	if v < 0 {
		*warnings = append(*warnings, fmt.Sprintf("%s was negative (%0.2f), treated as zero", field, v))
		return 0
	}
	return v
}

// months clamps a month count into [0,12].
func months(n int, field string, warnings *[]string) int {
	if n < 0 {
		*warnings = append(*warnings, fmt.Sprintf("%s was negative (%d), treated as zero", field, n))
		return 0
	}
	if n > 12 {
		*warnings = append(*warnings, fmt.Sprintf("%s exceeded 12 (%d), capped", field, n))
		return 12
	}
	return n
}

// clampResult floors a computed taxable value at zero, warning when the raw
// computation went negative.
func clampResult(v float64, category string, warnings []string) Result {
	if v < 0 {
		warnings = append(warnings, fmt.Sprintf("computed %s value was negative (%0.2f), clamped to zero", category, v))
		v = 0
	}
	return Result{TaxableValue: v, Warnings: warnings}
}
