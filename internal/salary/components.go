package salary

import (
	"fmt"

	"go-paytax/internal/rates"
	"go-paytax/internal/taxation/valuation"
)

// ComponentsSchemaVersion versions the persisted SalaryComponents payload.
const ComponentsSchemaVersion = 2

// Allowance is a named allowance, either fully taxable or exempt up to a
// statutory cap.
type Allowance struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	ExemptCap float64 `json:"exempt_cap"`
}

// SalaryComponents is the per-employee, per-tax-year salary structure. All
// amounts are annual rupees unless named otherwise. Construct through
// NewSalaryComponents so every field starts at zero.
type SalaryComponents struct {
	SchemaVersion int `json:"schema_version"`

	Basic             float64 `json:"basic"`
	DearnessAllowance float64 `json:"dearness_allowance"`

	HRAReceived  float64            `json:"hra_received"`
	CityCategory rates.CityCategory `json:"city_category"`
	// MonthlyRentPaid is the rent the employee actually pays per month.
	MonthlyRentPaid float64 `json:"monthly_rent_paid"`

	Allowances []Allowance `json:"allowances,omitempty"`

	Bonus      float64 `json:"bonus"`
	Commission float64 `json:"commission"`

	Perquisites valuation.Perquisites `json:"perquisites"`
}

// NewSalaryComponents is the single factory for a zero-valued structure.
func NewSalaryComponents() SalaryComponents {
	return SalaryComponents{
		SchemaVersion: ComponentsSchemaVersion,
		CityCategory:  rates.CityNonMetro,
		Perquisites:   valuation.NewPerquisites(),
	}
}

// Migrate backfills payloads persisted under an older schema version.
func (s *SalaryComponents) Migrate() {
	if s.SchemaVersion < ComponentsSchemaVersion {
		if s.CityCategory == "" {
			s.CityCategory = rates.CityNonMetro
		}
		s.SchemaVersion = ComponentsSchemaVersion
	}
	s.Perquisites.Migrate()
}

// Validate rejects structurally invalid input before any computation.
func (s SalaryComponents) Validate() error {
	fields := map[string]float64{
		"basic":              s.Basic,
		"dearness_allowance": s.DearnessAllowance,
		"hra_received":       s.HRAReceived,
		"monthly_rent_paid":  s.MonthlyRentPaid,
		"bonus":              s.Bonus,
		"commission":         s.Commission,
	}
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	for _, a := range s.Allowances {
		if a.Amount < 0 {
			return fmt.Errorf("allowance %q amount must not be negative", a.Name)
		}
		if a.ExemptCap < 0 {
			return fmt.Errorf("allowance %q exempt_cap must not be negative", a.Name)
		}
	}
	return s.Perquisites.Validate()
}

// HRAExemption computes the exempt portion of HRA: the minimum of the HRA
// received, rent paid less 10% of basic, and the statutory city percentage
// of basic. Never negative, never more than the HRA received.
func (s SalaryComponents) HRAExemption(tables *rates.TaxYearTables) float64 {
	if s.HRAReceived <= 0 {
		return 0
	}

	annualRent := s.MonthlyRentPaid * 12
	rentOverBasic := annualRent - 0.10*s.Basic
	if rentOverBasic < 0 {
		rentOverBasic = 0
	}

	pct, ok := tables.HRAPercent[s.CityCategory]
	if !ok {
		pct = tables.HRAPercent[rates.CityNonMetro]
	}
	cityCap := pct * s.Basic

	exempt := s.HRAReceived
	if rentOverBasic < exempt {
		exempt = rentOverBasic
	}
	if cityCap < exempt {
		exempt = cityCap
	}
	return exempt
}

// AllowanceTaxable sums the taxable portion of the named allowances.
func (s SalaryComponents) AllowanceTaxable() float64 {
	var total float64
	for _, a := range s.Allowances {
		taxable := a.Amount - a.ExemptCap
		if taxable < 0 {
			taxable = 0
		}
		total += taxable
	}
	return total
}

// CashSalary is the annual salary before perquisites: basic, DA, taxable HRA,
// taxable allowances, bonus and commission.
func (s SalaryComponents) CashSalary(tables *rates.TaxYearTables) float64 {
	taxableHRA := s.HRAReceived - s.HRAExemption(tables)
	return s.Basic + s.DearnessAllowance + taxableHRA + s.AllowanceTaxable() + s.Bonus + s.Commission
}

// MonthlyBasis is one twelfth of the cash salary, used for month-by-month
// projections.
func (s SalaryComponents) MonthlyBasis(tables *rates.TaxYearTables) float64 {
	return s.CashSalary(tables) / 12
}
