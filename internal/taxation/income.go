package taxation

import (
	"fmt"

	"go-paytax/internal/rates"
)

// OtherSources covers income outside salary: interest, dividends, and a
// catch-all. Every field defaults to zero.
type OtherSources struct {
	SavingsInterest float64 `json:"savings_interest"`
	DepositInterest float64 `json:"deposit_interest"`
	Dividends       float64 `json:"dividends"`
	Other           float64 `json:"other"`
}

func (o OtherSources) Total() float64 {
	return o.SavingsInterest + o.DepositInterest + o.Dividends + o.Other
}

func (o OtherSources) Validate() error {
	return nonNegative(map[string]float64{
		"savings_interest": o.SavingsInterest,
		"deposit_interest": o.DepositInterest,
		"dividends":        o.Dividends,
		"other":            o.Other,
	})
}

// CapitalGains splits gains by term and asset class; the classes carry
// different statutory rates.
type CapitalGains struct {
	// Short-term gains on listed equity (securities transaction tax paid).
	STCGEquity float64 `json:"stcg_equity"`
	// Short-term gains taxed at slab rates.
	STCGNormal float64 `json:"stcg_normal"`
	// Long-term gains on listed equity, exempt up to the statutory floor.
	LTCGEquity float64 `json:"ltcg_equity"`
	// Long-term gains on other assets.
	LTCGOther float64 `json:"ltcg_other"`
}

func (c CapitalGains) Validate() error {
	return nonNegative(map[string]float64{
		"stcg_equity": c.STCGEquity,
		"stcg_normal": c.STCGNormal,
		"ltcg_equity": c.LTCGEquity,
		"ltcg_other":  c.LTCGOther,
	})
}

// HouseProperty is rental income with the standard 30% deduction and
// interest-on-loan set-off, capped at the statutory limit.
type HouseProperty struct {
	AnnualRent     float64 `json:"annual_rent"`
	MunicipalTaxes float64 `json:"municipal_taxes"`
	LoanInterest   float64 `json:"loan_interest"`
}

func (h HouseProperty) Validate() error {
	return nonNegative(map[string]float64{
		"annual_rent":     h.AnnualRent,
		"municipal_taxes": h.MunicipalTaxes,
		"loan_interest":   h.LoanInterest,
	})
}

// NetIncome applies the standard deduction and the interest set-off. A loss
// beyond the statutory cap is not carried into the current-year snapshot.
func (h HouseProperty) NetIncome(tables *rates.TaxYearTables) float64 {
	annualValue := h.AnnualRent - h.MunicipalTaxes
	if annualValue < 0 {
		annualValue = 0
	}
	net := annualValue*(1-tables.HousePropertyStdDeduction) - h.LoanInterest
	if net < -tables.HousePropertyInterestCap {
		net = -tables.HousePropertyInterestCap
	}
	return net
}

// LeaveEncashment is taxable above the statutory exemption cap; the cap
// applies only on retirement.
type LeaveEncashment struct {
	Received     float64 `json:"received"`
	OnRetirement bool    `json:"on_retirement"`
}

func (l LeaveEncashment) Validate() error {
	return nonNegative(map[string]float64{"received": l.Received})
}

func (l LeaveEncashment) Taxable(tables *rates.TaxYearTables) float64 {
	if !l.OnRetirement {
		return l.Received
	}
	taxable := l.Received - tables.LeaveEncashmentCap
	if taxable < 0 {
		return 0
	}
	return taxable
}

func nonNegative(fields map[string]float64) error {
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
