package taxation

import (
	"fmt"

	"go-paytax/internal/rates"
)

// Relation identifies the claimant's relationship to a deduction beneficiary
// for the sections whose eligibility depends on it.
type Relation string

const (
	RelationSelf    Relation = "self"
	RelationSpouse  Relation = "spouse"
	RelationChild   Relation = "child"
	RelationParent  Relation = "parent"
	RelationSibling Relation = "sibling"
)

// Section80C groups the sub-limited investments; the aggregate is capped.
type Section80C struct {
	LifeInsurance    float64 `json:"life_insurance"`
	ProvidentFund    float64 `json:"provident_fund"`
	PublicPF         float64 `json:"public_pf"`
	ELSS             float64 `json:"elss"`
	TuitionFees      float64 `json:"tuition_fees"`
	HousingPrincipal float64 `json:"housing_principal"`
	NSC              float64 `json:"nsc"`
	Other            float64 `json:"other"`
}

func (s Section80C) Total() float64 {
	return s.LifeInsurance + s.ProvidentFund + s.PublicPF + s.ELSS +
		s.TuitionFees + s.HousingPrincipal + s.NSC + s.Other
}

// Section80D is health insurance, with higher caps for senior citizens.
type Section80D struct {
	SelfPremium    float64 `json:"self_premium"`
	ParentsPremium float64 `json:"parents_premium"`
	SelfAge        int     `json:"self_age"`
	ParentsAge     int     `json:"parents_age"`
}

// DependentClaim covers 80DD and 80DDB style claims where the rule depends on
// the relation and on disability or age.
type DependentClaim struct {
	Relation          Relation `json:"relation"`
	Amount            float64  `json:"amount"`
	DisabilityPercent float64  `json:"disability_percent"`
	Age               int      `json:"age"`
}

// Donation is one 80G/80GGC line: the qualifying percentage is statutory per
// donee category and supplied with the record.
type Donation struct {
	Amount            float64 `json:"amount"`
	QualifyingPercent float64 `json:"qualifying_percent"`
}

// Deductions groups the chapter VI-A sections; each sub-object is optional
// and defaults to zero.
type Deductions struct {
	S80C     *Section80C     `json:"s80c,omitempty"`
	S80CCD1B float64         `json:"s80ccd_1b"`
	S80CCD2  float64         `json:"s80ccd_2"`
	S80D     *Section80D     `json:"s80d,omitempty"`
	S80DD    *DependentClaim `json:"s80dd,omitempty"`
	S80DDB   *DependentClaim `json:"s80ddb,omitempty"`
	S80E     float64         `json:"s80e"`
	S80EEB   float64         `json:"s80eeb"`
	S80G     []Donation      `json:"s80g,omitempty"`
	S80GGC   float64         `json:"s80ggc"`
	S80U     *DependentClaim `json:"s80u,omitempty"`
}

func (d Deductions) Validate() error {
	if err := nonNegative(map[string]float64{
		"s80ccd_1b": d.S80CCD1B,
		"s80ccd_2":  d.S80CCD2,
		"s80e":      d.S80E,
		"s80eeb":    d.S80EEB,
		"s80ggc":    d.S80GGC,
	}); err != nil {
		return err
	}
	if d.S80DD != nil && !dependentRelation(d.S80DD.Relation) {
		return fmt.Errorf("s80dd.relation %q is not an eligible dependant", d.S80DD.Relation)
	}
	if d.S80DDB != nil && d.S80DDB.Relation != "" && !dependentRelation(d.S80DDB.Relation) && d.S80DDB.Relation != RelationSelf {
		return fmt.Errorf("s80ddb.relation %q is not an eligible dependant", d.S80DDB.Relation)
	}
	if d.S80U != nil && d.S80U.Relation != "" && d.S80U.Relation != RelationSelf {
		return fmt.Errorf("s80u applies to the assessee only, got relation %q", d.S80U.Relation)
	}
	for i, g := range d.S80G {
		if g.Amount < 0 {
			return fmt.Errorf("s80g[%d].amount must not be negative", i)
		}
		if g.QualifyingPercent < 0 || g.QualifyingPercent > 100 {
			return fmt.Errorf("s80g[%d].qualifying_percent must be within [0,100]", i)
		}
	}
	return nil
}

func dependentRelation(r Relation) bool {
	switch r {
	case RelationSpouse, RelationChild, RelationParent, RelationSibling:
		return true
	default:
		return false
	}
}

// TotalOldRegime applies each section's cap and sums the allowable total
// under the old regime.
func (d Deductions) TotalOldRegime(tables *rates.TaxYearTables) float64 {
	caps := tables.Deductions
	var total float64

	if d.S80C != nil {
		total += capAt(d.S80C.Total(), caps.Section80C)
	}
	total += capAt(d.S80CCD1B, caps.Section80CCD1B)
	total += d.S80CCD2

	if d.S80D != nil {
		selfCap := caps.Section80D
		if float64(d.S80D.SelfAge) >= tables.SeniorAge {
			selfCap = caps.Section80DSenior
		}
		parentsCap := caps.Section80D
		if float64(d.S80D.ParentsAge) >= tables.SeniorAge {
			parentsCap = caps.Section80DSenior
		}
		total += capAt(d.S80D.SelfPremium, selfCap) + capAt(d.S80D.ParentsPremium, parentsCap)
	}

	if d.S80DD != nil && dependentRelation(d.S80DD.Relation) {
		// 80DD is a flat deduction once the disability is certified,
		// independent of the amount actually spent.
		if d.S80DD.DisabilityPercent >= caps.SevereDisabilityAbove {
			total += caps.Section80DDSevere
		} else if d.S80DD.DisabilityPercent > 0 {
			total += caps.Section80DD
		}
	}

	if d.S80DDB != nil {
		limit := caps.Section80DDB
		if float64(d.S80DDB.Age) >= tables.SeniorAge {
			limit = caps.Section80DDBSenior
		}
		total += capAt(positive(d.S80DDB.Amount), limit)
	}

	total += positive(d.S80E)
	total += capAt(positive(d.S80EEB), caps.Section80EEB)

	for _, g := range d.S80G {
		total += positive(g.Amount) * g.QualifyingPercent / 100
	}
	total += positive(d.S80GGC)

	if d.S80U != nil {
		if d.S80U.DisabilityPercent >= caps.SevereDisabilityAbove {
			total += caps.Section80USevere
		} else if d.S80U.DisabilityPercent > 0 {
			total += caps.Section80U
		}
	}

	return total
}

// TotalNewRegime is the surviving subset: only the employer pension
// contribution under 80CCD(2).
func (d Deductions) TotalNewRegime(_ *rates.TaxYearTables) float64 {
	return positive(d.S80CCD2)
}

func capAt(v, cap float64) float64 {
	v = positive(v)
	if v > cap {
		return cap
	}
	return v
}

func positive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
