package rates

import "go-paytax/internal/shared/fiscal"

// Regime identifies one of the two statutory computation modes.
type Regime string

const (
	RegimeOld Regime = "old"
	RegimeNew Regime = "new"
)

// CityCategory classifies a city for HRA purposes.
type CityCategory string

const (
	CityMetro    CityCategory = "metro"
	CityNonMetro CityCategory = "non_metro"
)

// PopulationTier classifies a city for accommodation valuation.
type PopulationTier string

const (
	PopulationAbove40Lakh PopulationTier = "above_40_lakh"
	Population15To40Lakh  PopulationTier = "between_15_and_40_lakh"
	PopulationBelow15Lakh PopulationTier = "below_15_lakh"
)

// AssetType classifies a movable asset for depreciation on transfer.
type AssetType string

const (
	AssetElectronics  AssetType = "electronics"
	AssetMotorVehicle AssetType = "motor_vehicle"
	AssetOther        AssetType = "other"
)

// Slab is one progressive tax band. Upper of 0 means unbounded.
type Slab struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Rate  float64 `json:"rate"`
}

// SurchargeBand applies a surcharge rate once taxable income crosses Above.
type SurchargeBand struct {
	Above float64 `json:"above"`
	Rate  float64 `json:"rate"`
}

// RegimeTable carries everything a single regime strategy needs.
type RegimeTable struct {
	Slabs             []Slab          `json:"slabs"`
	StandardDeduction float64         `json:"standard_deduction"`
	RebateThreshold   float64         `json:"rebate_threshold"`
	RebateCap         float64         `json:"rebate_cap"`
	SurchargeBands    []SurchargeBand `json:"surcharge_bands"`
	CessRate          float64         `json:"cess_rate"`
}

// DeductionCaps groups the statutory chapter VI-A limits.
type DeductionCaps struct {
	Section80C            float64 `json:"section_80c"`
	Section80CCD1B        float64 `json:"section_80ccd_1b"`
	Section80D            float64 `json:"section_80d"`
	Section80DSenior      float64 `json:"section_80d_senior"`
	Section80DD           float64 `json:"section_80dd"`
	Section80DDSevere     float64 `json:"section_80dd_severe"`
	Section80DDB          float64 `json:"section_80ddb"`
	Section80DDBSenior    float64 `json:"section_80ddb_senior"`
	Section80EEB          float64 `json:"section_80eeb"`
	Section80U            float64 `json:"section_80u"`
	Section80USevere      float64 `json:"section_80u_severe"`
	SevereDisabilityAbove float64 `json:"severe_disability_above"`
}

// TaxYearTables is the immutable statutory lookup set for one financial year.
type TaxYearTables struct {
	Year fiscal.Year `json:"year"`

	Regimes map[Regime]RegimeTable `json:"regimes"`

	// HRA exemption percentage of basic, by city category.
	HRAPercent map[CityCategory]float64 `json:"hra_percent"`

	// Accommodation valuation percentage of salary, by population tier.
	AccommodationPercent map[PopulationTier]float64 `json:"accommodation_percent"`
	HotelPercent         float64                    `json:"hotel_percent"`
	HotelExemptDays      int                        `json:"hotel_exempt_days"`

	// Furniture and usage-only movable assets, annual percentage of cost.
	FurniturePercent    float64 `json:"furniture_percent"`
	MovableUsagePercent float64 `json:"movable_usage_percent"`

	// Written-down depreciation per completed year on asset transfer.
	DepreciationRate map[AssetType]float64 `json:"depreciation_rate"`

	// Car perquisite monthly values.
	CarSmallEngineMonthly float64 `json:"car_small_engine_monthly"`
	CarLargeEngineMonthly float64 `json:"car_large_engine_monthly"`
	DriverMonthly         float64 `json:"driver_monthly"`

	SBIReferenceRate    float64 `json:"sbi_reference_rate"`
	PettyLoanThreshold  float64 `json:"petty_loan_threshold"`
	MedicalOverseasRBI  float64 `json:"medical_overseas_rbi_limit"`
	EducationMonthlyCap float64 `json:"education_monthly_cap"`
	LTAClaimsPerBlock   int     `json:"lta_claims_per_block"`
	LTABlockYears       int     `json:"lta_block_years"`

	HousePropertyStdDeduction float64 `json:"house_property_std_deduction"`
	HousePropertyInterestCap  float64 `json:"house_property_interest_cap"`
	LeaveEncashmentCap        float64 `json:"leave_encashment_cap"`

	SeniorAge float64 `json:"senior_age"`

	// Capital gains taxed at special rates, outside the slabs.
	STCGEquityRate      float64 `json:"stcg_equity_rate"`
	LTCGEquityRate      float64 `json:"ltcg_equity_rate"`
	LTCGEquityExemption float64 `json:"ltcg_equity_exemption"`
	LTCGOtherRate       float64 `json:"ltcg_other_rate"`

	Deductions DeductionCaps `json:"deductions"`
}

// Regime returns the table for a regime, with a zero value when the regime is
// unknown so callers can validate up front.
func (t *TaxYearTables) Regime(r Regime) (RegimeTable, bool) {
	rt, ok := t.Regimes[r]
	return rt, ok
}
