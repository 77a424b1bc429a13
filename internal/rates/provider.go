package rates

import (
	"context"
	"fmt"

	"go-paytax/internal/shared/fiscal"
)

//go:generate mockgen -source=provider.go -destination=mock/provider_mock.go -package=mock
type Provider interface {
	Tables(ctx context.Context, year fiscal.Year) (*TaxYearTables, error)
}

type staticProvider struct {
	tables map[fiscal.Year]*TaxYearTables
}

// NewStaticProvider serves the built-in statutory tables. Years without an
// explicit table fall back to the most recent earlier year, matching how the
// statute rolls values forward until amended.
func NewStaticProvider() Provider {
	return &staticProvider{tables: builtinTables()}
}

func (p *staticProvider) Tables(_ context.Context, year fiscal.Year) (*TaxYearTables, error) {
	if t, ok := p.tables[year]; ok {
		return t, nil
	}

	var best *TaxYearTables
	for y, t := range p.tables {
		if y < year && (best == nil || y > best.Year) {
			best = t
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no statutory tables available for %s", year)
	}

	clone := *best
	clone.Year = year
	return &clone, nil
}

func builtinTables() map[fiscal.Year]*TaxYearTables {
	base := &TaxYearTables{
		Year: 2024,
		Regimes: map[Regime]RegimeTable{
			RegimeOld: {
				Slabs: []Slab{
					{Lower: 0, Upper: 250000, Rate: 0},
					{Lower: 250000, Upper: 500000, Rate: 0.05},
					{Lower: 500000, Upper: 1000000, Rate: 0.20},
					{Lower: 1000000, Upper: 0, Rate: 0.30},
				},
				StandardDeduction: 50000,
				RebateThreshold:   500000,
				RebateCap:         12500,
				SurchargeBands: []SurchargeBand{
					{Above: 5000000, Rate: 0.10},
					{Above: 10000000, Rate: 0.15},
					{Above: 20000000, Rate: 0.25},
					{Above: 50000000, Rate: 0.37},
				},
				CessRate: 0.04,
			},
			RegimeNew: {
				Slabs: []Slab{
					{Lower: 0, Upper: 300000, Rate: 0},
					{Lower: 300000, Upper: 700000, Rate: 0.05},
					{Lower: 700000, Upper: 1000000, Rate: 0.10},
					{Lower: 1000000, Upper: 1200000, Rate: 0.15},
					{Lower: 1200000, Upper: 1500000, Rate: 0.20},
					{Lower: 1500000, Upper: 0, Rate: 0.30},
				},
				StandardDeduction: 75000,
				RebateThreshold:   700000,
				RebateCap:         25000,
				SurchargeBands: []SurchargeBand{
					{Above: 5000000, Rate: 0.10},
					{Above: 10000000, Rate: 0.15},
					{Above: 20000000, Rate: 0.25},
				},
				CessRate: 0.04,
			},
		},
		HRAPercent: map[CityCategory]float64{
			CityMetro:    0.50,
			CityNonMetro: 0.40,
		},
		AccommodationPercent: map[PopulationTier]float64{
			PopulationAbove40Lakh: 0.10,
			Population15To40Lakh:  0.075,
			PopulationBelow15Lakh: 0.05,
		},
		HotelPercent:        0.24,
		HotelExemptDays:     15,
		FurniturePercent:    0.10,
		MovableUsagePercent: 0.10,
		DepreciationRate: map[AssetType]float64{
			AssetElectronics:  0.50,
			AssetMotorVehicle: 0.20,
			AssetOther:        0.10,
		},
		CarSmallEngineMonthly: 1800,
		CarLargeEngineMonthly: 2400,
		DriverMonthly:         900,
		SBIReferenceRate:      0.09,
		PettyLoanThreshold:    20000,
		MedicalOverseasRBI:    200000,
		EducationMonthlyCap:   1000,
		LTAClaimsPerBlock:     2,
		LTABlockYears:         4,

		HousePropertyStdDeduction: 0.30,
		HousePropertyInterestCap:  200000,
		LeaveEncashmentCap:        2500000,
		SeniorAge:                 60,

		STCGEquityRate:      0.15,
		LTCGEquityRate:      0.10,
		LTCGEquityExemption: 100000,
		LTCGOtherRate:       0.20,

		Deductions: DeductionCaps{
			Section80C:            150000,
			Section80CCD1B:        50000,
			Section80D:            25000,
			Section80DSenior:      50000,
			Section80DD:           75000,
			Section80DDSevere:     125000,
			Section80DDB:          40000,
			Section80DDBSenior:    100000,
			Section80EEB:          150000,
			Section80U:            75000,
			Section80USevere:      125000,
			SevereDisabilityAbove: 80,
		},
	}

	return map[fiscal.Year]*TaxYearTables{
		base.Year: base,
	}
}
