package valuation

import "go-paytax/internal/rates"

// ValueAccommodation applies the rent-free / concessional accommodation
// rules. The base value depends on ownership: a statutory percentage of
// salary for employer-owned premises, the lower of lease rent and that
// percentage for leased premises, the license fee for government quarters,
// and actual charges for hotel stays (exempt under the short-stay rule).
// Employee rent paid always reduces the value; furniture is added on top.
func ValueAccommodation(a Accommodation, ctx Context) Result {
	var warnings []string
	t := ctx.Tables

	leaseRent := amount(a.LeaseRent, "lease_rent", &warnings)
	rentPaid := amount(a.EmployeeRentPaid, "employee_rent_paid", &warnings)
	licenseFee := amount(a.GovtLicenseFee, "govt_license_fee", &warnings)
	hotelCharges := amount(a.HotelCharges, "hotel_charges", &warnings)

	pct, ok := t.AccommodationPercent[a.PopulationTier]
	if !ok {
		// Unknown tier is valued at the highest statutory rate rather
		// than silently exempted.
		pct = t.AccommodationPercent[rates.PopulationAbove40Lakh]
		warnings = append(warnings, "unknown population tier, highest accommodation rate applied")
	}

	var base float64
	switch a.Ownership {
	case AccommodationEmployerOwned:
		base = pct * ctx.AnnualSalary
	case AccommodationLeased:
		base = pct * ctx.AnnualSalary
		if leaseRent < base {
			base = leaseRent
		}
	case AccommodationGovernment:
		base = licenseFee
	case AccommodationHotel:
		if a.HotelStayDays < t.HotelExemptDays {
			return Result{TaxableValue: 0, Exemption: hotelCharges, Warnings: warnings}
		}
		base = t.HotelPercent * ctx.AnnualSalary
		if hotelCharges < base {
			base = hotelCharges
		}
	default:
		warnings = append(warnings, "unknown accommodation ownership, valued as employer owned")
		base = pct * ctx.AnnualSalary
	}

	base -= rentPaid

	furniture := valueFurniture(a, t, &warnings)

	return clampResult(base+furniture, "accommodation", warnings)
}

func valueFurniture(a Accommodation, t *rates.TaxYearTables, warnings *[]string) float64 {
	cost := amount(a.FurnitureCost, "furniture_cost", warnings)
	hire := amount(a.FurnitureHireCharges, "furniture_hire_charges", warnings)
	paid := amount(a.FurnitureEmployeePaid, "furniture_employee_paid", warnings)

	var v float64
	switch a.FurnitureOwnership {
	case FurnitureEmployerOwned:
		v = t.FurniturePercent * cost
	case FurnitureHired:
		v = hire
	default:
		return 0
	}

	v -= paid
	if v < 0 {
		// Contribution above the furniture value does not offset the
		// accommodation base.
		v = 0
	}
	return v
}
