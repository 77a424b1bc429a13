package valuation

// ValueCar applies the motor-car perquisite rules, pro-rated by the number
// of months the car was available. Documented pure-official use is valued at
// zero; personal use is valued at the actual running cost; mixed use at the
// statutory monthly figures by engine capacity, plus the driver figure.
func ValueCar(c Car, ctx Context) Result {
	var warnings []string
	t := ctx.Tables

	monthlyCost := amount(c.MonthlyCost, "monthly_cost", &warnings)
	n := float64(months(c.Months, "months", &warnings))

	switch c.Usage {
	case CarUsageOfficial:
		if c.OfficialUseDocumented {
			return Result{TaxableValue: 0, Exemption: monthlyCost * n, Warnings: warnings}
		}
		warnings = append(warnings, "official use without supporting records, valued as mixed use")
		fallthrough
	case CarUsageMixed:
		monthly := t.CarSmallEngineMonthly
		if c.EngineAbove1600CC {
			monthly = t.CarLargeEngineMonthly
		}
		if c.DriverProvided {
			monthly += t.DriverMonthly
		}
		return clampResult(monthly*n, "car", warnings)
	case CarUsagePersonal:
		v := monthlyCost * n
		if c.DriverProvided {
			v += t.DriverMonthly * n
		}
		return clampResult(v, "car", warnings)
	default:
		warnings = append(warnings, "unknown car usage, valued as personal")
		return clampResult(monthlyCost*n, "car", warnings)
	}
}

// ValueOtherVehicle covers conveyance other than a motor car: taxable at the
// employer's actual cost unless used solely for official purposes.
func ValueOtherVehicle(v OtherVehicle, _ Context) Result {
	var warnings []string

	monthlyCost := amount(v.MonthlyCost, "monthly_cost", &warnings)
	n := float64(months(v.Months, "months", &warnings))

	if v.OfficialOnly {
		return Result{TaxableValue: 0, Exemption: monthlyCost * n, Warnings: warnings}
	}
	return clampResult(monthlyCost*n, "other_vehicle", warnings)
}
