package valuation

// ValueMovableUsage values employer assets made available for use: 10% per
// annum of the cost when employer-owned, the actual hire charge otherwise,
// less the employee contribution.
func ValueMovableUsage(m MovableUsage, ctx Context) Result {
	var warnings []string
	t := ctx.Tables

	cost := amount(m.AssetCost, "asset_cost", &warnings)
	hire := amount(m.HireCharges, "hire_charges", &warnings)
	paid := amount(m.EmployeePaid, "employee_paid", &warnings)

	var v float64
	if m.EmployerOwned {
		v = t.MovableUsagePercent * cost
	} else {
		v = hire
	}

	return clampResult(v-paid, "movable_usage", warnings)
}

// ValueMovableTransfer values an asset transferred to the employee: the
// employer's cost written down by the per-asset-class rate for each completed
// year of use, less the amount the employee paid.
func ValueMovableTransfer(m MovableTransfer, ctx Context) Result {
	var warnings []string
	t := ctx.Tables

	cost := amount(m.EmployerCost, "employer_cost", &warnings)
	paid := amount(m.EmployeePaid, "employee_paid", &warnings)

	years := m.CompletedYears
	if years < 0 {
		warnings = append(warnings, "completed_years was negative, treated as zero")
		years = 0
	}

	rate, ok := t.DepreciationRate[m.AssetType]
	if !ok {
		rate = t.DepreciationRate["other"]
		warnings = append(warnings, "unknown asset type, default depreciation rate applied")
	}

	depreciated := cost
	for i := 0; i < years; i++ {
		depreciated *= 1 - rate
	}

	return clampResult(depreciated-paid, "movable_transfer", warnings)
}
