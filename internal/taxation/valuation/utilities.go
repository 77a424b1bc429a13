package valuation

// ValueUtility values gas, electricity or water supplied by the employer.
// When the employer manufactures the supply itself, the manufacturing cost is
// the basis instead of the market amount paid.
func ValueUtility(u Utility, _ Context) Result {
	var warnings []string

	base := amount(u.EmployerPaid, "employer_paid", &warnings)
	if u.ManufacturedByEmployer {
		base = amount(u.ManufacturingCost, "manufacturing_cost", &warnings)
	}
	recovered := amount(u.EmployeePaid, "employee_paid", &warnings)

	return clampResult(base-recovered, "utility", warnings)
}

// ValueRecoveredBenefit values the paid-minus-recovered categories (domestic
// help, lunch, monetary benefits, gift vouchers, club expenses). Any
// documented official-purpose usage reduces the taxable value.
func ValueRecoveredBenefit(b RecoveredBenefit) Result {
	var warnings []string

	paid := amount(b.EmployerPaid, "employer_paid", &warnings)
	recovered := amount(b.EmployeeRecovered, "employee_recovered", &warnings)
	official := amount(b.OfficialUse, "official_use", &warnings)

	return clampResult(paid-recovered-official, "benefit", warnings)
}
