package valuation

// ValueMedical values medical reimbursement. Treatment in India is fully
// taxable and the overseas-only fields are ignored even when populated.
// Overseas treatment is exempt up to the RBI-approved limit for the illness;
// the travel allowance rides along with the exemption only while the
// reimbursement stays within that limit.
func ValueMedical(m Medical, ctx Context) Result {
	var warnings []string

	reimbursed := amount(m.Reimbursed, "reimbursed", &warnings)

	if m.TreatedInIndia {
		if m.TravelAllowance != 0 || m.RBIIllnessLimit != 0 {
			warnings = append(warnings, "overseas-only fields present on in-India treatment, ignored")
		}
		return clampResult(reimbursed, "medical", warnings)
	}

	travel := amount(m.TravelAllowance, "travel_allowance", &warnings)
	limit := amount(m.RBIIllnessLimit, "rbi_illness_limit", &warnings)
	if limit == 0 {
		limit = ctx.Tables.MedicalOverseasRBI
	}

	if reimbursed <= limit {
		return Result{TaxableValue: 0, Exemption: reimbursed + travel, Warnings: warnings}
	}

	// Beyond the RBI limit the excess and the travel allowance both become
	// taxable.
	return clampResult(reimbursed-limit+travel, "medical", warnings)
}
