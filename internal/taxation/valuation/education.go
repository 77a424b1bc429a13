package valuation

import "fmt"

// ValueFreeEducation values employer-provided schooling per child. The
// monthly exemption threshold applies only when the institution is maintained
// by the employer; otherwise the full expense is taxable.
func ValueFreeEducation(e FreeEducation, ctx Context) Result {
	var warnings []string

	total := valueChild(e.FirstChild, "first_child", ctx, &warnings) +
		valueChild(e.SecondChild, "second_child", ctx, &warnings)

	return clampResult(total, "free_education", warnings)
}

func valueChild(c EducationChild, label string, ctx Context, warnings *[]string) float64 {
	expense := amount(c.MonthlyExpense, fmt.Sprintf("%s.monthly_expense", label), warnings)
	n := float64(months(c.Months, fmt.Sprintf("%s.months", label), warnings))

	if c.EmployerInstitution {
		taxablePerMonth := expense - ctx.Tables.EducationMonthlyCap
		if taxablePerMonth < 0 {
			taxablePerMonth = 0
		}
		return taxablePerMonth * n
	}
	return expense * n
}
