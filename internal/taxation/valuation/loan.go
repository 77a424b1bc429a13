package valuation

// ValueLoan values an interest-free or concessional loan as the interest
// saved against the SBI reference rate, accrued month by month on the
// outstanding balance. When an EMI is set the balance follows the
// amortization schedule; otherwise the principal is treated as outstanding
// straight-line for the covered months. Petty loans under the statutory
// threshold and medical loans are exempt.
//
// The outstanding duration is derived from the start and end dates; any
// separately captured month count is a denormalized cache and never an input.
func ValueLoan(l Loan, ctx Context) Result {
	var warnings []string
	t := ctx.Tables

	principal := amount(l.Principal, "principal", &warnings)
	companyRate := amount(l.CompanyRate, "company_rate", &warnings)
	sbiRate := amount(l.SBIRate, "sbi_rate", &warnings)
	emi := amount(l.EMI, "emi", &warnings)

	if sbiRate == 0 {
		sbiRate = t.SBIReferenceRate
	}

	if principal <= t.PettyLoanThreshold {
		return Result{TaxableValue: 0, Exemption: 0, Warnings: warnings}
	}
	if l.Type == LoanMedical {
		return Result{TaxableValue: 0, Exemption: 0, Warnings: warnings}
	}

	spread := sbiRate - companyRate
	if spread <= 0 {
		return Result{TaxableValue: 0, Warnings: warnings}
	}

	n := loanMonthsInYear(l, ctx, &warnings)
	if n == 0 {
		return Result{TaxableValue: 0, Warnings: warnings}
	}

	var value float64
	if emi > 0 {
		for _, row := range AmortizationSchedule(principal, companyRate, emi, n) {
			value += row.OpeningBalance * spread / 12
		}
	} else {
		value = principal * spread * float64(n) / 12
	}

	return clampResult(value, "loan", warnings)
}

// AmortizationRow is one month of a loan schedule.
type AmortizationRow struct {
	Month          int     `json:"month"`
	OpeningBalance float64 `json:"opening_balance"`
	EMI            float64 `json:"emi"`
	Interest       float64 `json:"interest"`
	Principal      float64 `json:"principal"`
	ClosingBalance float64 `json:"closing_balance"`
}

// AmortizationSchedule produces up to maxMonths of a standard reducing-balance
// schedule at the company rate. The schedule stops early once the balance is
// repaid.
func AmortizationSchedule(principal, annualRate, emi float64, maxMonths int) []AmortizationRow {
	rows := make([]AmortizationRow, 0, maxMonths)
	balance := principal

	for m := 1; m <= maxMonths && balance > 0; m++ {
		interest := balance * annualRate / 12
		principalPaid := emi - interest
		if principalPaid < 0 {
			principalPaid = 0
		}
		closing := balance - principalPaid
		if closing < 0 {
			closing = 0
		}
		rows = append(rows, AmortizationRow{
			Month:          m,
			OpeningBalance: balance,
			EMI:            emi,
			Interest:       interest,
			Principal:      principalPaid,
			ClosingBalance: closing,
		})
		balance = closing
	}

	return rows
}

func loanMonthsInYear(l Loan, ctx Context, warnings *[]string) int {
	if l.Start == nil {
		return 12
	}
	if l.End != nil && l.Start.After(*l.End) {
		*warnings = append(*warnings, "loan start after end, duration treated as zero")
		return 0
	}

	yearStart := ctx.Tables.Year.Start()
	yearEnd := ctx.Tables.Year.End()

	from := *l.Start
	if from.Before(yearStart) {
		from = yearStart
	}
	to := yearEnd
	if l.End != nil && l.End.Before(to) {
		to = *l.End
	}
	if from.After(to) {
		return 0
	}

	n := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month()) + 1
	if n > 12 {
		n = 12
	}
	if n < 0 {
		n = 0
	}
	return n
}
