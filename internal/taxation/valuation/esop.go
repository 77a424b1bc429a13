package valuation

// ValueESOP values stock options at exercise: the spread between the
// allotment (fair) price and the exercise price, on the shares actually
// exercised in the current year. Shares merely awarded or vested contribute
// nothing.
func ValueESOP(e ESOP, _ Context) Result {
	var warnings []string

	exercised := e.SharesExercised
	if exercised < 0 {
		warnings = append(warnings, "shares_exercised was negative, treated as zero")
		exercised = 0
	}
	if e.SharesAwarded >= 0 && exercised > e.SharesAwarded {
		warnings = append(warnings, "shares_exercised exceeds shares_awarded, capped")
		exercised = e.SharesAwarded
	}

	allotment := amount(e.AllotmentPrice, "allotment_price", &warnings)
	exercise := amount(e.ExercisePrice, "exercise_price", &warnings)

	if e.GrantDate != nil && e.VestingDate != nil && e.GrantDate.After(*e.VestingDate) {
		warnings = append(warnings, "grant_date after vesting_date")
	}
	if e.VestingDate != nil && e.ExerciseDate != nil && e.VestingDate.After(*e.ExerciseDate) {
		warnings = append(warnings, "vesting_date after exercise_date")
	}

	spread := allotment - exercise
	if spread <= 0 {
		return Result{TaxableValue: 0, Warnings: warnings}
	}

	return clampResult(spread*float64(exercised), "esop", warnings)
}
