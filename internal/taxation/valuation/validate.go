package valuation

import (
	"fmt"
	"time"
)

// Validate rejects structurally invalid perquisite input up front: month
// counts outside [0,12], negative money, and misordered date pairs. The
// valuation functions still clamp defensively, but well-formed payloads are
// enforced here so the caller learns which field broke which rule.
func (p Perquisites) Validate() error {
	if p.Car != nil {
		if err := monthCount(p.Car.Months, "car.months"); err != nil {
			return err
		}
		if err := money(p.Car.MonthlyCost, "car.monthly_cost"); err != nil {
			return err
		}
	}
	if p.OtherVehicle != nil {
		if err := monthCount(p.OtherVehicle.Months, "other_vehicle.months"); err != nil {
			return err
		}
	}
	if p.FreeEducation != nil {
		if err := monthCount(p.FreeEducation.FirstChild.Months, "free_education.first_child.months"); err != nil {
			return err
		}
		if err := monthCount(p.FreeEducation.SecondChild.Months, "free_education.second_child.months"); err != nil {
			return err
		}
	}
	if p.LTA != nil {
		if err := orderedDates(p.LTA.ClaimStart, p.LTA.ClaimEnd, "lta.claim_start", "lta.claim_end"); err != nil {
			return err
		}
		if err := money(p.LTA.Claimed, "lta.claimed"); err != nil {
			return err
		}
	}
	if p.Loan != nil {
		if err := orderedDates(p.Loan.Start, p.Loan.End, "loan.start", "loan.end"); err != nil {
			return err
		}
		if err := money(p.Loan.Principal, "loan.principal"); err != nil {
			return err
		}
	}
	if p.ESOP != nil {
		if err := orderedDates(p.ESOP.GrantDate, p.ESOP.VestingDate, "esop.grant_date", "esop.vesting_date"); err != nil {
			return err
		}
		if err := orderedDates(p.ESOP.VestingDate, p.ESOP.ExerciseDate, "esop.vesting_date", "esop.exercise_date"); err != nil {
			return err
		}
		if p.ESOP.SharesAwarded < 0 {
			return fmt.Errorf("esop.shares_awarded must not be negative")
		}
		if p.ESOP.SharesExercised < 0 {
			return fmt.Errorf("esop.shares_exercised must not be negative")
		}
	}
	if p.MovableTransfer != nil && p.MovableTransfer.CompletedYears < 0 {
		return fmt.Errorf("movable_transfer.completed_years must not be negative")
	}
	if p.Accommodation != nil {
		if err := money(p.Accommodation.EmployeeRentPaid, "accommodation.employee_rent_paid"); err != nil {
			return err
		}
	}
	return nil
}

func monthCount(n int, field string) error {
	if n < 0 || n > 12 {
		return fmt.Errorf("%s must be within [0,12], got %d", field, n)
	}
	return nil
}

func money(v float64, field string) error {
	if v < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}

func orderedDates(start, end *time.Time, startField, endField string) error {
	if start != nil && end != nil && start.After(*end) {
		return fmt.Errorf("%s must not be after %s", startField, endField)
	}
	return nil
}
