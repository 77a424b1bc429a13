package taxation

import (
	"context"
	"fmt"
	"time"

	"go-paytax/internal/rates"
	taxationerrors "go-paytax/internal/taxation/errors"
	"go-paytax/internal/taxation/regime"
	"go-paytax/internal/taxation/valuation"
)

// Engine assembles the normalized income snapshot from a record and runs the
// regime strategies over it. It holds no record state; callers own locking
// and persistence.
type Engine struct {
	rates rates.Provider
}

func NewEngine(provider rates.Provider) *Engine {
	return &Engine{rates: provider}
}

// Snapshot values every perquisite and folds the five income structures into
// the regime-neutral snapshot.
func (e *Engine) Snapshot(ctx context.Context, rec *TaxationRecord) (regime.Snapshot, valuation.Breakdown, error) {
	tables, err := e.rates.Tables(ctx, rec.TaxYear)
	if err != nil {
		return regime.Snapshot{}, nil, err
	}

	valCtx := valuation.Context{
		Tables:       tables,
		AnnualSalary: rec.Salary.CashSalary(tables),
		AsOf:         rec.TaxYear.End(),
	}
	breakdown := valuation.ValueAll(rec.Salary.Perquisites, valCtx)

	snap := regime.Snapshot{
		SalaryIncome:           rec.Salary.CashSalary(tables) + rec.PendingArrears,
		PerquisiteValue:        breakdown.Total(),
		OtherIncome:            rec.OtherSources.Total(),
		HousePropertyIncome:    rec.HouseProperty.NetIncome(tables),
		LeaveEncashmentTaxable: rec.LeaveEncashment.Taxable(tables),
		STCGEquity:             rec.CapitalGains.STCGEquity,
		STCGNormal:             rec.CapitalGains.STCGNormal,
		LTCGEquity:             rec.CapitalGains.LTCGEquity,
		LTCGOther:              rec.CapitalGains.LTCGOther,
		DeductionsOldRegime:    rec.Deductions.TotalOldRegime(tables),
		DeductionsNewRegime:    rec.Deductions.TotalNewRegime(tables),
		Age:                    rec.EmployeeAge,
	}

	if snap.SalaryIncome+snap.PerquisiteValue < 0 {
		return regime.Snapshot{}, nil, taxationerrors.ComputationInconsistency(
			fmt.Sprintf("negative salary income after valuation (%0.2f)", snap.SalaryIncome+snap.PerquisiteValue))
	}

	return snap, breakdown, nil
}

// Compute runs the record through the given regime and writes the breakup,
// perquisite breakdown and payment fields back onto the record. The record's
// regime state advances Unset -> Selected on first computation.
func (e *Engine) Compute(ctx context.Context, rec *TaxationRecord, r rates.Regime, now time.Time) error {
	if err := e.ensureRegimeAllowed(rec, r); err != nil {
		return err
	}

	tables, err := e.rates.Tables(ctx, rec.TaxYear)
	if err != nil {
		return err
	}

	strategy, err := regime.ForTables(r, tables)
	if err != nil {
		return err
	}

	snap, breakdown, err := e.Snapshot(ctx, rec)
	if err != nil {
		return err
	}

	breakup, err := strategy.Calculate(snap)
	if err != nil {
		return err
	}
	if breakup.TaxPayable < 0 {
		return taxationerrors.ComputationInconsistency(
			fmt.Sprintf("negative tax payable (%0.2f)", breakup.TaxPayable))
	}

	rec.Regime = r
	if rec.RegimeState == RegimeUnset {
		rec.RegimeState = RegimeSelected
	}
	rec.Breakup = breakup
	rec.PerquisiteBreakdown = breakdown
	computedAt := now.UTC()
	rec.ComputedAt = &computedAt
	rec.RequiresRecalculation = false
	rec.RefreshPayments()

	return nil
}

// Compare runs both regimes over the record without committing anything.
func (e *Engine) Compare(ctx context.Context, rec *TaxationRecord) (regime.Comparison, error) {
	tables, err := e.rates.Tables(ctx, rec.TaxYear)
	if err != nil {
		return regime.Comparison{}, err
	}

	snap, _, err := e.Snapshot(ctx, rec)
	if err != nil {
		return regime.Comparison{}, err
	}

	return regime.Compare(snap, tables)
}

// ensureRegimeAllowed enforces the Unset -> Selected -> Locked state machine.
func (e *Engine) ensureRegimeAllowed(rec *TaxationRecord, r rates.Regime) error {
	if r != rates.RegimeOld && r != rates.RegimeNew {
		return taxationerrors.ComputationInconsistency(fmt.Sprintf("unknown regime %q", r))
	}
	if rec.RegimeState == RegimeLocked && rec.Regime != r {
		return taxationerrors.RegimeLocked(string(rec.Regime), rec.RegimeLockReason)
	}
	return nil
}

// LockRegime moves the record to the terminal Locked state, recording why.
func LockRegime(rec *TaxationRecord, reason string) {
	if rec.RegimeState == RegimeLocked {
		return
	}
	rec.RegimeState = RegimeLocked
	rec.RegimeLockReason = reason
}
