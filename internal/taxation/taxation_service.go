package taxation

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-paytax/internal/rates"
	"go-paytax/internal/salary"
	"go-paytax/internal/shared/apperror"
	"go-paytax/internal/shared/fiscal"
	taxationerrors "go-paytax/internal/taxation/errors"
	"go-paytax/internal/taxation/regime"
	"go-paytax/internal/taxation/valuation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBulkConcurrency = 8

//go:generate mockgen -source=taxation_service.go -destination=mock/taxation_service_mock.go -package=mock
type Service interface {
	Upsert(ctx context.Context, employeeID, taxYear string, req UpsertTaxationRequest) (TaxationResponse, error)
	Get(ctx context.Context, employeeID, taxYear string) (TaxationResponse, error)
	Compute(ctx context.Context, employeeID, taxYear string, req ComputeRequest) (TaxationResponse, error)
	ComputeComponent(ctx context.Context, employeeID, taxYear string, req ComputeComponentRequest) (ComponentResponse, error)
	Compare(ctx context.Context, employeeID, taxYear string) (regime.Comparison, error)
	SelectRegime(ctx context.Context, employeeID, taxYear string, req SelectRegimeRequest) (TaxationResponse, error)
	Finalize(ctx context.Context, employeeID, taxYear string) (TaxationResponse, error)
	UpdatePayments(ctx context.Context, employeeID, taxYear string, req UpdatePaymentsRequest) (TaxationResponse, error)
	RecordPayout(ctx context.Context, employeeID, taxYear string, req RecordPayoutRequest) (TaxationResponse, error)
	BulkCompute(ctx context.Context, req BulkComputeRequest) (BulkComputeResponse, error)

	// ApplyRevision and Recalculate are the event-pipeline entry points.
	// pendingArrears is the cumulative arrears figure for the year, not a
	// delta; reapplying the same revision leaves the record unchanged.
	ApplyRevision(ctx context.Context, employeeID string, year fiscal.Year, newSalary salary.SalaryComponents, pendingArrears float64) error
	Recalculate(ctx context.Context, employeeID string, year fiscal.Year) error
}

type service struct {
	repo   Repository
	engine *Engine
	locks  *recordLocks
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, engine *Engine, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		engine: engine,
		locks:  newRecordLocks(),
		logger: logger.Named("taxation.service"),
		now:    time.Now,
	}
}

func (s *service) Upsert(
	ctx context.Context,
	employeeID, taxYear string,
	req UpsertTaxationRequest,
) (TaxationResponse, error) {
	empID, year, err := parseKey(employeeID, taxYear)
	if err != nil {
		return TaxationResponse{}, err
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	created := false
	if errors.Is(err, taxationerrors.ErrRecordNotFound) {
		rec = NewTaxationRecord(empID, year)
		created = true
	} else if err != nil {
		return TaxationResponse{}, err
	}

	if err := applyUpsert(rec, req); err != nil {
		return TaxationResponse{}, err
	}
	if err := rec.Validate(); err != nil {
		return TaxationResponse{}, apperror.Wrap(err, apperror.CodeInvalidInput, err.Error(), http.StatusBadRequest)
	}

	if created {
		if err := s.repo.Create(ctx, rec); err != nil {
			return TaxationResponse{}, mapRepositoryError(err)
		}
	} else {
		if err := s.repo.Save(ctx, rec); err != nil {
			return TaxationResponse{}, mapRepositoryError(err)
		}
	}

	return mapToResponse(*rec), nil
}

// applyUpsert merges the request onto the record, enforcing the finalized
// freeze on income-affecting sections.
func applyUpsert(rec *TaxationRecord, req UpsertTaxationRequest) error {
	sections := []struct {
		name    string
		present bool
		apply   func()
	}{
		{"salary", req.Salary != nil, func() { rec.Salary = *req.Salary; rec.Salary.Migrate() }},
		{"other_sources", req.OtherSources != nil, func() { rec.OtherSources = *req.OtherSources }},
		{"capital_gains", req.CapitalGains != nil, func() { rec.CapitalGains = *req.CapitalGains }},
		{"house_property", req.HouseProperty != nil, func() { rec.HouseProperty = *req.HouseProperty }},
		{"leave_encashment", req.LeaveEncashment != nil, func() { rec.LeaveEncashment = *req.LeaveEncashment }},
		{"deductions", req.Deductions != nil, func() { rec.Deductions = *req.Deductions }},
	}

	for _, sec := range sections {
		if !sec.present {
			continue
		}
		if rec.Finalized() {
			return taxationerrors.RecordFinalized(sec.name)
		}
		sec.apply()
		rec.RequiresRecalculation = true
	}

	if req.EmployeeAge != nil {
		if rec.Finalized() {
			return taxationerrors.RecordFinalized("employee_age")
		}
		rec.EmployeeAge = *req.EmployeeAge
	}

	return nil
}

func (s *service) Get(ctx context.Context, employeeID, taxYear string) (TaxationResponse, error) {
	empID, year, err := parseKey(employeeID, taxYear)
	if err != nil {
		return TaxationResponse{}, err
	}

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return TaxationResponse{}, err
	}
	return mapToResponse(*rec), nil
}

func (s *service) Compute(
	ctx context.Context,
	employeeID, taxYear string,
	req ComputeRequest,
) (TaxationResponse, error) {
	empID, year, err := parseKey(employeeID, taxYear)
	if err != nil {
		return TaxationResponse{}, err
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return TaxationResponse{}, err
	}

	target, err := computeRegime(rec, req.Regime)
	if err != nil {
		return TaxationResponse{}, err
	}

	if err := s.engine.Compute(ctx, rec, target, s.now()); err != nil {
		return TaxationResponse{}, err
	}

	if err := s.repo.Save(ctx, rec); err != nil {
		return TaxationResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*rec), nil
}

// computeRegime resolves which regime to compute under: an explicit request
// wins, then the record's current selection, then the old regime as the
// statutory default for a first computation.
func computeRegime(rec *TaxationRecord, requested string) (rates.Regime, error) {
	if requested != "" {
		r := rates.Regime(requested)
		if r != rates.RegimeOld && r != rates.RegimeNew {
			return "", apperror.FieldRule("regime", "must be \"old\" or \"new\"")
		}
		return r, nil
	}
	if rec.Regime != "" {
		return rec.Regime, nil
	}
	return rates.RegimeOld, nil
}

func (s *service) ComputeComponent(
	ctx context.Context,
	employeeID, taxYear string,
	req ComputeComponentRequest,
) (ComponentResponse, error) {
	empID, year, err := parseKey(employeeID, taxYear)
	if err != nil {
		return ComponentResponse{}, err
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return ComponentResponse{}, err
	}

	tables, err := s.engine.rates.Tables(ctx, year)
	if err != nil {
		return ComponentResponse{}, err
	}

	valCtx := valuation.Context{
		Tables:       tables,
		AnnualSalary: rec.Salary.CashSalary(tables),
		AsOf:         year.End(),
	}
	result, err := valuation.ValueCategory(rec.Salary.Perquisites, req.Component, valCtx)
	if err != nil {
		return ComponentResponse{}, apperror.FieldRule("component", err.Error())
	}

	target, err := computeRegime(rec, "")
	if err != nil {
		return ComponentResponse{}, err
	}
	if err := s.engine.Compute(ctx, rec, target, s.now()); err != nil {
		return ComponentResponse{}, err
	}

	if err := s.repo.Save(ctx, rec); err != nil {
		return ComponentResponse{}, mapRepositoryError(err)
	}

	return ComponentResponse{
		Component: req.Component,
		Result:    result,
		Breakup:   rec.Breakup,
	}, nil
}

func (s *service) Compare(ctx context.Context, employeeID, taxYear string) (regime.Comparison, error) {
	empID, year, err := parseKey(employeeID, taxYear)
	if err != nil {
		return regime.Comparison{}, err
	}

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return regime.Comparison{}, err
	}

	return s.engine.Compare(ctx, rec)
}

func (s *service) SelectRegime(
	ctx context.Context,
	employeeID, taxYear string,
	req SelectRegimeRequest,
) (TaxationResponse, error) {
	empID, year, err := parseKey(employeeID, taxYear)
	if err != nil {
		return TaxationResponse{}, err
	}

	r := rates.Regime(req.Regime)
	if r != rates.RegimeOld && r != rates.RegimeNew {
		return TaxationResponse{}, apperror.FieldRule("regime", "must be \"old\" or \"new\"")
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return TaxationResponse{}, err
	}

	if rec.RegimeState == RegimeLocked && rec.Regime != r {
		return TaxationResponse{}, taxationerrors.RegimeLocked(string(rec.Regime), rec.RegimeLockReason)
	}

	if err := s.engine.Compute(ctx, rec, r, s.now()); err != nil {
		return TaxationResponse{}, err
	}
	rec.RegimeState = RegimeSelected
	if rec.RegimeLockReason != "" {
		rec.RegimeState = RegimeLocked
	}

	if err := s.repo.Save(ctx, rec); err != nil {
		return TaxationResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*rec), nil
}

func (s *service) Finalize(ctx context.Context, employeeID, taxYear string) (TaxationResponse, error) {
	empID, year, err := parseKey(employeeID, taxYear)
	if err != nil {
		return TaxationResponse{}, err
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return TaxationResponse{}, err
	}

	if rec.Finalized() {
		return mapToResponse(*rec), nil
	}
	if rec.RegimeState == RegimeUnset {
		return TaxationResponse{}, apperror.New(
			apperror.CodeInvalidState,
			"Record cannot be finalized before its first computation",
			http.StatusConflict,
		)
	}

	rec.FilingStatus = FilingFinalized
	LockRegime(rec, LockReasonFinalized)

	if err := s.repo.Save(ctx, rec); err != nil {
		return TaxationResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("taxation record finalized",
		zap.String("employee_id", empID.String()),
		zap.String("tax_year", year.String()),
		zap.String("regime", string(rec.Regime)),
	)

	return mapToResponse(*rec), nil
}

func (s *service) UpdatePayments(
	ctx context.Context,
	employeeID, taxYear string,
	req UpdatePaymentsRequest,
) (TaxationResponse, error) {
	empID, year, err := parseKey(employeeID, taxYear)
	if err != nil {
		return TaxationResponse{}, err
	}

	if req.TaxPaid != nil && *req.TaxPaid < 0 {
		return TaxationResponse{}, apperror.FieldRule("tax_paid", "must not be negative")
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return TaxationResponse{}, err
	}

	// Payment tracking stays mutable regardless of filing status.
	if req.TaxPaid != nil {
		rec.TaxPaid = *req.TaxPaid
	}
	rec.RefreshPayments()

	if err := s.repo.Save(ctx, rec); err != nil {
		return TaxationResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*rec), nil
}

// RecordPayout registers that payroll paid out under the current regime,
// which takes the regime lock if it was not already held.
func (s *service) RecordPayout(
	ctx context.Context,
	employeeID, taxYear string,
	req RecordPayoutRequest,
) (TaxationResponse, error) {
	empID, year, err := parseKey(employeeID, taxYear)
	if err != nil {
		return TaxationResponse{}, err
	}
	if req.Amount <= 0 {
		return TaxationResponse{}, apperror.FieldRule("amount", "must be positive")
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return TaxationResponse{}, err
	}

	if rec.RegimeState == RegimeUnset {
		return TaxationResponse{}, apperror.New(
			apperror.CodeInvalidState,
			"Cannot record a payout before the first tax computation",
			http.StatusConflict,
		)
	}

	rec.TaxPaid += req.Amount
	rec.RefreshPayments()
	LockRegime(rec, LockReasonPaidOut)

	if err := s.repo.Save(ctx, rec); err != nil {
		return TaxationResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*rec), nil
}

func (s *service) BulkCompute(ctx context.Context, req BulkComputeRequest) (BulkComputeResponse, error) {
	year, err := fiscal.Parse(req.TaxYear)
	if err != nil {
		return BulkComputeResponse{}, apperror.FieldRule("tax_year", err.Error())
	}
	if req.Options.RegimeOverride != "" {
		r := rates.Regime(req.Options.RegimeOverride)
		if r != rates.RegimeOld && r != rates.RegimeNew {
			return BulkComputeResponse{}, apperror.FieldRule("options.regime_override", "must be \"old\" or \"new\"")
		}
	}

	items := make([]BulkItemResult, len(req.EmployeeIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultBulkConcurrency)

	for i, id := range req.EmployeeIDs {
		g.Go(func() error {
			items[i] = s.bulkComputeOne(gctx, id, year, req.Options)
			return nil
		})
	}
	_ = g.Wait()

	resp := BulkComputeResponse{Total: len(items), Items: items}
	for _, item := range items {
		switch item.Status {
		case "success":
			resp.Successful++
		case "skipped":
			resp.Skipped++
		default:
			resp.Failed++
		}
	}
	return resp, nil
}

func (s *service) bulkComputeOne(
	ctx context.Context,
	employeeID string,
	year fiscal.Year,
	opts BulkComputeOptions,
) BulkItemResult {
	item := BulkItemResult{EmployeeID: employeeID}

	empID, err := uuid.Parse(employeeID)
	if err != nil {
		item.Status = "failed"
		item.Error = "invalid employee id"
		return item
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if errors.Is(err, taxationerrors.ErrRecordNotFound) {
		item.Status = "skipped"
		item.Error = "no taxation record for this tax year"
		return item
	}
	if err != nil {
		item.Status = "failed"
		item.Error = err.Error()
		return item
	}

	// Excluding bonus or arrears makes this a preview: computed on an
	// adjusted copy and not persisted.
	preview := !opts.IncludeBonus || !opts.IncludeArrears
	target := rec.Regime
	if opts.RegimeOverride != "" {
		target = rates.Regime(opts.RegimeOverride)
	}
	if target == "" {
		target = rates.RegimeOld
	}

	work := *rec
	if !opts.IncludeBonus {
		work.Salary.Bonus = 0
	}
	if !opts.IncludeArrears {
		work.PendingArrears = 0
	}

	if err := s.engine.Compute(ctx, &work, target, s.now()); err != nil {
		item.Status = "failed"
		item.Error = err.Error()
		return item
	}

	if !preview {
		if err := s.repo.Save(ctx, &work); err != nil {
			item.Status = "failed"
			item.Error = err.Error()
			return item
		}
	}

	item.Status = "success"
	return item
}

func (s *service) ApplyRevision(
	ctx context.Context,
	employeeID string,
	year fiscal.Year,
	newSalary salary.SalaryComponents,
	pendingArrears float64,
) error {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return apperror.InvalidField("employee_id")
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if errors.Is(err, taxationerrors.ErrRecordNotFound) {
		rec = NewTaxationRecord(empID, year)
		rec.Salary = newSalary
		rec.PendingArrears = pendingArrears
		rec.RequiresRecalculation = true
		return s.repo.Create(ctx, rec)
	}
	if err != nil {
		return err
	}

	if rec.Finalized() {
		return taxationerrors.RecordFinalized("salary")
	}

	rec.Salary = newSalary
	rec.Salary.Migrate()
	rec.PendingArrears = pendingArrears
	rec.RequiresRecalculation = true

	return s.repo.Save(ctx, rec)
}

func (s *service) Recalculate(ctx context.Context, employeeID string, year fiscal.Year) error {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return apperror.InvalidField("employee_id")
	}

	lock := s.locks.lockFor(empID.String(), year)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.repo.FindByEmployeeAndYear(ctx, empID.String(), year)
	if err != nil {
		return err
	}

	// A record that has never been computed has nothing to refresh; the
	// flag stays up until the first explicit computation.
	if rec.RegimeState == RegimeUnset {
		return nil
	}

	if err := s.engine.Compute(ctx, rec, rec.Regime, s.now()); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, rec); err != nil {
		return mapRepositoryError(err)
	}

	s.logger.Info("taxation record recalculated",
		zap.String("employee_id", empID.String()),
		zap.String("tax_year", year.String()),
	)
	return nil
}

func parseKey(employeeID, taxYear string) (uuid.UUID, fiscal.Year, error) {
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return uuid.Nil, 0, apperror.InvalidField("employee_id")
	}
	year, err := fiscal.Parse(taxYear)
	if err != nil {
		return uuid.Nil, 0, apperror.FieldRule("tax_year", err.Error())
	}
	return empID, year, nil
}
