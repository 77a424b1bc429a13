package taxationerrors

import (
	"fmt"
	"net/http"

	"go-paytax/internal/shared/apperror"
)

var (
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"Taxation record not found for this employee and tax year",
		http.StatusNotFound,
	)

	ErrVersionConflict = apperror.New(
		apperror.CodeVersionConflict,
		"The taxation record changed since it was loaded, reload and retry",
		http.StatusConflict,
	)

	ErrRecordAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"A taxation record already exists for this employee and tax year",
		http.StatusConflict,
	)
)

// RegimeLocked reports a regime change attempted on a locked record, carrying
// the current regime and the reason the lock was taken.
func RegimeLocked(current, reason string) *apperror.AppError {
	return apperror.New(
		apperror.CodeRegimeLocked,
		fmt.Sprintf("Regime is locked to %q (%s) and can no longer change this tax year", current, reason),
		http.StatusConflict,
	)
}

// RecordFinalized reports a mutation of an income-affecting field on a
// finalized record, naming the field so clients can point at it.
func RecordFinalized(field string) *apperror.AppError {
	return apperror.New(
		apperror.CodeRecordFinalized,
		fmt.Sprintf("Record is finalized, %s may no longer change; only payment tracking stays mutable", field),
		http.StatusConflict,
	)
}

// ComputationInconsistency reports a violated internal invariant. It is
// always surfaced, never clamped away.
func ComputationInconsistency(detail string) *apperror.AppError {
	return apperror.New(
		apperror.CodeComputationInconsistency,
		fmt.Sprintf("Tax computation produced an inconsistent result: %s", detail),
		http.StatusInternalServerError,
	)
}
