package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInvalidState    = "INVALID_STATE"
	CodeRegimeLocked    = "REGIME_LOCKED"
	CodeRecordFinalized = "RECORD_FINALIZED"
	CodeVersionConflict = "VERSION_CONFLICT"

	// Server errors (5xx)
	CodeInternalError            = "INTERNAL_ERROR"
	CodeServiceUnavailable       = "SERVICE_UNAVAILABLE"
	CodeComputationInconsistency = "COMPUTATION_INCONSISTENCY"
)
