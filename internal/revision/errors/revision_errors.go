package revisionerrors

import (
	"fmt"
	"net/http"

	"go-paytax/internal/shared/apperror"
)

var (
	ErrEventNotFound = apperror.New(
		apperror.CodeNotFound,
		"Salary change event not found",
		http.StatusNotFound,
	)

	ErrEventNotDeadLettered = apperror.New(
		apperror.CodeInvalidState,
		"Only dead-lettered events can be requeued",
		http.StatusConflict,
	)
)

// InvalidTransition reports a lifecycle action attempted from a state that
// does not allow it.
func InvalidTransition(action, state string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("Cannot %s a salary change event in state %q", action, state),
		http.StatusConflict,
	)
}
