package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-procure/meridian-procure/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, shared.ErrInactiveApprover):
		Problem(w, http.StatusUnprocessableEntity, "Inactive Approver", err.Error())
	case errors.Is(err, shared.ErrConcurrency):
		w.Header().Set("Retry-After", "1")
		Problem(w, http.StatusServiceUnavailable, "Transient Conflict", "operation conflicted with a concurrent update, retry")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
