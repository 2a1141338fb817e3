package httpadapter

import (
	"net/http"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrJobNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrPlanInvalid):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage keeps provider internals out of client responses; the full
// chain still lands in the logs.
func errorMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrPlanInvalid):
		return "could not understand the question against the current document set"
	case domain.IsKind(err, domain.ErrJobNotFound):
		return "job posting not found"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporarily unavailable, retry later"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return err.Error()
	default:
		return "internal error"
	}
}
