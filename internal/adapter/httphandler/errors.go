package httphandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/niksmo/office-storefront/internal/core/domain"
)

var errInvalidParameter = errors.New("invalid parameter")

func errInvalidParam(name string) error {
	return fmt.Errorf("%w: %s", errInvalidParameter, name)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Error{Error: msg})
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{domain.ErrProductNotFound, http.StatusNotFound},
	{domain.ErrQuoteNotFound, http.StatusNotFound},
	{domain.ErrContactRequired, http.StatusBadRequest},
	{domain.ErrEmptyQuote, http.StatusBadRequest},
}

// writeDomainError maps core errors to status codes. Unknown errors are
// treated as downstream failures.
func writeDomainError(w http.ResponseWriter, err error) {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			writeError(w, s.status, s.err.Error())
			return
		}
	}

	if errors.Is(err, domain.ErrUnknownCategory) ||
		errors.Is(err, domain.ErrUnknownSortKey) ||
		errors.Is(err, errInvalidParameter) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Error("request failed", "op", "writeDomainError", "err", err)
	writeError(w, http.StatusServiceUnavailable, "service unavailable")
}
