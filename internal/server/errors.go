package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexanderramin/siteledger/internal/contract"
	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/repository"
	"github.com/alexanderramin/siteledger/internal/rollup"
	"github.com/alexanderramin/siteledger/internal/service"
	"github.com/rs/zerolog"
)

var errBadRequest = errors.New("bad request")

// statusFor maps service errors to HTTP statuses. Anything unrecognised is an
// internal error.
func statusFor(err error) (int, contract.ErrorCode) {
	switch {
	case errors.Is(err, rollup.ErrCycle):
		return http.StatusConflict, contract.ErrCodeCycle
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, contract.ErrCodeInvalidTransition
	case errors.Is(err, domain.ErrProjectLocked):
		return http.StatusLocked, contract.ErrCodeLocked
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, rollup.ErrNodeNotFound):
		return http.StatusNotFound, contract.ErrCodeNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrInvalidImport),
		errors.Is(err, rollup.ErrInvalidNode),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, contract.ErrCodeValidation
	}
	return http.StatusInternalServerError, contract.ErrCodeInternal
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		msg = "internal error"
	}
	writeJSON(w, r, status, contract.APIError{Code: code, Message: msg})
}

// writeJSON encodes v before writing the header so that an encoding failure
// still yields a 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
		status = http.StatusInternalServerError
		body, _ = json.Marshal(contract.APIError{Code: contract.ErrCodeInternal, Message: "internal error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
