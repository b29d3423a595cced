package common

import (
	"context"
	"errors"
	"net/http"

	"github.com/dwax1324/roomescape-payment/internal/payment"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
)

// ErrorInfo is what a client sees for a failed request.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// ErrorMapper maps domain errors to HTTP statuses. Mapped errors keep their
// own message; unmapped ones are reported as a generic server error.
type ErrorMapper struct {
	mappings []errorMapping
}

func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

func (m *ErrorMapper) WithMapping(err error, status int, code string) *ErrorMapper {
	m.mappings = append(m.mappings, errorMapping{err: err, status: status, code: code})
	return m
}

func (m *ErrorMapper) Map(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusOK}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorInfo{Status: http.StatusGatewayTimeout, Code: "timeout", Message: "request timeout"}
	}
	for _, mp := range m.mappings {
		if errors.Is(err, mp.err) {
			return ErrorInfo{Status: mp.status, Code: mp.code, Message: err.Error()}
		}
	}
	return ErrorInfo{Status: http.StatusInternalServerError, Code: "server_error", Message: "internal server error"}
}

var DefaultMapper = NewErrorMapper().
	WithMapping(reservation.ErrValidation, http.StatusBadRequest, "invalid_request").
	WithMapping(reservation.ErrUnauthorized, http.StatusUnauthorized, "unauthorized").
	WithMapping(reservation.ErrForbidden, http.StatusForbidden, "forbidden").
	WithMapping(reservation.ErrNotFound, http.StatusNotFound, "not_found").
	WithMapping(reservation.ErrConflict, http.StatusConflict, "conflict").
	WithMapping(reservation.ErrBusy, http.StatusConflict, "slot_busy").
	WithMapping(payment.ErrDeclined, http.StatusPaymentRequired, "payment_declined")
