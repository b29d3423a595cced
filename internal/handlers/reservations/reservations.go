package reservations

import (
	"context"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/reservation"
)

// Package reservations provides the reservation HTTP handlers.
// One file per endpoint family:
// - list.go:   Handler.List, Handler.Mine
// - times.go:  Handler.Times
// - search.go: Handler.Search
// - create.go: Handler.Create
// - delete.go: Handler.Cancel, Handler.UpdateStatus

// Service is the reservation use-case surface the handlers delegate to.
type Service interface {
	FindAll(ctx context.Context) (reservation.ReservationsResponse, error)
	FindWaitingWithRank(ctx context.Context, memberID int64) (reservation.WaitingWithRanksResponse, error)
	FindTimeInfos(ctx context.Context, date time.Time, themeID int64) (reservation.ReservationTimeInfosResponse, error)
	FindFiltered(ctx context.Context, req reservation.ReservationSearchRequest) (reservation.ReservationsResponse, error)
	Add(ctx context.Context, req reservation.ReservationRequest, memberID int64) (reservation.ReservationResponse, error)
	Remove(ctx context.Context, id int64, caller reservation.Caller) error
	UpdateStatus(ctx context.Context, caller reservation.Caller, id int64, status string) error
}

// PaymentConfirmer gates reservation creation on the payment gateway.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, payload any) error
}

// Handler wires reservation endpoints to the service and payment gateway.
type Handler struct {
	svc      Service
	payments PaymentConfirmer
}

func NewHandler(svc Service, payments PaymentConfirmer) *Handler {
	return &Handler{svc: svc, payments: payments}
}

var _ Service = (*reservation.Service)(nil)
