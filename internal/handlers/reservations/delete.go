package reservations

import (
	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/middleware"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
)

// Cancel removes a reservation by id.
// - Admins can cancel any reservation.
// - Members can only cancel their own.
// Cancelling a confirmed booking promotes the next waiting member.
func (h *Handler) Cancel(c *gin.Context) {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		common.Fail(c, reservation.ErrUnauthorized)
		return
	}
	id, err := common.PathID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	if err := h.svc.Remove(c.Request.Context(), id, who.Caller()); err != nil {
		common.Fail(c, err)
		return
	}
	common.NoContent(c)
}

// UpdateStatus applies ?status=CONFIRMED|WAITING|CANCELED to a reservation.
// Admin-only; enforced by router middleware.
func (h *Handler) UpdateStatus(c *gin.Context) {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		common.Fail(c, reservation.ErrUnauthorized)
		return
	}
	id, err := common.PathID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	status, err := common.RequiredQuery(c, "status")
	if err != nil {
		common.Fail(c, err)
		return
	}
	if err := h.svc.UpdateStatus(c.Request.Context(), who.Caller(), id, status); err != nil {
		common.Fail(c, err)
		return
	}
	common.NoContent(c)
}
