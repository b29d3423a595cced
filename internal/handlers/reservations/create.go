package reservations

import (
	"fmt"
	"log/slog"

	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/middleware"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
)

// Create books a slot for the authenticated member.
// Flow:
// 1) Validate the body; nothing leaves the process on failure
// 2) Confirm the payment with the gateway; abort on any failure
// 3) Persist through the service and point Location at the new reservation
func (h *Handler) Create(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		common.Fail(c, reservation.ErrUnauthorized)
		return
	}

	var req reservation.ReservationRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	if err := h.payments.Confirm(c.Request.Context(), req); err != nil {
		slog.Warn("reservation aborted: payment not confirmed",
			slog.Int64("member_id", id.MemberID), slog.String("order_id", req.OrderID), slog.Any("error", err))
		common.Fail(c, err)
		return
	}

	resp, err := h.svc.Add(c.Request.Context(), req, id.MemberID)
	if err != nil {
		// The gateway has already confirmed; leave a trace for manual refund.
		slog.Error("reservation not persisted after payment confirmation",
			slog.Int64("member_id", id.MemberID), slog.String("order_id", req.OrderID), slog.Any("error", err))
		common.Fail(c, err)
		return
	}
	common.Created(c, fmt.Sprintf("/reservations/%d", resp.ID), resp)
}
