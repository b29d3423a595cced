package reservations

import (
	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/middleware"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
)

// List returns every reservation. Admin-only; enforced by router middleware.
func (h *Handler) List(c *gin.Context) {
	resp, err := h.svc.FindAll(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, resp)
}

// Mine returns the caller's reservations with their waiting-list rank.
func (h *Handler) Mine(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		common.Fail(c, reservation.ErrUnauthorized)
		return
	}
	resp, err := h.svc.FindWaitingWithRank(c.Request.Context(), id.MemberID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, resp)
}
