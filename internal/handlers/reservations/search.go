package reservations

import (
	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
)

// Search filters reservations. Admin-only.
//   - themeId, memberId: exact match
//   - dateFrom, dateTo:  inclusive YYYY-MM-DD bounds
//   - waiting=true|false: only waiting, or only confirmed
func (h *Handler) Search(c *gin.Context) {
	var req reservation.ReservationSearchRequest
	if err := common.BindQuery(c, &req); err != nil {
		common.Fail(c, err)
		return
	}
	resp, err := h.svc.FindFiltered(c.Request.Context(), req)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, resp)
}
