package reservations

import (
	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
)

// Times lists a theme's time slots on a date and whether each is booked.
// Both themeId and date are required.
func (h *Handler) Times(c *gin.Context) {
	themeID, err := common.PathID(c, "themeId")
	if err != nil {
		common.Fail(c, err)
		return
	}
	raw, err := common.RequiredQuery(c, "date")
	if err != nil {
		common.Fail(c, err)
		return
	}
	date, err := reservation.ParseDate(raw)
	if err != nil {
		common.Fail(c, err)
		return
	}

	resp, err := h.svc.FindTimeInfos(c.Request.Context(), date, themeID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, resp)
}
