package auth

import (
	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/middleware"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
)

type identityResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

// Check returns a minimal profile for the authenticated member.
// Relies on JWTAuth to populate the identity.
func (h *Handler) Check(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		common.Fail(c, reservation.ErrUnauthorized)
		return
	}
	common.OK(c, identityResponse{ID: id.MemberID, Name: id.Name, Admin: id.Admin})
}
