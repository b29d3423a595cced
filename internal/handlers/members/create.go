package members

import (
	"fmt"
	"strings"

	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
)

type createRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Admin    bool   `json:"admin"`
}

// Create registers a member with a bcrypt-hashed password.
// Flow:
// 1) Validate payload
// 2) Reject blank names
// 3) Insert member (conflict if the email exists)
func (h *Handler) Create(c *gin.Context) {
	var in createRequest
	if err := common.BindJSON(c, &in); err != nil {
		common.Fail(c, err)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		common.Fail(c, fmt.Errorf("%w: name must not be blank", reservation.ErrValidation))
		return
	}

	m, err := h.store.CreateMember(c.Request.Context(), in.Name, in.Email, in.Password, in.Admin)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Created(c, fmt.Sprintf("/members/%d", m.ID), summary(m))
}
