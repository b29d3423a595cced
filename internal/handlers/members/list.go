package members

import (
	"time"

	"github.com/dwax1324/roomescape-payment/internal/db"
	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/gin-gonic/gin"
)

func summary(m db.Member) memberResponse {
	return memberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List returns all members with minimal fields. Used to fill the admin
// search filters. Admin-only; enforced by router middleware.
func (h *Handler) List(c *gin.Context) {
	ms, err := h.store.ListMembers(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}
	out := make([]memberResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, summary(m))
	}
	common.OK(c, gin.H{"members": out})
}
