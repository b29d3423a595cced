package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/middleware"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// Login issues a short-lived access token for valid credentials.
// Flow:
// 1) Validate payload
// 2) Load member record
// 3) Check password
// 4) Sign JWT, set it as the token cookie and return it
func (h *Handler) Login(c *gin.Context) {
	var in loginRequest
	if err := common.BindJSON(c, &in); err != nil {
		common.Fail(c, err)
		return
	}

	m, err := h.members.FindMemberByEmail(c.Request.Context(), in.Email)
	if errors.Is(err, reservation.ErrNotFound) {
		common.Abort(c, http.StatusUnauthorized, "invalid_grant", "invalid credentials")
		return
	}
	if err != nil {
		common.Fail(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(in.Password)) != nil {
		common.Abort(c, http.StatusUnauthorized, "invalid_grant", "invalid credentials")
		return
	}

	signed, err := middleware.SignToken(h.jwtSecret, middleware.Identity{
		MemberID: m.ID,
		Name:     m.Name,
		Admin:    m.IsAdmin(),
	}, h.ttl, h.now())
	if err != nil {
		slog.Error("sign token", slog.Int64("member_id", m.ID), slog.Any("error", err))
		common.Fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, signed, int(h.ttl.Seconds()), "/", "", false, true)
	common.OK(c, tokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.ttl.Seconds()),
	})
}
