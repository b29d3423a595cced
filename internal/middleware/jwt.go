package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/handlers/common"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	identityKey = "identity"
	// TokenCookie carries the access token for browser clients.
	TokenCookie = "token"
	roleAdmin   = "admin"
	issuer      = "roomescape-api"
)

// Identity is the caller resolved once per request by JWTAuth.
type Identity struct {
	MemberID int64
	Name     string
	Admin    bool
}

func (i Identity) Caller() reservation.Caller {
	return reservation.Caller{MemberID: i.MemberID, Admin: i.Admin}
}

// IdentityFrom returns the identity JWTAuth stored on the request.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok && id.MemberID > 0
}

type Claims struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 access token for id.
func SignToken(secret string, id Identity, ttl time.Duration, now time.Time) (string, error) {
	roles := []string{}
	if id.Admin {
		roles = append(roles, roleAdmin)
	}
	claims := Claims{
		Name:  id.Name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(id.MemberID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a token and returns the identity it names.
func ParseToken(secret, token string) (Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithLeeway(5*time.Second))
	if err != nil {
		return Identity{}, err
	}
	if !tok.Valid {
		return Identity{}, errors.New("invalid token")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, errors.New("invalid subject")
	}
	out := Identity{MemberID: id, Name: claims.Name}
	for _, r := range claims.Roles {
		if r == roleAdmin {
			out.Admin = true
			break
		}
	}
	return out, nil
}

func bearerOrCookie(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	if v, err := c.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// JWTAuth resolves the caller's identity from a Bearer token or the token
// cookie and rejects the request when none is valid.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerOrCookie(c)
		if raw == "" {
			common.Abort(c, http.StatusUnauthorized, "unauthorized", "missing access token")
			return
		}
		id, err := ParseToken(secret, raw)
		if err != nil {
			slog.Debug("token rejected", slog.Any("error", err))
			common.Abort(c, http.StatusUnauthorized, "unauthorized", "invalid access token")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			common.Abort(c, http.StatusUnauthorized, "unauthorized", "missing identity")
			return
		}
		if !id.Admin {
			common.Abort(c, http.StatusForbidden, "forbidden", "missing required role: admin")
			return
		}
		c.Next()
	}
}

func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		member := "-"
		if id, ok := IdentityFrom(c); ok {
			member = strconv.FormatInt(id.MemberID, 10)
		}
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("member", member),
		}
		if rid := c.GetString(requestIDKey); rid != "" {
			attrs = append(attrs, slog.String("request_id", rid))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
			logger.Error("request", attrs...)
			return
		}
		logger.Info("request", attrs...)
	}
}
