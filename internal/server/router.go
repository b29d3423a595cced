package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/handlers/auth"
	"github.com/dwax1324/roomescape-payment/internal/handlers/members"
	"github.com/dwax1324/roomescape-payment/internal/handlers/reservations"
	"github.com/dwax1324/roomescape-payment/internal/middleware"
	"github.com/gin-gonic/gin"
)

// MemberStore backs login and member administration.
type MemberStore interface {
	auth.Members
	members.Store
}

type Deps struct {
	Reservations reservations.Service
	Payments     reservations.PaymentConfirmer
	Members      MemberStore

	JWTSecret string
	JWTTTL    time.Duration
	Logger    *slog.Logger
}

// NewRouter mounts every endpoint. Route groups:
//   - public: health, login, available times
//   - authenticated: booking, cancellation, own reservations
//   - admin: listing, search, status changes, members
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.Logger))

	authH := auth.New(d.Members, d.JWTSecret, d.JWTTTL)
	memberH := members.New(d.Members)
	resH := reservations.NewHandler(d.Reservations, d.Payments)

	// Public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/login", authH.Login)
	r.GET("/reservations/themes/:themeId/times", resH.Times)

	// Authenticated
	authed := r.Group("/")
	authed.Use(middleware.JWTAuth(d.JWTSecret))
	{
		authed.GET("/login/check", authH.Check)

		authed.POST("/reservations", resH.Create)
		authed.GET("/reservations-mine", resH.Mine)
		authed.DELETE("/reservations/:id", resH.Cancel)

		admin := authed.Group("/")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/reservations", resH.List)
			admin.GET("/reservations/search", resH.Search)
			// The trailing slash selects the status variant of DELETE.
			admin.DELETE("/reservations/:id/", resH.UpdateStatus)

			admin.GET("/members", memberH.List)
			admin.POST("/members", memberH.Create)
		}
	}
	return r
}

// Start serves h on addr until ctx is done, then drains in-flight requests.
func Start(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
