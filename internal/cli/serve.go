package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dwax1324/roomescape-payment/internal/config"
	"github.com/dwax1324/roomescape-payment/internal/db"
	"github.com/dwax1324/roomescape-payment/internal/events"
	"github.com/dwax1324/roomescape-payment/internal/lock"
	"github.com/dwax1324/roomescape-payment/internal/logging"
	"github.com/dwax1324/roomescape-payment/internal/payment"
	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/dwax1324/roomescape-payment/internal/server"
	"github.com/dwax1324/roomescape-payment/internal/sweeper"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrateUp, sweep bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reservation API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := logging.New(os.Stdout, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
			slog.SetDefault(logger)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DSN())
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			defer d.Close()

			if migrateUp {
				if err := d.EnsureSchema(ctx); err != nil {
					return fmt.Errorf("ensure schema: %w", err)
				}
			}
			if err := d.EnsureDefaultAdmin(ctx, cfg.AdminDefaultEmail, cfg.AdminDefaultPass); err != nil {
				logger.Warn("ensure default admin", slog.Any("error", err))
			}

			publisher, closePublisher := newPublisher(cfg, logger)
			defer closePublisher()

			store := db.NewReservationStore(d)
			locker := lock.MySQL{DB: d.DB.DB, TimeoutSeconds: cfg.LockTimeoutSec}
			svc := reservation.NewService(store, locker, publisher, logger)

			if sweep {
				sw := sweeper.Sweeper{
					Store:     store,
					Locker:    locker,
					Publisher: publisher,
					Interval:  cfg.SweepInterval,
					Logger:    logger,
				}
				go sw.Run(ctx)
			}

			gin.SetMode(gin.ReleaseMode)
			r := server.NewRouter(server.Deps{
				Reservations: svc,
				Payments:     payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey, cfg.PaymentTimeout, nil),
				Members:      d,
				JWTSecret:    cfg.JWTSecret,
				JWTTTL:       cfg.JWTTTL,
				Logger:       logger,
			})
			return server.Start(ctx, cfg.Addr, r, logger)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "apply the database schema on startup")
	cmd.Flags().BoolVar(&sweep, "sweep", true, "periodically remove waiting reservations for past dates")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

// newPublisher returns the Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func newPublisher(cfg config.Config, logger *slog.Logger) (reservation.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Noop{}, func() {}
	}
	kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	logger.Info("publishing reservation events", slog.String("topic", cfg.KafkaTopic))
	return kp, func() {
		if err := kp.Close(); err != nil {
			logger.Warn("close event publisher", slog.Any("error", err))
		}
	}
}
