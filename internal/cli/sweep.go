package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dwax1324/roomescape-payment/internal/config"
	"github.com/dwax1324/roomescape-payment/internal/db"
	"github.com/dwax1324/roomescape-payment/internal/lock"
	"github.com/dwax1324/roomescape-payment/internal/logging"
	"github.com/dwax1324/roomescape-payment/internal/sweeper"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var once bool

	c := &cobra.Command{
		Use:   "sweep",
		Short: "Remove waiting reservations whose date has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := logging.New(os.Stderr, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DSN())
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			defer d.Close()

			publisher, closePublisher := newPublisher(cfg, logger)
			defer closePublisher()

			sw := sweeper.Sweeper{
				Store:     db.NewReservationStore(d),
				Locker:    lock.MySQL{DB: d.DB.DB, TimeoutSeconds: cfg.LockTimeoutSec},
				Publisher: publisher,
				Interval:  cfg.SweepInterval,
				Logger:    logger,
			}
			if !once {
				sw.Run(ctx)
				return nil
			}
			n, err := sw.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d stale waiting reservation(s)\n", n)
			return nil
		},
	}
	c.Flags().BoolVar(&once, "once", false, "sweep once and exit")
	return c
}
