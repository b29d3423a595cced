package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dwax1324/roomescape-payment/internal/config"
	"github.com/dwax1324/roomescape-payment/internal/db"
	"github.com/dwax1324/roomescape-payment/internal/logging"
	"github.com/dwax1324/roomescape-payment/internal/seed"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Load themes, time slots and members from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			cfg := config.Load()
			logger := logging.New(os.Stderr, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DSN())
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			defer d.Close()

			if err := d.EnsureSchema(ctx); err != nil {
				return err
			}
			return seed.Apply(ctx, d, f, logger)
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "seed.yml", "seed file (YAML)")
	return c
}
