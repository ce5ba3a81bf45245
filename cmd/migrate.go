package main

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/config"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema or the Mongo indexes for STORE_DRIVER",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			st, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			st.close()
			log.WithField("driver", cfg.StoreDriver).Info("store is up to date")
			return nil
		},
	}
}
