package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/library/circulation"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/db"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/seed"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "libadmin",
		Short:        "Administrative tasks for the library backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to config file")

	root.AddCommand(seedCmd(), loanCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default fixture users and books (idempotent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := db.LoadConfig(configPath)
			if err != nil {
				return err
			}
			conn, err := db.Connect(cfg.DB)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := seed.Apply(ctx, conn, seed.Default()); err != nil {
				return err
			}
			fmt.Println("seed applied")
			return nil
		},
	}
}

func loanCmd() *cobra.Command {
	loan := &cobra.Command{
		Use:   "loan",
		Short: "Loan maintenance",
	}

	destroy := &cobra.Command{
		Use:   "destroy <loan-id>",
		Short: "Hard-delete a loan record",
		Long:  "Hard-delete a loan record. This bypasses check-in and is meant for cleaning up bad data.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := db.LoadConfig(configPath)
			if err != nil {
				return err
			}
			conn, err := db.Connect(cfg.DB)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc, err := circulation.NewService(conn, cfg.Circulation)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := svc.Destroy(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("loan %s destroyed\n", args[0])
			return nil
		},
	}

	loan.AddCommand(destroy)
	return loan
}
