package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/app"
	config "github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(logger.NewSlogLogger()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(log logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "app",
		Short:         "POS backend: catalog, sale commit and analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd(log))
	cmd.AddCommand(newMigrateCmd(log))
	cmd.AddCommand(newReportCmd(log))
	return cmd
}

func newServeCmd(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP and gRPC servers and the outbox worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(log)
			if err != nil {
				log.Errorf(err, "failed to load config")
				return err
			}

			application, err := app.NewApp(cfg, log)
			if err != nil {
				log.Errorf(err, "failed to initialize app")
				return err
			}

			return application.Run()
		},
	}
}

func newMigrateCmd(log logger.Logger) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg, err := config.LoadDB(log)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			return app.Migrate(ctx, dbCfg, log)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "connection timeout")
	return cmd
}

func newReportCmd(log logger.Logger) *cobra.Command {
	var (
		out   string
		store bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the XLSX sales report",
		Long:  "Build the sales report from the full history and write it to a file, optionally uploading it to object storage.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" && !store {
				return fmt.Errorf("nothing to do: set --out or --store")
			}

			cfg, err := config.LoadReport(log)
			if err != nil {
				return err
			}

			opts := app.ReportOptions{Store: store}
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				opts.Out = f
			}

			stored, err := app.GenerateReport(cmd.Context(), cfg, log, opts)
			if err != nil {
				return err
			}

			if out != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", out)
			}
			if stored != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "report stored as %s\n%s\n", stored.Key, stored.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "sales.xlsx", "file to write the report to (empty to skip)")
	cmd.Flags().BoolVar(&store, "store", false, "upload the report to object storage and print a download link")
	return cmd
}
