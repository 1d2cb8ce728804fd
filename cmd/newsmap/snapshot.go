package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/insurance-news-map/internal/config"
	"github.com/couchcryptid/insurance-news-map/internal/observability"
	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run the pipeline once and print the articles as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			// Logs go to stderr so stdout stays valid JSON.
			logger := observability.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

			a, err := newApp(cfg, logger, observability.NewUnregisteredMetrics())
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			articles, err := a.pipeline.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("build news payload: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(articles)
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}
