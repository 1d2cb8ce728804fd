package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsmap",
		Short: "Insurance news intelligence backend",
		Long: "newsmap ingests insurance news feeds and press releases, classifies each story as a " +
			"major loss or an M&A deal, geocodes the place it mentions, and serves the result as JSON.",
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newSnapshotCmd())
	return root
}
