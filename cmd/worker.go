/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/ecoforge/apiserver/config"
	"github.com/ecoforge/apiserver/internal/worker"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Starts the score aggregation worker",
	Long: `Starts the score aggregation worker. It consumes waste-log events from
the configured message broker and keeps per-user point totals up to date. Usage:

	ecoforge worker
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		w, err := worker.New(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start worker: %v\n", err)
			os.Exit(1)
		}
		if err := w.Run(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
