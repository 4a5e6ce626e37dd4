/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/ecoforge/apiserver/config"
	"github.com/ecoforge/apiserver/internal/server"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the EcoForge backend server",
	Long: `Starts the EcoForge backend server. Usage:

	ecoforge server
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		srv, err := server.New(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
			os.Exit(1)
		}
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
