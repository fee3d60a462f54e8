package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rocket-dispersion/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "dispersion",
	Short: "Monte Carlo rocket dispersion toolkit",
	Long:  "dispersion runs Monte Carlo campaigns against an external flight simulator and analyzes the trial logs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.NewWithLevel(logLevel, os.Stderr)
		cmd.SetContext(logging.NewContext(cmd.Context(), logger))
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
}
