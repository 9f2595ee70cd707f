// Package cmd provides the clustersim command-line interface: the run
// subcommand that loads a configuration set and drives one simulated
// cluster to completion.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clustersim",
	Short: "clustersim simulates a distributed ML training cluster's communication and compute schedule.",
	Long: `clustersim is a discrete-event simulator for distributed ML training
clusters: it replays per-rank execution traces against a logical network
topology, expanding each collective communication call into point-to-point
chunk transfers scheduled over the topology's dimensions.`,
}

// Execute runs the root command, exiting the process with a non-zero
// status on any configuration or trace I/O error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
