package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var nodeConfigPath = "trellis.yaml"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trellis",
	Short: "Trellis Adaptive Mesh Control CLI",
	Long: `Trellis is an adaptive control layer for LoRa mesh transports.
It replaces fixed-interval route advertisements with a trickle schedule, estimates
per-neighbour link quality from received traffic, and steers gateway selection by
link cost and gateway load.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "tl",
		Title: "Trellis Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&nodeConfigPath, "node-config", "n", nodeConfigPath, "node-specific config")
}
