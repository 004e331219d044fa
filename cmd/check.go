package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/xmesh-net/trellis/state"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the node configuration",
	Long:  `Parses the node config, fills in defaults, and reports the first validation error, if any.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadNodeConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			panic(err)
		}
		fmt.Printf("config ok\n%s", out)
	},
	GroupID: "tl",
}

func loadNodeConfig() (*state.LocalCfg, error) {
	var cfg state.LocalCfg
	file, err := os.ReadFile(nodeConfigPath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	state.ExpandLocalConfig(&cfg)
	err = state.NodeConfigValidator(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
