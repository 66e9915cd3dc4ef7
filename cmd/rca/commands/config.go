package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fourkites/rca-core/internal/rcaconfig"
)

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if err := rcaconfig.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("wrote default config to %s\n", path)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and scaffold configuration",
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
