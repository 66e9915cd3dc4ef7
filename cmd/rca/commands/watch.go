package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fourkites/rca-core/internal/rcacore"
	"github.com/fourkites/rca-core/internal/rcatui"
)

var (
	watchConfig     string
	watchLoadNumber string
	watchTrackingID string
	watchModeHint   string
)

var watchCmd = &cobra.Command{
	Use:   "watch [description]",
	Short: "Run an investigation and watch its progress in a terminal UI",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLog(logLevelFlags); err != nil {
			return err
		}

		description := ""
		if len(args) > 0 {
			description = args[0]
		}

		incident := rcacore.Incident{
			Description: description,
			LoadNumber:  watchLoadNumber,
			TrackingID:  watchTrackingID,
			ModeHint:    watchModeHint,
		}
		if !incident.HasUsableInput() {
			return fmt.Errorf("provide a description, --load-number, or --tracking-id")
		}

		orch, _, err := buildOrchestrator(watchConfig)
		if err != nil {
			return err
		}

		ctx := context.Background()
		stream := orch.Investigate(ctx, incident)
		return rcatui.Run(ctx, stream)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchConfig, "config", "", "path to config YAML file")
	watchCmd.Flags().StringVar(&watchLoadNumber, "load-number", "", "known load number")
	watchCmd.Flags().StringVar(&watchTrackingID, "tracking-id", "", "known tracking id")
	watchCmd.Flags().StringVar(&watchModeHint, "mode", "", "transport mode hint (ground|ocean|drayage|air)")
}
