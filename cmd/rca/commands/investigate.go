package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fourkites/rca-core/internal/rcacore"
)

var (
	investigateConfig     string
	investigateLoadNumber string
	investigateTrackingID string
	investigateModeHint   string
	investigateJSON       bool
)

var investigateCmd = &cobra.Command{
	Use:   "investigate [description]",
	Short: "Run a single investigation from the command line and print the verdict",
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
			LoadNumber:  investigateLoadNumber,
			TrackingID:  investigateTrackingID,
			ModeHint:    investigateModeHint,
		}
		if !incident.HasUsableInput() {
			return fmt.Errorf("provide a description, --load-number, or --tracking-id")
		}

		orch, _, err := buildOrchestrator(investigateConfig)
		if err != nil {
			return err
		}

		ctx := context.Background()
		stream := orch.Investigate(ctx, incident)

		interactive := term.IsTerminal(int(os.Stdout.Fd()))
		var verdictEvent *rcacore.Event
		for event := range stream.Events() {
			e := event
			if interactive && !investigateJSON {
				printEventLine(e)
			}
			if e.Type == rcacore.EventVerdict {
				verdictEvent = &e
			}
		}

		if investigateJSON {
			if verdictEvent != nil {
				b, _ := json.MarshalIndent(verdictEvent, "", "  ")
				fmt.Println(string(b))
			}
			return nil
		}

		if verdictEvent == nil {
			fmt.Println("investigation ended without a verdict")
			return nil
		}
		fmt.Printf("\nRoot cause: %s (category=%s, confidence=%.2f)\n", verdictEvent.RootCause, verdictEvent.Category, verdictEvent.Confidence)
		if len(verdictEvent.Actions) > 0 {
			fmt.Println("Recommended actions:")
			for _, a := range verdictEvent.Actions {
				fmt.Printf("  - %s\n", a)
			}
		}
		if verdictEvent.NeedsHuman {
			fmt.Printf("Needs human review: %s\n", verdictEvent.HumanQuestion)
		}
		return nil
	},
}

func printEventLine(e rcacore.Event) {
	switch e.Type {
	case rcacore.EventRouted:
		fmt.Printf("routed: intent=%s domain=%s confidence=%.2f\n", e.Intent, e.Domain, e.Confidence)
	case rcacore.EventHypothesis:
		fmt.Printf("hypothesis: %s (%s)\n", e.Description, e.Category)
	case rcacore.EventSubAgentSpawn:
		fmt.Printf("agent %s: spawned for hypothesis %s\n", e.AgentID, e.HypothesisID)
	case rcacore.EventEvidence:
		fmt.Printf("agent %s: %s/%s -> %s\n", e.AgentID, e.Source, e.Capability, e.Outcome)
	case rcacore.EventSubAgentDone:
		fmt.Printf("agent %s: done (%s)\n", e.AgentID, e.TerminalReason)
	case rcacore.EventError:
		fmt.Printf("error: %s\n", e.Message)
	}
}

func init() {
	investigateCmd.Flags().StringVar(&investigateConfig, "config", "", "path to config YAML file")
	investigateCmd.Flags().StringVar(&investigateLoadNumber, "load-number", "", "known load number")
	investigateCmd.Flags().StringVar(&investigateTrackingID, "tracking-id", "", "known tracking id")
	investigateCmd.Flags().StringVar(&investigateModeHint, "mode", "", "transport mode hint (ground|ocean|drayage|air)")
	investigateCmd.Flags().BoolVar(&investigateJSON, "json", false, "print only the final verdict as JSON")
}
