package main

import (
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rocket-dispersion/internal/config"
	"rocket-dispersion/internal/record"
)

var (
	replayInput      string
	replayConfigPath string
	replayCampaign   string
	replayPrintOnly  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay an outputs log",
	Long:  "replay feeds successful-trial records from an outputs log into the configured mirrors or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg *config.CampaignConfig
		if replayConfigPath != "" {
			var err error
			if cfg, err = config.Load(replayConfigPath, ""); err != nil {
				return err
			}
		}
		id := replayCampaign
		if id == "" {
			id = uuid.New().String()
		}
		sinks, err := replaySinks(cfg, id, replayPrintOnly)
		if err != nil {
			return err
		}
		defer sinks.Close()

		st, err := record.ReplayLogFile(replayInput, sinks.Recorder())
		if err != nil {
			return err
		}
		log.Printf("[Replay] %d records replayed as campaign %s, %d malformed lines skipped", st.Records, id, st.Malformed)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to an outputs log")
	replayCmd.Flags().StringVar(&replayConfigPath, "config", "", "Campaign configuration naming the mirrors to replay into")
	replayCmd.Flags().StringVar(&replayCampaign, "campaign", "", "Campaign id to record the replay under (generated when empty)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print records to STDOUT instead of writing to the mirrors")
	replayCmd.MarkFlagRequired("input")
}
