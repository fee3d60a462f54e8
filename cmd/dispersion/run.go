package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rocket-dispersion/internal/admin"
	"rocket-dispersion/internal/campaign"
	"rocket-dispersion/internal/config"
	"rocket-dispersion/internal/logging"
	"rocket-dispersion/internal/sampler"
)

var (
	runConfigPath string
	runSchemaPath string
	runTrials     int
	runSeed       uint64
	runOutput     string
	runTUI        bool
	runAdminAddr  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a Monte Carlo dispersion campaign",
	Long:  "run samples the configured parameter distributions, drives one engine invocation per trial and appends every trial to the campaign logs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(runConfigPath, runSchemaPath)
		if err != nil {
			return err
		}
		applyRunOverrides(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		spec, err := cfg.ToSpec()
		if err != nil {
			return err
		}
		engine, err := cfg.ExecEngine()
		if err != nil {
			return err
		}

		logger := logging.FromContext(cmd.Context())
		if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
			logger = logging.NewWithLevel(cfg.LogLevel, os.Stderr)
		}
		tui := runTUI && term.IsTerminal(int(os.Stdout.Fd()))
		if runTUI && !tui {
			logger.Warn("stdout is not a terminal, TUI disabled")
		}
		if tui {
			// the TUI owns the terminal; its log pane shows the trials
			logger = logging.NewWithLevel(cfg.LogLevel, io.Discard)
			log.SetOutput(io.Discard)
			defer log.SetOutput(os.Stderr)
		}

		id := uuid.New().String()
		sinks, err := runSinks(cfg, id, tui)
		if err != nil {
			return err
		}
		defer func() {
			if err := sinks.Close(); err != nil {
				logger.Error("closing sinks", "err", err)
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := sampler.New(spec, cfg.Campaign.Trials, cfg.Campaign.Seed)
		runner := campaign.NewRunner(engine, cfg.Site, cfg.Engine.Settings, nil)
		c := campaign.New(campaign.Options{Name: cfg.Campaign.Name, ID: id, Trials: cfg.Campaign.Trials}, s, runner, sinks.Recorder(), logger)

		if cfg.Admin.Addr != "" {
			srv := admin.NewServer(c)
			go func() {
				if err := srv.Start(ctx, cfg.Admin.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("admin server failed", "err", err)
				}
			}()
		}

		res, err := c.Run(ctx)
		if err != nil {
			return err
		}
		if res.Interrupted {
			logger.Warn("campaign interrupted", "completed", res.Succeeded+res.Failed, "requested", res.Requested)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Campaign %s (%s): %d succeeded, %d failed\n%s\n",
			cfg.Campaign.Name, res.CampaignID, res.Succeeded, res.Failed, res.Summary)
		return nil
	},
}

// applyRunOverrides lets command line flags win over the config file.
func applyRunOverrides(cmd *cobra.Command, cfg *config.CampaignConfig) {
	flags := cmd.Flags()
	if flags.Changed("trials") {
		cfg.Campaign.Trials = runTrials
	}
	if flags.Changed("seed") {
		cfg.Campaign.Seed = runSeed
	}
	if flags.Changed("output") {
		cfg.Campaign.Output = runOutput
	}
	if flags.Changed("admin") {
		cfg.Admin.Addr = runAdminAddr
	}
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "config/campaign.yaml", "Path to campaign configuration YAML")
	runCmd.Flags().StringVar(&runSchemaPath, "schema", "", "Path to CUE schema file (defaults to the built-in schema)")
	runCmd.Flags().IntVar(&runTrials, "trials", 0, "Number of trials (overrides campaign.trials)")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "Sampler seed, 0 seeds from the clock (overrides campaign.seed)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "Base path of the trial logs (overrides campaign.output)")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show a live terminal view of the campaign")
	runCmd.Flags().StringVar(&runAdminAddr, "admin", "", "Serve campaign status on this address (e.g. :8080)")
}
