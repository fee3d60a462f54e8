package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"rocket-dispersion/internal/analysis"
	"rocket-dispersion/internal/record"
	"rocket-dispersion/internal/report"
)

type analyzeOptions struct {
	Base     string
	Input    string
	Errors   string
	Format   string
	SQLite   string
	Campaign string
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregate a campaign's outputs into statistics and dispersion ellipses",
	Long:  "analyze reloads the outputs log (or a SQLite mirror) of a campaign and renders per-metric statistics, histograms and dispersion ellipses.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyze(cmd.OutOrStdout(), analyzeOpts)
	},
}

func analyze(w io.Writer, opts analyzeOptions) error {
	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	var agg *analysis.Aggregate
	if opts.SQLite != "" {
		agg, err = analyzeSQLite(opts.SQLite, opts.Campaign)
	} else {
		agg, err = analyzeLogs(opts)
	}
	if err != nil {
		return err
	}
	return report.Render(w, format, agg)
}

func analyzeLogs(opts analyzeOptions) (*analysis.Aggregate, error) {
	input, errPath := opts.Input, opts.Errors
	if opts.Base != "" {
		paths := record.PathsFor(opts.Base)
		if input == "" {
			input = paths.Outputs
		}
		if errPath == "" {
			errPath = paths.Errors
		}
	}
	if input == "" {
		return nil, errors.New("either --base or --input is required")
	}
	agg, err := analysis.AnalyzeFile(input)
	if err != nil {
		return nil, err
	}
	if errPath != "" {
		errs, _, err := record.LoadErrorsFile(errPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			agg.Failures = len(errs)
		}
	}
	return agg, nil
}

func analyzeSQLite(path, campaignID string) (*analysis.Aggregate, error) {
	if campaignID == "" {
		return nil, errors.New("--campaign is required with --sqlite")
	}
	store, err := record.NewSQLiteStore(path, campaignID)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	outs, err := store.Outputs(campaignID)
	if err != nil {
		return nil, err
	}
	agg, err := analysis.Analyze(outs)
	if err != nil {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, err)
	}
	_, failures, err := store.Counts(campaignID)
	if err != nil {
		return nil, err
	}
	agg.Failures = failures
	return agg, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOpts.Base, "base", "", "Base path of the campaign logs")
	analyzeCmd.Flags().StringVar(&analyzeOpts.Input, "input", "", "Path to an outputs log")
	analyzeCmd.Flags().StringVar(&analyzeOpts.Errors, "errors", "", "Path to the errors log, used for the failure count")
	analyzeCmd.Flags().StringVar(&analyzeOpts.Format, "format", "text", "Report format (text, json, csv)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.SQLite, "sqlite", "", "Read outputs from a SQLite mirror instead of the logs")
	analyzeCmd.Flags().StringVar(&analyzeOpts.Campaign, "campaign", "", "Campaign id to read from the SQLite mirror")
}
