package main

import (
	"log"

	"github.com/spf13/cobra"

	"rocket-dispersion/internal/config"
	"rocket-dispersion/internal/dashboard"
	"rocket-dispersion/internal/record"
)

var (
	dashboardOut        string
	dashboardConfigPath string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards for the GreptimeDB mirror",
	Long:  "dashboard renders Grafana dashboard JSON over the GreptimeDB trial tables. GREPTIMEDB_DATASOURCE_UID names the Grafana datasource.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var gcfg record.GreptimeConfig
		if dashboardConfigPath != "" {
			cfg, err := config.Load(dashboardConfigPath, "")
			if err != nil {
				return err
			}
			if cfg.Sinks.Greptime != nil {
				gcfg = cfg.Sinks.Greptime.Record()
			}
		}
		if err := dashboard.Render(dashboardOut, gcfg); err != nil {
			return err
		}
		log.Printf("[Dashboard] rendered into %s", dashboardOut)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "build", "Output directory")
	dashboardCmd.Flags().StringVar(&dashboardConfigPath, "config", "", "Campaign configuration with the greptime sink table names")
}
