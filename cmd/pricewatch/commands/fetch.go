package commands

import (
	"context"
	"os"

	"pricewatch/lib/configutil"
	"pricewatch/lib/pricestore"
	"pricewatch/lib/scrapers/openaipricing"
	"pricewatch/lib/telemetry"
	"pricewatch/lib/util/serviceutil"
	"pricewatch/services/tracker"

	"github.com/spf13/cobra"
)

type Config struct {
	SourceURL  string `json:"source_url"`
	OutputDir  string `json:"output_dir"`
	HistoryCap int    `json:"history_cap"`
	Render     *bool  `json:"render"`
}

var (
	fetchConfig *string
	fetchURL    *string
	fetchOut    *string
	fetchNoJS   *bool
)

func init() {
	fetchConfig = fetchCmd.Flags().String("config", "config.json5", "Path to the configuration file.")
	fetchURL = fetchCmd.Flags().String("url", "", "Pricing page to scrape, overrides the config.")
	fetchOut = fetchCmd.Flags().String("out", "", "Directory to publish artifacts to, overrides the config.")
	fetchNoJS = fetchCmd.Flags().Bool("no-render", false, "Fetch with a plain GET instead of headless Chrome.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--config <path>] [--url <page>] [--out <dir>]",
	Short: "Runs one scrape-and-publish cycle.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := configutil.ReadConfig[Config](*fetchConfig)
		if err != nil && !os.IsNotExist(err) {
			serviceutil.Fatal("failed to read config", err)
		}
		if cfg.SourceURL == "" {
			cfg.SourceURL = openaipricing.DefaultURL
		}
		if cfg.OutputDir == "" {
			cfg.OutputDir = "github_pages"
		}
		if cfg.HistoryCap == 0 {
			cfg.HistoryCap = pricestore.DefaultCap
		}
		render := cfg.Render == nil || *cfg.Render
		if *fetchURL != "" {
			cfg.SourceURL = *fetchURL
		}
		if *fetchOut != "" {
			cfg.OutputDir = *fetchOut
		}
		if *fetchNoJS {
			render = false
		}

		t, err := telemetry.SetupFromEnv(ctx, "pricewatch")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)

		service := tracker.NewService(tracker.Options{
			SourceURL:  cfg.SourceURL,
			OutputDir:  cfg.OutputDir,
			HistoryCap: cfg.HistoryCap,
			Render:     render,
		})
		err = service.RunOnce(ctx)
		if err != nil {
			serviceutil.Fatal("run failed", err)
		}
	},
}
