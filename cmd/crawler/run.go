package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/user/bfs-crawler/pkg/config"
	"github.com/user/bfs-crawler/pkg/logger"
	"go.uber.org/zap"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"input":       "inputFile",
	"output":      "outputFile",
	"max-depth":   "maxDepth",
	"max-links":   "maxLinksPerPage",
	"delay-ms":    "delayMs",
	"max-pages":   "maxPages",
	"renderer":    "renderer.kind",
	"frontier":    "frontier.backend",
	"server-addr": "server.addr",
	"log-level":   "log.level",
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [url...]",
		Short: "Crawl from the seed file or the given URLs",
		Long: `Run crawls breadth-first from the URLs in the input file. When the file is
missing or empty, the startUrls from the configuration (or the positional
arguments) are used instead.

Settings are merged from defaults, an optional config file, CRAWLER_*
environment variables and flags, in increasing priority.

Examples:
  # Crawl two levels deep with the browser renderer
  crawler run --max-depth 2 https://example.com

  # Use plain HTTP fetching and a Redis-backed frontier
  crawler run --renderer static --frontier redis -c crawler.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file (YAML or JSON)")
	cmd.Flags().StringP("input", "i", "", "Seed file with one URL per line")
	cmd.Flags().StringP("output", "o", "", "Output file (.json, .yaml or .yml)")
	cmd.Flags().IntP("max-depth", "d", 0, "Maximum crawl depth (0 = unlimited)")
	cmd.Flags().Int("max-links", 0, "Maximum links followed per page")
	cmd.Flags().Int("delay-ms", 0, "Pause after each page in milliseconds")
	cmd.Flags().Int("max-pages", 0, "Stop after this many pages (0 = unlimited)")
	cmd.Flags().String("renderer", "", "Renderer: chromedp or static")
	cmd.Flags().String("frontier", "", "Frontier backend: memory or redis")
	cmd.Flags().String("server-addr", "", "Serve status and metrics on this address")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Output: cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	output, err := runCrawl(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("run complete",
		zap.String("run_id", output.RunID),
		zap.Int("results", len(output.Results)),
		zap.Int("failed", output.Stats.Failed),
	)
	return nil
}

// buildConfig merges defaults, config file, environment, changed flags and positional URLs.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	v := config.New()
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		v.Set("startUrls", args)
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}
