package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/civic-digest/internal/bootstrap"
	"github.com/kirillkom/civic-digest/internal/config"
	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/observability/logging"
)

const testMaxPages = 2

type runFlags struct {
	crawlOnly     bool
	summarizeOnly bool
	test          bool
	testCount     int
	maxPages      int
	force         bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var profile string
	root := &cobra.Command{
		Use:          "digest",
		Short:        "Turn municipal PDFs into summarized markdown cards",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&profile, "profile", "", "document profile: press or plans (default from DIGEST_PROFILE)")

	root.AddCommand(newRunCmd(&profile), newInventoryCmd(&profile))
	return root
}

func newRunCmd(profile *string) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Crawl new PDFs and summarize everything not yet converted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(*profile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-pages") {
				flags.maxPages = app.Config.CrawlMaxPages
			}
			opts := flags.options()

			report, runErr := app.Pipeline.Run(cmd.Context(), opts)
			if err := app.Flush(); err != nil {
				app.Logger.Warn("metrics_flush_failed", "error", err)
			}
			if runErr != nil {
				app.Logger.Error("run_failed", "error", runErr)
				return runErr
			}
			if !opts.CrawlOnly {
				fmt.Fprintf(cmd.OutOrStdout(), "processed=%d existing=%d skipped=%d total=%d\n",
					report.Processed, report.Existing, report.Skipped, report.Total)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.crawlOnly, "crawl-only", false, "only run the crawler")
	f.BoolVar(&flags.summarizeOnly, "summarize-only", false, "only summarize PDFs already downloaded")
	f.BoolVar(&flags.test, "test", false, "test mode: crawl 2 pages and summarize a few files")
	f.IntVar(&flags.testCount, "test-count", 3, "files summarized in test mode")
	f.IntVar(&flags.maxPages, "max-pages", 5, "listing pages the crawler visits")
	f.BoolVar(&flags.force, "force", false, "regenerate documents that already have an output")
	cmd.MarkFlagsMutuallyExclusive("crawl-only", "summarize-only")
	return cmd
}

func (f runFlags) options() domain.RunOptions {
	opts := domain.RunOptions{
		Force:         f.force,
		CrawlOnly:     f.crawlOnly,
		SummarizeOnly: f.summarizeOnly,
		MaxPages:      f.maxPages,
	}
	if f.test {
		opts.MaxPages = testMaxPages
		opts.Limit = f.testCount
	}
	return opts
}

func newInventoryCmd(profile *string) *cobra.Command {
	var xlsxPath string
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Compare downloaded PDFs with generated markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(*profile)
			if err != nil {
				return err
			}
			inv, err := app.Inventory.Build(cmd.Context())
			if err != nil {
				app.Logger.Error("inventory_failed", "error", err)
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pdf=%d markdown=%d converted=%d success=%.1f%%\n",
				inv.PDFCount, inv.MarkdownCount, inv.Converted, inv.SuccessRate())
			for _, name := range inv.Unconverted {
				fmt.Fprintf(out, "unconverted: %s\n", name)
			}
			for _, department := range inv.MissingDepartments {
				fmt.Fprintf(out, "missing department: %s\n", department)
			}

			if xlsxPath == "" {
				xlsxPath = app.Config.InventoryXLSX
			}
			if xlsxPath != "" {
				return app.Inventory.Export(cmd.Context(), inv, xlsxPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the inventory to this .xlsx file")
	return cmd
}

func newApp(profile string) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if profile != "" {
		cfg.Profile = profile
	}
	logger, _ := logging.WithRunID(logging.New(os.Stdout, "digest", cfg.LogLevel, cfg.LogFormat))
	logger = logger.With("profile", cfg.Profile)

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		return nil, err
	}
	return app, nil
}
