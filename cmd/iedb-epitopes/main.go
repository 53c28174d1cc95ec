package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"iedb-epitope-parser/internal/app"
	"iedb-epitope-parser/internal/config"
	"iedb-epitope-parser/internal/extractor"
	"iedb-epitope-parser/internal/fetcher"
	"iedb-epitope-parser/internal/input"
	"iedb-epitope-parser/internal/observability"
	"iedb-epitope-parser/internal/report"
	"iedb-epitope-parser/internal/storage"
	"iedb-epitope-parser/internal/storage/mssql"
	"iedb-epitope-parser/internal/writer"
)

var (
	inputPath  string
	outputPath string
	logPath    string
	organism   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:          "iedb-epitopes",
	Short:        "Extract epitope records from IEDB pages into a CSV table",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "file with one epitope page URL per line")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output CSV path")
	rootCmd.Flags().StringVarP(&logPath, "log", "l", "log.txt", "log file path")
	rootCmd.Flags().StringVar(&organism, "organism", "", "override the Organism column for every row")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "YAML config path")
	_ = rootCmd.MarkFlagRequired("input")
	_ = rootCmd.MarkFlagRequired("output")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, logCloser := observability.NewFileLogger(logPath, cfg.Observability.LogLevel)
	defer func() { _ = logCloser.Close() }()

	reporter := report.New(logger, true)

	urls, malformed, err := input.ReadURLList(inputPath)
	if err != nil {
		return err
	}
	for _, line := range malformed {
		reporter.LogMalformedLine(line.LineNum, line.URL)
	}

	f, err := fetcher.NewFetcher(cfg)
	if err != nil {
		return err
	}
	defer f.Close()

	var repo storage.Repository
	if cfg.Storage.Driver == "mssql" {
		mssqlRepo, err := mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout())
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		defer func() { _ = mssqlRepo.Close() }()
		repo = mssqlRepo
	}

	ctx, cancel := app.SignalContext(reporter)
	defer cancel()

	orchestrator := app.NewOrchestrator(cfg, reporter, f, extractor.New(), repo, organism)

	reporter.Start(len(urls))
	table, stats := orchestrator.Run(ctx, urls)
	reporter.Stop()

	if err := writer.WriteCSV(table.Rows(), outputPath); err != nil {
		reporter.Error("failed to write output CSV", "path", outputPath, "error", err)
		return err
	}

	reporter.Info("run completed",
		"links", stats.TotalLinks,
		"extracted", stats.Extracted,
		"failed", stats.Failed,
		"output", outputPath,
	)
	fmt.Printf("Extracted %d/%d pages into %s\n", stats.Extracted, stats.TotalLinks, outputPath)

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
