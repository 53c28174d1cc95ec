package app

import (
	"context"

	"iedb-epitope-parser/internal/config"
	"iedb-epitope-parser/internal/extractor"
	"iedb-epitope-parser/internal/fetcher"
	"iedb-epitope-parser/internal/input"
	"iedb-epitope-parser/internal/record"
	"iedb-epitope-parser/internal/report"
	"iedb-epitope-parser/internal/storage"
)

type Orchestrator struct {
	cfg       *config.Config
	reporter  *report.Reporter
	fetcher   *fetcher.Fetcher
	extractor *extractor.Extractor
	repo      storage.Repository // optional, nil when storage is disabled
	organism  string             // optional override for the Organism column
}

func NewOrchestrator(
	cfg *config.Config,
	reporter *report.Reporter,
	f *fetcher.Fetcher,
	e *extractor.Extractor,
	repo storage.Repository,
	organism string,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		reporter:  reporter,
		fetcher:   f,
		extractor: e,
		repo:      repo,
		organism:  organism,
	}
}

type RunStats struct {
	TotalLinks int
	Extracted  int
	Failed     int
}

// Run walks the URL list in order: fetch, extract, build, append. Every
// per-URL failure is logged and skipped; a cancelled context ends the loop
// early with whatever rows were collected so far.
func (o *Orchestrator) Run(ctx context.Context, urls []input.Line) (*record.Table, *RunStats) {
	table := record.NewTable()
	stats := &RunStats{TotalLinks: len(urls)}

	for i, link := range urls {
		if ctx.Err() != nil {
			o.reporter.Info("run cancelled", "processed", i, "total", len(urls))
			break
		}

		html, err := o.fetcher.Fetch(ctx, link.URL)
		if err != nil {
			o.reporter.LogFailure(link.URL, err)
			stats.Failed++
			o.reporter.Progress(i+1, len(urls))
			continue
		}

		fields, err := o.extractor.Extract(html)
		if err != nil {
			o.reporter.LogFailure(link.URL, err)
			stats.Failed++
			o.reporter.Progress(i+1, len(urls))
			continue
		}

		row := record.Build(fields, link.URL)
		if o.organism != "" {
			row.Organism = o.organism
		}

		table.Append(row)
		stats.Extracted++

		if o.repo != nil {
			if _, err := o.repo.UpsertRow(ctx, row); err != nil {
				// Storage mirrors the CSV; a failed upsert is logged
				// without dropping the row from the table.
				o.reporter.Error("storage upsert failed", "url", link.URL, "error", err)
			}
		}

		o.reporter.Progress(i+1, len(urls))
	}

	return table, stats
}
