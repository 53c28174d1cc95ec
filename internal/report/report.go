// Package report carries the pipeline's observability: a persistent failure
// log and a terminal progress indicator. Neither affects the output table.
package report

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
)

type Reporter struct {
	logger *log.Logger
	spin   *spinner.Spinner
}

// New wires a reporter around the given log sink. The terminal spinner is
// optional so tests and non-TTY runs can turn it off.
func New(logger *log.Logger, showProgress bool) *Reporter {
	r := &Reporter{logger: logger}
	if showProgress {
		r.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	}
	return r
}

func (r *Reporter) Start(total int) {
	r.logger.Info("starting extraction", "links", total)
	if r.spin != nil {
		r.spin.Suffix = fmt.Sprintf(" 0/%d pages", total)
		r.spin.Start()
	}
}

func (r *Reporter) Stop() {
	if r.spin != nil {
		r.spin.Stop()
	}
}

// LogFailure records one skipped URL with its cause.
func (r *Reporter) LogFailure(url string, cause error) {
	r.logger.Error("page skipped", "url", url, "cause", cause)
}

// LogMalformedLine records an input file line that is not a URL.
func (r *Reporter) LogMalformedLine(lineNum int, raw string) {
	r.logger.Error("input line skipped", "line", lineNum, "content", raw)
}

// Progress advances the terminal indicator after each processed URL.
func (r *Reporter) Progress(current, total int) {
	r.logger.Debug("processed link", "current", current, "total", total)
	if r.spin != nil {
		r.spin.Suffix = fmt.Sprintf(" %d/%d pages", current, total)
	}
}

func (r *Reporter) Info(msg string, args ...any) {
	r.logger.Info(msg, args...)
}

func (r *Reporter) Error(msg string, args ...any) {
	r.logger.Error(msg, args...)
}
