// Package cli implements the pedigree command-line interface.
//
// This package provides commands for importing family-tree documents and
// their rendered images, listing and resolving the patients a family links
// to, removing patient links, rendering Graphviz previews and serving the
// HTTP API. The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - import, export: Move family documents and images in and out of the store
//   - ids, props, patients: Inspect the patient links of a family
//   - image: Write the image highlighted for a viewing patient
//   - unlink: Remove a patient's links from document and image
//   - check: Report links present in only one of document and image
//   - preview: Lay out a document with Graphviz
//   - serve: Run the HTTP API
//
// # Configuration
//
// Backends are chosen by a TOML file, see package config. --config selects
// another file and --verbose (-v) enables debug logging together with the
// observability log hooks.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates the CLI logger: timestamps as "15:04:05.00", messages
// below level dropped.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one operation and logs its completion.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and the elapsed time, rounded to
// the millisecond, under "took".
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}
