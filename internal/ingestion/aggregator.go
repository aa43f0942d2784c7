package ingestion

import (
	"fmt"
	"io"

	"github.com/ThiagoRGoveia/building-metadata/internal/models"
)

// ProgressReporter receives observability signals from an aggregation run.
// Nothing in the run depends on what a reporter does.
type ProgressReporter interface {
	Progress(count int)
	Writing(outputPath string)
}

// StdoutReporter prints the running count and a write notice, one line each.
type StdoutReporter struct {
	Out io.Writer
}

func (r StdoutReporter) Progress(count int) {
	fmt.Fprintln(r.Out, count)
}

func (r StdoutReporter) Writing(string) {
	fmt.Fprintln(r.Out, "Writing...")
}

type noopReporter struct{}

func (noopReporter) Progress(int)   {}
func (noopReporter) Writing(string) {}

// Aggregator collects projected buildings in the order they are added.
type Aggregator struct {
	buildings []models.Building
	interval  int
	reporter  ProgressReporter
}

// NewAggregator reports progress every interval buildings. An interval of zero
// or less disables progress reports.
func NewAggregator(interval int, reporter ProgressReporter) *Aggregator {
	if reporter == nil {
		reporter = noopReporter{}
	}
	return &Aggregator{
		buildings: make([]models.Building, 0),
		interval:  interval,
		reporter:  reporter,
	}
}

func (a *Aggregator) Add(building models.Building) {
	a.buildings = append(a.buildings, building)

	count := len(a.buildings)
	if a.interval > 0 && count%a.interval == 0 {
		a.reporter.Progress(count)
	}
}

func (a *Aggregator) Count() int {
	return len(a.buildings)
}

func (a *Aggregator) Aggregate() models.Aggregate {
	return models.Aggregate{Buildings: a.buildings}
}
