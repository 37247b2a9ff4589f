package source

import (
	"context"
	"log/slog"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

// Loader reads a calculation extract and parses it into records
type Loader struct {
	src    Source
	parser *Parser
	logger *slog.Logger
}

// NewLoader creates a loader
func NewLoader(src Source, parser *Parser, logger *slog.Logger) *Loader {
	return &Loader{src: src, parser: parser, logger: logger}
}

// Load returns the extract together with its parsed records. Quality
// findings are logged, never returned as errors.
func (l *Loader) Load(ctx context.Context) (*Table, []domain.Record, error) {
	t, err := l.src.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	CheckQuality(t, l.logger)

	records, stats := l.parser.ToRecords(t)
	if stats.MalformedDates > 0 {
		l.logger.Warn("unparseable dates treated as unknown", "table", t.Name, "count", stats.MalformedDates)
	}
	return t, records, nil
}

// LoadRecords returns the parsed records only
func (l *Loader) LoadRecords(ctx context.Context) ([]domain.Record, error) {
	_, records, err := l.Load(ctx)
	return records, err
}
