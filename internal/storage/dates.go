package storage

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

const (
	schemaDateLayout = "20060102"
	dayLayout        = "2006-01-02"
)

// ThisWeekMonday returns the Monday of the week containing now, at midnight
func ThisWeekMonday(now time.Time) time.Time {
	// time.Weekday counts from Sunday
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// LastWeekRange returns Monday through Sunday of the week before now
func LastWeekRange(now time.Time) domain.DateRange {
	start := ThisWeekMonday(now).AddDate(0, 0, -7)
	return domain.DateRange{Start: start, End: start.AddDate(0, 0, 6)}
}

// SchemaDate returns the YYYYMMDD suffix of the snapshot schema. The
// configured value may be YYYYMMDD or YYYY-MM-DD; empty means this week's
// Monday.
func SchemaDate(configured string, now time.Time) (string, error) {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return ThisWeekMonday(now).Format(schemaDateLayout), nil
	}
	layout := schemaDateLayout
	if strings.Contains(configured, "-") {
		layout = dayLayout
	}
	d, err := time.Parse(layout, configured)
	if err != nil {
		return "", fmt.Errorf("invalid schema date %q: %w", configured, err)
	}
	return d.Format(schemaDateLayout), nil
}

// ResolveDateRange parses the configured start and end dates. When either
// is empty, malformed, or the start falls after the end, last week's range
// is used instead.
func ResolveDateRange(start, end string, now time.Time, logger *slog.Logger) domain.DateRange {
	fallback := LastWeekRange(now)
	if start == "" || end == "" {
		logger.Info("using last week's date range",
			"start", fallback.Start.Format(dayLayout), "end", fallback.End.Format(dayLayout))
		return fallback
	}

	s, errStart := time.ParseInLocation(dayLayout, start, now.Location())
	e, errEnd := time.ParseInLocation(dayLayout, end, now.Location())
	if errStart != nil || errEnd != nil || s.After(e) {
		logger.Warn("configured date range is invalid, using last week",
			"start", start, "end", end,
			"fallback_start", fallback.Start.Format(dayLayout), "fallback_end", fallback.End.Format(dayLayout))
		return fallback
	}
	return domain.DateRange{Start: s, End: e}
}
