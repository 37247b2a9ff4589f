package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	apperrors "github.com/kurihiro0119/issue-delivery-scorecard/internal/errors"
)

// CSVSource reads a table from a CSV file with a header row
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV source
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Load reads the whole file. Rows whose field count differs from the header
// are skipped and counted in SkippedRows.
func (s *CSVSource) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", s.path))
		}
		return nil, apperrors.NewInvalidInputError("failed to open "+s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewInvalidInputError(s.path+" has no header row", nil)
	}
	if err != nil {
		return nil, apperrors.NewInvalidInputError("failed to read "+s.path, err)
	}

	var rows [][]string
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if errors.Is(err, csv.ErrFieldCount) {
			skipped++
			continue
		}
		if err != nil {
			return nil, apperrors.NewInvalidInputError("failed to read "+s.path, err)
		}
		rows = append(rows, record)
	}

	t := newTable(s.path, header, rows)
	t.SkippedRows = skipped
	return t, nil
}
