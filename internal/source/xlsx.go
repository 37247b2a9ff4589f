package source

import (
	"context"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/kurihiro0119/issue-delivery-scorecard/internal/errors"
)

// DefaultSheet is the sheet name database export tools write by default
const DefaultSheet = "Result 1"

// XLSXSource reads a table from one sheet of an xlsx workbook
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource creates an xlsx source. An empty sheet means DefaultSheet.
func NewXLSXSource(path, sheet string) *XLSXSource {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &XLSXSource{path: path, sheet: sheet}
}

// Load reads the sheet; the first row is the header
func (s *XLSXSource) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", s.path))
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("failed to open "+s.path, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(s.sheet); err != nil || idx < 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("sheet %q in %s", s.sheet, s.path))
	}

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("failed to read sheet %q", s.sheet), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("sheet %q has no header row", s.sheet), nil)
	}

	return newTable(s.path, rows[0], rows[1:]), nil
}
