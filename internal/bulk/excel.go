package bulk

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// ExcelStrategy parses .xlsx import payloads. The first worksheet must
// carry the same fixed header and row contract as the text format.
type ExcelStrategy struct {
	log zerolog.Logger
}

func NewExcelStrategy() *ExcelStrategy {
	return &ExcelStrategy{
		log: logger.Component("bulk-excel"),
	}
}

func (s *ExcelStrategy) Parse(ctx context.Context, data []byte) (*ParseResult, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrInvalidFileFormat
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) < 2 {
		return nil, errors.ValidationError{
			Field:   "payload",
			Value:   len(rows),
			Message: "need a header row and at least one data row",
		}
	}

	header := trimAll(rows[0])
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	result := &ParseResult{}
	for i, row := range rows[1:] {
		rowNo := i + 2
		fields := trimAll(row)

		if allBlank(fields) {
			continue
		}

		// excelize drops trailing empty cells; pad short rows back to the
		// header width so a blank last column does not disqualify a row.
		if len(fields) < len(header) {
			padded := make([]string, len(header))
			copy(padded, fields)
			fields = padded
		}
		if len(fields) > len(header) {
			s.log.Warn().
				Int("row", rowNo).
				Int("fields", len(fields)).
				Int("expected", len(header)).
				Msg("Skipping row with too many cells")
			result.Skipped = append(result.Skipped, rowNo)
			continue
		}

		result.Rows = append(result.Rows, parseRow(fields))
	}

	return result, nil
}

func allBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

var _ ParsingStrategy = (*ExcelStrategy)(nil)
