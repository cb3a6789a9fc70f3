package bulk

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// CSVStrategy parses the delimited-text import format: a fixed header
// line followed by comma-separated data rows. Fields are split on bare
// commas; the format does not support quoting.
type CSVStrategy struct {
	log zerolog.Logger
}

func NewCSVStrategy() *CSVStrategy {
	return &CSVStrategy{
		log: logger.Component("bulk-csv"),
	}
}

func (s *CSVStrategy) Parse(ctx context.Context, data []byte) (*ParseResult, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	// Drop a trailing newline artifact so the length check counts real
	// lines only.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) < 2 {
		return nil, errors.ValidationError{
			Field:   "payload",
			Value:   len(lines),
			Message: "need a header line and at least one data row",
		}
	}

	header := trimAll(strings.Split(lines[0], ","))
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	result := &ParseResult{}
	for i, line := range lines[1:] {
		lineNo := i + 2
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := trimAll(strings.Split(line, ","))
		if len(fields) != len(header) {
			s.log.Warn().
				Int("line", lineNo).
				Int("fields", len(fields)).
				Int("expected", len(header)).
				Msg("Skipping row with wrong field count")
			result.Skipped = append(result.Skipped, lineNo)
			continue
		}

		result.Rows = append(result.Rows, parseRow(fields))
	}

	return result, nil
}

var _ ParsingStrategy = (*CSVStrategy)(nil)
