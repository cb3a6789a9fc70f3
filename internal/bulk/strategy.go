package bulk

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sendient/ai-detector-sub000/internal/model"
	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

// expectedHeader is the fixed import schema. The header row must match it
// exactly, in order; anything else aborts before a single row is parsed.
var expectedHeader = []string{
	"Firstname",
	"Lastname",
	"Email Address",
	"External ID",
	"Descriptor",
	"Assign to Class",
}

// ParseResult carries the rows that survived parsing plus the line
// numbers that were skipped for a field-count mismatch.
type ParseResult struct {
	Rows    []model.StudentRow
	Skipped []int
}

// ParsingStrategy turns a raw import payload into student rows. One
// strategy per supported file format.
type ParsingStrategy interface {
	Parse(ctx context.Context, data []byte) (*ParseResult, error)
}

func validateHeader(fields []string) error {
	if len(fields) != len(expectedHeader) {
		return errors.ValidationError{
			Field:   "header",
			Value:   strings.Join(fields, ","),
			Message: fmt.Sprintf("expected %d columns %v, got %d", len(expectedHeader), expectedHeader, len(fields)),
		}
	}
	for i, want := range expectedHeader {
		if fields[i] != want {
			return errors.ValidationError{
				Field:   "header",
				Value:   fields[i],
				Message: fmt.Sprintf("column %d must be '%s'", i+1, want),
			}
		}
	}
	return nil
}

// parseRow maps one tokenized data row onto a StudentRow. Blank optional
// cells become nil, never the empty string.
func parseRow(fields []string) model.StudentRow {
	optional := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}

	return model.StudentRow{
		FirstName:     fields[0],
		LastName:      fields[1],
		Email:         optional(fields[2]),
		ExternalID:    optional(fields[3]),
		Descriptor:    optional(fields[4]),
		AssignToClass: optional(fields[5]),
	}
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
