package client

import (
	"strings"
	"time"
)

// jsonTime tolerates the backend's timestamp quirks: RFC3339 with or
// without fractional seconds, and null/empty for documents that have not
// been touched yet.
type jsonTime struct {
	time.Time
}

func (t *jsonTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}

	// Unparsable timestamps degrade to zero rather than failing the
	// whole document decode.
	t.Time = time.Time{}
	return nil
}
