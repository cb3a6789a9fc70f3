package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestComponentTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	defer func() { log.Logger = orig }()
	log.Logger = zerolog.New(&buf).With().Str("service", service).Logger()

	l := Component("poller")
	l.Info().Msg("timer armed")

	out := buf.String()
	assert.Contains(t, out, `"service":"docsync-engine"`)
	assert.Contains(t, out, `"component":"poller"`)
}
