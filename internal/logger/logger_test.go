package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("whatever"))
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("info", buf)

	log.Debug().Msg("hidden")
	log.Info().Str("account_code", "abc").Msg("balance refreshed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "balance refreshed")
	assert.Contains(t, out, `"account_code":"abc"`)
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter("debug", buf))

	log := FromContext(ctx)
	log.Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")

	silent := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, silent.GetLevel())
}
