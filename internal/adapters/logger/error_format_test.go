package logger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantMessages []string
		wantMetadata []map[string]any
	}{
		{
			name:         "single standard error",
			err:          errors.New("simple error"),
			wantMessages: []string{"simple error"},
			wantMetadata: []map[string]any{nil},
		},
		{
			name:         "zerr single error",
			err:          zerr.New("zerr error"),
			wantMessages: []string{"zerr error"},
			wantMetadata: []map[string]any{{}},
		},
		{
			name:         "zerr wrapped chain",
			err:          zerr.Wrap(zerr.Wrap(errors.New("exit status 1"), "command failed"), "step execution failed"),
			wantMessages: []string{"step execution failed", "command failed", "exit status 1"},
			wantMetadata: []map[string]any{{}, {}, nil},
		},
		{
			name:         "zerr with metadata",
			err:          zerr.With(zerr.With(zerr.New("missing required configuration key"), "key", "LESSC"), "builder", "Less"),
			wantMessages: []string{"missing required configuration key"},
			wantMetadata: []map[string]any{{"key": "LESSC", "builder": "Less"}},
		},
		{
			name:         "metadata on standard error moves to the message",
			err:          zerr.With(errors.New("connection refused"), "host", "localhost"),
			wantMessages: []string{"connection refused"},
			wantMetadata: []map[string]any{{"host": "localhost"}},
		},
		{
			name:         "stdlib chain is not traversed",
			err:          fmt.Errorf("outer: %w", errors.New("inner")),
			wantMessages: []string{"outer: inner"},
			wantMetadata: []map[string]any{nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := logger.CollectErrorEntries(tt.err)
			require.Len(t, entries, len(tt.wantMessages))
			for i, e := range entries {
				assert.Equal(t, tt.wantMessages[i], e.Message())
				assert.Equal(t, tt.wantMetadata[i], e.Metadata())
			}
		})
	}
}

func TestFormatErrorEntries(t *testing.T) {
	err := zerr.With(
		zerr.Wrap(zerr.With(zerr.New("Unknown file extension"), "target", "out.rar"), "step execution failed"),
		"step", "Archive(out.rar)",
	)

	got := logger.FormatErrorEntries(logger.CollectErrorEntries(err))
	want := "Error: step execution failed [step=Archive(out.rar)]\n" +
		"\n" +
		"  Caused by:\n" +
		"    → Unknown file extension [target=out.rar]"
	assert.Equal(t, want, got)
}

func TestFormatErrorEntries_SortsMetadata(t *testing.T) {
	e := zerr.New("validation failed")
	e = zerr.With(e, "zebra", "z")
	e = zerr.With(e, "alpha", "a")
	e = zerr.With(e, "mike", 3)

	got := logger.FormatErrorEntries(logger.CollectErrorEntries(e))
	assert.Equal(t, "Error: validation failed [alpha=a, mike=3, zebra=z]", got)
}
