package detector_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/adapters/tui"
)

func regularFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestDetectEnvironment(t *testing.T) {
	tests := []struct {
		name string
		ci   string
	}{
		{name: "CI=true", ci: "true"},
		{name: "CI=1", ci: "1"},
		{name: "no CI", ci: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CI", tt.ci)
			assert.Equal(t, detector.ModeLinear, detector.DetectEnvironment(regularFile(t)))
		})
	}

	t.Run("nil file", func(t *testing.T) {
		assert.Equal(t, detector.ModeLinear, detector.DetectEnvironment(nil))
	})
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		override string
		want     detector.OutputMode
	}{
		{"tui", detector.ModeTUI},
		{"linear", detector.ModeLinear},
		{"ci", detector.ModeLinear},
		{"auto", detector.ModeLinear},
		{"", detector.ModeLinear},
		{"fancy", detector.ModeLinear},
	}

	for _, tt := range tests {
		t.Run(tt.override, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.ResolveMode(detector.ModeLinear, tt.override))
		})
	}

	assert.Equal(t, detector.ModeTUI, detector.ResolveMode(detector.ModeTUI, "auto"))
}

func TestNewRenderer(t *testing.T) {
	out := regularFile(t)

	_, ok := detector.NewRenderer(out, out, "").(*linear.Renderer)
	assert.True(t, ok, "a file is not a terminal")

	_, ok = detector.NewRenderer(out, out, "tui").(*tui.Renderer)
	assert.True(t, ok, "override selects the interactive renderer")
}
