package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knitgraph/knitgraph/config"
)

// TestDefault checks the zero-file defaults.
func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 1.0, cfg.CourseHeight)
	assert.Equal(t, 1.0, cfg.StitchWidth)
	assert.Equal(t, 4, cfg.MaxConnections)
	assert.Equal(t, -1, cfg.StartIndex)
	assert.NoError(t, cfg.Validate())
}

// TestLoadFile reads gauge and flag values from a YAML file over the
// defaults.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knitgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"course_height: 0.5\nstitch_width: 0.25\npropagate_from_center: true\ndb: patterns.db\n",
	), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.CourseHeight)
	assert.Equal(t, 0.25, cfg.StitchWidth)
	assert.True(t, cfg.PropagateFromCenter)
	assert.Equal(t, "patterns.db", cfg.DB)
	// Defaults survive for keys the file omits.
	assert.Equal(t, 4, cfg.MaxConnections)
}

// TestLoadEnvOverride checks KNITGRAPH_* variables win over the file.
func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knitgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("course_height: 0.5\n"), 0644))
	t.Setenv("KNITGRAPH_COURSE_HEIGHT", "2.5")
	t.Setenv("KNITGRAPH_DB", "/tmp/override.db")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.CourseHeight)
	assert.Equal(t, "/tmp/override.db", cfg.DB)
}

// TestLoadEnvInvalid rejects unparseable overrides.
func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("KNITGRAPH_MAX_CONNECTIONS", "many")

	_, err := config.Load("")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

// TestValidate rejects non-positive gauges.
func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"course height", func(c *config.Config) { c.CourseHeight = 0 }},
		{"stitch width", func(c *config.Config) { c.StitchWidth = -1 }},
		{"max connections", func(c *config.Config) { c.MaxConnections = 0 }},
		{"start index", func(c *config.Config) { c.StartIndex = -2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
		})
	}
}

// TestSaveRoundTrip writes a config and reads it back.
func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knitgraph.yaml")
	want := config.Default()
	want.StitchWidth = 0.75
	want.Consolidate = true

	require.NoError(t, want.Save(path))
	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// TestLoadMissingFile surfaces the read error.
func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
