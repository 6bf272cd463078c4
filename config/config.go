// Package config loads pipeline configuration from a YAML file with
// environment variable overrides for the CLI surface.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalid is returned when a configuration value fails validation.
	ErrInvalid = errors.New("config: invalid value")
)

// Config holds the pipeline parameters the CLI passes to the knit and
// pattern packages. Zero values fall back to defaults in Normalize.
type Config struct {
	// CourseHeight is the vertical knitting gauge: the spacing at which
	// contours are divided into course nodes.
	CourseHeight float64 `yaml:"course_height"`
	// StitchWidth is the horizontal knitting gauge: the spacing at which
	// mapping segments are sampled into stitch nodes.
	StitchWidth float64 `yaml:"stitch_width"`

	// MaxConnections caps weft/warp connections per node.
	MaxConnections int `yaml:"max_connections"`
	// Precise switches candidate scoring to true Euclidean distances.
	Precise bool `yaml:"precise"`
	// LeastConnected prefers the least connected candidate over the
	// most perpendicular one.
	LeastConnected bool `yaml:"least_connected"`
	// StartIndex forces the weft split position; -1 picks the longest
	// contour.
	StartIndex int `yaml:"start_index"`
	// PropagateFromCenter reverses the lower half so weft passes grow
	// outward from the split position.
	PropagateFromCenter bool `yaml:"propagate_from_center"`

	// MergeAdjacentCreases collapses neighboring increase/decrease pairs
	// in the dual network.
	MergeAdjacentCreases bool `yaml:"merge_adjacent_creases"`
	// Consolidate drops all-empty columns from the pattern matrix.
	Consolidate bool `yaml:"consolidate"`

	// DB is the SQLite file networks and matrices are persisted to.
	DB string `yaml:"db"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		CourseHeight:   1,
		StitchWidth:    1,
		MaxConnections: 4,
		StartIndex:     -1,
	}
}

// Load reads the YAML file at path, if any, then applies KNITGRAPH_*
// environment overrides and validates the result.
//
// An empty path yields Default plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv overlays KNITGRAPH_* environment variables onto the config.
func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("KNITGRAPH_COURSE_HEIGHT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: KNITGRAPH_COURSE_HEIGHT=%q", ErrInvalid, v)
		}
		c.CourseHeight = f
	}
	if v, ok := os.LookupEnv("KNITGRAPH_STITCH_WIDTH"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: KNITGRAPH_STITCH_WIDTH=%q", ErrInvalid, v)
		}
		c.StitchWidth = f
	}
	if v, ok := os.LookupEnv("KNITGRAPH_MAX_CONNECTIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: KNITGRAPH_MAX_CONNECTIONS=%q", ErrInvalid, v)
		}
		c.MaxConnections = n
	}
	if v, ok := os.LookupEnv("KNITGRAPH_DB"); ok {
		c.DB = v
	}

	return nil
}

// Validate checks the gauge and connection parameters.
func (c Config) Validate() error {
	if c.CourseHeight <= 0 {
		return fmt.Errorf("%w: course_height %v must be positive", ErrInvalid, c.CourseHeight)
	}
	if c.StitchWidth <= 0 {
		return fmt.Errorf("%w: stitch_width %v must be positive", ErrInvalid, c.StitchWidth)
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("%w: max_connections %d must be positive", ErrInvalid, c.MaxConnections)
	}
	if c.StartIndex < -1 {
		return fmt.Errorf("%w: start_index %d", ErrInvalid, c.StartIndex)
	}

	return nil
}

// Save writes the configuration to the YAML file at path.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	return nil
}
