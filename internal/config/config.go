// Package config loads gitlanes settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/thiagokokada/gitlanes/internal/lanegraph"
	"github.com/thiagokokada/gitlanes/internal/render"
)

const (
	DefaultLimit = 1000
	DefaultAddr  = "127.0.0.1:8080"
)

type Config struct {
	Theme      string   `yaml:"theme"`
	Limit      int      `yaml:"limit"`
	AutoReload bool     `yaml:"auto_reload"`
	NoSyntax   bool     `yaml:"no_syntax"`
	Geometry   Geometry `yaml:"geometry"`
	Palettes   Palettes `yaml:"palettes"`
	GitHub     GitHub   `yaml:"github"`
	Server     Server   `yaml:"server"`
}

type Geometry struct {
	LaneWidth  int `yaml:"lane_width"`
	RowHeight  int `yaml:"row_height"`
	Offset     int `yaml:"offset"`
	NodeRadius int `yaml:"node_radius"`
}

type Palettes struct {
	Light []string `yaml:"light"`
	Dark  []string `yaml:"dark"`
}

type GitHub struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
	PerPage int    `yaml:"per_page"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

func Default() Config {
	return Config{
		Theme:      "auto",
		Limit:      DefaultLimit,
		AutoReload: true,
		Server:     Server{Addr: DefaultAddr},
	}
}

// Path is $GITLANES_CONFIG, or config.yaml under the user config directory
// ($XDG_CONFIG_HOME/gitlanes on Linux).
func Path() string {
	if p := getenv("GITLANES_CONFIG", ""); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gitlanes", "config.yaml")
}

// Load reads path (Path() when empty) over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.GitHub.Token = getenv("GITHUB_TOKEN", c.GitHub.Token)
	c.GitHub.BaseURL = getenv("GITLANES_GITHUB_URL", c.GitHub.BaseURL)
	c.Server.Addr = getenv("GITLANES_ADDR", c.Server.Addr)
	c.Limit = getenvInt("GITLANES_LIMIT", c.Limit)
	c.Theme = getenv("GITLANES_THEME", c.Theme)
}

// RenderGeometry returns the configured geometry; zero fields fall back to
// the render defaults.
func (c Config) RenderGeometry() render.Geometry {
	g := render.Geometry{
		LaneWidth:  c.Geometry.LaneWidth,
		RowHeight:  c.Geometry.RowHeight,
		Offset:     c.Geometry.Offset,
		NodeRadius: c.Geometry.NodeRadius,
	}
	return g.Normalize()
}

// LanePalette returns the configured lane colors for the given mode, nil when
// none are set.
func (c Config) LanePalette(dark bool) lanegraph.Palette {
	colors := c.Palettes.Light
	if dark {
		colors = c.Palettes.Dark
	}
	if len(colors) == 0 {
		return nil
	}
	return lanegraph.Palette(colors)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
