// Package theme resolves the light/dark preference and the colors that go
// with it.
package theme

import (
	"log/slog"
	"strings"

	darkmode "github.com/thiagokokada/dark-mode-go"

	"github.com/thiagokokada/gitlanes/internal/lanegraph"
)

type Preference int

const (
	Auto Preference = iota
	Light
	Dark
)

func (p Preference) String() string {
	switch p {
	case Light:
		return "light"
	case Dark:
		return "dark"
	default:
		return "auto"
	}
}

func PreferenceFromString(raw string) Preference {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case Dark.String():
		return Dark
	case Light.String():
		return Light
	default:
		return Auto
	}
}

type Palette struct {
	Name        string
	Lanes       lanegraph.Palette
	Background  string
	Foreground  string
	Muted       string
	NodeFill    string
	HeadFill    string
	ChromaStyle string
}

var (
	LightPalette = Palette{
		Name:        "light",
		Lanes:       lanegraph.DefaultPalette,
		Background:  "#ffffff",
		Foreground:  "#111111",
		Muted:       "#6b6b6b",
		NodeFill:    "white",
		HeadFill:    "#ffd75e",
		ChromaStyle: "github",
	}
	DarkPalette = Palette{
		Name:        "dark",
		Lanes:       lanegraph.DarkPalette,
		Background:  "#1e1e1e",
		Foreground:  "#eaeaea",
		Muted:       "#a0a0a0",
		NodeFill:    "#1e1e1e",
		HeadFill:    "#b58900",
		ChromaStyle: "github-dark",
	}
	detectDarkMode = darkmode.IsDarkMode
)

// Resolve picks a palette. Auto asks the desktop environment and falls back
// to light when detection fails.
func Resolve(pref Preference) Palette {
	switch pref {
	case Dark:
		return DarkPalette
	case Light:
		return LightPalette
	default:
		if detectDarkMode != nil {
			dark, err := detectDarkMode()
			if err == nil {
				if dark {
					return DarkPalette
				}
			} else {
				slog.Debug("detect dark-mode", slog.Any("error", err))
			}
		}
		return LightPalette
	}
}

func (p Palette) IsDark() bool {
	return p.Name == DarkPalette.Name
}

// WithLanes returns a copy using custom lane colors, keeping the default
// lanes when colors is empty.
func (p Palette) WithLanes(colors []string) Palette {
	if len(colors) > 0 {
		p.Lanes = lanegraph.Palette(colors)
	}
	return p
}
