package lanegraph

// Palette maps lanes to colors. Lanes past the end of the palette wrap
// around, so distant lanes may share a color.
type Palette []string

var (
	// Based on gitk's default colors; keep a small, high-contrast palette.
	DefaultPalette = Palette{"#00cc00", "#cc0000", "#0055cc", "#aa00aa", "#555555", "#8b4513", "#ff8c00"}
	DarkPalette    = Palette{"#00ff00", "#ff5c5c", "#4fa3ff", "#d56bff", "#a0a0a0", "#d09a6b", "#ffb347"}
)

func (p Palette) Color(lane int) string {
	if len(p) == 0 || lane < 0 {
		return ""
	}
	return p[lane%len(p)]
}
