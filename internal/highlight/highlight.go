// Package highlight colors commit and worktree diffs with chroma.
package highlight

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/thiagokokada/gitlanes/internal/git"
	"github.com/thiagokokada/gitlanes/internal/theme"
)

const terminalFormatter = "terminal256"

// Style returns the chroma style named by the palette, or the chroma
// fallback when it is unknown.
func Style(p theme.Palette) *chroma.Style {
	if st := styles.Get(p.ChromaStyle); st != nil {
		return st
	}
	return styles.Fallback
}

// WriteDiff writes text to w. Unless plain is set, the text is colored as a
// unified diff with ANSI escapes.
func WriteDiff(w io.Writer, text string, p theme.Palette, plain bool) error {
	if plain {
		_, err := io.WriteString(w, text)
		return err
	}
	lexer := lexers.Get("diff")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	formatter := formatters.Get(terminalFormatter)
	if formatter == nil {
		formatter = formatters.Fallback
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, text)
	if err != nil {
		return fmt.Errorf("tokenise diff: %w", err)
	}
	return formatter.Format(w, Style(p), iterator)
}

// Span colors runes [Start, End) of a line.
type Span struct {
	Start int
	End   int
	Color string
}

// DiffSpans returns per-line syntax coloring for the code lines of a unified
// diff, keyed by 1-based line number. Lexers are picked from the file path
// of each "diff --git" section; header and hunk lines are left alone.
func DiffSpans(text string, style *chroma.Style) map[int][]Span {
	spans := map[int][]Span{}
	if style == nil || text == "" {
		return spans
	}
	var lexer chroma.Lexer
	for i, line := range strings.Split(text, "\n") {
		if path, ok := git.DiffHeaderPath(line); ok {
			lexer = lexerForPath(path)
			continue
		}
		if lexer == nil {
			continue
		}
		code, offset, ok := diffLineCode(line)
		if !ok {
			continue
		}
		if s := lineSpans(lexer, style, code, offset); len(s) > 0 {
			spans[i+1] = s
		}
	}
	return spans
}

func lineSpans(lexer chroma.Lexer, style *chroma.Style, code string, offset int) []Span {
	if code == "" {
		return nil
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil
	}
	var spans []Span
	col := offset
	for _, token := range iterator.Tokens() {
		if token.Value == "" {
			continue
		}
		length := utf8.RuneCountInString(token.Value)
		if color := colorFromEntry(style.Get(token.Type)); color != "" {
			spans = append(spans, Span{Start: col, End: col + length, Color: color})
		}
		col += length
	}
	return spans
}

// diffLineCode strips the +/-/space marker from a diff body line.
func diffLineCode(line string) (string, int, bool) {
	if line == "" || strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
		return "", 0, false
	}
	switch line[0] {
	case '+', '-', ' ':
		return line[1:], 1, true
	default:
		return "", 0, false
	}
}

func colorFromEntry(entry chroma.StyleEntry) string {
	if !entry.Colour.IsSet() {
		return ""
	}
	return "#" + strings.TrimPrefix(strings.ToLower(entry.Colour.String()), "#")
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
