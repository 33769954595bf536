package lanegraph

import "strings"

// Tokens returns the text graph cells for rows[i]: "*" on the commit lane,
// "|" on lanes that stay live through the row and " " on free lanes.
func Tokens(rows []Assignment, i int) []string {
	if i < 0 || i >= len(rows) {
		return nil
	}
	row := rows[i]
	incoming := []int{row.Lane}
	if i > 0 {
		incoming = rows[i-1].NextLanes
	}
	width := row.Lane + 1
	for _, lane := range incoming {
		width = max(width, lane+1)
	}
	tokens := make([]string, width)
	for col := range tokens {
		tokens[col] = " "
	}
	for _, lane := range incoming {
		tokens[lane] = "|"
	}
	tokens[row.Lane] = "*"
	return tokens
}

// Line joins tokens the way `git log --graph` spaces its columns, capped to
// maxCols columns when maxCols is positive.
func Line(tokens []string, maxCols int) string {
	if len(tokens) == 0 {
		// Keep the graph legible even if there is nothing to draw.
		return "*"
	}
	if maxCols > 0 && len(tokens) > maxCols {
		tokens = tokens[:maxCols]
	}
	return strings.TrimRight(strings.Join(tokens, " "), " ")
}
