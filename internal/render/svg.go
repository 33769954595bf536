package render

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/thiagokokada/gitlanes/internal/theme"
)

const (
	svgLineWidth  = 2
	svgLabelGap   = 12
	svgLabelCharW = 7
	svgLabelFont  = "monospace"
	svgLabelSize  = 12
	svgMinWidth   = 32
)

// SVGOptions controls the standalone SVG document.
type SVGOptions struct {
	Palette theme.Palette
	// Labels holds one optional text label per row, drawn right of the graph.
	Labels []string
	// Heads marks rows whose node gets the HEAD fill.
	Heads map[int]bool
}

func WriteSVG(w io.Writer, scene Scene, opts SVGOptions) error {
	pal := opts.Palette
	if pal.Name == "" {
		pal = theme.LightPalette
	}
	graphWidth := max(scene.Width, svgMinWidth)
	labelWidth := 0
	for _, label := range opts.Labels {
		labelWidth = max(labelWidth, len(label)*svgLabelCharW)
	}
	width := graphWidth
	if labelWidth > 0 {
		width += svgLabelGap + labelWidth
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		width, scene.Height, width, scene.Height)
	fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", text(pal.Background))

	fmt.Fprintf(bw, `<g fill="none" stroke-width="%d" stroke-linecap="round">`+"\n", svgLineWidth)
	for _, e := range scene.Edges {
		extra := ""
		if e.Merge {
			extra = ` stroke-opacity="0.8"`
		}
		if !e.Curve {
			fmt.Fprintf(bw, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s"%s/>`+"\n",
				e.X1, e.Y1, e.X2, e.Y2, text(e.Color), extra)
			continue
		}
		cx1, cy1, cx2, cy2 := e.Control()
		fmt.Fprintf(bw, `<path d="M %d %d C %d %d, %d %d, %d %d" stroke="%s"%s/>`+"\n",
			e.X1, e.Y1, cx1, cy1, cx2, cy2, e.X2, e.Y2, text(e.Color), extra)
	}
	bw.WriteString("</g>\n")

	r := scene.Geometry.NodeRadius
	bw.WriteString("<g>\n")
	for _, n := range scene.Nodes {
		fill := pal.NodeFill
		if opts.Heads[n.Row] {
			fill = pal.HeadFill
		}
		if n.Merge {
			fill = n.Color
		}
		fmt.Fprintf(bw, `<circle cx="%d" cy="%d" r="%d" fill="%s" stroke="%s" stroke-width="1"><title>%s</title></circle>`+"\n",
			n.X, n.Y, r, text(fill), text(n.Color), text(n.SHA))
	}
	bw.WriteString("</g>\n")

	if labelWidth > 0 {
		fmt.Fprintf(bw, `<g font-family="%s" font-size="%d" fill="%s">`+"\n", svgLabelFont, svgLabelSize, text(pal.Foreground))
		for i, label := range opts.Labels {
			if label == "" || i >= len(scene.Nodes) {
				continue
			}
			fmt.Fprintf(bw, `<text x="%d" y="%d" dominant-baseline="middle">%s</text>`+"\n",
				graphWidth+svgLabelGap, scene.Nodes[i].Y, text(label))
		}
		bw.WriteString("</g>\n")
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// text escapes s for element content and attribute values.
func text(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}
