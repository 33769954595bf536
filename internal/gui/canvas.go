package gui

import (
	"strings"

	. "modernc.org/tk9.0"

	"github.com/thiagokokada/gitlanes/internal/gui/tkutil"
	"github.com/thiagokokada/gitlanes/internal/render"
)

const (
	canvasLineWidth  = 2
	canvasCurveSteps = 8
	canvasLabelPadX  = 4
	canvasLabelPadY  = 2
	canvasLabelGap   = 6
	canvasTextGap    = 12
	canvasCharWidth  = 7
	canvasLabelFont  = "TkDefaultFont 9"
	canvasTextFont   = "TkFixedFont 10"
)

func (a *Controller) drawGraph() {
	c := a.ui.canvas
	if c == nil {
		return
	}
	c.Delete("all")
	scene := a.scene
	dark := a.pal.IsDark()

	textX := scene.Width + canvasTextGap
	width := textX
	for _, commit := range a.graph.Commits {
		width = max(width, textX+len(rowText(commit))*canvasCharWidth)
	}
	tkutil.EvalOrEmpty("%s configure -scrollregion {0 0 %d %d}", c, width+canvasTextGap, scene.Height)

	if a.selected >= 0 && a.selected < len(a.graph.Commits) {
		top := a.selected * a.geom.RowHeight
		fill := "#cfe7ff"
		if dark {
			fill = "#253446"
		}
		c.CreateRectangle(0, top, width+canvasTextGap, top+a.geom.RowHeight, Fill(fill), Width(0))
	}

	for _, e := range scene.Edges {
		drawEdge(c, e)
	}
	heads := a.graph.HeadRows()
	for _, n := range scene.Nodes {
		drawNode(c, n, a.geom.NodeRadius, a.nodeFill(n, heads[n.Row]))
	}
	for i, commit := range a.graph.Commits {
		y := a.geom.Y(i)
		x := textX
		nodeX, nodeColor := textX, a.pal.Foreground
		if i < len(scene.Nodes) {
			nodeX, nodeColor = scene.Nodes[i].X, scene.Nodes[i].Color
		}
		x = drawLabels(c, dark, a.graph.Labels[commit.SHA], x, y, nodeX+a.geom.NodeRadius, nodeColor)
		c.CreateText(x, y, Anchor(W), Txt(rowText(commit)), Font(canvasTextFont), Fill(a.pal.Foreground))
	}
}

// drawEdge draws straight edges as one line and curves as short segments
// sampled from the Bezier.
func drawEdge(c *CanvasWidget, e render.Edge) {
	if !e.Curve {
		c.CreateLine(e.X1, e.Y1, e.X2, e.Y2, Width(canvasLineWidth), Fill(e.Color))
		return
	}
	pts := e.Points(canvasCurveSteps)
	for i := 1; i < len(pts); i++ {
		c.CreateLine(pts[i-1][0], pts[i-1][1], pts[i][0], pts[i][1], Width(canvasLineWidth), Fill(e.Color))
	}
}

func drawNode(c *CanvasWidget, n render.Node, radius int, fill string) {
	c.CreateOval(n.X-radius, n.Y-radius, n.X+radius, n.Y+radius, Fill(fill), Outline(n.Color), Width(1))
}

func (a *Controller) nodeFill(n render.Node, head bool) string {
	switch {
	case head:
		return a.pal.HeadFill
	case n.Merge:
		return n.Color
	default:
		return a.pal.NodeFill
	}
}

// drawLabels draws ref chips starting at x and returns where the row text
// should start.
func drawLabels(c *CanvasWidget, dark bool, labels []string, x, y, nodeRight int, nodeColor string) int {
	connected := false
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		style := labelStyleFor(dark, label, nodeColor)
		textID := c.CreateText(x+canvasLabelPadX, y, Anchor(W), Txt(label), Font(canvasLabelFont), Fill(style.text))
		bbox := c.Bbox(textID)
		if len(bbox) < 4 {
			x += len(label)*canvasCharWidth + canvasLabelGap
			continue
		}
		x1 := tkutil.Atoi(bbox[0]) - canvasLabelPadX
		y1 := tkutil.Atoi(bbox[1]) - canvasLabelPadY
		x2 := tkutil.Atoi(bbox[2]) + canvasLabelPadX
		y2 := tkutil.Atoi(bbox[3]) + canvasLabelPadY
		rectID := c.CreateRectangle(x1, y1, x2, y2, Fill(style.fill), Outline(style.out), Width(1))
		tkutil.EvalOrEmpty("%s lower %s %s", c, rectID, textID)
		if !connected && x1 > nodeRight {
			connected = true
			c.CreateLine(nodeRight, y, x1, y, Width(1), Fill(style.out))
		}
		x = x2 + canvasLabelGap
	}
	return x
}
