// Package render turns lane assignments into drawable geometry and writes
// it out as SVG, JSON or terminal text.
package render

import (
	"slices"

	"github.com/thiagokokada/gitlanes/internal/lanegraph"
)

const (
	DefaultLaneWidth  = 16
	DefaultRowHeight  = 24
	DefaultOffset     = 12
	DefaultNodeRadius = 4
)

// Geometry maps lanes and rows to pixels.
type Geometry struct {
	LaneWidth  int
	RowHeight  int
	Offset     int
	NodeRadius int
}

func DefaultGeometry() Geometry {
	return Geometry{
		LaneWidth:  DefaultLaneWidth,
		RowHeight:  DefaultRowHeight,
		Offset:     DefaultOffset,
		NodeRadius: DefaultNodeRadius,
	}
}

// Normalize fills unset fields with defaults.
func (g Geometry) Normalize() Geometry {
	def := DefaultGeometry()
	if g.LaneWidth <= 0 {
		g.LaneWidth = def.LaneWidth
	}
	if g.RowHeight <= 0 {
		g.RowHeight = def.RowHeight
	}
	if g.Offset <= 0 {
		g.Offset = def.Offset
	}
	if g.NodeRadius <= 0 {
		g.NodeRadius = min(def.NodeRadius, max(2, g.RowHeight/3))
	}
	return g
}

func (g Geometry) X(lane int) int {
	return lane*g.LaneWidth + g.Offset
}

func (g Geometry) Y(row int) int {
	return row*g.RowHeight + g.RowHeight/2
}

type Node struct {
	Row   int
	Lane  int
	X     int
	Y     int
	Color string
	Merge bool
	SHA   string
}

// Edge is a segment between two rows. Curve edges change lanes and are drawn
// as a cubic Bezier with both control points on the vertical midpoint.
type Edge struct {
	X1, Y1 int
	X2, Y2 int
	Color  string
	Curve  bool
	Merge  bool
}

// Control returns the Bezier control points of a curve edge.
func (e Edge) Control() (cx1, cy1, cx2, cy2 int) {
	mid := (e.Y1 + e.Y2) / 2
	return e.X1, mid, e.X2, mid
}

// Points samples the edge into steps+1 points; straight edges always yield
// their two endpoints.
func (e Edge) Points(steps int) [][2]int {
	if !e.Curve || steps < 2 {
		return [][2]int{{e.X1, e.Y1}, {e.X2, e.Y2}}
	}
	cx1, cy1, cx2, cy2 := e.Control()
	pts := make([][2]int, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		u := 1 - t
		x := u*u*u*float64(e.X1) + 3*u*u*t*float64(cx1) + 3*u*t*t*float64(cx2) + t*t*t*float64(e.X2)
		y := u*u*u*float64(e.Y1) + 3*u*u*t*float64(cy1) + 3*u*t*t*float64(cy2) + t*t*t*float64(e.Y2)
		pts = append(pts, [2]int{int(x + 0.5), int(y + 0.5)})
	}
	return pts
}

type Scene struct {
	Geometry Geometry
	Lanes    int
	Width    int
	Height   int
	Nodes    []Node
	Edges    []Edge
}

// Layout places one node per row and the edges leaving it. Lanes that were
// live above a row and stay live below it get a vertical pass-through edge.
func Layout(rows []lanegraph.Assignment, g Geometry, palette lanegraph.Palette) Scene {
	g = g.Normalize()
	if len(palette) == 0 {
		palette = lanegraph.DefaultPalette
	}
	scene := Scene{Geometry: g}
	for i, row := range rows {
		scene.Lanes = max(scene.Lanes, row.Lane+1)
		x, y := g.X(row.Lane), g.Y(i)
		yNext := g.Y(i + 1)
		scene.Nodes = append(scene.Nodes, Node{
			Row:   i,
			Lane:  row.Lane,
			X:     x,
			Y:     y,
			Color: row.Color,
			Merge: row.IsMerge,
			SHA:   row.SHA,
		})

		var incoming []int
		if i > 0 {
			incoming = rows[i-1].NextLanes
		}
		for _, lane := range row.NextLanes {
			scene.Lanes = max(scene.Lanes, lane+1)
			if lane == row.Lane || !slices.Contains(incoming, lane) {
				continue
			}
			lx := g.X(lane)
			scene.Edges = append(scene.Edges, Edge{X1: lx, Y1: y, X2: lx, Y2: yNext, Color: palette.Color(lane)})
		}
		for _, conn := range row.Connections {
			scene.Lanes = max(scene.Lanes, conn.ToLane+1)
			scene.Edges = append(scene.Edges, Edge{
				X1:    g.X(conn.FromLane),
				Y1:    y,
				X2:    g.X(conn.ToLane),
				Y2:    yNext,
				Color: conn.Color,
				Curve: conn.FromLane != conn.ToLane,
				Merge: conn.IsMerge,
			})
		}
	}
	if scene.Lanes > 0 {
		scene.Width = g.X(scene.Lanes-1) + g.Offset
	}
	scene.Height = len(rows) * g.RowHeight
	return scene
}
