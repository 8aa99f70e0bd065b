package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// rectEpsilon is the tolerance used when matching rectangle corners.
const rectEpsilon = 1e-6

// Edge names one side of a canonical 4-point rectangle.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeRight:
		return "right"
	case EdgeBottom:
		return "bottom"
	case EdgeLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Edges lists all rectangle edges in vertex order.
var Edges = []Edge{EdgeTop, EdgeRight, EdgeBottom, EdgeLeft}

// edgeVertices maps each edge to the two vertex indices of a canonical
// TL, TR, BR, BL rectangle that lie on it.
var edgeVertices = map[Edge][2]int{
	EdgeTop:    {0, 1},
	EdgeRight:  {1, 2},
	EdgeBottom: {2, 3},
	EdgeLeft:   {3, 0},
}

// Centroid computes the vertex mean of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	xs, ys := coords(points)
	return Point2D{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	xs, ys := coords(points)
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func coords(points []Point2D) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// MoveByDelta translates every vertex by (dx, dy) and returns a new polygon.
func MoveByDelta(polygon Polygon, dx, dy float64) Polygon {
	out := make(Polygon, len(polygon))
	d := Point2D{X: dx, Y: dy}
	for i, p := range polygon {
		out[i] = p.Add(d)
	}
	return out
}

// MoveVertex returns a copy of the polygon with vertex i replaced by p.
// Out-of-range indices return an unchanged copy.
func MoveVertex(polygon Polygon, i int, p Point2D) Polygon {
	out := polygon.Clone()
	if i >= 0 && i < len(out) {
		out[i] = p
	}
	return out
}

// RectanglePolygon returns the canonical 4-point polygon of r:
// top-left, top-right, bottom-right, bottom-left.
func RectanglePolygon(r Rect) Polygon {
	return Polygon{
		{X: r.X, Y: r.Y},
		{X: r.Right(), Y: r.Y},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.X, Y: r.Bottom()},
	}
}

// IsCanonicalRectangle reports whether polygon is an axis-aligned rectangle
// with vertices in TL, TR, BR, BL order.
func IsCanonicalRectangle(polygon []Point2D) bool {
	if len(polygon) != 4 {
		return false
	}
	bb := BoundingBox(polygon)
	if bb.IsEmpty() {
		return false
	}
	want := RectanglePolygon(bb)
	for i := range want {
		if !near(polygon[i], want[i]) {
			return false
		}
	}
	return true
}

// NormalizeRectangle reorders a 4-point axis-aligned rectangle given in any
// order or winding into canonical TL, TR, BR, BL order. It returns false,
// and the input unchanged, when the points do not form such a rectangle.
func NormalizeRectangle(polygon Polygon) (Polygon, bool) {
	if len(polygon) != 4 {
		return polygon, false
	}
	bb := BoundingBox(polygon)
	if bb.IsEmpty() {
		return polygon, false
	}
	corners := RectanglePolygon(bb)
	var seen [4]bool
	for _, p := range polygon {
		matched := false
		for i, c := range corners {
			if !seen[i] && near(p, c) {
				seen[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return polygon, false
		}
	}
	return corners, true
}

// ResizeRectangleEdge moves the two vertices of the named edge to coord on
// the axis perpendicular to that edge, holding the opposite edge fixed.
// Polygons that are not 4-point rectangles are returned unchanged.
func ResizeRectangleEdge(polygon Polygon, edge Edge, coord float64) Polygon {
	out := polygon.Clone()
	idx, ok := edgeVertices[edge]
	if len(out) != 4 || !ok {
		return out
	}
	for _, i := range idx {
		switch edge {
		case EdgeTop, EdgeBottom:
			out[i].Y = coord
		case EdgeLeft, EdgeRight:
			out[i].X = coord
		}
	}
	return out
}

// EdgeMidpoint returns the midpoint of the named edge of a 4-point rectangle.
func EdgeMidpoint(polygon []Point2D, edge Edge) Point2D {
	idx, ok := edgeVertices[edge]
	if len(polygon) != 4 || !ok {
		return Point2D{}
	}
	a, b := polygon[idx[0]], polygon[idx[1]]
	return a.Add(b).Scale(0.5)
}

func near(a, b Point2D) bool {
	return math.Abs(a.X-b.X) <= rectEpsilon && math.Abs(a.Y-b.Y) <= rectEpsilon
}

// DistanceToSegment returns the distance from p to the segment a-b.
func DistanceToSegment(p, a, b Point2D) float64 {
	ab := b.Sub(a)
	lenSq := ab.X*ab.X + ab.Y*ab.Y
	if lenSq == 0 {
		return p.Distance(a)
	}
	ap := p.Sub(a)
	t := (ap.X*ab.X + ap.Y*ab.Y) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(ab.Scale(t)))
}

// EdgeSegment returns the two endpoints of the named edge of a 4-point rectangle.
func EdgeSegment(polygon []Point2D, edge Edge) (Point2D, Point2D, bool) {
	idx, ok := edgeVertices[edge]
	if len(polygon) != 4 || !ok {
		return Point2D{}, Point2D{}, false
	}
	return polygon[idx[0]], polygon[idx[1]], true
}
