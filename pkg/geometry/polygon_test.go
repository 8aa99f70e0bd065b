package geometry

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() Polygon {
	return Polygon{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
}

func TestBoundingBox(t *testing.T) {
	bb := BoundingBox([]Point2D{{10, 40}, {30, 5}, {-5, 20}})
	assert.Equal(t, Rect{X: -5, Y: 5, Width: 35, Height: 35}, bb)
	assert.Equal(t, Rect{}, BoundingBox(nil))
}

func TestCentroidIsVertexMean(t *testing.T) {
	c := Centroid([]Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 5}})
	assert.InDelta(t, 4.0, c.X, 1e-9)
	assert.InDelta(t, 5.0, c.Y, 1e-9)
}

func TestPointInPolygon(t *testing.T) {
	tri := []Point2D{{0, 0}, {10, 0}, {0, 10}}
	assert.True(t, PointInPolygon(Point2D{2, 2}, tri))
	assert.False(t, PointInPolygon(Point2D{8, 8}, tri))
	assert.False(t, PointInPolygon(Point2D{1, 1}, tri[:2]))
}

func TestMoveByDelta(t *testing.T) {
	src := square()
	moved := MoveByDelta(src, 5, -3)
	assert.Equal(t, Polygon{{5, -3}, {105, -3}, {105, 97}, {5, 97}}, moved)
	assert.Equal(t, square(), src, "input must not be mutated")
}

func TestResizeRectangleEdgeHoldsOppositeEdge(t *testing.T) {
	tests := []struct {
		edge  Edge
		coord float64
		want  Polygon
	}{
		{EdgeTop, 20, Polygon{{0, 20}, {100, 20}, {100, 100}, {0, 100}}},
		{EdgeBottom, 80, Polygon{{0, 0}, {100, 0}, {100, 80}, {0, 80}}},
		{EdgeLeft, 30, Polygon{{30, 0}, {100, 0}, {100, 100}, {30, 100}}},
		{EdgeRight, 150, Polygon{{0, 0}, {150, 0}, {150, 100}, {0, 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.edge.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ResizeRectangleEdge(square(), tt.edge, tt.coord))
		})
	}
}

func TestResizeRectangleEdgeIgnoresNonRectangles(t *testing.T) {
	tri := Polygon{{0, 0}, {10, 0}, {0, 10}}
	assert.Equal(t, tri, ResizeRectangleEdge(tri, EdgeTop, 5))
}

func TestNormalizeRectangle(t *testing.T) {
	// Counter-clockwise starting at bottom-left.
	ccw := Polygon{{0, 100}, {100, 100}, {100, 0}, {0, 0}}
	got, ok := NormalizeRectangle(ccw)
	require.True(t, ok)
	assert.Equal(t, square(), got)
	assert.True(t, IsCanonicalRectangle(got))
	assert.False(t, IsCanonicalRectangle(ccw))

	diamond := Polygon{{50, 0}, {100, 50}, {50, 100}, {0, 50}}
	got, ok = NormalizeRectangle(diamond)
	assert.False(t, ok)
	assert.Equal(t, diamond, got)

	degenerate := Polygon{{0, 0}, {10, 0}, {10, 0}, {0, 0}}
	_, ok = NormalizeRectangle(degenerate)
	assert.False(t, ok)
}

func TestEdgeMidpoint(t *testing.T) {
	assert.Equal(t, Point2D{50, 0}, EdgeMidpoint(square(), EdgeTop))
	assert.Equal(t, Point2D{100, 50}, EdgeMidpoint(square(), EdgeRight))
	assert.Equal(t, Point2D{50, 100}, EdgeMidpoint(square(), EdgeBottom))
	assert.Equal(t, Point2D{0, 50}, EdgeMidpoint(square(), EdgeLeft))
}

func TestPolygonJSONPairs(t *testing.T) {
	var p Polygon
	require.NoError(t, json.Unmarshal([]byte(`[[1,2],[3,4],[5,6]]`), &p))
	assert.Equal(t, Polygon{{1, 2}, {3, 4}, {5, 6}}, p)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2],[3,4],[5,6]]`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`[[1,2,3]]`), &p))
}

func TestPolygonRenderable(t *testing.T) {
	assert.True(t, square().Renderable())
	assert.False(t, Polygon{{0, 0}, {1, 1}}.Renderable())
	assert.False(t, Polygon{{0, 0}, {1, math.NaN()}, {2, 2}}.Renderable())
	assert.False(t, Polygon{{0, 0}, {math.Inf(1), 1}, {2, 2}}.Renderable())
}

func TestRectHelpers(t *testing.T) {
	r := RectFromCorners(Point2D{30, 40}, Point2D{10, 5})
	assert.Equal(t, Rect{X: 10, Y: 5, Width: 20, Height: 35}, r)
	assert.True(t, r.Contains(Point2D{10, 5}))
	assert.True(t, r.Contains(Point2D{30, 40}))
	assert.False(t, r.Contains(Point2D{31, 40}))
	assert.Equal(t, Rect{X: 5, Y: 0, Width: 30, Height: 45}, r.Inset(5))
}

func TestDistanceToSegment(t *testing.T) {
	a, b := Point2D{0, 0}, Point2D{10, 0}
	assert.InDelta(t, 5.0, DistanceToSegment(Point2D{5, 5}, a, b), 1e-9)
	assert.InDelta(t, 5.0, DistanceToSegment(Point2D{-3, 4}, a, b), 1e-9)
	assert.InDelta(t, 5.0, DistanceToSegment(Point2D{3, 4}, a, a), 1e-9)

	p, q, ok := EdgeSegment(square(), EdgeRight)
	require.True(t, ok)
	assert.Equal(t, Point2D{100, 0}, p)
	assert.Equal(t, Point2D{100, 100}, q)
}
