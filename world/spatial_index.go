package world

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minRectLength keeps degenerate bounds valid for rtreego, which rejects zero-length sides.
const minRectLength = 1e-9

// obstacleEntry wraps an obstacle for R-tree storage
type obstacleEntry struct {
	index    int
	obstacle Obstacle
	bbox     rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// SpatialIndex answers which obstacles lie near a region.
type SpatialIndex struct {
	tree  *rtreego.Rtree
	count int
}

// NewSpatialIndex indexes obstacles by their bounds inflated by pad.
func NewSpatialIndex(obstacles []Obstacle, pad float64) *SpatialIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	for i, o := range obstacles {
		bbox, err := boundToRect(o.Bound(pad))
		if err != nil {
			continue
		}
		tree.Insert(&obstacleEntry{index: i, obstacle: o, bbox: bbox})
	}

	return &SpatialIndex{tree: tree, count: len(obstacles)}
}

// Len is the number of obstacles given to the index.
func (si *SpatialIndex) Len() int {
	return si.count
}

// Query returns obstacles whose inflated bounds intersect b, in their original order.
func (si *SpatialIndex) Query(b orb.Bound) []Obstacle {
	if si.tree.Size() == 0 {
		return nil
	}
	bbox, err := boundToRect(b)
	if err != nil {
		return nil
	}

	results := si.tree.SearchIntersect(bbox)
	entries := make([]*obstacleEntry, 0, len(results))
	for _, item := range results {
		entries = append(entries, item.(*obstacleEntry))
	}
	// restore insertion order so verdicts do not depend on tree layout
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	obstacles := make([]Obstacle, len(entries))
	for i, e := range entries {
		obstacles[i] = e.obstacle
	}
	return obstacles
}

// boundToRect converts an orb bound to an rtreego rectangle
func boundToRect(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0], b.Min[1]},
		[]float64{max(b.Max[0]-b.Min[0], minRectLength), max(b.Max[1]-b.Min[1], minRectLength)},
	)
}
