// Package grid is the coarse fallback planner: a static 8-connected occupancy grid with
// obstacles baked in, searched with A*.
package grid

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"

	"carpath/world"
)

// ErrInvalidConfig is returned by Build for a non-positive cell size or extent.
var ErrInvalidConfig = errors.New("invalid grid config")

// maxSnapRings is how far from the nearest cell Query looks for an unblocked endpoint cell.
const maxSnapRings = 3

// Config sizes the grid and sets how obstacles are inflated.
type Config struct {
	CellSize       float64
	ExtentCells    int
	ObstacleBuffer float64
	// ArenaRadius blocks every cell whose centre is farther from the origin. Zero, negative
	// or +Inf leaves the grid unbounded.
	ArenaRadius float64
}

// Edge represents a connection between two cells with a cost
type Edge struct {
	To   int     // Index of the destination cell
	Cost float64 // Distance cost
}

// OccupancyGrid is a square grid of (2·ExtentCells+1)² cells centred on the origin.
// It is immutable after Build and safe for concurrent queries.
type OccupancyGrid struct {
	cfg     Config
	side    int
	blocked []bool
	edges   [][]Edge
}

// Build creates the grid for one set of obstacles. A cell is blocked when its centre is within
// radius + buffer + half the cell diagonal of a cylinder, inside a box inflated by the same
// amount, or outside the arena.
func Build(obstacles []world.Obstacle, cfg Config) (*OccupancyGrid, error) {
	if !(cfg.CellSize > 0) || cfg.ExtentCells < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "cell size %v, extent %d", cfg.CellSize, cfg.ExtentCells)
	}

	side := 2*cfg.ExtentCells + 1
	g := &OccupancyGrid{
		cfg:     cfg,
		side:    side,
		blocked: make([]bool, side*side),
		edges:   make([][]Edge, side*side),
	}

	halfDiag := cfg.CellSize * math.Sqrt2 / 2
	inflation := cfg.ObstacleBuffer + halfDiag
	for _, o := range world.DropContained(obstacles) {
		g.markObstacle(o, inflation)
	}

	if cfg.ArenaRadius > 0 && !math.IsInf(cfg.ArenaRadius, 1) {
		for idx := range g.blocked {
			c := g.Center(idx)
			if math.Hypot(c[0], c[1]) > cfg.ArenaRadius {
				g.blocked[idx] = true
			}
		}
	}

	g.connect()
	return g, nil
}

// markObstacle blocks every cell whose centre is inside o inflated by inflation.
func (g *OccupancyGrid) markObstacle(o world.Obstacle, inflation float64) {
	b := o.Bound(inflation)
	minCol, minRow := g.cellCoords(b.Min)
	maxCol, maxRow := g.cellCoords(b.Max)
	minCol, minRow = max(minCol, 0), max(minRow, 0)
	maxCol, maxRow = min(maxCol, g.side-1), min(maxRow, g.side-1)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*g.side + col
			if !g.blocked[idx] && o.Contains(g.Center(idx), inflation) {
				g.blocked[idx] = true
			}
		}
	}
}

// connect links every unblocked cell to its unblocked 8-neighbours.
func (g *OccupancyGrid) connect() {
	diag := g.cfg.CellSize * math.Sqrt2
	for idx, blocked := range g.blocked {
		if blocked {
			continue
		}
		row, col := idx/g.side, idx%g.side
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				r, c := row+dr, col+dc
				if r < 0 || c < 0 || r >= g.side || c >= g.side {
					continue
				}
				n := r*g.side + c
				if g.blocked[n] {
					continue
				}
				cost := g.cfg.CellSize
				if dr != 0 && dc != 0 {
					cost = diag
				}
				g.edges[idx] = append(g.edges[idx], Edge{To: n, Cost: cost})
			}
		}
	}
}

// Config returns the configuration the grid was built with.
func (g *OccupancyGrid) Config() Config {
	return g.cfg
}

// Cells is the total number of cells.
func (g *OccupancyGrid) Cells() int {
	return len(g.blocked)
}

// Center returns the world position of a cell centre.
func (g *OccupancyGrid) Center(idx int) orb.Point {
	row, col := idx/g.side, idx%g.side
	return orb.Point{
		float64(col-g.cfg.ExtentCells) * g.cfg.CellSize,
		float64(row-g.cfg.ExtentCells) * g.cfg.CellSize,
	}
}

// cellCoords returns the column and row of the cell nearest p, possibly off the grid.
func (g *OccupancyGrid) cellCoords(p orb.Point) (int, int) {
	col := int(math.Round(p[0]/g.cfg.CellSize)) + g.cfg.ExtentCells
	row := int(math.Round(p[1]/g.cfg.CellSize)) + g.cfg.ExtentCells
	return col, row
}

// Blocked reports whether the cell nearest p is blocked. Points off the grid are blocked.
func (g *OccupancyGrid) Blocked(p orb.Point) bool {
	col, row := g.cellCoords(p)
	if col < 0 || row < 0 || col >= g.side || row >= g.side {
		return true
	}
	return g.blocked[row*g.side+col]
}

// BlockedCells returns the centre of every blocked cell.
func (g *OccupancyGrid) BlockedCells() orb.MultiPoint {
	var cells orb.MultiPoint
	for idx, blocked := range g.blocked {
		if blocked {
			cells = append(cells, g.Center(idx))
		}
	}
	return cells
}

// Lines returns every adjacency edge once, as a two-point line for visualization.
func (g *OccupancyGrid) Lines() orb.MultiLineString {
	var lines orb.MultiLineString
	for idx, edges := range g.edges {
		for _, e := range edges {
			if e.To > idx {
				lines = append(lines, orb.LineString{g.Center(idx), g.Center(e.To)})
			}
		}
	}
	return lines
}

// nearestFree finds the unblocked cell closest to p, looking up to maxSnapRings rings out from
// the nearest cell (clamped onto the grid). Ties go to the lower index.
func (g *OccupancyGrid) nearestFree(p orb.Point) (int, bool) {
	col, row := g.cellCoords(p)
	col = min(max(col, 0), g.side-1)
	row = min(max(row, 0), g.side-1)

	for ring := 0; ring <= maxSnapRings; ring++ {
		best, bestDist := -1, math.Inf(1)
		for r := row - ring; r <= row+ring; r++ {
			for c := col - ring; c <= col+ring; c++ {
				// only the cells on this ring
				if max(abs(r-row), abs(c-col)) != ring {
					continue
				}
				if r < 0 || c < 0 || r >= g.side || c >= g.side {
					continue
				}
				idx := r*g.side + c
				if g.blocked[idx] {
					continue
				}
				d := planar.Distance(g.Center(idx), p)
				if d < bestDist || (d == bestDist && idx < best) {
					best, bestDist = idx, d
				}
			}
		}
		if best >= 0 {
			return best, true
		}
	}
	return -1, false
}

// Query returns a shortest cell-centre polyline from start to goal, or an empty line string
// when either endpoint has no free cell nearby or the goal is unreachable.
// The result is deterministic for a given grid.
func (g *OccupancyGrid) Query(start, goal orb.Point) orb.LineString {
	from, ok := g.nearestFree(start)
	if !ok {
		return orb.LineString{}
	}
	to, ok := g.nearestFree(goal)
	if !ok {
		return orb.LineString{}
	}

	cells, found := g.astar(from, to)
	if !found {
		return orb.LineString{}
	}
	path := make(orb.LineString, len(cells))
	for i, idx := range cells {
		path[i] = g.Center(idx)
	}
	return path
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
