package grid

import (
	"container/heap"

	"github.com/paulmach/orb/planar"
	"github.com/samber/lo/mutable"
)

// node represents a cell in the A* search
type node struct {
	cell   int     // Index of the cell in the grid
	g      float64 // Cost from start to this cell
	h      float64 // Heuristic cost from this cell to goal
	f      float64 // Total cost (g + h)
	parent *node
	index  int // Index in the heap
}

// priorityQueue implements heap.Interface for A* search
type priorityQueue []*node

func (pq priorityQueue) Len() int { return len(pq) }

// Less orders by f, then h, then cell index, so equal-cost searches expand in a fixed order.
func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.cell < b.cell
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*node)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// astar computes the shortest cell sequence from start to goal with a Euclidean heuristic
func (g *OccupancyGrid) astar(start, goal int) ([]int, bool) {
	goalPoint := g.Center(goal)
	heuristic := func(cell int) float64 {
		return planar.Distance(g.Center(cell), goalPoint)
	}

	openSet := &priorityQueue{}
	heap.Init(openSet)

	startNode := &node{cell: start, h: heuristic(start)}
	startNode.f = startNode.h
	heap.Push(openSet, startNode)

	closed := make([]bool, len(g.blocked))
	open := make(map[int]*node)
	open[start] = startNode

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*node)
		delete(open, current.cell)

		// Check if we reached the goal
		if current.cell == goal {
			var cells []int
			for n := current; n != nil; n = n.parent {
				cells = append(cells, n.cell)
			}
			mutable.Reverse(cells)
			return cells, true
		}

		closed[current.cell] = true

		// Explore neighbours
		for _, edge := range g.edges[current.cell] {
			if closed[edge.To] {
				continue
			}

			tentativeG := current.g + edge.Cost

			neighbour, exists := open[edge.To]
			if !exists {
				neighbour = &node{
					cell:   edge.To,
					g:      tentativeG,
					h:      heuristic(edge.To),
					parent: current,
				}
				neighbour.f = neighbour.g + neighbour.h
				heap.Push(openSet, neighbour)
				open[edge.To] = neighbour
			} else if tentativeG < neighbour.g {
				// Found a better path to this neighbour
				neighbour.g = tentativeG
				neighbour.f = neighbour.g + neighbour.h
				neighbour.parent = current
				heap.Fix(openSet, neighbour.index)
			}
		}
	}

	// No path found
	return nil, false
}
