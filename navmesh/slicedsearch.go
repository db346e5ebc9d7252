package navmesh

import (
	"container/heap"

	"github.com/arl/crowdsteer/math3d"
)

// slicedSearch holds the state of one in-progress budgeted A* search over
// the grid. A plain container/heap priority queue is used here rather than
// the tiled node pool/queue the detour package builds for its own tiled
// polygon graph: that pool is keyed on *Node and tile salt/index pairs that
// only make sense for a real navmesh tile, so reusing it for the flat grid
// would mean dragging along machinery this mesh has no use for.
type slicedSearch struct {
	startRef, endRef PolyRef
	startPos, endPos math3d.Vec3
	filter           QueryFilter

	open  *searchHeap
	nodes map[PolyRef]*searchNode
	done  bool
	found bool
}

type searchNode struct {
	ref      PolyRef
	parent   PolyRef
	hasPar   bool
	g        float32
	f        float32
	closed   bool
	heapIdx  int
}

type searchHeap []*searchNode

func (h searchHeap) Len() int            { return len(h) }
func (h searchHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h searchHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].heapIdx = i; h[j].heapIdx = j }
func (h *searchHeap) Push(x interface{}) {
	n := x.(*searchNode)
	n.heapIdx = len(*h)
	*h = append(*h, n)
}
func (h *searchHeap) Pop() interface{} {
	old := *h
	n := len(old)
	node := old[n-1]
	*h = old[:n-1]
	return node
}

// InitSlicedFindPath implements Query.
func (g *GridMesh) InitSlicedFindPath(startRef, endRef PolyRef, startPos, endPos math3d.Vec3, filter QueryFilter) Status {
	if startRef == 0 || endRef == 0 {
		return Failure | InvalidParam
	}
	s := &slicedSearch{
		startRef: startRef,
		endRef:   endRef,
		startPos: startPos,
		endPos:   endPos,
		filter:   filter,
		open:     &searchHeap{},
		nodes:    make(map[PolyRef]*searchNode),
	}
	start := &searchNode{ref: startRef, g: 0, f: g.heuristic(startRef, endRef)}
	s.nodes[startRef] = start
	heap.Push(s.open, start)
	g.search = s
	if startRef == endRef {
		s.done = true
		s.found = true
		return Success
	}
	return InProgress
}

func (g *GridMesh) heuristic(from, to PolyRef) float32 {
	fx, fz, ok1 := g.cellFromRef(from)
	tx, tz, ok2 := g.cellFromRef(to)
	if !ok1 || !ok2 {
		return 0
	}
	dx := float32(tx - fx)
	dz := float32(tz - fz)
	if dx < 0 {
		dx = -dx
	}
	if dz < 0 {
		dz = -dz
	}
	return (dx + dz) * g.cellSize
}

// UpdateSlicedFindPath implements Query.
func (g *GridMesh) UpdateSlicedFindPath(maxIter int) (int, Status) {
	s := g.search
	if s == nil {
		return 0, Failure | InvalidParam
	}
	if s.done {
		if s.found {
			return 0, Success
		}
		return 0, Failure
	}

	iters := 0
	for iters < maxIter {
		if s.open.Len() == 0 {
			s.done = true
			s.found = false
			return iters, Failure
		}
		cur := heap.Pop(s.open).(*searchNode)
		iters++
		if cur.closed {
			continue
		}
		cur.closed = true

		if cur.ref == s.endRef {
			s.done = true
			s.found = true
			return iters, Success
		}

		cx, cz, ok := g.cellFromRef(cur.ref)
		if !ok {
			continue
		}
		for _, off := range gridNeighborOffsets {
			nx, nz := cx+off[0], cz+off[1]
			if !g.isWalkable(nx, nz) {
				continue
			}
			nref := g.refFromCell(nx, nz)
			if s.filter != nil && !s.filter.PassFilter(nref) {
				continue
			}
			next, exists := s.nodes[nref]
			tentativeG := cur.g + g.cellSize
			if !exists {
				next = &searchNode{ref: nref, g: tentativeG, parent: cur.ref, hasPar: true, f: tentativeG + g.heuristic(nref, s.endRef)}
				s.nodes[nref] = next
				heap.Push(s.open, next)
			} else if !next.closed && tentativeG < next.g {
				next.g = tentativeG
				next.parent = cur.ref
				next.hasPar = true
				next.f = tentativeG + g.heuristic(nref, s.endRef)
				heap.Fix(s.open, next.heapIdx)
			}
		}
		if iters >= maxIter {
			break
		}
	}
	return iters, InProgress
}

func (s *slicedSearch) buildPath() []PolyRef {
	if !s.found {
		return nil
	}
	var rev []PolyRef
	ref := s.endRef
	for {
		rev = append(rev, ref)
		n := s.nodes[ref]
		if n == nil || !n.hasPar {
			break
		}
		ref = n.parent
	}
	path := make([]PolyRef, len(rev))
	for i, r := range rev {
		path[len(rev)-1-i] = r
	}
	return path
}

// FinalizeSlicedFindPath implements Query.
func (g *GridMesh) FinalizeSlicedFindPath(path []PolyRef) (int, Status) {
	s := g.search
	if s == nil || !s.done {
		return 0, Failure | InvalidParam
	}
	full := s.buildPath()
	g.search = nil
	if !s.found {
		return 0, Failure
	}
	n := copy(path, full)
	if n < len(full) {
		return n, Success | BufferTooSmall
	}
	return n, Success
}

// FinalizeSlicedFindPathPartial implements Query. The grid search always
// starts from existingPath's first ref, so the "partial" result is simply
// the best path found so far, preferring any node already closed over the
// raw straight-line fallback.
func (g *GridMesh) FinalizeSlicedFindPathPartial(existingPath []PolyRef, path []PolyRef) (int, Status) {
	s := g.search
	if s == nil {
		return 0, Failure | InvalidParam
	}
	defer func() { g.search = nil }()

	if s.found {
		n := copy(path, s.buildPath())
		return n, Success
	}

	// Walk back from whichever closed node is nearest to the goal.
	var best *searchNode
	for _, n := range s.nodes {
		if !n.closed {
			continue
		}
		if best == nil || g.heuristic(n.ref, s.endRef) < g.heuristic(best.ref, s.endRef) {
			best = n
		}
	}
	if best == nil {
		n := copy(path, existingPath)
		return n, Success | PartialResult
	}
	var rev []PolyRef
	ref := best.ref
	for {
		rev = append(rev, ref)
		n := s.nodes[ref]
		if n == nil || !n.hasPar {
			break
		}
		ref = n.parent
	}
	partial := make([]PolyRef, len(rev))
	for i, r := range rev {
		partial[len(rev)-1-i] = r
	}
	n := copy(path, partial)
	return n, Success | PartialResult
}
