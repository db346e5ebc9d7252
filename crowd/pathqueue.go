package crowd

import (
	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

const (
	// PathQInvalid is the zero PathQueueRef: no request.
	PathQInvalid PathQueueRef = 0
	// MaxQueueSlots bounds how many path requests can be in flight at once.
	MaxQueueSlots = 8
	// maxKeepAliveTicks is how many Update calls a completed request's
	// result is kept around before its slot is reclaimed, in case the
	// requester is momentarily behind reading it. PathFollowing calls
	// Update once per agent, so with several agents this is less than one
	// tick.
	maxKeepAliveTicks = 2
)

// PathQueueRef identifies one path request submitted to a PathQueue.
type PathQueueRef uint32

type pathRequest struct {
	ref              PathQueueRef
	startPos, endPos math3d.Vec3
	startRef, endRef navmesh.PolyRef
	path             []navmesh.PolyRef
	npath            int
	status           navmesh.Status
	active           bool
	keepAlive        int
	filter           navmesh.QueryFilter
}

// PathQueue is a small, bounded, FIFO broker for asynchronous sliced
// pathfinding: agents submit a start/end request and poll for completion,
// while PathQueue itself spends a fixed iteration budget per tick advancing
// whichever request is at the head of the queue. This keeps a single path
// search from ever stalling a tick, at the cost of a request taking several
// ticks to resolve when many agents replan at once.
type PathQueue struct {
	queue       [MaxQueueSlots]pathRequest
	nextHandle  PathQueueRef
	maxPathSize int
	queueHead   int
	query       navmesh.Query
}

// NewPathQueue returns a PathQueue bound to query, with each request able to
// hold up to maxPathSize polygon references.
func NewPathQueue(query navmesh.Query, maxPathSize int) *PathQueue {
	pq := &PathQueue{
		nextHandle:  1,
		maxPathSize: maxPathSize,
		query:       query,
	}
	for i := range pq.queue {
		pq.queue[i].path = make([]navmesh.PolyRef, maxPathSize)
	}
	return pq
}

// Update advances the queue by at most maxIters pathfinder iterations,
// spread across as many queued requests as that budget allows, starting
// from wherever the last call left off.
func (pq *PathQueue) Update(maxIters int) {
	iterBudget := maxIters

	for i := 0; i < MaxQueueSlots; i++ {
		q := &pq.queue[pq.queueHead%MaxQueueSlots]

		if !q.active {
			pq.queueHead++
			continue
		}

		if q.status.Succeeded() || q.status.Failed() {
			q.keepAlive++
			if q.keepAlive > maxKeepAliveTicks {
				q.active = false
			}
			pq.queueHead++
			continue
		}

		if q.status == 0 {
			q.status = pq.query.InitSlicedFindPath(q.startRef, q.endRef, q.startPos, q.endPos, q.filter)
		}
		if q.status.InProgressStatus() {
			iters, status := pq.query.UpdateSlicedFindPath(iterBudget)
			q.status = status
			iterBudget -= iters
		}
		if q.status.Succeeded() {
			q.npath, q.status = pq.query.FinalizeSlicedFindPath(q.path)
		}

		if iterBudget <= 0 {
			break
		}
		pq.queueHead++
	}
}

// Request submits a new path search and returns its handle, or PathQInvalid
// if the queue is full.
func (pq *PathQueue) Request(startRef, endRef navmesh.PolyRef, startPos, endPos math3d.Vec3, filter navmesh.QueryFilter) PathQueueRef {
	slot := -1
	for i := range pq.queue {
		if !pq.queue[i].active {
			slot = i
			break
		}
	}
	if slot == -1 {
		return PathQInvalid
	}

	ref := pq.nextHandle
	pq.nextHandle++
	if pq.nextHandle == PathQInvalid {
		pq.nextHandle++
	}

	q := &pq.queue[slot]
	*q = pathRequest{
		ref:      ref,
		startPos: startPos,
		startRef: startRef,
		endPos:   endPos,
		endRef:   endRef,
		filter:   filter,
		path:     q.path,
		active:   true,
	}
	return ref
}

// RequestStatus returns the current status of ref, or navmesh.Failure if
// ref names no active request.
func (pq *PathQueue) RequestStatus(ref PathQueueRef) navmesh.Status {
	for i := range pq.queue {
		if pq.queue[i].active && pq.queue[i].ref == ref {
			return pq.queue[i].status
		}
	}
	return navmesh.Failure
}

// PathResult copies the resolved path for ref into path, frees ref's slot
// for reuse, and reports how many polygon references were written.
func (pq *PathQueue) PathResult(ref PathQueueRef, path []navmesh.PolyRef) (int, navmesh.Status) {
	for i := range pq.queue {
		q := &pq.queue[i]
		if !q.active || q.ref != ref {
			continue
		}
		details := q.status & navmesh.StatusDetailMask
		q.active = false
		n := copy(path, q.path[:q.npath])
		return n, details | navmesh.Success
	}
	return 0, navmesh.Failure
}

// Query returns the navmesh.Query this queue dispatches searches against.
func (pq *PathQueue) Query() navmesh.Query { return pq.query }
