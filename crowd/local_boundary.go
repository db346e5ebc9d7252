package crowd

import (
	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

const maxLocalSegs = 8

type boundarySegment struct {
	p, q math3d.Vec3
	dist float32 // squared distance to the agent center, for pruning
}

// LocalBoundary caches the navmesh wall segments near one agent, refreshed
// periodically rather than every tick. CollisionAvoidance reads it to build
// the segment obstacles it samples against.
type LocalBoundary struct {
	center math3d.Vec3
	segs   [maxLocalSegs]boundarySegment
	nsegs  int

	polys  []navmesh.PolyRef
	npolys int
}

// NewLocalBoundary returns an empty, invalid boundary cache.
func NewLocalBoundary() *LocalBoundary {
	lb := &LocalBoundary{polys: make([]navmesh.PolyRef, 16)}
	lb.Reset()
	return lb
}

// Reset invalidates the cache, forcing the next Update to rebuild it.
func (lb *LocalBoundary) Reset() {
	lb.center = nil
	lb.nsegs = 0
	lb.npolys = 0
}

func (lb *LocalBoundary) addSegment(dist float32, p, q math3d.Vec3) {
	if lb.nsegs == 0 {
		lb.segs[0] = boundarySegment{p: p, q: q, dist: dist}
		lb.nsegs = 1
		return
	}
	if dist >= lb.segs[lb.nsegs-1].dist {
		if lb.nsegs >= maxLocalSegs {
			return
		}
		lb.segs[lb.nsegs] = boundarySegment{p: p, q: q, dist: dist}
		lb.nsegs++
		return
	}

	i := 0
	for i < lb.nsegs && dist > lb.segs[i].dist {
		i++
	}
	n := lb.nsegs - i
	if lb.nsegs < maxLocalSegs {
		n = lb.nsegs - i
	} else {
		n = maxLocalSegs - i - 1
	}
	if n > 0 {
		copy(lb.segs[i+1:i+1+n], lb.segs[i:i+n])
	}
	lb.segs[i] = boundarySegment{p: p, q: q, dist: dist}
	if lb.nsegs < maxLocalSegs {
		lb.nsegs++
	}
}

// Update refreshes the boundary around (ref, pos), keeping only wall
// segments within collisionQueryRange.
func (lb *LocalBoundary) Update(ref navmesh.PolyRef, pos math3d.Vec3, collisionQueryRange float32, query navmesh.Query, filter navmesh.QueryFilter) {
	if ref == 0 {
		lb.Reset()
		return
	}

	lb.center = pos
	neighbours, status := query.FindLocalNeighbourhood(ref, pos, collisionQueryRange, filter)
	if status.Failed() {
		lb.Reset()
		return
	}
	if len(neighbours) > cap(lb.polys) {
		neighbours = neighbours[:cap(lb.polys)]
	}
	lb.polys = lb.polys[:0]
	lb.polys = append(lb.polys, neighbours...)
	lb.npolys = len(lb.polys)

	lb.nsegs = 0
	rangeSqr := collisionQueryRange * collisionQueryRange
	for _, p := range lb.polys {
		segs, status := query.PolyWallSegments(p, filter)
		if status.Failed() {
			continue
		}
		for _, s := range segs {
			distSqr := distToSegSqr2D(pos, s.P, s.Q)
			if distSqr > rangeSqr {
				continue
			}
			lb.addSegment(distSqr, s.P, s.Q)
		}
	}
}

// distToSegSqr2D returns the squared xz-distance from pt to segment p-q.
func distToSegSqr2D(pt, p, q math3d.Vec3) float32 {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqz*pqz
	t := pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return dx*dx + dz*dz
}

// IsValid reports whether every cached polygon still passes filter.
func (lb *LocalBoundary) IsValid(query navmesh.Query, filter navmesh.QueryFilter) bool {
	if lb.npolys == 0 {
		return false
	}
	for _, p := range lb.polys {
		if !query.IsValidPolyRef(p, filter) {
			return false
		}
	}
	return true
}

// Center returns the position the boundary was last refreshed around.
func (lb *LocalBoundary) Center() math3d.Vec3 { return lb.center }

// SegmentCount returns the number of cached wall segments.
func (lb *LocalBoundary) SegmentCount() int { return lb.nsegs }

// Segment returns the i-th cached wall segment's endpoints.
func (lb *LocalBoundary) Segment(i int) (p, q math3d.Vec3) {
	s := lb.segs[i]
	return s.p, s.q
}
