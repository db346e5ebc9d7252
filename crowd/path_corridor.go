package crowd

import (
	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

// PathCorridor is a dynamic polygon corridor used to plan one agent's local
// movement. It is loaded with a path obtained from a navmesh.Query search,
// then kept valid as the agent moves: MovePosition/MoveTargetPosition slide
// the corridor's ends along the navmesh, and OptimizePathVisibility/
// OptimizePathTopology periodically straighten it again as steering and
// collision avoidance push the agent away from the originally planned line.
//
// The corridor position and target are always constrained to the
// navigation mesh. Floating point drift, locomotion inaccuracies and local
// steering can push the agent across the corridor's boundary; the move
// functions use local mesh queries to detect and repair that without a full
// replan.
type PathCorridor struct {
	pos    math3d.Vec3
	target math3d.Vec3

	path    []navmesh.PolyRef
	npath   int
	maxPath int
}

// Init allocates the corridor's path buffer, sized to hold at most maxPath
// polygon references.
func (pc *PathCorridor) Init(maxPath int) {
	pc.path = make([]navmesh.PolyRef, maxPath)
	pc.maxPath = maxPath
}

// Reset collapses the corridor to a single polygon at pos, with the target
// equal to the position.
func (pc *PathCorridor) Reset(ref navmesh.PolyRef, pos math3d.Vec3) {
	pc.pos = math3d.XYZ(pos[0], pos[1], pos[2])
	pc.target = math3d.XYZ(pos[0], pos[1], pos[2])
	pc.path[0] = ref
	pc.npath = 1
}

const minCornerTargetDist = 0.01

// FindCorners straightens the corridor from the current position toward the
// target and writes up to len(cornerVerts) corners (the straightened path)
// into cornerVerts/cornerFlags/cornerPolys, returning how many were
// written. Corners too close to the current position are pruned, and the
// list is truncated right after the first off-mesh connection corner so a
// caller never needs to look past it in one call.
func (pc *PathCorridor) FindCorners(cornerVerts []math3d.Vec3, cornerFlags []navmesh.StraightPathFlags,
	cornerPolys []navmesh.PolyRef, query navmesh.Query) int {

	ncorners, _ := query.FindStraightPath(pc.pos, pc.target, pc.path[:pc.npath], cornerVerts, cornerFlags, cornerPolys)

	for ncorners != 0 {
		if cornerFlags[0]&navmesh.StraightPathOffMeshConnection != 0 ||
			math3d.Dist2D(pc.pos, cornerVerts[0]) > minCornerTargetDist {
			break
		}
		ncorners--
		if ncorners != 0 {
			copy(cornerFlags, cornerFlags[1:1+ncorners])
			copy(cornerPolys, cornerPolys[1:1+ncorners])
			copy(cornerVerts, cornerVerts[1:1+ncorners])
		}
	}

	for i := 0; i < ncorners; i++ {
		if cornerFlags[i]&navmesh.StraightPathOffMeshConnection != 0 {
			ncorners = i + 1
			break
		}
	}

	return ncorners
}

// OptimizePathVisibility straightens the corridor toward next using a
// raycast, replacing its start with the raycast's visited polygons when the
// line to next is unobstructed and shorter than following the existing
// path. It has no effect over long distances; call it often with a small
// pathOptimizationRange rather than rarely with a large one.
func (pc *PathCorridor) OptimizePathVisibility(next math3d.Vec3, pathOptimizationRange float32, query navmesh.Query, filter navmesh.QueryFilter) {
	dist := math3d.Dist2D(next, pc.pos)
	if dist < 0.01 {
		return
	}

	dist += 0.01
	if pathOptimizationRange < dist {
		dist = pathOptimizationRange
	}
	scale := dist / math3d.Dist2D(next, pc.pos)
	goal := math3d.Lerp2D(pc.pos, next, scale)

	t, _, visited, status := query.Raycast(pc.path[0], pc.pos, goal, filter)
	if status.Succeeded() && len(visited) > 1 && t > 0.99 {
		pc.npath = mergeCorridorStartShortcut(pc.path, pc.npath, pc.maxPath, visited)
	}
}

// OptimizePathTopology re-runs a short, local sliced search to try to find
// a cheaper route than the current corridor, merging it in if found.
func (pc *PathCorridor) OptimizePathTopology(query navmesh.Query, filter navmesh.QueryFilter) bool {
	if pc.npath < 3 {
		return false
	}

	const maxIter = 32

	query.InitSlicedFindPath(pc.path[0], pc.path[pc.npath-1], pc.pos, pc.target, filter)
	query.UpdateSlicedFindPath(maxIter)

	res := make([]navmesh.PolyRef, 32)
	nres, status := query.FinalizeSlicedFindPathPartial(pc.path[:pc.npath], res)
	if status.Succeeded() && nres > 0 {
		pc.npath = mergeCorridorStartShortcut(pc.path, pc.npath, pc.maxPath, res[:nres])
		return true
	}
	return false
}

// MoveOverOffmeshConnection advances the corridor past the off-mesh
// connection named by offMeshConRef and moves the agent position to the
// connection's end point, reporting the polygons on either side of the
// link. It returns false if offMeshConRef is not on this corridor.
func (pc *PathCorridor) MoveOverOffmeshConnection(offMeshConRef navmesh.PolyRef, query navmesh.Query) (prevRef, poly navmesh.PolyRef, startPos, endPos math3d.Vec3, ok bool) {
	var prev navmesh.PolyRef
	ref := pc.path[0]
	npos := 0
	for npos < pc.npath && ref != offMeshConRef {
		prev = ref
		ref = pc.path[npos]
		npos++
	}
	if npos == pc.npath {
		return 0, 0, nil, nil, false
	}

	copy(pc.path, pc.path[npos:pc.npath])
	pc.npath -= npos

	ep, found := query.OffMeshConnectionPolyEndPoints(offMeshConRef)
	if !found {
		return 0, 0, nil, nil, false
	}
	pc.pos = math3d.XYZ(ep.EndPos[0], ep.EndPos[1], ep.EndPos[2])
	return prev, ref, ep.StartPos, ep.EndPos, true
}

// FixPathStart forcibly replaces the first polygon of the corridor with
// safeRef/safePos, used after the agent's position is found to no longer
// be on the corridor's first polygon.
func (pc *PathCorridor) FixPathStart(safeRef navmesh.PolyRef, safePos math3d.Vec3) {
	pc.pos = math3d.XYZ(safePos[0], safePos[1], safePos[2])
	if pc.npath < 3 && pc.npath > 0 {
		pc.path[2] = pc.path[pc.npath-1]
		pc.path[0] = safeRef
		pc.path[1] = 0
		pc.npath = 3
	} else {
		pc.path[0] = safeRef
		pc.path[1] = 0
	}
}

// TrimInvalidPath drops the suffix of the corridor that no longer passes
// filter, falling back to safeRef/safePos if even the first polygon is now
// invalid.
func (pc *PathCorridor) TrimInvalidPath(safeRef navmesh.PolyRef, safePos math3d.Vec3, query navmesh.Query, filter navmesh.QueryFilter) {
	n := 0
	for n < pc.npath && query.IsValidPolyRef(pc.path[n], filter) {
		n++
	}

	if n == pc.npath {
		return
	}
	if n == 0 {
		pc.pos = math3d.XYZ(safePos[0], safePos[1], safePos[2])
		pc.path[0] = safeRef
		pc.npath = 1
	} else {
		pc.npath = n
	}

	if closest, status := query.ClosestPointOnPoly(pc.path[pc.npath-1], pc.target); status.Succeeded() {
		pc.target = closest
	}
}

// IsValid reports whether the first maxLookAhead polygons of the corridor
// still pass filter.
func (pc *PathCorridor) IsValid(maxLookAhead int, query navmesh.Query, filter navmesh.QueryFilter) bool {
	n := pc.npath
	if maxLookAhead < n {
		n = maxLookAhead
	}
	for i := 0; i < n; i++ {
		if !query.IsValidPolyRef(pc.path[i], filter) {
			return false
		}
	}
	return true
}

// MovePosition slides the corridor's current position toward npos along
// the navmesh surface, shortening or lengthening the corridor as needed so
// the new position lands in its first polygon. It reports whether the move
// succeeded.
func (pc *PathCorridor) MovePosition(npos math3d.Vec3, query navmesh.Query, filter navmesh.QueryFilter) bool {
	result, visited, status := query.MoveAlongSurface(pc.path[0], pc.pos, npos, filter)
	if !status.Succeeded() {
		return false
	}
	pc.npath = mergeCorridorStartMoved(pc.path, pc.npath, pc.maxPath, visited)

	if h, ok := query.PolyHeight(pc.path[0], result); ok {
		result[1] = h
	}
	pc.pos = result
	return true
}

// MoveTargetPosition slides the corridor's target toward npos along the
// navmesh surface, lengthening or shortening the corridor's tail as needed.
func (pc *PathCorridor) MoveTargetPosition(npos math3d.Vec3, query navmesh.Query, filter navmesh.QueryFilter) bool {
	result, visited, status := query.MoveAlongSurface(pc.path[pc.npath-1], pc.target, npos, filter)
	if !status.Succeeded() {
		return false
	}
	pc.npath = mergeCorridorEndMoved(pc.path, pc.npath, pc.maxPath, visited)
	pc.target = result
	return true
}

// SetCorridor loads a newly planned path and its target into the corridor.
func (pc *PathCorridor) SetCorridor(target math3d.Vec3, path []navmesh.PolyRef) {
	pc.target = math3d.XYZ(target[0], target[1], target[2])
	pc.npath = copy(pc.path, path)
}

// Pos returns the current position within the corridor's first polygon.
func (pc *PathCorridor) Pos() math3d.Vec3 { return pc.pos }

// Target returns the current target within the corridor's last polygon.
func (pc *PathCorridor) Target() math3d.Vec3 { return pc.target }

// FirstPoly returns the polygon reference containing the position, or zero
// if the corridor is empty.
func (pc *PathCorridor) FirstPoly() navmesh.PolyRef {
	if pc.npath == 0 {
		return 0
	}
	return pc.path[0]
}

// LastPoly returns the polygon reference containing the target, or zero if
// the corridor is empty.
func (pc *PathCorridor) LastPoly() navmesh.PolyRef {
	if pc.npath == 0 {
		return 0
	}
	return pc.path[pc.npath-1]
}

// Path returns the corridor's full polygon buffer; only the first
// PathCount() entries are meaningful.
func (pc *PathCorridor) Path() []navmesh.PolyRef { return pc.path }

// PathCount returns the number of polygons currently in the corridor.
func (pc *PathCorridor) PathCount() int { return pc.npath }

// mergeCorridorStartMoved splices visited — the polygons crossed by a
// MovePosition call — onto the front of path, keeping the corridor
// consistent with where the agent's position actually ended up.
func mergeCorridorStartMoved(path []navmesh.PolyRef, npath, maxPath int, visited []navmesh.PolyRef) int {
	furthestPath, furthestVisited := -1, -1
	for i := npath - 1; i >= 0; i-- {
		found := false
		for j := len(visited) - 1; j >= 0; j-- {
			if path[i] == visited[j] {
				furthestPath, furthestVisited = i, j
				found = true
			}
		}
		if found {
			break
		}
	}
	if furthestPath == -1 || furthestVisited == -1 {
		return npath
	}

	req := len(visited) - furthestVisited
	orig := furthestPath + 1
	if npath < orig {
		orig = npath
	}
	size := 0
	if npath-orig > 0 {
		size = npath - orig
	}
	if req+size > maxPath {
		size = maxPath - req
	}
	if size > 0 {
		copy(path[req:], path[orig:orig+size])
	}
	for i := 0; i < req; i++ {
		path[i] = visited[(len(visited)-1)-i]
	}
	return req + size
}

// mergeCorridorEndMoved splices visited onto the tail of path after a
// MoveTargetPosition call.
func mergeCorridorEndMoved(path []navmesh.PolyRef, npath, maxPath int, visited []navmesh.PolyRef) int {
	furthestPath, furthestVisited := -1, -1
	for i := 0; i < npath; i++ {
		found := false
		for j := len(visited) - 1; j >= 0; j-- {
			if path[i] == visited[j] {
				furthestPath, furthestVisited = i, j
				found = true
			}
		}
		if found {
			break
		}
	}
	if furthestPath == -1 || furthestVisited == -1 {
		return npath
	}

	ppos := furthestPath + 1
	vpos := furthestVisited + 1
	count := len(visited) - vpos
	if maxPath-ppos < count {
		count = maxPath - ppos
	}
	if count != 0 {
		copy(path[ppos:], visited[vpos:vpos+count])
	}
	return ppos + count
}

// mergeCorridorStartShortcut replaces the corridor's start with a shorter
// route found by a visibility raycast or topology search.
func mergeCorridorStartShortcut(path []navmesh.PolyRef, npath, maxPath int, visited []navmesh.PolyRef) int {
	furthestPath, furthestVisited := -1, -1
	for i := npath - 1; i >= 0; i-- {
		found := false
		for j := len(visited) - 1; j >= 0; j-- {
			if path[i] == visited[j] {
				furthestPath, furthestVisited = i, j
				found = true
			}
		}
		if found {
			break
		}
	}
	if furthestPath == -1 || furthestVisited == -1 {
		return npath
	}

	req := furthestVisited
	if req <= 0 {
		return npath
	}
	orig := furthestPath
	size := npath - orig
	if size < 0 {
		size = 0
	}
	if req+size > maxPath {
		size = maxPath - req
	}
	if size != 0 {
		copy(path[req:], path[orig:orig+size])
	}
	for i := 0; i < req; i++ {
		path[i] = visited[i]
	}
	return req + size
}
