package navmesh

import "github.com/arl/crowdsteer/math3d"

// WallSegment is a navmesh boundary edge returned by PolyWallSegments,
// feeding the crowd's LocalBoundary cache and from there the Collision
// Avoidance segment obstacles.
type WallSegment struct {
	P, Q math3d.Vec3
}

// OffMeshEndpoints describes the two polygons and world positions joined by
// an off-mesh connection.
type OffMeshEndpoints struct {
	StartRef, EndRef PolyRef
	StartPos, EndPos math3d.Vec3
}

// Query is the read-only navmesh collaborator the crowd core calls through.
// It is deliberately the entire surface spec.md §6 names as "consumed" from
// the navmesh query layer — nearest-polygon lookup, sliced pathfinding,
// corridor visibility, and the handful of primitives LocalBoundary and
// off-mesh traversal need. Building, importing, or tiling a navmesh is
// outside this interface's concern; GridMesh is the one concrete
// implementation shipped here, and it is intentionally minimal.
type Query interface {
	// FindNearestPoly returns the polygon nearest to center, searching
	// within extents along each axis, and the closest point on that
	// polygon. ref is zero if the search box touches no polygon.
	FindNearestPoly(center, extents math3d.Vec3, filter QueryFilter) (ref PolyRef, nearest math3d.Vec3, status Status)

	// IsValidPolyRef reports whether ref names a polygon that currently
	// exists and passes filter.
	IsValidPolyRef(ref PolyRef, filter QueryFilter) bool

	// ClosestPointOnPoly projects pos onto ref, respecting the polygon's
	// detail height where applicable.
	ClosestPointOnPoly(ref PolyRef, pos math3d.Vec3) (closest math3d.Vec3, status Status)

	// PolyHeight returns the navmesh surface height at pos, which must lie
	// within ref's xz footprint.
	PolyHeight(ref PolyRef, pos math3d.Vec3) (height float32, ok bool)

	// MoveAlongSurface slides a point from start to end across polygon
	// boundaries without leaving the mesh, returning the polygons crossed.
	MoveAlongSurface(ref PolyRef, start, end math3d.Vec3, filter QueryFilter) (result math3d.Vec3, visited []PolyRef, status Status)

	// InitSlicedFindPath begins a budgeted A* search from startRef/startPos
	// to endRef/endPos. Only one sliced search may be active on a Query at
	// a time; PathQueue is the only caller expected to hold one open across
	// ticks.
	InitSlicedFindPath(startRef, endRef PolyRef, startPos, endPos math3d.Vec3, filter QueryFilter) Status

	// UpdateSlicedFindPath advances the active sliced search by up to
	// maxIter steps, returning how many it actually performed.
	UpdateSlicedFindPath(maxIter int) (doneIters int, status Status)

	// FinalizeSlicedFindPath completes the active sliced search, writing up
	// to len(path) polygon references into path and returning how many were
	// written.
	FinalizeSlicedFindPath(path []PolyRef) (n int, status Status)

	// FinalizeSlicedFindPathPartial is like FinalizeSlicedFindPath but
	// biases the result toward staying connected to existingPath's prefix,
	// used when replanning a corridor that is still partially valid.
	FinalizeSlicedFindPathPartial(existingPath []PolyRef, path []PolyRef) (n int, status Status)

	// FindStraightPath extracts up to len(verts) straight-path corners from
	// startPos to endPos along the polygon corridor in path.
	FindStraightPath(startPos, endPos math3d.Vec3, path []PolyRef, verts []math3d.Vec3, flags []StraightPathFlags, polys []PolyRef) (n int, status Status)

	// Raycast fires a ray from start in the direction of end, constrained to
	// the corridor reachable under filter, reporting the hit parameter (1 if
	// unobstructed) and the polygons the ray crossed.
	Raycast(startRef PolyRef, start, end math3d.Vec3, filter QueryFilter) (t float32, hitNormal math3d.Vec3, visited []PolyRef, status Status)

	// FindLocalNeighbourhood returns the polygons reachable from ref within
	// radius of centerPos, feeding LocalBoundary.
	FindLocalNeighbourhood(ref PolyRef, centerPos math3d.Vec3, radius float32, filter QueryFilter) ([]PolyRef, Status)

	// PolyWallSegments returns ref's boundary edges that are not shared with
	// a passable neighbor — the walls LocalBoundary caches.
	PolyWallSegments(ref PolyRef, filter QueryFilter) ([]WallSegment, Status)

	// OffMeshConnectionPolyEndPoints resolves the two endpoints of the
	// off-mesh connection polygon ref.
	OffMeshConnectionPolyEndPoints(ref PolyRef) (OffMeshEndpoints, bool)
}
