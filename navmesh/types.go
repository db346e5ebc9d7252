package navmesh

import "github.com/arl/crowdsteer/math3d"

// PolyRef identifies a single polygon within a navmesh. Zero is never a
// valid reference.
type PolyRef uint32

// SlicedQueryRef identifies one in-flight sliced find-path search. Only one
// may be active on a given Query at a time (see Query.InitSlicedFindPath).
type SlicedQueryRef uint32

// StraightPathFlags decorate a corner returned by FindCorners/
// FindStraightPath.
type StraightPathFlags uint8

const (
	// StraightPathStart marks the first vertex in a straight path.
	StraightPathStart StraightPathFlags = 1 << iota
	// StraightPathEnd marks the last vertex in a straight path — the agent's
	// final target.
	StraightPathEnd
	// StraightPathOffMeshConnection marks a vertex that begins an off-mesh
	// connection: the next polygon in the corridor is a scripted link
	// rather than a walkable neighbor.
	StraightPathOffMeshConnection
)

// QueryFilter controls which polygons a search may traverse and at what
// cost, mirroring the teacher's own QueryFilter/StandardQueryFilter split:
// a thin interface so tests can swap in custom area costs, backed by one
// sane default implementation.
type QueryFilter interface {
	// PassFilter reports whether ref can be visited.
	PassFilter(ref PolyRef) bool
	// Cost returns the traversal cost of moving from pa to pb, both
	// positions lying on the edge shared by prevRef/curRef or curRef/nextRef.
	Cost(pa, pb math3d.Vec3, prevRef, curRef, nextRef PolyRef) float32
}

// StandardQueryFilter is a general purpose QueryFilter: every polygon is
// traversable at unit cost unless explicitly excluded.
type StandardQueryFilter struct {
	excluded map[PolyRef]bool
}

// NewStandardQueryFilter returns a filter that accepts every polygon.
func NewStandardQueryFilter() *StandardQueryFilter {
	return &StandardQueryFilter{excluded: make(map[PolyRef]bool)}
}

// Exclude marks ref as impassable.
func (f *StandardQueryFilter) Exclude(ref PolyRef) { f.excluded[ref] = true }

// Include removes a previous exclusion.
func (f *StandardQueryFilter) Include(ref PolyRef) { delete(f.excluded, ref) }

// PassFilter implements QueryFilter.
func (f *StandardQueryFilter) PassFilter(ref PolyRef) bool { return !f.excluded[ref] }

// Cost implements QueryFilter as straight-line distance between pa and pb.
func (f *StandardQueryFilter) Cost(pa, pb math3d.Vec3, prevRef, curRef, nextRef PolyRef) float32 {
	return math3d.Dist2D(pa, pb)
}
