package navmesh

import (
	"fmt"

	"github.com/arl/crowdsteer/math3d"
)

// GridMesh is a minimal Query implementation: a flat grid of unit-size
// walkable cells on the xz-plane, optionally punctured by holes, plus a
// small number of explicitly registered off-mesh connections. It exists to
// exercise the crowd core's navmesh collaborator in tests and the demo CLI
// without requiring a tiled Recast/Detour build — it is not a general
// navmesh and makes no attempt at polygon triangulation or tiling. Its only
// mesh import is NewGridMeshFromOBJ, which marks walkable the grid cells a
// Wavefront OBJ floor footprint covers.
type GridMesh struct {
	width, height int
	cellSize      float32
	originX       float32
	originZ       float32
	walkable      []bool // width*height, row-major by z then x

	offMesh     []offMeshLink
	offMeshBase PolyRef

	search *slicedSearch
}

type offMeshLink struct {
	start, end PolyRef
	startPos   math3d.Vec3
	endPos     math3d.Vec3
}

// NewGridMesh builds a width x height grid of cellSize squares, all
// initially walkable, with its origin (grid cell (0,0)'s corner) at
// (originX, 0, originZ) in world space.
func NewGridMesh(width, height int, cellSize, originX, originZ float32) *GridMesh {
	g := &GridMesh{
		width:    width,
		height:   height,
		cellSize: cellSize,
		originX:  originX,
		originZ:  originZ,
		walkable: make([]bool, width*height),
	}
	for i := range g.walkable {
		g.walkable[i] = true
	}
	g.offMeshBase = PolyRef(width*height + 1)
	return g
}

// PolyRefAt returns the polygon reference of the cell containing (x, z), and
// whether such a cell exists in bounds.
func (g *GridMesh) PolyRefAt(x, z float32) (PolyRef, bool) {
	cx, cz := g.cellCoords(x, z)
	if !g.inBounds(cx, cz) {
		return 0, false
	}
	return g.refFromCell(cx, cz), true
}

// SetWalkable marks the cell at grid coordinates (cx, cz) as walkable or not
// — used to carve holes/walls into the flat grid.
func (g *GridMesh) SetWalkable(cx, cz int, walkable bool) {
	if !g.inBounds(cx, cz) {
		return
	}
	g.walkable[cz*g.width+cx] = walkable
}

// AddOffMeshConnection registers a scripted link between two world
// positions, each snapped to its containing cell. It returns the polygon
// reference representing the connection, used as a corridor entry the same
// way an off-mesh connection polygon would be in a tiled navmesh.
func (g *GridMesh) AddOffMeshConnection(startPos, endPos math3d.Vec3) (PolyRef, error) {
	startRef, ok := g.PolyRefAt(startPos[0], startPos[2])
	if !ok {
		return 0, fmt.Errorf("navmesh: off-mesh start %v outside grid", startPos)
	}
	endRef, ok := g.PolyRefAt(endPos[0], endPos[2])
	if !ok {
		return 0, fmt.Errorf("navmesh: off-mesh end %v outside grid", endPos)
	}
	ref := g.offMeshBase + PolyRef(len(g.offMesh))
	g.offMesh = append(g.offMesh, offMeshLink{
		start:    startRef,
		end:      endRef,
		startPos: math3d.New(),
		endPos:   math3d.New(),
	})
	link := &g.offMesh[len(g.offMesh)-1]
	copy(link.startPos, startPos)
	copy(link.endPos, endPos)
	return ref, nil
}

func (g *GridMesh) cellCoords(x, z float32) (int, int) {
	cx := int((x - g.originX) / g.cellSize)
	cz := int((z - g.originZ) / g.cellSize)
	return cx, cz
}

func (g *GridMesh) inBounds(cx, cz int) bool {
	return cx >= 0 && cx < g.width && cz >= 0 && cz < g.height
}

func (g *GridMesh) refFromCell(cx, cz int) PolyRef {
	return PolyRef(cz*g.width + cx + 1)
}

func (g *GridMesh) cellFromRef(ref PolyRef) (cx, cz int, ok bool) {
	if ref == 0 || ref >= g.offMeshBase {
		return 0, 0, false
	}
	idx := int(ref) - 1
	return idx % g.width, idx / g.width, true
}

func (g *GridMesh) isWalkable(cx, cz int) bool {
	if !g.inBounds(cx, cz) {
		return false
	}
	return g.walkable[cz*g.width+cx]
}

// cellCenter returns the world-space center of cell (cx, cz).
func (g *GridMesh) cellCenter(cx, cz int) math3d.Vec3 {
	return math3d.XYZ(
		g.originX+(float32(cx)+0.5)*g.cellSize,
		0,
		g.originZ+(float32(cz)+0.5)*g.cellSize,
	)
}

// clampToCell returns the closest point to pos that lies within cell (cx, cz).
func (g *GridMesh) clampToCell(cx, cz int, pos math3d.Vec3) math3d.Vec3 {
	xmin := g.originX + float32(cx)*g.cellSize
	xmax := xmin + g.cellSize
	zmin := g.originZ + float32(cz)*g.cellSize
	zmax := zmin + g.cellSize
	x := pos[0]
	if x < xmin {
		x = xmin
	} else if x > xmax {
		x = xmax
	}
	z := pos[2]
	if z < zmin {
		z = zmin
	} else if z > zmax {
		z = zmax
	}
	return math3d.XYZ(x, 0, z)
}

var gridNeighborOffsets = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func (g *GridMesh) neighbors(cx, cz int) [][2]int {
	out := make([][2]int, 0, 4)
	for _, off := range gridNeighborOffsets {
		nx, nz := cx+off[0], cz+off[1]
		if g.isWalkable(nx, nz) {
			out = append(out, [2]int{nx, nz})
		}
	}
	return out
}

// FindNearestPoly implements Query.
func (g *GridMesh) FindNearestPoly(center, extents math3d.Vec3, filter QueryFilter) (PolyRef, math3d.Vec3, Status) {
	cx0, cz0 := g.cellCoords(center[0]-extents[0], center[2]-extents[2])
	cx1, cz1 := g.cellCoords(center[0]+extents[0], center[2]+extents[2])

	var (
		bestRef  PolyRef
		bestDist = float32(-1)
		bestPos  math3d.Vec3
	)
	for cz := cz0; cz <= cz1; cz++ {
		for cx := cx0; cx <= cx1; cx++ {
			if !g.isWalkable(cx, cz) {
				continue
			}
			ref := g.refFromCell(cx, cz)
			if filter != nil && !filter.PassFilter(ref) {
				continue
			}
			pt := g.clampToCell(cx, cz, center)
			d := math3d.Dist2D(center, pt)
			if bestDist < 0 || d < bestDist {
				bestDist = d
				bestRef = ref
				bestPos = pt
			}
		}
	}
	return bestRef, bestPos, Success
}

// IsValidPolyRef implements Query.
func (g *GridMesh) IsValidPolyRef(ref PolyRef, filter QueryFilter) bool {
	if cx, cz, ok := g.cellFromRef(ref); ok {
		if !g.isWalkable(cx, cz) {
			return false
		}
		return filter == nil || filter.PassFilter(ref)
	}
	if int(ref) >= int(g.offMeshBase) && int(ref) < int(g.offMeshBase)+len(g.offMesh) {
		return filter == nil || filter.PassFilter(ref)
	}
	return false
}

// ClosestPointOnPoly implements Query.
func (g *GridMesh) ClosestPointOnPoly(ref PolyRef, pos math3d.Vec3) (math3d.Vec3, Status) {
	cx, cz, ok := g.cellFromRef(ref)
	if !ok {
		return nil, Failure | InvalidParam
	}
	return g.clampToCell(cx, cz, pos), Success
}

// PolyHeight implements Query. The grid is flat, so height is always zero.
func (g *GridMesh) PolyHeight(ref PolyRef, pos math3d.Vec3) (float32, bool) {
	_, _, ok := g.cellFromRef(ref)
	return 0, ok
}

// MoveAlongSurface implements Query by walking the straight line from start
// to end one grid cell at a time, stopping (and reporting the partial
// result) if it would cross into a non-walkable or filtered-out cell.
func (g *GridMesh) MoveAlongSurface(ref PolyRef, start, end math3d.Vec3, filter QueryFilter) (math3d.Vec3, []PolyRef, Status) {
	cx, cz, ok := g.cellFromRef(ref)
	if !ok {
		return nil, nil, Failure | InvalidParam
	}
	visited := []PolyRef{ref}
	pos := math3d.New()
	copy(pos, start)

	const steps = 16
	step := math3d.XYZ((end[0]-start[0])/steps, 0, (end[2]-start[2])/steps)
	for i := 0; i < steps; i++ {
		next := math3d.XYZ(pos[0]+step[0], 0, pos[2]+step[2])
		ncx, ncz := g.cellCoords(next[0], next[2])
		if !g.isWalkable(ncx, ncz) {
			break
		}
		nref := g.refFromCell(ncx, ncz)
		if filter != nil && !filter.PassFilter(nref) {
			break
		}
		if ncx != cx || ncz != cz {
			visited = append(visited, nref)
			cx, cz = ncx, ncz
		}
		pos = next
	}
	return pos, visited, Success
}

// Raycast implements Query by marching along the segment in small steps,
// reporting the fraction traveled before leaving the walkable corridor.
func (g *GridMesh) Raycast(startRef PolyRef, start, end math3d.Vec3, filter QueryFilter) (float32, math3d.Vec3, []PolyRef, Status) {
	cx, cz, ok := g.cellFromRef(startRef)
	if !ok {
		return 0, nil, nil, Failure | InvalidParam
	}
	visited := []PolyRef{startRef}
	const steps = 64
	dx := (end[0] - start[0]) / steps
	dz := (end[2] - start[2]) / steps
	for i := 1; i <= steps; i++ {
		x := start[0] + dx*float32(i)
		z := start[2] + dz*float32(i)
		ncx, ncz := g.cellCoords(x, z)
		if !g.isWalkable(ncx, ncz) {
			hitNormal := math3d.Normalize2D(math3d.XYZ(-dx, 0, -dz))
			return float32(i-1) / steps, hitNormal, visited, Success
		}
		nref := g.refFromCell(ncx, ncz)
		if filter != nil && !filter.PassFilter(nref) {
			hitNormal := math3d.Normalize2D(math3d.XYZ(-dx, 0, -dz))
			return float32(i-1) / steps, hitNormal, visited, Success
		}
		if ncx != cx || ncz != cz {
			visited = append(visited, nref)
			cx, cz = ncx, ncz
		}
	}
	return 1, math3d.XYZ(0, 0, 0), visited, Success
}

// FindLocalNeighbourhood implements Query as a bounded flood-fill from ref.
func (g *GridMesh) FindLocalNeighbourhood(ref PolyRef, centerPos math3d.Vec3, radius float32, filter QueryFilter) ([]PolyRef, Status) {
	cx, cz, ok := g.cellFromRef(ref)
	if !ok {
		return nil, Failure | InvalidParam
	}
	type cell struct{ x, z int }
	seen := map[cell]bool{{cx, cz}: true}
	queue := []cell{{cx, cz}}
	var out []PolyRef
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		out = append(out, g.refFromCell(c.x, c.z))
		for _, n := range g.neighbors(c.x, c.z) {
			nc := cell{n[0], n[1]}
			if seen[nc] {
				continue
			}
			center := g.cellCenter(nc.x, nc.z)
			if math3d.Dist2D(center, centerPos) > radius {
				continue
			}
			nref := g.refFromCell(nc.x, nc.z)
			if filter != nil && !filter.PassFilter(nref) {
				continue
			}
			seen[nc] = true
			queue = append(queue, nc)
		}
	}
	return out, Success
}

// PolyWallSegments implements Query: an edge is a wall whenever the
// neighboring cell across it is not walkable or does not exist.
func (g *GridMesh) PolyWallSegments(ref PolyRef, filter QueryFilter) ([]WallSegment, Status) {
	cx, cz, ok := g.cellFromRef(ref)
	if !ok {
		return nil, Failure | InvalidParam
	}
	xmin := g.originX + float32(cx)*g.cellSize
	xmax := xmin + g.cellSize
	zmin := g.originZ + float32(cz)*g.cellSize
	zmax := zmin + g.cellSize

	var segs []WallSegment
	addIfWall := func(nx, nz int, p, q math3d.Vec3) {
		if !g.isWalkable(nx, nz) {
			segs = append(segs, WallSegment{P: p, Q: q})
			return
		}
		if filter != nil && !filter.PassFilter(g.refFromCell(nx, nz)) {
			segs = append(segs, WallSegment{P: p, Q: q})
		}
	}
	addIfWall(cx+1, cz, math3d.XYZ(xmax, 0, zmin), math3d.XYZ(xmax, 0, zmax))
	addIfWall(cx-1, cz, math3d.XYZ(xmin, 0, zmax), math3d.XYZ(xmin, 0, zmin))
	addIfWall(cx, cz+1, math3d.XYZ(xmax, 0, zmax), math3d.XYZ(xmin, 0, zmax))
	addIfWall(cx, cz-1, math3d.XYZ(xmin, 0, zmin), math3d.XYZ(xmax, 0, zmin))
	return segs, Success
}

// OffMeshConnectionPolyEndPoints implements Query.
func (g *GridMesh) OffMeshConnectionPolyEndPoints(ref PolyRef) (OffMeshEndpoints, bool) {
	if ref < g.offMeshBase {
		return OffMeshEndpoints{}, false
	}
	idx := int(ref - g.offMeshBase)
	if idx < 0 || idx >= len(g.offMesh) {
		return OffMeshEndpoints{}, false
	}
	l := g.offMesh[idx]
	return OffMeshEndpoints{
		StartRef: l.start,
		EndRef:   l.end,
		StartPos: l.startPos,
		EndPos:   l.endPos,
	}, true
}

// FindStraightPath implements Query by taking the center of each polygon in
// path as a straight-path corner — adequate for a uniform grid, where the
// shortest path inside the corridor is just the polygon sequence itself.
func (g *GridMesh) FindStraightPath(startPos, endPos math3d.Vec3, path []PolyRef, verts []math3d.Vec3, flags []StraightPathFlags, polys []PolyRef) (int, Status) {
	if len(path) == 0 {
		return 0, Failure | InvalidParam
	}
	n := 0
	write := func(pos math3d.Vec3, flag StraightPathFlags, ref PolyRef) bool {
		if n >= len(verts) {
			return false
		}
		verts[n] = pos
		if n < len(flags) {
			flags[n] = flag
		}
		if n < len(polys) {
			polys[n] = ref
		}
		n++
		return true
	}
	if !write(startPos, StraightPathStart, path[0]) {
		return n, Success
	}
	for i := 1; i < len(path)-1; i++ {
		if path[i] >= g.offMeshBase {
			if ep, ok := g.OffMeshConnectionPolyEndPoints(path[i]); ok {
				if !write(ep.StartPos, StraightPathOffMeshConnection, path[i]) {
					return n, Success
				}
				continue
			}
		}
		cx, cz, ok := g.cellFromRef(path[i])
		if !ok {
			continue
		}
		if !write(g.cellCenter(cx, cz), 0, path[i]) {
			return n, Success
		}
	}
	write(endPos, StraightPathEnd, path[len(path)-1])
	return n, Success
}
