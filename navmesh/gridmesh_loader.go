package navmesh

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aurelien-rainone/gobj"
)

// DefaultGridCellSize is the cell size NewGridMeshFromOBJ uses when rasterizing
// an OBJ footprint onto the flat grid.
const DefaultGridCellSize = 1.0

// NewGridMeshFromOBJ builds a GridMesh covering the xz bounding box of the
// Wavefront OBJ file at path, plus a one-cell margin, then marks walkable
// every cell whose center falls inside one of the mesh's triangles — the
// demo CLI's way of shaping a toy navmesh from arbitrary walkable-floor
// geometry without a full Recast build. Every cell starts unwalkable; only
// cells covered by the projected floor mesh become traversable, mirroring
// how recast/meshloaderobj.go treats an OBJ file as the walkable surface to
// build a navmesh over, not as obstacle geometry.
func NewGridMeshFromOBJ(path string) (*GridMesh, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".obj" {
		return nil, fmt.Errorf("navmesh: unsupported scene mesh format %q, want .obj", ext)
	}

	obj, err := gobj.Load(path)
	if err != nil {
		return nil, fmt.Errorf("navmesh: loading %q: %w", path, err)
	}

	verts := obj.Verts()
	if len(verts) == 0 {
		return nil, fmt.Errorf("navmesh: %q has no vertices", path)
	}

	minX, maxX := float32(verts[0][0]), float32(verts[0][0])
	minZ, maxZ := float32(verts[0][2]), float32(verts[0][2])
	for _, v := range verts {
		x, z := float32(v[0]), float32(v[2])
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if z < minZ {
			minZ = z
		}
		if z > maxZ {
			maxZ = z
		}
	}

	const margin = 1
	cell := float32(DefaultGridCellSize)
	originX := minX - margin*cell
	originZ := minZ - margin*cell
	width := int((maxX-minX)/cell) + 2*margin + 1
	height := int((maxZ-minZ)/cell) + 2*margin + 1

	g := NewGridMesh(width, height, cell, originX, originZ)
	for gz := 0; gz < height; gz++ {
		for gx := 0; gx < width; gx++ {
			g.SetWalkable(gx, gz, false)
		}
	}

	for _, p := range obj.Polys() {
		for i := 2; i < len(p); i++ {
			carveTriangle(g, p[0], p[i-1], p[i])
		}
	}
	return g, nil
}

// carveTriangle marks walkable every grid cell whose center projects inside
// the triangle (a, b, c), read off the OBJ file's xz plane.
func carveTriangle(g *GridMesh, a, b, c gobj.Vertex) {
	ax, az := float32(a[0]), float32(a[2])
	bx, bz := float32(b[0]), float32(b[2])
	cx, cz := float32(c[0]), float32(c[2])

	minX, maxX := minOf3(ax, bx, cx), maxOf3(ax, bx, cx)
	minZ, maxZ := minOf3(az, bz, cz), maxOf3(az, bz, cz)

	cx0, cz0 := g.cellCoords(minX, minZ)
	cx1, cz1 := g.cellCoords(maxX, maxZ)

	for gz := cz0; gz <= cz1; gz++ {
		for gx := cx0; gx <= cx1; gx++ {
			if !g.inBounds(gx, gz) {
				continue
			}
			center := g.cellCenter(gx, gz)
			if pointInTriangle2D(center[0], center[2], ax, az, bx, bz, cx, cz) {
				g.SetWalkable(gx, gz, true)
			}
		}
	}
}

func pointInTriangle2D(px, pz, ax, az, bx, bz, cx, cz float32) bool {
	d1 := sign2D(px, pz, ax, az, bx, bz)
	d2 := sign2D(px, pz, bx, bz, cx, cz)
	d3 := sign2D(px, pz, cx, cz, ax, az)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func sign2D(px, pz, ax, az, bx, bz float32) float32 {
	return (px-bx)*(az-bz) - (ax-bx)*(pz-bz)
}

func minOf3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxOf3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
