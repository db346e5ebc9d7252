package navmesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOBJ(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "floor.obj")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewGridMeshFromOBJCarvesTriangle(t *testing.T) {
	// A single triangle covering half of a 4x4 footprint, on the xz plane
	// (obj's "v x y z").
	path := writeOBJ(t, `
v 0 0 0
v 4 0 0
v 0 0 4
f 1 2 3
`)
	g, err := NewGridMeshFromOBJ(path)
	require.NoError(t, err)

	// cell inside the triangle's floor area should now be walkable...
	cx, cz := g.cellCoords(1, 1)
	assert.True(t, g.isWalkable(cx, cz))

	// ...and a cell well outside the triangle should not be.
	cx, cz = g.cellCoords(3.5, 3.5)
	assert.False(t, g.isWalkable(cx, cz))
}

func TestNewGridMeshFromOBJRejectsWrongExtension(t *testing.T) {
	path := writeOBJ(t, "v 0 0 0\n")
	renamed := path[:len(path)-4] + ".txt"
	require.NoError(t, os.Rename(path, renamed))

	_, err := NewGridMeshFromOBJ(renamed)
	assert.Error(t, err)
}

func TestPointInTriangle2D(t *testing.T) {
	assert.True(t, pointInTriangle2D(1, 1, 0, 0, 4, 0, 0, 4))
	assert.False(t, pointInTriangle2D(10, 10, 0, 0, 4, 0, 0, 4))
}
