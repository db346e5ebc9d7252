package navmesh_test

import (
	"testing"

	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridMeshFindNearestPoly(t *testing.T) {
	g := navmesh.NewGridMesh(4, 4, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()

	ref, pos, status := g.FindNearestPoly(math3d.XYZ(1.5, 0, 1.5), math3d.XYZ(0.1, 0, 0.1), filter)
	require.True(t, status.Succeeded())
	assert.NotZero(t, ref)
	assert.InDelta(t, 1.5, pos[0], 1e-4)
	assert.InDelta(t, 1.5, pos[2], 1e-4)
}

func TestGridMeshWallsAroundHole(t *testing.T) {
	g := navmesh.NewGridMesh(4, 4, 1, 0, 0)
	g.SetWalkable(2, 2, false)
	filter := navmesh.NewStandardQueryFilter()

	ref, ok := g.PolyRefAt(1.5, 2.5) // cell (1,2), adjacent to the hole at (2,2)
	require.True(t, ok)

	segs, status := g.PolyWallSegments(ref, filter)
	require.True(t, status.Succeeded())
	assert.Len(t, segs, 1)
}

func TestGridMeshSlicedFindPath(t *testing.T) {
	g := navmesh.NewGridMesh(5, 5, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()

	startRef, _ := g.PolyRefAt(0.5, 0.5)
	endRef, _ := g.PolyRefAt(4.5, 4.5)
	require.NotZero(t, startRef)
	require.NotZero(t, endRef)

	status := g.InitSlicedFindPath(startRef, endRef, math3d.XYZ(0.5, 0, 0.5), math3d.XYZ(4.5, 0, 4.5), filter)
	require.True(t, status.InProgressStatus() || status.Succeeded())

	for {
		_, status = g.UpdateSlicedFindPath(4)
		if status.Succeeded() || status.Failed() {
			break
		}
	}
	require.True(t, status.Succeeded())

	path := make([]navmesh.PolyRef, 64)
	n, status := g.FinalizeSlicedFindPath(path)
	require.True(t, status.Succeeded())
	assert.Equal(t, startRef, path[0])
	assert.Equal(t, endRef, path[n-1])
	assert.GreaterOrEqual(t, n, 9) // Manhattan distance of 8 cells plus the start
}

func TestGridMeshSlicedFindPathUnreachable(t *testing.T) {
	g := navmesh.NewGridMesh(3, 3, 1, 0, 0)
	// wall off the entire middle row so (0,*) can't reach (2,*)
	g.SetWalkable(1, 0, false)
	g.SetWalkable(1, 1, false)
	g.SetWalkable(1, 2, false)
	filter := navmesh.NewStandardQueryFilter()

	startRef, _ := g.PolyRefAt(0.5, 0.5)
	endRef, _ := g.PolyRefAt(2.5, 0.5)

	g.InitSlicedFindPath(startRef, endRef, math3d.XYZ(0.5, 0, 0.5), math3d.XYZ(2.5, 0, 0.5), filter)
	var status navmesh.Status
	for {
		_, status = g.UpdateSlicedFindPath(8)
		if status.Succeeded() || status.Failed() {
			break
		}
	}
	assert.True(t, status.Failed())

	path := make([]navmesh.PolyRef, 16)
	n, status := g.FinalizeSlicedFindPathPartial([]navmesh.PolyRef{startRef}, path)
	assert.True(t, status.Detail(navmesh.PartialResult))
	assert.Greater(t, n, 0)
}

func TestGridMeshOffMeshConnection(t *testing.T) {
	g := navmesh.NewGridMesh(4, 4, 1, 0, 0)
	ref, err := g.AddOffMeshConnection(math3d.XYZ(0.5, 0, 0.5), math3d.XYZ(3.5, 0, 3.5))
	require.NoError(t, err)

	ep, ok := g.OffMeshConnectionPolyEndPoints(ref)
	require.True(t, ok)
	assert.InDelta(t, 0.5, ep.StartPos[0], 1e-4)
	assert.InDelta(t, 3.5, ep.EndPos[0], 1e-4)
}
