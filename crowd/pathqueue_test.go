package crowd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

func TestPathQueueRequestAndResult(t *testing.T) {
	g := navmesh.NewGridMesh(5, 5, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()
	pq := NewPathQueue(g, 32)

	startRef, _ := g.PolyRefAt(0.5, 0.5)
	endRef, _ := g.PolyRefAt(4.5, 4.5)
	require.NotZero(t, startRef)
	require.NotZero(t, endRef)

	ref := pq.Request(startRef, endRef, math3d.XYZ(0.5, 0, 0.5), math3d.XYZ(4.5, 0, 4.5), filter)
	require.NotEqual(t, PathQInvalid, ref)

	for i := 0; i < 50; i++ {
		pq.Update(4)
		if pq.RequestStatus(ref).Succeeded() {
			break
		}
	}
	assert.True(t, pq.RequestStatus(ref).Succeeded())

	path := make([]navmesh.PolyRef, 32)
	n, status := pq.PathResult(ref, path)
	assert.True(t, status.Succeeded())
	assert.Equal(t, startRef, path[0])
	assert.Equal(t, endRef, path[n-1])

	// the slot is freed once read.
	assert.Equal(t, navmesh.Failure, pq.RequestStatus(ref))
}

func TestPathQueueFullRejectsRequest(t *testing.T) {
	g := navmesh.NewGridMesh(3, 3, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()
	pq := NewPathQueue(g, 8)

	startRef, _ := g.PolyRefAt(0.5, 0.5)
	endRef, _ := g.PolyRefAt(2.5, 2.5)

	for i := 0; i < MaxQueueSlots; i++ {
		ref := pq.Request(startRef, endRef, math3d.XYZ(0.5, 0, 0.5), math3d.XYZ(2.5, 0, 2.5), filter)
		require.NotEqual(t, PathQInvalid, ref)
	}

	ref := pq.Request(startRef, endRef, math3d.XYZ(0.5, 0, 0.5), math3d.XYZ(2.5, 0, 2.5), filter)
	assert.Equal(t, PathQInvalid, ref)
}
