package crowd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

func TestLocalBoundaryUpdateFindsWalls(t *testing.T) {
	g := navmesh.NewGridMesh(4, 4, 1, 0, 0)
	g.SetWalkable(2, 2, false)
	filter := navmesh.NewStandardQueryFilter()

	ref, ok := g.PolyRefAt(1.5, 2.5)
	require.True(t, ok)

	lb := NewLocalBoundary()
	assert.False(t, lb.IsValid(g, filter))

	lb.Update(ref, math3d.XYZ(1.5, 0, 2.5), 3, g, filter)
	assert.True(t, lb.IsValid(g, filter))
	require.Greater(t, lb.SegmentCount(), 0)

	p, q := lb.Segment(0)
	assert.NotNil(t, p)
	assert.NotNil(t, q)
}

func TestLocalBoundaryResetOnZeroRef(t *testing.T) {
	g := navmesh.NewGridMesh(4, 4, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()

	lb := NewLocalBoundary()
	lb.Update(0, math3d.XYZ(0, 0, 0), 3, g, filter)
	assert.False(t, lb.IsValid(g, filter))
	assert.Equal(t, 0, lb.SegmentCount())
}

func TestDistToSegSqr2D(t *testing.T) {
	d := distToSegSqr2D(math3d.XYZ(1, 0, 0), math3d.XYZ(0, 0, 0), math3d.XYZ(0, 0, 2))
	assert.InDelta(t, 1.0, d, 1e-6)
}
