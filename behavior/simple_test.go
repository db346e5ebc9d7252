package behavior_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arl/crowdsteer/behavior"
	"github.com/arl/crowdsteer/crowd"
	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

func newGroundedCrowd(t *testing.T) *crowd.Crowd {
	t.Helper()
	g := navmesh.NewGridMesh(10, 10, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()
	return crowd.New(g, filter, 8)
}

func TestSeekStopsWithinMinimalDistance(t *testing.T) {
	c := newGroundedCrowd(t)

	targetID, err := c.AddAgent(math3d.XYZ(5, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1, CollisionQueryRange: 10}, noopBehavior{})
	require.NoError(t, err)

	seek := behavior.NewSeek()
	seekerID, err := c.AddAgent(math3d.XYZ(5, 0, 5.05), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 4, CollisionQueryRange: 10}, seek)
	require.NoError(t, err)
	seek.Set(seekerID, behavior.SeekParams{Target: targetID, MinimalDistance: 0.5})

	c.Update(0.1)
	a, _ := c.FetchAgent(seekerID)
	assert.InDelta(t, 0, a.DesiredVelocity[0], 1e-6)
	assert.InDelta(t, 0, a.DesiredVelocity[2], 1e-6)
}

func TestSeekSteersTowardFarTarget(t *testing.T) {
	c := newGroundedCrowd(t)

	targetID, _ := c.AddAgent(math3d.XYZ(8, 0, 1), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1, CollisionQueryRange: 20}, noopBehavior{})

	seek := behavior.NewSeek()
	seekerID, _ := c.AddAgent(math3d.XYZ(1, 0, 1), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 4, CollisionQueryRange: 20}, seek)
	seek.Set(seekerID, behavior.SeekParams{Target: targetID, MinimalDistance: 0.1})

	c.Update(0.1)
	a, _ := c.FetchAgent(seekerID)
	assert.Greater(t, a.DesiredVelocity[0], float32(0))
}

func TestSeparationPushesApart(t *testing.T) {
	c := newGroundedCrowd(t)

	otherID, _ := c.AddAgent(math3d.XYZ(5.2, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1, CollisionQueryRange: 10}, noopBehavior{})

	sep := behavior.NewSeparation()
	id, _ := c.AddAgent(math3d.XYZ(5, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 4, CollisionQueryRange: 10}, sep)
	sep.Set(id, behavior.SeparationParams{Targets: []crowd.AgentID{otherID}, Distance: 2, Weight: 1})

	c.Update(0.1)
	a, _ := c.FetchAgent(id)
	assert.Less(t, a.DesiredVelocity[0], float32(0))
}

func TestFlockingCombinesComponents(t *testing.T) {
	c := newGroundedCrowd(t)

	n1, _ := c.AddAgent(math3d.XYZ(5.5, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1, CollisionQueryRange: 10}, noopBehavior{})
	n2, _ := c.AddAgent(math3d.XYZ(4.5, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1, CollisionQueryRange: 10}, noopBehavior{})

	flock := behavior.NewFlocking()
	id, _ := c.AddAgent(math3d.XYZ(5, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 4, CollisionQueryRange: 10}, flock)
	flock.Set(id, behavior.FlockingParams{
		Targets:          []crowd.AgentID{n1, n2},
		SeparationWeight: 1,
		AlignmentWeight:  1,
		CohesionWeight:   1,
		SeparationDist:   3,
	})

	// must not panic indexing a nil Vec3 (combined used to be uninitialized).
	require.NotPanics(t, func() { c.Update(0.1) })

	a, _ := c.FetchAgent(id)
	assert.LessOrEqual(t, math3d.Len2D(a.DesiredVelocity), a.Params.MaxSpeed+1e-3)
}

// noopBehavior leaves DesiredVelocity untouched — a stand-in for agents
// that only act as targets in these tests.
type noopBehavior struct{}

func (noopBehavior) Update(query crowd.Query, old, newAgent *crowd.Agent, dt float32) {}
