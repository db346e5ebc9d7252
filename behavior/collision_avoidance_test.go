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

func TestCollisionAvoidanceSteersAroundHeadOnNeighbour(t *testing.T) {
	g := navmesh.NewGridMesh(10, 10, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()
	c := crowd.New(g, filter, 2)

	ca := behavior.NewCollisionAvoidance()
	id, err := c.AddAgent(math3d.XYZ(2, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 10, CollisionQueryRange: 8}, ca)
	require.NoError(t, err)
	ca.Set(id, behavior.DefaultCollisionAvoidanceParams())

	otherID, err := c.AddAgent(math3d.XYZ(8, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 10, CollisionQueryRange: 8}, noopBehavior{})
	require.NoError(t, err)

	a, _ := c.FetchAgent(id)
	a.Velocity = math3d.XYZ(2, 0, 0)
	a.DesiredVelocity = math3d.XYZ(2, 0, 0)
	c.PushAgent(a)

	other, _ := c.FetchAgent(otherID)
	other.Velocity = math3d.XYZ(-2, 0, 0)
	c.PushAgent(other)

	c.Update(0.1)

	after, _ := c.FetchAgent(id)
	assert.LessOrEqual(t, math3d.Len2D(after.Velocity), a.Params.MaxSpeed+1e-3)
}

func TestCollisionAvoidanceRecordsDebugSamplesWhenEnabled(t *testing.T) {
	g := navmesh.NewGridMesh(10, 10, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()
	c := crowd.New(g, filter, 1)

	ca := behavior.NewCollisionAvoidance()
	id, err := c.AddAgent(math3d.XYZ(5, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 10, CollisionQueryRange: 6}, ca)
	require.NoError(t, err)

	params := behavior.DefaultCollisionAvoidanceParams()
	params.RecordDebug = true
	ca.Set(id, params)

	c.Update(0.1)

	samples, ok := ca.Debug(id)
	require.True(t, ok)
	assert.NotEmpty(t, samples)
}

func TestCollisionAvoidanceNoDebugWhenDisabled(t *testing.T) {
	g := navmesh.NewGridMesh(10, 10, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()
	c := crowd.New(g, filter, 1)

	ca := behavior.NewCollisionAvoidance()
	id, _ := c.AddAgent(math3d.XYZ(5, 0, 5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 10, CollisionQueryRange: 6}, ca)
	ca.Set(id, behavior.DefaultCollisionAvoidanceParams())

	c.Update(0.1)

	samples, ok := ca.Debug(id)
	require.True(t, ok)
	assert.Empty(t, samples)
}
