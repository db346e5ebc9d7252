package crowd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

// seekBehavior is a minimal Behavior fixture: every tick it asks for
// constant velocity toward +x, exercising Crowd.Update's integration step
// without depending on the behavior package (which itself depends on
// crowd, so importing it here would be circular).
type seekBehavior struct {
	speed float32
}

func (b seekBehavior) Update(query Query, old, newAgent *Agent, dt float32) {
	newAgent.DesiredVelocity = math3d.XYZ(b.speed, 0, 0)
}

func newTestCrowd(t *testing.T, maxAgents int) (*Crowd, *navmesh.GridMesh, navmesh.QueryFilter) {
	t.Helper()
	g := navmesh.NewGridMesh(10, 10, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()
	return New(g, filter, maxAgents), g, filter
}

func TestCrowdAddFetchPushAgent(t *testing.T) {
	c, _, _ := newTestCrowd(t, 4)

	id, err := c.AddAgent(math3d.XYZ(1.5, 0, 1.5), Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 4, CollisionQueryRange: 3}, seekBehavior{speed: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, c.AgentCount())

	a, ok := c.FetchAgent(id)
	require.True(t, ok)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, AgentWalking, a.State)

	a.Params.MaxSpeed = 5
	require.True(t, c.PushAgent(a))

	a2, _ := c.FetchAgent(id)
	assert.InDelta(t, 5, a2.Params.MaxSpeed, 1e-6)
}

func TestCrowdAddAgentFull(t *testing.T) {
	c, _, _ := newTestCrowd(t, 1)

	_, err := c.AddAgent(math3d.XYZ(1.5, 0, 1.5), Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1}, seekBehavior{})
	require.NoError(t, err)

	_, err = c.AddAgent(math3d.XYZ(2.5, 0, 2.5), Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1}, seekBehavior{})
	assert.ErrorIs(t, err, ErrCrowdFull)
}

func TestCrowdAddAgentNoNearbyPoly(t *testing.T) {
	c, _, _ := newTestCrowd(t, 1)

	_, err := c.AddAgent(math3d.XYZ(100, 0, 100), Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1}, seekBehavior{})
	assert.ErrorIs(t, err, ErrNoNearbyPoly)
}

func TestCrowdRemoveAgentSwapsWithLast(t *testing.T) {
	c, _, _ := newTestCrowd(t, 3)

	id1, _ := c.AddAgent(math3d.XYZ(1.5, 0, 1.5), Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1}, seekBehavior{})
	id2, _ := c.AddAgent(math3d.XYZ(2.5, 0, 2.5), Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1}, seekBehavior{})
	id3, _ := c.AddAgent(math3d.XYZ(3.5, 0, 3.5), Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1}, seekBehavior{})

	require.True(t, c.RemoveAgent(id1))
	assert.Equal(t, 2, c.AgentCount())

	_, ok := c.FetchAgent(id1)
	assert.False(t, ok)

	a2, ok := c.FetchAgent(id2)
	require.True(t, ok)
	assert.Equal(t, id2, a2.ID)
	a3, ok := c.FetchAgent(id3)
	require.True(t, ok)
	assert.Equal(t, id3, a3.ID)
}

func TestCrowdUpdateIntegratesVelocity(t *testing.T) {
	c, _, _ := newTestCrowd(t, 1)

	id, err := c.AddAgent(math3d.XYZ(1.5, 0, 1.5), Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 10, CollisionQueryRange: 3}, seekBehavior{speed: 2})
	require.NoError(t, err)

	before, _ := c.FetchAgent(id)
	for i := 0; i < 5; i++ {
		c.Update(0.1)
	}
	after, _ := c.FetchAgent(id)

	assert.Greater(t, after.Position[0], before.Position[0])
	assert.Greater(t, after.Velocity[0], float32(0))
}

func TestCrowdNeighbours(t *testing.T) {
	c, _, _ := newTestCrowd(t, 2)

	id1, _ := c.AddAgent(math3d.XYZ(1.5, 0, 1.5), Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1, CollisionQueryRange: 5}, seekBehavior{})
	_, _ = c.AddAgent(math3d.XYZ(1.8, 0, 1.5), Params{Radius: 0.3, Height: 1, MaxSpeed: 1, MaxAcceleration: 1, CollisionQueryRange: 5}, seekBehavior{})

	c.Update(0)
	neighbours := c.Neighbours(id1)
	require.Len(t, neighbours, 1)
}
