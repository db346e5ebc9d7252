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

func TestPathFollowingReachesTarget(t *testing.T) {
	g := navmesh.NewGridMesh(8, 8, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()
	c := crowd.New(g, filter, 1)

	pf := behavior.NewPathFollowing(crowd.DefaultMaxPathResult)
	id, err := c.AddAgent(math3d.XYZ(0.5, 0, 0.5), crowd.Params{
		Radius: 0.3, Height: 1, MaxSpeed: 3, MaxAcceleration: 20,
		CollisionQueryRange: 4, LocalPathReplanningInterval: 0.5,
	}, pf)
	require.NoError(t, err)
	pf.Set(id, behavior.DefaultPathFollowingParams())

	targetRef, targetPos, status := g.FindNearestPoly(math3d.XYZ(6.5, 0, 6.5), math3d.XYZ(0.6, 1, 0.6), filter)
	require.True(t, status.Succeeded())

	a, _ := c.FetchAgent(id)
	behavior.SubmitTarget(&a, targetRef, targetPos)
	require.True(t, c.PushAgent(a))

	reached := false
	for i := 0; i < 2000; i++ {
		c.Update(1.0 / 30.0)
		a, _ = c.FetchAgent(id)
		if a.PathFollowing.State == crowd.FollowingPath && math3d.Dist2D(a.Position, targetPos) < 0.2 {
			reached = true
			break
		}
		require.NotEqual(t, crowd.InvalidTarget, a.PathFollowing.State)
	}
	assert.True(t, reached, "agent never reached its target; last state=%v pos=%v", a.PathFollowing.State, a.Position)
}

func TestPathFollowingNoTargetHoldsStill(t *testing.T) {
	g := navmesh.NewGridMesh(4, 4, 1, 0, 0)
	filter := navmesh.NewStandardQueryFilter()
	c := crowd.New(g, filter, 1)

	pf := behavior.NewPathFollowing(crowd.DefaultMaxPathResult)
	id, err := c.AddAgent(math3d.XYZ(0.5, 0, 0.5), crowd.Params{Radius: 0.3, Height: 1, MaxSpeed: 2, MaxAcceleration: 10, CollisionQueryRange: 4}, pf)
	require.NoError(t, err)
	pf.Set(id, behavior.DefaultPathFollowingParams())

	before, _ := c.FetchAgent(id)
	c.Update(0.1)
	after, _ := c.FetchAgent(id)

	assert.Equal(t, crowd.NoTarget, after.PathFollowing.State)
	assert.InDelta(t, before.Position[0], after.Position[0], 1e-4)
	assert.InDelta(t, before.Position[2], after.Position[2], 1e-4)
}

func TestClearTargetResetsState(t *testing.T) {
	a := &crowd.Agent{ID: 1}
	behavior.SubmitTarget(a, navmesh.PolyRef(3), math3d.XYZ(1, 0, 1))
	assert.Equal(t, crowd.TargetSubmitted, a.PathFollowing.State)

	behavior.ClearTarget(a)
	assert.Equal(t, crowd.NoTarget, a.PathFollowing.State)
	assert.Zero(t, a.PathFollowing.TargetRef)
}
