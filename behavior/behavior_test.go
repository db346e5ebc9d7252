package behavior_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arl/crowdsteer/behavior"
	"github.com/arl/crowdsteer/crowd"
	"github.com/arl/crowdsteer/math3d"
)

type scaleParams struct {
	factor float32
}

func newScaleBehavior() *behavior.ParametrizedBehavior[scaleParams] {
	return behavior.NewParametrizedBehavior(func(query crowd.Query, old, newAgent *crowd.Agent, p *scaleParams, dt float32) {
		newAgent.DesiredVelocity = math3d.XYZ(old.DesiredVelocity[0]*p.factor, 0, old.DesiredVelocity[2]*p.factor)
	})
}

func TestParametrizedBehaviorIgnoresUnregisteredAgent(t *testing.T) {
	b := newScaleBehavior()
	old := &crowd.Agent{ID: 1, DesiredVelocity: math3d.XYZ(1, 0, 1)}
	newAgent := &crowd.Agent{ID: 1}

	b.Update(nil, old, newAgent, 0.1)
	assert.Nil(t, newAgent.DesiredVelocity)
}

func TestParametrizedBehaviorSetAndRemove(t *testing.T) {
	b := newScaleBehavior()
	b.Set(1, scaleParams{factor: 2})

	old := &crowd.Agent{ID: 1, DesiredVelocity: math3d.XYZ(1, 0, 1)}
	newAgent := &crowd.Agent{ID: 1}
	b.Update(nil, old, newAgent, 0.1)
	assert.InDelta(t, 2, newAgent.DesiredVelocity[0], 1e-6)

	b.Remove(1)
	_, ok := b.Params(1)
	assert.False(t, ok)
}

func TestPipelineChainsStages(t *testing.T) {
	double := newScaleBehavior()
	double.Set(1, scaleParams{factor: 2})

	triple := newScaleBehavior()
	triple.Set(1, scaleParams{factor: 3})

	pipeline := behavior.NewPipeline(double, triple)

	old := &crowd.Agent{ID: 1, DesiredVelocity: math3d.XYZ(1, 0, 1)}
	newAgent := &crowd.Agent{ID: 1}
	pipeline.Update(nil, old, newAgent, 0.1)

	require.NotNil(t, newAgent.DesiredVelocity)
	assert.InDelta(t, 6, newAgent.DesiredVelocity[0], 1e-6)
}
