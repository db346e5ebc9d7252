package crowd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arl/crowdsteer/math3d"
)

func TestOffMeshAnimationAdvance(t *testing.T) {
	anim := NewOffMeshAnimation(math3d.XYZ(0, 0, 0), math3d.XYZ(10, 0, 0), 2)

	pos, done := anim.Advance(1)
	assert.False(t, done)
	assert.InDelta(t, 5, pos[0], 1e-3)

	pos, done = anim.Advance(1)
	assert.True(t, done)
	assert.InDelta(t, 10, pos[0], 1e-3)
}

func TestOffMeshAnimationFromSpeedDerivesDuration(t *testing.T) {
	anim := NewOffMeshAnimationFromSpeed(math3d.XYZ(0, 0, 0), math3d.XYZ(4, 0, 0), 2)
	assert.InDelta(t, 2, anim.Tmax, 1e-6)
}

func TestOffMeshAnimationZeroDurationFallback(t *testing.T) {
	anim := NewOffMeshAnimation(math3d.XYZ(0, 0, 0), math3d.XYZ(1, 0, 0), 0)
	assert.Greater(t, anim.Tmax, float32(0))
}
