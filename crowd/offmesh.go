package crowd

import "github.com/arl/crowdsteer/math3d"

// OffMeshAnimation models traversal of an off-mesh connection as a timed
// animation rather than an instantaneous teleport: the agent's rendered
// position is linearly interpolated from StartPos to EndPos as T advances
// from 0 to 1 over Tmax seconds.
type OffMeshAnimation struct {
	StartPos, EndPos math3d.Vec3
	T, Tmax          float32
}

// NewOffMeshAnimation builds an animation of the given duration between two
// world positions.
func NewOffMeshAnimation(start, end math3d.Vec3, duration float32) *OffMeshAnimation {
	if duration <= 0 {
		duration = 0.1
	}
	return &OffMeshAnimation{StartPos: start, EndPos: end, Tmax: duration}
}

// Advance steps the animation by dt, returning the interpolated position
// and whether the connection has been fully traversed.
func (a *OffMeshAnimation) Advance(dt float32) (math3d.Vec3, bool) {
	a.T += dt / a.Tmax
	if a.T >= 1 {
		return a.EndPos, true
	}
	return math3d.Lerp2D(a.StartPos, a.EndPos, a.T), false
}

// offMeshAnimDuration derives a traversal duration from the connection's
// length and the agent's own max speed, matching the demo source's model
// of off-mesh connections as regular, if scripted, locomotion.
func offMeshAnimDuration(start, end math3d.Vec3, maxSpeed float32) float32 {
	if maxSpeed <= 0 {
		return 1
	}
	dist := math3d.Dist2D(start, end)
	return dist / maxSpeed
}

// NewOffMeshAnimationFromSpeed builds an animation between start and end
// whose duration is derived from the connection's length and maxSpeed,
// used when PathFollowing hands an agent off to off-mesh traversal.
func NewOffMeshAnimationFromSpeed(start, end math3d.Vec3, maxSpeed float32) *OffMeshAnimation {
	return NewOffMeshAnimation(start, end, offMeshAnimDuration(start, end, maxSpeed))
}
