package behavior

import (
	"github.com/arl/crowdsteer/crowd"
	"github.com/arl/crowdsteer/math3d"
)

// targetPositions resolves a list of target agent ids against self's
// neighbour list in query, skipping any target that no longer exists, is
// inactive or lies outside self's collision query range — per spec,
// missing targets are dropped silently rather than erroring.
func targetPositions(query crowd.Query, self crowd.AgentID, targets []crowd.AgentID) []crowd.Neighbour {
	neighbours := query.Neighbours(self)
	out := make([]crowd.Neighbour, 0, len(targets))
	for _, id := range targets {
		for _, n := range neighbours {
			if n.ID == id {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// SeekParams configures a Seek behavior instance. Target names a single
// agent id, looked up among the seeking agent's own neighbours each tick.
type SeekParams struct {
	Target           crowd.AgentID
	PredictionFactor float32
	MinimalDistance  float32
}

// NewSeek returns a behavior that steers each agent toward its configured
// target, optionally predicting the target's future position linearly by
// PredictionFactor * target.velocity, and stopping once within
// MinimalDistance.
func NewSeek() *ParametrizedBehavior[SeekParams] {
	return NewParametrizedBehavior(func(query crowd.Query, old, newAgent *crowd.Agent, p *SeekParams, dt float32) {
		neighbours := query.Neighbours(old.ID)
		var target *crowd.Neighbour
		for i := range neighbours {
			if neighbours[i].ID == p.Target {
				target = &neighbours[i]
				break
			}
		}
		if target == nil {
			return
		}

		aim := target.Position
		if p.PredictionFactor != 0 {
			aim = math3d.XYZ(
				aim[0]+target.Velocity[0]*p.PredictionFactor,
				aim[1],
				aim[2]+target.Velocity[2]*p.PredictionFactor,
			)
		}

		dist := math3d.Dist2D(old.Position, aim)
		if dist <= p.MinimalDistance {
			newAgent.DesiredVelocity = math3d.XYZ(0, 0, 0)
			return
		}
		dir := math3d.Normalize2D(math3d.XYZ(aim[0]-old.Position[0], 0, aim[2]-old.Position[2]))
		newAgent.DesiredVelocity = math3d.XYZ(dir[0]*old.Params.MaxSpeed, 0, dir[2]*old.Params.MaxSpeed)
	})
}

// SeparationParams configures a Separation behavior instance.
type SeparationParams struct {
	Targets  []crowd.AgentID
	Distance float32
	Weight   float32
}

// NewSeparation returns a behavior that pushes an agent away from each
// target within Distance, weighted by (1 - d/Distance) and Weight.
func NewSeparation() *ParametrizedBehavior[SeparationParams] {
	return NewParametrizedBehavior(func(query crowd.Query, old, newAgent *crowd.Agent, p *SeparationParams, dt float32) {
		var sum math3d.Vec3 = math3d.XYZ(0, 0, 0)
		for _, n := range targetPositions(query, old.ID, p.Targets) {
			d := math3d.Dist2D(old.Position, n.Position)
			if d <= 0 || d >= p.Distance {
				continue
			}
			away := math3d.Normalize2D(math3d.XYZ(old.Position[0]-n.Position[0], 0, old.Position[2]-n.Position[2]))
			scale := p.Weight * (1 - d/p.Distance)
			sum[0] += away[0] * scale
			sum[2] += away[2] * scale
		}
		newAgent.DesiredVelocity = math3d.ClampLength2D(sum, old.Params.MaxSpeed)
	})
}

// AlignmentParams configures an Alignment behavior instance.
type AlignmentParams struct {
	Targets []crowd.AgentID
}

// NewAlignment returns a behavior that steers toward the average velocity
// of its targets, projected to the agent's own max speed.
func NewAlignment() *ParametrizedBehavior[AlignmentParams] {
	return NewParametrizedBehavior(func(query crowd.Query, old, newAgent *crowd.Agent, p *AlignmentParams, dt float32) {
		targets := targetPositions(query, old.ID, p.Targets)
		if len(targets) == 0 {
			return
		}
		var avg math3d.Vec3 = math3d.XYZ(0, 0, 0)
		for _, n := range targets {
			avg[0] += n.Velocity[0]
			avg[2] += n.Velocity[2]
		}
		avg[0] /= float32(len(targets))
		avg[2] /= float32(len(targets))
		newAgent.DesiredVelocity = math3d.ClampLength2D(avg, old.Params.MaxSpeed)
	})
}

// CohesionParams configures a Cohesion behavior instance.
type CohesionParams struct {
	Targets []crowd.AgentID
}

// NewCohesion returns a behavior that steers toward the arithmetic center
// of its targets' positions.
func NewCohesion() *ParametrizedBehavior[CohesionParams] {
	return NewParametrizedBehavior(func(query crowd.Query, old, newAgent *crowd.Agent, p *CohesionParams, dt float32) {
		targets := targetPositions(query, old.ID, p.Targets)
		if len(targets) == 0 {
			return
		}
		var center math3d.Vec3 = math3d.XYZ(0, 0, 0)
		for _, n := range targets {
			center[0] += n.Position[0]
			center[2] += n.Position[2]
		}
		center[0] /= float32(len(targets))
		center[2] /= float32(len(targets))

		dir := math3d.Normalize2D(math3d.XYZ(center[0]-old.Position[0], 0, center[2]-old.Position[2]))
		newAgent.DesiredVelocity = math3d.XYZ(dir[0]*old.Params.MaxSpeed, 0, dir[2]*old.Params.MaxSpeed)
	})
}

// FlockingParams configures a Flocking behavior instance as a convex
// combination of separation, alignment and cohesion.
type FlockingParams struct {
	Targets          []crowd.AgentID
	SeparationWeight float32
	AlignmentWeight  float32
	CohesionWeight   float32
	SeparationDist   float32
}

// NewFlocking returns a behavior combining separation, alignment and
// cohesion over a shared target list, per-group weighted.
func NewFlocking() *ParametrizedBehavior[FlockingParams] {
	sep := NewSeparation()
	align := NewAlignment()
	cohesion := NewCohesion()

	return NewParametrizedBehavior(func(query crowd.Query, old, newAgent *crowd.Agent, p *FlockingParams, dt float32) {
		sep.Set(old.ID, SeparationParams{Targets: p.Targets, Distance: p.SeparationDist, Weight: 1})
		align.Set(old.ID, AlignmentParams{Targets: p.Targets})
		cohesion.Set(old.ID, CohesionParams{Targets: p.Targets})

		sepOut, alignOut, cohesionOut := *old, *old, *old
		sep.Update(query, old, &sepOut, dt)
		align.Update(query, old, &alignOut, dt)
		cohesion.Update(query, old, &cohesionOut, dt)

		combined := math3d.New()
		combined[0] = sepOut.DesiredVelocity[0]*p.SeparationWeight +
			alignOut.DesiredVelocity[0]*p.AlignmentWeight +
			cohesionOut.DesiredVelocity[0]*p.CohesionWeight
		combined[2] = sepOut.DesiredVelocity[2]*p.SeparationWeight +
			alignOut.DesiredVelocity[2]*p.AlignmentWeight +
			cohesionOut.DesiredVelocity[2]*p.CohesionWeight

		newAgent.DesiredVelocity = math3d.ClampLength2D(combined, old.Params.MaxSpeed)
	})
}
