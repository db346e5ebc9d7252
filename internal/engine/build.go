// Package engine wires a loaded scene description into a live crowd.Crowd:
// one navmesh.GridMesh built from the scene's mesh file, one agent per
// scene.AgentSpec with its parameters and behavior (or behavior pipeline)
// attached.
package engine

import (
	"fmt"

	"github.com/arl/crowdsteer/behavior"
	"github.com/arl/crowdsteer/crowd"
	"github.com/arl/crowdsteer/internal/logging"
	"github.com/arl/crowdsteer/internal/scene"
	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

// Result is a built, ready-to-simulate scene: the crowd, its navmesh
// collaborator, and (for agents that have one) the CollisionAvoidance
// instance driving each agent's avoidance sampling, keyed by agent id —
// the hook --debugAvoidance uses to dump sampling patterns.
type Result struct {
	Crowd               *crowd.Crowd
	NavMesh             navmesh.Query
	CollisionAvoidances map[crowd.AgentID]*behavior.CollisionAvoidance
}

// Build loads the scene's navmesh footprint and populates a fresh Crowd
// with one agent per scene.AgentSpec, wiring each agent's behavior
// pipeline from its BehaviorSpec tree. When recordAvoidanceDebug is set,
// every CollisionAvoidance stage records its velocity sampling pattern
// for later retrieval through Result.CollisionAvoidances.
func Build(s *scene.Scene, log *logging.Logger, recordAvoidanceDebug bool) (*Result, error) {
	mesh, err := navmesh.NewGridMeshFromOBJ(s.SceneFile)
	if err != nil {
		return nil, fmt.Errorf("engine: loading navmesh %q: %w", s.SceneFile, err)
	}

	filter := navmesh.NewStandardQueryFilter()
	c := crowd.New(mesh, filter, len(s.Agents), crowd.WithLogger(log))
	cas := make(map[crowd.AgentID]*behavior.CollisionAvoidance)

	groups := make(map[string]scene.FlockingGroup, len(s.Flockings))
	for _, g := range s.Flockings {
		groups[g.Name] = g
	}

	for i, a := range s.Agents {
		pos := math3d.XYZ(a.Position[0], a.Position[1], a.Position[2])
		params := crowd.Params{
			Radius:                      a.Parameters.Radius,
			Height:                      a.Parameters.Height,
			MaxSpeed:                    a.Parameters.MaxSpeed,
			MaxAcceleration:             a.Parameters.MaxAcceleration,
			CollisionQueryRange:         a.Parameters.CollisionQueryRange,
			LocalPathReplanningInterval: a.Parameters.LocalPathReplanningInterval,
		}

		specs := a.Parameters.Pipeline
		if a.Parameters.Behavior != nil {
			specs = append(specs, *a.Parameters.Behavior)
		}
		if len(specs) == 0 {
			return nil, fmt.Errorf("engine: agent %d: no behavior configured", i)
		}

		id := crowd.AgentID(i + 1)
		b, ca, err := buildBehavior(id, specs, groups, recordAvoidanceDebug)
		if err != nil {
			return nil, fmt.Errorf("engine: agent %d: %w", i, err)
		}
		if ca != nil {
			cas[id] = ca
		}

		gotID, err := c.AddAgent(pos, params, b)
		if err != nil {
			return nil, fmt.Errorf("engine: agent %d: %w", i, err)
		}
		if gotID != id {
			// AddAgent's id assignment is sequential starting at 1 for an
			// empty crowd; this only breaks if a prior AddAgent call
			// failed silently above, which the error return already rules
			// out.
			return nil, fmt.Errorf("engine: agent %d: unexpected id %d", i, gotID)
		}

		if target, ok := pathFollowingTarget(specs); ok {
			if err := submitTarget(c, mesh, filter, id, a.Parameters.Radius, a.Parameters.Height, target); err != nil {
				return nil, fmt.Errorf("engine: agent %d: %w", i, err)
			}
		}
	}

	return &Result{Crowd: c, NavMesh: mesh, CollisionAvoidances: cas}, nil
}

// pathFollowingTarget returns the world position named by the first
// pathFollowing entry found among specs, if any.
func pathFollowingTarget(specs []scene.BehaviorSpec) (math3d.Vec3, bool) {
	for _, s := range specs {
		if s.Type == "pathFollowing" {
			return math3d.XYZ(s.Target[0], s.Target[1], s.Target[2]), true
		}
	}
	return nil, false
}

// submitTarget resolves target to the nearest navmesh polygon and puts
// agent id's path-following state machine into TargetSubmitted.
func submitTarget(c *crowd.Crowd, mesh navmesh.Query, filter navmesh.QueryFilter, id crowd.AgentID, radius, height float32, target math3d.Vec3) error {
	extents := math3d.XYZ(radius*2+0.1, height, radius*2+0.1)
	ref, nearest, status := mesh.FindNearestPoly(target, extents, filter)
	if status.Failed() || ref == 0 {
		return fmt.Errorf("target %v: no nearby navmesh polygon", target)
	}
	a, ok := c.FetchAgent(id)
	if !ok {
		return fmt.Errorf("agent %d vanished before target submission", id)
	}
	behavior.SubmitTarget(&a, ref, nearest)
	c.PushAgent(a)
	return nil
}

// buildBehavior resolves one agent's behavior tree into a crowd.Behavior,
// wrapping more than one spec in a Pipeline. It also returns the agent's
// CollisionAvoidance instance, if one of the specs built one.
func buildBehavior(id crowd.AgentID, specs []scene.BehaviorSpec, groups map[string]scene.FlockingGroup, recordAvoidanceDebug bool) (crowd.Behavior, *behavior.CollisionAvoidance, error) {
	if len(specs) == 1 {
		return buildOne(id, specs[0], groups, recordAvoidanceDebug)
	}
	stages := make([]crowd.Behavior, 0, len(specs))
	var ca *behavior.CollisionAvoidance
	for _, s := range specs {
		b, stageCA, err := buildOne(id, s, groups, recordAvoidanceDebug)
		if err != nil {
			return nil, nil, err
		}
		if stageCA != nil {
			ca = stageCA
		}
		stages = append(stages, b)
	}
	return behavior.NewPipeline(stages...), ca, nil
}

func buildOne(id crowd.AgentID, s scene.BehaviorSpec, groups map[string]scene.FlockingGroup, recordAvoidanceDebug bool) (crowd.Behavior, *behavior.CollisionAvoidance, error) {
	switch s.Type {
	case "pathFollowing":
		pf := behavior.NewPathFollowing(crowd.DefaultMaxPathResult)
		pf.Set(id, behavior.DefaultPathFollowingParams())
		return pf, nil, nil

	case "collisionAvoidance":
		ca := behavior.NewCollisionAvoidance()
		params := behavior.DefaultCollisionAvoidanceParams()
		params.RecordDebug = recordAvoidanceDebug
		ca.Set(id, params)
		return ca, ca, nil

	case "seek":
		if len(s.Targets) == 0 {
			return nil, nil, fmt.Errorf("seek: requires exactly one target agent id")
		}
		b := behavior.NewSeek()
		b.Set(id, behavior.SeekParams{
			Target:           crowd.AgentID(s.Targets[0]),
			PredictionFactor: s.PredictionFactor,
			MinimalDistance:  s.MinimalDistance,
		})
		return b, nil, nil

	case "separation":
		b := behavior.NewSeparation()
		b.Set(id, behavior.SeparationParams{
			Targets:  toAgentIDs(s.Targets),
			Distance: s.Distance,
			Weight:   1,
		})
		return b, nil, nil

	case "alignment":
		b := behavior.NewAlignment()
		b.Set(id, behavior.AlignmentParams{Targets: toAgentIDs(s.Targets)})
		return b, nil, nil

	case "cohesion":
		b := behavior.NewCohesion()
		b.Set(id, behavior.CohesionParams{Targets: toAgentIDs(s.Targets)})
		return b, nil, nil

	case "flocking":
		group, ok := groups[s.Group]
		if s.Group != "" && !ok {
			return nil, nil, fmt.Errorf("flocking: unknown group %q", s.Group)
		}
		b := behavior.NewFlocking()
		b.Set(id, behavior.FlockingParams{
			Targets:          toAgentIDs(s.Targets),
			SeparationWeight: group.SeparationWeight,
			AlignmentWeight:  group.AlignmentWeight,
			CohesionWeight:   group.CohesionWeight,
			SeparationDist:   group.SeparationDist,
		})
		return b, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown behavior type %q", s.Type)
	}
}

func toAgentIDs(ids []int) []crowd.AgentID {
	out := make([]crowd.AgentID, len(ids))
	for i, v := range ids {
		out[i] = crowd.AgentID(v)
	}
	return out
}
