package behavior

import (
	"github.com/arl/crowdsteer/crowd"
	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

// PathFollowingParams tunes one agent's corridor maintenance and replanning
// cadence.
type PathFollowingParams struct {
	// CheckLookahead bounds how many of the corridor's leading polygons are
	// checked for validity each tick.
	CheckLookahead int

	// TargetReplanDelay is how long, in seconds, the corridor may end short
	// of the target before a replan is requested.
	TargetReplanDelay float32

	// InitialPathfindIterCount bounds the sliced search run inline when a
	// target is first submitted, before falling back to the path queue.
	InitialPathfindIterCount int

	// MaxIterPerUpdate bounds the path queue's per-tick search budget.
	MaxIterPerUpdate int

	// VisibilityPathOptimizationRange, when positive, enables
	// PathCorridor.OptimizePathVisibility each tick with this raycast
	// range.
	VisibilityPathOptimizationRange float32

	// AnticipateTurns blends the direction toward the second corner into
	// the steering direction, smoothing out sharp turns.
	AnticipateTurns bool
}

// DefaultPathFollowingParams returns the tuning the original path following
// behavior ships with.
func DefaultPathFollowingParams() PathFollowingParams {
	return PathFollowingParams{
		CheckLookahead:                  10,
		TargetReplanDelay:               1.0,
		InitialPathfindIterCount:        20,
		MaxIterPerUpdate:                100,
		VisibilityPathOptimizationRange: 0,
		AnticipateTurns:                 true,
	}
}

// pathFollowingScratch is the per-agent reusable buffer set for corner
// extraction and path-search results, avoiding an allocation every tick.
type pathFollowingScratch struct {
	verts [crowd.MaxCorners]math3d.Vec3
	flags [crowd.MaxCorners]navmesh.StraightPathFlags
	polys [crowd.MaxCorners]navmesh.PolyRef
	path  []navmesh.PolyRef
}

func newPathFollowingScratch(maxPath int) *pathFollowingScratch {
	s := &pathFollowingScratch{path: make([]navmesh.PolyRef, maxPath)}
	for i := range s.verts {
		s.verts[i] = math3d.New()
	}
	return s
}

// PathFollowing steers an agent along a navmesh corridor toward a submitted
// target, driving the TargetState state machine: firing an inline sliced
// search first, falling back to the shared PathQueue when that only
// reaches a partial path, periodically re-optimizing the corridor's
// topology, and computing a steering direction from the next one or two
// straight-path corners.
type PathFollowing struct {
	params  map[crowd.AgentID]*PathFollowingParams
	scratch map[crowd.AgentID]*pathFollowingScratch
	maxPath int
}

// NewPathFollowing returns an empty PathFollowing behavior whose internal
// path buffers hold up to maxPath polygon references — this should match
// the Crowd's own corridor capacity.
func NewPathFollowing(maxPath int) *PathFollowing {
	return &PathFollowing{
		params:  make(map[crowd.AgentID]*PathFollowingParams),
		scratch: make(map[crowd.AgentID]*pathFollowingScratch),
		maxPath: maxPath,
	}
}

// Set registers (or replaces) the parameters used for agent id.
func (pf *PathFollowing) Set(id crowd.AgentID, p PathFollowingParams) {
	pf.params[id] = &p
	if _, ok := pf.scratch[id]; !ok {
		pf.scratch[id] = newPathFollowingScratch(pf.maxPath)
	}
}

// Remove drops agent id's parameters and scratch buffers, e.g. after
// RemoveAgent.
func (pf *PathFollowing) Remove(id crowd.AgentID) {
	delete(pf.params, id)
	delete(pf.scratch, id)
}

// SubmitTarget sets a's destination and puts its path-following state
// machine into TargetSubmitted. Callers fetch the agent, call SubmitTarget,
// then push it back (crowd.Crowd.FetchAgent / PushAgent).
func SubmitTarget(a *crowd.Agent, targetRef navmesh.PolyRef, targetPos math3d.Vec3) {
	a.PathFollowing = crowd.PathFollowingState{
		State:     crowd.TargetSubmitted,
		TargetRef: targetRef,
		TargetPos: targetPos,
	}
}

// ClearTarget resets a's path-following state machine to NoTarget.
func ClearTarget(a *crowd.Agent) {
	a.PathFollowing = crowd.PathFollowingState{}
}

// Update implements crowd.Behavior.
func (pf *PathFollowing) Update(query crowd.Query, old, newAgent *crowd.Agent, dt float32) {
	p, ok := pf.params[old.ID]
	if !ok {
		return
	}
	scratch := pf.scratch[old.ID]
	if scratch == nil {
		scratch = newPathFollowingScratch(pf.maxPath)
		pf.scratch[old.ID] = scratch
	}

	st := &newAgent.PathFollowing
	if st.State == crowd.NoTarget {
		newAgent.DesiredVelocity = math3d.XYZ(0, 0, 0)
		return
	}

	nav := query.NavMesh()
	filter := query.Filter()
	corridor := newAgent.Corridor

	// Corridor maintenance (step 1) is already kept current by
	// Crowd.Update's integration step, which calls
	// PathCorridor.MovePosition with the agent's actual resting position
	// at the end of every tick — by the time this behavior runs, pos is
	// already synced with the previous tick's movement.

	lookahead := p.CheckLookahead
	if lookahead <= 0 {
		lookahead = 10
	}
	extents := searchExtents(old)
	replan := false

	if !corridor.IsValid(lookahead, nav, filter) {
		ref, nearest, status := nav.FindNearestPoly(corridor.Pos(), extents, filter)
		if status.Failed() || ref == 0 {
			st.State = crowd.InvalidTarget
			newAgent.State = crowd.AgentInvalid
			newAgent.DesiredVelocity = math3d.XYZ(0, 0, 0)
			return
		}
		corridor.FixPathStart(ref, nearest)
		replan = true
	}

	if st.TargetRef != 0 && !nav.IsValidPolyRef(st.TargetRef, filter) {
		ref, nearest, status := nav.FindNearestPoly(st.TargetPos, extents, filter)
		if status.Failed() || ref == 0 {
			st.State = crowd.InvalidTarget
			newAgent.DesiredVelocity = math3d.XYZ(0, 0, 0)
			return
		}
		st.TargetRef = ref
		st.TargetPos = nearest
		replan = true
	}

	if corridor.PathCount() > 0 && corridor.LastPoly() != st.TargetRef {
		st.TargetReplanTime += dt
		if st.TargetReplanTime > p.TargetReplanDelay {
			replan = true
		}
	} else {
		st.TargetReplanTime = 0
	}

	if replan {
		st.TargetReplan = true
		st.State = crowd.TargetSubmitted
		st.PathQueueTicket = crowd.PathQInvalid
	}

	if st.State == crowd.TargetSubmitted {
		iterCount := p.InitialPathfindIterCount
		if iterCount <= 0 {
			iterCount = 20
		}

		nav.InitSlicedFindPath(corridor.FirstPoly(), st.TargetRef, corridor.Pos(), st.TargetPos, filter)
		nav.UpdateSlicedFindPath(iterCount)

		var n int
		var status navmesh.Status
		if st.TargetReplan {
			n, status = nav.FinalizeSlicedFindPathPartial(corridor.Path()[:corridor.PathCount()], scratch.path)
		} else {
			n, status = nav.FinalizeSlicedFindPath(scratch.path)
		}

		if status.Succeeded() && n > 0 {
			installCorridorPath(corridor, nav, scratch.path[:n], st.TargetRef, st.TargetPos)
			st.TargetReplan = false
			if scratch.path[n-1] == st.TargetRef {
				st.State = crowd.FollowingPath
			} else {
				st.State = crowd.WaitingForQueue
			}
		} else {
			st.State = crowd.WaitingForQueue
		}
	}

	if st.State == crowd.WaitingForQueue && st.PathQueueTicket == crowd.PathQInvalid {
		ref := query.PathQueue().Request(corridor.FirstPoly(), st.TargetRef, corridor.Pos(), st.TargetPos, filter)
		if ref != crowd.PathQInvalid {
			st.PathQueueTicket = ref
			st.State = crowd.WaitingForPath
		}
	}

	maxIterPerUpdate := p.MaxIterPerUpdate
	if maxIterPerUpdate <= 0 {
		maxIterPerUpdate = 100
	}
	query.PathQueue().Update(maxIterPerUpdate)

	if st.State == crowd.WaitingForPath {
		status := query.PathQueue().RequestStatus(st.PathQueueTicket)
		switch {
		case status.Failed():
			st.PathQueueTicket = crowd.PathQInvalid
			st.State = crowd.TargetSubmitted
		case status.Succeeded():
			n, _ := query.PathQueue().PathResult(st.PathQueueTicket, scratch.path)
			st.PathQueueTicket = crowd.PathQInvalid
			if n > 0 {
				merged := mergeWithCorridor(corridor, scratch.path[:n])
				installCorridorPath(corridor, nav, merged, st.TargetRef, st.TargetPos)
				st.State = crowd.FollowingPath
			} else {
				st.State = crowd.TargetSubmitted
			}
		}
		// InProgress: stays WaitingForPath, polled again next tick.
	}

	if old.Params.LocalPathReplanningInterval >= 0 && st.State == crowd.FollowingPath {
		st.TopologyOptTime += dt
		if st.TopologyOptTime >= old.Params.LocalPathReplanningInterval {
			corridor.OptimizePathTopology(nav, filter)
			st.TopologyOptTime = 0
		}
	}

	if st.State != crowd.FollowingPath {
		newAgent.DesiredVelocity = math3d.XYZ(0, 0, 0)
		return
	}

	pos := corridor.Pos()
	if newAgent.Boundary != nil {
		if !newAgent.Boundary.IsValid(nav, filter) || math3d.Dist2D(newAgent.Boundary.Center(), pos) > old.Params.Radius*0.25 {
			newAgent.Boundary.Update(corridor.FirstPoly(), pos, old.Params.CollisionQueryRange, nav, filter)
		}
	}

	ncorners := corridor.FindCorners(scratch.verts[:], scratch.flags[:], scratch.polys[:], nav)
	if p.VisibilityPathOptimizationRange > 0 && ncorners > 0 {
		idx := 0
		if ncorners > 1 {
			idx = 1
		}
		corridor.OptimizePathVisibility(scratch.verts[idx], p.VisibilityPathOptimizationRange, nav, filter)
	}

	if ncorners > 0 && scratch.flags[ncorners-1]&navmesh.StraightPathOffMeshConnection != 0 {
		triggerRadius := old.Params.Radius * 2.25
		if math3d.Dist2D(pos, scratch.verts[ncorners-1]) < triggerRadius {
			offRef := scratch.polys[ncorners-1]
			_, _, startPos, endPos, moved := corridor.MoveOverOffmeshConnection(offRef, nav)
			if moved {
				newAgent.OffMesh = crowd.NewOffMeshAnimationFromSpeed(startPos, endPos, old.Params.MaxSpeed)
				newAgent.State = crowd.AgentOffMesh
				newAgent.DesiredVelocity = math3d.XYZ(0, 0, 0)
				return
			}
		}
	}

	if ncorners == 0 {
		newAgent.DesiredVelocity = math3d.XYZ(0, 0, 0)
		return
	}

	var dir math3d.Vec3
	dir0 := math3d.XYZ(scratch.verts[0][0]-pos[0], 0, scratch.verts[0][2]-pos[2])
	if p.AnticipateTurns {
		dir1v := dir0
		if ncorners > 1 {
			dir1v = math3d.XYZ(scratch.verts[1][0]-pos[0], 0, scratch.verts[1][2]-pos[2])
		}
		dir1n := math3d.Normalize2D(dir1v)
		len0 := math3d.Len2D(dir0)
		dir = math3d.Normalize2D(math3d.XYZ(dir0[0]-0.5*len0*dir1n[0], 0, dir0[2]-0.5*len0*dir1n[2]))
	} else {
		dir = math3d.Normalize2D(dir0)
	}

	speedScale := float32(1)
	if scratch.flags[ncorners-1]&navmesh.StraightPathEnd != 0 {
		slowR := 2 * old.Params.Radius
		if slowR > 0 {
			distToGoal := math3d.Dist2D(pos, scratch.verts[ncorners-1])
			speedScale = minf(distToGoal, slowR) / slowR
		}
	}

	newAgent.DesiredVelocity = math3d.XYZ(dir[0]*old.Params.MaxSpeed*speedScale, 0, dir[2]*old.Params.MaxSpeed*speedScale)
}

func searchExtents(a *crowd.Agent) math3d.Vec3 {
	return math3d.XYZ(a.Params.Radius*2+0.1, a.Params.Height, a.Params.Radius*2+0.1)
}

// installCorridorPath clamps path's target to the last polygon's surface
// when it doesn't reach targetRef, then loads it into corridor.
func installCorridorPath(corridor *crowd.PathCorridor, nav navmesh.Query, path []navmesh.PolyRef, targetRef navmesh.PolyRef, targetPos math3d.Vec3) {
	target := targetPos
	if len(path) > 0 && path[len(path)-1] != targetRef {
		if closest, status := nav.ClosestPointOnPoly(path[len(path)-1], targetPos); status.Succeeded() {
			target = closest
		}
	}
	corridor.SetCorridor(target, path)
}

// mergeWithCorridor splices a freshly resolved tail path after corridor's
// current path, collapsing any A-B-A trackback at the seam.
func mergeWithCorridor(corridor *crowd.PathCorridor, tail []navmesh.PolyRef) []navmesh.PolyRef {
	existing := corridor.Path()[:corridor.PathCount()]
	merged := make([]navmesh.PolyRef, 0, len(existing)+len(tail))
	merged = append(merged, existing...)
	merged = append(merged, tail...)
	return dedupTrackback(merged)
}

// dedupTrackback collapses any A, B, A run into a single A, removing
// pointless back-and-forth at a corridor splice seam.
func dedupTrackback(path []navmesh.PolyRef) []navmesh.PolyRef {
	out := make([]navmesh.PolyRef, 0, len(path))
	for _, ref := range path {
		n := len(out)
		if n >= 2 && out[n-2] == ref {
			out = out[:n-1]
			continue
		}
		out = append(out, ref)
	}
	return out
}

var _ crowd.Behavior = (*PathFollowing)(nil)
