package crowd

import (
	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

// AgentID identifies one agent within a Crowd for its lifetime. It is never
// reused while the agent is alive, but may be reassigned after RemoveAgent.
type AgentID int

// AgentState describes which kind of navmesh element an agent currently
// occupies.
type AgentState uint8

const (
	// AgentInvalid marks an agent whose position could no longer be
	// resolved to a navmesh polygon; it is excluded from simulation until
	// repositioned.
	AgentInvalid AgentState = iota
	// AgentWalking is the normal state: the agent is on a navmesh polygon,
	// steered by its behavior pipeline.
	AgentWalking
	// AgentOffMesh means the agent is traversing an off-mesh connection as
	// a timed animation rather than regular steering.
	AgentOffMesh
)

// MaxNeighbours sizes the proximity-grid query Crowd runs for each agent:
// one query returns at most 4*MaxNeighbours agents (the agent itself
// included), and every one of them within CollisionQueryRange becomes a
// neighbour. Collision avoidance applies its own cap on top of that.
const MaxNeighbours = 6

// MaxCorners bounds how many straight-path corners PathFollowing extracts
// ahead of the agent each tick.
const MaxCorners = 4

// Neighbour is a nearby agent discovered through the crowd's proximity
// grid, carrying just enough of its previous-tick state for steering.
type Neighbour struct {
	ID       AgentID
	Position math3d.Vec3
	Velocity math3d.Vec3
	Radius   float32
	Dist     float32
}

// Params configures one agent's physical envelope and collision avoidance
// perception, set at AddAgent time and mutable thereafter via FetchAgent/
// PushAgent.
type Params struct {
	Radius              float32
	Height              float32
	MaxSpeed            float32
	MaxAcceleration     float32
	CollisionQueryRange float32

	// PathOptimizationRange is carried with the agent but not read by
	// PathFollowing, which takes the range it passes to
	// PathCorridor.OptimizePathVisibility from
	// PathFollowingParams.VisibilityPathOptimizationRange.
	PathOptimizationRange float32

	// LocalPathReplanningInterval, in seconds, is how often
	// PathCorridor.OptimizePathTopology runs for this agent. A negative
	// value disables topology optimization entirely.
	LocalPathReplanningInterval float32
}

// Agent is one crowd member's full simulation state. Crowd keeps two copies
// of every Agent (old/new) and swaps them at the end of each tick so that
// behaviors always read a consistent previous-tick snapshot.
type Agent struct {
	ID     AgentID
	Active bool
	State  AgentState
	Params Params

	Position        math3d.Vec3
	Velocity        math3d.Vec3
	DesiredVelocity math3d.Vec3

	Corridor *PathCorridor
	Boundary *LocalBoundary
	Behavior Behavior

	PathFollowing PathFollowingState
	OffMesh       *OffMeshAnimation
}

// PathFollowingState is the per-agent state machine record PathFollowing
// behaviors read and mutate; it lives on Agent rather than inside the
// behavior itself because it must double-buffer along with the rest of the
// agent's state.
type PathFollowingState struct {
	State TargetState

	TargetRef      navmesh.PolyRef
	TargetPos      math3d.Vec3
	TargetReplan   bool
	TargetReplanTime float32

	PathQueueTicket PathQueueRef
	TopologyOptTime float32
}

// TargetState is PathFollowing's state machine variable (see TargetState
// constants).
type TargetState uint8

const (
	// NoTarget means the agent has no destination and produces zero
	// desired velocity.
	NoTarget TargetState = iota
	// TargetSubmitted means a target was just set (or a replan just
	// triggered) and a sliced search has not yet been attempted this tick.
	TargetSubmitted
	// WaitingForQueue means the initial sliced search only reached a
	// partial path and the agent is waiting for a PathQueue slot.
	WaitingForQueue
	// WaitingForPath means a PathQueue ticket was issued and the agent is
	// waiting for it to resolve.
	WaitingForPath
	// FollowingPath means the corridor holds a path reaching (or closest
	// partial path toward) the target and the agent is steering along it.
	FollowingPath
	// InvalidTarget means the target (or the agent's own position) could
	// not be resolved to the navmesh; the agent holds still.
	InvalidTarget
)
