package crowd

import (
	"github.com/arl/crowdsteer/navmesh"
)

// Query is the read-only snapshot a behavior consults while computing one
// agent's new velocity: the navmesh collaborator, the shared query filter,
// the path queue it may submit requests to, and the previous tick's
// neighbours. It deliberately exposes nothing that would let a behavior
// mutate another agent's state directly — all writes go through the
// (old, new) Agent pair a Behavior.Update call receives.
type Query interface {
	NavMesh() navmesh.Query
	Filter() navmesh.QueryFilter
	PathQueue() *PathQueue
	Neighbours(id AgentID) []Neighbour
	DT() float32
}

// Behavior computes an agent's next-tick steering output. Implementations
// read old (the agent's state as of the end of the previous tick) and
// write into new (this tick's in-progress state); they must not retain
// either pointer beyond the call.
type Behavior interface {
	Update(query Query, old, new *Agent, dt float32)
}
