// Package crowd implements the double-buffered agent table, navmesh
// corridor bookkeeping and orchestration loop that the behavior package's
// steering behaviors plug into.
//
// The crowd manager gives up direct control over an agent's position:
// once added, an agent's movement belongs to Crowd.Update, which steers it
// through its Behavior pipeline, integrates acceleration and velocity, and
// keeps it constrained to the navmesh. Callers retain control over
// parameters (radius, speed, behavior) via FetchAgent/PushAgent.
package crowd

import (
	"github.com/aurelien-rainone/assertgo"

	"github.com/arl/crowdsteer/internal/logging"
	"github.com/arl/crowdsteer/math3d"
	"github.com/arl/crowdsteer/navmesh"
)

// DefaultMaxPathResult bounds how many polygon references a single
// corridor or path-queue request can hold.
const DefaultMaxPathResult = 256

// Crowd owns every agent's double-buffered state and steps them together
// each tick. All agents share one navmesh query and query filter; per-agent
// variation comes from Params and the attached Behavior.
type Crowd struct {
	query  navmesh.Query
	filter navmesh.QueryFilter
	pathq  *PathQueue
	grid   *ProximityGrid
	log    *logging.Logger

	maxAgents int
	maxPath   int

	agents    []*Agent // previous-tick state, read by behaviors
	scratch   []*Agent // this-tick state being written
	nextID    AgentID
	active    map[AgentID]int // id -> slot index into agents/scratch
	neighbour [][]Neighbour

	tick uint64
	dt   float32
}

// Option configures a Crowd at construction time.
type Option func(*Crowd)

// WithLogger attaches a structured logger; the default is a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Crowd) { c.log = l }
}

// WithMaxPathResult overrides DefaultMaxPathResult.
func WithMaxPathResult(n int) Option {
	return func(c *Crowd) { c.maxPath = n }
}

// New builds a Crowd bounded to maxAgents members, backed by query for
// pathfinding and navmesh collaboration.
func New(query navmesh.Query, filter navmesh.QueryFilter, maxAgents int, opts ...Option) *Crowd {
	c := &Crowd{
		query:     query,
		filter:    filter,
		maxAgents: maxAgents,
		maxPath:   DefaultMaxPathResult,
		log:       logging.Nop(),
		active:    make(map[AgentID]int, maxAgents),
		nextID:    1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pathq = NewPathQueue(query, c.maxPath)
	c.grid = NewProximityGrid(maxAgents*4, 1.0)
	c.agents = make([]*Agent, 0, maxAgents)
	c.scratch = make([]*Agent, 0, maxAgents)
	c.neighbour = make([][]Neighbour, 0, maxAgents)
	return c
}

// NavMesh implements Query.
func (c *Crowd) NavMesh() navmesh.Query { return c.query }

// Filter implements Query.
func (c *Crowd) Filter() navmesh.QueryFilter { return c.filter }

// PathQueue implements Query.
func (c *Crowd) PathQueue() *PathQueue { return c.pathq }

// DT implements Query, returning the duration of the tick in progress.
func (c *Crowd) DT() float32 { return c.dt }

var _ Query = (*Crowd)(nil)

// AddAgent places a new agent at pos with the given parameters and
// behavior, snapping pos onto the nearest navmesh polygon. It returns
// ErrCrowdFull if the crowd is already at capacity and ErrNoNearbyPoly if
// pos is not near any walkable polygon.
func (c *Crowd) AddAgent(pos math3d.Vec3, params Params, behavior Behavior) (AgentID, error) {
	if len(c.agents) >= c.maxAgents {
		return 0, ErrCrowdFull
	}

	extents := math3d.XYZ(params.Radius*2+0.1, params.Height, params.Radius*2+0.1)
	ref, nearest, status := c.query.FindNearestPoly(pos, extents, c.filter)
	if status.Failed() || ref == 0 {
		return 0, ErrNoNearbyPoly
	}

	id := c.nextID
	c.nextID++

	corridor := &PathCorridor{}
	corridor.Init(c.maxPath)
	corridor.Reset(ref, nearest)

	a := &Agent{
		ID:       id,
		Active:   true,
		State:    AgentWalking,
		Params:   params,
		Position: nearest,

		Velocity:        math3d.New(),
		DesiredVelocity: math3d.New(),

		Corridor: corridor,
		Boundary: NewLocalBoundary(),
		Behavior: behavior,
	}
	b := cloneAgent(a)

	c.active[id] = len(c.agents)
	c.agents = append(c.agents, a)
	c.scratch = append(c.scratch, b)
	c.neighbour = append(c.neighbour, nil)

	c.log.Debug("agent added", logging.AgentID(int(id)), logging.Tick(c.tick))
	return id, nil
}

// FetchAgent returns a copy of agent id's current (previous-tick) state.
func (c *Crowd) FetchAgent(id AgentID) (Agent, bool) {
	idx, ok := c.active[id]
	if !ok {
		return Agent{}, false
	}
	return *c.agents[idx], true
}

// PushAgent overwrites agent a.ID's state with a, letting a caller adjust
// parameters or behavior between ticks. a.ID must name a live agent.
func (c *Crowd) PushAgent(a Agent) bool {
	idx, ok := c.active[a.ID]
	if !ok {
		return false
	}
	*c.agents[idx] = a
	return true
}

// PushAgentPosition teleports agent id to pos, re-snapping its corridor to
// the nearest navmesh polygon. An AgentInvalid agent becomes AgentWalking
// again once the new position resolves.
func (c *Crowd) PushAgentPosition(id AgentID, pos math3d.Vec3) bool {
	idx, ok := c.active[id]
	if !ok {
		return false
	}
	a := c.agents[idx]
	extents := math3d.XYZ(a.Params.Radius*2+0.1, a.Params.Height, a.Params.Radius*2+0.1)
	ref, nearest, status := c.query.FindNearestPoly(pos, extents, c.filter)
	if status.Failed() || ref == 0 {
		return false
	}
	a.Position = nearest
	a.Corridor.Reset(ref, nearest)
	a.Boundary.Reset()
	if a.State == AgentInvalid {
		a.State = AgentWalking
	}
	return true
}

// RemoveAgent frees agent id's slot by swapping it with the last live
// agent, invalidating any index previously returned by Agent(i) for the
// slot that moved.
func (c *Crowd) RemoveAgent(id AgentID) bool {
	idx, ok := c.active[id]
	if !ok {
		return false
	}
	last := len(c.agents) - 1
	c.agents[idx] = c.agents[last]
	c.scratch[idx] = c.scratch[last]
	c.neighbour[idx] = c.neighbour[last]
	c.active[c.agents[idx].ID] = idx

	c.agents = c.agents[:last]
	c.scratch = c.scratch[:last]
	c.neighbour = c.neighbour[:last]
	delete(c.active, id)

	c.log.Debug("agent removed", logging.AgentID(int(id)), logging.Tick(c.tick))
	return true
}

// Agent returns a copy of the i-th live agent's state, for 0 <= i <
// AgentCount().
func (c *Crowd) Agent(i int) (Agent, bool) {
	if i < 0 || i >= len(c.agents) {
		return Agent{}, false
	}
	return *c.agents[i], true
}

// AgentCount returns the number of live agents.
func (c *Crowd) AgentCount() int { return len(c.agents) }

// Neighbours implements Query, returning agent id's previous-tick
// neighbours within its collision query range.
func (c *Crowd) Neighbours(id AgentID) []Neighbour {
	idx, ok := c.active[id]
	if !ok {
		return nil
	}
	return c.neighbour[idx]
}

func cloneAgent(a *Agent) *Agent {
	b := *a
	return &b
}

// Update advances the simulation by dt seconds: it refreshes the
// proximity grid, runs every active agent's behavior against the previous
// tick's snapshot, integrates acceleration/velocity/position, advances
// off-mesh animations, and swaps the double buffer.
func (c *Crowd) Update(dt float32) {
	assert.True(dt >= 0, "Update: dt must be non-negative")
	c.dt = dt
	c.tick++

	c.rebuildProximityGrid()
	c.refreshNeighbours()

	for i, old := range c.agents {
		newAgent := c.scratch[i]
		*newAgent = *old

		switch old.State {
		case AgentInvalid:
			continue
		case AgentOffMesh:
			c.advanceOffMesh(old, newAgent, dt)
			continue
		}

		if old.Behavior != nil {
			old.Behavior.Update(c, old, newAgent, dt)
		}

		c.integrate(old, newAgent, dt)
	}

	c.agents, c.scratch = c.scratch, c.agents
}

func (c *Crowd) rebuildProximityGrid() {
	c.grid.Clear()
	for _, a := range c.agents {
		if a.State == AgentInvalid {
			continue
		}
		r := a.Params.Radius
		c.grid.AddItem(a.ID, a.Position[0]-r, a.Position[2]-r, a.Position[0]+r, a.Position[2]+r)
	}
}

func (c *Crowd) refreshNeighbours() {
	ids := make([]AgentID, MaxNeighbours*4)
	for i, a := range c.agents {
		if a.State == AgentInvalid {
			c.neighbour[i] = nil
			continue
		}
		r := a.Params.CollisionQueryRange
		n := c.grid.QueryItems(a.Position[0]-r, a.Position[2]-r, a.Position[0]+r, a.Position[2]+r, ids, len(ids))

		list := c.neighbour[i][:0]
		for k := 0; k < n; k++ {
			otherID := ids[k]
			if otherID == a.ID {
				continue
			}
			otherIdx, ok := c.active[otherID]
			if !ok {
				continue
			}
			other := c.agents[otherIdx]
			dist := math3d.Dist2D(a.Position, other.Position)
			if dist > r {
				continue
			}
			list = append(list, Neighbour{
				ID:       other.ID,
				Position: other.Position,
				Velocity: other.Velocity,
				Radius:   other.Params.Radius,
				Dist:     dist,
			})
		}
		c.neighbour[i] = list
	}
}

// integrate applies spec.md's acceleration-bounded velocity integration
// and advances position along the navmesh surface.
func (c *Crowd) integrate(old, newAgent *Agent, dt float32) {
	if dt <= 0 {
		return
	}

	accel := math3d.XYZ(
		(newAgent.DesiredVelocity[0]-old.Velocity[0])/dt,
		0,
		(newAgent.DesiredVelocity[2]-old.Velocity[2])/dt,
	)
	accel = math3d.ClampLength2D(accel, newAgent.Params.MaxAcceleration)

	vel := math3d.XYZ(old.Velocity[0]+accel[0]*dt, 0, old.Velocity[2]+accel[2]*dt)
	vel = math3d.ClampLength2D(vel, newAgent.Params.MaxSpeed)
	newAgent.Velocity = vel

	nextPos := math3d.XYZ(old.Position[0]+vel[0]*dt, old.Position[1], old.Position[2]+vel[2]*dt)

	if newAgent.Corridor.MovePosition(nextPos, c.query, c.filter) {
		newAgent.Position = newAgent.Corridor.Pos()
	} else {
		newAgent.Position = nextPos
	}
	if h, ok := c.query.PolyHeight(newAgent.Corridor.FirstPoly(), newAgent.Position); ok {
		newAgent.Position[1] = h
	}
}

func (c *Crowd) advanceOffMesh(old, newAgent *Agent, dt float32) {
	if newAgent.OffMesh == nil {
		newAgent.State = AgentWalking
		return
	}
	pos, done := newAgent.OffMesh.Advance(dt)
	newAgent.Position = pos
	if done {
		newAgent.OffMesh = nil
		newAgent.State = AgentWalking
	}
}
