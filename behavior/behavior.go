// Package behavior implements the pluggable steering behaviors agents are
// composed of: path following toward a navmesh target, velocity-based
// collision avoidance, and the simple flocking primitives (seek,
// separation, alignment, cohesion). Each behavior implements
// crowd.Behavior; Pipeline composes several into one.
package behavior

import "github.com/arl/crowdsteer/crowd"

// ParametrizedBehavior adapts a strongly typed parameter table into a
// crowd.Behavior: it holds one P per agent, looked up by agent id, and runs
// the update function it was built with against the resolved parameters
// rather than re-deriving them from Agent on every call. This mirrors the teacher corpus's own
// template-parametrized behavior base, generalized with a Go type
// parameter instead of a C++ template.
type ParametrizedBehavior[P any] struct {
	params map[crowd.AgentID]*P
	update func(query crowd.Query, old, newAgent *crowd.Agent, params *P, dt float32)
}

// NewParametrizedBehavior builds a behavior whose per-tick logic is update,
// dispatching against the parameter set previously registered with Set.
func NewParametrizedBehavior[P any](update func(crowd.Query, *crowd.Agent, *crowd.Agent, *P, float32)) *ParametrizedBehavior[P] {
	return &ParametrizedBehavior[P]{
		params: make(map[crowd.AgentID]*P),
		update: update,
	}
}

// Set registers (or replaces) the parameters behavior uses for agent id.
func (b *ParametrizedBehavior[P]) Set(id crowd.AgentID, p P) {
	b.params[id] = &p
}

// Params returns the parameters registered for agent id, if any.
func (b *ParametrizedBehavior[P]) Params(id crowd.AgentID) (*P, bool) {
	p, ok := b.params[id]
	return p, ok
}

// Remove drops agent id's parameters, e.g. after RemoveAgent.
func (b *ParametrizedBehavior[P]) Remove(id crowd.AgentID) {
	delete(b.params, id)
}

// Update implements crowd.Behavior. Agents with no registered parameters
// are left untouched — a silent no-op, matching the teacher's own
// leave-untargeted-agents-alone convention for simple behaviors.
func (b *ParametrizedBehavior[P]) Update(query crowd.Query, old, newAgent *crowd.Agent, dt float32) {
	p, ok := b.params[old.ID]
	if !ok {
		return
	}
	b.update(query, old, newAgent, p, dt)
}

// Pipeline chains several behaviors: each reads the previous stage's
// output as its own "old" agent and writes into a fresh scratch copy that
// becomes the next stage's input. The last stage's output is what the
// caller's newAgent ends up holding. Path-following decides a
// goal-directed velocity, collision-avoidance refines it, and optional
// flocking behaviors adjust it further — exactly the composition this
// models.
type Pipeline struct {
	stages []crowd.Behavior
}

// NewPipeline returns a Pipeline running stages in order.
func NewPipeline(stages ...crowd.Behavior) *Pipeline {
	return &Pipeline{stages: stages}
}

// Append adds one more stage to the end of the pipeline.
func (p *Pipeline) Append(b crowd.Behavior) { p.stages = append(p.stages, b) }

// Update implements crowd.Behavior.
func (p *Pipeline) Update(query crowd.Query, old, newAgent *crowd.Agent, dt float32) {
	cur := *old
	for _, stage := range p.stages {
		next := cur
		stage.Update(query, &cur, &next, dt)
		cur = next
	}
	*newAgent = cur
}

var _ crowd.Behavior = (*Pipeline)(nil)
