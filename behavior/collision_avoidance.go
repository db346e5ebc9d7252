package behavior

import (
	"math"
	"sort"

	"github.com/aurelien-rainone/math32"

	"github.com/arl/crowdsteer/crowd"
	"github.com/arl/crowdsteer/math3d"
)

const (
	maxPatternDivs  = 32 // mirrors the teacher's cap on adaptive sector count.
	maxPatternRings = 4
)

// obstacleCircle is a moving obstacle — in practice always a neighbouring
// agent — considered during one sampling pass.
type obstacleCircle struct {
	position, velocity, desiredVelocity math3d.Vec3
	radius                              float32

	// direction and directionNormal are filled in by prepare and used by
	// processSample to keep avoidance on a consistent side of the obstacle.
	direction, directionNormal math3d.Vec3
}

// obstacleSegment is a static wall segment pulled from an agent's local
// boundary.
type obstacleSegment struct {
	p, q  math3d.Vec3
	touch bool
}

// DebugSample records one evaluated candidate velocity and its penalty
// breakdown. Collected only when CollisionAvoidanceParams.RecordDebug is
// set, for the debug-avoidance visualization.
type DebugSample struct {
	Velocity                math3d.Vec3
	Size                    float32
	Penalty                 float32
	DesiredVelocityPenalty  float32
	CurrentVelocityPenalty  float32
	SidePenalty             float32
	TimeToCollisionPenalty  float32
}

// CollisionAvoidanceParams tunes one agent's velocity sampling. Zero values
// are not meaningful on their own — start from
// DefaultCollisionAvoidanceParams and override what's needed.
type CollisionAvoidanceParams struct {
	// MaxCircleObstacles and MaxSegmentObstacles cap how many neighbours
	// and wall segments are considered per sample pass; over the cap, the
	// nearest neighbours are kept.
	MaxCircleObstacles  int
	MaxSegmentObstacles int

	// SampleOriginScale, SampleLevelsCount, SampleSectorsCount and
	// SampleRingsCount shape the adaptive sampling pattern: the first
	// level is centered on the desired velocity scaled by
	// SampleOriginScale, and each subsequent level halves the search
	// radius around the best candidate found so far.
	SampleOriginScale  float32
	SampleLevelsCount  int
	SampleSectorsCount int
	SampleRingsCount   int

	// WeightDesiredVelocity, WeightCurrentVelocity,
	// WeightCurrentAvoidanceSide and WeightTimeToCollision weight the four
	// penalty terms processSample sums. The terms are not normalized to a
	// common range: the two velocity terms are distances divided by the max
	// speed, the side term lies in [0,1], and the time-to-collision term is
	// 1/(0.1 + tmin/HorizonTime), from about 0.9 (no collision within the
	// horizon) to 10 (collision now). A candidate already in contact is not
	// rejected; it only gets a small tmin.
	WeightDesiredVelocity      float32
	WeightCurrentVelocity      float32
	WeightCurrentAvoidanceSide float32
	WeightTimeToCollision      float32

	// HorizonTime bounds how far ahead a predicted collision is still
	// taken into account.
	HorizonTime float32

	RecordDebug bool
}

// DefaultCollisionAvoidanceParams returns the tuning the original velocity
// obstacle algorithm ships with.
func DefaultCollisionAvoidanceParams() CollisionAvoidanceParams {
	return CollisionAvoidanceParams{
		MaxCircleObstacles:         6,
		MaxSegmentObstacles:        8,
		SampleOriginScale:          0.4,
		SampleLevelsCount:          5,
		SampleSectorsCount:         7,
		SampleRingsCount:           2,
		WeightDesiredVelocity:      2.0,
		WeightCurrentVelocity:      0.75,
		WeightCurrentAvoidanceSide: 0.75,
		WeightTimeToCollision:      2.5,
		HorizonTime:                2.5,
	}
}

// avoidanceWorkspace is the per-agent scratch state reused tick to tick to
// avoid reallocating obstacle slices.
type avoidanceWorkspace struct {
	circles  []obstacleCircle
	segments []obstacleSegment
	debug    []DebugSample

	invVmax        float32
	invHorizonTime float32
}

// CollisionAvoidance refines an agent's desired velocity to steer around
// nearby agents (circle obstacles, sourced from Query.Neighbours) and
// nearby navmesh walls (segment obstacles, sourced from the agent's
// LocalBoundary). It samples a pattern of candidate velocities centered on
// the desired velocity and keeps the candidate with the lowest collision
// penalty.
type CollisionAvoidance struct {
	params map[crowd.AgentID]*CollisionAvoidanceParams
	work   map[crowd.AgentID]*avoidanceWorkspace
}

// NewCollisionAvoidance returns an empty CollisionAvoidance behavior. Call
// Set to register per-agent parameters before it does anything for that
// agent.
func NewCollisionAvoidance() *CollisionAvoidance {
	return &CollisionAvoidance{
		params: make(map[crowd.AgentID]*CollisionAvoidanceParams),
		work:   make(map[crowd.AgentID]*avoidanceWorkspace),
	}
}

// Set registers (or replaces) the parameters used for agent id.
func (ca *CollisionAvoidance) Set(id crowd.AgentID, p CollisionAvoidanceParams) {
	ca.params[id] = &p
	if _, ok := ca.work[id]; !ok {
		ca.work[id] = &avoidanceWorkspace{}
	}
}

// Remove drops agent id's parameters and scratch workspace, e.g. after
// RemoveAgent.
func (ca *CollisionAvoidance) Remove(id crowd.AgentID) {
	delete(ca.params, id)
	delete(ca.work, id)
}

// Debug returns the last tick's evaluated candidate samples for agent id,
// populated only when its CollisionAvoidanceParams.RecordDebug is set.
func (ca *CollisionAvoidance) Debug(id crowd.AgentID) ([]DebugSample, bool) {
	w, ok := ca.work[id]
	if !ok {
		return nil, false
	}
	return w.debug, true
}

// Update implements crowd.Behavior. Agents with no registered parameters
// pass their desired velocity through unchanged.
func (ca *CollisionAvoidance) Update(query crowd.Query, old, newAgent *crowd.Agent, dt float32) {
	p, ok := ca.params[old.ID]
	if !ok {
		return
	}
	w := ca.work[old.ID]
	if w == nil {
		w = &avoidanceWorkspace{}
		ca.work[old.ID] = w
	}

	if old.Params.MaxSpeed <= 0 {
		newAgent.DesiredVelocity = math3d.XYZ(0, 0, 0)
		return
	}

	ca.gatherObstacles(query, old, p, w)

	vmax := old.Params.MaxSpeed
	if vmax > 0 {
		w.invVmax = 1.0 / vmax
	} else {
		w.invVmax = math.MaxFloat32
	}
	if p.HorizonTime > 0 {
		w.invHorizonTime = 1.0 / p.HorizonTime
	}

	if p.RecordDebug {
		w.debug = w.debug[:0]
	} else {
		w.debug = nil
	}

	ca.prepare(old.Position, newAgent.DesiredVelocity, w)
	newAgent.DesiredVelocity = ca.sampleVelocityAdaptive(old.Position, old.Params.Radius, vmax, old.Velocity, newAgent.DesiredVelocity, p, w)
}

func (ca *CollisionAvoidance) gatherObstacles(query crowd.Query, old *crowd.Agent, p *CollisionAvoidanceParams, w *avoidanceWorkspace) {
	w.circles = w.circles[:0]
	neighbours := append([]crowd.Neighbour(nil), query.Neighbours(old.ID)...)
	sort.Slice(neighbours, func(i, j int) bool { return neighbours[i].Dist < neighbours[j].Dist })
	for _, n := range neighbours {
		if len(w.circles) >= p.MaxCircleObstacles {
			break
		}
		w.circles = append(w.circles, obstacleCircle{
			position:        n.Position,
			velocity:        n.Velocity,
			desiredVelocity: n.Velocity, // a neighbour's own desired velocity isn't observable; its current velocity is the best estimate.
			radius:          n.Radius,
		})
	}

	w.segments = w.segments[:0]
	if old.Boundary == nil {
		return
	}
	for i := 0; i < old.Boundary.SegmentCount() && len(w.segments) < p.MaxSegmentObstacles; i++ {
		sp, sq := old.Boundary.Segment(i)
		closest := closestPtOnSeg2D(old.Position, sp, sq)
		w.segments = append(w.segments, obstacleSegment{
			p:     sp,
			q:     sq,
			touch: math3d.Dist2D(old.Position, closest) < old.Params.Radius,
		})
	}
}

// prepare computes, for each circle obstacle, the direction from the agent
// to the obstacle and its normal, used by processSample to penalize
// candidates that would flip which side the agent passes the obstacle on.
func (ca *CollisionAvoidance) prepare(pos, dvel math3d.Vec3, w *avoidanceWorkspace) {
	for i := range w.circles {
		c := &w.circles[i]
		dp := math3d.Normalize2D(math3d.XYZ(c.position[0]-pos[0], 0, c.position[2]-pos[2]))
		dv := math3d.XYZ(c.desiredVelocity[0]-dvel[0], 0, c.desiredVelocity[2]-dvel[2])

		// Signed area of the triangle (origin, dp, dv) tells which side of
		// the obstacle's approach direction the relative desired velocity
		// falls on.
		area := dp[0]*dv[2] - dv[0]*dp[2]

		c.direction = dp
		if area < 0.01 {
			c.directionNormal = math3d.XYZ(-dp[2], 0, dp[0])
		} else {
			c.directionNormal = math3d.XYZ(dp[2], 0, -dp[0])
		}
	}
}

// sampleVelocityAdaptive runs SampleLevelsCount passes of a sector/ring
// pattern centered on the previous pass's best candidate, halving the
// search radius each level, and returns the lowest-penalty velocity found.
func (ca *CollisionAvoidance) sampleVelocityAdaptive(pos math3d.Vec3, rad, vmax float32, vel, dvel math3d.Vec3, p *CollisionAvoidanceParams, w *avoidanceWorkspace) math3d.Vec3 {
	nd := clampInt(p.SampleSectorsCount, 1, maxPatternDivs)
	nr := clampInt(p.SampleRingsCount, 1, maxPatternRings)
	da := (1.0 / float32(nd)) * 2 * math32.Pi
	cosDa, sinDa := math32.Cos(da), math32.Sin(da)

	ddir := math3d.Normalize2D(dvel)
	rotated := math3d.RotatePolar2D(ddir, da*0.5)

	type point struct{ x, z float32 }
	var pat [(maxPatternDivs*maxPatternRings + 1)]point
	npat := 0
	pat[npat] = point{0, 0}
	npat++

	for j := 0; j < nr; j++ {
		r := float32(nr-j) / float32(nr)
		var base point
		if j%2 == 0 {
			base = point{ddir[0] * r, ddir[2] * r}
		} else {
			base = point{rotated[0] * r, rotated[2] * r}
		}
		pat[npat] = base
		last1 := npat
		last2 := npat
		npat++

		for i := 1; i < nd-1 && npat+1 < len(pat); i += 2 {
			p1 := pat[last1]
			pat[npat] = point{p1.x*cosDa + p1.z*sinDa, -p1.x*sinDa + p1.z*cosDa}
			right := npat
			npat++

			p2 := pat[last2]
			pat[npat] = point{p2.x*cosDa - p2.z*sinDa, p2.x*sinDa + p2.z*cosDa}
			left := npat
			npat++

			last1, last2 = right, left
		}

		if nd%2 == 0 && npat < len(pat) {
			p2 := pat[last2]
			pat[npat] = point{p2.x*cosDa - p2.z*sinDa, p2.x*sinDa + p2.z*cosDa}
			npat++
		}
	}

	cr := vmax * (1.0 - p.SampleOriginScale)
	res := math3d.XYZ(dvel[0]*p.SampleOriginScale, 0, dvel[2]*p.SampleOriginScale)

	levels := p.SampleLevelsCount
	if levels < 1 {
		levels = 1
	}

	for k := 0; k < levels; k++ {
		minPenalty := float32(math.MaxFloat32)
		best := res

		for i := 0; i < npat; i++ {
			vcand := math3d.XYZ(res[0]+pat[i].x*cr, 0, res[2]+pat[i].z*cr)
			if vcand[0]*vcand[0]+vcand[2]*vcand[2] > (vmax+0.001)*(vmax+0.001) {
				continue
			}
			penalty := ca.processSample(vcand, cr/10, pos, rad, vel, dvel, minPenalty, p, w)
			if penalty < minPenalty {
				minPenalty = penalty
				best = vcand
			}
		}

		res = best
		cr *= 0.5
	}

	return res
}

// processSample computes the collision penalty of one candidate velocity:
// the sum of its distance to the desired and current velocities, how much
// it would change the agent's current avoidance side, and how soon it
// would collide with a tracked obstacle. Each term is weighted and summed;
// lower is better.
func (ca *CollisionAvoidance) processSample(vcand math3d.Vec3, sampleSize float32, pos math3d.Vec3, rad float32, vel, dvel math3d.Vec3, minPenalty float32, p *CollisionAvoidanceParams, w *avoidanceWorkspace) float32 {
	vpen := p.WeightDesiredVelocity * math3d.Dist2D(vcand, dvel) * w.invVmax
	vcpen := p.WeightCurrentVelocity * math3d.Dist2D(vcand, vel) * w.invVmax

	minPen := minPenalty - vpen - vcpen
	if minPen < 1e-5 {
		minPen = 1e-5
	}
	threshold := (p.WeightTimeToCollision/minPen - 0.1) * p.HorizonTime
	if threshold-p.HorizonTime > -1e-5 {
		return minPenalty
	}

	tmin := p.HorizonTime
	var side float32
	var nside int

	for i := range w.circles {
		c := &w.circles[i]
		vab := math3d.XYZ(vcand[0]*2-vel[0]-c.velocity[0], 0, vcand[2]*2-vel[2]-c.velocity[2])

		s := clamp01(minf(c.direction.Dot2D(vab)*0.5+0.5, c.directionNormal.Dot2D(vab)*2))
		side += s
		nside++

		htmin, htmax, moving := sweepCircleCircle(pos, rad, vab, c.position, c.radius)
		if !moving {
			continue
		}
		if htmin < 0 && htmax > 0 {
			htmin = -htmin * 0.5
		}
		if htmin >= 0 && htmin < tmin {
			tmin = htmin
		}
	}

	for i := range w.segments {
		seg := &w.segments[i]
		var htmin float32

		if seg.touch {
			sdir := math3d.XYZ(seg.q[0]-seg.p[0], 0, seg.q[2]-seg.p[2])
			snorm := math3d.XYZ(-sdir[2], 0, sdir[0])
			if snorm.Dot2D(vcand) < 0 {
				continue
			}
			htmin = 0
		} else {
			ok, t := isectRaySeg(pos, vcand, seg.p, seg.q)
			if !ok {
				continue
			}
			htmin = t
		}

		htmin *= 2
		if htmin < tmin {
			tmin = htmin
		}
	}

	if nside > 0 {
		side /= float32(nside)
	}

	spen := p.WeightCurrentAvoidanceSide * side
	tpen := p.WeightTimeToCollision * (1.0 / (0.1 + tmin*w.invHorizonTime))

	penalty := vpen + vcpen + spen + tpen

	if p.RecordDebug {
		w.debug = append(w.debug, DebugSample{
			Velocity:               vcand,
			Size:                   sampleSize,
			Penalty:                penalty,
			DesiredVelocityPenalty: vpen,
			CurrentVelocityPenalty: vcpen,
			SidePenalty:            spen,
			TimeToCollisionPenalty: tpen,
		})
	}

	return penalty
}

// sweepCircleCircle finds the time interval, scaled by v, during which a
// circle of radius r0 moving from c0 along v overlaps a circle of radius
// r1 centered on c1. moving is false if v is too small to resolve (no
// relative motion to sweep).
func sweepCircleCircle(c0 math3d.Vec3, r0 float32, v math3d.Vec3, c1 math3d.Vec3, r1 float32) (tmin, tmax float32, moving bool) {
	const eps = 0.0001
	s := c1.Sub(c0)
	r := r0 + r1
	c := s.Dot2D(s) - r*r
	a := v.Dot2D(v)
	if a < eps {
		return 0, 0, false
	}

	b := v.Dot2D(s)
	d := b*b - a*c
	if d < 0 {
		return 0, 0, false
	}
	a = 1.0 / a
	rd := math32.Sqrt(d)
	tmin = (b - rd) * a
	tmax = (b + rd) * a
	return tmin, tmax, true
}

// isectRaySeg intersects the ray (ap, u) with the segment [bp, bq],
// returning the ray parameter t at the intersection when found.
func isectRaySeg(ap, u, bp, bq math3d.Vec3) (bool, float32) {
	v := bq.Sub(bp)
	w := ap.Sub(bp)

	d := u.Perp2D(v)
	if math32.Abs(d) < 1e-6 {
		return false, 0
	}
	d = 1.0 / d
	t := v.Perp2D(w) * d
	if t < 0 || t > 1 {
		return false, 0
	}
	s := u.Perp2D(w) * d
	if s < 0 || s > 1 {
		return false, 0
	}
	return true, t
}

func closestPtOnSeg2D(pt, p, q math3d.Vec3) math3d.Vec3 {
	pq := math3d.XYZ(q[0]-p[0], 0, q[2]-p[2])
	d := pq[0]*pq[0] + pq[2]*pq[2]
	var t float32
	if d > 1e-12 {
		t = ((pt[0]-p[0])*pq[0] + (pt[2]-p[2])*pq[2]) / d
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	return math3d.XYZ(p[0]+t*pq[0], p[1], p[2]+t*pq[2])
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

var _ crowd.Behavior = (*CollisionAvoidance)(nil)
