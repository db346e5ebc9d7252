package crowd

import "errors"

// ErrCrowdFull is returned by AddAgent when the crowd is already at its
// configured maxAgents capacity.
var ErrCrowdFull = errors.New("crowd: at capacity")

// ErrNoNearbyPoly is returned by AddAgent when no walkable polygon is found
// within the agent's search extents (PushAgentPosition reports the same
// case by returning false).
var ErrNoNearbyPoly = errors.New("crowd: no navmesh polygon near position")
