// Package scene loads the YAML scene description that configures a crowd
// simulation run: the navmesh to load, the flocking groups agents may
// belong to, and each agent's starting position, physical parameters and
// behavior (or behavior pipeline).
package scene

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Scene is the top-level document.
type Scene struct {
	SceneFile string          `yaml:"scene"`
	Flockings []FlockingGroup `yaml:"flockings"`
	Agents    []AgentSpec     `yaml:"agents"`
}

// FlockingGroup names a set of agents (by index into Scene.Agents) sharing
// one set of flocking weights, referenced by an agent's behavior spec via
// its Group field.
type FlockingGroup struct {
	Name             string  `yaml:"name"`
	SeparationWeight float32 `yaml:"separationWeight"`
	AlignmentWeight  float32 `yaml:"alignmentWeight"`
	CohesionWeight   float32 `yaml:"cohesionWeight"`
	SeparationDist   float32 `yaml:"separationDist"`
}

// AgentSpec describes one agent's starting state.
type AgentSpec struct {
	Position   [3]float32 `yaml:"position"`
	Parameters ParamsSpec `yaml:"parameters"`
}

// ParamsSpec mirrors crowd.Params plus the behavior (or pipeline) that
// drives the agent.
type ParamsSpec struct {
	Radius              float32 `yaml:"radius"`
	Height              float32 `yaml:"height"`
	MaxSpeed            float32 `yaml:"maxSpeed"`
	MaxAcceleration     float32 `yaml:"maxAcceleration"`
	CollisionQueryRange float32 `yaml:"collisionQueryRange"`

	// LocalPathReplanningInterval is decoded here only far enough to catch
	// YAML's own type errors (a quoted non-numeric scalar); the stricter,
	// authoritative numeric-only check happens in internal/config, which
	// re-decodes the same document through viper.
	LocalPathReplanningInterval float32 `yaml:"localPathReplanningInterval"`

	Behavior *BehaviorSpec  `yaml:"behavior"`
	Pipeline []BehaviorSpec `yaml:"pipeline"`
}

// BehaviorSpec is a tagged union over the behavior kinds the behavior
// package implements. Unknown keys for a given Type are ignored rather
// than rejected, matching the scene format's permissive-unknown-keys rule.
type BehaviorSpec struct {
	Type string `yaml:"type"`

	// pathFollowing
	Target [3]float32 `yaml:"target"`

	// seek
	PredictionFactor float32 `yaml:"predictionFactor"`
	MinimalDistance  float32 `yaml:"minimalDistance"`

	// seek (first id only) / separation / alignment / cohesion / flocking
	Targets  []int   `yaml:"targets"`
	Group    string  `yaml:"group"`
	Distance float32 `yaml:"distance"`

	// Pipeline is decoded, but internal/engine does not build nested
	// pipelines: an entry's own Pipeline is ignored, and an entry with no
	// Type is rejected as an unknown behavior type.
	Pipeline []BehaviorSpec `yaml:"pipeline"`
}

// Load reads and decodes the scene document at path.
func Load(path string) (*Scene, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: reading %q: %w", path, err)
	}

	var s Scene
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return nil, fmt.Errorf("scene: decoding %q: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scene: %q: %w", path, err)
	}
	return &s, nil
}

func (s *Scene) validate() error {
	if s.SceneFile == "" {
		return fmt.Errorf("missing scene.file")
	}
	groups := make(map[string]bool, len(s.Flockings))
	for _, g := range s.Flockings {
		groups[g.Name] = true
	}
	for i, a := range s.Agents {
		specs := a.Parameters.Pipeline
		if a.Parameters.Behavior != nil {
			specs = append(specs, *a.Parameters.Behavior)
		}
		for _, b := range specs {
			if b.Type == "flocking" && b.Group != "" && !groups[b.Group] {
				return fmt.Errorf("agent %d: unknown flocking group %q", i, b.Group)
			}
		}
	}
	return nil
}
