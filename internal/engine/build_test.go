package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arl/crowdsteer/crowd"
	"github.com/arl/crowdsteer/internal/engine"
	"github.com/arl/crowdsteer/internal/logging"
	"github.com/arl/crowdsteer/internal/scene"
)

func writeFloorOBJ(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "floor.obj")
	content := `
v 0 0 0
v 0 0 10
v 10 0 10
v 10 0 0
f 1 2 3 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeScene(t *testing.T, objPath, content string) string {
	t.Helper()
	dir := filepath.Dir(objPath)
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildWiresPathFollowingAgent(t *testing.T) {
	dir := t.TempDir()
	objPath := writeFloorOBJ(t, dir)
	scenePath := writeScene(t, objPath, `
scene: `+objPath+`
agents:
  - position: [1, 0, 1]
    parameters:
      radius: 0.3
      height: 1.8
      maxSpeed: 2
      maxAcceleration: 4
      collisionQueryRange: 4
      behavior:
        type: pathFollowing
        target: [8, 0, 8]
`)
	s, err := scene.Load(scenePath)
	require.NoError(t, err)

	res, err := engine.Build(s, logging.Nop(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Crowd.AgentCount())

	a, ok := res.Crowd.Agent(0)
	require.True(t, ok)
	assert.NotEqual(t, crowd.NoTarget, a.PathFollowing.State)
	assert.Empty(t, res.CollisionAvoidances)
}

func TestBuildWiresCollisionAvoidanceDebug(t *testing.T) {
	dir := t.TempDir()
	objPath := writeFloorOBJ(t, dir)
	scenePath := writeScene(t, objPath, `
scene: `+objPath+`
agents:
  - position: [1, 0, 1]
    parameters:
      radius: 0.3
      height: 1.8
      maxSpeed: 2
      maxAcceleration: 4
      collisionQueryRange: 4
      pipeline:
        - type: pathFollowing
          target: [8, 0, 8]
        - type: collisionAvoidance
`)
	s, err := scene.Load(scenePath)
	require.NoError(t, err)

	res, err := engine.Build(s, logging.Nop(), true)
	require.NoError(t, err)
	require.Len(t, res.CollisionAvoidances, 1)

	res.Crowd.Update(0.1)
	a, _ := res.Crowd.Agent(0)
	ca := res.CollisionAvoidances[a.ID]
	samples, ok := ca.Debug(a.ID)
	require.True(t, ok)
	assert.NotEmpty(t, samples)
}

func TestBuildRejectsUnknownBehavior(t *testing.T) {
	dir := t.TempDir()
	objPath := writeFloorOBJ(t, dir)
	scenePath := writeScene(t, objPath, `
scene: `+objPath+`
agents:
  - position: [1, 0, 1]
    parameters:
      radius: 0.3
      behavior:
        type: bogus
`)
	s, err := scene.Load(scenePath)
	require.NoError(t, err)

	_, err = engine.Build(s, logging.Nop(), false)
	assert.Error(t, err)
}
