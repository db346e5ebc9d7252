package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/arl/crowdsteer/internal/config"
	"github.com/arl/crowdsteer/internal/engine"
	"github.com/arl/crowdsteer/internal/logging"
	"github.com/arl/crowdsteer/internal/scene"
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "simulate a scene for a number of ticks",
	Long: `Load a scene description, build its navmesh and agents, then step
the simulation forward, printing each agent's final position and
path-following state.`,
	RunE: doRun,
}

func init() {
	RootCmd.AddCommand(runCmd)

	runCmd.Flags().String("scene", "", "scene YAML file (required)")
	runCmd.Flags().Int("ticks", 600, "number of ticks to simulate")
	runCmd.Flags().Float32("dt", 1.0/30.0, "tick duration in seconds")
	runCmd.Flags().Bool("debugAvoidance", false, "dump each agent's collision avoidance sampling pattern as YAML")
}

func doRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	log := logging.NewDevelopment()
	defer log.Sync()

	s, err := scene.Load(cfg.ScenePath)
	if err != nil {
		return err
	}

	res, err := engine.Build(s, log, cfg.DebugAvoidance)
	if err != nil {
		return err
	}

	for i := 0; i < cfg.Ticks; i++ {
		res.Crowd.Update(cfg.DT)
	}

	for i := 0; i < res.Crowd.AgentCount(); i++ {
		a, _ := res.Crowd.Agent(i)
		fmt.Printf("agent %d: pos=%v state=%v pathFollowing=%v\n", a.ID, a.Position, a.State, a.PathFollowing.State)
	}

	if cfg.DebugAvoidance {
		return dumpAvoidanceDebug(res)
	}
	return nil
}

// dumpAvoidanceDebug prints, as YAML, the final velocity sampling pattern
// recorded for every agent whose pipeline includes CollisionAvoidance —
// the supplemented debug-recording feature's exposed surface, now that the
// interactive visualizer itself is out of scope.
func dumpAvoidanceDebug(res *engine.Result) error {
	type dump struct {
		AgentID int           `yaml:"agentID"`
		Samples []interface{} `yaml:"samples"`
	}
	var dumps []dump
	for id, ca := range res.CollisionAvoidances {
		samples, ok := ca.Debug(id)
		if !ok {
			continue
		}
		entries := make([]interface{}, len(samples))
		for i, s := range samples {
			entries[i] = s
		}
		dumps = append(dumps, dump{AgentID: int(id), Samples: entries})
	}
	out, err := yaml.Marshal(dumps)
	if err != nil {
		return fmt.Errorf("run: marshaling avoidance debug data: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
