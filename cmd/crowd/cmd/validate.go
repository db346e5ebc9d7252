package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arl/crowdsteer/internal/engine"
	"github.com/arl/crowdsteer/internal/logging"
	"github.com/arl/crowdsteer/internal/scene"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate SCENE",
	Short: "load and validate a scene without simulating it",
	Long: `Load a scene description, build its navmesh and agents, and report
any configuration error, without stepping the simulation.`,
	Args: cobra.ExactArgs(1),
	RunE: doValidate,
}

func init() {
	RootCmd.AddCommand(validateCmd)
}

func doValidate(cmd *cobra.Command, args []string) error {
	s, err := scene.Load(args[0])
	if err != nil {
		return err
	}

	res, err := engine.Build(s, logging.Nop(), false)
	if err != nil {
		return err
	}

	fmt.Printf("scene %q: %d agent(s), navmesh %q — ok\n", args[0], res.Crowd.AgentCount(), s.SceneFile)
	return nil
}
