package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arl/crowdsteer/internal/logging"
)

var rootLog = logging.NewDevelopment()

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "crowd",
	Short: "simulate a crowd of steering agents over a navmesh",
	Long: `crowd runs a scene description through the crowd steering engine:
	- load a navmesh footprint and per-agent parameters/behaviors from a YAML scene,
	- step the simulation for a configurable number of ticks,
	- report each agent's final position and path-following state.`,
}

// Execute adds all child commands to the root command and runs it. Called
// once from main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		rootLog.Error(err.Error())
		os.Exit(1)
	}
}
