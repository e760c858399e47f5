package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Long = fmt.Sprintf(`Overwatch %s

Human-in-the-loop orchestrator for LLM-planned software projects.

Describe what you want built; Overwatch plans it as dependency-ordered
tasks, then executes them one at a time with an operator checkpoint
between tasks.

Get started:
  overwatch verify <path>    Validate your configuration
  overwatch plan "request"   Produce a plan without executing it
  overwatch run "request"    Plan and execute a project`, Version)
}
