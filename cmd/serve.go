package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [request]",
	Short: "Run a project with the observer bridge enabled",
	Long: `Identical to run, but always serves the websocket observer bridge so
external tools can watch the session state live.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runProject(args[0], true)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&configPath, "config", "c", ".", "Path to config file or directory")
	serveCmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Skip plan approval")
	serveCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
}
