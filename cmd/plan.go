package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"overwatch/config"
)

var planOutPath string

var planCmd = &cobra.Command{
	Use:   "plan [request]",
	Short: "Produce a plan without executing it",
	Long: `Produce a plan for the request and print it as JSON. The output can be
saved and replayed later with a file planner.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := config.LoadAndValidate(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		prod, cleanup, err := buildPlanner(ctx, cfg, newLogger())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		p, err := prod.ProducePlan(ctx, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error producing plan: %v\n", err)
			os.Exit(1)
		}

		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if planOutPath != "" {
			if err := os.WriteFile(planOutPath, out, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", planOutPath, err)
				os.Exit(1)
			}
			fmt.Printf("Plan written to %s (%d tasks)\n", planOutPath, p.TaskCount())
			return
		}

		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&configPath, "config", "c", ".", "Path to config file or directory")
	planCmd.Flags().StringVarP(&planOutPath, "out", "o", "", "Write the plan JSON to a file")
	planCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
}
