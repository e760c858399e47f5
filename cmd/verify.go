package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"overwatch/config"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify that the configuration is valid",
	Long:  `Verify parses and validates the HCL configuration files. Path can be a file or directory.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Found %d model(s)\n", len(cfg.Models))
		for _, m := range cfg.Models {
			fmt.Printf("  - %s (provider: %s, model: %s)\n", m.Name, m.Provider, m.ModelName)
		}
		fmt.Printf("Found %d variable(s)\n", len(cfg.Variables))
		for _, v := range cfg.Variables {
			resolved := ""
			if val, ok := cfg.ResolvedVars[v.Name]; ok {
				resolved = val.AsString()
			}
			if v.Secret {
				if resolved != "" {
					fmt.Printf("  - %s (secret, set)\n", v.Name)
				} else {
					fmt.Printf("  - %s (secret, not set)\n", v.Name)
				}
			} else {
				fmt.Printf("  - %s = %q\n", v.Name, resolved)
			}
		}
		fmt.Printf("Planner: %s", cfg.Planner.Type)
		if cfg.Planner.Model != "" {
			fmt.Printf(" (model: %s)", cfg.Planner.Model)
		}
		fmt.Println()
		fmt.Printf("Executor: %s", cfg.Executor.Type)
		if cfg.Executor.Model != "" {
			fmt.Printf(" (model: %s, workspace: %s)", cfg.Executor.Model, cfg.Executor.Workspace)
		}
		fmt.Println()
		fmt.Printf("Storage: %s\n", cfg.Storage.Backend)
		if cfg.Gate.Disabled {
			fmt.Printf("Gate: disabled\n")
		} else {
			fmt.Printf("Gate: %ds timeout, cancel token %q\n", cfg.Gate.TimeoutSeconds, cfg.Gate.CancelToken)
		}
		if cfg.Observer.Enabled {
			fmt.Printf("Observer: enabled on %s\n", cfg.Observer.ListenAddr)
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
