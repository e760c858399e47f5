package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"overwatch/config"
	"overwatch/executor"
	"overwatch/gate"
	"overwatch/llm"
	"overwatch/planner"
	"overwatch/plugin"
	"overwatch/runner"
	"overwatch/session"
	"overwatch/store"
	"overwatch/streamers"
	"overwatch/streamers/cli"
	"overwatch/wsbridge"
)

var (
	autoApprove bool
	observeMode bool
	debugMode   bool
)

var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Plan and execute a project",
	Long: `Produce a plan for the request, show it for approval, then execute the
tasks one at a time with an operator checkpoint between tasks.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runProject(args[0], observeMode)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&configPath, "config", "c", ".", "Path to config file or directory")
	runCmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Skip plan approval")
	runCmd.Flags().BoolVar(&observeMode, "observe", false, "Serve the websocket observer bridge during the run")
	runCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
}

func runProject(request string, observe bool) {
	ctx := context.Background()

	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger()

	bundle, err := store.NewBundle(cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer bundle.Close()

	sess := session.NewStore(request)
	handler := streamers.NewStoringRunHandler(cli.NewRunHandler(), bundle)
	handler.RunStarted(request, sess.Get().SessionID)

	prod, cleanup, err := buildPlanner(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	p, err := prod.ProducePlan(ctx, request)
	if err != nil {
		handler.RunFailed(err)
		os.Exit(1)
	}

	sess.Update(session.Delta{Plan: p})
	handler.PlanProduced(p)

	if !autoApprove && !approvePlan() {
		handler.RunCancelled("plan rejected")
		return
	}

	exec, execCleanup, err := buildExecutor(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer execCleanup()

	var gateCtrl *gate.Controller
	if !cfg.Gate.Disabled {
		gateCtrl = gate.NewController(os.Stdin, cfg.Gate.CancelToken)
	}

	if observe || cfg.Observer.Enabled {
		obsCtx, stopObserver := context.WithCancel(ctx)
		defer stopObserver()
		server := wsbridge.NewServer(wsbridge.Options{
			Store:        sess,
			Addr:         cfg.Observer.ListenAddr,
			PollInterval: time.Duration(cfg.Observer.PollIntervalMS) * time.Millisecond,
			Version:      Version,
			Logger:       logger,
		})
		go func() {
			if err := server.Start(obsCtx); err != nil {
				logger.Error("observer bridge failed", "error", err)
			}
		}()
	}

	r := runner.New(runner.Options{
		Executor:    exec,
		Handler:     handler,
		Gate:        gateCtrl,
		Store:       sess,
		GateTimeout: time.Duration(cfg.Gate.TimeoutSeconds) * time.Second,
		Logger:      logger,
	})

	if err := r.Run(ctx, p); err != nil {
		if errors.Is(err, runner.ErrCancelled) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// approvePlan prompts for plan approval on stdin. Declining is the default.
func approvePlan() bool {
	fmt.Printf("Proceed with this plan? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}

func newLogger() hclog.Logger {
	level := hclog.Warn
	if debugMode {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "overwatch",
		Output: os.Stderr,
		Level:  level,
	})
}

// buildProvider creates the LLM provider for a model block. The returned
// cleanup releases provider resources (gemini holds a connection).
func buildProvider(ctx context.Context, m *config.Model) (llm.Provider, func(), error) {
	if m.APIKey == "" {
		return nil, nil, fmt.Errorf("API key not set for model '%s'", m.Name)
	}

	switch m.Provider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicProvider(m.APIKey), func() {}, nil
	case config.ProviderOpenAI:
		return llm.NewOpenAIProvider(m.APIKey), func() {}, nil
	case config.ProviderGemini:
		provider, err := llm.NewGeminiProvider(ctx, m.APIKey)
		if err != nil {
			return nil, nil, err
		}
		return provider, func() { provider.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider: %s", m.Provider)
	}
}

func buildPlanner(ctx context.Context, cfg *config.Config, logger hclog.Logger) (planner.Producer, func(), error) {
	switch cfg.Planner.Type {
	case "file":
		return &planner.FilePlanner{Path: cfg.Planner.PlanPath}, func() {}, nil
	case "llm":
		m, err := cfg.FindModel(cfg.Planner.Model)
		if err != nil {
			return nil, nil, err
		}
		provider, cleanup, err := buildProvider(ctx, m)
		if err != nil {
			return nil, nil, err
		}
		return planner.NewLLMPlanner(provider, m.ModelName, logger), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown planner type '%s'", cfg.Planner.Type)
	}
}

func buildExecutor(ctx context.Context, cfg *config.Config, logger hclog.Logger) (executor.Executor, func(), error) {
	switch cfg.Executor.Type {
	case "plugin":
		client, err := plugin.Load(cfg.Executor.PluginPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return executor.NewPluginExecutor(client), client.Close, nil
	case "agent":
		m, err := cfg.FindModel(cfg.Executor.Model)
		if err != nil {
			return nil, nil, err
		}
		provider, cleanup, err := buildProvider(ctx, m)
		if err != nil {
			return nil, nil, err
		}
		agent := executor.NewAgentExecutor(provider, m.ModelName, cfg.Executor.Workspace, logger)
		if cfg.Executor.MaxIterations > 0 {
			agent.SetMaxIterations(cfg.Executor.MaxIterations)
		}
		return agent, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown executor type '%s'", cfg.Executor.Type)
	}
}
