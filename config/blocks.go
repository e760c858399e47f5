package config

import "fmt"

// PlannerConfig selects how plans are produced.
type PlannerConfig struct {
	Type     string `hcl:"type,optional"`      // "llm" or "file"
	Model    string `hcl:"model,optional"`     // model block name (llm)
	PlanPath string `hcl:"plan_path,optional"` // plan JSON path (file)
}

func (p *PlannerConfig) Defaults() {
	if p.Type == "" {
		p.Type = "llm"
	}
}

func (p *PlannerConfig) Validate(models []Model) error {
	switch p.Type {
	case "llm":
		if p.Model == "" {
			return fmt.Errorf("llm planner requires a model")
		}
		if findModel(models, p.Model) == nil {
			return fmt.Errorf("unknown model '%s'", p.Model)
		}
	case "file":
		if p.PlanPath == "" {
			return fmt.Errorf("file planner requires plan_path")
		}
	default:
		return fmt.Errorf("unknown planner type '%s' (expected 'llm' or 'file')", p.Type)
	}
	return nil
}

// ExecutorConfig selects how tasks are executed.
type ExecutorConfig struct {
	Type          string `hcl:"type,optional"`      // "agent" or "plugin"
	Model         string `hcl:"model,optional"`     // model block name (agent)
	Workspace     string `hcl:"workspace,optional"` // project workspace root
	MaxIterations int    `hcl:"max_iterations,optional"`
	PluginPath    string `hcl:"plugin_path,optional"` // plugin binary (plugin)
}

func (e *ExecutorConfig) Defaults() {
	if e.Type == "" {
		e.Type = "agent"
	}
	if e.Workspace == "" {
		e.Workspace = "generated_project"
	}
}

func (e *ExecutorConfig) Validate(models []Model) error {
	switch e.Type {
	case "agent":
		if e.Model == "" {
			return fmt.Errorf("agent executor requires a model")
		}
		if findModel(models, e.Model) == nil {
			return fmt.Errorf("unknown model '%s'", e.Model)
		}
	case "plugin":
		if e.PluginPath == "" {
			return fmt.Errorf("plugin executor requires plugin_path")
		}
	default:
		return fmt.Errorf("unknown executor type '%s' (expected 'agent' or 'plugin')", e.Type)
	}
	if e.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative")
	}
	return nil
}

// GateConfig controls the between-task operator gate.
type GateConfig struct {
	TimeoutSeconds int    `hcl:"timeout_seconds,optional"`
	CancelToken    string `hcl:"cancel_token,optional"`
	Disabled       bool   `hcl:"disabled,optional"`
}

func (g *GateConfig) Defaults() {
	if g.TimeoutSeconds == 0 {
		g.TimeoutSeconds = 30
	}
	if g.CancelToken == "" {
		g.CancelToken = "cancel"
	}
}

// StorageConfig defines the storage backend for run history
type StorageConfig struct {
	Backend string `hcl:"backend,optional"` // "memory", "sqlite", or "postgres"
	Path    string `hcl:"path,optional"`    // SQLite file path
	DSN     string `hcl:"dsn,optional"`     // postgres connection string
}

func (s *StorageConfig) Defaults() {
	if s.Backend == "" {
		s.Backend = "memory"
	}
	if s.Path == "" {
		s.Path = ".overwatch/store.db"
	}
}

func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case "memory", "sqlite":
	case "postgres":
		if s.DSN == "" {
			return fmt.Errorf("postgres backend requires dsn")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s (expected 'memory', 'sqlite', or 'postgres')", s.Backend)
	}
	return nil
}

// ObserverConfig controls the websocket observer bridge.
type ObserverConfig struct {
	Enabled        bool   `hcl:"enabled,optional"`
	ListenAddr     string `hcl:"listen_addr,optional"`
	PollIntervalMS int    `hcl:"poll_interval_ms,optional"`
}

func (o *ObserverConfig) Defaults() {
	if o.ListenAddr == "" {
		o.ListenAddr = ":8377"
	}
	if o.PollIntervalMS == 0 {
		o.PollIntervalMS = 500
	}
}

func findModel(models []Model, name string) *Model {
	for i := range models {
		if models[i].Name == name {
			return &models[i]
		}
	}
	return nil
}
