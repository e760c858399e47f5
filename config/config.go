// Package config loads the HCL configuration: model credentials, planner and
// executor selection, gate behavior, storage backend, and the observer
// bridge. Variables resolve from the user vars file before defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Config holds all configuration
type Config struct {
	Variables []Variable      `hcl:"variable,block"`
	Models    []Model         `hcl:"model,block"`
	Planner   *PlannerConfig  `hcl:"planner,block"`
	Executor  *ExecutorConfig `hcl:"executor,block"`
	Gate      *GateConfig     `hcl:"gate,block"`
	Storage   *StorageConfig  `hcl:"storage,block"`
	Observer  *ObserverConfig `hcl:"observer,block"`

	// ResolvedVars holds the resolved variable values for runtime use.
	// No hcl tag: gohcl ignores untagged fields (it has no json-style "-").
	ResolvedVars map[string]cty.Value
}

func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadAndValidate loads the config, fills defaults, and validates all
// components.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func LoadFile(filename string) (*Config, error) {
	return loadFromFiles([]string{filename})
}

func LoadDir(dir string) (*Config, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.hcl"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %s", dir)
	}
	return loadFromFiles(files)
}

// ApplyDefaults fills missing blocks and unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Planner == nil {
		c.Planner = &PlannerConfig{}
	}
	if c.Executor == nil {
		c.Executor = &ExecutorConfig{}
	}
	if c.Gate == nil {
		c.Gate = &GateConfig{}
	}
	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if c.Observer == nil {
		c.Observer = &ObserverConfig{}
	}
	c.Planner.Defaults()
	c.Executor.Defaults()
	c.Gate.Defaults()
	c.Storage.Defaults()
	c.Observer.Defaults()
}

// Validate checks that all config components are valid
func (c *Config) Validate() error {
	for _, v := range c.Variables {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("variable '%s': %w", v.Name, err)
		}
	}

	for _, m := range c.Models {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("model '%s': %w", m.Name, err)
		}
	}

	if c.Planner != nil {
		if err := c.Planner.Validate(c.Models); err != nil {
			return fmt.Errorf("planner: %w", err)
		}
	}
	if c.Executor != nil {
		if err := c.Executor.Validate(c.Models); err != nil {
			return fmt.Errorf("executor: %w", err)
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	return nil
}

// FindModel returns the named model block, or an error naming it.
func (c *Config) FindModel(name string) (*Model, error) {
	if m := findModel(c.Models, name); m != nil {
		return m, nil
	}
	return nil, fmt.Errorf("model '%s' not found", name)
}

// loadFromFiles implements staged loading: variables first, then everything
// else with the vars context.
func loadFromFiles(files []string) (*Config, error) {
	parser := hclparse.NewParser()

	type parsedFile struct {
		name string
		body hcl.Body
	}
	var parsed []parsedFile

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse %s: %w", file, diags)
		}
		parsed = append(parsed, parsedFile{name: file, body: hclFile.Body})
	}

	// Stage 1: extract variable blocks (no context needed)
	var allVars []Variable
	for _, pf := range parsed {
		content, _, diags := pf.body.PartialContent(&hcl.BodySchema{
			Blocks: []hcl.BlockHeaderSchema{
				{Type: "variable", LabelNames: []string{"name"}},
			},
		})
		if diags.HasErrors() {
			return nil, fmt.Errorf("partial content %s: %w", pf.name, diags)
		}
		for _, block := range content.Blocks {
			var v Variable
			v.Name = block.Labels[0]
			if diags := gohcl.DecodeBody(block.Body, nil, &v); diags.HasErrors() {
				return nil, fmt.Errorf("decode variable %s: %w", v.Name, diags)
			}
			allVars = append(allVars, v)
		}
	}

	varsCtx, resolvedVars := buildVarsContext(allVars)

	// Stage 2: decode each file fully with the vars context and merge
	merged := &Config{ResolvedVars: resolvedVars}
	for _, pf := range parsed {
		var fileCfg Config
		if diags := gohcl.DecodeBody(pf.body, varsCtx, &fileCfg); diags.HasErrors() {
			return nil, fmt.Errorf("decode %s: %w", pf.name, diags)
		}
		if err := merged.merge(&fileCfg, pf.name); err != nil {
			return nil, err
		}
	}

	return merged, nil
}

func (c *Config) merge(other *Config, source string) error {
	c.Variables = append(c.Variables, other.Variables...)
	c.Models = append(c.Models, other.Models...)

	if other.Planner != nil {
		if c.Planner != nil {
			return fmt.Errorf("%s: duplicate planner block", source)
		}
		c.Planner = other.Planner
	}
	if other.Executor != nil {
		if c.Executor != nil {
			return fmt.Errorf("%s: duplicate executor block", source)
		}
		c.Executor = other.Executor
	}
	if other.Gate != nil {
		if c.Gate != nil {
			return fmt.Errorf("%s: duplicate gate block", source)
		}
		c.Gate = other.Gate
	}
	if other.Storage != nil {
		if c.Storage != nil {
			return fmt.Errorf("%s: duplicate storage block", source)
		}
		c.Storage = other.Storage
	}
	if other.Observer != nil {
		if c.Observer != nil {
			return fmt.Errorf("%s: duplicate observer block", source)
		}
		c.Observer = other.Observer
	}
	return nil
}

// buildVarsContext resolves variables (vars file overrides defaults) and
// returns the HCL eval context exposing them as vars.<name>.
func buildVarsContext(vars []Variable) (*hcl.EvalContext, map[string]cty.Value) {
	varsMap := make(map[string]cty.Value)
	fileVars, _ := LoadVarsFromFile()
	for _, v := range vars {
		if val, ok := fileVars[v.Name]; ok {
			varsMap[v.Name] = cty.StringVal(val)
		} else if v.Default != "" {
			varsMap[v.Name] = cty.StringVal(v.Default)
		} else {
			varsMap[v.Name] = cty.StringVal("")
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"vars": cty.ObjectVal(varsMap),
		},
	}, varsMap
}
