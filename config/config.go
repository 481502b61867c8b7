// Package config loads declarative process definitions from YAML and builds
// runnable processes from them. Run functions and tools are code, not
// config: the Builder binds task definitions to implementations registered
// under stable names, and any reference to an unregistered name fails at
// build time rather than mid-run.
package config

import (
	"fmt"
	"os"

	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/process"
	"github.com/hupe1980/taskmesh/task"
	"github.com/hupe1980/taskmesh/tool"
	"gopkg.in/yaml.v3"
)

// Config is the root of a taskmesh YAML file.
type Config struct {
	Processes []ProcessConfig `yaml:"processes"`
}

// ProcessConfig declares one process: its name, mode and ordered tasks.
type ProcessConfig struct {
	Name     string       `yaml:"name"`
	Parallel bool         `yaml:"parallel"`
	Tasks    []TaskConfig `yaml:"tasks"`
}

// TaskConfig declares one task entry. Run names a registered run function;
// when empty the task returns its description (the static variant). Tools
// lists the pipeline in order by registered tool name.
type TaskConfig struct {
	ID          string         `yaml:"id"`
	Description string         `yaml:"description"`
	Run         string         `yaml:"run"`
	Tools       []string       `yaml:"tools"`
	ToolLimits  map[string]int `yaml:"tool_limits"`
	Critical    bool           `yaml:"critical"`
	Repetitions int            `yaml:"repetitions"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Processes))
	for i, pc := range c.Processes {
		if pc.Name == "" {
			return fmt.Errorf("process %d: name is required", i)
		}
		if _, dup := seen[pc.Name]; dup {
			return fmt.Errorf("duplicate process name %q", pc.Name)
		}
		seen[pc.Name] = struct{}{}

		for j, tc := range pc.Tasks {
			if tc.Description == "" {
				return fmt.Errorf("process %q: task %d: description is required", pc.Name, j)
			}
			if tc.Repetitions < 0 {
				return fmt.Errorf("process %q: task %q: negative repetitions", pc.Name, tc.Description)
			}
			for name, limit := range tc.ToolLimits {
				if limit < 0 {
					return fmt.Errorf("process %q: task %q: negative limit for tool %q", pc.Name, tc.Description, name)
				}
			}
		}
	}
	return nil
}

// Process returns the named process config.
func (c *Config) Process(name string) (ProcessConfig, bool) {
	for _, pc := range c.Processes {
		if pc.Name == name {
			return pc, true
		}
	}
	return ProcessConfig{}, false
}

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// Logger is handed to every built task and process.
	Logger logging.Logger
}

// Builder binds config task definitions to registered run functions and
// tools, producing runnable processes.
type Builder struct {
	runFuncs map[string]task.RunFunc
	tools    map[string]*tool.Tool
	logger   logging.Logger
}

// NewBuilder constructs an empty Builder.
func NewBuilder(optFns ...func(o *BuilderOptions)) *Builder {
	opts := BuilderOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Builder{
		runFuncs: make(map[string]task.RunFunc),
		tools:    make(map[string]*tool.Tool),
		logger:   opts.Logger,
	}
}

// RegisterRunFunc makes a run function available to task definitions under
// the given name.
func (b *Builder) RegisterRunFunc(name string, fn task.RunFunc) error {
	if name == "" {
		return fmt.Errorf("run function name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("run function %q must not be nil", name)
	}
	if _, exists := b.runFuncs[name]; exists {
		return fmt.Errorf("run function %q already registered", name)
	}
	b.runFuncs[name] = fn
	return nil
}

// RegisterTool makes a tool available to task definitions under its name.
func (b *Builder) RegisterTool(t *tool.Tool) error {
	if t == nil {
		return fmt.Errorf("tool must not be nil")
	}
	if _, exists := b.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	b.tools[t.Name()] = t
	return nil
}

// Build constructs a runnable process from a process config. Every tool and
// run function reference is resolved here; an unknown name fails the build.
func (b *Builder) Build(pc ProcessConfig) (*process.Process, error) {
	p := process.New(pc.Name, func(o *process.Options) {
		o.Parallel = pc.Parallel
		o.Logger = b.logger
	})

	for _, tc := range pc.Tasks {
		t, err := b.buildTask(pc.Name, tc)
		if err != nil {
			return nil, err
		}

		repetitions := tc.Repetitions
		if repetitions < 1 {
			repetitions = 1
		}
		p.AddTask(t, repetitions)
	}

	return p, nil
}

func (b *Builder) buildTask(processName string, tc TaskConfig) (*task.Task, error) {
	tools := make([]*tool.Tool, 0, len(tc.Tools))
	for _, name := range tc.Tools {
		t, ok := b.tools[name]
		if !ok {
			return nil, fmt.Errorf("process %q: task %q: unregistered tool %q", processName, tc.Description, name)
		}
		tools = append(tools, t)
	}

	taskOpts := func(o *task.Options) {
		o.ID = tc.ID
		o.Tools = tools
		o.Critical = tc.Critical
		o.Logger = b.logger
	}

	var (
		t   *task.Task
		err error
	)
	if tc.Run == "" {
		t, err = task.NewStatic(tc.Description, taskOpts)
	} else {
		fn, ok := b.runFuncs[tc.Run]
		if !ok {
			return nil, fmt.Errorf("process %q: task %q: unregistered run function %q", processName, tc.Description, tc.Run)
		}
		t, err = task.New(tc.Description, fn, taskOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("process %q: %w", processName, err)
	}

	for name, limit := range tc.ToolLimits {
		if err := t.SetToolLimit(name, limit); err != nil {
			return nil, fmt.Errorf("process %q: %w", processName, err)
		}
	}

	return t, nil
}
