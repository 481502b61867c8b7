// Package taskmesh provides a high-level façade over the process
// orchestrator and its service abstractions (history & logging) enabling
// rapid construction of small task-running agents. Most applications
// interact with this package by:
//  1. Creating a TaskMesh via New() (optionally overriding the default
//     in-memory history store)
//  2. Registering one or more processes (sequential or parallel)
//  3. Executing them by name via Execute
//
// The façade delegates orchestration to process.Process through agent.Agent
// while keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// history store (Redis, MongoDB) and a structured logger.
package taskmesh

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/history"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/process"
)

// Options configures the TaskMesh instance.
type Options struct {
	// AgentName labels the owning agent in logs and history entries.
	AgentName string

	// History receives one entry per executed process (defaults to an
	// in-memory store if not provided).
	History history.Store

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// TaskMesh is the high-level façade aggregating the agent and a named
// process registry.
type TaskMesh struct {
	agent *agent.Agent

	mu        sync.RWMutex
	processes map[string]*process.Process
}

// New creates a new TaskMesh instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *TaskMesh {
	opts := Options{
		AgentName: "taskmesh",
		History:   history.NewInMemoryStore(),
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := agent.New(opts.AgentName, func(o *agent.Options) {
		o.History = opts.History
		o.Logger = opts.Logger
	})

	return &TaskMesh{agent: a, processes: make(map[string]*process.Process)}
}

// RegisterProcess adds a process to the registry under its name, replacing
// any previous registration with the same name.
func (m *TaskMesh) RegisterProcess(p *process.Process) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processes[p.Name()] = p
}

// Process looks up a registered process by name.
func (m *TaskMesh) Process(name string) (*process.Process, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.processes[name]
	return p, ok
}

// Execute runs a registered process by name and returns its results.
func (m *TaskMesh) Execute(ctx context.Context, name string) ([]process.Result, error) {
	p, ok := m.Process(name)
	if !ok {
		return nil, fmt.Errorf("process %q not registered", name)
	}

	return m.agent.ExecuteProcess(ctx, p), nil
}

// Agent returns the underlying agent façade.
func (m *TaskMesh) Agent() *agent.Agent { return m.agent }
