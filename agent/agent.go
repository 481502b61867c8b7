package agent

import (
	"context"
	"encoding/json"

	"github.com/hupe1980/taskmesh/history"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/process"
)

// Process is the contract the agent needs from an orchestrator.
// *process.Process satisfies it.
type Process interface {
	Name() string
	Run(ctx context.Context) []process.Result
	Snapshot() process.Snapshot
}

// Options configures the agent's collaborators.
type Options struct {
	// History receives one entry per executed process. Defaults to an
	// in-memory store.
	History history.Store
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Agent delegates execution to a process and records the run to history.
type Agent struct {
	name    string
	history history.Store
	logger  logging.Logger
}

// New constructs an Agent with optional overrides.
func New(name string, optFns ...func(o *Options)) *Agent {
	opts := Options{
		History: history.NewInMemoryStore(),
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.History == nil {
		opts.History = history.NewInMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Agent{name: name, history: opts.History, logger: opts.Logger}
}

// Name returns the agent label.
func (a *Agent) Name() string { return a.name }

// History returns the agent's history store.
func (a *Agent) History() history.Store { return a.history }

// ExecuteProcess runs the process to completion and returns its results
// unchanged. The run snapshot is recorded to the history store afterwards;
// a store failure is logged and never alters the returned results, since
// history is a side log, not part of the control flow.
func (a *Agent) ExecuteProcess(ctx context.Context, p Process) []process.Result {
	results := p.Run(ctx)

	entry := history.Entry{
		Process: p.Name(),
		Payload: snapshotPayload(p.Snapshot()),
	}
	if err := a.history.Record(ctx, entry); err != nil {
		a.logger.Warn("agent.history.record_failed", "agent", a.name, "process", p.Name(), "error", err.Error())
	}

	return results
}

// snapshotPayload flattens a snapshot into the generic payload map carried
// by history entries.
func snapshotPayload(snap process.Snapshot) map[string]any {
	data, err := json.Marshal(snap)
	if err != nil {
		return map[string]any{"name": snap.Name}
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return map[string]any{"name": snap.Name}
	}

	return payload
}
