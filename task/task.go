package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/taskmesh/internal/util"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/tool"
)

// RunFunc is the base operation of a task. It receives the upstream input
// (the previous task's result in a sequential process, nil otherwise) and
// produces the value threaded through the task's tool pipeline.
type RunFunc func(ctx context.Context, input any) (any, error)

// Options configures optional Task behavior.
type Options struct {
	// ID identifies the task; a random ID is generated when empty.
	ID string
	// Tools is the ordered pipeline applied to the base result. Names must
	// be unique within one task.
	Tools []*tool.Tool
	// Critical marks the task as fatal-on-failure for sequential runs.
	Critical bool
	// Logger receives start/finish entries; defaults to NoOpLogger.
	Logger logging.Logger
}

// Task combines a base operation with an ordered tool pipeline. The same
// Task instance may appear in multiple processes or repeatedly within one;
// tool limits stay scoped to the instance while the referenced tools' usage
// counters are shared.
type Task struct {
	id          string
	description string
	run         RunFunc
	tools       []*tool.Tool
	byName      map[string]*tool.Tool
	critical    bool
	logger      logging.Logger

	mu     sync.Mutex
	limits map[string]int
}

// New constructs a Task. The tool pipeline is validated eagerly: duplicate
// tool names within one task are rejected here, not at invocation time.
func New(description string, run RunFunc, optFns ...func(o *Options)) (*Task, error) {
	if run == nil {
		return nil, errors.New("task run function must not be nil")
	}
	return newTask(description, run, optFns...)
}

// NewStatic constructs a Task whose base operation simply returns the task
// description. Useful for demos and as a carrier for pure tool pipelines.
func NewStatic(description string, optFns ...func(o *Options)) (*Task, error) {
	return newTask(description, func(_ context.Context, _ any) (any, error) {
		return description, nil
	}, optFns...)
}

func newTask(description string, run RunFunc, optFns ...func(o *Options)) (*Task, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ID == "" {
		opts.ID = util.NewID()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	byName := make(map[string]*tool.Tool, len(opts.Tools))
	for _, tl := range opts.Tools {
		if tl == nil {
			return nil, fmt.Errorf("task %q: nil tool in pipeline", description)
		}
		if _, exists := byName[tl.Name()]; exists {
			return nil, fmt.Errorf("task %q: duplicate tool name %q", description, tl.Name())
		}
		byName[tl.Name()] = tl
	}

	return &Task{
		id:          opts.ID,
		description: description,
		run:         run,
		tools:       opts.Tools,
		byName:      byName,
		critical:    opts.Critical,
		logger:      opts.Logger,
		limits:      make(map[string]int),
	}, nil
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Description returns the human-readable task label.
func (t *Task) Description() string { return t.description }

// Critical reports whether a failure of this task halts a sequential run.
func (t *Task) Critical() bool { return t.critical }

// Tools returns a copy of the ordered tool pipeline.
func (t *Task) Tools() []*tool.Tool {
	result := make([]*tool.Tool, len(t.tools))
	copy(result, t.tools)
	return result
}

// SetToolLimit sets or overwrites the maximum permitted usage count for the
// named tool, scoped to this task instance only. Referencing a tool outside
// the task's pipeline fails immediately.
func (t *Task) SetToolLimit(toolName string, limit int) error {
	if _, ok := t.byName[toolName]; !ok {
		return &ToolNotFoundError{Tool: toolName, Task: t.description}
	}
	if limit < 0 {
		return fmt.Errorf("task %q: negative limit %d for tool %q", t.description, limit, toolName)
	}

	t.mu.Lock()
	t.limits[toolName] = limit
	t.mu.Unlock()

	return nil
}

// ToolLimit returns the configured cap for a tool name and whether one is set.
func (t *Task) ToolLimit(toolName string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	limit, ok := t.limits[toolName]
	return limit, ok
}

// UseTool invokes the named tool with the given input. The limit check runs
// before the invocation: a capped call fails with *ToolLimitError and leaves
// the tool's usage counter untouched. An unknown name fails with
// *ToolNotFoundError. On success the tool's result is returned unchanged.
func (t *Task) UseTool(ctx context.Context, toolName string, input any) (any, error) {
	tl, ok := t.byName[toolName]
	if !ok {
		return nil, &ToolNotFoundError{Tool: toolName, Task: t.description}
	}

	if limit, limited := t.ToolLimit(toolName); limited {
		if usage := tl.UsageCount(); usage >= int64(limit) {
			return nil, &ToolLimitError{Tool: toolName, Task: t.description, Limit: limit, Usage: usage}
		}
	}

	return tl.Run(ctx, input)
}

// Execute runs the base operation, then threads its result through each tool
// in pipeline order, each tool's output becoming the next tool's input. Any
// failure propagates out uncaught; Execute never records or classifies
// errors itself.
func (t *Task) Execute(ctx context.Context, input any) (any, error) {
	t.logger.Debug("task.execute.start", "task_id", t.id, "task", t.description)
	start := time.Now()

	result, err := t.run(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("task %q base operation: %w", t.description, err)
	}

	for _, tl := range t.tools {
		result, err = t.UseTool(ctx, tl.Name(), result)
		if err != nil {
			return nil, err
		}
	}

	t.logger.Info("task.execute.finish", "task_id", t.id, "task", t.description, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
