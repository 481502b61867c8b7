package process

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/taskmesh/internal/util"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/tool"
)

// Task is the contract a unit of work must satisfy to be orchestrated by a
// Process. Both *task.Task and *task.ModelTask implement it.
type Task interface {
	ID() string
	Description() string
	Critical() bool
	Execute(ctx context.Context, input any) (any, error)
}

// Result is the tagged outcome of one attempted task. Exactly one of Value
// and Err is meaningful; the position in the returned slice matches the
// task's position in the process task list.
type Result struct {
	TaskID      string `json:"task_id"`
	Description string `json:"description"`
	Value       any    `json:"value,omitempty"`
	Err         error  `json:"-"`
}

// Failed reports whether the task settled with an error.
func (r Result) Failed() bool { return r.Err != nil }

// Failure is one captured task-level error in a process run.
type Failure struct {
	Process     string    `json:"process"`
	TaskID      string    `json:"task_id"`
	Description string    `json:"description"`
	Err         error     `json:"-"`
	Time        time.Time `json:"time"`
}

// String renders the failure for logs and snapshots.
func (f Failure) String() string {
	return fmt.Sprintf("failure in process %s: task %q: %v", f.Process, f.Description, f.Err)
}

// Options configures optional Process behavior.
type Options struct {
	// Parallel switches the run mode from sequential to fire-and-collect.
	Parallel bool
	// Tasks is the initial ordered task list; duplicates are allowed.
	Tasks []Task
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Process holds an ordered task list and an execution mode, and accumulates
// an execution history plus a failure log across runs until cleared.
//
// Run invocations on one Process serialize on an internal mutex; overlapping
// runs queue rather than interleave.
type Process struct {
	name     string
	parallel bool
	logger   logging.Logger

	runMu sync.Mutex // serializes Run

	mu       sync.Mutex // guards tasks, history and failures
	tasks    []Task
	history  []string
	failures []Failure
}

// New constructs a Process with an optional initial task list and mode.
func New(name string, optFns ...func(o *Options)) *Process {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Process{
		name:     name,
		parallel: opts.Parallel,
		logger:   opts.Logger,
		tasks:    append([]Task(nil), opts.Tasks...),
	}
}

// Name returns the process label.
func (p *Process) Name() string { return p.name }

// Parallel reports the execution mode.
func (p *Process) Parallel() bool { return p.parallel }

// AddTask appends the same task reference repetitions times, preserving
// order. Repetitions below one append once.
func (p *Process) AddTask(t Task, repetitions int) {
	if repetitions < 1 {
		repetitions = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < repetitions; i++ {
		p.tasks = append(p.tasks, t)
	}
}

// TaskCount returns the current number of task entries.
func (p *Process) TaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// ClearTasks resets the task list, the execution history and the failure
// log, allowing the Process instance to be reused for a fresh configuration.
func (p *Process) ClearTasks() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = nil
	p.history = nil
	p.failures = nil
}

// ExecutionHistory returns a copy of the attempted-task log.
func (p *Process) ExecutionHistory() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.history...)
}

// Failures returns a copy of the captured failure records.
func (p *Process) Failures() []Failure {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Failure(nil), p.failures...)
}

// Run executes the task list in the configured mode and returns one Result
// per attempted task, in task-list order. Task-level errors never escape:
// they are captured into the failure log and tagged onto the corresponding
// Result. In sequential mode a failing critical task halts the run; tasks
// after the halt point are never attempted and leave no history entry.
func (p *Process) Run(ctx context.Context) []Result {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	p.mu.Lock()
	tasks := append([]Task(nil), p.tasks...)
	p.mu.Unlock()

	runID := util.NewID()
	mode := "sequential"
	if p.parallel {
		mode = "parallel"
	}

	p.logger.Info("process.run.start", "process", p.name, "run_id", runID, "mode", mode, "task_count", len(tasks))
	start := time.Now()

	var results []Result
	if p.parallel {
		results = p.runParallel(ctx, tasks)
	} else {
		results = p.runSequential(ctx, tasks)
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}

	p.logger.Info("process.run.finish", "process", p.name, "run_id", runID, "duration_ms", time.Since(start).Milliseconds(), "results", len(results), "failed", failed)

	return results
}

// runSequential executes tasks strictly one at a time in list order,
// threading each success value into the next task's input. A non-critical
// failure is recorded and the chain continues with nil input; a critical
// failure halts after its own Result is appended.
func (p *Process) runSequential(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, 0, len(tasks))

	var input any
	for _, tk := range tasks {
		res := p.executeTask(ctx, tk, input)
		results = append(results, res)

		if res.Failed() {
			if tk.Critical() {
				p.logger.Error("process.run.halt", "process", p.name, "task", tk.Description(), "error", res.Err.Error())
				break
			}
			// No usable upstream value for the next task.
			input = nil
			continue
		}

		input = res.Value
	}

	return results
}

// runParallel launches every task concurrently and waits for all of them.
// Failures stay isolated per task; the results slice is indexed by the
// task's list position, not completion order.
func (p *Process) runParallel(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))

	var wg sync.WaitGroup
	for i, tk := range tasks {
		wg.Add(1)
		go func(i int, tk Task) {
			defer wg.Done()
			results[i] = p.executeTask(ctx, tk, nil)
		}(i, tk)
	}
	wg.Wait()

	return results
}

// executeTask attempts one task, appends its history entry regardless of
// outcome and records any failure. This is the single error boundary of the
// orchestration core.
func (p *Process) executeTask(ctx context.Context, tk Task, input any) Result {
	value, err := tk.Execute(ctx, input)

	res := Result{TaskID: tk.ID(), Description: tk.Description(), Value: value, Err: err}

	p.mu.Lock()
	p.history = append(p.history, tk.Description())
	if err != nil {
		p.failures = append(p.failures, Failure{
			Process:     p.name,
			TaskID:      tk.ID(),
			Description: tk.Description(),
			Err:         err,
			Time:        time.Now(),
		})
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("process.task.failed", "process", p.name, "task", tk.Description(), "error", err.Error())
	}

	return res
}

// ToolSnapshot describes one tool of a task in a run snapshot.
type ToolSnapshot struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaskSnapshot describes one task entry in a run snapshot.
type TaskSnapshot struct {
	TaskID      string         `json:"task_id"`
	Description string         `json:"description"`
	Critical    bool           `json:"critical"`
	Tools       []ToolSnapshot `json:"tools,omitempty"`
}

// Snapshot is a JSON-serializable view of the process configuration plus the
// accumulated history and failures, suitable for history stores.
type Snapshot struct {
	Name             string         `json:"name"`
	Parallel         bool           `json:"parallel"`
	Tasks            []TaskSnapshot `json:"tasks"`
	Timestamp        time.Time      `json:"timestamp"`
	ExecutionHistory []string       `json:"execution_history"`
	Failures         []string       `json:"failures"`
}

// Snapshot captures the current process state. Tool details are included for
// tasks that expose their pipeline.
func (p *Process) Snapshot() Snapshot {
	p.mu.Lock()
	tasks := append([]Task(nil), p.tasks...)
	history := append([]string(nil), p.history...)
	failures := append([]Failure(nil), p.failures...)
	p.mu.Unlock()

	snap := Snapshot{
		Name:      p.name,
		Parallel:  p.parallel,
		Timestamp: time.Now(),
	}

	for _, tk := range tasks {
		ts := TaskSnapshot{TaskID: tk.ID(), Description: tk.Description(), Critical: tk.Critical()}
		if tp, ok := tk.(interface{ Tools() []*tool.Tool }); ok {
			for _, tl := range tp.Tools() {
				ts.Tools = append(ts.Tools, ToolSnapshot{Name: tl.Name(), Description: tl.Description()})
			}
		}
		snap.Tasks = append(snap.Tasks, ts)
	}

	snap.ExecutionHistory = history
	for _, f := range failures {
		snap.Failures = append(snap.Failures, f.String())
	}

	return snap
}
