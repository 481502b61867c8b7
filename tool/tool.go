// Package tool implements the named, usage-tracked operation wrappers that
// tasks chain into pipelines. A Tool owns a shared usage counter and an
// optional token-bucket rate limiter; usage limits are enforced by the task
// that invokes the tool, not by the tool itself.
package tool

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Operation is the unit of work wrapped by a Tool. It receives the upstream
// value (the task's base result or the previous tool's output) and produces
// the value handed to the next tool in the pipeline.
type Operation func(ctx context.Context, input any) (any, error)

// Options configures optional Tool behavior.
type Options struct {
	// Description is a human-readable summary exposed to models when a task
	// asks a model to select a tool.
	Description string
	// RateLimit caps the sustained invocation rate. Zero means no rate
	// limiting. Run blocks on the bucket, honoring context cancellation.
	RateLimit rate.Limit
	// RateBurst is the bucket size used together with RateLimit.
	RateBurst int
}

// Tool wraps one operation behind a stable name. The usage counter is shared
// by reference: every task that lists this tool observes and advances the
// same count. Tool performs no limit enforcement of its own; see
// task.Task.UseTool for the check-then-increment policy.
type Tool struct {
	name        string
	description string
	op          Operation
	uses        atomic.Int64
	limiter     *rate.Limiter
}

// New constructs a Tool. The name must be non-empty; it is the identifier
// tasks use for lookup and limit configuration.
func New(name string, op Operation, optFns ...func(o *Options)) (*Tool, error) {
	if name == "" {
		return nil, errors.New("tool name must not be empty")
	}
	if op == nil {
		return nil, errors.New("tool operation must not be nil")
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	t := &Tool{
		name:        name,
		description: opts.Description,
		op:          op,
	}

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}

	return t, nil
}

// Name returns the unique tool name used for lookup within a task.
func (t *Tool) Name() string { return t.name }

// Description returns the human-readable description of the tool.
func (t *Tool) Description() string { return t.description }

// Run invokes the wrapped operation with the given input. On success the
// usage counter advances by exactly one; a failing operation leaves the
// counter untouched and its error propagates unchanged. If a rate limit is
// configured, Run first waits for the bucket, returning early if ctx is
// cancelled while waiting.
func (t *Tool) Run(ctx context.Context, input any) (any, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	result, err := t.op(ctx, input)
	if err != nil {
		return nil, err
	}

	t.uses.Add(1)

	return result, nil
}

// UsageCount returns the number of successful invocations since creation or
// the last reset. The counter is shared across all tasks referencing this tool.
func (t *Tool) UsageCount() int64 { return t.uses.Load() }

// ResetUsage sets the usage counter back to zero. Usage persists across
// process runs unless reset explicitly.
func (t *Tool) ResetUsage() { t.uses.Store(0) }
