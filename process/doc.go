// Package process implements the orchestrator that runs an ordered list of
// tasks either sequentially or in parallel.
//
// Sequential runs form a strict total order: a task never starts before its
// predecessor has settled, and the predecessor's successful result becomes
// its input. A failing critical task halts the run after its own failure is
// recorded. Parallel runs launch every task concurrently, isolate individual
// failures, and return results in task-list order regardless of settle order.
//
// The process is the sole error boundary of the core: every task-level
// failure is caught, logged to the failure log and surfaced as a tagged
// Result at the task's position. No error ever escapes Run.
package process
