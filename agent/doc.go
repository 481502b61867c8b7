// Package agent provides the thin façade that executes processes and records
// their run snapshots to a history store. The agent adds no retry, tool
// selection or control flow of its own; it returns whatever the process
// produced, unchanged. Higher-level policy (model-driven tool selection)
// lives in task.ModelTask as an injected strategy.
package agent
