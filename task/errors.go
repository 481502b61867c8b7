package task

import "fmt"

// ToolNotFoundError indicates a referenced tool name is absent from the
// task's capability map.
type ToolNotFoundError struct {
	Tool string `json:"tool"` // Name that failed to resolve
	Task string `json:"task"` // Description of the referencing task
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("no tool found with name %q in task %q", e.Tool, e.Task)
}

// ToolLimitError indicates the task-scoped usage cap for a tool was reached
// before the call. The tool was not invoked and its counter did not advance.
type ToolLimitError struct {
	Tool  string `json:"tool"`  // Name of the capped tool
	Task  string `json:"task"`  // Description of the referencing task
	Limit int    `json:"limit"` // Configured cap
	Usage int64  `json:"usage"` // Counter value observed at check time
}

func (e *ToolLimitError) Error() string {
	return fmt.Sprintf("usage limit exceeded for tool %q in task %q: %d/%d", e.Tool, e.Task, e.Usage, e.Limit)
}
