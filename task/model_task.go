package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/taskmesh/model"
)

const selectionInstructions = `You are a helpful assistant that determines the best tool to use for a given input string.
Only select a tool from the available tools. If no suitable tool is available, leave tool_name empty.
Respond with a JSON object containing:
 "tool_name": the name of the selected tool, or an empty string
 "tool_input": the input string that should be passed to the tool`

// toolSelection is the JSON shape the model is asked to return.
type toolSelection struct {
	ToolName  string `json:"tool_name"`
	ToolInput string `json:"tool_input"`
}

// ModelTask is a Task whose execution is steered by a language model: the
// model picks one tool from the task's pipeline (by name, guided by the tool
// descriptions) and supplies its input. When the model selects no tool the
// task falls back to direct generation using the upstream input as context.
//
// Tool limits and usage accounting apply exactly as for a plain Task since
// the selected tool is invoked through UseTool.
type ModelTask struct {
	*Task
	mdl model.Model
}

// NewModelTask constructs a ModelTask. Unlike Task, the base run function is
// optional: when provided it executes before the tool selection and its
// result is superseded by the selected tool's output.
func NewModelTask(description string, mdl model.Model, run RunFunc, optFns ...func(o *Options)) (*ModelTask, error) {
	if mdl == nil {
		return nil, fmt.Errorf("model task %q: model must not be nil", description)
	}

	if run == nil {
		run = func(_ context.Context, input any) (any, error) { return input, nil }
	}

	base, err := newTask(description, run, optFns...)
	if err != nil {
		return nil, err
	}

	return &ModelTask{Task: base, mdl: mdl}, nil
}

// Execute asks the model to select a tool for the task description, runs the
// optional base operation, then either invokes the selected tool or falls
// back to a direct model answer. Errors propagate uncaught, as for Task.
func (t *ModelTask) Execute(ctx context.Context, input any) (any, error) {
	t.logger.Debug("task.execute.start", "task_id", t.id, "task", t.description, "model", t.mdl.Info().Name)
	start := time.Now()

	selection, err := t.selectTool(ctx, input)
	if err != nil {
		return nil, err
	}

	result, err := t.run(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("task %q base operation: %w", t.description, err)
	}

	if selection.ToolName != "" {
		result, err = t.UseTool(ctx, selection.ToolName, selection.ToolInput)
		if err != nil {
			return nil, err
		}
	} else {
		// No tool applies; answer directly with the upstream value as context.
		resp, err := t.mdl.Generate(ctx, model.Request{
			Instructions: fmt.Sprintf("[task context]\n%v\n[end task context]\n\nUse the available context when applicable to generate your response.", input),
			Prompt:       t.description,
		})
		if err != nil {
			return nil, fmt.Errorf("task %q model call: %w", t.description, err)
		}
		result = resp.Text
	}

	t.logger.Info("task.execute.finish", "task_id", t.id, "task", t.description, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

// selectTool asks the model for a tool choice and validates it against the
// task's capability map.
func (t *ModelTask) selectTool(ctx context.Context, input any) (toolSelection, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "What is the best tool to use given this input?\n\nInput: %q\n\n[available tools]\n", t.description)
	for _, tl := range t.tools {
		fmt.Fprintf(&sb, "- %s: %s\n", tl.Name(), tl.Description())
	}
	fmt.Fprintf(&sb, "\n[original input]\n%v\n", input)

	resp, err := t.mdl.Generate(ctx, model.Request{
		Instructions: selectionInstructions,
		Prompt:       sb.String(),
		JSONResponse: true,
	})
	if err != nil {
		return toolSelection{}, fmt.Errorf("task %q tool selection: %w", t.description, err)
	}

	var selection toolSelection
	if err := json.Unmarshal([]byte(resp.Text), &selection); err != nil {
		return toolSelection{}, fmt.Errorf("task %q tool selection: invalid model response: %w", t.description, err)
	}

	if selection.ToolName != "" {
		if _, ok := t.byName[selection.ToolName]; !ok {
			return toolSelection{}, &ToolNotFoundError{Tool: selection.ToolName, Task: t.description}
		}
	}

	return selection, nil
}
