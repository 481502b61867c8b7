package task

import (
	"context"
	"strings"
	"testing"

	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel returns queued responses in order, recording requests.
type scriptedModel struct {
	responses []model.Response
	requests  []model.Request
}

func (m *scriptedModel) Generate(_ context.Context, req model.Request) (model.Response, error) {
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return model.Response{Text: "", FinishReason: "stop"}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *scriptedModel) Info() model.Info { return model.Info{Name: "scripted", Provider: "mock"} }

func TestNewModelTask_RequiresModel(t *testing.T) {
	_, err := NewModelTask("no model", nil, nil)
	assert.Error(t, err)
}

func TestModelTask_SelectsAndRunsTool(t *testing.T) {
	up := upperTool(t)
	mdl := &scriptedModel{responses: []model.Response{
		{Text: `{"tool_name": "UPPER", "tool_input": "boom"}`, FinishReason: "stop"},
	}}

	tk, err := NewModelTask("convert boom to uppercase", mdl, nil, func(o *Options) {
		o.Tools = []*tool.Tool{up}
	})
	require.NoError(t, err)

	result, err := tk.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "BOOM", result)
	assert.Equal(t, int64(1), up.UsageCount())

	// The selection prompt exposes the tool catalog.
	require.Len(t, mdl.requests, 1)
	assert.True(t, mdl.requests[0].JSONResponse)
	assert.Contains(t, mdl.requests[0].Prompt, "UPPER: Converts text to uppercase")
}

func TestModelTask_FallsBackToDirectAnswer(t *testing.T) {
	mdl := &scriptedModel{responses: []model.Response{
		{Text: `{"tool_name": "", "tool_input": ""}`, FinishReason: "stop"},
		{Text: "direct answer", FinishReason: "stop"},
	}}

	tk, err := NewModelTask("combine the last two results", mdl, nil)
	require.NoError(t, err)

	result, err := tk.Execute(context.Background(), "prior context")
	require.NoError(t, err)
	assert.Equal(t, "direct answer", result)

	// The fallback call carries the upstream value as context.
	require.Len(t, mdl.requests, 2)
	assert.Contains(t, mdl.requests[1].Instructions, "prior context")
}

func TestModelTask_RejectsUnknownToolSelection(t *testing.T) {
	up := upperTool(t)
	mdl := &scriptedModel{responses: []model.Response{
		{Text: `{"tool_name": "MADE_UP", "tool_input": "x"}`, FinishReason: "stop"},
	}}

	tk, err := NewModelTask("hallucinated tool", mdl, nil, func(o *Options) {
		o.Tools = []*tool.Tool{up}
	})
	require.NoError(t, err)

	_, err = tk.Execute(context.Background(), nil)
	var nfErr *ToolNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "MADE_UP", nfErr.Tool)
	assert.Equal(t, int64(0), up.UsageCount())
}

func TestModelTask_InvalidSelectionJSON(t *testing.T) {
	mdl := &scriptedModel{responses: []model.Response{
		{Text: "not json", FinishReason: "stop"},
	}}

	tk, err := NewModelTask("bad json", mdl, nil)
	require.NoError(t, err)

	_, err = tk.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model response")
}

func TestModelTask_ToolLimitsApply(t *testing.T) {
	up := upperTool(t)
	mdl := &scriptedModel{responses: []model.Response{
		{Text: `{"tool_name": "UPPER", "tool_input": "a"}`, FinishReason: "stop"},
		{Text: `{"tool_name": "UPPER", "tool_input": "b"}`, FinishReason: "stop"},
	}}

	tk, err := NewModelTask("limited model task", mdl, nil, func(o *Options) {
		o.Tools = []*tool.Tool{up}
	})
	require.NoError(t, err)
	require.NoError(t, tk.SetToolLimit("UPPER", 1))

	_, err = tk.Execute(context.Background(), nil)
	require.NoError(t, err)

	_, err = tk.Execute(context.Background(), nil)
	var limitErr *ToolLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, int64(1), up.UsageCount())
}

func TestMockModel(t *testing.T) {
	mdl := model.NewMockModel("mock-1", "mock")
	mdl.AddResponse("hi", "hello there")

	resp, err := mdl.Generate(context.Background(), model.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Text)

	resp, err = mdl.Generate(context.Background(), model.Request{Prompt: "unknown"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Text, "Mock response to:"))
}
