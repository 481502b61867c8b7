package taskmesh

import (
	"context"
	"testing"

	"github.com/hupe1980/taskmesh/history"
	"github.com/hupe1980/taskmesh/process"
	"github.com/hupe1980/taskmesh/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_RegisteredProcess(t *testing.T) {
	store := history.NewInMemoryStore()
	m := New(func(o *Options) {
		o.AgentName = "demo-agent"
		o.History = store
	})

	hello, err := task.NewStatic("Hello")
	require.NoError(t, err)
	world, err := task.NewStatic("world")
	require.NoError(t, err)

	p := process.New("greeting", func(o *process.Options) {
		o.Tasks = []process.Task{hello, world}
	})
	m.RegisterProcess(p)

	results, err := m.Execute(context.Background(), "greeting")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Hello", results[0].Value)
	assert.Equal(t, "world", results[1].Value)

	entries, err := store.Retrieve(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "greeting", entries[0].Process)
}

func TestExecute_UnknownProcess(t *testing.T) {
	m := New()

	_, err := m.Execute(context.Background(), "missing")
	assert.ErrorContains(t, err, "not registered")
}

func TestRegisterProcess_ReplacesByName(t *testing.T) {
	m := New()

	first := process.New("p")
	second := process.New("p")

	m.RegisterProcess(first)
	m.RegisterProcess(second)

	got, ok := m.Process("p")
	require.True(t, ok)
	assert.Same(t, second, got)
}
