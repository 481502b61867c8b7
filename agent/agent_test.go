package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/taskmesh/history"
	"github.com/hupe1980/taskmesh/process"
	"github.com/hupe1980/taskmesh/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore rejects every write.
type failingStore struct{}

func (failingStore) Record(context.Context, history.Entry) error {
	return errors.New("store down")
}

func (failingStore) Retrieve(context.Context, int) ([]history.Entry, error) {
	return nil, errors.New("store down")
}

func demoProcess(t *testing.T) *process.Process {
	t.Helper()

	hello, err := task.NewStatic("Hello")
	require.NoError(t, err)
	world, err := task.NewStatic("world")
	require.NoError(t, err)

	return process.New("demo", func(o *process.Options) {
		o.Tasks = []process.Task{hello, world}
	})
}

func TestExecuteProcess_ReturnsResultsUnchanged(t *testing.T) {
	a := New("agent-1")

	results := a.ExecuteProcess(context.Background(), demoProcess(t))

	require.Len(t, results, 2)
	assert.Equal(t, "Hello", results[0].Value)
	assert.Equal(t, "world", results[1].Value)
}

func TestExecuteProcess_RecordsRunToHistory(t *testing.T) {
	store := history.NewInMemoryStore()
	a := New("agent-1", func(o *Options) {
		o.History = store
	})

	a.ExecuteProcess(context.Background(), demoProcess(t))

	entries, err := store.Retrieve(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "demo", entries[0].Process)
	assert.Equal(t, "demo", entries[0].Payload["name"])

	hist, ok := entries[0].Payload["execution_history"].([]any)
	require.True(t, ok)
	assert.Len(t, hist, 2)
}

func TestExecuteProcess_HistoryFailureDoesNotAffectResults(t *testing.T) {
	a := New("agent-1", func(o *Options) {
		o.History = failingStore{}
	})

	results := a.ExecuteProcess(context.Background(), demoProcess(t))

	require.Len(t, results, 2)
	assert.Equal(t, "Hello", results[0].Value)
}
