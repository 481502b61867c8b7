package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/taskmesh/task"
	"github.com/hupe1980/taskmesh/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoYAML = `
processes:
  - name: text-pipeline
    parallel: false
    tasks:
      - id: id_1
        description: hello
        tools: [UPPER]
        tool_limits:
          UPPER: 2
        repetitions: 3
      - description: world
        run: echo
        critical: true
  - name: fanout
    parallel: true
    tasks:
      - description: left
      - description: right
`

func newBuilder(t *testing.T) *Builder {
	t.Helper()

	b := NewBuilder()

	up, err := tool.New("UPPER", func(_ context.Context, input any) (any, error) {
		return strings.ToUpper(input.(string)), nil
	})
	require.NoError(t, err)
	require.NoError(t, b.RegisterTool(up))

	require.NoError(t, b.RegisterRunFunc("echo", func(_ context.Context, input any) (any, error) {
		return input, nil
	}))

	return b
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(demoYAML))
	require.NoError(t, err)
	require.Len(t, cfg.Processes, 2)

	pc, ok := cfg.Process("text-pipeline")
	require.True(t, ok)
	assert.False(t, pc.Parallel)
	require.Len(t, pc.Tasks, 2)
	assert.Equal(t, 3, pc.Tasks[0].Repetitions)
	assert.Equal(t, map[string]int{"UPPER": 2}, pc.Tasks[0].ToolLimits)
	assert.True(t, pc.Tasks[1].Critical)

	_, ok = cfg.Process("missing")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Processes, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing process name", "processes:\n  - parallel: true\n"},
		{"missing task description", "processes:\n  - name: p\n    tasks:\n      - critical: true\n"},
		{"negative repetitions", "processes:\n  - name: p\n    tasks:\n      - description: t\n        repetitions: -1\n"},
		{"negative tool limit", "processes:\n  - name: p\n    tasks:\n      - description: t\n        tool_limits:\n          UPPER: -2\n"},
		{"duplicate process name", "processes:\n  - name: p\n  - name: p\n"},
		{"invalid yaml", "processes: [\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	cfg, err := Parse([]byte(demoYAML))
	require.NoError(t, err)

	b := newBuilder(t)

	pc, _ := cfg.Process("text-pipeline")
	p, err := b.Build(pc)
	require.NoError(t, err)

	// 3 repetitions of the first task plus the second.
	assert.Equal(t, 4, p.TaskCount())

	results := p.Run(context.Background())
	require.Len(t, results, 4)

	// Two successful tool calls, then the configured limit trips on the
	// third repetition. The limit failure is non-critical, so the final
	// echo task still runs.
	assert.Equal(t, "HELLO", results[0].Value)
	assert.Equal(t, "HELLO", results[1].Value)
	assert.True(t, results[2].Failed())
	assert.False(t, results[3].Failed())
}

func TestBuild_UnknownReferences(t *testing.T) {
	b := newBuilder(t)

	_, err := b.Build(ProcessConfig{
		Name:  "p",
		Tasks: []TaskConfig{{Description: "t", Tools: []string{"MISSING"}}},
	})
	assert.ErrorContains(t, err, "unregistered tool")

	_, err = b.Build(ProcessConfig{
		Name:  "p",
		Tasks: []TaskConfig{{Description: "t", Run: "missing"}},
	})
	assert.ErrorContains(t, err, "unregistered run function")

	_, err = b.Build(ProcessConfig{
		Name:  "p",
		Tasks: []TaskConfig{{Description: "t", ToolLimits: map[string]int{"MISSING": 1}}},
	})
	var nfErr *task.ToolNotFoundError
	assert.ErrorAs(t, err, &nfErr)
}

func TestBuilder_RegistrationErrors(t *testing.T) {
	b := newBuilder(t)

	assert.Error(t, b.RegisterRunFunc("", func(_ context.Context, _ any) (any, error) { return nil, nil }))
	assert.Error(t, b.RegisterRunFunc("echo", func(_ context.Context, _ any) (any, error) { return nil, nil }))
	assert.Error(t, b.RegisterRunFunc("nilfn", nil))
	assert.Error(t, b.RegisterTool(nil))

	dup, err := tool.New("UPPER", func(_ context.Context, input any) (any, error) { return input, nil })
	require.NoError(t, err)
	assert.Error(t, b.RegisterTool(dup))
}
