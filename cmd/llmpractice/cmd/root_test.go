package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/graph"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGraphCommand(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	out, err := run(t, "graph", "--name", "react")
	require.NoError(t, err)
	assert.Contains(t, out, "flowchart TD")
	assert.Contains(t, out, "    __start__ --> agent\n")
	assert.Contains(t, out, "    tools --> agent\n")

	out, err = run(t, "graph", "--name", "conversational")
	require.NoError(t, err)
	assert.Contains(t, out, "    condense --> retrieve\n")
	assert.Contains(t, out, "    generate --> __end__\n")

	_, err = run(t, "graph", "--name", "planner")
	assert.EqualError(t, err, `unknown graph "planner"`)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent", "config.json")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Equal(t, "Created default configuration file at "+path+"\n", out)

	out, err = run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Equal(t, "Configuration file already exists at "+path+"\n", out)

	f, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultModel, f.Model)
}

func TestConfigShowMasksSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-abcdefgh1234")
	t.Setenv("GITLAB_TOKEN", "glpat")

	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"APIKey": "****1234"`)
	assert.Contains(t, out, `"Token": "****lpat"`)
	assert.NotContains(t, out, "sk-abcdefgh1234")
}

func TestRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := run(t, "flower")
	assert.ErrorIs(t, err, errNoAPIKey)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "***", mask("abc"))
	assert.Equal(t, "****7890", mask("1234567890"))
}

func TestPrintMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := graph.NewMetricsListener(reg)
	require.NoError(t, err)

	ctx := context.Background()
	m.OnNodeEnd(ctx, "agent", nil, 20*time.Millisecond, nil)
	m.OnNodeEnd(ctx, "agent", nil, 10*time.Millisecond, errors.New("boom"))
	m.OnStep(ctx, 1, []string{"agent"}, nil)

	var buf bytes.Buffer
	printMetrics(&buf, reg)
	out := buf.String()
	assert.Contains(t, out, `llmpractice_graph_node_executions_total{node="agent",status="error"} 1`)
	assert.Contains(t, out, `llmpractice_graph_node_executions_total{node="agent",status="success"} 1`)
	assert.Contains(t, out, `llmpractice_graph_node_duration_seconds{node="agent"} count=2 sum=0.030s`)
	assert.Contains(t, out, "llmpractice_graph_steps_total{} 1")
}
