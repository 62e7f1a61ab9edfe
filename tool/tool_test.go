package tool

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/levitang/llm-practice/config"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "Echoes the input" }
func (echoTool) Call(_ context.Context, in string) (string, error) {
	return in, nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(echoTool{}, FruitPrice{})
	reg.Register(echoTool{})
	assert.Equal(t, []string{"echo", "ask_fruit_unit_price"}, reg.Names())
	assert.Len(t, reg.Tools(), 2)

	out, err := reg.Call(context.Background(), "echo", `{"input": "hi"}`)
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, err = reg.Call(context.Background(), "missing", "")
	assert.True(t, errors.Is(err, ErrUnknownTool))
}

func TestArgument(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"plain", "  apple ", "apple"},
		{"object", `{"input": "apple"}`, "apple"},
		{"number", `{"input": 3}`, "3"},
		{"missing key", `{"other": "x"}`, `{"other": "x"}`},
		{"broken json", `{"input"`, `{"input"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Argument(tc.input, "input"))
		})
	}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions([]Tool{echoTool{}, ReadFile{}})
	require.Len(t, defs, 2)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "echo", defs[0].Function.Name)
	params := defs[0].Function.Parameters.(map[string]any)
	assert.Equal(t, []string{"input"}, params["required"])

	schema := defs[1].Function.Parameters.(map[string]any)
	assert.Contains(t, schema["properties"], "path")

	assert.Equal(t, "echo: Echoes the input\nread_file: "+ReadFile{}.Description(), Describe([]Tool{echoTool{}, ReadFile{}}))
	assert.Equal(t, "echo, read_file", Names([]Tool{echoTool{}, ReadFile{}}))
}

func TestCalculator(t *testing.T) {
	out, err := NewCalculator().Call(context.Background(), "`3*10 + 2*6`")
	require.NoError(t, err)
	assert.Contains(t, out, "42")
}

func TestFruitPrice(t *testing.T) {
	ctx := context.Background()
	for in, want := range map[string]string{
		"apple":   "Apple unit price is 10/kg",
		"Banana":  "Banana unit price is 6/kg",
		`"mango"`: "mango unit price is 20/kg",
	} {
		got, err := FruitPrice{}.Call(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReadAndListFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "a.go"), []byte("package pkg\n"), 0o644))
	ctx := context.Background()

	out, err := Invoke(ctx, ReadFile{Root: root}, `{"path": "main.go"}`)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", out)

	_, err = ReadFile{Root: root}.Call(ctx, `{}`)
	assert.Error(t, err)
	_, err = ReadFile{Root: root}.Call(ctx, `{"path": "nope.go"}`)
	assert.Error(t, err)

	out, err = ListFiles{Root: root}.Call(ctx, "")
	require.NoError(t, err)
	assert.JSONEq(t, `["main.go", "pkg/", "pkg/a.go"]`, out)

	out, err = ListFiles{Root: root}.Call(ctx, `{"path": "pkg"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `["a.go"]`, out)

	empty := t.TempDir()
	out, err = ListFiles{Root: empty}.Call(ctx, "{}")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestTavilySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "weather in sf", body["query"])
		assert.EqualValues(t, 2, body["max_results"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"title": "SF", "url": "https://weather.example/sf", "content": "Sunny, 20C", "score": 0.9}]}`))
	}))
	defer srv.Close()

	_, err := NewTavilySearch("")
	assert.Error(t, err)

	s, err := NewTavilySearch("tvly-key", WithTavilyBaseURL(srv.URL), WithMaxResults(2))
	require.NoError(t, err)
	out, err := s.Call(context.Background(), `{"query": "weather in sf"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"url": "https://weather.example/sf", "content": "Sunny, 20C"}]`, out)
}

func TestTavilySearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, err := NewTavilySearch("k", WithTavilyBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = s.Call(context.Background(), "q")
	assert.ErrorContains(t, err, "401")
}

func TestBraveSearch(t *testing.T) {
	var results string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "brave-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		assert.Equal(t, "zh", r.URL.Query().Get("search_lang"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web": {"results": [` + results + `]}}`))
	}))
	defer srv.Close()

	b, err := NewBraveSearch("brave-key", WithBraveBaseURL(srv.URL), WithBraveCount(3), WithBraveLang("zh"))
	require.NoError(t, err)

	results = `{"title": "Go", "url": "https://go.dev", "description": "The Go language"}`
	out, err := b.Call(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, "1. Title: Go\nURL: https://go.dev\nDescription: The Go language\n\n", out)

	results = ""
	out, err = b.Call(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, "No results found", out)
}

type fakeLister struct {
	pages map[int][]*gitlab.MergeRequestDiff
	calls []int
}

func (f *fakeLister) ListMergeRequestDiffs(pid any, mr int, opt *gitlab.ListMergeRequestDiffsOptions, _ ...gitlab.RequestOptionFunc) ([]*gitlab.MergeRequestDiff, *gitlab.Response, error) {
	if pid != 7 || mr != 3 {
		return nil, nil, errors.New("not found")
	}
	f.calls = append(f.calls, opt.Page)
	next := 0
	if _, ok := f.pages[opt.Page+1]; ok {
		next = opt.Page + 1
	}
	return f.pages[opt.Page], &gitlab.Response{NextPage: next}, nil
}

func TestMergeDiff(t *testing.T) {
	lister := &fakeLister{pages: map[int][]*gitlab.MergeRequestDiff{
		1: {
			{NewPath: "main.go", Diff: "@@ -1 +1 @@\n-a\n+b"},
			{NewPath: "README.md", Diff: "@@ docs"},
		},
		2: {
			{NewPath: "new.go", Diff: "@@ new", NewFile: true},
			{NewPath: "empty.go"},
			{NewPath: "svc/handler.go", Diff: "@@ -5 +5 @@\n-x\n+y"},
		},
	}}
	m := MergeDiff{Lister: lister}

	out, err := Invoke(context.Background(), m, `{"project_id": 7, "merge_id": 3}`)
	require.NoError(t, err)
	assert.Equal(t, "@@ -1 +1 @@\n-a\n+b\n@@ -5 +5 @@\n-x\n+y", out)
	assert.Equal(t, []int{1, 2}, lister.calls)

	_, err = m.Call(context.Background(), `{"project_id": 1, "merge_id": 1}`)
	assert.ErrorContains(t, err, "failed to get MR changes")

	_, err = m.Call(context.Background(), "not json")
	assert.Error(t, err)
}

func TestNewGitLabClient(t *testing.T) {
	_, err := NewGitLabClient(config.GitLab{})
	assert.Error(t, err)

	c, err := NewGitLabClient(config.GitLab{BaseURL: "https://gitlab.example.com", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.example.com/api/v4/", c.BaseURL().String())
}
