package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/rag"
)

func TestTextLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	docs, err := NewTextLoader(path, WithMetadata(map[string]any{"lang": "go"})).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "package main\n", docs[0].PageContent)
	assert.Equal(t, path, docs[0].Metadata["source"])
	assert.Equal(t, "go", docs[0].Metadata["lang"])
}

func TestTextLoader_Missing(t *testing.T) {
	_, err := NewTextLoader(filepath.Join(t.TempDir(), "nope.txt")).Load(context.Background())
	assert.Error(t, err)
}

func TestStaticLoader_CopiesMetadata(t *testing.T) {
	src := rag.Document{PageContent: "Dogs are great companions", Metadata: map[string]any{"source": "mammal-pets-doc"}}
	l := NewStaticLoader(src)

	docs, err := l.Load(context.Background())
	require.NoError(t, err)
	docs[0].Metadata["source"] = "changed"

	again, _ := l.Load(context.Background())
	assert.Equal(t, "mammal-pets-doc", again[0].Metadata["source"])
}

const blogPage = `<html><head><title>LLM Powered Agents</title><script>var x = 1;</script></head>
<body>
<nav>menu</nav>
<header class="post-header"><h1 class="post-title">Agents</h1></header>
<div class="post-content"><p>Task decomposition &amp; planning.</p><p>Second paragraph.</p></div>
<footer>footer</footer>
</body></html>`

func TestWebLoader_Classes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, blogPage)
	}))
	defer srv.Close()

	docs, err := NewWebLoader([]string{srv.URL}, WithClasses("post-content", "post-title", "post-header")).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	text := docs[0].PageContent
	assert.Contains(t, text, "Agents")
	assert.Contains(t, text, "Task decomposition & planning.")
	assert.Contains(t, text, "Second paragraph.")
	assert.NotContains(t, text, "menu")
	assert.NotContains(t, text, "footer")
	assert.Equal(t, srv.URL, docs[0].Metadata["source"])
	assert.Equal(t, "LLM Powered Agents", docs[0].Metadata["title"])
}

func TestWebLoader_WholeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, blogPage)
	}))
	defer srv.Close()

	docs, err := NewWebLoader([]string{srv.URL}).Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, docs[0].PageContent, "menu")
	assert.NotContains(t, docs[0].PageContent, "var x")
}

func TestWebLoader_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewWebLoader([]string{srv.URL}).Load(context.Background())
	assert.ErrorContains(t, err, "status 404")
}

func TestMarkdownLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nSome **bold** text.\n\n- one\n- two\n"), 0o644))

	docs, err := NewMarkdownLoader(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	text := docs[0].PageContent
	assert.True(t, strings.HasPrefix(text, "Title\n"))
	assert.Contains(t, text, "Some bold text.")
	assert.Contains(t, text, "one")
	assert.NotContains(t, text, "<")
}

func TestPDFLoader_Missing(t *testing.T) {
	_, err := NewPDFLoader(filepath.Join(t.TempDir(), "short_url.pdf")).Load(context.Background())
	assert.Error(t, err)
}

func TestConfluenceLoader_Pages(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/content/search", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "levi", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		queries = append(queries, r.URL.Query().Get("cql"))
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		type result struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Body  any    `json:"body"`
			Links any    `json:"_links"`
		}
		var results []result
		for i := start; i < start+limit && i < 3; i++ {
			id := strconv.Itoa(i)
			results = append(results, result{
				ID:    id,
				Title: "Page " + id,
				Body:  map[string]any{"storage": map[string]any{"value": "<p>cloud gaming " + id + "</p>"}},
				Links: map[string]any{"webui": "/pages/" + id},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results, "size": len(results)})
	}))
	defer srv.Close()

	l, err := NewConfluenceLoader(
		config.Confluence{BaseURL: srv.URL, Username: "levi", APIKey: "secret", SpaceKey: "YYX"},
		WithCQL(`creator="levi.tang"`), WithLimit(2),
	)
	require.NoError(t, err)

	docs, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Len(t, queries, 2)
	assert.Equal(t, `space="YYX" AND (creator="levi.tang")`, queries[0])
	assert.Equal(t, "cloud gaming 2", docs[2].PageContent)
	assert.Equal(t, "Page 0", docs[0].Metadata["title"])
	assert.Equal(t, srv.URL+"/pages/1", docs[1].Metadata["source"])
}

func TestConfluenceLoader_MaxPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[{"id":"1","title":"a"},{"id":"2","title":"b"}]}`)
	}))
	defer srv.Close()

	l, err := NewConfluenceLoader(config.Confluence{BaseURL: srv.URL, SpaceKey: "YYX"}, WithLimit(2), WithMaxPages(3))
	require.NoError(t, err)
	docs, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestConfluenceLoader_NeedsQuery(t *testing.T) {
	_, err := NewConfluenceLoader(config.Confluence{BaseURL: "http://wiki"})
	assert.Error(t, err)
}
