package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levitang/llm-practice/tool"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><h1>LangChain</h1><script>track()</script>
<p class="intro">Build context-aware apps.</p>
<a href="/docs">Docs</a> <a href="https://github.com/langchain-ai">GitHub</a> <a href="/docs">Docs again</a> <a href="#top">top</a>
</body></html>`)
	})
	mux.HandleFunc("/docs", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>Documentation</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestToolkit(t *testing.T) {
	srv := newSite(t)
	reg := tool.NewRegistry(Toolkit(NewSession(nil))...)
	ctx := context.Background()

	out, err := reg.Call(ctx, "navigate_browser", fmt.Sprintf(`{"input": %q}`, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Navigating to %s returned status code 200", srv.URL), out)

	text, err := reg.Call(ctx, "extract_text", `{"input": ""}`)
	require.NoError(t, err)
	assert.Contains(t, text, "LangChain Build context-aware apps.")
	assert.NotContains(t, text, "track()")

	links, err := reg.Call(ctx, "extract_hyperlinks", "")
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`["%s/docs", "https://github.com/langchain-ai"]`, srv.URL), links)

	intro, err := reg.Call(ctx, "get_elements", `{"input": ".intro"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `["Build context-aware apps."]`, intro)

	_, err = reg.Call(ctx, "navigate_browser", srv.URL+"/docs")
	require.NoError(t, err)
	cur, _ := reg.Call(ctx, "current_webpage", "")
	assert.Equal(t, srv.URL+"/docs", cur)

	back, err := reg.Call(ctx, "previous_webpage", "")
	require.NoError(t, err)
	assert.Contains(t, back, srv.URL)
	cur, _ = reg.Call(ctx, "current_webpage", "")
	assert.Equal(t, srv.URL, cur)
}

func TestToolsNeedAPage(t *testing.T) {
	s := NewSession(nil)
	_, err := (&ExtractText{s}).Call(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestNavigate_InvalidURL(t *testing.T) {
	_, err := (&Navigate{NewSession(nil)}).Call(context.Background(), "ftp://example.com")
	assert.Error(t, err)
}
