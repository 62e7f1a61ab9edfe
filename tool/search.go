package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTavilyBaseURL = "https://api.tavily.com"
	defaultBraveBaseURL  = "https://api.search.brave.com/res/v1/web/search"
)

// TavilySearch queries the Tavily search API and returns a JSON list of
// {url, content} results.
type TavilySearch struct {
	client     *resty.Client
	apiKey     string
	maxResults int
}

// TavilyOption configures TavilySearch.
type TavilyOption func(*TavilySearch)

// WithTavilyBaseURL points the tool at another endpoint.
func WithTavilyBaseURL(url string) TavilyOption {
	return func(t *TavilySearch) { t.client.SetBaseURL(url) }
}

// WithMaxResults caps the number of results. Default 5.
func WithMaxResults(n int) TavilyOption {
	return func(t *TavilySearch) {
		if n > 0 {
			t.maxResults = n
		}
	}
}

func NewTavilySearch(apiKey string, opts ...TavilyOption) (*TavilySearch, error) {
	if apiKey == "" {
		return nil, errors.New("TAVILY_API_KEY not set")
	}
	t := &TavilySearch{
		client:     resty.New().SetBaseURL(defaultTavilyBaseURL).SetTimeout(30 * time.Second),
		apiKey:     apiKey,
		maxResults: 5,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *TavilySearch) Name() string { return "tavily_search_results_json" }

func (t *TavilySearch) Description() string {
	return "A search engine optimized for comprehensive, accurate, and trusted results. " +
		"Useful for when you need to answer questions about current events. " +
		"Input should be a search query."
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

type searchHit struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (t *TavilySearch) Call(ctx context.Context, input string) (string, error) {
	var out tavilyResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(t.apiKey).
		SetBody(map[string]any{
			"query":       Argument(input, "query"),
			"max_results": t.maxResults,
		}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return "", fmt.Errorf("tavily search: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("tavily api returned status %d: %s", resp.StatusCode(), resp.String())
	}

	hits := make([]searchHit, 0, len(out.Results))
	for _, r := range out.Results {
		hits = append(hits, searchHit{URL: r.URL, Content: r.Content})
	}
	data, err := json.Marshal(hits)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BraveSearch queries the Brave web search API.
type BraveSearch struct {
	client  *resty.Client
	apiKey  string
	baseURL string
	count   int
	country string
	lang    string
}

type BraveOption func(*BraveSearch)

// WithBraveBaseURL sets the base URL for the Brave Search API.
func WithBraveBaseURL(baseURL string) BraveOption {
	return func(b *BraveSearch) { b.baseURL = baseURL }
}

// WithBraveCount sets the number of results to return (1-20).
func WithBraveCount(count int) BraveOption {
	return func(b *BraveSearch) {
		b.count = min(max(count, 1), 20)
	}
}

// WithBraveCountry sets the country code for search results (e.g., "US", "CN").
func WithBraveCountry(country string) BraveOption {
	return func(b *BraveSearch) { b.country = country }
}

// WithBraveLang sets the language code for search results (e.g., "en", "zh").
func WithBraveLang(lang string) BraveOption {
	return func(b *BraveSearch) { b.lang = lang }
}

func NewBraveSearch(apiKey string, opts ...BraveOption) (*BraveSearch, error) {
	if apiKey == "" {
		return nil, errors.New("BRAVE_API_KEY not set")
	}
	b := &BraveSearch{
		client:  resty.New().SetTimeout(30 * time.Second),
		apiKey:  apiKey,
		baseURL: defaultBraveBaseURL,
		count:   10,
		country: "US",
		lang:    "en",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *BraveSearch) Name() string { return "brave_search" }

func (b *BraveSearch) Description() string {
	return "A privacy-focused search engine powered by Brave. " +
		"Useful for finding current information and answering questions. " +
		"Input should be a search query."
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *BraveSearch) Call(ctx context.Context, input string) (string, error) {
	params := map[string]string{
		"q":     Argument(input, "query"),
		"count": strconv.Itoa(b.count),
	}
	if b.country != "" {
		params["country"] = b.country
	}
	if b.lang != "" {
		params["search_lang"] = b.lang
	}

	var out braveResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("X-Subscription-Token", b.apiKey).
		SetQueryParams(params).
		SetResult(&out).
		Get(b.baseURL)
	if err != nil {
		return "", fmt.Errorf("brave search: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("brave api returned status: %d", resp.StatusCode())
	}

	var sb strings.Builder
	for i, r := range out.Web.Results {
		fmt.Fprintf(&sb, "%d. Title: %s\nURL: %s\nDescription: %s\n\n", i+1, r.Title, r.URL, r.Description)
	}
	if sb.Len() == 0 {
		return "No results found", nil
	}
	return sb.String(), nil
}
