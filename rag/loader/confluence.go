package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/log"
	"github.com/levitang/llm-practice/rag"
)

const (
	defaultConfluenceLimit    = 50
	defaultConfluenceMaxPages = 1000
)

// ConfluenceLoader pages through the content search API and returns one
// document per wiki page.
type ConfluenceLoader struct {
	client   *resty.Client
	baseURL  string
	spaceKey string
	cql      string
	limit    int
	maxPages int
}

// ConfluenceOption configures a ConfluenceLoader.
type ConfluenceOption func(*ConfluenceLoader)

// WithCQL filters pages with a CQL query. Combined with a space key both
// must match.
func WithCQL(cql string) ConfluenceOption {
	return func(l *ConfluenceLoader) { l.cql = cql }
}

// WithSpaceKey limits the search to one space.
func WithSpaceKey(key string) ConfluenceOption {
	return func(l *ConfluenceLoader) { l.spaceKey = key }
}

// WithLimit sets the number of results per request.
func WithLimit(n int) ConfluenceOption {
	return func(l *ConfluenceLoader) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithMaxPages caps the number of wiki pages loaded.
func WithMaxPages(n int) ConfluenceOption {
	return func(l *ConfluenceLoader) {
		if n > 0 {
			l.maxPages = n
		}
	}
}

func NewConfluenceLoader(cfg config.Confluence, opts ...ConfluenceOption) (*ConfluenceLoader, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("confluence base url is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	client := resty.New().SetBaseURL(base).SetTimeout(30 * time.Second).SetHeader("Accept", "application/json")
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.APIKey)
	} else if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	l := &ConfluenceLoader{
		client:   client,
		baseURL:  base,
		spaceKey: cfg.SpaceKey,
		limit:    defaultConfluenceLimit,
		maxPages: defaultConfluenceMaxPages,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.query() == "" {
		return nil, errors.New("confluence loader needs a space key or a cql query")
	}
	return l, nil
}

type contentSearch struct {
	Results []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Body  struct {
			Storage struct {
				Value string `json:"value"`
			} `json:"storage"`
		} `json:"body"`
		Links struct {
			WebUI string `json:"webui"`
		} `json:"_links"`
	} `json:"results"`
	Size int `json:"size"`
}

func (l *ConfluenceLoader) query() string {
	switch {
	case l.spaceKey != "" && l.cql != "":
		return fmt.Sprintf(`space="%s" AND (%s)`, l.spaceKey, l.cql)
	case l.spaceKey != "":
		return fmt.Sprintf(`space="%s" AND type=page`, l.spaceKey)
	default:
		return l.cql
	}
}

func (l *ConfluenceLoader) Load(ctx context.Context) ([]rag.Document, error) {
	var docs []rag.Document
	cql := l.query()
	for start := 0; len(docs) < l.maxPages; {
		var page contentSearch
		resp, err := l.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"cql":    cql,
				"start":  strconv.Itoa(start),
				"limit":  strconv.Itoa(l.limit),
				"expand": "body.storage",
			}).
			SetResult(&page).
			Get("/rest/api/content/search")
		if err != nil {
			return nil, fmt.Errorf("confluence search: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("confluence search failed with status %d: %s", resp.StatusCode(), resp.String())
		}
		log.Debug("confluence: %d results from offset %d", len(page.Results), start)

		for _, r := range page.Results {
			if len(docs) >= l.maxPages {
				break
			}
			docs = append(docs, rag.Document{
				ID:          r.ID,
				PageContent: htmlToText(r.Body.Storage.Value),
				Metadata: map[string]any{
					"id":     r.ID,
					"title":  r.Title,
					"source": l.baseURL + r.Links.WebUI,
				},
			})
		}
		if len(page.Results) < l.limit {
			break
		}
		start += len(page.Results)
	}
	return docs, nil
}
