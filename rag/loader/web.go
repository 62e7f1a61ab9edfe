package loader

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/levitang/llm-practice/rag"
)

// WebLoader fetches pages and turns their HTML into text. With classes
// set only the elements carrying one of them are kept.
type WebLoader struct {
	urls     []string
	classes  []string
	client   *resty.Client
	metadata []Option
}

// WebOption configures a WebLoader.
type WebOption func(*WebLoader)

// WithClasses keeps only elements with one of the given CSS classes.
func WithClasses(classes ...string) WebOption {
	return func(l *WebLoader) {
		l.classes = append(l.classes, classes...)
	}
}

// WithRestyClient replaces the HTTP client.
func WithRestyClient(c *resty.Client) WebOption {
	return func(l *WebLoader) {
		l.client = c
	}
}

// WithWebMetadata adds metadata to every page.
func WithWebMetadata(opts ...Option) WebOption {
	return func(l *WebLoader) {
		l.metadata = append(l.metadata, opts...)
	}
}

func NewWebLoader(urls []string, opts ...WebOption) *WebLoader {
	l := &WebLoader{
		urls:   urls,
		client: resty.New().SetTimeout(30 * time.Second).SetHeader("User-Agent", "llm-practice/1.0"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *WebLoader) Load(ctx context.Context) ([]rag.Document, error) {
	docs := make([]rag.Document, 0, len(l.urls))
	for _, u := range l.urls {
		resp, err := l.client.R().SetContext(ctx).Get(u)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", u, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode())
		}
		page, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", u, err)
		}

		text, err := l.extract(page)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", u, err)
		}
		meta := applyOptions(map[string]any{"source": u}, l.metadata)
		if title := strings.TrimSpace(page.Find("title").First().Text()); title != "" {
			meta["title"] = title
		}
		docs = append(docs, rag.Document{PageContent: text, Metadata: meta})
	}
	return docs, nil
}

func (l *WebLoader) extract(page *goquery.Document) (string, error) {
	if len(l.classes) == 0 {
		page.Find("script, style, noscript").Remove()
		body, err := page.Find("body").Html()
		if err != nil {
			return "", err
		}
		return htmlToText(body), nil
	}

	selectors := make([]string, len(l.classes))
	for i, c := range l.classes {
		selectors[i] = "." + c
	}
	var parts []string
	var firstErr error
	// a nested match would be emitted twice, so only outermost matches count
	page.Find(strings.Join(selectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		if firstErr != nil || s.ParentsFiltered(strings.Join(selectors, ", ")).Length() > 0 {
			return
		}
		h, err := goquery.OuterHtml(s)
		if err != nil {
			firstErr = err
			return
		}
		if text := htmlToText(h); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n"), firstErr
}
