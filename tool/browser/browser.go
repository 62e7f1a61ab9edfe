// Package browser is a lightweight browsing toolkit for agents. Pages are
// fetched over HTTP and queried with goquery; scripts are not executed.
package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/levitang/llm-practice/tool"
)

// ErrNoPage is returned by tools that need a page before any navigation.
var ErrNoPage = errors.New("no page loaded, call navigate_browser first")

// Session is the shared state of the toolkit: the current page and the
// navigation history.
type Session struct {
	client *resty.Client

	mu      sync.Mutex
	history []*page
}

type page struct {
	url *url.URL
	doc *goquery.Document
}

func NewSession(client *resty.Client) *Session {
	if client == nil {
		client = resty.New().SetTimeout(30 * time.Second).SetHeader("User-Agent", "llm-practice/1.0")
	}
	return &Session{client: client}
}

// Navigate loads rawURL and makes it the current page.
func (s *Session) Navigate(ctx context.Context, rawURL string) (int, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return 0, fmt.Errorf("invalid url %q", rawURL)
	}
	resp, err := s.client.R().SetContext(ctx).Get(u.String())
	if err != nil {
		return 0, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return resp.StatusCode(), fmt.Errorf("parse %s: %w", u, err)
	}
	s.mu.Lock()
	s.history = append(s.history, &page{url: u, doc: doc})
	s.mu.Unlock()
	return resp.StatusCode(), nil
}

// Back drops the current page, returning to the previous one.
func (s *Session) Back() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) < 2 {
		return "", errors.New("no previous page")
	}
	s.history = s.history[:len(s.history)-1]
	return s.history[len(s.history)-1].url.String(), nil
}

func (s *Session) current() (*page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return nil, ErrNoPage
	}
	return s.history[len(s.history)-1], nil
}

// Toolkit returns the browser tools sharing s.
func Toolkit(s *Session) []tool.Tool {
	return []tool.Tool{
		&Navigate{s},
		&NavigateBack{s},
		&ExtractText{s},
		&ExtractHyperlinks{s},
		&GetElements{s},
		&CurrentWebPage{s},
	}
}

// Navigate is navigate_browser.
type Navigate struct{ s *Session }

func (*Navigate) Name() string        { return "navigate_browser" }
func (*Navigate) Description() string { return "Navigate a browser to the specified URL" }

func (t *Navigate) Call(ctx context.Context, input string) (string, error) {
	u := tool.Argument(input, "url")
	status, err := t.s.Navigate(ctx, u)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Navigating to %s returned status code %d", u, status), nil
}

// NavigateBack is previous_webpage.
type NavigateBack struct{ s *Session }

func (*NavigateBack) Name() string { return "previous_webpage" }
func (*NavigateBack) Description() string {
	return "Navigate back to the previous page in the browser history"
}

func (t *NavigateBack) Call(context.Context, string) (string, error) {
	u, err := t.s.Back()
	if err != nil {
		return "Unable to navigate back; no previous page in the history", nil
	}
	return "Navigated back to the previous page: " + u, nil
}

// ExtractText is extract_text.
type ExtractText struct{ s *Session }

func (*ExtractText) Name() string        { return "extract_text" }
func (*ExtractText) Description() string { return "Extract all the text on the current webpage" }

func (t *ExtractText) Call(context.Context, string) (string, error) {
	p, err := t.s.current()
	if err != nil {
		return "", err
	}
	body := p.doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(body.Text()), " "), nil
}

// ExtractHyperlinks is extract_hyperlinks.
type ExtractHyperlinks struct{ s *Session }

func (*ExtractHyperlinks) Name() string { return "extract_hyperlinks" }
func (*ExtractHyperlinks) Description() string {
	return "Extract all hyperlinks on the current webpage"
}

func (t *ExtractHyperlinks) Call(context.Context, string) (string, error) {
	p, err := t.s.current()
	if err != nil {
		return "", err
	}
	seen := map[string]bool{}
	links := []string{}
	p.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || href == "" || strings.HasPrefix(href, "#") {
			return
		}
		abs := p.url.ResolveReference(ref).String()
		if !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
	})
	data, err := json.Marshal(links)
	return string(data), err
}

// GetElements is get_elements.
type GetElements struct{ s *Session }

func (*GetElements) Name() string { return "get_elements" }
func (*GetElements) Description() string {
	return "Retrieve elements in the current web page matching the given CSS selector"
}

func (t *GetElements) Call(_ context.Context, input string) (string, error) {
	p, err := t.s.current()
	if err != nil {
		return "", err
	}
	selector := tool.Argument(input, "selector")
	var texts []string
	p.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.Join(strings.Fields(sel.Text()), " "); text != "" {
			texts = append(texts, text)
		}
	})
	if len(texts) == 0 {
		return fmt.Sprintf("No elements matching %q", selector), nil
	}
	data, err := json.Marshal(texts)
	return string(data), err
}

// CurrentWebPage is current_webpage.
type CurrentWebPage struct{ s *Session }

func (*CurrentWebPage) Name() string        { return "current_webpage" }
func (*CurrentWebPage) Description() string { return "Returns the URL of the current page" }

func (t *CurrentWebPage) Call(context.Context, string) (string, error) {
	p, err := t.s.current()
	if err != nil {
		return "", err
	}
	return p.url.String(), nil
}
