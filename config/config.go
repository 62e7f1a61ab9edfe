// Package config collects the environment driven settings shared by every
// example program.
package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL        = "https://api.openai.com"
	DefaultModel          = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultThreadID       = "abc123"
)

// Config holds endpoints, credentials and store selection.
type Config struct {
	OpenAI     OpenAI
	Search     Search
	Database   Database
	Checkpoint Checkpoint
	GitLab     GitLab
	Confluence Confluence
	ThreadID   string
}

type OpenAI struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float64
}

// APIBase returns the base URL with the "/v1" suffix the SDK clients expect.
func (o OpenAI) APIBase() string {
	base := strings.TrimRight(o.BaseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

// ChatCompletionsURL is the raw REST endpoint used by the resty client.
func (o OpenAI) ChatCompletionsURL() string {
	return o.APIBase() + "/chat/completions"
}

type Search struct {
	TavilyAPIKey string
	BraveAPIKey  string
}

type Database struct {
	Dialect string
	DSN     string
}

type Checkpoint struct {
	// Kind is one of memory, file, sqlite, postgres, redis.
	Kind string
	DSN  string
}

type GitLab struct {
	BaseURL string
	Token   string
}

type Confluence struct {
	BaseURL  string
	Username string
	APIKey   string
	SpaceKey string
}

// FromEnv reads the configuration from the process environment.
func FromEnv() *Config {
	return FromLookup(os.LookupEnv)
}

// FromLookup is FromEnv with an injectable lookup, used by tests.
func FromLookup(lookup func(string) (string, bool)) *Config {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				return v
			}
		}
		return ""
	}

	temp, err := strconv.ParseFloat(get("OPENAI_TEMPERATURE"), 64)
	if err != nil {
		temp = 0
	}

	return &Config{
		OpenAI: OpenAI{
			APIKey:         get("OPENAI_API_KEY"),
			BaseURL:        withDefault(get("OPENAI_API_BASE", "OPENAI_BASE_URL"), DefaultBaseURL),
			Model:          withDefault(get("OPENAI_MODEL"), DefaultModel),
			EmbeddingModel: withDefault(get("OPENAI_EMBEDDING_MODEL"), DefaultEmbeddingModel),
			Temperature:    temp,
		},
		Search: Search{
			TavilyAPIKey: get("TAVILY_API_KEY"),
			BraveAPIKey:  get("BRAVE_API_KEY"),
		},
		Database: Database{
			Dialect: withDefault(get("SQL_DIALECT"), "sqlite3"),
			DSN:     withDefault(get("DATABASE_URL"), "file:chinook.db"),
		},
		Checkpoint: Checkpoint{
			Kind: withDefault(get("CHECKPOINT_STORE"), "memory"),
			DSN:  withDefault(get("CHECKPOINT_DSN", "REDIS_ADDR"), ""),
		},
		GitLab: GitLab{
			BaseURL: get("GITLAB_URL", "GITLAB_API_URL"),
			Token:   get("GITLAB_TOKEN"),
		},
		Confluence: Confluence{
			BaseURL:  get("CONFLUENCE_URL"),
			Username: get("CONFLUENCE_USERNAME"),
			APIKey:   get("CONFLUENCE_API_KEY"),
			SpaceKey: get("CONFLUENCE_SPACE_KEY"),
		},
		ThreadID: withDefault(get("THREAD_ID"), DefaultThreadID),
	}
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
