package graph

import "context"

// Config carries per invocation settings.
type Config struct {
	// Configurable holds free form keys; "thread_id" selects the
	// conversation thread of a checkpointed graph.
	Configurable map[string]any

	// Callbacks are notified of node and step events.
	Callbacks []Listener

	// RecursionLimit caps the number of steps; 0 means DefaultRecursionLimit.
	RecursionLimit int

	Tags     []string
	Metadata map[string]any
}

// WithThreadID returns a config selecting the given thread.
func WithThreadID(threadID string) *Config {
	return &Config{Configurable: map[string]any{"thread_id": threadID}}
}

// ThreadID returns the configured thread, or "".
func (c *Config) ThreadID() string {
	if c == nil || c.Configurable == nil {
		return ""
	}
	id, _ := c.Configurable["thread_id"].(string)
	return id
}

func (c *Config) recursionLimit() int {
	if c == nil || c.RecursionLimit <= 0 {
		return DefaultRecursionLimit
	}
	return c.RecursionLimit
}

func (c *Config) listeners() []Listener {
	if c == nil {
		return nil
	}
	return c.Callbacks
}

// clone returns a shallow copy whose callback slice can be appended to safely.
func (c *Config) clone() *Config {
	if c == nil {
		return &Config{}
	}
	cp := *c
	cp.Callbacks = append([]Listener(nil), c.Callbacks...)
	return &cp
}

type configKey struct{}

// WithConfig stores the config in ctx so nodes can read it.
func WithConfig(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}

// GetConfig returns the config of the running invocation, or nil.
func GetConfig(ctx context.Context) *Config {
	c, _ := ctx.Value(configKey{}).(*Config)
	return c
}
