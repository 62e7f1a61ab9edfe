package prebuilt

import (
	"errors"

	"github.com/tmc/langchaingo/llms"

	"github.com/levitang/llm-practice/graph"
	"github.com/levitang/llm-practice/log"
	"github.com/levitang/llm-practice/message"
	"github.com/levitang/llm-practice/store"
)

// ErrMaxIterations is returned when an agent keeps calling tools past its
// iteration budget.
var ErrMaxIterations = errors.New("agent stopped due to max iterations")

// DefaultMaxIterations is the tool round budget of the agents.
const DefaultMaxIterations = 15

// AgentState is the state of the message based agents.
type AgentState struct {
	Messages []message.Message `json:"messages"`
}

// agentSchema appends node output messages to the state.
func agentSchema() graph.FuncSchema[AgentState] {
	return graph.NewSchema(func(current, update AgentState) AgentState {
		return AgentState{Messages: message.Append(current.Messages, update.Messages)}
	})
}

// LastContent returns the text of the final message.
func (s AgentState) LastContent() string {
	last, _ := message.Last(s.Messages)
	return last.Content
}

// roundsSinceUser counts assistant turns after the latest user message.
func roundsSinceUser(msgs []message.Message) int {
	n := 0
	for i := len(msgs) - 1; i >= 0 && msgs[i].Role != message.RoleUser; i-- {
		if msgs[i].Role == message.RoleAssistant {
			n++
		}
	}
	return n
}

// Option configures the agents of this package.
type Option func(*options)

type options struct {
	systemPrompt  string
	maxIterations int
	trim          int
	topK          int
	store         store.CheckpointStore
	callOptions   []llms.CallOption
	listeners     []graph.Listener
	logger        log.Logger
}

func newOptions(opts []Option) *options {
	o := &options{maxIterations: DefaultMaxIterations, topK: 5}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = log.Or(o.logger)
	return o
}

// WithSystemPrompt prepends a system message to every model call. It is
// not stored in the thread.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) { o.systemPrompt = prompt }
}

// WithMaxIterations caps the model rounds of one invocation.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithTrim sends only the last n messages of the history to the model.
func WithTrim(n int) Option {
	return func(o *options) { o.trim = n }
}

// WithTopK sets the row limit the SQL agent is told to use. Default 5.
func WithTopK(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithCheckpointStore gives the agent thread memory.
func WithCheckpointStore(s store.CheckpointStore) Option {
	return func(o *options) { o.store = s }
}

// WithCallOptions are passed to every model call.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(o *options) { o.callOptions = append(o.callOptions, opts...) }
}

// WithListeners attaches graph listeners to every run.
func WithListeners(ls ...graph.Listener) Option {
	return func(o *options) { o.listeners = append(o.listeners, ls...) }
}

func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// runConfig selects the thread and, when limit > 0, the recursion limit.
func (o *options) runConfig(threadID string, limit int) *graph.Config {
	cfg := &graph.Config{RecursionLimit: limit, Callbacks: o.listeners}
	if threadID != "" {
		cfg.Configurable = map[string]any{"thread_id": threadID}
	}
	return cfg
}

// prompt returns the messages sent to the model.
func (o *options) prompt(history []message.Message) []message.Message {
	history = message.Trim(history, o.trim)
	if o.systemPrompt == "" {
		return history
	}
	return append([]message.Message{message.System(o.systemPrompt)}, history...)
}
