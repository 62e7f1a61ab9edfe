// Package tool holds the tools agents can call. A Tool has the same method
// set as langchaingo's tools.Tool, so the two are interchangeable.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// ErrUnknownTool is returned for a name no registered tool answers to.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is something an agent can call with a string input.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
}

// SchemaTool takes a JSON object described by Schema instead of a plain string.
type SchemaTool interface {
	Tool
	Schema() map[string]any
}

// Registry looks tools up by name, keeping registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing a tool with the same name.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.order))
	for i, n := range r.order {
		out[i] = r.tools[n]
	}
	return out
}

// Call runs the named tool with function call arguments.
func (r *Registry) Call(ctx context.Context, name, arguments string) (string, error) {
	t, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return Invoke(ctx, t, arguments)
}

// Invoke calls t with function call arguments. Schema tools get the JSON
// as is, plain tools get its "input" field.
func Invoke(ctx context.Context, t Tool, arguments string) (string, error) {
	if _, ok := t.(SchemaTool); ok {
		return t.Call(ctx, arguments)
	}
	return t.Call(ctx, Argument(arguments, "input"))
}

// Argument returns the string field key of a JSON object input, or the
// trimmed input itself when it is not such an object.
func Argument(input, key string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "{") {
		return input
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(input), &obj); err != nil {
		return input
	}
	switch v := obj[key].(type) {
	case string:
		return v
	case nil:
		return input
	default:
		return fmt.Sprint(v)
	}
}

// Definitions describes tools for function calling.
func Definitions(tools []Tool) []llms.Tool {
	defs := make([]llms.Tool, len(tools))
	for i, t := range tools {
		defs[i] = llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  Parameters(t),
			},
		}
	}
	return defs
}

// Parameters returns the JSON schema of t's arguments.
func Parameters(t Tool) map[string]any {
	if st, ok := t.(SchemaTool); ok {
		return st.Schema()
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{"type": "string", "description": "The input to the tool."},
		},
		"required": []string{"input"},
	}
}

// Describe renders "name: description" lines for text prompts.
func Describe(tools []Tool) string {
	lines := make([]string, len(tools))
	for i, t := range tools {
		lines[i] = t.Name() + ": " + t.Description()
	}
	return strings.Join(lines, "\n")
}

// Names returns the tool names joined by ", ".
func Names(tools []Tool) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}
