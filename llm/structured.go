package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// SchemaFor reflects T into the JSON schema map accepted as function
// parameters. Definitions are inlined and `jsonschema:"required"` tags
// mark required fields.
func SchemaFor[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	data, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		// reflecting a Go type into a schema cannot produce unmarshalable values
		panic(fmt.Sprintf("marshal schema for %T: %v", v, err))
	}
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	delete(m, "$schema")
	delete(m, "$id")
	m["type"] = "object"
	return m
}

// StructuredOutput returns a strict json_schema response format named name,
// built from the schema of T.
func StructuredOutput[T any](name string) *openai.ResponseFormat {
	return &openai.ResponseFormat{
		Type: "json_schema",
		JSONSchema: &openai.ResponseFormatJSONSchema{
			Name:   name,
			Schema: toProperty(SchemaFor[T]()),
			Strict: true,
		},
	}
}

func toProperty(m map[string]any) *openai.ResponseFormatJSONSchemaProperty {
	p := &openai.ResponseFormatJSONSchemaProperty{}
	p.Type, _ = m["type"].(string)
	p.Description, _ = m["description"].(string)

	if items, ok := m["items"].(map[string]any); ok {
		p.Items = toProperty(items)
	}
	if props, ok := m["properties"].(map[string]any); ok {
		p.Properties = make(map[string]*openai.ResponseFormatJSONSchemaProperty, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				p.Properties[name] = toProperty(sub)
			}
		}
		// strict mode requires every property to be listed
		for name := range p.Properties {
			p.Required = append(p.Required, name)
		}
		sort.Strings(p.Required)
	}
	return p
}

// Structured calls the model and decodes its JSON reply into T. Replies
// wrapped in a ```json fence are accepted.
func Structured[T any](ctx context.Context, model llms.Model, msgs []llms.MessageContent, opts ...llms.CallOption) (T, error) {
	var out T
	content, err := Generate(ctx, model, msgs, opts...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &out); err != nil {
		return out, fmt.Errorf("decode structured reply: %w", err)
	}
	return out, nil
}

// StripCodeFence removes a surrounding markdown code fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
