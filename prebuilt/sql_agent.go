package prebuilt

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/levitang/llm-practice/prompt"
	"github.com/levitang/llm-practice/tool/browser"
	"github.com/levitang/llm-practice/tool/sqldb"
)

// BrowserSystemPrompt is the default instruction of BrowserAgent.
const BrowserSystemPrompt = "You are a helpful assistant that browses the web to answer questions. " +
	"Navigate to pages, read their text and follow links with the tools provided, then answer concisely."

// SQLAgent is a ReAct agent over the SQL toolkit, instructed with the SQL
// agent prompt for db's dialect.
func SQLAgent(model llms.Model, db *sqldb.Database, opts ...Option) (*ReactAgent, error) {
	o := newOptions(opts)
	if o.systemPrompt == "" {
		system, err := prompt.SQLAgent().Format(map[string]any{
			"dialect": db.Dialect(),
			"top_k":   o.topK,
		})
		if err != nil {
			return nil, fmt.Errorf("format sql agent prompt: %w", err)
		}
		opts = append(opts, WithSystemPrompt(system))
	}
	return CreateReactAgent(model, sqldb.Toolkit(db, model), opts...)
}

// BrowserAgent is a ReAct agent over the browser toolkit.
func BrowserAgent(model llms.Model, session *browser.Session, opts ...Option) (*ReactAgent, error) {
	opts = append([]Option{WithSystemPrompt(BrowserSystemPrompt)}, opts...)
	return CreateReactAgent(model, browser.Toolkit(session), opts...)
}
