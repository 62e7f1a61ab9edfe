// Package review asks a model which Go functions a GitLab merge request
// changes in substance.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/log"
	"github.com/levitang/llm-practice/prompt"
	"github.com/levitang/llm-practice/tool"
)

// FunctionChange is one changed function reported by the model.
type FunctionChange struct {
	FunctionName  string `json:"function_name" jsonschema_description:"The name of the function" jsonschema:"required"`
	ChangeContent string `json:"change_content" jsonschema_description:"content and reason of the change" jsonschema:"required"`
	IsFunction    bool   `json:"is_function" jsonschema_description:"Whether the change is a function" jsonschema:"required"`
	Suggestion    string `json:"suggestion" jsonschema_description:"suggestion of the change" jsonschema:"required"`
}

// Report is the response format: strict json_schema needs an object at
// the top level.
type Report struct {
	Changes []FunctionChange `json:"changes" jsonschema_description:"The functions changed by the diff" jsonschema:"required"`
}

// FileResult holds the changes found in one file of the merge request.
type FileResult struct {
	Path    string           `json:"path"`
	Changes []FunctionChange `json:"changes"`
}

// Analyzer reviews merge request diffs with a model.
type Analyzer struct {
	diffs  tool.DiffLister
	model  llms.Model
	logger log.Logger
}

// NewAnalyzer uses model as is. The model should answer in JSON; see
// NewReviewModel.
func NewAnalyzer(diffs tool.DiffLister, model llms.Model, logger log.Logger) *Analyzer {
	return &Analyzer{diffs: diffs, model: model, logger: log.Or(logger)}
}

// NewReviewModel builds a chat model constrained to the Report schema.
func NewReviewModel(cfg config.OpenAI) (*openai.LLM, error) {
	return llm.NewChatModel(cfg, openai.WithResponseFormat(llm.StructuredOutput[Report]("function_changes")))
}

// AnalyseMergeRequest reviews every modified Go file of the merge request.
func (a *Analyzer) AnalyseMergeRequest(ctx context.Context, projectID, mrID int) ([]FileResult, error) {
	diffs, err := tool.FetchDiffs(ctx, a.diffs, projectID, mrID)
	if err != nil {
		return nil, err
	}
	var results []FileResult
	for _, d := range tool.GoChanges(diffs) {
		a.logger.Info("reviewing %s", d.NewPath)
		changes, err := a.AnalyseDiff(ctx, d.Diff)
		if err != nil {
			return results, fmt.Errorf("review %s: %w", d.NewPath, err)
		}
		results = append(results, FileResult{Path: d.NewPath, Changes: changes})
	}
	return results, nil
}

// AnalyseDiff asks the model about a single diff.
func (a *Analyzer) AnalyseDiff(ctx context.Context, diff string) ([]FunctionChange, error) {
	content, err := llm.Invoke(ctx, a.model, prompt.ReviewSystem, diff)
	if err != nil {
		return nil, err
	}
	return decodeChanges(content)
}

// decodeChanges accepts a Report, a bare list or a single change.
func decodeChanges(content string) ([]FunctionChange, error) {
	text := llm.StripCodeFence(content)
	if text == "" {
		return nil, errors.New("decode review: empty reply")
	}
	raw := []byte(text)
	if text[0] == '[' {
		var list []FunctionChange
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode review: %w", err)
		}
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode review: %w", err)
	}
	if _, ok := obj["changes"]; ok {
		var r Report
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode review: %w", err)
		}
		return r.Changes, nil
	}
	var one FunctionChange
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode review: %w", err)
	}
	return []FunctionChange{one}, nil
}

// Format renders results as readable text.
func Format(results []FileResult) string {
	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "## %s\n", r.Path)
		if len(r.Changes) == 0 {
			sb.WriteString("no functional changes\n")
		}
		for _, c := range r.Changes {
			if !c.IsFunction {
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n  suggestion: %s\n", c.FunctionName, c.ChangeContent, c.Suggestion)
		}
	}
	return sb.String()
}
