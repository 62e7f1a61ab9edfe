package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/llm/llmtest"
	"github.com/levitang/llm-practice/log"
	"github.com/levitang/llm-practice/prompt"
)

type stubDiffs []*gitlab.MergeRequestDiff

func (s stubDiffs) ListMergeRequestDiffs(any, int, *gitlab.ListMergeRequestDiffsOptions, ...gitlab.RequestOptionFunc) ([]*gitlab.MergeRequestDiff, *gitlab.Response, error) {
	return s, &gitlab.Response{}, nil
}

func TestAnalyseMergeRequest(t *testing.T) {
	diffs := stubDiffs{
		{NewPath: "user.go", Diff: "@@ -10 +10 @@ func GetUserByID\n-\treturn nil\n+\treturn user"},
		{NewPath: "new.go", Diff: "+package main", NewFile: true},
		{NewPath: "docs/README.md", Diff: "+docs"},
		{NewPath: "order.go", Diff: "@@ func CreateOrder\n+\t// comment"},
	}
	model := llmtest.New(
		`{"changes": [{"function_name": "GetUserByID", "change_content": "returns the user", "is_function": true, "suggestion": "check nil"}]}`,
		"```json\n{\"changes\": []}\n```",
	)
	a := NewAnalyzer(diffs, model, log.NoOpLogger{})

	results, err := a.AnalyseMergeRequest(context.Background(), 638, 29)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "user.go", results[0].Path)
	assert.Equal(t, []FunctionChange{{
		FunctionName:  "GetUserByID",
		ChangeContent: "returns the user",
		IsFunction:    true,
		Suggestion:    "check nil",
	}}, results[0].Changes)
	assert.Equal(t, "order.go", results[1].Path)
	assert.Empty(t, results[1].Changes)

	first := model.Calls()[0]
	assert.Equal(t, prompt.ReviewSystem, llmtest.TextOf(first.Messages[0]))
	assert.Equal(t, diffs[0].Diff, llmtest.TextOf(first.Messages[1]))

	out := Format(results)
	assert.Contains(t, out, "## user.go\n- GetUserByID: returns the user\n  suggestion: check nil\n")
	assert.Contains(t, out, "## order.go\nno functional changes\n")
}

func TestAnalyseMergeRequest_ModelError(t *testing.T) {
	a := NewAnalyzer(stubDiffs{{NewPath: "a.go", Diff: "@@"}}, llmtest.New(), nil)
	_, err := a.AnalyseMergeRequest(context.Background(), 1, 1)
	assert.ErrorIs(t, err, llmtest.ErrExhausted)
	assert.ErrorContains(t, err, "review a.go")
}

func TestDecodeChanges(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []FunctionChange
		wantErr bool
	}{
		{"report", `{"changes": [{"function_name": "A"}]}`, []FunctionChange{{FunctionName: "A"}}, false},
		{"list", `[{"function_name": "B", "is_function": true}]`, []FunctionChange{{FunctionName: "B", IsFunction: true}}, false},
		{"single", `{"function_name": "C", "suggestion": "s"}`, []FunctionChange{{FunctionName: "C", Suggestion: "s"}}, false},
		{"empty", "  ", nil, true},
		{"prose", "no changes found", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeChanges(tc.content)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReportSchema(t *testing.T) {
	format := llm.StructuredOutput[Report]("function_changes")
	require.NotNil(t, format.JSONSchema)
	assert.True(t, format.JSONSchema.Strict)
	items := format.JSONSchema.Schema.Properties["changes"].Items
	require.NotNil(t, items)
	assert.Equal(t, []string{"change_content", "function_name", "is_function", "suggestion"}, items.Required)
}
