package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/levitang/llm-practice/config"
	"github.com/levitang/llm-practice/llm"
)

// DiffLister lists the file diffs of a merge request. The MergeRequests
// service of a gitlab.Client satisfies it.
type DiffLister interface {
	ListMergeRequestDiffs(pid any, mergeRequest int, opt *gitlab.ListMergeRequestDiffsOptions, options ...gitlab.RequestOptionFunc) ([]*gitlab.MergeRequestDiff, *gitlab.Response, error)
}

// NewGitLabClient builds a client from configuration.
func NewGitLabClient(cfg config.GitLab) (*gitlab.Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("GITLAB_TOKEN not set")
	}
	var opts []gitlab.ClientOptionFunc
	if cfg.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(cfg.BaseURL))
	}
	client, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return client, nil
}

// FetchDiffs follows pagination and returns every diff of the merge request.
func FetchDiffs(ctx context.Context, lister DiffLister, projectID, mergeID int) ([]*gitlab.MergeRequestDiff, error) {
	var all []*gitlab.MergeRequestDiff
	for page := 1; page > 0; {
		diffs, resp, err := lister.ListMergeRequestDiffs(projectID, mergeID, &gitlab.ListMergeRequestDiffsOptions{
			ListOptions: gitlab.ListOptions{Page: page},
		}, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to get MR changes: %w", err)
		}
		all = append(all, diffs...)
		if resp == nil {
			break
		}
		page = resp.NextPage
	}
	return all, nil
}

// GoChanges keeps modified Go files: new files and empty diffs are dropped.
func GoChanges(diffs []*gitlab.MergeRequestDiff) []*gitlab.MergeRequestDiff {
	var out []*gitlab.MergeRequestDiff
	for _, d := range diffs {
		if d.Diff == "" || d.NewFile || !strings.HasSuffix(d.NewPath, ".go") {
			continue
		}
		out = append(out, d)
	}
	return out
}

// MergeDiffInput is the argument of get_merge_diff.
type MergeDiffInput struct {
	ProjectID int `json:"project_id" jsonschema_description:"gitlab project id." jsonschema:"required"`
	MergeID   int `json:"merge_id" jsonschema_description:"gitlab merge request id." jsonschema:"required"`
}

// MergeDiff returns the Go diffs of a merge request joined by newlines.
type MergeDiff struct {
	Lister DiffLister
}

func (MergeDiff) Name() string        { return "get_merge_diff" }
func (MergeDiff) Description() string { return "Get the diff of a merge request." }

func (MergeDiff) Schema() map[string]any { return llm.SchemaFor[MergeDiffInput]() }

func (m MergeDiff) Call(ctx context.Context, input string) (string, error) {
	var in MergeDiffInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("failed to parse input for get_merge_diff: %w. Input was: %s", err, input)
	}
	diffs, err := FetchDiffs(ctx, m.Lister, in.ProjectID, in.MergeID)
	if err != nil {
		return "", err
	}
	changes := GoChanges(diffs)
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.Diff
	}
	return strings.Join(parts, "\n"), nil
}
