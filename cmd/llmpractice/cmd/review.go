package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/review"
	"github.com/levitang/llm-practice/tool"
)

var reviewJSON bool

var reviewCmd = &cobra.Command{
	Use:   "review <project-id> <mr-id>",
	Short: "List the Go functions changed by a GitLab merge request",
	Long: `Fetch the Go file diffs of a merge request and ask the model which function
bodies were meaningfully changed, with a suggestion for each.

Requires GITLAB_TOKEN and, for self-hosted instances, GITLAB_URL.

Examples:
  llmpractice review 42 7
  llmpractice review 42 7 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "Print the results as JSON")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	projectID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid project id %q: %w", args[0], err)
	}
	mrID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid merge request id %q: %w", args[1], err)
	}
	if cfg.OpenAI.APIKey == "" {
		return errNoAPIKey
	}

	gl, err := tool.NewGitLabClient(cfg.GitLab)
	if err != nil {
		return err
	}
	model, err := review.NewReviewModel(cfg.OpenAI)
	if err != nil {
		return err
	}

	results, err := review.NewAnalyzer(gl.MergeRequests, model, logger).AnalyseMergeRequest(cmd.Context(), projectID, mrID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if reviewJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	fmt.Fprint(out, review.Format(results))
	return nil
}
