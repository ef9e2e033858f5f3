package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"numpycheck/internal/collect"
)

var (
	collectOwner  string
	collectRepo   string
	collectToken  string
	collectSince  string
	collectOutDir string
)

// collectCmd crawls a repository's commit and issue history. The records
// help maintain the rule table by surfacing deprecation announcements.
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect commit and issue history from a GitHub repository",
	Long: `collect downloads commits and issues from the GitHub API and writes
simplified records plus contributor statistics for offline analysis.

Examples:
  numpycheck collect                           # Collect numpy/numpy history
  numpycheck collect --owner=pandas-dev --repo=pandas
  numpycheck collect --since=2023-01-01 --out=history/`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectOwner, "owner", "numpy", "Repository owner")
	collectCmd.Flags().StringVar(&collectRepo, "repo", "numpy", "Repository name")
	collectCmd.Flags().StringVar(&collectToken, "token", "", "GitHub API token (defaults to GITHUB_TOKEN)")
	collectCmd.Flags().StringVar(&collectSince, "since", "2005-01-01", "Collect history since this date (YYYY-MM-DD)")
	collectCmd.Flags().StringVar(&collectOutDir, "out", ".", "Output directory")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	token := collectToken
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	since, err := time.Parse("2006-01-02", collectSince)
	if err != nil {
		return fmt.Errorf("invalid --since date %q: %w", collectSince, err)
	}

	if err := os.MkdirAll(collectOutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger := newLogger(true)
	client := collect.NewClient(collectOwner, collectRepo, token, logger)
	ctx := context.Background()

	color.Cyan("📥 Collecting commits from %s/%s...\n", collectOwner, collectRepo)
	commits, err := client.CollectCommits(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to collect commits: %w", err)
	}
	commitsPath := filepath.Join(collectOutDir, fmt.Sprintf("%s_commits.json", collectRepo))
	if err := writeJSON(commitsPath, commits); err != nil {
		return err
	}
	color.Green("✅ %d commits saved to %s\n", len(commits), commitsPath)

	color.Cyan("📥 Collecting issues from %s/%s...\n", collectOwner, collectRepo)
	issues, err := client.CollectIssues(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to collect issues: %w", err)
	}
	issuesPath := filepath.Join(collectOutDir, fmt.Sprintf("%s_issues.json", collectRepo))
	if err := writeJSON(issuesPath, issues); err != nil {
		return err
	}
	color.Green("✅ %d issues saved to %s\n", len(issues), issuesPath)

	summary := collect.Summarize(commits)
	summaryPath := filepath.Join(collectOutDir, fmt.Sprintf("%s_summary.json", collectRepo))
	if err := writeJSON(summaryPath, summary); err != nil {
		return err
	}

	csvPath := filepath.Join(collectOutDir, fmt.Sprintf("%s_contributors.csv", collectRepo))
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", csvPath, err)
	}
	defer f.Close()
	if err := collect.WriteContributorCSV(f, summary.Contributors); err != nil {
		return err
	}
	color.Green("✅ Summary saved to %s and %s\n", summaryPath, csvPath)

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
