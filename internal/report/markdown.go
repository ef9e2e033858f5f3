package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"numpycheck/internal/config"
	"numpycheck/internal/models"
)

// snippetLine is one line of extracted source context.
type snippetLine struct {
	Number  int    `json:"line_number"`
	Content string `json:"content"`
	IsIssue bool   `json:"is_issue_line"`
}

// snippet holds the issue line plus surrounding context from the source file.
type snippet struct {
	OK    bool          `json:"success"`
	Err   string        `json:"error,omitempty"`
	File  string        `json:"file_path,omitempty"`
	Line  int           `json:"issue_line,omitempty"`
	Lines []snippetLine `json:"snippet,omitempty"`
}

const snippetContextLines = 2

// extractSnippet reads the source file and returns the finding line with two
// lines of context on either side.
func extractSnippet(path string, line int) snippet {
	data, err := os.ReadFile(path)
	if err != nil {
		return snippet{Err: fmt.Sprintf("failed to read file: %v", err)}
	}
	lines := strings.Split(string(data), "\n")

	idx := line - 1
	if idx < 0 || idx >= len(lines) {
		return snippet{Err: fmt.Sprintf("line %d out of range (%d lines)", line, len(lines))}
	}

	start := idx - snippetContextLines
	if start < 0 {
		start = 0
	}
	end := idx + snippetContextLines + 1
	if end > len(lines) {
		end = len(lines)
	}

	out := snippet{OK: true, File: path, Line: line}
	for i := start; i < end; i++ {
		out.Lines = append(out.Lines, snippetLine{
			Number:  i + 1,
			Content: strings.TrimRight(lines[i], "\r"),
			IsIssue: i == idx,
		})
	}
	return out
}

func formatSnippetMarkdown(s snippet) string {
	if !s.OK {
		return fmt.Sprintf("*could not extract code snippet: %s*\n", s.Err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**File**: `%s` (line %d)\n\n", s.File, s.Line)
	b.WriteString("```python\n")
	for _, ln := range s.Lines {
		if ln.IsIssue {
			fmt.Fprintf(&b, "%4d | %s  # <<< finding\n", ln.Number, ln.Content)
		} else {
			fmt.Fprintf(&b, "%4d | %s\n", ln.Number, ln.Content)
		}
	}
	b.WriteString("```\n")
	return b.String()
}

type severityGroup struct {
	Count    int
	TopTypes []typeCount
	Examples []models.Finding
}

type typeCount struct {
	Type  string
	Count int
}

type recommendations struct {
	BySeverity  map[models.Severity]severityGroup
	CommonFixes []typeCount
}

func buildRecommendations(findings []models.Finding) recommendations {
	rec := recommendations{BySeverity: make(map[models.Severity]severityGroup)}

	groups := make(map[models.Severity][]models.Finding)
	for _, f := range findings {
		groups[f.Severity] = append(groups[f.Severity], f)
	}

	for severity, group := range groups {
		counts := make(map[string]int)
		for _, f := range group {
			counts[string(f.ChangeType)]++
		}
		top := sortedCounts(counts)
		if len(top) > 3 {
			top = top[:3]
		}
		examples := group
		if len(examples) > 2 {
			examples = examples[:2]
		}
		rec.BySeverity[severity] = severityGroup{
			Count:    len(group),
			TopTypes: top,
			Examples: examples,
		}
	}

	suggestions := make(map[string]int)
	for _, f := range findings {
		s := strings.TrimSpace(f.Suggestion)
		if s != "" && len(s) < 200 {
			suggestions[s]++
		}
	}
	rec.CommonFixes = sortedCounts(suggestions)
	if len(rec.CommonFixes) > 5 {
		rec.CommonFixes = rec.CommonFixes[:5]
	}
	return rec
}

func sortedCounts(m map[string]int) []typeCount {
	out := make([]typeCount, 0, len(m))
	for k, v := range m {
		out = append(out, typeCount{Type: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// GenerateMarkdown renders the full migration report as Markdown.
func GenerateMarkdown(result *models.AnalysisResult, cfg *config.Config) string {
	return generateMarkdownAt(result, cfg, time.Now())
}

func generateMarkdownAt(result *models.AnalysisResult, cfg *config.Config, now time.Time) string {
	var b strings.Builder

	library := "numpy"
	if cfg != nil {
		library = cfg.Analysis.Library
	}

	b.WriteString("# NumPy Migration Compatibility Report\n\n")
	fmt.Fprintf(&b, "**Generated**: %s  \n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Library**: %s  \n\n", library)
	b.WriteString("---\n")

	// Summary
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Files scanned**: %d\n", result.Files)
	if result.SkippedFiles > 0 {
		fmt.Fprintf(&b, "- **Files skipped**: %d\n", result.SkippedFiles)
	}
	fmt.Fprintf(&b, "- **Total findings**: %d\n", result.TotalFindings)
	fmt.Fprintf(&b, "- **Files with findings**: %d\n\n", result.FilesWithFindings())

	if len(result.ByChangeType) > 0 {
		b.WriteString("### Findings by Change Type\n\n")
		counts := make(map[string]int, len(result.ByChangeType))
		for ct, n := range result.ByChangeType {
			counts[string(ct)] = n
		}
		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(&b, "- **%s**: %d\n", t, counts[t])
		}
		b.WriteString("\n")
	}

	if len(result.BySeverity) > 0 {
		b.WriteString("### Findings by Severity\n\n")
		for _, severity := range models.SeveritiesDescending {
			if n := result.BySeverity[severity]; n > 0 {
				fmt.Fprintf(&b, "- **%s**: %d\n", severity, n)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")

	// Per-file detail
	b.WriteString("## Findings\n\n")
	if result.TotalFindings == 0 {
		b.WriteString("No compatibility issues detected.\n\n")
	} else {
		byFile := make(map[string][]models.Finding)
		for _, f := range result.Findings {
			byFile[f.File] = append(byFile[f.File], f)
		}
		files := make([]string, 0, len(byFile))
		for f := range byFile {
			files = append(files, f)
		}
		sort.Strings(files)

		for _, file := range files {
			findings := SortFindings(byFile[file])
			fmt.Fprintf(&b, "### File: `%s`\n\n", file)
			fmt.Fprintf(&b, "**%d finding(s)**\n\n", len(findings))

			for i, f := range findings {
				fmt.Fprintf(&b, "#### Finding %d: `%s`\n\n", i+1, f.APIName)
				fmt.Fprintf(&b, "- **Location**: line %d, column %d\n", f.Line, f.Column)
				fmt.Fprintf(&b, "- **Called as**: `%s`\n", f.ActualCall)
				fmt.Fprintf(&b, "- **Change type**: %s\n", f.ChangeType)
				fmt.Fprintf(&b, "- **Severity**: %s\n", f.Severity)
				if f.SinceVersion != "" {
					fmt.Fprintf(&b, "- **Since version**: %s\n", f.SinceVersion)
				}
				if f.Description != "" {
					fmt.Fprintf(&b, "- **Description**: %s\n", f.Description)
				}
				if f.Suggestion != "" {
					fmt.Fprintf(&b, "- **Suggested fix**: %s\n", f.Suggestion)
				}
				b.WriteString("\n**Code context**:\n\n")
				b.WriteString(formatSnippetMarkdown(extractSnippet(f.File, f.Line)))
				b.WriteString("\n---\n")
			}
			b.WriteString("\n")
		}
	}

	// Recommendations
	b.WriteString("## Recommendations\n\n")
	rec := buildRecommendations(result.Findings)
	for _, severity := range models.SeveritiesDescending {
		group, ok := rec.BySeverity[severity]
		if !ok || group.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s priority (%d finding(s))\n\n", strings.ToUpper(string(severity)), group.Count)
		if len(group.TopTypes) > 0 {
			b.WriteString("**Main change types**:\n\n")
			for _, tc := range group.TopTypes {
				fmt.Fprintf(&b, "- %s: %d\n", tc.Type, tc.Count)
			}
			b.WriteString("\n")
		}
		if len(group.Examples) > 0 {
			b.WriteString("**Examples**:\n\n")
			for _, ex := range group.Examples {
				fmt.Fprintf(&b, "1. **`%s`** (line %d)\n", ex.APIName, ex.Line)
				if ex.Description != "" {
					fmt.Fprintf(&b, "   - Issue: %s\n", ex.Description)
				}
				if ex.Suggestion != "" {
					fmt.Fprintf(&b, "   - Fix: %s\n", ex.Suggestion)
				}
				b.WriteString("\n")
			}
		}
	}

	if len(rec.CommonFixes) > 0 {
		b.WriteString("### Common fix patterns\n\n")
		b.WriteString("These suggestions occur repeatedly across the codebase:\n\n")
		for _, fix := range rec.CommonFixes {
			fmt.Fprintf(&b, "- **%d occurrence(s)**: %s\n", fix.Count, fix.Type)
		}
		b.WriteString("\n")
	}

	// Conclusion
	b.WriteString("## Conclusion\n\n")
	b.WriteString(ConclusionFor(result.TotalFindings) + "\n\n")
	b.WriteString("### Next steps\n\n")
	b.WriteString("1. Fix **high** severity findings first\n")
	b.WriteString("2. Audit **removed** API calls, they no longer exist in NumPy 2.0\n")
	b.WriteString("3. Re-run the analysis and your test suite after each change\n")
	b.WriteString("4. Update your NumPy version requirement once clean\n\n")
	b.WriteString("---\n")
	b.WriteString("*Report generated by numpycheck*\n")

	return b.String()
}

// WriteMarkdownReport writes a timestamped Markdown report plus the raw
// result data as JSON into the report directory. It returns the paths of
// the files it created.
func WriteMarkdownReport(result *models.AnalysisResult, cfg *config.Config) ([]string, error) {
	now := time.Now()
	dir := reportDir(cfg)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	mdPath := filepath.Join(dir, fmt.Sprintf("numpy_migration_report_%s.md", now.Format("20060102_150405")))
	if err := os.WriteFile(mdPath, []byte(generateMarkdownAt(result, cfg, now)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write markdown report: %w", err)
	}

	jsonPath, err := writeDataJSON(result, dir)
	if err != nil {
		return nil, err
	}
	return []string{mdPath, jsonPath}, nil
}

func writeDataJSON(result *models.AnalysisResult, dir string) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report data: %w", err)
	}
	path := filepath.Join(dir, "report_data.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report data: %w", err)
	}
	return path, nil
}

func reportDir(cfg *config.Config) string {
	if cfg != nil && cfg.Output.ReportDir != "" {
		return cfg.Output.ReportDir
	}
	return "reports"
}
