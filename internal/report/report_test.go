package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numpycheck/internal/config"
	"numpycheck/internal/models"
)

func sampleResult(t *testing.T) *models.AnalysisResult {
	t.Helper()
	result := models.NewAnalysisResult()
	result.Files = 3
	result.AddFinding(models.Finding{
		File: "a.py", Line: 2, Column: 1,
		APIName: "geterrobj", ActualCall: "np.geterrobj",
		ChangeType: models.ChangeRemoved, Severity: models.SeverityHigh,
		Description: "removed in 2.0", Suggestion: "Use np.geterr() instead.",
		SinceVersion: "2.0",
	})
	result.AddFinding(models.Finding{
		File: "b.py", Line: 5, Column: 9,
		APIName: "row_stack", ActualCall: "np.row_stack",
		ChangeType: models.ChangeDeprecated, Severity: models.SeverityLow,
		Suggestion: "Use np.vstack instead.",
	})
	return result
}

func plainConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.Colors = false
	return cfg
}

func TestConsoleReport(t *testing.T) {
	out := NewGeneratorWithConfig(plainConfig()).Generate(sampleResult(t))

	assert.Contains(t, out, "Files analyzed: 3")
	assert.Contains(t, out, "Findings: 2")
	assert.Contains(t, out, "HIGH: 1")
	assert.Contains(t, out, "LOW: 1")
	assert.Contains(t, out, "a.py:2:1")
	assert.Contains(t, out, "Use np.geterr() instead.")
	// high severity listed before low
	assert.Less(t, strings.Index(out, "geterrobj"), strings.Index(out, "row_stack"))
}

func TestConsoleReportNoFindings(t *testing.T) {
	result := models.NewAnalysisResult()
	result.Files = 1

	out := NewGeneratorWithConfig(plainConfig()).Generate(result)
	assert.Contains(t, out, "No deprecated or removed API usage detected!")
}

func TestConsoleReportHidesSuggestions(t *testing.T) {
	cfg := plainConfig()
	cfg.Output.ShowSuggestions = false

	out := NewGeneratorWithConfig(cfg).Generate(sampleResult(t))
	assert.NotContains(t, out, "Use np.geterr() instead.")
	assert.Contains(t, out, "HIGH: 1")
}

func TestJSONReportRoundTrips(t *testing.T) {
	cfg := plainConfig()
	cfg.Output.Format = "json"

	out := NewGeneratorWithConfig(cfg).Generate(sampleResult(t))

	var decoded models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 2, decoded.TotalFindings)
	assert.Equal(t, "geterrobj", decoded.Findings[0].APIName)
}

func TestSortFindings(t *testing.T) {
	findings := []models.Finding{
		{File: "b.py", Line: 9, Severity: models.SeverityLow},
		{File: "a.py", Line: 5, Severity: models.SeverityHigh},
		{File: "a.py", Line: 2, Severity: models.SeverityHigh},
	}

	sorted := SortFindings(findings)
	assert.Equal(t, 2, sorted[0].Line)
	assert.Equal(t, 5, sorted[1].Line)
	assert.Equal(t, models.SeverityLow, sorted[2].Severity)
	// input untouched
	assert.Equal(t, models.SeverityLow, findings[0].Severity)
}

func TestConclusionTiers(t *testing.T) {
	assert.Contains(t, ConclusionFor(0), "compatible")
	assert.Contains(t, ConclusionFor(5), "straightforward")
	assert.Contains(t, ConclusionFor(10), "migration effort")
}

func TestExtractSnippet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code.py")
	require.NoError(t, os.WriteFile(path, []byte("l1\nl2\nl3\nl4\nl5\nl6\n"), 0644))

	s := extractSnippet(path, 3)
	require.True(t, s.OK)
	require.Len(t, s.Lines, 5)
	assert.Equal(t, 1, s.Lines[0].Number)
	assert.Equal(t, "l3", s.Lines[2].Content)
	assert.True(t, s.Lines[2].IsIssue)
	assert.False(t, s.Lines[0].IsIssue)
}

func TestExtractSnippetEdges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code.py")
	require.NoError(t, os.WriteFile(path, []byte("only\n"), 0644))

	s := extractSnippet(path, 1)
	require.True(t, s.OK)
	assert.Len(t, s.Lines, 2) // the line plus the trailing empty line

	s = extractSnippet(path, 99)
	assert.False(t, s.OK)

	s = extractSnippet("missing.py", 1)
	assert.False(t, s.OK)
}

func TestMarkdownReport(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(srcPath, []byte("import numpy as np\nnp.geterrobj()\n"), 0644))

	result := models.NewAnalysisResult()
	result.Files = 1
	result.AddFinding(models.Finding{
		File: srcPath, Line: 2, Column: 1,
		APIName: "geterrobj", ActualCall: "np.geterrobj",
		ChangeType: models.ChangeRemoved, Severity: models.SeverityHigh,
		Suggestion: "Use np.geterr() instead.",
	})

	md := GenerateMarkdown(result, plainConfig())

	assert.Contains(t, md, "# NumPy Migration Compatibility Report")
	assert.Contains(t, md, "`geterrobj`")
	assert.Contains(t, md, "np.geterrobj()  # <<< finding")
	assert.Contains(t, md, "## Recommendations")
	assert.Contains(t, md, "HIGH priority (1 finding(s))")
}

func TestWriteMarkdownReport(t *testing.T) {
	cfg := plainConfig()
	cfg.Output.ReportDir = t.TempDir()

	paths, err := WriteMarkdownReport(sampleResult(t), cfg)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.True(t, strings.HasSuffix(paths[0], ".md"))
	assert.Equal(t, "report_data.json", filepath.Base(paths[1]))
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestHTMLReport(t *testing.T) {
	html, err := GenerateHTML(sampleResult(t), plainConfig())
	require.NoError(t, err)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "geterrobj")
	assert.Contains(t, html, "Report generated by numpycheck")
}

func TestWriteHTMLReport(t *testing.T) {
	cfg := plainConfig()
	cfg.Output.ReportDir = t.TempDir()

	paths, err := WriteHTMLReport(sampleResult(t), cfg)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.True(t, strings.HasSuffix(paths[0], ".html"))
}

func TestBuildRecommendations(t *testing.T) {
	findings := []models.Finding{
		{Severity: models.SeverityHigh, ChangeType: models.ChangeRemoved, Suggestion: "Use np.prod instead."},
		{Severity: models.SeverityHigh, ChangeType: models.ChangeRemoved, Suggestion: "Use np.prod instead."},
		{Severity: models.SeverityLow, ChangeType: models.ChangeDeprecated, Suggestion: "Use np.vstack instead."},
	}

	rec := buildRecommendations(findings)

	high := rec.BySeverity[models.SeverityHigh]
	assert.Equal(t, 2, high.Count)
	require.NotEmpty(t, high.TopTypes)
	assert.Equal(t, "removed", high.TopTypes[0].Type)

	require.NotEmpty(t, rec.CommonFixes)
	assert.Equal(t, "Use np.prod instead.", rec.CommonFixes[0].Type)
	assert.Equal(t, 2, rec.CommonFixes[0].Count)
}
