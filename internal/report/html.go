package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"numpycheck/internal/config"
	"numpycheck/internal/models"
)

var htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>NumPy Migration Compatibility Report</title>
<style>
body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
    line-height: 1.6;
    color: #333;
    max-width: 1200px;
    margin: 0 auto;
    padding: 20px;
    background-color: #f5f5f5;
}
.container {
    background-color: white;
    border-radius: 8px;
    box-shadow: 0 2px 10px rgba(0,0,0,0.1);
    padding: 30px;
    margin-bottom: 30px;
}
h1, h2, h3, h4 {
    color: #2c3e50;
    margin-top: 1.5em;
    padding-bottom: 0.3em;
    border-bottom: 1px solid #eaecef;
}
h1 {
    color: #1a237e;
    border-bottom: 2px solid #1a237e;
}
code {
    background-color: #f6f8fa;
    padding: 2px 6px;
    border-radius: 3px;
    font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
    font-size: 0.9em;
}
pre {
    background-color: #f6f8fa;
    padding: 16px;
    border-radius: 6px;
    overflow: auto;
}
table {
    border-collapse: collapse;
    width: 100%%;
    margin: 1em 0;
}
th, td {
    border: 1px solid #dfe2e5;
    padding: 8px 12px;
    text-align: left;
}
th {
    background-color: #f6f8fa;
    font-weight: 600;
}
.footer {
    margin-top: 3em;
    padding-top: 1em;
    border-top: 1px solid #eaecef;
    text-align: center;
    color: #6c757d;
    font-size: 0.9em;
}
</style>
</head>
<body>
<div class="container">
%s
</div>
<div class="footer">
<p>Report generated by numpycheck | %s</p>
</div>
</body>
</html>
`

// GenerateHTML renders the Markdown report and wraps it in a styled HTML
// document.
func GenerateHTML(result *models.AnalysisResult, cfg *config.Config) (string, error) {
	return generateHTMLAt(result, cfg, time.Now())
}

func generateHTMLAt(result *models.AnalysisResult, cfg *config.Config, now time.Time) (string, error) {
	md := generateMarkdownAt(result, cfg, now)

	converter := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := converter.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render HTML report: %w", err)
	}

	return fmt.Sprintf(htmlShell, buf.String(), now.Format("2006-01-02")), nil
}

// WriteHTMLReport writes a timestamped HTML report plus the raw result data
// as JSON into the report directory.
func WriteHTMLReport(result *models.AnalysisResult, cfg *config.Config) ([]string, error) {
	now := time.Now()
	dir := reportDir(cfg)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	html, err := generateHTMLAt(result, cfg, now)
	if err != nil {
		return nil, err
	}

	htmlPath := filepath.Join(dir, fmt.Sprintf("numpy_migration_report_%s.html", now.Format("20060102_150405")))
	if err := os.WriteFile(htmlPath, []byte(html), 0644); err != nil {
		return nil, fmt.Errorf("failed to write html report: %w", err)
	}

	jsonPath, err := writeDataJSON(result, dir)
	if err != nil {
		return nil, err
	}
	return []string{htmlPath, jsonPath}, nil
}
