package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"numpycheck/internal/config"
	"numpycheck/internal/models"
)

// Generator handles formatting and displaying analysis results
type Generator struct {
	format string
	config *config.Config
}

// NewGenerator creates a generator with the given output format
func NewGenerator(format string) *Generator {
	return &Generator{
		format: format,
		config: config.DefaultConfig(),
	}
}

func NewGeneratorWithConfig(cfg *config.Config) *Generator {
	return &Generator{
		format: cfg.Output.Format,
		config: cfg,
	}
}

// Generate creates a formatted report from analysis results
func (g *Generator) Generate(result *models.AnalysisResult) string {
	switch g.format {
	case "json":
		return g.generateJSON(result)
	case "markdown":
		return GenerateMarkdown(result, g.config)
	default:
		return g.generateConsole(result)
	}
}

// generateJSON creates a JSON report
func (g *Generator) generateJSON(result *models.AnalysisResult) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating JSON report: %v", err)
	}
	return string(data)
}

// generateConsole creates a colorized console report
func (g *Generator) generateConsole(result *models.AnalysisResult) string {
	var report strings.Builder

	useColors := true
	verbose := false
	showSuggestions := true

	if g.config != nil {
		useColors = g.config.Output.Colors
		verbose = g.config.Output.Verbose
		showSuggestions = g.config.Output.ShowSuggestions
	}

	// Header
	if useColors {
		report.WriteString(color.CyanString("🔍 NumpyCheck Compatibility Report\n"))
		report.WriteString(color.WhiteString("═══════════════════════════════════════\n\n"))
	} else {
		report.WriteString("NumpyCheck Compatibility Report\n")
		report.WriteString("=======================================\n\n")
	}

	if verbose && g.config != nil {
		g.writeConfigInfo(&report, useColors)
	}

	g.writeSummary(&report, result, useColors)

	if len(result.Findings) > 0 {
		g.writeSeveritySummary(&report, result, useColors)
		g.writeChangeTypeSummary(&report, result, useColors)

		if showSuggestions {
			report.WriteString("\n")
			g.writeDetailedFindings(&report, result, useColors)
		}
	} else {
		if useColors {
			report.WriteString(color.GreenString("🎉 No deprecated or removed API usage detected!\n\n"))
		} else {
			report.WriteString("No deprecated or removed API usage detected!\n\n")
		}
	}

	g.writeConclusion(&report, result, useColors)

	// Footer
	if useColors {
		report.WriteString(color.WhiteString("Analysis completed in %s\n", result.AnalysisDuration))
	} else {
		report.WriteString(fmt.Sprintf("Analysis completed in %s\n", result.AnalysisDuration))
	}

	return report.String()
}

// getSeverityDisplay returns emoji and color function for a severity level
func (g *Generator) getSeverityDisplay(severity models.Severity) (string, func(a ...interface{}) string) {
	switch severity {
	case models.SeverityHigh:
		return "🚨", color.New(color.FgRed, color.Bold).SprintFunc()
	case models.SeverityMedium:
		return "⚠️", color.New(color.FgYellow).SprintFunc()
	case models.SeverityLow:
		return "ℹ️", color.New(color.FgBlue).SprintFunc()
	default:
		return "❓", color.New(color.FgWhite).SprintFunc()
	}
}

func (g *Generator) writeConfigInfo(report *strings.Builder, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("📋 Configuration:\n"))
		report.WriteString(fmt.Sprintf("   Library: %s\n", color.CyanString(g.config.Analysis.Library)))
		report.WriteString(fmt.Sprintf("   Rules: %s\n", color.CyanString(g.config.Analysis.RulesPath)))
		report.WriteString(fmt.Sprintf("   Workers: %s\n", color.CyanString("%d", g.config.Analysis.MaxWorkers)))
	} else {
		report.WriteString("Configuration:\n")
		report.WriteString(fmt.Sprintf("   Library: %s\n", g.config.Analysis.Library))
		report.WriteString(fmt.Sprintf("   Rules: %s\n", g.config.Analysis.RulesPath))
		report.WriteString(fmt.Sprintf("   Workers: %d\n", g.config.Analysis.MaxWorkers))
	}
	report.WriteString("\n")
}

func (g *Generator) writeSummary(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("📊 Summary:\n"))
	} else {
		report.WriteString("Summary:\n")
	}
	report.WriteString(fmt.Sprintf("   Files analyzed: %d\n", result.Files))
	if result.SkippedFiles > 0 {
		report.WriteString(fmt.Sprintf("   Files skipped: %d\n", result.SkippedFiles))
	}
	report.WriteString(fmt.Sprintf("   Findings: %d\n", result.TotalFindings))
	report.WriteString("\n")
}

func (g *Generator) writeSeveritySummary(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("📋 Findings by Severity:\n"))
	} else {
		report.WriteString("Findings by Severity:\n")
	}

	for _, severity := range models.SeveritiesDescending {
		count := result.BySeverity[severity]
		if count > 0 {
			if useColors {
				emoji, colorFunc := g.getSeverityDisplay(severity)
				countText := colorFunc(fmt.Sprintf("%d", count))
				report.WriteString(fmt.Sprintf("   %s %s: %s\n", emoji, strings.ToUpper(string(severity)), countText))
			} else {
				report.WriteString(fmt.Sprintf("   %s: %d\n", strings.ToUpper(string(severity)), count))
			}
		}
	}
}

func (g *Generator) writeChangeTypeSummary(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	types := make([]string, 0, len(result.ByChangeType))
	for ct := range result.ByChangeType {
		types = append(types, string(ct))
	}
	sort.Strings(types)

	if useColors {
		report.WriteString(color.WhiteString("\n📋 Findings by Change Type:\n"))
	} else {
		report.WriteString("\nFindings by Change Type:\n")
	}
	for _, ct := range types {
		report.WriteString(fmt.Sprintf("   %s: %d\n", ct, result.ByChangeType[models.ChangeType(ct)]))
	}
}

func (g *Generator) writeDetailedFindings(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("\n🔍 Detailed Findings:\n"))
	} else {
		report.WriteString("\nDetailed Findings:\n")
	}
	report.WriteString(strings.Repeat("─", 50) + "\n\n")

	for i, finding := range SortFindings(result.Findings) {
		g.writeFindingDetail(report, finding, i+1, useColors)
		report.WriteString("\n")
	}
}

func (g *Generator) writeFindingDetail(report *strings.Builder, f models.Finding, index int, useColors bool) {
	if useColors {
		emoji, severityColor := g.getSeverityDisplay(f.Severity)

		report.WriteString(fmt.Sprintf("%s Finding #%d - %s %s\n",
			emoji, index, severityColor(strings.ToUpper(string(f.Severity))),
			color.WhiteString(strings.ToUpper(string(f.ChangeType)))))

		report.WriteString(color.CyanString("   📍 Location: %s:%d:%d\n", f.File, f.Line, f.Column))
		report.WriteString(color.WhiteString("   💭 API: %s (called as '%s')\n", f.APIName, f.ActualCall))
		if f.SinceVersion != "" {
			report.WriteString(color.YellowString("   📊 Since version: %s\n", f.SinceVersion))
		}
		if f.Description != "" {
			report.WriteString(color.WhiteString("   💬 %s\n", f.Description))
		}
		if f.Suggestion != "" {
			report.WriteString(color.GreenString("   💡 Suggestion: %s\n", f.Suggestion))
		}
	} else {
		report.WriteString(fmt.Sprintf("Finding #%d - %s %s\n",
			index, strings.ToUpper(string(f.Severity)), strings.ToUpper(string(f.ChangeType))))

		report.WriteString(fmt.Sprintf("   Location: %s:%d:%d\n", f.File, f.Line, f.Column))
		report.WriteString(fmt.Sprintf("   API: %s (called as '%s')\n", f.APIName, f.ActualCall))
		if f.SinceVersion != "" {
			report.WriteString(fmt.Sprintf("   Since version: %s\n", f.SinceVersion))
		}
		if f.Description != "" {
			report.WriteString(fmt.Sprintf("   %s\n", f.Description))
		}
		if f.Suggestion != "" {
			report.WriteString(fmt.Sprintf("   Suggestion: %s\n", f.Suggestion))
		}
	}
}

func (g *Generator) writeConclusion(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	text := ConclusionFor(result.TotalFindings)
	if useColors {
		switch {
		case result.TotalFindings == 0:
			report.WriteString(color.GreenString("%s\n\n", text))
		case result.TotalFindings < 10:
			report.WriteString(color.YellowString("%s\n\n", text))
		default:
			report.WriteString(color.RedString("%s\n\n", text))
		}
	} else {
		report.WriteString(text + "\n\n")
	}
}

// SortFindings orders findings by severity (highest first), then by file,
// line, and column so the output is stable between runs.
func SortFindings(findings []models.Finding) []models.Finding {
	sorted := make([]models.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Severity.Rank(), sorted[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}
		return sorted[i].Column < sorted[j].Column
	})
	return sorted
}

// ConclusionFor maps a finding count to the report conclusion tier.
func ConclusionFor(total int) string {
	switch {
	case total == 0:
		return "✅ The codebase appears compatible with the current NumPy API."
	case total < 10:
		return "⚠️ A small number of compatibility issues were found. Migration should be straightforward."
	default:
		return "🚨 Significant use of deprecated or removed APIs detected. Plan a dedicated migration effort."
	}
}
