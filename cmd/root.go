package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"numpycheck/internal/analyzer"
	"numpycheck/internal/config"
	"numpycheck/internal/models"
	"numpycheck/internal/report"
	"numpycheck/internal/rules"
	"numpycheck/internal/watcher"
)

var (
	formatFlag         string
	rulesFlag          string
	watchFlag          bool
	configFlag         string
	outputFlag         string
	reportDirFlag      string
	generateConfigFlag bool
	verboseFlag        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "numpycheck [files or directories]",
	Short: "A Python static analyzer that detects deprecated and removed NumPy API usage",
	Long: `numpycheck scans Python code for calls to NumPy APIs that were removed,
deprecated, or changed behavior, and suggests migration fixes.

Examples:
  numpycheck .                             # Analyze current directory
  numpycheck src/model.py src/train.py     # Analyze specific files
  numpycheck --format=json .               # Output results in JSON format
  numpycheck --format=markdown .           # Write a markdown report to reports/
  numpycheck --rules=my_rules.json .       # Use a custom rule table
  numpycheck --watch .                     # Re-analyze on file changes
  numpycheck --generate-config             # Generate sample config file`,
	Run: runAnalysis,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format (console, json, markdown, html)")
	rootCmd.Flags().StringVarP(&rulesFlag, "rules", "r", "", "Path to API change rules file")
	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch mode for development")
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Path to configuration file")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.Flags().StringVar(&reportDirFlag, "report-dir", "", "Directory for markdown/html reports")
	rootCmd.Flags().BoolVar(&generateConfigFlag, "generate-config", false, "Generate sample configuration file")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
}

func runAnalysis(cmd *cobra.Command, args []string) {
	if generateConfigFlag {
		generateConfig()
		return
	}

	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		color.Red("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if formatFlag != "" {
		cfg.Output.Format = formatFlag
	}
	if rulesFlag != "" {
		cfg.Analysis.RulesPath = rulesFlag
	}
	if outputFlag != "" {
		cfg.Output.OutputFile = outputFlag
	}
	if reportDirFlag != "" {
		cfg.Output.ReportDir = reportDirFlag
	}
	if verboseFlag {
		cfg.Output.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		color.Red("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Output.Verbose)

	table, err := loadRuleTable(cfg)
	if err != nil {
		var cfgErr *rules.ConfigError
		if errors.As(err, &cfgErr) {
			color.Red("Rule table error: %v\n", cfgErr)
		} else {
			color.Red("Failed to load rules: %v\n", err)
		}
		os.Exit(1)
	}

	if len(args) == 0 {
		args = []string{"."}
	}

	session := analyzer.NewSession(cfg, table, logger)

	if watchFlag {
		runWatch(cfg, session, args)
		return
	}

	exitCode := analyzeOnce(cfg, session, args)
	os.Exit(exitCode)
}

func analyzeOnce(cfg *config.Config, session *analyzer.Session, targets []string) int {
	result, err := session.Run(context.Background(), targets)
	if err != nil {
		color.Red("Analysis failed: %v\n", err)
		return 1
	}

	if result.Files == 0 {
		color.Yellow("⚠️  No Python files found to analyze\n")
		return 0
	}

	switch cfg.Output.Format {
	case "markdown":
		paths, err := report.WriteMarkdownReport(result, cfg)
		if err != nil {
			color.Red("Failed to write report: %v\n", err)
			return 1
		}
		for _, p := range paths {
			color.Green("📄 Report saved to: %s\n", p)
		}
	case "html":
		paths, err := report.WriteHTMLReport(result, cfg)
		if err != nil {
			color.Red("Failed to write report: %v\n", err)
			return 1
		}
		for _, p := range paths {
			color.Green("📄 Report saved to: %s\n", p)
		}
	default:
		out := report.NewGeneratorWithConfig(cfg).Generate(result)
		if cfg.Output.OutputFile != "" {
			if err := writeReportToFile(out, cfg.Output.OutputFile); err != nil {
				color.Red("Failed to write report to file: %v\n", err)
				return 1
			}
			color.Green("📄 Report saved to: %s\n", cfg.Output.OutputFile)
		} else {
			fmt.Print(out)
		}
	}

	if gate := cfg.Analysis.FailOnSeverity; gate != "" {
		if result.MaxSeverityRank() >= models.Severity(gate).Rank() && result.TotalFindings > 0 {
			return 1
		}
	}
	return 0
}

func runWatch(cfg *config.Config, session *analyzer.Session, targets []string) {
	fw, err := watcher.NewFileWatcher(cfg, newLogger(cfg.Output.Verbose))
	if err != nil {
		color.Red("Failed to start watch mode: %v\n", err)
		os.Exit(1)
	}
	defer fw.Close()

	handler := func(changed []string) error {
		color.Cyan("\n🔄 Changes detected in %d file(s), re-analyzing...\n\n", len(changed))
		analyzeOnce(cfg, session, targets)
		return nil
	}

	if err := fw.Watch(targets, handler); err != nil {
		color.Red("Failed to watch paths: %v\n", err)
		os.Exit(1)
	}

	color.Cyan("👀 Watching %d directories for changes (ctrl-c to stop)\n\n", len(fw.GetWatchedPaths()))
	analyzeOnce(cfg, session, targets)
	select {}
}

func loadRuleTable(cfg *config.Config) (*rules.Table, error) {
	list, err := rules.Load(cfg.Analysis.RulesPath)
	if err != nil {
		return nil, err
	}
	return rules.NewTable(list, cfg.Analysis.StripPrefixes)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func writeReportToFile(report, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, []byte(report), 0644)
}

func generateConfig() {
	configPath := ".numpycheck.yml"
	if err := config.GenerateConfig(configPath); err != nil {
		color.Red("Failed to generate config file: %v\n", err)
		os.Exit(1)
	}
	color.Green("✅ Generated sample configuration file: %s\n", configPath)
	color.Cyan("📝 Edit this file to customize numpycheck behavior\n")
	color.Cyan("🚀 Run 'numpycheck --config=%s .' to use it\n", configPath)
}
