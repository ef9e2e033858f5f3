package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"numpycheck/internal/config"
	"numpycheck/internal/models"
	"numpycheck/internal/rules"
)

// Session runs the detector across a set of files or directories and
// aggregates the per-file results into one AnalysisResult.
type Session struct {
	cfg    *config.Config
	table  *rules.Table
	logger *slog.Logger
}

func NewSession(cfg *config.Config, table *rules.Table, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{cfg: cfg, table: table, logger: logger}
}

type fileResult struct {
	findings []models.Finding
	imports  []models.ImportRecord
	skipped  bool
}

// Run analyzes every Python file reachable from targets. Files that fail to
// parse are recorded as skipped and never abort the batch. Findings are
// aggregated in input order regardless of worker count, so repeated runs on
// the same tree produce identical output.
func (s *Session) Run(ctx context.Context, targets []string) (*models.AnalysisResult, error) {
	start := time.Now()

	files, err := s.collectPythonFiles(targets)
	if err != nil {
		return nil, err
	}
	s.logger.Info("analysis started",
		slog.Int("files", len(files)),
		slog.Int("workers", s.cfg.Analysis.MaxWorkers))

	results := make([]fileResult, len(files))
	workers := s.cfg.Analysis.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	if workers <= 1 {
		for i, f := range files {
			results[i] = s.analyzeOne(ctx, f)
		}
	} else {
		work := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range work {
					results[i] = s.analyzeOne(ctx, files[i])
				}
			}()
		}
		for i := range files {
			select {
			case work <- i:
			case <-ctx.Done():
			}
		}
		close(work)
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	result := models.NewAnalysisResult()
	result.Files = len(files)
	for _, fr := range results {
		if fr.skipped {
			result.SkippedFiles++
			continue
		}
		for _, f := range fr.findings {
			result.AddFinding(f)
		}
		result.Imports = append(result.Imports, fr.imports...)
	}
	result.AnalysisDuration = time.Since(start)

	s.logger.Info("analysis finished",
		slog.Int("findings", result.TotalFindings),
		slog.Int("skipped", result.SkippedFiles),
		slog.Duration("duration", result.AnalysisDuration))
	return result, nil
}

func (s *Session) analyzeOne(ctx context.Context, path string) fileResult {
	det := NewDetector(s.table, s.cfg.Analysis.Library, s.logger)
	findings, imports, err := det.AnalyzeFile(ctx, path)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			s.logger.Warn("file skipped", slog.String("file", path), slog.String("reason", pe.Reason))
			return fileResult{skipped: true}
		}
		s.logger.Warn("file skipped", slog.String("file", path), slog.String("reason", err.Error()))
		return fileResult{skipped: true}
	}
	return fileResult{findings: findings, imports: imports}
}

var skipDirs = map[string]bool{
	"__pycache__":  true,
	".git":         true,
	".idea":        true,
	"venv":         true,
	".venv":        true,
	"build":        true,
	"dist":         true,
	"node_modules": true,
}

func (s *Session) collectPythonFiles(targets []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string, info os.FileInfo) {
		if seen[path] {
			return
		}
		if s.excluded(path) {
			return
		}
		if s.cfg.Files.MaxFileSize > 0 && info.Size() > int64(s.cfg.Files.MaxFileSize)*1024 {
			s.logger.Debug("file too large", slog.String("file", path))
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			if strings.HasSuffix(target, ".py") {
				add(target, info)
			}
			continue
		}
		err = filepath.Walk(target, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if skipDirs[info.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".py") {
				add(path, info)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", target, err)
		}
	}
	return files, nil
}

func (s *Session) excluded(path string) bool {
	for _, pattern := range s.cfg.Files.Exclude {
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
		// "venv/*" means any path with a venv directory segment, not any
		// path containing the substring.
		if strings.HasSuffix(pattern, "/*") && hasSegment(path, strings.TrimSuffix(pattern, "/*")) {
			return true
		}
	}
	return false
}

func hasSegment(path, dir string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == dir {
			return true
		}
	}
	return false
}
