package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"numpycheck/internal/models"
	"numpycheck/internal/rules"
)

// Detector analyzes one file per invocation: it parses the source into a
// syntax tree and runs a single top-to-bottom pass that feeds import
// statements into a fresh import tracker and every call expression through
// the resolver and matcher. No state survives between files.
type Detector struct {
	table   *rules.Table
	library string
	logger  *slog.Logger
}

func NewDetector(table *rules.Table, library string, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Detector{table: table, library: library, logger: logger}
}

// AnalyzeFile reads and analyzes one Python file.
func (d *Detector) AnalyzeFile(ctx context.Context, path string) ([]models.Finding, []models.ImportRecord, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d.AnalyzeSource(ctx, src, path)
}

// AnalyzeSource analyzes Python source text. A file that does not parse
// returns ParseError so the caller can skip it and continue the batch.
// Running twice on identical input yields identical findings.
func (d *Detector) AnalyzeSource(ctx context.Context, src []byte, path string) ([]models.Finding, []models.ImportRecord, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, nil, &ParseError{File: path, Reason: "source contains syntax errors"}
	}

	tracker := newImportTracker(d.library, path)
	res := &resolver{library: d.library, bindings: tracker.bindings}
	m := &matcher{table: d.table, file: path}

	d.walk(root, src, tracker, res, m)

	d.logger.Debug("file analyzed",
		slog.String("file", path),
		slog.Int("findings", len(m.findings)),
		slog.Int("imports", len(tracker.records)))

	return m.findings, tracker.records, nil
}

// walk visits every node exactly once in document order. Bindings assemble
// lazily within the same pass, so a call preceding its governing import
// simply fails to resolve — the correct behavior of a single top-to-bottom
// pass, not a defect.
func (d *Detector) walk(node *sitter.Node, src []byte, tracker *importTracker, res *resolver, m *matcher) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "import_statement":
			tracker.visitImport(child, src)
		case "import_from_statement":
			tracker.visitImportFrom(child, src)
		case "call":
			if callee := child.ChildByFieldName("function"); callee != nil {
				if r, ok := res.resolve(callee, src); ok {
					m.match(r, child, callee, src)
				}
			}
			// Arguments may contain further calls.
			d.walk(child, src, tracker, res, m)
		default:
			d.walk(child, src, tracker, res, m)
		}
	}
}
