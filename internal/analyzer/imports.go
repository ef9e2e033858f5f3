package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"numpycheck/internal/models"
)

// ImportBindings tracks which local names in one file denote the target
// library. Rebuilt fresh for every file; never shared across files.
type ImportBindings struct {
	// RootAliases holds local names bound to the library's root namespace
	// ("numpy" itself, "np" from an aliased import, or a submodule token
	// established by a from-import).
	RootAliases map[string]bool

	// SymbolOrigins maps a local name to the fully-qualified dotted path of
	// the object it denotes: "from numpy import product as prod" yields
	// prod -> numpy.product, "import numpy.random as nr" yields
	// nr -> numpy.random. The local name never appears in the path.
	SymbolOrigins map[string]string
}

func NewImportBindings() *ImportBindings {
	return &ImportBindings{
		RootAliases:   make(map[string]bool),
		SymbolOrigins: make(map[string]string),
	}
}

// importTracker feeds import statements into ImportBindings and keeps the
// per-file import log handed back alongside findings.
type importTracker struct {
	library  string
	file     string
	bindings *ImportBindings
	records  []models.ImportRecord
}

func newImportTracker(library, file string) *importTracker {
	return &importTracker{
		library:  library,
		file:     file,
		bindings: NewImportBindings(),
	}
}

// visitImport handles "import foo" and "import foo as bar" statements.
func (t *importTracker) visitImport(node *sitter.Node, src []byte) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			path := nodeText(child, src)
			// Only an import of the library itself counts; "import foo.numpy"
			// binds foo, which is not the library.
			if rootSegment(path) != t.library {
				continue
			}
			// "import numpy.random" still binds the local name "numpy".
			t.bindings.RootAliases[rootSegment(path)] = true
			t.record(node, path, "", nil, false)

		case "aliased_import":
			var path, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					path = nodeText(gc, src)
				case "identifier":
					alias = nodeText(gc, src)
				}
			}
			if path == "" || rootSegment(path) != t.library {
				continue
			}
			if path == t.library {
				t.bindings.RootAliases[alias] = true
			} else {
				// "import numpy.random as nr": nr stands for the whole
				// submodule path, not the root namespace.
				t.bindings.SymbolOrigins[alias] = path
			}
			t.record(node, path, alias, nil, false)
		}
	}
}

// visitImportFrom handles "from x import a, b as c" and "from x import *".
// Children before the "import" keyword form the module path; children after
// it are the imported names.
func (t *importTracker) visitImportFrom(node *sitter.Node, src []byte) {
	var modulePath string
	var symbols []string
	var wildcard bool
	sawImport := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			modulePath = nodeText(child, src)
		case "dotted_name":
			if !sawImport {
				modulePath = nodeText(child, src)
			} else {
				name := nodeText(child, src)
				symbols = append(symbols, name)
				t.addSymbol(name, name, modulePath)
			}
		case "identifier":
			if sawImport {
				name := nodeText(child, src)
				symbols = append(symbols, name)
				t.addSymbol(name, name, modulePath)
			}
		case "aliased_import":
			var name, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					if name == "" {
						name = nodeText(gc, src)
					}
				case "identifier":
					if name == "" {
						name = nodeText(gc, src)
					} else {
						alias = nodeText(gc, src)
					}
				}
			}
			if name == "" {
				continue
			}
			local := name
			if alias != "" {
				local = alias
				symbols = append(symbols, name+" as "+alias)
			} else {
				symbols = append(symbols, name)
			}
			t.addSymbol(local, name, modulePath)
		case "wildcard_import":
			wildcard = true
		}
	}

	if modulePath == "" || !t.pathTouchesLibrary(modulePath) {
		return
	}

	// "from numpy.random import x" makes "random" a usable namespace token
	// even though it was never imported as one.
	t.bindings.RootAliases[lastSegment(modulePath)] = true

	rec := models.ImportRecord{
		File:     t.file,
		Line:     int(node.StartPoint().Row) + 1,
		Module:   modulePath,
		Symbols:  symbols,
		Wildcard: wildcard,
	}
	t.records = append(t.records, rec)
}

// addSymbol registers one from-imported symbol under its effective local
// name, mapped to the symbol's full dotted path. The original name goes into
// the path even when an "as" alias renames it locally. Star imports are
// never expanded; the member set is unknowable from syntax.
func (t *importTracker) addSymbol(local, name, modulePath string) {
	if modulePath == "" || !t.pathTouchesLibrary(modulePath) {
		return
	}
	t.bindings.SymbolOrigins[local] = modulePath + "." + name
}

func (t *importTracker) record(node *sitter.Node, module, alias string, symbols []string, wildcard bool) {
	t.records = append(t.records, models.ImportRecord{
		File:     t.file,
		Line:     int(node.StartPoint().Row) + 1,
		Module:   module,
		Alias:    alias,
		Symbols:  symbols,
		Wildcard: wildcard,
	})
}

// pathTouchesLibrary reports whether the library name appears as a segment
// anywhere in the dotted module path.
func (t *importTracker) pathTouchesLibrary(path string) bool {
	for _, seg := range strings.Split(path, ".") {
		if seg == t.library {
			return true
		}
	}
	return false
}

func rootSegment(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func nodeText(n *sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}
