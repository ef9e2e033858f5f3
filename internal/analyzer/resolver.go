package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Resolution maps a call expression back to the library API it names.
type Resolution struct {
	// Name is the fully-qualified API name with the library root stripped,
	// the form rule tables are keyed by.
	Name string
	// Alias is the local token the call was reached through.
	Alias string
	// FullPath is the complete dotted path before prefix stripping.
	FullPath string
}

// resolver turns callee expressions into Resolutions using one file's
// import bindings.
type resolver struct {
	library  string
	bindings *ImportBindings
}

// resolve returns the Resolution for a callee node, or ok=false when the
// call cannot be traced to the tracked library. Unresolved is a designed
// outcome, not an error: such calls are silently excluded from findings.
func (r *resolver) resolve(callee *sitter.Node, src []byte) (Resolution, bool) {
	segments, ok := unwindChain(callee, src)
	if !ok || len(segments) == 0 {
		return Resolution{}, false
	}

	root := segments[0]

	if len(segments) > 1 {
		if r.bindings.RootAliases[root] {
			return Resolution{
				Name:     strings.Join(segments[1:], "."),
				Alias:    root,
				FullPath: strings.Join(segments, "."),
			}, true
		}
		if path, ok := r.bindings.SymbolOrigins[root]; ok {
			return r.stripLibraryPrefix(path+"."+strings.Join(segments[1:], "."), root)
		}
		return Resolution{}, false
	}

	// Bare identifier call: resolvable only when the symbol was imported.
	if path, ok := r.bindings.SymbolOrigins[root]; ok {
		return r.stripLibraryPrefix(path, root)
	}
	return Resolution{}, false
}

// stripLibraryPrefix keeps only paths rooted in the tracked library.
func (r *resolver) stripLibraryPrefix(full, alias string) (Resolution, bool) {
	prefix := r.library + "."
	if !strings.HasPrefix(full, prefix) {
		return Resolution{}, false
	}
	return Resolution{
		Name:     strings.TrimPrefix(full, prefix),
		Alias:    alias,
		FullPath: full,
	}, true
}

// unwindChain flattens an attribute-access callee (a.b.c) into its dotted
// segments. The unwind only succeeds when the terminal root is a bare
// identifier; a chain rooted in a call result, subscript, or literal yields
// no match, so e.g. self.np.foo() stays unresolved.
func unwindChain(node *sitter.Node, src []byte) ([]string, bool) {
	switch node.Type() {
	case "identifier":
		return []string{nodeText(node, src)}, true
	case "attribute":
		obj := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return nil, false
		}
		head, ok := unwindChain(obj, src)
		if !ok {
			return nil, false
		}
		return append(head, nodeText(attr, src)), true
	default:
		return nil, false
	}
}
