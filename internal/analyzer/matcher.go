package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"numpycheck/internal/models"
	"numpycheck/internal/rules"
)

// matcher checks resolved names against the rule table and accumulates
// findings for one file.
type matcher struct {
	table    *rules.Table
	file     string
	findings []models.Finding
}

// match applies the exact-then-suffix policy: an exact hit on the full
// resolved name always wins; shrinking-suffix fallback runs only when no
// exact entry exists.
func (m *matcher) match(res Resolution, call, callee *sitter.Node, src []byte) {
	hit, ok := m.table.LookupExact(res.Name)
	if !ok {
		hit, ok = m.table.LookupSuffix(res.Name)
	}
	if !ok {
		return
	}

	m.findings = append(m.findings, models.Finding{
		File:         m.file,
		Line:         int(call.StartPoint().Row) + 1,
		Column:       int(call.StartPoint().Column) + 1,
		APIName:      hit.Canonical,
		ActualCall:   nodeText(callee, src),
		ChangeType:   hit.ChangeType,
		Severity:     hit.Severity,
		Description:  hit.Description,
		Suggestion:   hit.Suggestion,
		SinceVersion: hit.SinceVersion,
	})
}
