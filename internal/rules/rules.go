package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"numpycheck/internal/models"
)

// Rule describes one API change between library versions. Rules are loaded
// once per run and never mutated afterwards.
type Rule struct {
	APIName      string            `json:"api_name"`
	ChangeType   models.ChangeType `json:"change_type"`
	Severity     models.Severity   `json:"severity"`
	Description  string            `json:"description"`
	Suggestion   string            `json:"suggestion"`
	SinceVersion string            `json:"since_version"`
}

// ConfigError reports a malformed rule table. It is fatal: the whole run
// aborts before any file is analyzed.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "invalid rule configuration"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads a JSON rule file and returns the parsed rule list. File and
// format problems surface as ConfigError so callers can fail fast.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Reason: "cannot read rule file", Err: err}
	}

	var list []Rule
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &ConfigError{Path: path, Reason: "rule file is not a JSON list of rules", Err: err}
	}
	return list, nil
}

// Match is a successful table lookup: the rule, the key that hit, and the
// canonical name the rule was registered under.
type Match struct {
	Rule
	Key       string
	Canonical string
}

type entry struct {
	rule      Rule
	canonical string
}

// Table indexes rules by canonical name and by every right-aligned dotted
// suffix. Read-only after construction; safe to share across goroutines.
type Table struct {
	entries  map[string]entry
	prefixes []string
}

// NewTable validates the rule list and builds the lookup table. For a dotted
// canonical name every right-aligned suffix is registered too, but only when
// the suffix key is still free: the first-registered rule for a given suffix
// wins, later rules targeting the same suffix are shadowed. Lookups must try
// exact before suffix so a deeper rule is never shadowed by a shallower one.
func NewTable(list []Rule, stripPrefixes []string) (*Table, error) {
	t := &Table{
		entries:  make(map[string]entry),
		prefixes: stripPrefixes,
	}

	for i, r := range list {
		if strings.TrimSpace(r.APIName) == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("rule %d is missing api_name", i)}
		}
		if r.ChangeType == "" {
			r.ChangeType = models.ChangeOther
		}
		if !r.ChangeType.Valid() {
			return nil, &ConfigError{Reason: fmt.Sprintf("rule %q has unknown change_type %q", r.APIName, r.ChangeType)}
		}
		if r.Severity == "" {
			r.Severity = models.SeverityUnknown
		}
		if !r.Severity.Valid() {
			return nil, &ConfigError{Reason: fmt.Sprintf("rule %q has unknown severity %q", r.APIName, r.Severity)}
		}

		canonical := t.canonicalize(r.APIName)
		t.register(canonical, canonical, r)

		parts := strings.Split(canonical, ".")
		for j := 1; j < len(parts); j++ {
			t.register(strings.Join(parts[j:], "."), canonical, r)
		}
	}
	return t, nil
}

// canonicalize strips at most one configured library prefix from a rule name.
func (t *Table) canonicalize(name string) string {
	for _, p := range t.prefixes {
		if strings.HasPrefix(name, p) && len(name) > len(p) {
			return name[len(p):]
		}
	}
	return name
}

// register inserts only when the key is unoccupied (first-writer-wins).
func (t *Table) register(key, canonical string, r Rule) {
	if _, taken := t.entries[key]; taken {
		return
	}
	t.entries[key] = entry{rule: r, canonical: canonical}
}

// LookupExact returns the rule registered under exactly this key.
func (t *Table) LookupExact(name string) (Match, bool) {
	e, ok := t.entries[name]
	if !ok {
		return Match{}, false
	}
	return Match{Rule: e.rule, Key: name, Canonical: e.canonical}, true
}

// LookupSuffix tries every right-aligned suffix of name from longest to
// shortest. The longest candidate is the full name itself, so callers that
// already tried LookupExact pay one redundant probe at most.
func (t *Table) LookupSuffix(name string) (Match, bool) {
	parts := strings.Split(name, ".")
	for i := range parts {
		if m, ok := t.LookupExact(strings.Join(parts[i:], ".")); ok {
			return m, true
		}
	}
	return Match{}, false
}

// Len returns the number of registered keys, suffix entries included.
func (t *Table) Len() int {
	return len(t.entries)
}
