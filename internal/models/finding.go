package models

import "time"

// ChangeType classifies how an API changed between library versions.
type ChangeType string

const (
	ChangeRemoved         ChangeType = "removed"
	ChangeDeprecated      ChangeType = "deprecated"
	ChangeRenamed         ChangeType = "renamed"
	ChangeBehaviorChanged ChangeType = "behavior-changed"
	ChangeOther           ChangeType = "other"
)

// Valid reports whether c is one of the known change types.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeRemoved, ChangeDeprecated, ChangeRenamed, ChangeBehaviorChanged, ChangeOther:
		return true
	}
	return false
}

// Severity is how urgently a finding needs attention before upgrading.
type Severity string

const (
	SeverityHigh    Severity = "high"
	SeverityMedium  Severity = "medium"
	SeverityLow     Severity = "low"
	SeverityUnknown Severity = "unknown"
)

var severityRank = map[Severity]int{
	SeverityHigh:    3,
	SeverityMedium:  2,
	SeverityLow:     1,
	SeverityUnknown: 0,
}

// Rank returns a sortable weight; higher means more severe.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// SeveritiesDescending lists all severity levels from most to least severe,
// for stable report ordering.
var SeveritiesDescending = []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityUnknown}

// Finding is one detected use of a rule-governed API at a specific location.
type Finding struct {
	File         string     `json:"file"`
	Line         int        `json:"line"`
	Column       int        `json:"column"`
	APIName      string     `json:"api_name"`
	ActualCall   string     `json:"actual_call"`
	ChangeType   ChangeType `json:"change_type"`
	Severity     Severity   `json:"severity"`
	Description  string     `json:"description"`
	Suggestion   string     `json:"suggestion"`
	SinceVersion string     `json:"since_version"`
}

// ImportRecord logs one import statement that touches the tracked library.
type ImportRecord struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Module   string   `json:"module"`
	Alias    string   `json:"alias,omitempty"`
	Symbols  []string `json:"symbols,omitempty"`
	Wildcard bool     `json:"wildcard,omitempty"`
}

// AnalysisResult aggregates findings and import metadata across one run.
type AnalysisResult struct {
	Files            int                `json:"files_analyzed"`
	SkippedFiles     int                `json:"files_skipped,omitempty"`
	TotalFindings    int                `json:"total_findings"`
	ByChangeType     map[ChangeType]int `json:"findings_by_change_type"`
	BySeverity       map[Severity]int   `json:"findings_by_severity"`
	Findings         []Finding          `json:"findings"`
	Imports          []ImportRecord     `json:"imports,omitempty"`
	AnalysisDuration time.Duration      `json:"analysis_duration"`
}

func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Findings:     make([]Finding, 0),
		ByChangeType: make(map[ChangeType]int),
		BySeverity:   make(map[Severity]int),
	}
}

func (ar *AnalysisResult) AddFinding(f Finding) {
	ar.Findings = append(ar.Findings, f)
	ar.TotalFindings++
	ar.ByChangeType[f.ChangeType]++
	ar.BySeverity[f.Severity]++
}

// FilesWithFindings counts distinct files that produced at least one finding.
func (ar *AnalysisResult) FilesWithFindings() int {
	seen := make(map[string]bool)
	for _, f := range ar.Findings {
		seen[f.File] = true
	}
	return len(seen)
}

// MaxSeverityRank returns the rank of the most severe finding, or -1 when
// there are no findings.
func (ar *AnalysisResult) MaxSeverityRank() int {
	max := -1
	for _, f := range ar.Findings {
		if r := f.Severity.Rank(); r > max {
			max = r
		}
	}
	return max
}
