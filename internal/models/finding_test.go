package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, SeverityLow.Rank(), SeverityUnknown.Rank())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, ChangeRemoved.Valid())
	assert.False(t, ChangeType("vanished").Valid())
	assert.True(t, SeverityHigh.Valid())
	assert.False(t, Severity("scary").Valid())
}

func TestAddFindingAggregates(t *testing.T) {
	r := NewAnalysisResult()
	r.AddFinding(Finding{File: "a.py", ChangeType: ChangeRemoved, Severity: SeverityHigh})
	r.AddFinding(Finding{File: "a.py", ChangeType: ChangeRemoved, Severity: SeverityLow})
	r.AddFinding(Finding{File: "b.py", ChangeType: ChangeDeprecated, Severity: SeverityLow})

	assert.Equal(t, 3, r.TotalFindings)
	assert.Equal(t, 2, r.ByChangeType[ChangeRemoved])
	assert.Equal(t, 2, r.BySeverity[SeverityLow])
	assert.Equal(t, 2, r.FilesWithFindings())
	assert.Equal(t, SeverityHigh.Rank(), r.MaxSeverityRank())
}

func TestMaxSeverityRankEmpty(t *testing.T) {
	assert.Equal(t, -1, NewAnalysisResult().MaxSeverityRank())
}
