package collect

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	commits := []Commit{
		{SHA: "aaaaaaa", Author: "alice", Date: "2023-02-01T10:00:00Z", Message: "BUG: fix dtype promotion"},
		{SHA: "bbbbbbb", Author: "alice", Date: "2024-06-01T10:00:00Z", Message: "ENH: add feature flag"},
		{SHA: "ccccccc", Author: "bob", Date: "2024-01-15T10:00:00Z", Message: "DOC: update notes"},
	}

	s := Summarize(commits)

	assert.Equal(t, 3, s.TotalCommits)
	assert.Equal(t, 1, s.BugFixes)
	assert.Equal(t, 1, s.Features)

	require.Len(t, s.Contributors, 2)
	assert.Equal(t, "alice", s.Contributors[0].Author)
	assert.Equal(t, 2, s.Contributors[0].CommitCount)
	assert.Equal(t, "2023-02-01T10:00:00Z", s.Contributors[0].FirstCommit)
	assert.Equal(t, "2024-06-01T10:00:00Z", s.Contributors[0].LastCommit)

	require.Len(t, s.ByYear, 2)
	assert.Equal(t, YearStats{Year: 2023, Commits: 1}, s.ByYear[0])
	assert.Equal(t, YearStats{Year: 2024, Commits: 2}, s.ByYear[1])
}

func TestSummarizeTieBreaksByName(t *testing.T) {
	commits := []Commit{
		{Author: "zoe", Date: "2024-01-01T00:00:00Z"},
		{Author: "amy", Date: "2024-01-01T00:00:00Z"},
	}

	s := Summarize(commits)
	assert.Equal(t, "amy", s.Contributors[0].Author)
	assert.Equal(t, "zoe", s.Contributors[1].Author)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalCommits)
	assert.Empty(t, s.Contributors)
	assert.Empty(t, s.ByYear)
}

func TestWriteContributorCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteContributorCSV(&buf, []ContributorStats{
		{Author: "alice", CommitCount: 2, FirstCommit: "2023-02-01T10:00:00Z", LastCommit: "2024-06-01T10:00:00Z"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "author,commit_count,first_commit,last_commit")
	assert.Contains(t, out, "alice,2,2023-02-01T10:00:00Z,2024-06-01T10:00:00Z")
}
