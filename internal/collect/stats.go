package collect

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ContributorStats aggregates commit counts per author.
type ContributorStats struct {
	Author      string `json:"author"`
	CommitCount int    `json:"commit_count"`
	FirstCommit string `json:"first_commit"`
	LastCommit  string `json:"last_commit"`
}

// YearStats counts commits per calendar year.
type YearStats struct {
	Year    int `json:"year"`
	Commits int `json:"commits"`
}

// Summary is the derived view of a collected commit history.
type Summary struct {
	TotalCommits int                `json:"total_commits"`
	BugFixes     int                `json:"bug_fixes"`
	Features     int                `json:"features"`
	Contributors []ContributorStats `json:"contributors"`
	ByYear       []YearStats        `json:"by_year"`
}

var (
	bugFixTokens  = []string{"bug", "fix"}
	featureTokens = []string{"feat", "feature"}
)

func messageContains(message string, tokens []string) bool {
	lower := strings.ToLower(message)
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Summarize computes contributor and yearly statistics from commit records.
// Contributors are ordered by commit count descending, ties by name.
func Summarize(commits []Commit) Summary {
	type window struct {
		count int
		first string
		last  string
	}
	byAuthor := make(map[string]*window)
	byYear := make(map[int]int)

	summary := Summary{TotalCommits: len(commits)}
	for _, c := range commits {
		if messageContains(c.Message, bugFixTokens) {
			summary.BugFixes++
		}
		if messageContains(c.Message, featureTokens) {
			summary.Features++
		}

		w, ok := byAuthor[c.Author]
		if !ok {
			w = &window{first: c.Date, last: c.Date}
			byAuthor[c.Author] = w
		}
		w.count++
		if c.Date < w.first {
			w.first = c.Date
		}
		if c.Date > w.last {
			w.last = c.Date
		}

		if t, err := time.Parse(time.RFC3339, c.Date); err == nil {
			byYear[t.Year()]++
		}
	}

	for author, w := range byAuthor {
		summary.Contributors = append(summary.Contributors, ContributorStats{
			Author:      author,
			CommitCount: w.count,
			FirstCommit: w.first,
			LastCommit:  w.last,
		})
	}
	sort.Slice(summary.Contributors, func(i, j int) bool {
		if summary.Contributors[i].CommitCount != summary.Contributors[j].CommitCount {
			return summary.Contributors[i].CommitCount > summary.Contributors[j].CommitCount
		}
		return summary.Contributors[i].Author < summary.Contributors[j].Author
	})

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		summary.ByYear = append(summary.ByYear, YearStats{Year: y, Commits: byYear[y]})
	}

	return summary
}

// WriteContributorCSV writes the contributor table as CSV.
func WriteContributorCSV(w io.Writer, contributors []ContributorStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"author", "commit_count", "first_commit", "last_commit"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range contributors {
		record := []string{c.Author, strconv.Itoa(c.CommitCount), c.FirstCommit, c.LastCommit}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
