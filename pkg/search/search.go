// Package search ranks entities against a free-text query and tracks the
// keyboard state of the result dropdown.
package search

import (
	"sort"
	"strings"
)

// DefaultLimit is the number of results shown.
const DefaultLimit = 12

// Match scores.
const (
	ScoreName     = 1 // display name contains the query
	ScoreIDSubstr = 2 // id contains the query
	ScoreIDPrefix = 3 // id starts with the query
)

// Match is one ranked result.
type Match struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Index is a case-insensitive matcher over entity ids and display names.
type Index struct {
	ids        []string
	names      []string
	idsLower   []string
	namesLower []string
	limit      int
}

// NewIndex builds an index. ids and names are in row order and must have the
// same length. limit <= 0 means DefaultLimit.
func NewIndex(ids, names []string, limit int) *Index {
	if limit <= 0 {
		limit = DefaultLimit
	}
	x := &Index{
		ids:        ids,
		names:      names,
		idsLower:   make([]string, len(ids)),
		namesLower: make([]string, len(names)),
		limit:      limit,
	}
	for i := range ids {
		x.idsLower[i] = strings.ToLower(ids[i])
		x.namesLower[i] = strings.ToLower(names[i])
	}
	return x
}

// Matches ranks entities by score, then by row. An empty query matches
// nothing.
func (x *Index) Matches(query string) []Match {
	if query == "" {
		return nil
	}
	q := strings.ToLower(query)

	var out []Match
	for i := range x.idsLower {
		score := 0
		switch {
		case strings.HasPrefix(x.idsLower[i], q):
			score = ScoreIDPrefix
		case strings.Contains(x.idsLower[i], q):
			score = ScoreIDSubstr
		case strings.Contains(x.namesLower[i], q):
			score = ScoreName
		}
		if score > 0 {
			out = append(out, Match{Index: i, ID: x.ids[i], Name: x.names[i], Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > x.limit {
		out = out[:x.limit]
	}
	return out
}

// Len returns the number of indexed entities.
func (x *Index) Len() int { return len(x.ids) }
