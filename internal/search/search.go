// Package search ranks orchestrator panel entries (modes and units)
// against a typed query.
package search

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Item is one searchable row.
type Item struct {
	ID       string
	Label    string
	Section  string
	Disabled bool
}

// Match is a ranked search hit.
type Match struct {
	Item  Item
	Score int
}

// Rank filters and orders items by query relevance. An empty query
// returns every item in declaration order with zero score. Ties keep
// declaration order.
func Rank(items []Item, query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Match, 0, len(items))
		for _, item := range items {
			out = append(out, Match{Item: item})
		}
		return out
	}

	type scored struct {
		match Match
		index int
	}
	var hits []scored
	for i, item := range items {
		ok, score := subsequenceScore(item.Label, query)
		if !ok {
			continue
		}
		score += closenessBonus(item.Label, query)
		hits = append(hits, scored{match: Match{Item: item, Score: score}, index: i})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].match.Score != hits[j].match.Score {
			return hits[i].match.Score > hits[j].match.Score
		}
		return hits[i].index < hits[j].index
	})

	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.match)
	}
	return out
}

// subsequenceScore reports whether every query character appears in
// order inside the label, scoring prefix and adjacency hits higher.
func subsequenceScore(label, query string) (bool, int) {
	labelLower := strings.ToLower(label)
	queryLower := strings.ToLower(query)

	matchIdx := make([]int, 0, len(queryLower))
	searchFrom := 0
	for i := 0; i < len(queryLower); i++ {
		ch := queryLower[i]
		found := false
		for j := searchFrom; j < len(labelLower); j++ {
			if labelLower[j] == ch {
				matchIdx = append(matchIdx, j)
				searchFrom = j + 1
				found = true
				break
			}
		}
		if !found {
			return false, 0
		}
	}

	score := len(queryLower)
	if len(matchIdx) > 0 && matchIdx[0] == 0 {
		score += 10
	}
	for i := 1; i < len(matchIdx); i++ {
		if matchIdx[i] == matchIdx[i-1]+1 {
			score += 3
		}
	}
	if strings.EqualFold(strings.TrimSpace(label), strings.TrimSpace(query)) {
		score += 20
	}
	return true, score
}

// closenessBonus rewards labels whose normalized edit distance to the
// query is small, so near-complete queries float above loose
// subsequence hits.
func closenessBonus(label, query string) int {
	dist := levenshtein.ComputeDistance(strings.ToLower(label), strings.ToLower(query))
	maxlen := len(label)
	if len(query) > maxlen {
		maxlen = len(query)
	}
	if maxlen == 0 {
		return 0
	}
	ratio := float64(dist) / float64(maxlen)
	switch {
	case ratio < 0.25:
		return 15
	case ratio < 0.5:
		return 5
	default:
		return 0
	}
}
