// Package fuzzy scores workspace names against a search query
package fuzzy

import (
	"math"
	"slices"
	"strings"
	"time"
	"unicode"
)

// Item is one candidate to be scored. Key is the folded form of Name
// (see Fold); it is derived from Name when empty.
type Item struct {
	Name    string
	Key     string
	ModTime time.Time
}

// Match is a scored item. Index points back into the ranked slice.
type Match struct {
	Index     int
	Score     float64
	Positions []int
}

const (
	dateSuffixBonus = 2.0
	matchBonus      = 1.0
	boundaryBonus   = 1.0
	proximityWeight = 2.0
	recencyWeight   = 3.0
	lengthPivot     = 10.0
)

// Score returns the score of name against query at time now.
// A query that is not a subsequence of name scores exactly 0.
func Score(name, query string, modTime, now time.Time) float64 {
	s, _ := calculateMatch(Item{Name: name, ModTime: modTime}, lowerRunes(query), now)
	return s
}

// Positions returns the rune indexes of name consumed by the greedy
// subsequence walk, or nil when query is empty or does not match.
func Positions(name, query string) []int {
	if query == "" {
		return nil
	}
	w := walk(lowerRunes(name), lowerRunes(query))
	if !w.ok {
		return nil
	}
	return w.positions
}

// Rank scores every item against query and returns the matches sorted by
// descending score. An empty query keeps every item; otherwise only items
// scoring above zero survive. Equal scores put the more recently modified
// item first, then order by name.
func Rank(items []Item, query string, now time.Time) []Match {
	q := lowerRunes(query)
	matches := make([]Match, 0, len(items))
	for i, item := range items {
		s, positions := calculateMatch(item, q, now)
		if len(q) > 0 && s <= 0 {
			continue
		}
		matches = append(matches, Match{Index: i, Score: s, Positions: positions})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		ta, tb := items[a.Index].ModTime, items[b.Index].ModTime
		switch {
		case ta.After(tb):
			return -1
		case tb.After(ta):
			return 1
		}
		return strings.Compare(items[a.Index].Name, items[b.Index].Name)
	})
	return matches
}

func calculateMatch(item Item, query []rune, now time.Time) (float64, []int) {
	text := []rune(item.Name)

	var score float64
	if n := len(text); n > 0 && unicode.IsDigit(text[n-1]) {
		score += dateSuffixBonus
	}

	var positions []int
	if len(query) > 0 {
		key := []rune(item.Key)
		if len(key) != len(text) {
			key = lowerRunes(item.Name)
		}
		w := walk(key, query)
		if !w.ok {
			return 0, nil
		}
		score += w.score
		score *= float64(len(query)) / float64(w.last+1)
		score *= lengthPivot / (float64(len(text)) + lengthPivot)
		positions = w.positions
	}

	return score + recency(item.ModTime, now), positions
}

type walkResult struct {
	score     float64
	positions []int
	last      int
	ok        bool
}

func walk(text, query []rune) walkResult {
	res := walkResult{last: -1, positions: make([]int, 0, len(query))}

	qi := 0
	for i := 0; i < len(text) && qi < len(query); i++ {
		if text[i] != query[qi] {
			continue
		}
		res.score += matchBonus
		if i == 0 || !isAlphaNum(text[i-1]) {
			res.score += boundaryBonus
		}
		if res.last >= 0 {
			res.score += proximity(i - res.last - 1)
		}
		res.positions = append(res.positions, i)
		res.last = i
		qi++
	}
	res.ok = qi == len(query)
	return res
}

func recency(modTime, now time.Time) float64 {
	if modTime.IsZero() || modTime.After(now) {
		return 0
	}
	hours := now.Sub(modTime).Hours()
	return recencyWeight / math.Sqrt(hours+1)
}

func proximity(gap int) float64 {
	if gap < len(sqrtTable) {
		return sqrtTable[gap]
	}
	return proximityWeight / math.Sqrt(float64(gap+1))
}

var sqrtTable = func() []float64 {
	table := make([]float64, 17)
	for i := range table {
		table[i] = proximityWeight / math.Sqrt(float64(i+1))
	}
	return table
}()

// Fold lowercases s rune by rune, keeping rune indexes aligned with s.
func Fold(s string) string {
	return string(lowerRunes(s))
}

func lowerRunes(s string) []rune {
	out := []rune(s)
	for i, r := range out {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func isAlphaNum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
