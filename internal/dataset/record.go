package dataset

import (
	"regexp"
	"sort"
	"strings"
)

var skillSeparators = regexp.MustCompile(`[;,|]`)

// SkillSet is a set of normalized skill tokens.
type SkillSet map[string]struct{}

// NewSkillSet builds a set from already normalized tokens.
func NewSkillSet(tokens ...string) SkillSet {
	set := make(SkillSet, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// Has reports whether token is part of the set.
func (s SkillSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Tokens returns the set members in lexical order.
func (s SkillSet) Tokens() []string {
	tokens := make([]string, 0, len(s))
	for token := range s {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Overlap counts tokens present in both sets.
func (s SkillSet) Overlap(other SkillSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}

	count := 0
	for token := range small {
		if large.Has(token) {
			count++
		}
	}
	return count
}

// NormalizeSkills splits a free-text skills field on ';', ',' or '|',
// trims and lowercases every token and drops empty ones.
func NormalizeSkills(raw string) []string {
	parts := skillSeparators.Split(raw, -1)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Record is one historical placement row after type coercion.
type Record struct {
	Name            string   `json:"StudentName"`
	RollNumber      string   `json:"RollNumber"`
	Branch          string   `json:"Branch"`
	CGPA            float64  `json:"CGPA"`
	RawSkills       string   `json:"Skills"`
	Skills          SkillSet `json:"-"`
	Company         string   `json:"Company"`
	JobRole         string   `json:"JobRole"`
	Package         float64  `json:"Package"`
	Year            int      `json:"Year"`
	OpportunityType string   `json:"OpportunityType"`
}

// Table is the normalized dataset in source row order.
type Table struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Head returns up to n leading records.
func (t *Table) Head(n int) []Record {
	if t == nil || n <= 0 {
		return []Record{}
	}
	if n > len(t.Records) {
		n = len(t.Records)
	}
	return t.Records[:n]
}
