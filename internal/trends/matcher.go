// Package trends ranks historical placements by skill overlap with a query
// and aggregates their outcomes. It works on the dataset directly and does
// not need trained models.
package trends

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/logger"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/utils"
)

const (
	DefaultTopK = 10
	topCounts   = 5
)

// Weights are the composite score coefficients:
// score = overlap*Overlap + branch_match*Branch - cgpa_diff*CGPA.
type Weights struct {
	Overlap float64 `mapstructure:"overlap"`
	Branch  float64 `mapstructure:"branch"`
	CGPA    float64 `mapstructure:"cgpa"`
}

// DefaultWeights returns the historical scoring coefficients.
func DefaultWeights() Weights {
	return Weights{Overlap: 10, Branch: 2, CGPA: 0.5}
}

// Query describes the student being matched. Nil optional fields are ignored.
type Query struct {
	Skills []string
	Branch *string
	CGPA   *float64
	Year   *int
	TopK   int
}

// Matcher scores and ranks dataset records against a query.
type Matcher struct {
	weights Weights
	topK    int
	logger  *zap.Logger
}

func NewMatcher(weights Weights, topK int, log *zap.Logger) *Matcher {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Matcher{weights: weights, topK: topK, logger: logger.WithFields(log)}
}

// NormalizeQuerySkills normalizes every entry like a dataset skills field and
// removes duplicates, keeping first-seen order.
func NormalizeQuerySkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		for _, token := range dataset.NormalizeSkills(s) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
		}
	}
	return out
}

// Score computes the metrics of one record for a normalized skill set.
func (m *Matcher) Score(query dataset.SkillSet, branch *string, cgpa *float64, r dataset.Record) Metrics {
	overlap := query.Overlap(r.Skills)

	branchMatch := 0
	if branch != nil {
		b := strings.TrimSpace(*branch)
		if b != "" && strings.EqualFold(b, strings.TrimSpace(r.Branch)) {
			branchMatch = 1
		}
	}

	cgpaDiff := 0.0
	if cgpa != nil {
		cgpaDiff = math.Abs(*cgpa - r.CGPA)
	}

	return Metrics{
		Overlap:     overlap,
		Similarity:  float64(overlap) / math.Max(1, float64(len(query))),
		BranchMatch: branchMatch,
		CGPADiff:    cgpaDiff,
		Score:       float64(overlap)*m.weights.Overlap + float64(branchMatch)*m.weights.Branch - cgpaDiff*m.weights.CGPA,
	}
}

// Recommend ranks every record of the table against q. The returned result
// has no prediction attached.
func (m *Matcher) Recommend(table *dataset.Table, q Query) *Result {
	skills := NormalizeQuerySkills(q.Skills)
	if len(skills) == 0 {
		return EmptyResult()
	}
	query := dataset.NewSkillSet(skills...)

	matched := make([]Match, 0)
	for _, r := range table.Records {
		metrics := m.Score(query, q.Branch, q.CGPA, r)
		if metrics.Overlap == 0 {
			continue
		}
		matched = append(matched, Match{Record: r, Metrics: metrics})
	}

	result := &Result{
		RolesForSkills:     distinct(matched, func(r dataset.Record) string { return r.JobRole }),
		CompaniesForSkills: distinct(matched, func(r dataset.Record) string { return r.Company }),
		Stats:              aggregate(matched, table.Len()),
	}

	Rank(matched)

	topK := q.TopK
	if topK <= 0 {
		topK = m.topK
	}
	if topK > len(matched) {
		topK = len(matched)
	}
	result.MatchedStudents = matched[:topK]

	m.logger.Debug("trend ranking",
		zap.Strings("skills", skills),
		zap.Int("initial", table.Len()),
		zap.Int("dropped", table.Len()-len(matched)),
		zap.Int("left", len(matched)),
		zap.Int("returned", topK),
	)

	return result
}

// Rank orders matches by score, then overlap, then branch match, all
// descending. Equal keys keep their input order.
func Rank(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].Metrics, matches[j].Metrics
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Overlap != b.Overlap {
			return a.Overlap > b.Overlap
		}
		return a.BranchMatch > b.BranchMatch
	})
}

func aggregate(matched []Match, total int) Stats {
	stats := Stats{
		MatchedCount: len(matched),
		MatchedPct:   utils.Percent(len(matched), total),
		TopCompanies: Counts{},
		TopRoles:     Counts{},
	}
	if len(matched) == 0 {
		return stats
	}

	sum := 0.0
	companies := make([]string, len(matched))
	roles := make([]string, len(matched))
	for i, match := range matched {
		sum += match.Package
		companies[i] = match.Company
		roles[i] = match.JobRole
	}

	stats.AvgPackage = utils.Round2(sum / float64(len(matched)))
	stats.TopCompanies = mostFrequent(companies, topCounts)
	stats.TopRoles = mostFrequent(roles, topCounts)
	return stats
}

// mostFrequent returns the n most frequent values, ties broken by name.
func mostFrequent(values []string, n int) Counts {
	freq := make(map[string]int)
	for _, v := range values {
		freq[v]++
	}

	counts := make(Counts, 0, len(freq))
	for name, count := range freq {
		counts = append(counts, Count{Name: name, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})

	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func distinct(matches []Match, field func(dataset.Record) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, match := range matches {
		v := field(match.Record)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
