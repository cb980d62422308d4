// Package features turns placement records into a fixed-width numeric matrix.
//
// Column order is branch dummies (sorted), CGPA, Year, then one indicator per
// vocabulary skill. The order is fixed at fit time and reproduced verbatim at
// inference; categories unseen during fit encode as zeros.
package features

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
)

const (
	BranchPrefix = "branch_"
	SkillPrefix  = "skill__"
	ColumnCGPA   = "CGPA"
	ColumnYear   = "Year"
)

// ErrSchemaMismatch is returned when a persisted schema and vocabulary disagree.
var ErrSchemaMismatch = errors.New("feature schema does not match vocabulary")

// Schema is the ordered list of feature column names.
type Schema []string

// Vocabulary is the sorted list of skill tokens seen at fit time.
type Vocabulary []string

// Matrix is a dense row-major feature matrix.
type Matrix [][]float64

// Query is a single student to encode.
type Query struct {
	Branch string
	CGPA   float64
	Skills []string
	Year   int
}

// Encoder maps records and queries onto a fixed schema.
type Encoder struct {
	schema     Schema
	vocabulary Vocabulary

	branches map[string]int
	skills   map[string]int
	cgpa     int
	year     int
}

// NormalizeBranch returns the dummy key for a branch string.
func NormalizeBranch(branch string) string {
	return strings.ToUpper(strings.TrimSpace(branch))
}

// Fit derives the vocabulary and schema from records and encodes them.
func Fit(records []dataset.Record) (*Encoder, Matrix) {
	branchSet := make(map[string]struct{})
	skillSet := make(map[string]struct{})
	for _, r := range records {
		if b := NormalizeBranch(r.Branch); b != "" {
			branchSet[b] = struct{}{}
		}
		for token := range r.Skills {
			skillSet[token] = struct{}{}
		}
	}

	branches := sortedKeys(branchSet)
	vocabulary := Vocabulary(sortedKeys(skillSet))

	schema := make(Schema, 0, len(branches)+2+len(vocabulary))
	for _, b := range branches {
		schema = append(schema, BranchPrefix+b)
	}
	schema = append(schema, ColumnCGPA, ColumnYear)
	for _, s := range vocabulary {
		schema = append(schema, SkillPrefix+s)
	}

	// Built from its own output, so the schema is consistent by construction.
	enc, _ := NewEncoder(schema, vocabulary)

	matrix := make(Matrix, len(records))
	for i, r := range records {
		matrix[i] = enc.encode(r.Branch, r.CGPA, r.Skills, r.Year)
	}

	return enc, matrix
}

// NewEncoder rebuilds an encoder from a persisted schema and vocabulary.
func NewEncoder(schema Schema, vocabulary Vocabulary) (*Encoder, error) {
	enc := &Encoder{
		schema:     append(Schema(nil), schema...),
		vocabulary: append(Vocabulary(nil), vocabulary...),
		branches:   make(map[string]int),
		skills:     make(map[string]int, len(vocabulary)),
		cgpa:       -1,
		year:       -1,
	}

	var skillColumns []string
	for i, column := range schema {
		switch {
		case column == ColumnCGPA:
			if enc.cgpa != -1 {
				return nil, fmt.Errorf("%w: duplicate %s column", ErrSchemaMismatch, ColumnCGPA)
			}
			enc.cgpa = i
		case column == ColumnYear:
			if enc.year != -1 {
				return nil, fmt.Errorf("%w: duplicate %s column", ErrSchemaMismatch, ColumnYear)
			}
			enc.year = i
		case strings.HasPrefix(column, SkillPrefix):
			token := strings.TrimPrefix(column, SkillPrefix)
			skillColumns = append(skillColumns, token)
			enc.skills[token] = i
		case strings.HasPrefix(column, BranchPrefix):
			enc.branches[strings.TrimPrefix(column, BranchPrefix)] = i
		default:
			return nil, fmt.Errorf("%w: unknown column %q", ErrSchemaMismatch, column)
		}
	}

	if enc.cgpa == -1 || enc.year == -1 {
		return nil, fmt.Errorf("%w: numeric columns are missing", ErrSchemaMismatch)
	}

	if len(skillColumns) != len(vocabulary) {
		return nil, fmt.Errorf("%w: %d skill columns for %d vocabulary entries", ErrSchemaMismatch, len(skillColumns), len(vocabulary))
	}
	for i, token := range vocabulary {
		if skillColumns[i] != token {
			return nil, fmt.Errorf("%w: skill column %d is %q, vocabulary has %q", ErrSchemaMismatch, i, skillColumns[i], token)
		}
	}

	return enc, nil
}

// Schema returns a copy of the fixed column order.
func (e *Encoder) Schema() Schema { return append(Schema(nil), e.schema...) }

// Vocabulary returns a copy of the fitted skill vocabulary.
func (e *Encoder) Vocabulary() Vocabulary { return append(Vocabulary(nil), e.vocabulary...) }

// Width is the number of columns in every encoded row.
func (e *Encoder) Width() int { return len(e.schema) }

// Encode builds one row for q. Unknown branches and skills contribute nothing.
func (e *Encoder) Encode(q Query) []float64 {
	skills := make(dataset.SkillSet, len(q.Skills))
	for _, s := range q.Skills {
		if token := strings.ToLower(strings.TrimSpace(s)); token != "" {
			skills[token] = struct{}{}
		}
	}
	return e.encode(q.Branch, q.CGPA, skills, q.Year)
}

func (e *Encoder) encode(branch string, cgpa float64, skills dataset.SkillSet, year int) []float64 {
	row := make([]float64, len(e.schema))

	if b := NormalizeBranch(branch); b != "" {
		if i, ok := e.branches[b]; ok {
			row[i] = 1
		}
	}

	row[e.cgpa] = cgpa
	row[e.year] = float64(year)

	for token := range skills {
		if i, ok := e.skills[token]; ok {
			row[i] = 1
		}
	}

	return row
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
