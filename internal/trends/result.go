package trends

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/model"
)

// Metrics are the derived similarity figures of one historical record.
type Metrics struct {
	Overlap     int     `json:"overlap"`
	Similarity  float64 `json:"similarity"`
	BranchMatch int     `json:"branch_match"`
	CGPADiff    float64 `json:"cgpa_diff"`
	Score       float64 `json:"score"`
}

// Match is a historical record with its metrics attached.
type Match struct {
	dataset.Record
	Metrics
}

// Count is a single value/frequency pair.
type Count struct {
	Name  string
	Count int
}

// Counts is a frequency mapping that keeps its order when encoded as a JSON object.
type Counts []Count

func (c Counts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(itoa(entry.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Stats aggregates the whole matched set, not only the returned top-K.
type Stats struct {
	MatchedCount int     `json:"matched_count"`
	MatchedPct   float64 `json:"matched_pct"`
	AvgPackage   float64 `json:"avg_package"`
	TopCompanies Counts  `json:"top_companies"`
	TopRoles     Counts  `json:"top_roles"`

	empty bool
}

// Empty reports whether stats were never computed (empty query).
func (s Stats) Empty() bool { return s.empty }

func (s Stats) MarshalJSON() ([]byte, error) {
	if s.empty {
		return []byte("{}"), nil
	}
	type plain Stats
	return json.Marshal(plain(s))
}

// Result is the response of a trend recommendation.
type Result struct {
	MatchedStudents    []Match           `json:"matched_students"`
	Stats              Stats             `json:"stats"`
	Predicted          *model.Prediction `json:"predicted"`
	RolesForSkills     []string          `json:"roles_for_skills"`
	CompaniesForSkills []string          `json:"companies_for_skills"`
}

// EmptyResult is returned for queries without usable skills.
func EmptyResult() *Result {
	return &Result{
		MatchedStudents:    []Match{},
		Stats:              Stats{empty: true},
		RolesForSkills:     []string{},
		CompaniesForSkills: []string{},
	}
}

// DumpToTmpFile writes the result as indented JSON to a new temporary file
// and returns its name.
func (r *Result) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "placeme_trends_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
