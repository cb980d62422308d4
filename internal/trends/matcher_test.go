package trends

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
)

func record(name, branch string, cgpa float64, company, role string, pkg float64, skills ...string) dataset.Record {
	return dataset.Record{
		Name:    name,
		Branch:  branch,
		CGPA:    cgpa,
		Skills:  dataset.NewSkillSet(skills...),
		Company: company,
		JobRole: role,
		Package: pkg,
	}
}

func fiveStudents() *dataset.Table {
	return &dataset.Table{Records: []dataset.Record{
		record("asha", "ECE", 7.0, "TCS", "Tester", 4, "python", "excel"),
		record("ben", "MECH", 6.0, "Infosys", "Support", 3, "autocad"),
		record("chen", "CSE", 6.0, "Google", "Developer", 20, "python"),
		record("dia", "IT", 8.2, "Deloitte", "Analyst", 9, "python", "sql"),
		record("eli", "ECE", 7.5, "Wipro", "Tester", 4.5, "java"),
	}}
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func names(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Name
	}
	return out
}

func TestRecommendRanksBranchMatchFirst(t *testing.T) {
	m := NewMatcher(DefaultWeights(), 0, zap.NewNop())

	result := m.Recommend(fiveStudents(), Query{
		Skills: []string{"python"},
		Branch: strPtr("CSE"),
		CGPA:   floatPtr(8.0),
		TopK:   3,
	})

	got := strings.Join(names(result.MatchedStudents), ",")
	if got != "chen,dia,asha" {
		t.Fatalf("unexpected order: %s", got)
	}
	if result.MatchedStudents[0].BranchMatch != 1 {
		t.Fatalf("expected branch match on first record")
	}
	if result.Stats.MatchedCount != 3 {
		t.Fatalf("expected matched_count 3, got %d", result.Stats.MatchedCount)
	}
	if result.Stats.MatchedPct != 60 {
		t.Fatalf("expected matched_pct 60, got %v", result.Stats.MatchedPct)
	}
	if result.Stats.AvgPackage != 11 {
		t.Fatalf("expected avg_package 11, got %v", result.Stats.AvgPackage)
	}
	if result.Predicted != nil {
		t.Fatalf("matcher must not attach a prediction")
	}
}

func TestRecommendTopKLimitsListNotStats(t *testing.T) {
	m := NewMatcher(DefaultWeights(), 0, zap.NewNop())

	result := m.Recommend(fiveStudents(), Query{
		Skills: []string{"python"},
		Branch: strPtr("CSE"),
		CGPA:   floatPtr(8.0),
		TopK:   2,
	})

	if len(result.MatchedStudents) != 2 {
		t.Fatalf("expected 2 returned records, got %d", len(result.MatchedStudents))
	}
	if result.Stats.MatchedCount != 3 {
		t.Fatalf("stats must cover the whole matched set, got %d", result.Stats.MatchedCount)
	}
	if len(result.RolesForSkills) != 3 || len(result.CompaniesForSkills) != 3 {
		t.Fatalf("skill index must cover every matched record: %v %v", result.RolesForSkills, result.CompaniesForSkills)
	}
}

func TestRecommendDefaultTopK(t *testing.T) {
	table := &dataset.Table{}
	for i := 0; i < 15; i++ {
		table.Records = append(table.Records, record("s", "CSE", 8, "Acme", "Dev", 5, "go"))
	}

	result := NewMatcher(DefaultWeights(), 0, zap.NewNop()).Recommend(table, Query{Skills: []string{"go"}})
	if len(result.MatchedStudents) != DefaultTopK {
		t.Fatalf("expected %d records, got %d", DefaultTopK, len(result.MatchedStudents))
	}

	result = NewMatcher(DefaultWeights(), 4, zap.NewNop()).Recommend(table, Query{Skills: []string{"go"}})
	if len(result.MatchedStudents) != 4 {
		t.Fatalf("expected configured top-k 4, got %d", len(result.MatchedStudents))
	}
}

func TestRecommendEmptySkills(t *testing.T) {
	m := NewMatcher(DefaultWeights(), 0, zap.NewNop())

	for _, skills := range [][]string{nil, {}, {"", " ; ,"}} {
		result := m.Recommend(fiveStudents(), Query{Skills: skills})

		raw, err := json.Marshal(result)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		want := `{"matched_students":[],"stats":{},"predicted":null,"roles_for_skills":[],"companies_for_skills":[]}`
		if string(raw) != want {
			t.Fatalf("unexpected empty result:\n got %s\nwant %s", raw, want)
		}
	}
}

func TestRecommendNoMatches(t *testing.T) {
	result := NewMatcher(DefaultWeights(), 0, zap.NewNop()).Recommend(fiveStudents(), Query{Skills: []string{"rust"}})

	if len(result.MatchedStudents) != 0 {
		t.Fatalf("expected no matches")
	}
	if result.Stats.Empty() {
		t.Fatalf("stats of a non-empty query must be populated")
	}
	if result.Stats.MatchedCount != 0 || result.Stats.AvgPackage != 0 || result.Stats.MatchedPct != 0 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}

	raw, err := json.Marshal(result.Stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"matched_count":0,"matched_pct":0,"avg_package":0,"top_companies":{},"top_roles":{}}`
	if string(raw) != want {
		t.Fatalf("unexpected stats json:\n got %s\nwant %s", raw, want)
	}
}

func TestRecommendEmptyDataset(t *testing.T) {
	result := NewMatcher(DefaultWeights(), 0, zap.NewNop()).Recommend(&dataset.Table{}, Query{Skills: []string{"go"}})
	if result.Stats.MatchedPct != 0 || len(result.MatchedStudents) != 0 {
		t.Fatalf("unexpected result for empty dataset: %+v", result)
	}
}

func TestScore(t *testing.T) {
	m := NewMatcher(DefaultWeights(), 0, zap.NewNop())
	r := record("x", " cse ", 7.5, "Acme", "Dev", 5, "go", "sql", "docker")
	query := dataset.NewSkillSet("go", "sql", "rust", "java")

	tests := []struct {
		name   string
		branch *string
		cgpa   *float64
		want   Metrics
	}{
		{
			name: "skills only",
			want: Metrics{Overlap: 2, Similarity: 0.5, Score: 20},
		},
		{
			name:   "branch case insensitive",
			branch: strPtr("CSE"),
			want:   Metrics{Overlap: 2, Similarity: 0.5, BranchMatch: 1, Score: 22},
		},
		{
			name:   "blank branch ignored",
			branch: strPtr("  "),
			want:   Metrics{Overlap: 2, Similarity: 0.5, Score: 20},
		},
		{
			name:   "cgpa penalty",
			branch: strPtr("IT"),
			cgpa:   floatPtr(9.5),
			want:   Metrics{Overlap: 2, Similarity: 0.5, CGPADiff: 2, Score: 19},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Score(query, tt.branch, tt.cgpa, r)
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScoreCustomWeights(t *testing.T) {
	m := NewMatcher(Weights{Overlap: 1, Branch: 5, CGPA: 0}, 0, zap.NewNop())
	r := record("x", "CSE", 6, "Acme", "Dev", 5, "go")

	got := m.Score(dataset.NewSkillSet("go"), strPtr("cse"), floatPtr(9), r)
	if got.Score != 6 {
		t.Fatalf("expected score 6, got %v", got.Score)
	}
}

func TestRankTieBreaks(t *testing.T) {
	matches := []Match{
		{Record: dataset.Record{Name: "a"}, Metrics: Metrics{Score: 10, Overlap: 1}},
		{Record: dataset.Record{Name: "b"}, Metrics: Metrics{Score: 10, Overlap: 1, BranchMatch: 1}},
		{Record: dataset.Record{Name: "c"}, Metrics: Metrics{Score: 10, Overlap: 2}},
		{Record: dataset.Record{Name: "d"}, Metrics: Metrics{Score: 12, Overlap: 1}},
		{Record: dataset.Record{Name: "e"}, Metrics: Metrics{Score: 10, Overlap: 1}},
	}

	Rank(matches)

	got := strings.Join(names(matches), ",")
	if got != "d,c,b,a,e" {
		t.Fatalf("unexpected order: %s", got)
	}
}

func TestRecommendIsOrderedAndBounded(t *testing.T) {
	table := fiveStudents()
	table.Records = append(table.Records,
		record("fay", "CSE", 9.1, "Google", "Developer", 30, "python", "go"),
		record("gus", "IT", 5.0, "TCS", "Developer", 3, "go"),
	)
	m := NewMatcher(DefaultWeights(), 0, zap.NewNop())

	for k := 1; k <= 8; k++ {
		result := m.Recommend(table, Query{Skills: []string{"Python", "GO"}, Branch: strPtr("cse"), CGPA: floatPtr(7.5), TopK: k})

		if len(result.MatchedStudents) > k {
			t.Fatalf("k=%d: returned %d records", k, len(result.MatchedStudents))
		}
		for i, match := range result.MatchedStudents {
			if match.Overlap < 1 {
				t.Fatalf("k=%d: record %s has no overlap", k, match.Name)
			}
			if i > 0 && match.Score > result.MatchedStudents[i-1].Score {
				t.Fatalf("k=%d: scores not descending at %d", k, i)
			}
		}
	}
}

func TestTopCountsOrdering(t *testing.T) {
	table := &dataset.Table{Records: []dataset.Record{
		record("1", "CSE", 8, "Zeta", "Dev", 1, "go"),
		record("2", "CSE", 8, "Alpha", "Dev", 1, "go"),
		record("3", "CSE", 8, "Zeta", "QA", 1, "go"),
		record("4", "CSE", 8, "Beta", "QA", 1, "go"),
		record("5", "CSE", 8, "Gamma", "Ops", 1, "go"),
		record("6", "CSE", 8, "Delta", "Ops", 1, "go"),
		record("7", "CSE", 8, "Eta", "Ops", 1, "go"),
	}}

	result := NewMatcher(DefaultWeights(), 0, zap.NewNop()).Recommend(table, Query{Skills: []string{"go"}})

	raw, err := json.Marshal(result.Stats.TopCompanies)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Zeta":2,"Alpha":1,"Beta":1,"Delta":1,"Eta":1}`
	if string(raw) != want {
		t.Fatalf("unexpected top companies:\n got %s\nwant %s", raw, want)
	}

	raw, err = json.Marshal(result.Stats.TopRoles)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want = `{"Ops":3,"Dev":2,"QA":2}`
	if string(raw) != want {
		t.Fatalf("unexpected top roles:\n got %s\nwant %s", raw, want)
	}
}

func TestMatchJSONShape(t *testing.T) {
	result := NewMatcher(DefaultWeights(), 0, zap.NewNop()).Recommend(fiveStudents(), Query{Skills: []string{"python"}, TopK: 1})

	raw, err := json.Marshal(result.MatchedStudents[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"StudentName", "Branch", "CGPA", "Company", "JobRole", "Package", "overlap", "similarity", "branch_match", "cgpa_diff", "score"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing key %q in %s", key, raw)
		}
	}
}

func TestNormalizeQuerySkills(t *testing.T) {
	got := NormalizeQuerySkills([]string{" Python ", "go;SQL", "python", "", "GO"})
	if strings.Join(got, ",") != "python,go,sql" {
		t.Fatalf("unexpected skills: %v", got)
	}
}

func TestRecommendLogsStep(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := NewMatcher(DefaultWeights(), 0, zap.New(core))

	m.Recommend(fiveStudents(), Query{Skills: []string{"python"}})

	entries := logs.FilterMessage("trend ranking").All()
	if len(entries) != 1 {
		t.Fatalf("expected one ranking log entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["initial"] != int64(5) || ctx["dropped"] != int64(2) || ctx["left"] != int64(3) {
		t.Fatalf("unexpected step fields: %v", ctx)
	}
}

func TestResultDumpToTmpFile(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	result := NewMatcher(DefaultWeights(), 0, zap.NewNop()).Recommend(fiveStudents(), Query{Skills: []string{"python"}})

	name, err := result.DumpToTmpFile()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}

	raw, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("dump is not json: %v", err)
	}
	if len(decoded["matched_students"].([]any)) != 3 {
		t.Fatalf("unexpected dump: %s", raw)
	}
}
