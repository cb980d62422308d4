package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/trends"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func sampleResult() *trends.Result {
	table := &dataset.Table{Records: []dataset.Record{
		{Name: "Asha", Branch: "CSE", CGPA: 8.1, Skills: dataset.NewSkillSet("python", "sql"), Company: "Google", JobRole: "Developer", Package: 22},
	}}
	return trends.NewMatcher(trends.DefaultWeights(), 0, zap.NewNop()).Recommend(table, trends.Query{Skills: []string{"python"}})
}

func TestAdvisorAdvise(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"summary\": \"Python students went to Google.\", \"focus_skills\": [\"sql\", \" \"], \"suggested_roles\": \"Developer, Analyst\"}\n```"}
	advisor := NewAdvisor(stub, zap.NewNop(), 0)

	advice, err := advisor.Advise(context.Background(), []string{" Python "}, sampleResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if advice.Summary != "Python students went to Google." {
		t.Fatalf("unexpected summary: %q", advice.Summary)
	}
	if strings.Join(advice.FocusSkills, ",") != "sql" {
		t.Fatalf("unexpected focus skills: %v", advice.FocusSkills)
	}
	if strings.Join(advice.SuggestedRoles, ",") != "Developer,Analyst" {
		t.Fatalf("unexpected roles: %v", advice.SuggestedRoles)
	}
	if advice.Raw != stub.response {
		t.Fatalf("expected raw response to be kept")
	}

	if stub.lastSystem != systemInstruction {
		t.Fatalf("unexpected system instruction: %q", stub.lastSystem)
	}
	if !strings.Contains(stub.lastPrompt, "Student skills:\npython\n") {
		t.Fatalf("expected normalized skills in prompt: %s", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, `"matched_count": 1`) {
		t.Fatalf("expected result json in prompt")
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt")
	}
}

func TestAdvisorErrors(t *testing.T) {
	tests := []struct {
		name   string
		stub   *stubGenerator
		skills []string
		result *trends.Result
	}{
		{name: "generator error", stub: &stubGenerator{err: errors.New("boom")}, skills: []string{"go"}, result: sampleResult()},
		{name: "not json", stub: &stubGenerator{response: "sure, here you go"}, skills: []string{"go"}, result: sampleResult()},
		{name: "no summary", stub: &stubGenerator{response: `{"focus_skills": ["go"]}`}, skills: []string{"go"}, result: sampleResult()},
		{name: "no skills", stub: &stubGenerator{response: `{"summary": "x"}`}, skills: []string{" "}, result: sampleResult()},
		{name: "no result", stub: &stubGenerator{response: `{"summary": "x"}`}, skills: []string{"go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAdvisor(tt.stub, nil, 10).Advise(context.Background(), tt.skills, tt.result); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{in: "`{\"a\":1}`", want: `{"a":1}`},
	}

	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Fatalf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
