package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/ai"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/trends"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200

	systemInstruction = "You are a placement counsellor. You only use the data you are given and always answer with strict JSON."
)

func NewAdvisor(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Advisor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Advisor) Advise(ctx context.Context, skills []string, result *trends.Result) (*ai.Advice, error) {
	if result == nil {
		return nil, errors.New("trend result is required")
	}
	skills = trends.NormalizeQuerySkills(skills)
	if len(skills) == 0 {
		return nil, errors.New("at least one skill is required")
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal trend result: %w", err)
	}

	prompt := buildPrompt(strings.Join(skills, ", "), string(resultJSON))

	a.logger.Debug("gemini generate content request",
		zap.String("model", a.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	advice, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	advice.Raw = raw
	return advice, nil
}

func buildPrompt(skills, resultJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Skills:\n{{SKILLS}}\n\nTrends:\n{{RESULT_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{SKILLS}}", skills)
	prompt = strings.ReplaceAll(prompt, "{{RESULT_JSON}}", resultJSON)
	return prompt
}

func parseResponse(raw string) (*ai.Advice, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	summary := coerceString(data["summary"])
	if summary == "" {
		return nil, errors.New("gemini response has no summary")
	}

	return &ai.Advice{
		Summary:        summary,
		FocusSkills:    coerceStrings(data["focus_skills"]),
		SuggestedRoles: coerceStrings(data["suggested_roles"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// coerceStrings accepts a JSON list or a comma separated string.
func coerceStrings(v any) []string {
	var items []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			items = append(items, coerceString(item))
		}
	case string:
		items = strings.Split(val, ",")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
