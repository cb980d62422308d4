package ai

import (
	"context"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/trends"
)

// Advice is a short narrative over a trend recommendation.
type Advice struct {
	Summary        string   `json:"summary"`
	FocusSkills    []string `json:"focus_skills"`
	SuggestedRoles []string `json:"suggested_roles"`
	Raw            string   `json:"-"`
}

type Advisor interface {
	Advise(ctx context.Context, skills []string, result *trends.Result) (*Advice, error)
}
