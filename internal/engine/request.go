package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/trends"
)

// ErrInvalidInput marks request payloads that cannot be decoded.
var ErrInvalidInput = errors.New("invalid input")

// PredictRequest is the input of PredictOpportunity. Missing numbers are zero.
type PredictRequest struct {
	Branch string   `mapstructure:"branch" json:"branch"`
	CGPA   float64  `mapstructure:"cgpa" json:"cgpa"`
	Skills []string `mapstructure:"skills" json:"skills"`
	Year   int      `mapstructure:"year" json:"year"`
}

// RecommendRequest is the input of RecommendFromTrends.
type RecommendRequest struct {
	Branch string   `mapstructure:"branch" json:"branch"`
	CGPA   *float64 `mapstructure:"cgpa" json:"cgpa,omitempty"`
	Skills []string `mapstructure:"skills" json:"skills"`
	Year   *int     `mapstructure:"year" json:"year,omitempty"`
	TopK   int      `mapstructure:"top_k" json:"top_k"`
}

// DecodePredictRequest decodes a loosely typed payload. Skills may be a list
// or a comma separated string and numbers may be numeric strings.
func DecodePredictRequest(payload map[string]any) (PredictRequest, error) {
	var req PredictRequest
	if err := decode(payload, &req); err != nil {
		return PredictRequest{}, err
	}
	if math.IsNaN(req.CGPA) || math.IsInf(req.CGPA, 0) {
		return PredictRequest{}, fmt.Errorf("%w: cgpa must be a finite number", ErrInvalidInput)
	}
	return req, nil
}

// DecodeRecommendRequest decodes a loosely typed payload. A blank cgpa or
// year is treated as absent and a missing top_k falls back to the default.
func DecodeRecommendRequest(payload map[string]any) (RecommendRequest, error) {
	req := RecommendRequest{TopK: trends.DefaultTopK}
	if err := decode(payload, &req); err != nil {
		return RecommendRequest{}, err
	}
	if req.CGPA != nil && (math.IsNaN(*req.CGPA) || math.IsInf(*req.CGPA, 0)) {
		return RecommendRequest{}, fmt.Errorf("%w: cgpa must be a finite number", ErrInvalidInput)
	}
	return req, nil
}

func decode(payload map[string]any, out any) error {
	cleaned := make(map[string]any, len(payload))
	for key, value := range payload {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		cleaned[key] = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	if err := decoder.Decode(cleaned); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
