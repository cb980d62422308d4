// Package engine owns the dataset and model caches and exposes the four
// placement operations used by the CLI and the HTTP server.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/features"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/logger"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/model"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/trends"
)

// Options wires the service dependencies.
type Options struct {
	Loader  *dataset.Loader
	Store   model.Store
	Trainer *model.Trainer
	Matcher *trends.Matcher
	Logger  *zap.Logger
}

type Service struct {
	loader    *dataset.Loader
	store     model.Store
	trainer   *model.Trainer
	predictor *model.Predictor
	matcher   *trends.Matcher
	logger    *zap.Logger

	trainMu sync.Mutex
}

func New(opts Options) (*Service, error) {
	switch {
	case opts.Loader == nil:
		return nil, errors.New("dataset loader is required")
	case opts.Store == nil:
		return nil, errors.New("model store is required")
	case opts.Trainer == nil:
		return nil, errors.New("model trainer is required")
	case opts.Matcher == nil:
		return nil, errors.New("trend matcher is required")
	}

	log := logger.WithFields(opts.Logger)

	return &Service{
		loader:    opts.Loader,
		store:     opts.Store,
		trainer:   opts.Trainer,
		predictor: model.NewPredictor(opts.Store, log),
		matcher:   opts.Matcher,
		logger:    log,
	}, nil
}

// LoadDataset returns the cached normalized dataset.
func (s *Service) LoadDataset() (*dataset.Table, error) {
	return s.loader.Load()
}

// SampleData returns up to n leading dataset records.
func (s *Service) SampleData(n int) ([]dataset.Record, error) {
	table, err := s.loader.Load()
	if err != nil {
		return nil, err
	}
	return table.Head(n), nil
}

// TrainModel fits and persists a new bundle and makes it the active one.
// Concurrent calls are serialized.
func (s *Service) TrainModel(ctx context.Context) (string, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	table, err := s.loader.Load()
	if err != nil {
		return "", err
	}

	bundle, err := s.trainer.Train(ctx, table)
	if err != nil {
		return "", err
	}

	path, err := s.store.Save(bundle)
	if err != nil {
		return "", err
	}

	if err := s.predictor.Set(bundle); err != nil {
		return "", fmt.Errorf("activating bundle: %w", err)
	}

	s.logger.Info("model trained", logger.BundleFields(bundle.ID, path)...)
	return path, nil
}

// PredictOpportunity runs the persisted models for one student.
func (s *Service) PredictOpportunity(req PredictRequest) (*model.Prediction, error) {
	return s.predictor.Predict(features.Query{
		Branch: req.Branch,
		CGPA:   req.CGPA,
		Skills: trends.NormalizeQuerySkills(req.Skills),
		Year:   req.Year,
	})
}

// RecommendFromTrends ranks historical records against the request and
// attaches a model prediction when one is available.
func (s *Service) RecommendFromTrends(req RecommendRequest) (*trends.Result, error) {
	table, err := s.loader.Load()
	if err != nil {
		return nil, err
	}

	query := req.query()
	result := s.matcher.Recommend(table, query)
	if result.Stats.Empty() {
		return result, nil
	}

	predicted, err := s.predictor.Predict(features.Query{
		Branch: req.Branch,
		CGPA:   deref(req.CGPA),
		Skills: trends.NormalizeQuerySkills(req.Skills),
		Year:   deref(req.Year),
	})
	if err != nil {
		s.logger.Debug("prediction skipped", zap.Error(err))
		return result, nil
	}

	result.Predicted = predicted
	return result, nil
}

func (r RecommendRequest) query() trends.Query {
	q := trends.Query{
		Skills: r.Skills,
		CGPA:   r.CGPA,
		Year:   r.Year,
		TopK:   r.TopK,
	}
	if branch := strings.TrimSpace(r.Branch); branch != "" {
		q.Branch = &branch
	}
	return q
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
