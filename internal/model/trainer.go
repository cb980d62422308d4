package model

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/dataset"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/features"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/forest"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/logger"
)

// Trainer fits the role, company and package models on one feature matrix.
type Trainer struct {
	config forest.Config
	logger *zap.Logger
	now    func() time.Time
}

func NewTrainer(cfg forest.Config, log *zap.Logger) *Trainer {
	return &Trainer{
		config: cfg,
		logger: logger.WithFields(log),
		now:    time.Now,
	}
}

// Train builds a validated bundle from the table. It does not persist it.
func (t *Trainer) Train(ctx context.Context, table *dataset.Table) (*Bundle, error) {
	if table.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	enc, x := features.Fit(table.Records)

	roles := make([]string, table.Len())
	companies := make([]string, table.Len())
	packages := make([]float64, table.Len())
	for i, r := range table.Records {
		roles[i] = r.JobRole
		companies[i] = r.Company
		packages[i] = r.Package
	}

	t.logger.Info("training models",
		zap.Int("records", table.Len()),
		zap.Int("features", enc.Width()),
		zap.Int("vocabulary", len(enc.Vocabulary())),
		zap.Int("trees", t.config.Trees),
		zap.Int64("seed", t.config.Seed),
	)

	started := t.now()

	role, err := forest.FitClassifier(ctx, x, roles, t.config)
	if err != nil {
		return nil, fmt.Errorf("fitting role model: %w", err)
	}

	company, err := forest.FitClassifier(ctx, x, companies, t.config)
	if err != nil {
		return nil, fmt.Errorf("fitting company model: %w", err)
	}

	pkg, err := forest.FitRegressor(ctx, x, packages, t.config)
	if err != nil {
		return nil, fmt.Errorf("fitting package model: %w", err)
	}

	bundle := &Bundle{
		Version:    BundleVersion,
		ID:         uuid.NewString(),
		CreatedAt:  t.now().UTC(),
		Schema:     enc.Schema(),
		Vocabulary: enc.Vocabulary(),
		Role:       role,
		Company:    company,
		Package:    pkg,
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	t.logger.Info("models trained",
		zap.String(logger.FieldBundleID, bundle.ID),
		zap.Duration("elapsed", t.now().Sub(started)),
		zap.Int("roles", len(role.Classes)),
		zap.Int("companies", len(company.Classes)),
	)

	return bundle, nil
}
