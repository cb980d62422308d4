package model

import (
	"sync"

	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/features"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/logger"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/utils"
)

// Prediction is the tri-output answer for one student.
type Prediction struct {
	Company string  `json:"company"`
	Role    string  `json:"role"`
	Package float64 `json:"package"`
}

// Predictor serves predictions from a bundle loaded lazily from a Store.
type Predictor struct {
	store  Store
	logger *zap.Logger

	mu     sync.Mutex
	bundle *Bundle
}

func NewPredictor(store Store, log *zap.Logger) *Predictor {
	return &Predictor{store: store, logger: logger.WithFields(log)}
}

// Bundle returns the cached bundle, loading it from the store on first use.
func (p *Predictor) Bundle() (*Bundle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bundle != nil {
		return p.bundle, nil
	}

	b, err := p.store.Load()
	if err != nil {
		return nil, err
	}

	p.logger.Info("model bundle loaded", logger.BundleFields(b.ID, "")...)
	p.bundle = b
	return b, nil
}

// Set installs a freshly trained bundle.
func (p *Predictor) Set(b *Bundle) error {
	if b.Encoder() == nil {
		if err := b.Validate(); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.bundle = b
	return nil
}

// Invalidate drops the cached bundle; the next prediction reloads it.
func (p *Predictor) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bundle = nil
}

// Predict encodes q with the training-time schema and runs all three models.
func (p *Predictor) Predict(q features.Query) (*Prediction, error) {
	b, err := p.Bundle()
	if err != nil {
		return nil, err
	}

	row := b.Encoder().Encode(q)

	return &Prediction{
		Company: b.Company.Predict(row),
		Role:    b.Role.Predict(row),
		Package: utils.Round2(b.Package.Predict(row)),
	}, nil
}
