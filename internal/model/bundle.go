package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/features"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/forest"
)

// BundleVersion is bumped whenever the persisted layout changes.
const BundleVersion = 1

var (
	ErrMissingModel  = errors.New("model not found, train first")
	ErrInvalidBundle = errors.New("invalid model bundle")
	ErrEmptyDataset  = errors.New("dataset has no records to train on")
)

// Bundle is the atomic unit of trained state: three models plus the
// vocabulary and schema they were fitted against.
type Bundle struct {
	Version    int                 `json:"version"`
	ID         string              `json:"id"`
	CreatedAt  time.Time           `json:"created_at"`
	Schema     features.Schema     `json:"schema"`
	Vocabulary features.Vocabulary `json:"vocabulary"`
	Role       *forest.Classifier  `json:"role"`
	Company    *forest.Classifier  `json:"company"`
	Package    *forest.Regressor   `json:"package"`

	encoder *features.Encoder
}

// Validate checks that every component is present and co-versioned, and
// prepares the inference encoder.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: bundle is empty", ErrInvalidBundle)
	}
	if b.Version != BundleVersion {
		return fmt.Errorf("%w: version %d, expected %d", ErrInvalidBundle, b.Version, BundleVersion)
	}

	enc, err := features.NewEncoder(b.Schema, b.Vocabulary)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}

	width := enc.Width()
	if err := b.Role.Validate(width); err != nil {
		return fmt.Errorf("%w: role model: %w", ErrInvalidBundle, err)
	}
	if err := b.Company.Validate(width); err != nil {
		return fmt.Errorf("%w: company model: %w", ErrInvalidBundle, err)
	}
	if err := b.Package.Validate(width); err != nil {
		return fmt.Errorf("%w: package model: %w", ErrInvalidBundle, err)
	}

	b.encoder = enc
	return nil
}

// Encoder returns the inference encoder of a validated bundle.
func (b *Bundle) Encoder() *features.Encoder {
	if b == nil {
		return nil
	}
	return b.encoder
}
