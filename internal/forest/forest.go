// Package forest implements seeded random forests of CART trees for
// classification (Gini) and regression (variance reduction).
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTrees = 200
	DefaultSeed  = 42
)

var (
	ErrEmptyTrainingSet = errors.New("training set is empty")
	ErrShapeMismatch    = errors.New("feature matrix and targets disagree")
	ErrInvalidModel     = errors.New("invalid forest model")
)

// Config controls forest growth. Zero values fall back to defaults.
type Config struct {
	Trees           int   `mapstructure:"trees"`
	Seed            int64 `mapstructure:"seed"`
	MaxDepth        int   `mapstructure:"max-depth"`
	MinSamplesSplit int   `mapstructure:"min-samples-split"`
	Workers         int   `mapstructure:"workers"`
}

func (c Config) withDefaults() Config {
	if c.Trees <= 0 {
		c.Trees = DefaultTrees
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Classifier is a fitted random forest over string labels.
type Classifier struct {
	Classes  []string `json:"classes"`
	Features int      `json:"features"`
	Trees    []Tree   `json:"trees"`
}

// Regressor is a fitted random forest over continuous targets.
type Regressor struct {
	Features int    `json:"features"`
	Trees    []Tree `json:"trees"`
}

// FitClassifier grows a classification forest. Each split considers
// sqrt(features) candidate columns.
func FitClassifier(ctx context.Context, x [][]float64, y []string, cfg Config) (*Classifier, error) {
	features, err := checkShape(x, len(y))
	if err != nil {
		return nil, err
	}

	classes := uniqueSorted(y)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	labels := make([]int, len(y))
	for i, label := range y {
		labels[i] = index[label]
	}

	mtry := int(math.Sqrt(float64(features)))
	if mtry < 1 {
		mtry = 1
	}

	trees, err := growForest(ctx, cfg, len(x), func(rng *rand.Rand, c Config) *builder {
		return &builder{x: x, labels: labels, classes: len(classes), mtry: mtry, cfg: c, rng: rng}
	})
	if err != nil {
		return nil, err
	}

	return &Classifier{Classes: classes, Features: features, Trees: trees}, nil
}

// FitRegressor grows a regression forest. Each split considers every column.
func FitRegressor(ctx context.Context, x [][]float64, y []float64, cfg Config) (*Regressor, error) {
	features, err := checkShape(x, len(y))
	if err != nil {
		return nil, err
	}

	trees, err := growForest(ctx, cfg, len(x), func(rng *rand.Rand, c Config) *builder {
		return &builder{x: x, targets: y, mtry: features, cfg: c, rng: rng}
	})
	if err != nil {
		return nil, err
	}

	return &Regressor{Features: features, Trees: trees}, nil
}

// Predict returns the class with the highest mean leaf frequency.
// Ties resolve to the lexically smallest class.
func (c *Classifier) Predict(x []float64) string {
	votes := make([]float64, len(c.Classes))
	for i := range c.Trees {
		for k, v := range c.Trees[i].Leaf(x) {
			votes[k] += v
		}
	}

	best := 0
	for k := range votes {
		if votes[k] > votes[best] {
			best = k
		}
	}
	return c.Classes[best]
}

// Validate checks the model against the expected feature width.
func (c *Classifier) Validate(features int) error {
	if c == nil {
		return fmt.Errorf("%w: classifier is missing", ErrInvalidModel)
	}
	if len(c.Classes) == 0 {
		return fmt.Errorf("%w: classifier has no classes", ErrInvalidModel)
	}
	return validateTrees(c.Trees, c.Features, features, len(c.Classes))
}

// Predict returns the mean of the tree outputs.
func (r *Regressor) Predict(x []float64) float64 {
	sum := 0.0
	for i := range r.Trees {
		sum += r.Trees[i].Leaf(x)[0]
	}
	return sum / float64(len(r.Trees))
}

// Validate checks the model against the expected feature width.
func (r *Regressor) Validate(features int) error {
	if r == nil {
		return fmt.Errorf("%w: regressor is missing", ErrInvalidModel)
	}
	return validateTrees(r.Trees, r.Features, features, 1)
}

func validateTrees(trees []Tree, fitted, expected, width int) error {
	if fitted != expected {
		return fmt.Errorf("%w: fitted on %d features, schema has %d", ErrInvalidModel, fitted, expected)
	}
	if len(trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrInvalidModel)
	}
	for i := range trees {
		if err := trees[i].validate(expected, width); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// growForest bootstraps and grows cfg.Trees trees. Tree i draws from its own
// source seeded with cfg.Seed+i, so results do not depend on scheduling.
func growForest(ctx context.Context, cfg Config, rows int, newBuilder func(*rand.Rand, Config) *builder) ([]Tree, error) {
	cfg = cfg.withDefaults()
	trees := make([]Tree, cfg.Trees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			sample := make([]int, rows)
			for j := range sample {
				sample[j] = rng.Intn(rows)
			}

			b := newBuilder(rng, cfg)
			b.ctx = ctx
			tree, err := b.grow(sample)
			if err != nil {
				return err
			}
			trees[i] = tree
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

func checkShape(x [][]float64, targets int) (int, error) {
	if len(x) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(x) != targets {
		return 0, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(x), targets)
	}
	features := len(x[0])
	if features == 0 {
		return 0, fmt.Errorf("%w: rows have no features", ErrShapeMismatch)
	}
	for i, row := range x {
		if len(row) != features {
			return 0, fmt.Errorf("%w: row %d has %d features, expected %d", ErrShapeMismatch, i, len(row), features)
		}
	}
	return features, nil
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
