package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Node is a flattened tree node. Leaves have Left == -1 and carry Value:
// class frequencies for classification trees, a single mean for regression.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Value     []float64 `json:"v,omitempty"`
}

// Tree is a binary decision tree stored in pre-order.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Leaf returns the leaf value reached by x.
func (t *Tree) Leaf(x []float64) []float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Left < 0 {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

func (t *Tree) validate(features, width int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidModel)
	}
	for i, node := range t.Nodes {
		if node.Left < 0 {
			if len(node.Value) != width {
				return fmt.Errorf("%w: leaf %d has %d values, expected %d", ErrInvalidModel, i, len(node.Value), width)
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= features {
			return fmt.Errorf("%w: node %d splits on feature %d of %d", ErrInvalidModel, i, node.Feature, features)
		}
		if node.Left <= i || node.Right <= i || node.Left >= len(t.Nodes) || node.Right >= len(t.Nodes) {
			return fmt.Errorf("%w: node %d has out of order children", ErrInvalidModel, i)
		}
	}
	return nil
}

type sample struct {
	value float64
	row   int
}

// builder grows one tree. Classification is selected by classes > 0.
type builder struct {
	ctx     context.Context
	x       [][]float64
	labels  []int
	targets []float64
	classes int
	mtry    int
	cfg     Config
	rng     *rand.Rand

	nodes []Node
}

func (b *builder) grow(rows []int) (Tree, error) {
	if _, err := b.build(rows, 0); err != nil {
		return Tree{}, err
	}
	return Tree{Nodes: b.nodes}, nil
}

func (b *builder) build(rows []int, depth int) (int, error) {
	if err := b.ctx.Err(); err != nil {
		return -1, err
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1, Value: b.leafValue(rows)})

	if len(rows) < b.cfg.MinSamplesSplit || (b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth) || b.pure(rows) {
		return id, nil
	}

	feature, threshold, ok := b.bestSplit(rows)
	if !ok {
		return id, nil
	}

	var left, right []int
	for _, r := range rows {
		if b.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l, err := b.build(left, depth+1)
	if err != nil {
		return -1, err
	}
	r, err := b.build(right, depth+1)
	if err != nil {
		return -1, err
	}

	b.nodes[id] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return id, nil
}

func (b *builder) leafValue(rows []int) []float64 {
	if b.classes > 0 {
		value := make([]float64, b.classes)
		for _, r := range rows {
			value[b.labels[r]]++
		}
		for c := range value {
			value[c] /= float64(len(rows))
		}
		return value
	}

	sum := 0.0
	for _, r := range rows {
		sum += b.targets[r]
	}
	return []float64{sum / float64(len(rows))}
}

func (b *builder) pure(rows []int) bool {
	for _, r := range rows[1:] {
		if b.classes > 0 {
			if b.labels[r] != b.labels[rows[0]] {
				return false
			}
		} else if b.targets[r] != b.targets[rows[0]] {
			return false
		}
	}
	return true
}

// bestSplit visits features in random order until mtry non-constant ones
// have been scanned and returns the split with the highest purity score.
func (b *builder) bestSplit(rows []int) (int, float64, bool) {
	parent := b.parentScore(rows)
	bestScore := parent + 1e-9*math.Max(1, math.Abs(parent))
	bestFeature, bestThreshold := -1, 0.0

	order := make([]sample, len(rows))
	visited := 0
	for _, f := range b.rng.Perm(len(b.x[0])) {
		if visited >= b.mtry {
			break
		}

		for i, r := range rows {
			order[i] = sample{value: b.x[r][f], row: r}
		}
		sort.Slice(order, func(i, j int) bool { return order[i].value < order[j].value })
		if order[0].value == order[len(order)-1].value {
			continue
		}
		visited++

		score, threshold := b.scan(order)
		if score > bestScore {
			bestScore, bestFeature, bestThreshold = score, f, threshold
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// parentScore and scan share a purity score where larger is better:
// sum(count^2)/n per side for Gini, sum(y)^2/n per side for variance.
func (b *builder) parentScore(rows []int) float64 {
	n := float64(len(rows))
	if b.classes > 0 {
		counts := make([]float64, b.classes)
		for _, r := range rows {
			counts[b.labels[r]]++
		}
		sq := 0.0
		for _, c := range counts {
			sq += c * c
		}
		return sq / n
	}

	sum := 0.0
	for _, r := range rows {
		sum += b.targets[r]
	}
	return sum * sum / n
}

func (b *builder) scan(order []sample) (float64, float64) {
	n := len(order)
	best, threshold := math.Inf(-1), 0.0

	if b.classes > 0 {
		left := make([]float64, b.classes)
		right := make([]float64, b.classes)
		for _, s := range order {
			right[b.labels[s.row]]++
		}
		sqLeft, sqRight := 0.0, 0.0
		for _, c := range right {
			sqRight += c * c
		}

		for i := 0; i < n-1; i++ {
			c := b.labels[order[i].row]
			sqLeft += 2*left[c] + 1
			left[c]++
			sqRight -= 2*right[c] - 1
			right[c]--

			if order[i].value == order[i+1].value {
				continue
			}
			nl, nr := float64(i+1), float64(n-i-1)
			if score := sqLeft/nl + sqRight/nr; score > best {
				best, threshold = score, (order[i].value+order[i+1].value)/2
			}
		}
		return best, threshold
	}

	sumLeft, sumRight := 0.0, 0.0
	for _, s := range order {
		sumRight += b.targets[s.row]
	}
	for i := 0; i < n-1; i++ {
		y := b.targets[order[i].row]
		sumLeft += y
		sumRight -= y

		if order[i].value == order[i+1].value {
			continue
		}
		nl, nr := float64(i+1), float64(n-i-1)
		if score := sumLeft*sumLeft/nl + sumRight*sumRight/nr; score > best {
			best, threshold = score, (order[i].value+order[i+1].value)/2
		}
	}
	return best, threshold
}
