package ml

import "sort"

// DecisionTree is a CART binary classifier using gini impurity and
// axis-aligned threshold splits. Leaves predict the class-1 share of their
// training samples.
type DecisionTree struct {
	MaxDepth int // 0 means unlimited
	MinLeaf  int // minimum samples per leaf, 0 means 1

	root  *treeNode
	width int
}

var _ Classifier = (*DecisionTree)(nil)

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	prob      float64
}

// Fit grows the tree greedily. Candidate thresholds are midpoints between
// consecutive distinct feature values; equal-gain ties keep the first
// candidate so fits are deterministic.
func (m *DecisionTree) Fit(X [][]float64, y []int) error {
	width, err := validateTraining(X, y)
	if err != nil {
		return err
	}

	minLeaf := m.MinLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	b := &treeBuilder{x: X, y: y, maxDepth: m.MaxDepth, minLeaf: minLeaf, width: width}
	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	m.root = b.build(indices, 0)
	m.width = width
	return nil
}

// PredictProba walks the tree to the leaf covering x.
func (m *DecisionTree) PredictProba(x []float64) float64 {
	if m.root == nil || len(x) != m.width {
		return 0.5
	}
	node := m.root
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.prob
}

// Predict returns the class with probability at least 0.5.
func (m *DecisionTree) Predict(x []float64) int {
	if m.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

type treeBuilder struct {
	x        [][]float64
	y        []int
	maxDepth int
	minLeaf  int
	width    int
}

func (b *treeBuilder) build(indices []int, depth int) *treeNode {
	var positives int
	for _, i := range indices {
		positives += b.y[i]
	}
	prob := float64(positives) / float64(len(indices))

	if positives == 0 || positives == len(indices) {
		return &treeNode{leaf: true, prob: prob}
	}
	if b.maxDepth > 0 && depth >= b.maxDepth {
		return &treeNode{leaf: true, prob: prob}
	}
	if len(indices) < 2*b.minLeaf {
		return &treeNode{leaf: true, prob: prob}
	}

	parent := gini(prob)
	bestGain := 0.0
	bestFeature := -1
	var bestThreshold float64

	for f := 0; f < b.width; f++ {
		values := make([]float64, len(indices))
		for i, idx := range indices {
			values[i] = b.x[idx][f]
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i-1] + values[i]) / 2

			var nLeft, posLeft int
			for _, idx := range indices {
				if b.x[idx][f] <= threshold {
					nLeft++
					posLeft += b.y[idx]
				}
			}
			nRight := len(indices) - nLeft
			if nLeft < b.minLeaf || nRight < b.minLeaf {
				continue
			}

			giniLeft := gini(float64(posLeft) / float64(nLeft))
			giniRight := gini(float64(positives-posLeft) / float64(nRight))
			weighted := (float64(nLeft)*giniLeft + float64(nRight)*giniRight) / float64(len(indices))

			if gain := parent - weighted; gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return &treeNode{leaf: true, prob: prob}
	}

	var left, right []int
	for _, idx := range indices {
		if b.x[idx][bestFeature] <= bestThreshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

func gini(p float64) float64 {
	return 2 * p * (1 - p)
}
