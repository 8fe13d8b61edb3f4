package ml

import (
	"fmt"
	"sort"
)

// DefaultK is the neighbour count used when K is zero.
const DefaultK = 5

// KNN is a k-nearest-neighbours classifier with euclidean distance. The
// predicted probability is the share of the k nearest training samples
// labelled 1.
type KNN struct {
	K int

	k int
	x [][]float64
	y []int
}

var _ Classifier = (*KNN)(nil)

// Fit stores a copy of the training samples.
func (m *KNN) Fit(X [][]float64, y []int) error {
	if _, err := validateTraining(X, y); err != nil {
		return err
	}
	k := m.K
	if k == 0 {
		k = DefaultK
	}
	if k < 1 {
		return fmt.Errorf("ml: K must be at least 1, got %d", m.K)
	}
	if k > len(X) {
		return fmt.Errorf("ml: K %d exceeds %d training samples", k, len(X))
	}

	m.k = k
	m.x = make([][]float64, len(X))
	for i, row := range X {
		m.x[i] = append([]float64(nil), row...)
	}
	m.y = append([]int(nil), y...)
	return nil
}

// PredictProba returns the vote share for class 1 among the k nearest
// neighbours. Distance ties are broken by sample order so predictions are
// deterministic.
func (m *KNN) PredictProba(x []float64) float64 {
	if m.x == nil || len(x) != len(m.x[0]) {
		return 0.5
	}

	type neighbour struct {
		dist float64
		idx  int
	}
	dists := make([]neighbour, len(m.x))
	for i, row := range m.x {
		var d float64
		for j, v := range row {
			diff := v - x[j]
			d += diff * diff
		}
		dists[i] = neighbour{dist: d, idx: i}
	}
	sort.Slice(dists, func(i, j int) bool {
		if dists[i].dist != dists[j].dist {
			return dists[i].dist < dists[j].dist
		}
		return dists[i].idx < dists[j].idx
	})

	var votes int
	for _, nb := range dists[:m.k] {
		votes += m.y[nb.idx]
	}
	return float64(votes) / float64(m.k)
}

// Predict returns the majority class, favouring 1 on an even split.
func (m *KNN) Predict(x []float64) int {
	if m.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}
