package ml

import (
	"math"
	"math/rand"
)

const (
	// DefaultLearningRate is used when LearningRate is zero.
	DefaultLearningRate = 0.1
	// DefaultEpochs is used when Epochs is zero.
	DefaultEpochs = 1000
)

// LogisticRegression is a binary logistic classifier trained with batch
// gradient descent. L2 penalizes the feature weights, never the bias.
type LogisticRegression struct {
	LearningRate float64
	Epochs       int
	L2           float64
	Seed         int64

	bias    float64
	weights []float64
}

var _ Classifier = (*LogisticRegression)(nil)

// Fit trains the model. Weights are initialized from the seeded generator
// so repeated fits are identical.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	width, err := validateTraining(X, y)
	if err != nil {
		return err
	}

	lr := m.LearningRate
	if lr <= 0 {
		lr = DefaultLearningRate
	}
	epochs := m.Epochs
	if epochs <= 0 {
		epochs = DefaultEpochs
	}

	rng := rand.New(rand.NewSource(m.Seed))
	m.bias = 0
	m.weights = make([]float64, width)
	for j := range m.weights {
		m.weights[j] = rng.NormFloat64() * 0.01
	}

	n := float64(len(X))
	gradW := make([]float64, width)
	for epoch := 0; epoch < epochs; epoch++ {
		var gradB float64
		for j := range gradW {
			gradW[j] = 0
		}
		for i, row := range X {
			d := sigmoid(m.bias+dot(m.weights, row)) - float64(y[i])
			gradB += d
			for j, v := range row {
				gradW[j] += d * v
			}
		}
		m.bias -= lr * gradB / n
		for j := range m.weights {
			m.weights[j] -= lr * (gradW[j]/n + m.L2*m.weights[j])
		}
	}
	return nil
}

// PredictProba returns the probability of class 1.
func (m *LogisticRegression) PredictProba(x []float64) float64 {
	if m.weights == nil || len(x) != len(m.weights) {
		return 0.5
	}
	return sigmoid(m.bias + dot(m.weights, x))
}

// Predict returns the class with probability at least 0.5.
func (m *LogisticRegression) Predict(x []float64) int {
	if m.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var sum float64
	for i, v := range a {
		sum += v * b[i]
	}
	return sum
}
