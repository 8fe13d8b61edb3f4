// Package ml implements the direction classifiers used for next-bar
// research: feature windowing, train/test handling, logistic regression,
// k-nearest neighbours, a CART decision tree, and the evaluation report
// with cross-validated grid search.
package ml

import "fmt"

// Classifier is a binary classifier over float feature vectors with
// labels 0 and 1.
//
// PredictProba returns the probability of class 1. Implementations return
// 0.5 when the model is unfitted or x has the wrong width.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	PredictProba(x []float64) float64
	Predict(x []float64) int
}

// PredictAll runs a fitted classifier over every row of X.
func PredictAll(c Classifier, X [][]float64) (preds []int, probs []float64) {
	preds = make([]int, len(X))
	probs = make([]float64, len(X))
	for i, row := range X {
		probs[i] = c.PredictProba(row)
		preds[i] = c.Predict(row)
	}
	return preds, probs
}

func validateTraining(X [][]float64, y []int) (width int, err error) {
	if len(X) == 0 {
		return 0, fmt.Errorf("ml: no training samples")
	}
	if len(y) != len(X) {
		return 0, fmt.Errorf("ml: %d samples but %d labels", len(X), len(y))
	}
	width = len(X[0])
	if width == 0 {
		return 0, fmt.Errorf("ml: empty feature rows")
	}
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("ml: ragged feature matrix at row %d", i)
		}
		if y[i] != 0 && y[i] != 1 {
			return 0, fmt.Errorf("ml: label %d at row %d, expected 0 or 1", y[i], i)
		}
	}
	return width, nil
}
