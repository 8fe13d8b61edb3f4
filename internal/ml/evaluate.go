package ml

import (
	"fmt"
	"sort"
)

// Report collects the classification metrics for one prediction set.
// ROCAUC and PRAUC are only meaningful when AUCDefined is true; they stay
// zero when the labels contain a single class or no probabilities were
// given.
type Report struct {
	TN, FP, FN, TP int

	Accuracy    float64
	Precision   float64
	Recall      float64
	Specificity float64
	F1          float64
	CohensKappa float64

	ROCAUC     float64
	PRAUC      float64
	AUCDefined bool
}

// Evaluate scores predictions against true labels. yProb may be nil when
// no probability scores are available.
func Evaluate(y, yPred []int, yProb []float64) (*Report, error) {
	n := len(y)
	if n == 0 {
		return nil, fmt.Errorf("ml: no labels to evaluate")
	}
	if len(yPred) != n {
		return nil, fmt.Errorf("ml: %d labels but %d predictions", n, len(yPred))
	}
	if yProb != nil && len(yProb) != n {
		return nil, fmt.Errorf("ml: %d labels but %d probabilities", n, len(yProb))
	}

	r := &Report{}
	for i := 0; i < n; i++ {
		if y[i] != 0 && y[i] != 1 {
			return nil, fmt.Errorf("ml: label %d at index %d, expected 0 or 1", y[i], i)
		}
		if yPred[i] != 0 && yPred[i] != 1 {
			return nil, fmt.Errorf("ml: prediction %d at index %d, expected 0 or 1", yPred[i], i)
		}
		if yProb != nil && (yProb[i] < 0 || yProb[i] > 1) {
			return nil, fmt.Errorf("ml: probability %v at index %d outside [0, 1]", yProb[i], i)
		}
		switch {
		case y[i] == 1 && yPred[i] == 1:
			r.TP++
		case y[i] == 1 && yPred[i] == 0:
			r.FN++
		case y[i] == 0 && yPred[i] == 1:
			r.FP++
		default:
			r.TN++
		}
	}

	total := float64(n)
	r.Accuracy = float64(r.TP+r.TN) / total
	r.Precision = ratio(r.TP, r.TP+r.FP)
	r.Recall = ratio(r.TP, r.TP+r.FN)
	r.Specificity = ratio(r.TN, r.TN+r.FP)
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}

	predPos := float64(r.TP+r.FP) / total
	truePos := float64(r.TP+r.FN) / total
	chance := predPos*truePos + (1-predPos)*(1-truePos)
	if chance < 1 {
		r.CohensKappa = (r.Accuracy - chance) / (1 - chance)
	}

	if yProb != nil {
		r.ROCAUC, r.PRAUC, r.AUCDefined = aucScores(y, yProb)
	}
	return r, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// aucScores integrates the ROC and precision-recall curves by sweeping the
// unique probability values as thresholds, highest first. Both areas are
// undefined when only one class is present.
func aucScores(y []int, probs []float64) (rocAUC, prAUC float64, ok bool) {
	var totalPos, totalNeg int
	for _, label := range y {
		if label == 1 {
			totalPos++
		} else {
			totalNeg++
		}
	}
	if totalPos == 0 || totalNeg == 0 {
		return 0, 0, false
	}

	order := make([]int, len(y))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return probs[order[i]] > probs[order[j]]
	})

	var tp, fp int
	var prevFPR, prevTPR float64
	prevRecall, prevPrecision := 0.0, 1.0

	for i := 0; i < len(order); {
		threshold := probs[order[i]]
		for i < len(order) && probs[order[i]] == threshold {
			if y[order[i]] == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}

		fpr := float64(fp) / float64(totalNeg)
		tpr := float64(tp) / float64(totalPos)
		rocAUC += (fpr - prevFPR) * (tpr + prevTPR) / 2
		prevFPR, prevTPR = fpr, tpr

		recall := tpr
		precision := float64(tp) / float64(tp+fp)
		prAUC += (recall - prevRecall) * (precision + prevPrecision) / 2
		prevRecall, prevPrecision = recall, precision
	}
	return rocAUC, prAUC, true
}
