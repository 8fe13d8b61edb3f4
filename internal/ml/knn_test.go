package ml

import "testing"

func knnFixture() ([][]float64, []int) {
	X := [][]float64{{0}, {1}, {2}, {10}, {11}, {12}}
	y := []int{0, 0, 0, 1, 1, 1}
	return X, y
}

func TestKNNPredict(t *testing.T) {
	X, y := knnFixture()
	model := &KNN{K: 3}
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	cases := []struct {
		probe float64
		prob  float64
		class int
	}{
		{probe: 0.5, prob: 0, class: 0},
		{probe: 11.5, prob: 1, class: 1},
		// Nearest three to 5.6 are 2, 10 and 1: one positive vote.
		{probe: 5.6, prob: 1.0 / 3, class: 0},
	}
	for _, tc := range cases {
		got := model.PredictProba([]float64{tc.probe})
		if !almostEqual(got, tc.prob, 1e-12) {
			t.Errorf("PredictProba(%v) = %v, expected %v", tc.probe, got, tc.prob)
		}
		if cls := model.Predict([]float64{tc.probe}); cls != tc.class {
			t.Errorf("Predict(%v) = %d, expected %d", tc.probe, cls, tc.class)
		}
	}
}

func TestKNNDefaultK(t *testing.T) {
	X, y := knnFixture()
	model := &KNN{}
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// Five nearest to 0.5 are 0, 1, 2, 10 and 11: two positive votes.
	if got := model.PredictProba([]float64{0.5}); !almostEqual(got, 0.4, 1e-12) {
		t.Errorf("PredictProba = %v, expected 0.4", got)
	}
}

func TestKNNEvenSplitFavoursPositive(t *testing.T) {
	model := &KNN{K: 2}
	if err := model.Fit([][]float64{{0}, {2}}, []int{0, 1}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if got := model.PredictProba([]float64{1}); got != 0.5 {
		t.Errorf("PredictProba = %v, expected 0.5", got)
	}
	if cls := model.Predict([]float64{1}); cls != 1 {
		t.Errorf("Predict on even split = %d, expected 1", cls)
	}
}

func TestKNNErrors(t *testing.T) {
	X, y := knnFixture()

	if err := (&KNN{K: 7}).Fit(X, y); err == nil {
		t.Error("expected error when K exceeds sample count")
	}
	if err := (&KNN{K: -1}).Fit(X, y); err == nil {
		t.Error("expected error for negative K")
	}
	if err := (&KNN{K: 1}).Fit(nil, nil); err == nil {
		t.Error("expected error for empty training set")
	}

	unfitted := &KNN{K: 1}
	if p := unfitted.PredictProba([]float64{1}); p != 0.5 {
		t.Errorf("unfitted PredictProba = %v, expected 0.5", p)
	}

	fitted := &KNN{K: 1}
	if err := fitted.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if p := fitted.PredictProba([]float64{1, 2}); p != 0.5 {
		t.Errorf("wrong-width PredictProba = %v, expected 0.5", p)
	}
}
