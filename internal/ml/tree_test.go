package ml

import "testing"

// Positive iff both features exceed 5.
func treeFixture() ([][]float64, []int) {
	X := [][]float64{
		{2, 2}, {2, 8}, {8, 2}, {8, 8},
		{7, 7}, {3, 7}, {7, 3}, {8, 6},
	}
	y := []int{0, 0, 0, 1, 1, 0, 0, 1}
	return X, y
}

func TestDecisionTreeFitsTrainingData(t *testing.T) {
	X, y := treeFixture()
	model := &DecisionTree{}
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for i, row := range X {
		if got := model.Predict(row); got != y[i] {
			t.Errorf("Predict(%v) = %d, expected %d", row, got, y[i])
		}
	}
	if p := model.PredictProba([]float64{9, 9}); p != 1 {
		t.Errorf("PredictProba(9,9) = %v, expected pure leaf 1", p)
	}
	if p := model.PredictProba([]float64{1, 1}); p != 0 {
		t.Errorf("PredictProba(1,1) = %v, expected pure leaf 0", p)
	}
}

func TestDecisionTreeStump(t *testing.T) {
	X, y := treeFixture()
	model := &DecisionTree{MaxDepth: 1}
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// The best first split is x0 <= 5: the left leaf is pure negative, the
	// right leaf holds three positives out of five.
	if p := model.PredictProba([]float64{2, 9}); p != 0 {
		t.Errorf("left leaf probability = %v, expected 0", p)
	}
	if p := model.PredictProba([]float64{8, 2}); !almostEqual(p, 0.6, 1e-12) {
		t.Errorf("right leaf probability = %v, expected 0.6", p)
	}
	if cls := model.Predict([]float64{8, 2}); cls != 1 {
		t.Errorf("Predict in majority-positive leaf = %d, expected 1", cls)
	}
}

func TestDecisionTreeMinLeafForcesRootLeaf(t *testing.T) {
	X, y := treeFixture()
	model := &DecisionTree{MinLeaf: 5}
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	want := 3.0 / 8
	for _, probe := range [][]float64{{0, 0}, {9, 9}, {5, 5}} {
		if p := model.PredictProba(probe); !almostEqual(p, want, 1e-12) {
			t.Errorf("PredictProba(%v) = %v, expected root prior %v", probe, p, want)
		}
	}
	if cls := model.Predict([]float64{9, 9}); cls != 0 {
		t.Errorf("Predict = %d, expected majority class 0", cls)
	}
}

func TestDecisionTreeSingleClass(t *testing.T) {
	model := &DecisionTree{}
	if err := model.Fit([][]float64{{1}, {2}, {3}}, []int{1, 1, 1}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if p := model.PredictProba([]float64{100}); p != 1 {
		t.Errorf("PredictProba = %v, expected 1", p)
	}
}

func TestDecisionTreeErrors(t *testing.T) {
	model := &DecisionTree{}

	if err := model.Fit(nil, nil); err == nil {
		t.Error("expected error for empty training set")
	}
	if err := model.Fit([][]float64{{1}}, []int{0, 1}); err == nil {
		t.Error("expected error for label count mismatch")
	}
	if err := model.Fit([][]float64{{1}, {2}}, []int{0, 5}); err == nil {
		t.Error("expected error for non-binary label")
	}

	if p := model.PredictProba([]float64{1}); p != 0.5 {
		t.Errorf("unfitted PredictProba = %v, expected 0.5", p)
	}

	fitted := &DecisionTree{}
	X, y := treeFixture()
	if err := fitted.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if p := fitted.PredictProba([]float64{1}); p != 0.5 {
		t.Errorf("wrong-width PredictProba = %v, expected 0.5", p)
	}
}
