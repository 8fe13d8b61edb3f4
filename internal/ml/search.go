package ml

import (
	"fmt"
	"math/rand"
	"sort"
)

// KFold splits n samples into k folds of test indices after a seeded
// shuffle. The first n%k folds carry one extra sample.
func KFold(n, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("ml: need at least 2 folds, got %d", k)
	}
	if k > n {
		return nil, fmt.Errorf("ml: %d folds for %d samples", k, n)
	}

	rng := rand.New(rand.NewSource(seed))
	indices := rng.Perm(n)

	folds := make([][]int, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		folds[f] = append([]int(nil), indices[start:start+size]...)
		start += size
	}
	return folds, nil
}

// Score functions for GridSearch.
var (
	ScoreAccuracy = func(r *Report) float64 { return r.Accuracy }
	ScoreF1       = func(r *Report) float64 { return r.F1 }
	// ScoreROCAUC treats folds with undefined AUC as zero.
	ScoreROCAUC = func(r *Report) float64 {
		if !r.AUCDefined {
			return 0
		}
		return r.ROCAUC
	}
)

// GridSearchConfig drives the cross-validated parameter sweep.
type GridSearchConfig struct {
	Grid        map[string][]float64
	Folds       int
	Seed        int64
	Score       func(*Report) float64 // defaults to ScoreAccuracy
	Standardize bool                  // z-score features per fold, fitted on the train part
}

// GridSearchResult is one evaluated parameter combination.
type GridSearchResult struct {
	Params     map[string]float64
	MeanScore  float64
	FoldScores []float64
}

// GridSearch evaluates every parameter combination with k-fold cross
// validation and returns the results sorted by mean score, best first.
// Combinations whose classifier fails to construct or fit are skipped.
func GridSearch(ds *Dataset, factory func(params map[string]float64) (Classifier, error), cfg GridSearchConfig) ([]GridSearchResult, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("ml: empty dataset")
	}
	if factory == nil {
		return nil, fmt.Errorf("ml: factory is required")
	}
	if len(cfg.Grid) == 0 {
		return nil, fmt.Errorf("ml: empty parameter grid")
	}
	for name, values := range cfg.Grid {
		if len(values) == 0 {
			return nil, fmt.Errorf("ml: no values for parameter %q", name)
		}
	}
	score := cfg.Score
	if score == nil {
		score = ScoreAccuracy
	}

	folds, err := KFold(ds.Len(), cfg.Folds, cfg.Seed)
	if err != nil {
		return nil, err
	}

	var results []GridSearchResult
	for _, params := range gridCombinations(cfg.Grid) {
		foldScores := make([]float64, 0, len(folds))
		skip := false

		for f := range folds {
			var trainIdx []int
			for other, fold := range folds {
				if other != f {
					trainIdx = append(trainIdx, fold...)
				}
			}
			train := Subset(ds, trainIdx)
			test := Subset(ds, folds[f])
			if cfg.Standardize {
				if _, err := Standardize(train, test); err != nil {
					return nil, err
				}
			}

			clf, err := factory(params)
			if err != nil {
				skip = true
				break
			}
			if err := clf.Fit(train.X, train.Y); err != nil {
				skip = true
				break
			}

			preds, probs := PredictAll(clf, test.X)
			report, err := Evaluate(test.Y, preds, probs)
			if err != nil {
				return nil, err
			}
			foldScores = append(foldScores, score(report))
		}
		if skip {
			continue
		}

		var sum float64
		for _, s := range foldScores {
			sum += s
		}
		results = append(results, GridSearchResult{
			Params:     params,
			MeanScore:  sum / float64(len(foldScores)),
			FoldScores: foldScores,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MeanScore > results[j].MeanScore
	})
	return results, nil
}

// gridCombinations expands the grid in sorted parameter order so sweeps
// are reproducible.
func gridCombinations(grid map[string][]float64) []map[string]float64 {
	names := make([]string, 0, len(grid))
	for name := range grid {
		names = append(names, name)
	}
	sort.Strings(names)

	combos := []map[string]float64{{}}
	for _, name := range names {
		var next []map[string]float64
		for _, combo := range combos {
			for _, value := range grid[name] {
				expanded := make(map[string]float64, len(combo)+1)
				for k, v := range combo {
					expanded[k] = v
				}
				expanded[name] = value
				next = append(next, expanded)
			}
		}
		combos = next
	}
	return combos
}
