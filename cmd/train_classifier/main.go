package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"quantlab/config"
	"quantlab/internal/adapters/logger"
	"quantlab/internal/adapters/sqlite"
	"quantlab/internal/domain"
	"quantlab/internal/ml"
	"quantlab/internal/utils"
)

func main() {
	symbolFlag := flag.String("symbol", "", "Symbol to train on from the bar cache")
	fileFlag := flag.String("file", "", "Train on a CSV exported by fetch_prices instead of the cache")
	daysFlag := flag.Int("days", 0, "Cache window in days (default: the configured backfill window)")
	modelFlag := flag.String("model", "logistic", "Classifier: logistic, knn or tree")
	lagsFlag := flag.Int("lags", 5, "Lagged returns per feature row")
	testFlag := flag.Float64("test", 0.2, "Test fraction (chronological split)")
	seedFlag := flag.Int64("seed", 42, "Random seed")
	gridFlag := flag.Bool("grid", false, "Cross-validated grid search on the training split first")
	kFlag := flag.Int("k", ml.DefaultK, "Neighbors for knn")
	depthFlag := flag.Int("depth", 4, "Max depth for tree (0 = unlimited)")
	minLeafFlag := flag.Int("min-leaf", 5, "Min samples per leaf for tree")
	l2Flag := flag.Float64("l2", 0.01, "L2 penalty for logistic")
	flag.Parse()

	if *symbolFlag == "" && *fileFlag == "" {
		flag.Usage()
		log.Fatalf("FATAL: -symbol or -file is required")
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.ParseLevel(cfg.Log.Level), cfg.Log.Development)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()

	// 3. Load Bars
	var bars []domain.Bar
	if *fileFlag != "" {
		bars, err = utils.ReadBarsFromCSV(*fileFlag)
		if err != nil {
			log.Fatalf("FATAL: Failed to read %s: %v", *fileFlag, err)
		}
	} else {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.Database.Path, Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to open bar cache: %v", err)
		}
		defer repo.Close()

		days := cfg.Provider.BackfillDays
		if *daysFlag > 0 {
			days = *daysFlag
		}
		to := time.Now()
		from := to.AddDate(0, 0, -days)
		bars, err = repo.FindBars(ctx, *symbolFlag, cfg.Interval(), from, to)
		if err != nil {
			log.Fatalf("FATAL: Failed to read bar cache: %v", err)
		}
	}

	// 4. Build the direction dataset and split chronologically
	ds, err := ml.BuildDirectionDataset(bars, *lagsFlag)
	if err != nil {
		log.Fatalf("FATAL: Failed to build dataset: %v", err)
	}
	train, test, err := ml.Split(ds, *testFlag, false, *seedFlag)
	if err != nil {
		log.Fatalf("FATAL: Failed to split dataset: %v", err)
	}

	fmt.Printf("Direction classifier: %s on %d samples (%d train, %d test, %d lagged returns)\n\n",
		*modelFlag, ds.Len(), train.Len(), test.Len(), *lagsFlag)

	params := map[string]float64{
		"k":         float64(*kFlag),
		"max_depth": float64(*depthFlag),
		"min_leaf":  float64(*minLeafFlag),
		"l2":        *l2Flag,
	}

	// 5. Optional grid search on the training split
	if *gridFlag {
		best, err := runGridSearch(*modelFlag, train, *seedFlag)
		if err != nil {
			log.Fatalf("FATAL: Grid search failed: %v", err)
		}
		for k, v := range best {
			params[k] = v
		}
	}

	// 6. Fit on train, evaluate on test
	if *modelFlag != "tree" {
		if _, err := ml.Standardize(train, test); err != nil {
			log.Fatalf("FATAL: Failed to standardize features: %v", err)
		}
	}
	classifier, err := buildClassifier(*modelFlag, params, *seedFlag)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	if err := classifier.Fit(train.X, train.Y); err != nil {
		log.Fatalf("FATAL: Training failed: %v", err)
	}

	preds, probs := ml.PredictAll(classifier, test.X)
	report, err := ml.Evaluate(test.Y, preds, probs)
	if err != nil {
		log.Fatalf("FATAL: Evaluation failed: %v", err)
	}
	printReport(report)
}

func buildClassifier(model string, params map[string]float64, seed int64) (ml.Classifier, error) {
	switch model {
	case "logistic":
		return &ml.LogisticRegression{L2: params["l2"], Seed: seed}, nil
	case "knn":
		return &ml.KNN{K: intParam(params, "k")}, nil
	case "tree":
		return &ml.DecisionTree{
			MaxDepth: intParam(params, "max_depth"),
			MinLeaf:  intParam(params, "min_leaf"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown model %q (known: logistic, knn, tree)", model)
	}
}

func intParam(params map[string]float64, name string) int {
	return int(math.Round(params[name]))
}

// runGridSearch sweeps a default grid for the model with 5-fold cross
// validation and returns the best parameter combination.
func runGridSearch(model string, train *ml.Dataset, seed int64) (map[string]float64, error) {
	var grid map[string][]float64
	switch model {
	case "logistic":
		grid = map[string][]float64{"l2": {0, 0.01, 0.1, 1}}
	case "knn":
		grid = map[string][]float64{"k": {3, 5, 9, 15}}
	case "tree":
		grid = map[string][]float64{
			"max_depth": {2, 3, 4, 6},
			"min_leaf":  {1, 5, 10},
		}
	default:
		return nil, fmt.Errorf("unknown model %q (known: logistic, knn, tree)", model)
	}

	factory := func(params map[string]float64) (ml.Classifier, error) {
		return buildClassifier(model, params, seed)
	}
	results, err := ml.GridSearch(train, factory, ml.GridSearchConfig{
		Grid:        grid,
		Folds:       5,
		Seed:        seed,
		Score:       ml.ScoreAccuracy,
		Standardize: model != "tree",
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no parameter combination could be evaluated")
	}

	fmt.Println("Grid search (5-fold accuracy on the training split)")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Rank\tParams\tMean Accuracy\t")
	top := 5
	if top > len(results) {
		top = len(results)
	}
	for i, res := range results[:top] {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t\n", i+1, formatParams(res.Params), res.MeanScore)
	}
	w.Flush()
	fmt.Println()

	return results[0].Params, nil
}

func formatParams(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, params[name])
	}
	return strings.Join(parts, " ")
}

func printReport(r *ml.Report) {
	fmt.Println("Test performance")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "\tpred down\tpred up\t")
	fmt.Fprintf(w, "actual down\t%d\t%d\t\n", r.TN, r.FP)
	fmt.Fprintf(w, "actual up\t%d\t%d\t\n", r.FN, r.TP)
	w.Flush()
	fmt.Println()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Accuracy\t%.4f\t\n", r.Accuracy)
	fmt.Fprintf(w, "Precision\t%.4f\t\n", r.Precision)
	fmt.Fprintf(w, "Recall\t%.4f\t\n", r.Recall)
	fmt.Fprintf(w, "Specificity\t%.4f\t\n", r.Specificity)
	fmt.Fprintf(w, "F1\t%.4f\t\n", r.F1)
	fmt.Fprintf(w, "Cohen's kappa\t%.4f\t\n", r.CohensKappa)
	if r.AUCDefined {
		fmt.Fprintf(w, "ROC AUC\t%.4f\t\n", r.ROCAUC)
		fmt.Fprintf(w, "PR AUC\t%.4f\t\n", r.PRAUC)
	}
	w.Flush()
}
