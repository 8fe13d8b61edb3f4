package ml

import (
	"fmt"
	"math"
	"math/rand"

	"quantlab/internal/domain"
	"quantlab/internal/ports"
)

// Dataset pairs a feature matrix with binary labels.
type Dataset struct {
	X            [][]float64
	Y            []int
	FeatureNames []string
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.X) }

// WindowSeries turns a series into supervised rows: each row holds nLags
// consecutive values and the target is the value nLeads steps after the
// window.
func WindowSeries(series []float64, nLags, nLeads int) ([][]float64, []float64, error) {
	if nLags < 1 {
		return nil, nil, fmt.Errorf("ml: nLags must be at least 1, got %d", nLags)
	}
	if nLeads < 1 {
		return nil, nil, fmt.Errorf("ml: nLeads must be at least 1, got %d", nLeads)
	}
	n := len(series) - nLags - nLeads + 1
	if n < 1 {
		return nil, nil, fmt.Errorf("ml: %w: %d observations for %d lags and %d leads",
			ports.ErrInsufficientData, len(series), nLags, nLeads)
	}

	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = append([]float64(nil), series[i:i+nLags]...)
		y[i] = series[i+nLags+nLeads-1]
	}
	return X, y, nil
}

// BuildDirectionDataset builds a next-bar direction dataset from close
// prices: features are the nLags most recent simple returns and the label
// is 1 when the following return is positive.
func BuildDirectionDataset(bars []domain.Bar, nLags int) (*Dataset, error) {
	if nLags < 1 {
		return nil, fmt.Errorf("ml: nLags must be at least 1, got %d", nLags)
	}
	if len(bars) < nLags+2 {
		return nil, fmt.Errorf("ml: %w: %d bars for %d lags", ports.ErrInsufficientData, len(bars), nLags)
	}

	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev <= 0 {
			return nil, fmt.Errorf("ml: non-positive close %v at bar %d", prev, i-1)
		}
		returns = append(returns, bars[i].Close/prev-1)
	}

	names := make([]string, nLags)
	for j := 0; j < nLags; j++ {
		names[j] = fmt.Sprintf("ret_lag_%d", nLags-j)
	}

	ds := &Dataset{FeatureNames: names}
	for i := nLags; i < len(returns); i++ {
		ds.X = append(ds.X, append([]float64(nil), returns[i-nLags:i]...))
		label := 0
		if returns[i] > 0 {
			label = 1
		}
		ds.Y = append(ds.Y, label)
	}
	return ds, nil
}

// Subset returns a dataset view over the given sample indices. Feature
// rows are shared with the parent.
func Subset(ds *Dataset, indices []int) *Dataset {
	out := &Dataset{
		X:            make([][]float64, len(indices)),
		Y:            make([]int, len(indices)),
		FeatureNames: ds.FeatureNames,
	}
	for i, idx := range indices {
		out.X[i] = ds.X[idx]
		out.Y[i] = ds.Y[idx]
	}
	return out
}

// Split divides a dataset into train and test parts. With shuffle the
// samples are permuted with the seeded generator first, otherwise the test
// part is the chronological tail.
func Split(ds *Dataset, testFrac float64, shuffle bool, seed int64) (train, test *Dataset, err error) {
	n := ds.Len()
	if n < 2 {
		return nil, nil, fmt.Errorf("ml: %w: %d samples", ports.ErrInsufficientData, n)
	}
	if testFrac <= 0 || testFrac >= 1 {
		return nil, nil, fmt.Errorf("ml: testFrac must be in (0, 1), got %v", testFrac)
	}

	nTest := int(math.Round(float64(n) * testFrac))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if shuffle {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	}
	return Subset(ds, indices[:n-nTest]), Subset(ds, indices[n-nTest:]), nil
}

// Scaler holds per-feature standardization parameters fitted on training
// data.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler computes per-column mean and population standard deviation.
func FitScaler(X [][]float64) (*Scaler, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, fmt.Errorf("ml: empty feature matrix")
	}
	width := len(X[0])
	s := &Scaler{
		Mean: make([]float64, width),
		Std:  make([]float64, width),
	}
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("ml: ragged feature matrix at row %d", i)
		}
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		// Constant columns pass through centred rather than dividing by zero.
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s, nil
}

// TransformRow z-scores a single row. The row must have the scaler's width.
func (s *Scaler) TransformRow(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// Transform z-scores every row into a new matrix.
func (s *Scaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.TransformRow(row)
	}
	return out
}

// Standardize fits a scaler on the train split and replaces both feature
// matrices with z-scored copies. test may be nil.
func Standardize(train, test *Dataset) (*Scaler, error) {
	scaler, err := FitScaler(train.X)
	if err != nil {
		return nil, err
	}
	train.X = scaler.Transform(train.X)
	if test != nil {
		test.X = scaler.Transform(test.X)
	}
	return scaler, nil
}
