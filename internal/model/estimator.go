// Package model provides the pluggable regression capability used to
// estimate per-feature influence on monthly case counts.
//
// The estimator treats the regression algorithm as opaque: anything
// implementing [Regressor] can be plugged in, provided it exposes a
// normalized non-negative importance per feature. The default capability
// is [RandomForest].
package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/dengueatlas/analytics-service/internal/domain"
)

// Regressor is the fit/predict/importance contract an estimation
// capability must satisfy.
type Regressor interface {
	// Fit trains on a feature matrix (rows × features) and target vector.
	Fit(features [][]float64, targets []float64) error
	// Predict returns the estimated target for one feature vector.
	Predict(features []float64) float64
	// FeatureImportances returns one non-negative weight per feature
	// column, in fit order. Weights need not be normalized; the
	// estimator normalizes them.
	FeatureImportances() []float64
	// Name is the human-readable model type reported in bundles.
	Name() string
}

// Influence is the output of a single model fit: the importance vector
// plus fit-quality metadata consumed read-only by the aggregators.
type Influence struct {
	Importances  domain.ImportanceVector
	ModelType    string
	FeaturesUsed []domain.Feature
	TrainScore   float64
	TestScore    float64
	DataPoints   int
	YearMin      int
	YearMax      int
}

// Split parameters. Fixed so repeated runs against the same table yield
// identical importances — downstream aggregation depends on that.
const (
	splitSeed    = 42
	testFraction = 0.2
)

// EstimateInfluence fits the regressor to predict case counts from the
// candidate features and returns the normalized importance vector with
// train/held-out R² scores.
//
// Missing feature values are imputed with the feature's median over the
// whole table before fitting, so features with more gaps are not biased
// toward zero importance. Returns *domain.InsufficientDataError when the
// case counts carry fewer than two distinct values.
func EstimateInfluence(rows []domain.FeatureRow, features []domain.Feature, reg Regressor) (Influence, error) {
	if len(features) == 0 {
		return Influence{}, fmt.Errorf("estimate influence: no candidate features")
	}

	targets := make([]float64, len(rows))
	distinct := make(map[int]struct{}, len(rows))
	for i, row := range rows {
		targets[i] = float64(row.Cases)
		distinct[row.Cases] = struct{}{}
	}
	if len(distinct) < 2 {
		return Influence{}, &domain.InsufficientDataError{DistinctValues: len(distinct)}
	}

	matrix := buildMatrix(rows, features)
	imputeMedians(matrix)

	trainIdx, testIdx := splitIndices(len(rows))

	trainX, trainY := subset(matrix, targets, trainIdx)
	testX, testY := subset(matrix, targets, testIdx)

	if err := reg.Fit(trainX, trainY); err != nil {
		return Influence{}, fmt.Errorf("fit regressor: %w", err)
	}

	influence := Influence{
		Importances:  normalizeImportances(features, reg.FeatureImportances()),
		ModelType:    reg.Name(),
		FeaturesUsed: features,
		TrainScore:   rSquared(reg, trainX, trainY),
		TestScore:    rSquared(reg, testX, testY),
		DataPoints:   len(rows),
	}
	influence.YearMin, influence.YearMax = yearSpan(rows)
	return influence, nil
}

// buildMatrix extracts the feature columns into a dense rows × features
// matrix. Missing values stay NaN until imputation.
func buildMatrix(rows []domain.FeatureRow, features []domain.Feature) [][]float64 {
	matrix := make([][]float64, len(rows))
	for i, row := range rows {
		vec := make([]float64, len(features))
		for j, f := range features {
			vec[j] = row.FeatureValue(f)
		}
		matrix[i] = vec
	}
	return matrix
}

// imputeMedians replaces NaN cells with the column median over the
// non-missing values. A column with no observed values at all imputes to
// zero.
func imputeMedians(matrix [][]float64) {
	if len(matrix) == 0 {
		return
	}
	cols := len(matrix[0])
	for j := 0; j < cols; j++ {
		observed := make([]float64, 0, len(matrix))
		for i := range matrix {
			if !math.IsNaN(matrix[i][j]) {
				observed = append(observed, matrix[i][j])
			}
		}
		fill := 0.0
		if len(observed) > 0 {
			sort.Float64s(observed)
			fill = stat.Quantile(0.5, stat.Empirical, observed, nil)
		}
		for i := range matrix {
			if math.IsNaN(matrix[i][j]) {
				matrix[i][j] = fill
			}
		}
	}
}

// splitIndices produces a deterministic shuffled 80/20 train/test
// partition of n row indices.
func splitIndices(n int) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(splitSeed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest >= n {
		nTest = n - 1
	}
	return idx[nTest:], idx[:nTest]
}

func subset(matrix [][]float64, targets []float64, idx []int) ([][]float64, []float64) {
	x := make([][]float64, len(idx))
	y := make([]float64, len(idx))
	for i, k := range idx {
		x[i] = matrix[k]
		y[i] = targets[k]
	}
	return x, y
}

// rSquared scores the fitted regressor on a partition. Returns 0 for an
// empty partition and is undefined (may be NaN) when the partition has a
// constant target.
func rSquared(reg Regressor, x [][]float64, y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	estimates := make([]float64, len(y))
	for i, vec := range x {
		estimates[i] = reg.Predict(vec)
	}
	return stat.RSquaredFrom(estimates, y, nil)
}

// normalizeImportances clamps negatives to zero and scales the weights to
// sum to 1. If every weight is zero the raw zeros are kept.
func normalizeImportances(features []domain.Feature, raw []float64) domain.ImportanceVector {
	iv := make(domain.ImportanceVector, len(features))
	sum := 0.0
	for j := range features {
		w := 0.0
		if j < len(raw) && raw[j] > 0 {
			w = raw[j]
		}
		iv[features[j]] = w
		sum += w
	}
	if sum > 0 {
		for f, w := range iv {
			iv[f] = w / sum
		}
	}
	return iv
}

func yearSpan(rows []domain.FeatureRow) (minYear, maxYear int) {
	for i, row := range rows {
		if i == 0 || row.Year < minYear {
			minYear = row.Year
		}
		if i == 0 || row.Year > maxYear {
			maxYear = row.Year
		}
	}
	return minYear, maxYear
}
