package model

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ForestConfig holds the random forest hyperparameters.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

// DefaultForestConfig returns the hyperparameters used for the production
// influence estimate.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           250,
		MaxDepth:        15,
		MinSamplesSplit: 5,
		Seed:            2,
	}
}

// RandomForest is a regression ensemble of variance-reduction decision
// trees over bootstrap samples. Feature importance is the total
// variance decrease attributed to splits on each feature, averaged over
// trees. Fits are deterministic for a given seed.
type RandomForest struct {
	cfg         ForestConfig
	trees       []*treeNode
	importances []float64
	numFeatures int
}

// NewRandomForest creates an unfitted forest with the given config.
func NewRandomForest(cfg ForestConfig) *RandomForest {
	return &RandomForest{cfg: cfg}
}

// Name implements Regressor.
func (f *RandomForest) Name() string { return "Random Forest Regressor" }

// treeNode is one node of a regression tree. Leaves predict the mean
// target of their training samples.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	isLeaf    bool
}

// Fit implements Regressor. It grows cfg.Trees trees, each on a bootstrap
// sample of the rows, considering a random subset of features at every
// split (one third of the columns, at least one).
func (f *RandomForest) Fit(features [][]float64, targets []float64) error {
	if len(features) == 0 {
		return fmt.Errorf("random forest: no training rows")
	}
	if len(features) != len(targets) {
		return fmt.Errorf("random forest: %d rows but %d targets", len(features), len(targets))
	}

	f.numFeatures = len(features[0])
	f.trees = make([]*treeNode, 0, f.cfg.Trees)
	f.importances = make([]float64, f.numFeatures)

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	n := len(features)

	for t := 0; t < f.cfg.Trees; t++ {
		sampleX := make([][]float64, n)
		sampleY := make([]float64, n)
		for i := 0; i < n; i++ {
			k := rng.Intn(n)
			sampleX[i] = features[k]
			sampleY[i] = targets[k]
		}
		f.trees = append(f.trees, f.buildTree(sampleX, sampleY, 0, n, rng))
	}

	// Average the accumulated impurity decreases over the ensemble.
	for j := range f.importances {
		f.importances[j] /= float64(f.cfg.Trees)
	}
	return nil
}

// buildTree recursively grows a regression tree by variance reduction.
// totalN is the bootstrap sample size, used to weight each split's
// impurity decrease for the importance accounting.
func (f *RandomForest) buildTree(features [][]float64, targets []float64, depth, totalN int, rng *rand.Rand) *treeNode {
	if depth >= f.cfg.MaxDepth || len(targets) < f.cfg.MinSamplesSplit || isConstant(targets) {
		return &treeNode{isLeaf: true, value: mean(targets)}
	}

	bestFeature, bestThreshold, bestGain := f.findBestSplit(features, targets, rng)
	if bestGain <= 0 {
		return &treeNode{isLeaf: true, value: mean(targets)}
	}

	leftX, leftY, rightX, rightY := partition(features, targets, bestFeature, bestThreshold)

	f.importances[bestFeature] += bestGain * float64(len(targets)) / float64(totalN)

	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      f.buildTree(leftX, leftY, depth+1, totalN, rng),
		right:     f.buildTree(rightX, rightY, depth+1, totalN, rng),
	}
}

// findBestSplit evaluates a random feature subset, splitting each at its
// median value, and returns the split with the largest variance decrease.
func (f *RandomForest) findBestSplit(features [][]float64, targets []float64, rng *rand.Rand) (int, float64, float64) {
	parentVar := variance(targets)
	if parentVar == 0 {
		return 0, 0, 0
	}

	bestFeature, bestThreshold, bestGain := 0, 0.0, 0.0
	for _, j := range f.candidateFeatures(rng) {
		column := make([]float64, len(features))
		for i, row := range features {
			column[i] = row[j]
		}
		sort.Float64s(column)
		threshold := stat.Quantile(0.5, stat.Empirical, column, nil)

		_, leftY, _, rightY := partition(features, targets, j, threshold)
		if len(leftY) == 0 || len(rightY) == 0 {
			continue
		}

		leftW := float64(len(leftY)) / float64(len(targets))
		rightW := float64(len(rightY)) / float64(len(targets))
		gain := parentVar - (leftW*variance(leftY) + rightW*variance(rightY))

		if gain > bestGain {
			bestFeature, bestThreshold, bestGain = j, threshold, gain
		}
	}
	return bestFeature, bestThreshold, bestGain
}

// candidateFeatures picks the random feature subset considered at one
// split: a third of the columns, minimum one.
func (f *RandomForest) candidateFeatures(rng *rand.Rand) []int {
	k := f.numFeatures / 3
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(f.numFeatures)
	return perm[:k]
}

// Predict implements Regressor: the mean of the per-tree predictions.
func (f *RandomForest) Predict(features []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range f.trees {
		sum += tree.predict(features)
	}
	return sum / float64(len(f.trees))
}

func (n *treeNode) predict(features []float64) float64 {
	if n.isLeaf {
		return n.value
	}
	if features[n.feature] <= n.threshold {
		return n.left.predict(features)
	}
	return n.right.predict(features)
}

// FeatureImportances implements Regressor.
func (f *RandomForest) FeatureImportances() []float64 {
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out
}

func partition(features [][]float64, targets []float64, feature int, threshold float64) ([][]float64, []float64, [][]float64, []float64) {
	var leftX, rightX [][]float64
	var leftY, rightY []float64
	for i, row := range features {
		if row[feature] <= threshold {
			leftX = append(leftX, row)
			leftY = append(leftY, targets[i])
		} else {
			rightX = append(rightX, row)
			rightY = append(rightY, targets[i])
		}
	}
	return leftX, leftY, rightX, rightY
}

func isConstant(values []float64) bool {
	for _, v := range values {
		if v != values[0] {
			return false
		}
	}
	return true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance, the impurity measure for
// regression splits.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}
