package scheduler

import (
	"math"
	"math/rand"
	"sort"
)

// GBTreeParams are the boosting hyperparameters. The defaults were tuned for
// cinema booking data and are deliberately fixed; changing them invalidates
// persisted artifacts' training stats.
type GBTreeParams struct {
	Rounds         int     `json:"rounds"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	MinChildWeight int     `json:"min_child_weight"`
	SubsampleRows  float64 `json:"subsample"`
	SubsampleCols  float64 `json:"colsample_bytree"`
	RegAlpha       float64 `json:"reg_alpha"`
	RegLambda      float64 `json:"reg_lambda"`
	Seed           int64   `json:"seed"`
}

func DefaultGBTreeParams() GBTreeParams {
	return GBTreeParams{
		Rounds:         200,
		MaxDepth:       6,
		LearningRate:   0.1,
		MinChildWeight: 3,
		SubsampleRows:  0.8,
		SubsampleCols:  0.8,
		RegAlpha:       0.1,
		RegLambda:      1.0,
		Seed:           42,
	}
}

// treeNode is one node of a regression tree, stored in a flat slice. Leaves
// have Left == -1.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

type regressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *regressionTree) predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Left >= 0 {
		n := t.Nodes[i]
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// GBTreeEnsemble is a least-squares gradient-boosted tree ensemble. Training
// is deterministic for a fixed seed, so repeated runs over the same samples
// produce identical models.
type GBTreeEnsemble struct {
	Base       float64          `json:"base"`
	Trees      []regressionTree `json:"trees"`
	Params     GBTreeParams     `json:"params"`
	Gain       []float64        `json:"gain"`
	NumFeature int              `json:"num_features"`
}

// TrainGBTree fits an ensemble to (X, y) by boosting on residuals.
func TrainGBTree(X [][]float64, y []float64, params GBTreeParams) *GBTreeEnsemble {
	n := len(X)
	numFeatures := len(X[0])
	rng := rand.New(rand.NewSource(params.Seed))

	base := mean(y)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}

	ens := &GBTreeEnsemble{
		Base:       base,
		Params:     params,
		Gain:       make([]float64, numFeatures),
		NumFeature: numFeatures,
	}

	residual := make([]float64, n)

	for round := 0; round < params.Rounds; round++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}

		rows := sampleRows(rng, n, params.SubsampleRows)
		cols := sampleCols(rng, numFeatures, params.SubsampleCols)

		tree := buildTree(X, residual, rows, cols, params, ens.Gain)
		ens.Trees = append(ens.Trees, tree)

		for i := range pred {
			pred[i] += params.LearningRate * tree.predict(X[i])
		}
	}

	return ens
}

func (e *GBTreeEnsemble) Predict(x []float64) float64 {
	out := e.Base
	for i := range e.Trees {
		out += e.Params.LearningRate * e.Trees[i].predict(x)
	}
	return out
}

// FeatureImportance returns per-feature shares of the total split gain,
// summing to 1 when any split occurred.
func (e *GBTreeEnsemble) FeatureImportance() []float64 {
	total := 0.0
	for _, g := range e.Gain {
		total += g
	}

	out := make([]float64, len(e.Gain))
	if total == 0 {
		return out
	}
	for i, g := range e.Gain {
		out[i] = g / total
	}
	return out
}

// buildTree grows one regression tree on the residuals, greedily choosing the
// split with the highest regularized gain. gainOut accumulates split gains
// per feature across the whole ensemble.
func buildTree(X [][]float64, residual []float64, rows []int, cols []int, params GBTreeParams, gainOut []float64) regressionTree {
	t := regressionTree{}
	growNode(&t, X, residual, rows, cols, params, 0, gainOut)
	return t
}

func growNode(t *regressionTree, X [][]float64, residual []float64, rows []int, cols []int, params GBTreeParams, depth int, gainOut []float64) int {
	sum := 0.0
	for _, i := range rows {
		sum += residual[i]
	}
	count := float64(len(rows))

	leaf := func() int {
		t.Nodes = append(t.Nodes, treeNode{
			Feature: -1,
			Left:    -1,
			Right:   -1,
			Value:   leafValue(sum, count, params),
		})
		return len(t.Nodes) - 1
	}

	if depth >= params.MaxDepth || len(rows) < 2*params.MinChildWeight {
		return leaf()
	}

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	parentScore := sum * sum / (count + params.RegLambda)

	for _, f := range cols {
		feature, threshold, gain := bestSplitOn(X, residual, rows, f, parentScore, params)
		if gain > bestGain {
			bestGain = gain
			bestFeature = feature
			bestThreshold = threshold
		}
	}

	if bestFeature < 0 {
		return leaf()
	}

	gainOut[bestFeature] += bestGain

	var left, right []int
	for _, i := range rows {
		if X[i][bestFeature] < bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, treeNode{Feature: bestFeature, Threshold: bestThreshold, Left: -2, Right: -2})

	l := growNode(t, X, residual, left, cols, params, depth+1, gainOut)
	r := growNode(t, X, residual, right, cols, params, depth+1, gainOut)
	t.Nodes[idx].Left = l
	t.Nodes[idx].Right = r

	return idx
}

// bestSplitOn scans the sorted values of one feature for the best threshold.
func bestSplitOn(X [][]float64, residual []float64, rows []int, feature int, parentScore float64, params GBTreeParams) (int, float64, float64) {
	type pair struct {
		value    float64
		residual float64
	}

	pairs := make([]pair, len(rows))
	for k, i := range rows {
		pairs[k] = pair{X[i][feature], residual[i]}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].value < pairs[b].value })

	total := 0.0
	for _, p := range pairs {
		total += p.residual
	}

	bestGain := 0.0
	bestThreshold := 0.0
	found := false

	leftSum := 0.0
	for k := 0; k < len(pairs)-1; k++ {
		leftSum += pairs[k].residual

		// Only split between distinct values.
		if pairs[k].value == pairs[k+1].value {
			continue
		}

		leftCount := float64(k + 1)
		rightCount := float64(len(pairs) - k - 1)
		if int(leftCount) < params.MinChildWeight || int(rightCount) < params.MinChildWeight {
			continue
		}

		rightSum := total - leftSum
		gain := leftSum*leftSum/(leftCount+params.RegLambda) +
			rightSum*rightSum/(rightCount+params.RegLambda) -
			parentScore

		if gain > bestGain {
			bestGain = gain
			bestThreshold = (pairs[k].value + pairs[k+1].value) / 2
			found = true
		}
	}

	if !found {
		return -1, 0, 0
	}
	return feature, bestThreshold, bestGain
}

// leafValue applies L1 soft-thresholding and L2 shrinkage to the residual sum.
func leafValue(sum, count float64, params GBTreeParams) float64 {
	switch {
	case sum > params.RegAlpha:
		sum -= params.RegAlpha
	case sum < -params.RegAlpha:
		sum += params.RegAlpha
	default:
		sum = 0
	}
	return sum / (count + params.RegLambda)
}

func sampleRows(rng *rand.Rand, n int, fraction float64) []int {
	k := int(math.Max(1, math.Round(float64(n)*fraction)))
	perm := rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

func sampleCols(rng *rand.Rand, n int, fraction float64) []int {
	k := int(math.Max(1, math.Round(float64(n)*fraction)))
	perm := rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func rmse(pred, truth []float64) float64 {
	var sum float64
	for i := range pred {
		d := pred[i] - truth[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pred)))
}
