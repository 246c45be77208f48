package scheduler

import (
	"math"
	"math/rand"
	"testing"
)

// syntheticRegression builds a noiseless dataset with one dominant feature so
// the ensemble has an unambiguous signal to learn.
func syntheticRegression(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(7))

	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a := rng.Float64() * 10
		b := rng.Float64()
		X[i] = []float64{a, b, rng.Float64()}
		y[i] = 5*a + 2*b + 10
	}
	return X, y
}

func TestTrainGBTreeLearnsSignal(t *testing.T) {
	X, y := syntheticRegression(200)

	ensemble := TrainGBTree(X, y, DefaultGBTreeParams())

	pred := make([]float64, len(X))
	for i, x := range X {
		pred[i] = ensemble.Predict(x)
	}

	got := rmse(pred, y)

	// Baseline: predicting the mean everywhere. The trained model must beat
	// it decisively.
	mu := mean(y)
	baseline := make([]float64, len(y))
	for i := range baseline {
		baseline[i] = mu
	}
	if worst := rmse(baseline, y); got > worst/4 {
		t.Errorf("train RMSE = %v, want well below mean-baseline %v", got, worst)
	}
}

func TestTrainGBTreeDeterministic(t *testing.T) {
	X, y := syntheticRegression(100)

	a := TrainGBTree(X, y, DefaultGBTreeParams())
	b := TrainGBTree(X, y, DefaultGBTreeParams())

	probe := []float64{3.3, 0.5, 0.5}
	if pa, pb := a.Predict(probe), b.Predict(probe); pa != pb {
		t.Errorf("same seed produced different predictions: %v vs %v", pa, pb)
	}
}

func TestFeatureImportance(t *testing.T) {
	X, y := syntheticRegression(200)

	ensemble := TrainGBTree(X, y, DefaultGBTreeParams())
	importance := ensemble.FeatureImportance()

	if len(importance) != len(X[0]) {
		t.Fatalf("importance length = %d, want %d", len(importance), len(X[0]))
	}

	var sum float64
	for _, v := range importance {
		if v < 0 {
			t.Errorf("negative importance %v", v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importance sum = %v, want 1", sum)
	}

	// Feature 0 carries five times the weight of feature 1 and all of the
	// range, so it must dominate.
	if importance[0] < importance[1] || importance[0] < importance[2] {
		t.Errorf("expected feature 0 to dominate, got %v", importance)
	}
}

func TestPredictConstantTarget(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{42, 42, 42, 42}

	ensemble := TrainGBTree(X, y, DefaultGBTreeParams())

	if got := ensemble.Predict([]float64{2.5}); math.Abs(got-42) > 1e-6 {
		t.Errorf("Predict = %v, want 42", got)
	}
}
