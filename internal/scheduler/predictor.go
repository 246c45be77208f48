package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
)

const (
	// MinTrainingSamples is the minimum number of valid aggregated show
	// samples required to train the demand model.
	MinTrainingSamples = 30

	mlDemandFloor   = 5.0
	ruleDemandFloor = 10.0
	ruleDemandCap   = 100.0
	ruleConfidence  = 0.55

	baseDemand = 35.0

	// trainingRoomID stands in for the unknown room of a historical show.
	trainingRoomID = 1
)

// Prediction is the outcome of a single demand prediction.
type Prediction struct {
	Demand     float64
	Confidence float64
	ML         bool
}

// Predictor predicts expected seat demand for a (movie, datetime, room)
// triple. Implementations must be safe for concurrent readers and must make
// PredictBatch produce exactly the per-item results of sequential Predict
// calls.
type Predictor interface {
	Predict(m domain.Movie, showsAt time.Time, roomID int) Prediction
	PredictBatch(candidates []domain.Candidate) []Prediction
}

// HeuristicPredictor is the deterministic rule-based predictor used whenever
// no trained model is available.
type HeuristicPredictor struct {
	fx *FeatureExtractor
}

func NewHeuristicPredictor(fx *FeatureExtractor) *HeuristicPredictor {
	return &HeuristicPredictor{fx: fx}
}

func (p *HeuristicPredictor) Predict(m domain.Movie, showsAt time.Time, roomID int) Prediction {
	temporal := p.fx.TemporalFeatures(showsAt)
	movie := p.fx.MovieFeatures(m)

	demand := baseDemand * temporal.HourMultiplier * temporal.DayMultiplier

	if temporal.IsWeekend {
		demand *= 1.3
	}

	demand *= movie.Freshness
	demand *= 0.5 + movie.BayesianRating/20
	demand *= 0.8 + movie.GenrePopularity*0.4

	// Blend toward the observed average when the movie has history.
	if movie.HistoricalSeats > 0 {
		factor := math.Min(1.5, movie.HistoricalSeats/40)
		demand = demand*0.7 + movie.HistoricalSeats*0.3*factor
	}

	demand = math.Min(ruleDemandCap, math.Max(ruleDemandFloor, demand))

	return Prediction{Demand: demand, Confidence: ruleConfidence}
}

func (p *HeuristicPredictor) PredictBatch(candidates []domain.Candidate) []Prediction {
	out := make([]Prediction, len(candidates))
	for i, c := range candidates {
		out[i] = p.Predict(c.Movie, c.StartsAt, c.Room.ID)
	}
	return out
}

// LearnedPredictor runs the feature vector through a trained ensemble.
type LearnedPredictor struct {
	fx           *FeatureExtractor
	ensemble     *GBTreeEnsemble
	trainSamples int
}

func NewLearnedPredictor(fx *FeatureExtractor, ensemble *GBTreeEnsemble, trainSamples int) *LearnedPredictor {
	return &LearnedPredictor{fx: fx, ensemble: ensemble, trainSamples: trainSamples}
}

func (p *LearnedPredictor) Predict(m domain.Movie, showsAt time.Time, roomID int) Prediction {
	features := p.fx.DemandFeatures(m, showsAt, roomID)

	return Prediction{
		Demand:     math.Max(mlDemandFloor, p.ensemble.Predict(features)),
		Confidence: p.confidence(),
		ML:         true,
	}
}

func (p *LearnedPredictor) PredictBatch(candidates []domain.Candidate) []Prediction {
	out := make([]Prediction, len(candidates))
	for i, c := range candidates {
		out[i] = p.Predict(c.Movie, c.StartsAt, c.Room.ID)
	}
	return out
}

func (p *LearnedPredictor) confidence() float64 {
	return math.Min(0.9, 0.6+float64(p.trainSamples)/1000)
}

// TrainingStats describe the last successful training run.
type TrainingStats struct {
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
	TrainRMSE    float64 `json:"train_rmse"`
	TestRMSE     float64 `json:"test_rmse"`
}

// TrainingResult is returned to the caller after a training run.
type TrainingResult struct {
	Stats             TrainingStats
	FeatureImportance map[string]float64
	Message           string
}

// ModelInfo is the poll target for background training.
type ModelInfo struct {
	IsTrained          bool
	Stats              TrainingStats
	FeatureImportance  map[string]float64
	HistoricalPatterns HistoricalPatterns
}

// DemandModel owns the active predictor and the trained-model lifecycle.
// Training takes the write half of the barrier; prediction and info reads
// take the read half, so scheduling never observes a half-swapped model.
type DemandModel struct {
	mu sync.RWMutex

	fx           *FeatureExtractor
	logger       *slog.Logger
	artifactPath string

	learned    *LearnedPredictor
	heuristic  *HeuristicPredictor
	stats      TrainingStats
	importance map[string]float64
}

func NewDemandModel(fx *FeatureExtractor, artifactPath string, logger *slog.Logger) *DemandModel {
	return &DemandModel{
		fx:           fx,
		logger:       logger,
		artifactPath: artifactPath,
		heuristic:    NewHeuristicPredictor(fx),
	}
}

// Predictor returns the currently active predictor: learned when trained,
// heuristic otherwise.
func (m *DemandModel) Predictor() Predictor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.learned != nil {
		return m.learned
	}
	return m.heuristic
}

func (m *DemandModel) IsTrained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.learned != nil
}

func (m *DemandModel) Info() ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ModelInfo{
		IsTrained:          m.learned != nil,
		Stats:              m.stats,
		FeatureImportance:  m.importance,
		HistoricalPatterns: m.fx.Patterns(),
	}
}

// Train fits a new model from historical bookings. Bookings are aggregated
// per show into total seats sold, each show becoming one training sample.
// Fewer than MinTrainingSamples valid samples fails with
// domain.ErrInsufficientData and leaves any prior model active.
func (m *DemandModel) Train(bookings []domain.Booking, moviesByID map[int]domain.Movie) (TrainingResult, error) {
	if len(bookings) < MinTrainingSamples {
		return TrainingResult{}, fmt.Errorf("%w: %d bookings (need at least %d)",
			domain.ErrInsufficientData, len(bookings), MinTrainingSamples)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fx.BuildHistoricalPatterns(bookings)

	X, y := m.trainingSamples(bookings, moviesByID)
	if len(X) < MinTrainingSamples {
		return TrainingResult{}, fmt.Errorf("%w: %d valid show samples (need at least %d)",
			domain.ErrInsufficientData, len(X), MinTrainingSamples)
	}

	split := len(X) * 8 / 10
	trainX, testX := X[:split], X[split:]
	trainY, testY := y[:split], y[split:]

	ensemble := TrainGBTree(trainX, trainY, DefaultGBTreeParams())

	trainPred := make([]float64, len(trainX))
	for i, x := range trainX {
		trainPred[i] = ensemble.Predict(x)
	}
	testPred := make([]float64, len(testX))
	for i, x := range testX {
		testPred[i] = ensemble.Predict(x)
	}

	m.stats = TrainingStats{
		TrainSamples: len(trainX),
		TestSamples:  len(testX),
		TrainRMSE:    rmse(trainPred, trainY),
		TestRMSE:     rmse(testPred, testY),
	}
	m.importance = topFeatures(m.fx.FeatureNames(), ensemble.FeatureImportance(), 10)
	m.learned = NewLearnedPredictor(m.fx, ensemble, len(trainX))

	if err := m.saveArtifact(ensemble); err != nil {
		// The in-memory model is already live; persistence is best effort.
		m.logger.Error("failed to persist demand model artifact", "error", err)
	}

	return TrainingResult{
		Stats:             m.stats,
		FeatureImportance: m.importance,
		Message:           fmt.Sprintf("model trained on %d samples", len(trainX)),
	}, nil
}

// trainingSamples aggregates bookings per show and extracts one feature
// vector per show. Bookings whose show datetime cannot be parsed are skipped.
func (m *DemandModel) trainingSamples(bookings []domain.Booking, moviesByID map[int]domain.Movie) ([][]float64, []float64) {
	type showAgg struct {
		totalSeats int
		first      domain.Booking
	}

	byShow := map[int]*showAgg{}
	var order []int

	for _, b := range bookings {
		agg, ok := byShow[b.ShowID]
		if !ok {
			agg = &showAgg{first: b}
			byShow[b.ShowID] = agg
			order = append(order, b.ShowID)
		}
		agg.totalSeats += b.SeatCount
	}

	var (
		X [][]float64
		y []float64
	)

	for _, showID := range order {
		agg := byShow[showID]
		b := agg.first

		movie, ok := moviesByID[b.MovieID]
		if !ok {
			// Reconstruct from the denormalized booking fields.
			movie = domain.Movie{
				ID:         b.MovieID,
				Title:      b.MovieTitle,
				GenreIDs:   b.GenreIDs,
				CastIDs:    b.CastIDs,
				Runtime:    defaultRuntime,
				Popularity: defaultPopularity,
			}
		}

		showsAt, err := domain.ParseTime(b.ShowsAt)
		if err != nil {
			continue
		}

		X = append(X, m.fx.DemandFeatures(movie, showsAt, trainingRoomID))
		y = append(y, float64(agg.totalSeats))
	}

	return X, y
}

// modelArtifact is the persisted form of a trained model.
type modelArtifact struct {
	Ensemble     *GBTreeEnsemble    `json:"ensemble"`
	Stats        TrainingStats      `json:"training_stats"`
	Importance   map[string]float64 `json:"feature_importance"`
	TrainSamples int                `json:"train_samples"`
	SavedAt      time.Time          `json:"saved_at"`
}

func (m *DemandModel) saveArtifact(ensemble *GBTreeEnsemble) error {
	if m.artifactPath == "" {
		return nil
	}

	data, err := json.Marshal(modelArtifact{
		Ensemble:     ensemble,
		Stats:        m.stats,
		Importance:   m.importance,
		TrainSamples: m.stats.TrainSamples,
		SavedAt:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.artifactPath), 0o755); err != nil {
		return err
	}

	return os.WriteFile(m.artifactPath, data, 0o644)
}

// LoadArtifact restores a previously trained model. A missing artifact is
// not an error; a corrupt one is reported but leaves the model untrained
// either way.
func (m *DemandModel) LoadArtifact() error {
	if m.artifactPath == "" {
		return nil
	}

	data, err := os.ReadFile(m.artifactPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var artifact modelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return fmt.Errorf("corrupt model artifact: %w", err)
	}
	if artifact.Ensemble == nil || len(artifact.Ensemble.Trees) == 0 {
		return errors.New("corrupt model artifact: empty ensemble")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats = artifact.Stats
	m.importance = artifact.Importance
	m.learned = NewLearnedPredictor(m.fx, artifact.Ensemble, artifact.TrainSamples)

	return nil
}

// topFeatures keeps the k highest-importance features by name.
func topFeatures(names []string, importance []float64, k int) map[string]float64 {
	type scored struct {
		name  string
		score float64
	}

	all := make([]scored, 0, len(names))
	for i, name := range names {
		if i < len(importance) {
			all = append(all, scored{name, importance[i]})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	if k > len(all) {
		k = len(all)
	}

	out := make(map[string]float64, k)
	for _, s := range all[:k] {
		out[s.name] = s.score
	}
	return out
}
