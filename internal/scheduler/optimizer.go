// Package scheduler implements the AI show-scheduling pipeline: rule-based
// candidate generation, learned demand prediction with a heuristic fallback,
// and exact revenue-maximizing selection with a greedy fallback.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/shopspring/decimal"
)

// BaseTicketPrice anchors both expected revenue and dynamic pricing.
const BaseTicketPrice = 10.0

var baseTicketPrice = decimal.NewFromFloat(BaseTicketPrice)

// Schedule is the result of one optimization run.
type Schedule struct {
	Shows          []domain.ScheduledShow
	Solver         SolverStatus
	SolverNote     string
	CandidateCount int
}

// Optimizer orchestrates the three-stage scheduling pipeline and fronts the
// demand model. One Optimizer serves concurrent optimization requests;
// training synchronizes against prediction through the DemandModel barrier.
type Optimizer struct {
	fx       *FeatureExtractor
	filter   *CandidateFilter
	model    *DemandModel
	selector Selector
	logger   *slog.Logger
}

// NewOptimizer wires a pipeline around the given demand model. A nil
// selector gets the exact search with its default budget.
func NewOptimizer(fx *FeatureExtractor, model *DemandModel, selector Selector, logger *slog.Logger) *Optimizer {
	if selector == nil {
		selector = NewExactSelector(DefaultSolveBudget)
	}

	return &Optimizer{
		fx:       fx,
		filter:   NewCandidateFilter(fx),
		model:    model,
		selector: selector,
		logger:   logger,
	}
}

// OptimizeSchedule runs the full pipeline. Empty movie or room lists yield an
// empty schedule, not an error; only a malformed date range fails the run.
func (o *Optimizer) OptimizeSchedule(
	ctx context.Context,
	movies []domain.Movie,
	existingShows []domain.ExistingShow,
	roomIDs []int,
	dateRange domain.DateRange,
	cons domain.Constraints,
) (Schedule, error) {
	cons = cons.WithDefaults()

	if len(movies) == 0 || len(roomIDs) == 0 {
		return Schedule{Shows: []domain.ScheduledShow{}, Solver: StatusOptimal}, nil
	}

	rooms := make([]domain.Room, len(roomIDs))
	for i, id := range roomIDs {
		rooms[i] = domain.NewRoom(id)
	}

	started := time.Now()

	candidates, err := o.filter.GenerateCandidates(movies, rooms, dateRange, existingShows, cons)
	if err != nil {
		return Schedule{}, err
	}

	o.logger.InfoContext(ctx, "candidate generation finished",
		"candidates", len(candidates),
		"movies", len(movies),
		"rooms", len(rooms),
		"elapsed", time.Since(started))

	if len(candidates) == 0 {
		return Schedule{Shows: []domain.ScheduledShow{}, Solver: StatusOptimal}, nil
	}

	// Keep the exact solve tractable: drop the lowest-priority overflow.
	if len(candidates) > cons.MaxCandidates {
		candidates = candidates[:cons.MaxCandidates]
	}

	predictor := o.model.Predictor()
	predictions := predictor.PredictBatch(candidates)

	for i := range candidates {
		candidates[i].PredictedDemand = predictions[i].Demand
		candidates[i].Confidence = predictions[i].Confidence
		candidates[i].ExpectedRevenue = expectedRevenue(predictions[i].Demand, candidates[i].Priority)
	}

	selection := o.selector.Select(candidates, rooms, cons)

	o.logger.InfoContext(ctx, "selection finished",
		"selected", len(selection.Indices),
		"candidates", len(candidates),
		"solver", selection.Status,
		"elapsed", time.Since(started))
	if selection.Note != "" {
		o.logger.WarnContext(ctx, "solver degraded", "note", selection.Note)
	}

	shows := make([]domain.ScheduledShow, 0, len(selection.Indices))
	for _, i := range selection.Indices {
		c := candidates[i]
		shows = append(shows, domain.ScheduledShow{
			MovieID:         c.Movie.ID,
			MovieTitle:      c.Movie.Title,
			RoomID:          c.Room.ID,
			StartsAt:        c.StartsAt,
			Price:           dynamicPrice(c),
			PredictedDemand: c.PredictedDemand,
			ExpectedRevenue: c.ExpectedRevenue,
			Confidence:      c.Confidence,
			Priority:        c.Priority,
			Reasoning:       reasoning(c),
		})
	}

	sort.SliceStable(shows, func(i, j int) bool {
		return shows[i].StartsAt.Before(shows[j].StartsAt)
	})

	return Schedule{
		Shows:          shows,
		Solver:         selection.Status,
		SolverNote:     selection.Note,
		CandidateCount: len(candidates),
	}, nil
}

// TrainDemandModel trains the demand model from historical bookings.
func (o *Optimizer) TrainDemandModel(ctx context.Context, bookings []domain.Booking, moviesByID map[int]domain.Movie) (TrainingResult, error) {
	started := time.Now()

	result, err := o.model.Train(bookings, moviesByID)
	if err != nil {
		return TrainingResult{}, err
	}

	o.logger.InfoContext(ctx, "demand model trained",
		"train_samples", result.Stats.TrainSamples,
		"test_samples", result.Stats.TestSamples,
		"train_rmse", result.Stats.TrainRMSE,
		"test_rmse", result.Stats.TestRMSE,
		"elapsed", time.Since(started))

	return result, nil
}

// PredictSingleDemand predicts demand for one prospective show.
func (o *Optimizer) PredictSingleDemand(movie domain.Movie, showsAt time.Time, roomID int) Prediction {
	return o.model.Predictor().Predict(movie, showsAt, roomID)
}

// ModelInfo reports the demand model state for polling callers.
func (o *Optimizer) ModelInfo() ModelInfo {
	return o.model.Info()
}

func expectedRevenue(demand, priority float64) float64 {
	return demand * BaseTicketPrice * (1 + priority*0.2)
}

// dynamicPrice compounds demand-tier, prime-time, and weekend factors on the
// base ticket price, rounded to cents.
func dynamicPrice(c domain.Candidate) float64 {
	mult := decimal.NewFromInt(1)

	switch {
	case c.PredictedDemand > 60:
		mult = decimal.NewFromFloat(1.4)
	case c.PredictedDemand > 45:
		mult = decimal.NewFromFloat(1.25)
	case c.PredictedDemand > 30:
		mult = decimal.NewFromFloat(1.1)
	}

	hour := c.StartsAt.Hour()
	if hour >= 19 && hour <= 21 {
		mult = mult.Mul(decimal.NewFromFloat(1.15))
	}

	if day := weekday(c.StartsAt); day == 5 || day == 6 {
		mult = mult.Mul(decimal.NewFromFloat(1.1))
	}

	price, _ := baseTicketPrice.Mul(mult).Round(2).Float64()
	return price
}

// reasoning renders the ordered, human-readable justification clauses for a
// selected show.
func reasoning(c domain.Candidate) string {
	var reasons []string

	hour := c.StartsAt.Hour()
	day := weekday(c.StartsAt)

	if hour >= 19 && hour <= 21 {
		reasons = append(reasons, "prime time slot")
	} else if hour >= 14 && hour <= 18 {
		reasons = append(reasons, "popular afternoon slot")
	}

	if day == 5 || day == 6 {
		reasons = append(reasons, "weekend advantage")
	} else if day == 4 && hour >= 17 {
		reasons = append(reasons, "Friday evening boost")
	}

	if c.PredictedDemand > 50 {
		reasons = append(reasons, fmtDemand("high predicted demand", c.PredictedDemand))
	} else if c.PredictedDemand > 35 {
		reasons = append(reasons, fmtDemand("good demand", c.PredictedDemand))
	}

	if c.Movie.Popularity > 7 {
		reasons = append(reasons, "popular movie")
	}
	if c.Movie.VoteAverage > 7.5 {
		reasons = append(reasons, "highly rated")
	}
	if c.Priority > 1.5 {
		reasons = append(reasons, "high priority match")
	}

	if len(reasons) == 0 {
		return "Standard scheduling based on availability"
	}
	return "Selected due to: " + strings.Join(reasons, ", ")
}

func fmtDemand(label string, demand float64) string {
	return label + " (" + strconv.Itoa(int(demand+0.5)) + " seats)"
}
