package mocks

import (
	"context"
	"time"

	"github.com/cinezone/cinezone-ai-service/internal/analytics"
	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/cinezone/cinezone-ai-service/internal/recommender"
	"github.com/cinezone/cinezone-ai-service/internal/scheduler"
)

type MockScheduler struct {
	OptimizeScheduleFunc    func(ctx context.Context, movies []domain.Movie, existingShows []domain.ExistingShow, roomIDs []int, dateRange domain.DateRange, cons domain.Constraints) (scheduler.Schedule, error)
	TrainDemandModelFunc    func(ctx context.Context, bookings []domain.Booking, moviesByID map[int]domain.Movie) (scheduler.TrainingResult, error)
	PredictSingleDemandFunc func(movie domain.Movie, showsAt time.Time, roomID int) scheduler.Prediction
	ModelInfoFunc           func() scheduler.ModelInfo
}

func (m *MockScheduler) OptimizeSchedule(
	ctx context.Context,
	movies []domain.Movie,
	existingShows []domain.ExistingShow,
	roomIDs []int,
	dateRange domain.DateRange,
	cons domain.Constraints,
) (scheduler.Schedule, error) {
	return m.OptimizeScheduleFunc(ctx, movies, existingShows, roomIDs, dateRange, cons)
}

func (m *MockScheduler) TrainDemandModel(ctx context.Context, bookings []domain.Booking, moviesByID map[int]domain.Movie) (scheduler.TrainingResult, error) {
	return m.TrainDemandModelFunc(ctx, bookings, moviesByID)
}

func (m *MockScheduler) PredictSingleDemand(movie domain.Movie, showsAt time.Time, roomID int) scheduler.Prediction {
	return m.PredictSingleDemandFunc(movie, showsAt, roomID)
}

func (m *MockScheduler) ModelInfo() scheduler.ModelInfo {
	return m.ModelInfoFunc()
}

type MockRecommender struct {
	RecommendFunc func(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]recommender.Recommendation, string, error)
}

func (m *MockRecommender) Recommend(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]recommender.Recommendation, string, error) {
	return m.RecommendFunc(targetID, allMovies, limit, useCollaborative, userHistory)
}

type MockAnalyzer struct {
	AnalyzePatternsFunc func(bookings []domain.Booking) analytics.Analysis
}

func (m *MockAnalyzer) AnalyzePatterns(bookings []domain.Booking) analytics.Analysis {
	return m.AnalyzePatternsFunc(bookings)
}
