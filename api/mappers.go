package api

import (
	"github.com/cinezone/cinezone-ai-service/internal/analytics"
	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/cinezone/cinezone-ai-service/internal/recommender"
	"github.com/cinezone/cinezone-ai-service/internal/scheduler"
	"github.com/shopspring/decimal"
)

func ToMovie(p MoviePayload) domain.Movie {
	return domain.Movie{
		ID:          p.ID,
		Title:       p.Title,
		Overview:    p.Overview,
		GenreIDs:    p.GenreIDs,
		CastIDs:     p.CastIDs,
		Runtime:     p.Runtime,
		Popularity:  p.Popularity,
		VoteAverage: p.VoteAverage,
		VoteCount:   p.VoteCount,
		ReleaseDate: p.ReleaseDate,
	}
}

func ToMovies(ps []MoviePayload) []domain.Movie {
	movies := make([]domain.Movie, len(ps))
	for i, p := range ps {
		movies[i] = ToMovie(p)
	}
	return movies
}

func ToExistingShows(ps []ExistingShowPayload) []domain.ExistingShow {
	shows := make([]domain.ExistingShow, len(ps))
	for i, p := range ps {
		shows[i] = domain.ExistingShow{
			ID:       p.ID,
			MovieID:  p.MovieID,
			RoomID:   p.RoomID,
			StartsAt: p.StartsAt,
			Price:    p.Price,
		}
	}
	return shows
}

func ToBookings(ps []BookingPayload) []domain.Booking {
	bookings := make([]domain.Booking, len(ps))
	for i, p := range ps {
		bookings[i] = domain.Booking{
			ID:         p.ID,
			UserID:     p.UserID,
			ShowID:     p.ShowID,
			MovieID:    p.MovieID,
			MovieTitle: p.MovieTitle,
			GenreIDs:   p.GenreIDs,
			CastIDs:    p.CastIDs,
			ShowsAt:    p.ShowsAt,
			TotalPrice: p.TotalPrice,
			SeatCount:  p.SeatCount,
			BookedAt:   p.BookedAt,
			Status:     p.Status,
		}
	}
	return bookings
}

func ToDateRange(p DateRangePayload) domain.DateRange {
	return domain.DateRange{Start: p.Start, End: p.End}
}

// ToConstraints maps the optional payload onto the defaults, keeping defaults
// for absent fields.
func ToConstraints(p *ConstraintsPayload) domain.Constraints {
	cons := domain.DefaultConstraints()
	if p == nil {
		return cons
	}
	if p.MaxShowsPerDay != nil {
		cons.MaxShowsPerDay = *p.MaxShowsPerDay
	}
	if p.MinBreakMinutes != nil {
		cons.MinBreakMinutes = *p.MinBreakMinutes
	}
	if p.MaxShowsPerMoviePerDay != nil {
		cons.MaxShowsPerMoviePerDay = *p.MaxShowsPerMoviePerDay
	}
	if p.MinShowsPerDay != nil {
		cons.MinShowsPerDay = *p.MinShowsPerDay
	}
	if p.MaxCandidates != nil {
		cons.MaxCandidates = *p.MaxCandidates
	}
	return cons
}

// FromSchedule rounds monetary values to two decimals and demand figures to
// one at the response boundary.
func FromSchedule(s scheduler.Schedule) ScheduleResponse {
	shows := make([]ScheduledShowResponse, len(s.Shows))
	for i, show := range s.Shows {
		shows[i] = ScheduledShowResponse{
			MovieID:         show.MovieID,
			MovieTitle:      show.MovieTitle,
			RoomID:          show.RoomID,
			StartsAt:        show.StartsAt.Format("2006-01-02T15:04:05"),
			Price:           round(show.Price, 2),
			PredictedDemand: round(show.PredictedDemand, 1),
			ExpectedRevenue: round(show.ExpectedRevenue, 2),
			Confidence:      round(show.Confidence, 2),
			Priority:        round(show.Priority, 2),
			Reasoning:       show.Reasoning,
		}
	}

	return ScheduleResponse{
		Shows:          shows,
		TotalShows:     len(shows),
		Solver:         string(s.Solver),
		SolverNote:     s.SolverNote,
		CandidateCount: s.CandidateCount,
	}
}

func FromPrediction(p scheduler.Prediction) PredictDemandResponse {
	model := "rule-based"
	if p.ML {
		model = "ml"
	}
	return PredictDemandResponse{
		PredictedDemand: round(p.Demand, 1),
		Confidence:      round(p.Confidence, 2),
		ModelUsed:       model,
	}
}

func FromModelInfo(info scheduler.ModelInfo) ModelInfoResponse {
	return ModelInfoResponse{
		Trained:           info.IsTrained,
		TrainSamples:      info.Stats.TrainSamples,
		TestSamples:       info.Stats.TestSamples,
		TrainRMSE:         round(info.Stats.TrainRMSE, 3),
		TestRMSE:          round(info.Stats.TestRMSE, 3),
		FeatureImportance: info.FeatureImportance,
		HistoricalPatterns: ModelHistoricalPatterns{
			HourlyDemand:       info.HistoricalPatterns.HourlyDemand,
			DailyDemand:        info.HistoricalPatterns.DailyDemand,
			AvgBookingLeadDays: info.HistoricalPatterns.AvgBookingLeadDays,
			AvgSeatsPerBooking: info.HistoricalPatterns.AvgSeatsPerBooking,
			TotalBookings:      info.HistoricalPatterns.TotalBookings,
			SkippedRecords:     info.HistoricalPatterns.SkippedRecords,
		},
	}
}

func FromAnalysis(a analytics.Analysis) AnalyticsResponse {
	return AnalyticsResponse{
		Insights: a.Insights,
		Patterns: AnalyticsPatterns{
			PeakHours:          a.Patterns.PeakHours,
			BestDays:           a.Patterns.BestDays,
			PopularGenres:      a.Patterns.PopularGenres,
			AvgLeadTimeDays:    a.Patterns.AvgLeadTimeDays,
			RevenueTrend:       a.Patterns.RevenueTrend,
			AvgSeatsPerBooking: a.Patterns.AvgSeatsPerBooking,
		},
		Recommendations:    a.Recommendations,
		TotalRevenue:       a.TotalRevenue,
		TotalBookings:      a.TotalBookings,
		AverageTicketPrice: a.AverageTicketPrice,
		SkippedRecords:     a.SkippedRecords,
	}
}

func FromRecommendations(recs []recommender.Recommendation, algorithm string) RecommendationResponse {
	items := make([]RecommendationItem, len(recs))
	for i, r := range recs {
		items[i] = RecommendationItem{
			MovieID:     r.MovieID,
			Title:       r.Title,
			Similarity:  round(r.Similarity, 3),
			Overview:    r.Overview,
			VoteAverage: r.VoteAverage,
			ReleaseDate: r.ReleaseDate,
		}
	}
	return RecommendationResponse{Recommendations: items, Algorithm: algorithm}
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
