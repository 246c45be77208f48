// Package api defines the request and response payloads of the HTTP surface.
package api

// MoviePayload carries the movie metadata needed for feature extraction.
type MoviePayload struct {
	ID          int     `json:"id" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required"`
	Overview    string  `json:"overview"`
	GenreIDs    []int   `json:"genre_ids"`
	CastIDs     []int   `json:"cast_ids"`
	Runtime     int     `json:"runtime" validate:"omitempty,gt=0"`
	Popularity  float64 `json:"popularity" validate:"gte=0"`
	VoteAverage float64 `json:"vote_average" validate:"gte=0,lte=10"`
	VoteCount   int     `json:"vote_count" validate:"gte=0"`
	ReleaseDate string  `json:"release_date" validate:"omitempty,isodate"`
}

// ExistingShowPayload describes a show already on the schedule.
type ExistingShowPayload struct {
	ID       int     `json:"id"`
	MovieID  int     `json:"movie_id" validate:"required,gt=0"`
	RoomID   int     `json:"room_id" validate:"required,gt=0"`
	StartsAt string  `json:"starts_at" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// BookingPayload is one historical booking record used for training and analytics.
type BookingPayload struct {
	ID         int     `json:"id"`
	UserID     int     `json:"user_id"`
	ShowID     int     `json:"show_id" validate:"required"`
	MovieID    int     `json:"movie_id" validate:"required,gt=0"`
	MovieTitle string  `json:"movie_title"`
	GenreIDs   []int   `json:"genre_ids"`
	CastIDs    []int   `json:"cast_ids"`
	ShowsAt    string  `json:"shows_at" validate:"required"`
	TotalPrice float64 `json:"total_price" validate:"gte=0"`
	SeatCount  int     `json:"seat_count" validate:"gte=0"`
	BookedAt   string  `json:"booked_at"`
	Status     string  `json:"status"`
}

// DateRangePayload bounds the optimization horizon, both ends inclusive.
type DateRangePayload struct {
	Start string `json:"start" validate:"required,isodate"`
	End   string `json:"end" validate:"required,isodate"`
}

// ConstraintsPayload overrides the default scheduling constraints. Absent
// fields keep their defaults.
type ConstraintsPayload struct {
	MaxShowsPerDay         *int `json:"max_shows_per_day" validate:"omitempty,gt=0"`
	MinBreakMinutes        *int `json:"min_break_minutes" validate:"omitempty,gte=0"`
	MaxShowsPerMoviePerDay *int `json:"max_shows_per_movie_per_day" validate:"omitempty,gt=0"`
	MinShowsPerDay         *int `json:"min_shows_per_day" validate:"omitempty,gte=0"`
	MaxCandidates          *int `json:"max_candidates" validate:"omitempty,gt=0"`
}

// ScheduleOptimizationRequest is the body of POST /optimize-schedule. Empty
// movie or room lists are valid and produce an empty schedule.
type ScheduleOptimizationRequest struct {
	Movies        []MoviePayload        `json:"movies" validate:"dive"`
	ExistingShows []ExistingShowPayload `json:"existing_shows" validate:"dive"`
	RoomIDs       []int                 `json:"room_ids" validate:"dive,gt=0"`
	DateRange     DateRangePayload      `json:"date_range" validate:"required"`
	Constraints   *ConstraintsPayload   `json:"constraints" validate:"omitempty"`
}

// ScheduledShowResponse is one suggested show in the optimized schedule.
type ScheduledShowResponse struct {
	MovieID         int     `json:"movie_id"`
	MovieTitle      string  `json:"movie_title"`
	RoomID          int     `json:"room_id"`
	StartsAt        string  `json:"starts_at"`
	Price           float64 `json:"price"`
	PredictedDemand float64 `json:"predicted_demand"`
	ExpectedRevenue float64 `json:"expected_revenue"`
	Confidence      float64 `json:"confidence"`
	Priority        float64 `json:"priority"`
	Reasoning       string  `json:"reasoning"`
}

// ScheduleResponse is the body of a successful POST /optimize-schedule.
type ScheduleResponse struct {
	Shows          []ScheduledShowResponse `json:"shows"`
	TotalShows     int                     `json:"total_shows"`
	Solver         string                  `json:"solver"`
	SolverNote     string                  `json:"solver_note,omitempty"`
	CandidateCount int                     `json:"candidate_count"`
}

// TrainModelRequest is the body of POST /train-model.
type TrainModelRequest struct {
	Bookings []BookingPayload `json:"bookings" validate:"required,min=1,dive"`
	Movies   []MoviePayload   `json:"movies" validate:"dive"`
}

// TrainModelResponse acknowledges an accepted background training job.
type TrainModelResponse struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	DataPoints int    `json:"data_points"`
}

// PredictDemandRequest is the body of POST /predict-demand.
type PredictDemandRequest struct {
	Movie    MoviePayload `json:"movie" validate:"required"`
	StartsAt string       `json:"starts_at" validate:"required,isodatetime"`
	RoomID   int          `json:"room_id" validate:"required,gt=0"`
}

// PredictDemandResponse carries one demand prediction.
type PredictDemandResponse struct {
	PredictedDemand float64 `json:"predicted_demand"`
	Confidence      float64 `json:"confidence"`
	ModelUsed       string  `json:"model_used"`
}

// ModelInfoResponse describes the state of the demand model.
type ModelInfoResponse struct {
	Trained            bool                    `json:"trained"`
	TrainSamples       int                     `json:"train_samples,omitempty"`
	TestSamples        int                     `json:"test_samples,omitempty"`
	TrainRMSE          float64                 `json:"train_rmse,omitempty"`
	TestRMSE           float64                 `json:"test_rmse,omitempty"`
	FeatureImportance  map[string]float64      `json:"feature_importance,omitempty"`
	HistoricalPatterns ModelHistoricalPatterns `json:"historical_patterns"`
}

// ModelHistoricalPatterns summarizes the demand caches built from booking history.
type ModelHistoricalPatterns struct {
	HourlyDemand       map[int]float64 `json:"hourly_demand"`
	DailyDemand        map[int]float64 `json:"daily_demand"`
	AvgBookingLeadDays float64         `json:"avg_booking_lead_time"`
	AvgSeatsPerBooking float64         `json:"avg_seats_per_booking"`
	TotalBookings      int             `json:"total_bookings"`
	SkippedRecords     int             `json:"skipped_records,omitempty"`
}

// AnalyticsRequest is the body of POST /analyze-revenue.
type AnalyticsRequest struct {
	Bookings []BookingPayload `json:"bookings" validate:"dive"`
}

// AnalyticsPatterns mirrors analytics.Patterns on the wire.
type AnalyticsPatterns struct {
	PeakHours          []int    `json:"peak_hours"`
	BestDays           []string `json:"best_days"`
	PopularGenres      []int    `json:"popular_genres"`
	AvgLeadTimeDays    float64  `json:"avg_lead_time_days"`
	RevenueTrend       string   `json:"revenue_trend"`
	AvgSeatsPerBooking float64  `json:"avg_seats_per_booking"`
}

// AnalyticsResponse is the body of a successful POST /analyze-revenue.
type AnalyticsResponse struct {
	Insights           []string          `json:"insights"`
	Patterns           AnalyticsPatterns `json:"patterns"`
	Recommendations    []string          `json:"recommendations"`
	TotalRevenue       float64           `json:"total_revenue"`
	TotalBookings      int               `json:"total_bookings"`
	AverageTicketPrice float64           `json:"average_ticket_price"`
	SkippedRecords     int               `json:"skipped_records,omitempty"`
}

// RecommendationRequest is the body of POST /recommendations.
type RecommendationRequest struct {
	MovieID  int              `json:"movie_id" validate:"required_without=UserID,omitempty,gt=0"`
	UserID   int              `json:"user_id" validate:"omitempty,gt=0"`
	Movies   []MoviePayload   `json:"movies" validate:"required,min=1,dive"`
	Bookings []BookingPayload `json:"bookings" validate:"dive"`
	Limit    int              `json:"limit" validate:"omitempty,gt=0,lte=50"`
}

// RecommendationItem is one recommended movie.
type RecommendationItem struct {
	MovieID     int     `json:"movie_id"`
	Title       string  `json:"title"`
	Similarity  float64 `json:"similarity"`
	Overview    string  `json:"overview,omitempty"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date,omitempty"`
}

// RecommendationResponse is the body of a successful POST /recommendations.
type RecommendationResponse struct {
	Recommendations []RecommendationItem `json:"recommendations"`
	Algorithm       string               `json:"algorithm"`
}

// ErrorResponse is the envelope for all error replies.
type ErrorResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ValidationErrorResponse lists per-field validation failures.
type ValidationErrorResponse struct {
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// HealthcheckResponse reports service liveness and build metadata.
type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"system_info"`
}

// SystemInfo is embedded in the healthcheck payload.
type SystemInfo struct {
	Version      string `json:"version"`
	Environment  string `json:"environment"`
	ModelTrained bool   `json:"model_trained"`
}
