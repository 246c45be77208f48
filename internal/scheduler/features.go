package scheduler

import (
	"math"
	"time"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
)

// FeatureCount is the fixed length of the demand feature vector.
const FeatureCount = 17

const (
	bayesianPriorVotes = 100
	bayesianPriorMean  = 6.5

	defaultMovieAgeDays = 30
	defaultRuntime      = 120
	defaultPopularity   = 5.0
)

// timeSlots is the fixed 7-bucket schedule, in encoding order.
var timeSlots = []struct {
	name       string
	start, end int
}{
	{"early_morning", 6, 10},
	{"morning", 10, 12},
	{"lunch", 12, 14},
	{"afternoon", 14, 17},
	{"early_evening", 17, 19},
	{"prime_time", 19, 22},
	{"late_night", 22, 24},
}

var hourMultipliers = map[int]float64{
	10: 0.5, 11: 0.6, 12: 0.7, 13: 0.75,
	14: 0.8, 15: 0.85, 16: 0.9, 17: 1.0,
	18: 1.1, 19: 1.3, 20: 1.4, 21: 1.3,
	22: 1.0, 23: 0.7,
}

// dayMultipliers is keyed by weekday with Monday = 0.
var dayMultipliers = map[int]float64{
	0: 0.7, 1: 0.75, 2: 0.8, 3: 0.85,
	4: 1.1, 5: 1.3, 6: 1.2,
}

const defaultMultiplier = 0.8

// TemporalFeatures are the calendar-derived inputs to both the heuristics and
// the demand model. DayOfWeek uses Monday = 0 .. Sunday = 6.
type TemporalFeatures struct {
	Hour            int
	DayOfWeek       int
	Month           int
	DayOfMonth      int
	IsWeekend       bool
	IsFridayEvening bool
	IsHolidaySeason bool
	IsMonthEnd      bool
	TimeSlot        string
	TimeSlotIndex   int
	HourMultiplier  float64
	DayMultiplier   float64
}

// MovieFeatures are the per-movie inputs, combining intrinsic attributes with
// cached historical performance.
type MovieFeatures struct {
	MovieID           int
	Runtime           int
	VoteAverage       float64
	VoteCount         int
	BayesianRating    float64
	Popularity        float64
	AgeDays           int
	Freshness         float64
	GenrePopularity   float64
	HistoricalSeats   float64
	HistoricalBooking int
	NumGenres         int
}

// MoviePerformance aggregates a movie's historical bookings.
type MoviePerformance struct {
	TotalSeats   float64 `json:"total_seats"`
	AvgSeats     float64 `json:"avg_seats"`
	BookingCount int     `json:"booking_count"`
	TotalRevenue float64 `json:"total_revenue"`
	AvgRevenue   float64 `json:"avg_revenue"`
}

// HistoricalPatterns holds the aggregate demand statistics derived from the
// booking history.
type HistoricalPatterns struct {
	HourlyDemand       map[int]float64 `json:"hourly_demand"`
	DailyDemand        map[int]float64 `json:"daily_demand"`
	AvgBookingLeadDays float64         `json:"avg_booking_lead_time"`
	AvgSeatsPerBooking float64         `json:"avg_seats_per_booking"`
	TotalBookings      int             `json:"total_bookings"`
	SkippedRecords     int             `json:"skipped_records"`
}

// FeatureExtractor derives numeric feature vectors from raw entities and owns
// the historical-performance caches. It is per-pipeline state, not a process
// singleton; create one per optimizer and rebuild its caches via
// BuildHistoricalPatterns.
type FeatureExtractor struct {
	genrePopularity  map[int]float64
	moviePerformance map[int]MoviePerformance
	patterns         HistoricalPatterns

	now func() time.Time
}

func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{
		genrePopularity:  map[int]float64{},
		moviePerformance: map[int]MoviePerformance{},
		now:              time.Now,
	}
}

// NewFeatureExtractorAt pins the extractor's clock, which makes movie-age
// dependent features reproducible in tests.
func NewFeatureExtractorAt(now func() time.Time) *FeatureExtractor {
	fx := NewFeatureExtractor()
	fx.now = now

	return fx
}

// BuildHistoricalPatterns recomputes every cache from the given bookings.
// Records with unparsable show datetimes are skipped; they still do not
// poison genre or movie aggregates because those are derived per record as
// well. A nil or empty input leaves the current caches untouched.
func (fx *FeatureExtractor) BuildHistoricalPatterns(bookings []domain.Booking) {
	if len(bookings) == 0 {
		return
	}

	genreSeats := map[int]float64{}
	perf := map[int]MoviePerformance{}

	hourSeats := map[int][]float64{}
	daySeats := map[int][]float64{}

	var (
		totalSeats float64
		leadDays   float64
		leadCount  int
		skipped    int
		valid      int
	)

	for _, b := range bookings {
		showsAt, err := domain.ParseTime(b.ShowsAt)
		if err != nil {
			skipped++
			continue
		}

		valid++
		totalSeats += float64(b.SeatCount)

		for _, gid := range b.GenreIDs {
			genreSeats[gid] += float64(b.SeatCount)
		}

		p := perf[b.MovieID]
		p.TotalSeats += float64(b.SeatCount)
		p.TotalRevenue += b.TotalPrice
		p.BookingCount++
		perf[b.MovieID] = p

		hour := showsAt.Hour()
		day := weekday(showsAt)
		hourSeats[hour] = append(hourSeats[hour], float64(b.SeatCount))
		daySeats[day] = append(daySeats[day], float64(b.SeatCount))

		if bookedAt, err := domain.ParseTime(b.BookedAt); err == nil {
			leadDays += showsAt.Sub(bookedAt).Hours() / 24
			leadCount++
		}
	}

	if valid == 0 {
		return
	}

	var maxSeats float64
	for _, s := range genreSeats {
		maxSeats = math.Max(maxSeats, s)
	}
	if maxSeats == 0 {
		maxSeats = 1
	}

	fx.genrePopularity = make(map[int]float64, len(genreSeats))
	for gid, s := range genreSeats {
		fx.genrePopularity[gid] = s / maxSeats
	}

	for id, p := range perf {
		p.AvgSeats = p.TotalSeats / float64(p.BookingCount)
		p.AvgRevenue = p.TotalRevenue / float64(p.BookingCount)
		perf[id] = p
	}
	fx.moviePerformance = perf

	fx.patterns = HistoricalPatterns{
		HourlyDemand:       meanByKey(hourSeats),
		DailyDemand:        meanByKey(daySeats),
		AvgSeatsPerBooking: totalSeats / float64(valid),
		TotalBookings:      valid,
		SkippedRecords:     skipped,
	}
	if leadCount > 0 {
		fx.patterns.AvgBookingLeadDays = leadDays / float64(leadCount)
	}
}

// Patterns returns the aggregate statistics from the last
// BuildHistoricalPatterns call.
func (fx *FeatureExtractor) Patterns() HistoricalPatterns {
	return fx.patterns
}

// Performance returns the cached aggregates for a movie, if any.
func (fx *FeatureExtractor) Performance(movieID int) (MoviePerformance, bool) {
	p, ok := fx.moviePerformance[movieID]
	return p, ok
}

// TemporalFeatures is a pure function of the datetime.
func (fx *FeatureExtractor) TemporalFeatures(t time.Time) TemporalFeatures {
	hour := t.Hour()
	day := weekday(t)
	month := int(t.Month())
	dayOfMonth := t.Day()

	slot := "other"
	slotIdx := 0
	for i, s := range timeSlots {
		if hour >= s.start && hour < s.end {
			slot = s.name
			slotIdx = i
			break
		}
	}

	return TemporalFeatures{
		Hour:            hour,
		DayOfWeek:       day,
		Month:           month,
		DayOfMonth:      dayOfMonth,
		IsWeekend:       day == 5 || day == 6,
		IsFridayEvening: day == 4 && hour >= 17,
		IsHolidaySeason: month == 12 || month == 1 || (month >= 6 && month <= 8),
		IsMonthEnd:      dayOfMonth >= 25,
		TimeSlot:        slot,
		TimeSlotIndex:   slotIdx,
		HourMultiplier:  multiplier(hourMultipliers, hour),
		DayMultiplier:   multiplier(dayMultipliers, day),
	}
}

// MovieFeatures combines intrinsic movie attributes with the historical
// caches. A missing or unparsable release date falls back to an age of 30
// days; feature extraction never fails on well-typed input.
func (fx *FeatureExtractor) MovieFeatures(m domain.Movie) MovieFeatures {
	age := defaultMovieAgeDays
	if m.ReleaseDate != "" {
		if release, err := domain.ParseTime(m.ReleaseDate); err == nil {
			age = int(fx.now().Sub(release).Hours() / 24)
		}
	}

	votes := float64(m.VoteCount)
	bayesian := (votes*m.VoteAverage + bayesianPriorVotes*bayesianPriorMean) / (votes + bayesianPriorVotes)

	genreScore := 0.0
	if len(m.GenreIDs) > 0 {
		for _, gid := range m.GenreIDs {
			if pop, ok := fx.genrePopularity[gid]; ok {
				genreScore += pop
			} else {
				genreScore += 0.5
			}
		}
		genreScore /= float64(len(m.GenreIDs))
	}

	perf := fx.moviePerformance[m.ID]

	popularity := m.Popularity
	if popularity <= 0 {
		popularity = defaultPopularity
	}

	runtime := m.Runtime
	if runtime <= 0 {
		runtime = defaultRuntime
	}

	return MovieFeatures{
		MovieID:           m.ID,
		Runtime:           runtime,
		VoteAverage:       m.VoteAverage,
		VoteCount:         m.VoteCount,
		BayesianRating:    bayesian,
		Popularity:        popularity,
		AgeDays:           age,
		Freshness:         freshness(age),
		GenrePopularity:   genreScore,
		HistoricalSeats:   perf.AvgSeats,
		HistoricalBooking: perf.BookingCount,
		NumGenres:         len(m.GenreIDs),
	}
}

// DemandFeatures assembles the fixed-order feature vector consumed by the
// demand model. The ordering must stay stable; FeatureNames documents it.
func (fx *FeatureExtractor) DemandFeatures(m domain.Movie, t time.Time, roomID int) []float64 {
	temporal := fx.TemporalFeatures(t)
	movie := fx.MovieFeatures(m)

	histSeats := 0.4
	if movie.HistoricalSeats > 0 {
		histSeats = movie.HistoricalSeats / 100
	}

	return []float64{
		float64(temporal.Hour),
		float64(temporal.DayOfWeek),
		boolToFloat(temporal.IsWeekend),
		boolToFloat(temporal.IsFridayEvening),
		boolToFloat(temporal.IsHolidaySeason),
		boolToFloat(temporal.IsMonthEnd),
		float64(temporal.TimeSlotIndex),
		temporal.HourMultiplier * temporal.DayMultiplier,
		float64(movie.Runtime) / 60,
		movie.BayesianRating / 10,
		math.Log1p(float64(movie.VoteCount)) / 10,
		movie.Popularity / 10,
		movie.Freshness,
		movie.GenrePopularity,
		histSeats,
		float64(movie.NumGenres) / 5,
		float64(roomID) / 10,
	}
}

// FeatureNames returns the names matching DemandFeatures' field order.
func (fx *FeatureExtractor) FeatureNames() []string {
	return []string{
		"hour", "day_of_week", "is_weekend", "is_friday_evening",
		"is_holiday_season", "is_month_end", "time_slot_encoded", "time_multiplier",
		"runtime_hours", "bayesian_rating", "log_vote_count", "popularity",
		"freshness", "genre_popularity", "historical_avg_seats", "num_genres",
		"room_id_encoded",
	}
}

// freshness is the step-function multiplier rewarding recent releases.
func freshness(ageDays int) float64 {
	switch {
	case ageDays <= 14:
		return 1.5
	case ageDays <= 30:
		return 1.2
	case ageDays <= 60:
		return 1.0
	case ageDays <= 90:
		return 0.8
	default:
		return 0.6
	}
}

// weekday maps time.Weekday to the Monday = 0 convention the multipliers and
// historical patterns use.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func multiplier(table map[int]float64, key int) float64 {
	if m, ok := table[key]; ok {
		return m
	}
	return defaultMultiplier
}

func meanByKey(samples map[int][]float64) map[int]float64 {
	out := make(map[int]float64, len(samples))
	for k, vals := range samples {
		var sum float64
		for _, v := range vals {
			sum += v
		}
		out[k] = sum / float64(len(vals))
	}
	return out
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
