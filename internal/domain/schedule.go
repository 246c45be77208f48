package domain

import "time"

// Candidate is a tentative (movie, room, datetime) scheduling option. It is
// created during filtering, enriched with predictions and revenue in later
// pipeline stages, and discarded once the schedule is formatted.
type Candidate struct {
	Movie    Movie
	Room     Room
	StartsAt time.Time

	Priority        float64
	PredictedDemand float64
	Confidence      float64
	ExpectedRevenue float64
}

// DayKey returns the calendar day the candidate falls on.
func (c Candidate) DayKey() string {
	return c.StartsAt.Format("2006-01-02")
}

// ScheduledShow is one selected show of the optimized schedule.
type ScheduledShow struct {
	MovieID         int
	MovieTitle      string
	RoomID          int
	StartsAt        time.Time
	Price           float64
	PredictedDemand float64
	ExpectedRevenue float64
	Confidence      float64
	Priority        float64
	Reasoning       string
}

// Constraints configures an optimization run. Zero values mean "use default".
type Constraints struct {
	MaxShowsPerDay         int
	MinBreakMinutes        int
	MaxShowsPerMoviePerDay int
	MinShowsPerDay         int
	MaxCandidates          int
}

func DefaultConstraints() Constraints {
	return Constraints{
		MaxShowsPerDay:         10,
		MinBreakMinutes:        30,
		MaxShowsPerMoviePerDay: 4,
		MinShowsPerDay:         3,
		MaxCandidates:          2000,
	}
}

// WithDefaults fills every unset field from DefaultConstraints.
func (c Constraints) WithDefaults() Constraints {
	def := DefaultConstraints()

	if c.MaxShowsPerDay <= 0 {
		c.MaxShowsPerDay = def.MaxShowsPerDay
	}
	if c.MinBreakMinutes <= 0 {
		c.MinBreakMinutes = def.MinBreakMinutes
	}
	if c.MaxShowsPerMoviePerDay <= 0 {
		c.MaxShowsPerMoviePerDay = def.MaxShowsPerMoviePerDay
	}
	if c.MinShowsPerDay <= 0 {
		c.MinShowsPerDay = def.MinShowsPerDay
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = def.MaxCandidates
	}

	return c
}
