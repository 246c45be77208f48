package scheduler

import (
	"sort"
	"time"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
)

// Genre IDs with timing rules, matching the upstream TMDB vocabulary.
var (
	kidsGenres   = map[int]bool{16: true, 10751: true}
	actionGenres = map[int]bool{28: true, 53: true, 27: true}
	comedyGenres = map[int]bool{35: true, 10749: true}
)

const (
	// defaultShowBlockMinutes is assumed for an existing show whose movie
	// runtime is unknown.
	defaultShowBlockMinutes = 150

	longRuntimeMinutes = 150
	minPriority        = 0.5
)

// optimalStartHours are the only start times candidates are generated for.
var optimalStartHours = []int{9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22}

type roomDay struct {
	RoomID int
	Day    string
}

type interval struct {
	start time.Time
	end   time.Time
}

// CandidateFilter generates the feasible candidate set for a date range. It
// owns the (room, day) conflict index, which keeps a room-availability check
// proportional to the shows already booked for that room-day rather than the
// full existing-show list.
type CandidateFilter struct {
	fx    *FeatureExtractor
	index map[roomDay][]interval
}

func NewCandidateFilter(fx *FeatureExtractor) *CandidateFilter {
	return &CandidateFilter{
		fx:    fx,
		index: map[roomDay][]interval{},
	}
}

// BuildConflictIndex rebuilds the occupied-interval index from the existing
// shows. Each show blocks its runtime plus the inter-show break when the
// movie is known, and a flat 150 minutes otherwise. Records with unparsable
// datetimes are skipped and reported in the return value; they do not block
// any room.
func (f *CandidateFilter) BuildConflictIndex(existing []domain.ExistingShow, moviesByID map[int]domain.Movie, breakMinutes int) (skipped int) {
	f.index = make(map[roomDay][]interval, len(existing))

	for _, show := range existing {
		start, err := domain.ParseTime(show.StartsAt)
		if err != nil {
			skipped++
			continue
		}

		blocked := defaultShowBlockMinutes
		if m, ok := moviesByID[show.MovieID]; ok && m.Runtime > 0 {
			blocked = m.Runtime + breakMinutes
		}

		key := roomDay{RoomID: show.RoomID, Day: start.Format("2006-01-02")}
		f.index[key] = append(f.index[key], interval{
			start: start,
			end:   start.Add(time.Duration(blocked) * time.Minute),
		})
	}

	return skipped
}

// HasRoomConflict reports whether [start, end) overlaps any indexed interval
// for the room on that day. Touching intervals (one ends exactly when the
// other starts) do not conflict.
func (f *CandidateFilter) HasRoomConflict(roomID int, start, end time.Time) bool {
	key := roomDay{RoomID: roomID, Day: start.Format("2006-01-02")}

	for _, iv := range f.index[key] {
		if end.After(iv.start) && iv.end.After(start) {
			return true
		}
	}

	return false
}

// MoviesAvailableOn drops movies whose release date falls strictly after the
// target day. A missing or unparsable release date never excludes a movie.
func (f *CandidateFilter) MoviesAvailableOn(movies []domain.Movie, day time.Time) []domain.Movie {
	target := day.Truncate(24 * time.Hour)

	available := make([]domain.Movie, 0, len(movies))
	for _, m := range movies {
		if m.ReleaseDate != "" {
			if release, err := domain.ParseDate(m.ReleaseDate); err == nil && target.Before(release) {
				continue
			}
		}
		available = append(available, m)
	}

	return available
}

// MoviePriorities scores every movie for one proposed datetime. The temporal
// features are shared across the batch, so scoring n movies costs one
// temporal extraction plus n movie extractions.
func (f *CandidateFilter) MoviePriorities(movies []domain.Movie, proposedAt time.Time) map[int]float64 {
	temporal := f.fx.TemporalFeatures(proposedAt)
	hour := temporal.Hour

	priorities := make(map[int]float64, len(movies))

	for _, m := range movies {
		feats := f.fx.MovieFeatures(m)
		score := 1.0

		if temporal.TimeSlot == "prime_time" {
			score *= 1.5
			if feats.Popularity > 7 {
				score *= 1.3
			}
		}

		if temporal.IsWeekend {
			score *= 1.2
			if feats.VoteCount > 1000 {
				score *= 1.15
			}
		}

		score *= feats.Freshness

		if feats.HistoricalBooking > 0 {
			score *= 1 + feats.HistoricalSeats/100
		}

		if hasGenre(m, actionGenres) && hour >= 18 {
			score *= 1.1
		}
		if hasGenre(m, comedyGenres) && hour >= 14 && hour <= 18 {
			score *= 1.1
		}

		priorities[m.ID] = score
	}

	return priorities
}

// GenerateCandidates walks every (day, start hour, room, movie) combination
// in the range, applies the hard pruning rules, and returns the surviving
// candidates sorted by descending priority. This loop dominates pipeline
// cost; every per-combination check must stay O(1) amortized.
func (f *CandidateFilter) GenerateCandidates(
	movies []domain.Movie,
	rooms []domain.Room,
	dateRange domain.DateRange,
	existing []domain.ExistingShow,
	cons domain.Constraints,
) ([]domain.Candidate, error) {
	startDay, err := domain.ParseDate(dateRange.Start)
	if err != nil {
		return nil, err
	}
	endDay, err := domain.ParseDate(dateRange.End)
	if err != nil {
		return nil, err
	}
	if endDay.Before(startDay) {
		return nil, domain.ErrInvalidDateRange
	}

	if len(movies) == 0 || len(rooms) == 0 {
		return nil, nil
	}

	moviesByID := make(map[int]domain.Movie, len(movies))
	for _, m := range movies {
		moviesByID[m.ID] = m
	}
	f.BuildConflictIndex(existing, moviesByID, cons.MinBreakMinutes)

	// Movies released after the whole range can never produce a candidate.
	inRange := f.MoviesAvailableOn(movies, endDay)
	if len(inRange) == 0 {
		return nil, nil
	}

	type movieDay struct {
		MovieID int
		Day     string
	}
	dailyCount := map[movieDay]int{}

	var candidates []domain.Candidate

	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		dayMovies := f.MoviesAvailableOn(inRange, day)
		if len(dayMovies) == 0 {
			continue
		}

		dayKey := day.Format("2006-01-02")

		for _, hour := range optimalStartHours {
			proposedAt := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
			priorities := f.MoviePriorities(dayMovies, proposedAt)

			for _, room := range rooms {
				for _, m := range dayMovies {
					if dailyCount[movieDay{m.ID, dayKey}] >= cons.MaxShowsPerMoviePerDay {
						continue
					}

					runtime := m.Runtime
					if runtime <= 0 {
						runtime = defaultRuntime
					}

					// No long films starting in the last operating hours,
					// no family titles after 21:00.
					if hour >= 22 && runtime > longRuntimeMinutes {
						continue
					}
					if hour >= 21 && hasGenre(m, kidsGenres) {
						continue
					}

					end := proposedAt.Add(time.Duration(runtime+cons.MinBreakMinutes) * time.Minute)
					if f.HasRoomConflict(room.ID, proposedAt, end) {
						continue
					}

					if priority := priorities[m.ID]; priority >= minPriority {
						candidates = append(candidates, domain.Candidate{
							Movie:    m,
							Room:     room,
							StartsAt: proposedAt,
							Priority: priority,
						})
						dailyCount[movieDay{m.ID, dayKey}]++
					}
				}
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	return candidates, nil
}

func hasGenre(m domain.Movie, set map[int]bool) bool {
	for _, gid := range m.GenreIDs {
		if set[gid] {
			return true
		}
	}
	return false
}
