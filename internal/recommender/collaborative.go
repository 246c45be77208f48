package recommender

import (
	"sort"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
)

// CollaborativeRecommender scores movies by overlap with the genres and cast
// of a user's watch history. It needs at least two watched movies to say
// anything useful and returns nil below that.
type CollaborativeRecommender struct{}

func NewCollaborativeRecommender() *CollaborativeRecommender {
	return &CollaborativeRecommender{}
}

func (r *CollaborativeRecommender) Recommend(targetID int, allMovies []domain.Movie, userHistory []int, limit int) []Recommendation {
	if len(userHistory) < 2 {
		return nil
	}

	watched := toSet(userHistory)
	watchedGenres := map[int]bool{}
	watchedCast := map[int]bool{}

	for _, m := range allMovies {
		if !watched[m.ID] {
			continue
		}
		for _, g := range m.GenreIDs {
			watchedGenres[g] = true
		}
		for _, c := range m.CastIDs {
			watchedCast[c] = true
		}
	}

	var results []Recommendation
	for _, m := range allMovies {
		if m.ID == targetID || watched[m.ID] {
			continue
		}

		genreOverlap := overlap(m.GenreIDs, watchedGenres)
		castOverlap := overlap(m.CastIDs, watchedCast)
		score := (float64(genreOverlap)*0.6 + float64(castOverlap)*0.4) / 10

		results = append(results, Recommendation{
			MovieID:     m.ID,
			Title:       m.Title,
			Similarity:  score,
			Overview:    m.Overview,
			VoteAverage: m.VoteAverage,
			ReleaseDate: m.ReleaseDate,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func overlap(vals []int, set map[int]bool) int {
	n := 0
	for _, v := range vals {
		if set[v] {
			n++
		}
	}
	return n
}
