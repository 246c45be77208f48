// Package recommender implements hybrid movie recommendation: content-based
// similarity over movie attributes blended with collaborative scoring from a
// user's watch history.
package recommender

import (
	"math"
	"sort"
	"strings"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
)

// Attribute weights of the content similarity blend.
const (
	overviewWeight = 0.40
	genreWeight    = 0.25
	castWeight     = 0.20
	ratingWeight   = 0.10
	releaseWeight  = 0.05
)

// Recommendation is one scored movie.
type Recommendation struct {
	MovieID     int
	Title       string
	Similarity  float64
	Overview    string
	VoteAverage float64
	ReleaseDate string
}

// ContentRecommender scores movies by attribute similarity to a target
// movie. Overview text is compared with term-frequency cosine similarity;
// tokenized overviews are cached per instance.
type ContentRecommender struct {
	termCache map[string]map[string]float64
}

func NewContentRecommender() *ContentRecommender {
	return &ContentRecommender{termCache: map[string]map[string]float64{}}
}

// Recommend returns up to limit movies most similar to the target, sorted by
// descending similarity. The target must be present in allMovies.
func (r *ContentRecommender) Recommend(targetID int, allMovies []domain.Movie, limit int) ([]Recommendation, error) {
	var target *domain.Movie
	for i := range allMovies {
		if allMovies[i].ID == targetID {
			target = &allMovies[i]
			break
		}
	}
	if target == nil {
		return nil, domain.ErrMovieNotFound
	}

	results := make([]Recommendation, 0, len(allMovies))
	for _, m := range allMovies {
		if m.ID == targetID {
			continue
		}
		results = append(results, Recommendation{
			MovieID:     m.ID,
			Title:       m.Title,
			Similarity:  r.Similarity(*target, m),
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
	return results, nil
}

// Similarity blends per-attribute scores, weighted by the attributes both
// movies actually carry.
func (r *ContentRecommender) Similarity(a, b domain.Movie) float64 {
	var score, weight float64

	if a.Overview != "" && b.Overview != "" {
		score += overviewWeight * cosine(r.terms(a.Overview), r.terms(b.Overview))
		weight += overviewWeight
	}

	if len(a.GenreIDs) > 0 && len(b.GenreIDs) > 0 {
		score += genreWeight * jaccard(a.GenreIDs, b.GenreIDs)
		weight += genreWeight
	}

	if len(a.CastIDs) > 0 && len(b.CastIDs) > 0 {
		score += castWeight * jaccard(a.CastIDs, b.CastIDs)
		weight += castWeight
	}

	if a.VoteAverage > 0 && b.VoteAverage > 0 {
		diff := math.Abs(a.VoteAverage - b.VoteAverage)
		score += ratingWeight * math.Max(0, 1-diff/10)
		weight += ratingWeight
	}

	if a.ReleaseDate != "" && b.ReleaseDate != "" {
		da, errA := domain.ParseDate(a.ReleaseDate)
		db, errB := domain.ParseDate(b.ReleaseDate)
		if errA == nil && errB == nil {
			years := math.Abs(da.Sub(db).Hours()) / (24 * 365)
			score += releaseWeight * math.Max(0, 1-years/5)
			weight += releaseWeight
		}
	}

	if weight == 0 {
		return 0
	}
	return score / weight
}

// terms returns the cached term-frequency vector of a text.
func (r *ContentRecommender) terms(text string) map[string]float64 {
	if tf, ok := r.termCache[text]; ok {
		return tf
	}

	tf := map[string]float64{}
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'()[]")
		if len(tok) > 2 {
			tf[tok]++
		}
	}

	r.termCache[text] = tf
	return tf
}

func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, va := range a {
		normA += va * va
		if vb, ok := b[term]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func jaccard(a, b []int) float64 {
	setA := toSet(a)
	intersection := 0
	union := len(setA)

	seen := map[int]bool{}
	for _, v := range b {
		if seen[v] {
			continue
		}
		seen[v] = true
		if setA[v] {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func toSet(vals []int) map[int]bool {
	set := make(map[int]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}
