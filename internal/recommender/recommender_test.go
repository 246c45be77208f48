package recommender

import (
	"errors"
	"math"
	"testing"

	"github.com/cinezone/cinezone-ai-service/internal/domain"
)

var catalog = []domain.Movie{
	{
		ID: 1, Title: "Star Voyage",
		Overview:    "A crew explores deep space and discovers an ancient alien signal",
		GenreIDs:    []int{878, 12},
		CastIDs:     []int{100, 101, 102},
		VoteAverage: 8.0,
		ReleaseDate: "2025-06-01",
	},
	{
		ID: 2, Title: "Galaxy Quest II",
		Overview:    "A crew explores deep space chasing an alien signal across the galaxy",
		GenreIDs:    []int{878, 12},
		CastIDs:     []int{100, 101, 200},
		VoteAverage: 7.8,
		ReleaseDate: "2025-09-01",
	},
	{
		ID: 3, Title: "Baking Dreams",
		Overview:    "A small town baker enters the national pastry championship",
		GenreIDs:    []int{35},
		CastIDs:     []int{300, 301},
		VoteAverage: 6.5,
		ReleaseDate: "2018-02-01",
	},
	{
		ID: 4, Title: "Space Bakers",
		Overview:    "A baker joins a space station crew and discovers alien pastry",
		GenreIDs:    []int{878, 35},
		CastIDs:     []int{100, 300},
		VoteAverage: 7.0,
		ReleaseDate: "2024-01-01",
	},
}

func TestContentSimilarity(t *testing.T) {
	r := NewContentRecommender()

	t.Run("identical movies score 1", func(t *testing.T) {
		if got := r.Similarity(catalog[0], catalog[0]); math.Abs(got-1) > 1e-9 {
			t.Errorf("self similarity = %v, want 1", got)
		}
	})

	t.Run("near duplicate beats unrelated", func(t *testing.T) {
		sequel := r.Similarity(catalog[0], catalog[1])
		unrelated := r.Similarity(catalog[0], catalog[2])

		if sequel <= unrelated {
			t.Errorf("sequel similarity (%v) should exceed unrelated (%v)", sequel, unrelated)
		}
	})

	t.Run("symmetry", func(t *testing.T) {
		ab := r.Similarity(catalog[0], catalog[3])
		ba := r.Similarity(catalog[3], catalog[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("similarity not symmetric: %v vs %v", ab, ba)
		}
	})

	t.Run("movies with no shared attributes score 0", func(t *testing.T) {
		a := domain.Movie{ID: 10}
		b := domain.Movie{ID: 11}
		if got := r.Similarity(a, b); got != 0 {
			t.Errorf("similarity = %v, want 0", got)
		}
	})

	t.Run("missing attributes renormalize instead of diluting", func(t *testing.T) {
		a := domain.Movie{ID: 10, GenreIDs: []int{878}}
		b := domain.Movie{ID: 11, GenreIDs: []int{878}}
		// Only the genre attribute is present on both sides, so the perfect
		// genre match must score 1 after renormalization.
		if got := r.Similarity(a, b); math.Abs(got-1) > 1e-9 {
			t.Errorf("similarity = %v, want 1", got)
		}
	})
}

func TestContentRecommend(t *testing.T) {
	r := NewContentRecommender()

	t.Run("unknown target fails", func(t *testing.T) {
		_, err := r.Recommend(999, catalog, 5)
		if !errors.Is(err, domain.ErrMovieNotFound) {
			t.Fatalf("err = %v, want ErrMovieNotFound", err)
		}
	})

	t.Run("sorted, limited, and excludes the target", func(t *testing.T) {
		got, err := r.Recommend(1, catalog, 2)
		if err != nil {
			t.Fatal(err)
		}

		if len(got) != 2 {
			t.Fatalf("got %d recommendations, want 2", len(got))
		}
		if got[0].MovieID != 2 {
			t.Errorf("top recommendation = %d, want the sequel (2)", got[0].MovieID)
		}
		for _, rec := range got {
			if rec.MovieID == 1 {
				t.Error("target movie recommended to itself")
			}
		}
		if got[0].Similarity < got[1].Similarity {
			t.Error("recommendations not sorted by similarity")
		}
	})
}

func TestCollaborativeRecommend(t *testing.T) {
	r := NewCollaborativeRecommender()

	t.Run("thin history returns nothing", func(t *testing.T) {
		if got := r.Recommend(1, catalog, []int{2}, 5); got != nil {
			t.Errorf("got %v, want nil for a single watched movie", got)
		}
	})

	t.Run("watched movies are excluded and overlap ranks", func(t *testing.T) {
		got := r.Recommend(1, catalog, []int{1, 2}, 5)

		for _, rec := range got {
			if rec.MovieID == 1 || rec.MovieID == 2 {
				t.Errorf("watched movie %d recommended", rec.MovieID)
			}
		}
		if len(got) != 2 {
			t.Fatalf("got %d recommendations, want 2", len(got))
		}
		// Space Bakers shares genre 878 and cast 100 with the history;
		// Baking Dreams shares nothing.
		if got[0].MovieID != 4 {
			t.Errorf("top recommendation = %d, want 4", got[0].MovieID)
		}
		if got[0].Similarity <= got[1].Similarity {
			t.Error("overlap did not rank the space title first")
		}
	})
}

func TestHybridRecommend(t *testing.T) {
	r := NewHybridRecommender()

	t.Run("no history falls back to content-based", func(t *testing.T) {
		recs, algorithm, err := r.Recommend(1, catalog, 2, false, nil)
		if err != nil {
			t.Fatal(err)
		}
		if algorithm != AlgorithmContent {
			t.Errorf("algorithm = %q, want %q", algorithm, AlgorithmContent)
		}
		if len(recs) != 2 {
			t.Errorf("got %d recommendations, want 2", len(recs))
		}
	})

	t.Run("usable history blends to hybrid", func(t *testing.T) {
		recs, algorithm, err := r.Recommend(1, catalog, 3, true, []int{1, 2})
		if err != nil {
			t.Fatal(err)
		}
		if algorithm != AlgorithmHybrid {
			t.Errorf("algorithm = %q, want %q", algorithm, AlgorithmHybrid)
		}
		if len(recs) == 0 {
			t.Fatal("no recommendations")
		}
	})

	t.Run("unknown target propagates the error", func(t *testing.T) {
		_, _, err := r.Recommend(999, catalog, 3, false, nil)
		if !errors.Is(err, domain.ErrMovieNotFound) {
			t.Fatalf("err = %v, want ErrMovieNotFound", err)
		}
	})
}
