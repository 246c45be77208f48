package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cinezone/cinezone-ai-service/api"
	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/cinezone/cinezone-ai-service/internal/mocks"
	"github.com/cinezone/cinezone-ai-service/internal/recommender"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

func recommendationCatalog() []api.MoviePayload {
	return []api.MoviePayload{
		{ID: 1, Title: "Star Voyage", GenreIDs: []int{878, 12}},
		{ID: 2, Title: "Galaxy Quest II", GenreIDs: []int{878, 12}},
		{ID: 3, Title: "Baking Dreams", GenreIDs: []int{18}},
	}
}

func TestRecommendationsHandler(t *testing.T) {
	t.Run("content-based recommendations for a movie", func(t *testing.T) {
		var gotTarget, gotLimit int
		var gotCollaborative bool

		app := newTestApplication(func(a *application) {
			a.recommender = &mocks.MockRecommender{
				RecommendFunc: func(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]recommender.Recommendation, string, error) {
					gotTarget, gotLimit, gotCollaborative = targetID, limit, useCollaborative
					return []recommender.Recommendation{
						{MovieID: 2, Title: "Galaxy Quest II", Similarity: 0.87654},
					}, recommender.AlgorithmContent, nil
				},
			}
		})

		body := api.RecommendationRequest{MovieID: 1, Movies: recommendationCatalog()}

		w, r := executeRequest(t, http.MethodPost, "/recommendations", body)
		app.RecommendationsHandler(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		if gotTarget != 1 {
			t.Errorf("target = %d, want 1", gotTarget)
		}
		if gotLimit != defaultRecommendationLimit {
			t.Errorf("limit = %d, want default %d", gotLimit, defaultRecommendationLimit)
		}
		if gotCollaborative {
			t.Error("useCollaborative = true, want false without a user")
		}

		resp := decodeJSON[api.RecommendationResponse](t, w)
		if resp.Algorithm != recommender.AlgorithmContent {
			t.Errorf("Algorithm = %q, want %q", resp.Algorithm, recommender.AlgorithmContent)
		}
		if len(resp.Recommendations) != 1 {
			t.Fatalf("got %d recommendations, want 1", len(resp.Recommendations))
		}
		if resp.Recommendations[0].Similarity != 0.877 {
			t.Errorf("Similarity = %v, want 0.877", resp.Recommendations[0].Similarity)
		}
	})

	t.Run("user history drives hybrid recommendations", func(t *testing.T) {
		var gotTarget int
		var gotHistory []int
		var gotCollaborative bool

		app := newTestApplication(func(a *application) {
			a.recommender = &mocks.MockRecommender{
				RecommendFunc: func(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]recommender.Recommendation, string, error) {
					gotTarget, gotHistory, gotCollaborative = targetID, userHistory, useCollaborative
					return []recommender.Recommendation{
						{MovieID: 3, Title: "Baking Dreams", Similarity: 0.5},
					}, recommender.AlgorithmHybrid, nil
				},
			}
		})

		body := api.RecommendationRequest{
			UserID: 7,
			Movies: recommendationCatalog(),
			Bookings: []api.BookingPayload{
				{ID: 1, UserID: 7, ShowID: 1, MovieID: 1, ShowsAt: "2026-02-01T20:00:00"},
				{ID: 2, UserID: 9, ShowID: 2, MovieID: 3, ShowsAt: "2026-02-02T20:00:00"},
				{ID: 3, UserID: 7, ShowID: 3, MovieID: 2, ShowsAt: "2026-02-03T20:00:00"},
			},
			Limit: 5,
		}

		w, r := executeRequest(t, http.MethodPost, "/recommendations", body)
		app.RecommendationsHandler(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		if gotTarget != 2 {
			t.Errorf("target = %d, want the user's most recent movie 2", gotTarget)
		}
		if len(gotHistory) != 2 || gotHistory[0] != 1 || gotHistory[1] != 2 {
			t.Errorf("userHistory = %v, want [1 2] for user 7 only", gotHistory)
		}
		if !gotCollaborative {
			t.Error("useCollaborative = false, want true with a user")
		}

		resp := decodeJSON[api.RecommendationResponse](t, w)
		if resp.Algorithm != recommender.AlgorithmHybrid {
			t.Errorf("Algorithm = %q, want %q", resp.Algorithm, recommender.AlgorithmHybrid)
		}
	})

	t.Run("user without history is a bad request", func(t *testing.T) {
		app := newTestApplication()

		body := api.RecommendationRequest{
			UserID: 7,
			Movies: recommendationCatalog(),
			Bookings: []api.BookingPayload{
				{ID: 1, UserID: 9, ShowID: 1, MovieID: 1, ShowsAt: "2026-02-01T20:00:00"},
			},
		}

		w, r := executeRequest(t, http.MethodPost, "/recommendations", body)
		app.RecommendationsHandler(w, r)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown movie is not found", func(t *testing.T) {
		app := newTestApplication(func(a *application) {
			a.recommender = &mocks.MockRecommender{
				RecommendFunc: func(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]recommender.Recommendation, string, error) {
					return nil, "", domain.ErrMovieNotFound
				},
			}
		})

		body := api.RecommendationRequest{MovieID: 99, Movies: recommendationCatalog()}

		w, r := executeRequest(t, http.MethodPost, "/recommendations", body)
		app.RecommendationsHandler(w, r)

		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("missing movie pool fails validation", func(t *testing.T) {
		app := newTestApplication()

		w, r := executeRequest(t, http.MethodPost, "/recommendations", api.RecommendationRequest{MovieID: 1})
		app.RecommendationsHandler(w, r)

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", w.Code)
		}
	})
}

func TestRecommendationsHandlerCaching(t *testing.T) {
	body := api.RecommendationRequest{MovieID: 1, Movies: recommendationCatalog(), Limit: 5}

	t.Run("miss computes and stores the response", func(t *testing.T) {
		redisMock := new(mocks.MockRedisClient)

		missCmd := redis.NewStringCmd(context.Background())
		missCmd.SetErr(redis.Nil)
		redisMock.On("Get", mock.Anything, mock.Anything).Return(missCmd)

		storedCmd := redis.NewStatusCmd(context.Background())
		storedCmd.SetVal("OK")
		redisMock.On("Set", mock.Anything, mock.Anything, mock.Anything, 5*time.Minute).Return(storedCmd)

		app := newTestApplication(func(a *application) {
			a.redis = redisMock
			a.recommender = &mocks.MockRecommender{
				RecommendFunc: func(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]recommender.Recommendation, string, error) {
					return []recommender.Recommendation{
						{MovieID: 2, Title: "Galaxy Quest II", Similarity: 0.9},
					}, recommender.AlgorithmContent, nil
				},
			}
		})

		w, r := executeRequest(t, http.MethodPost, "/recommendations", body)
		app.RecommendationsHandler(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		redisMock.AssertExpectations(t)
	})

	t.Run("hit serves the cached payload without recomputing", func(t *testing.T) {
		cached := api.RecommendationResponse{
			Recommendations: []api.RecommendationItem{{MovieID: 2, Title: "Galaxy Quest II", Similarity: 0.9}},
			Algorithm:       recommender.AlgorithmContent,
		}
		payload, err := json.Marshal(cached)
		if err != nil {
			t.Fatal(err)
		}

		redisMock := new(mocks.MockRedisClient)
		hitCmd := redis.NewStringCmd(context.Background())
		hitCmd.SetVal(string(payload))
		redisMock.On("Get", mock.Anything, mock.Anything).Return(hitCmd)

		app := newTestApplication(func(a *application) {
			a.redis = redisMock
			a.recommender = &mocks.MockRecommender{
				RecommendFunc: func(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]recommender.Recommendation, string, error) {
					t.Fatal("recommender called on a cache hit")
					return nil, "", nil
				},
			}
		})

		w, r := executeRequest(t, http.MethodPost, "/recommendations", body)
		app.RecommendationsHandler(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		resp := decodeJSON[api.RecommendationResponse](t, w)
		if len(resp.Recommendations) != 1 || resp.Recommendations[0].MovieID != 2 {
			t.Errorf("cached response = %+v", resp)
		}
		redisMock.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache read failure falls through to the recommender", func(t *testing.T) {
		redisMock := new(mocks.MockRedisClient)

		failCmd := redis.NewStringCmd(context.Background())
		failCmd.SetErr(errors.New("connection refused"))
		redisMock.On("Get", mock.Anything, mock.Anything).Return(failCmd)

		storedCmd := redis.NewStatusCmd(context.Background())
		storedCmd.SetVal("OK")
		redisMock.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storedCmd)

		called := false
		app := newTestApplication(func(a *application) {
			a.redis = redisMock
			a.recommender = &mocks.MockRecommender{
				RecommendFunc: func(targetID int, allMovies []domain.Movie, limit int, useCollaborative bool, userHistory []int) ([]recommender.Recommendation, string, error) {
					called = true
					return nil, recommender.AlgorithmContent, nil
				},
			}
		})

		w, r := executeRequest(t, http.MethodPost, "/recommendations", body)
		app.RecommendationsHandler(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !called {
			t.Error("recommender was not called after a cache failure")
		}
	})
}
