package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/cinezone/cinezone-ai-service/api"
	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultRecommendationLimit = 10

func (app *application) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	var input api.RecommendationRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if input.Limit == 0 {
		input.Limit = defaultRecommendationLimit
	}

	if cached, ok := app.cachedRecommendations(r.Context(), input); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	var userHistory []int
	if input.UserID != 0 {
		for _, b := range input.Bookings {
			if b.UserID == input.UserID {
				userHistory = append(userHistory, b.MovieID)
			}
		}
	}

	targetID := input.MovieID
	if targetID == 0 {
		if len(userHistory) == 0 {
			app.badRequestResponse(w, r, errors.New("user has no booking history to recommend from"))
			return
		}
		targetID = userHistory[len(userHistory)-1]
	}

	recs, algorithm, err := app.recommender.Recommend(
		targetID, api.ToMovies(input.Movies), input.Limit, input.UserID != 0, userHistory)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMovieNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := api.FromRecommendations(recs, algorithm)

	app.storeRecommendations(r.Context(), input, resp)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) cachedRecommendations(ctx context.Context, input api.RecommendationRequest) ([]byte, bool) {
	if app.redis == nil {
		return nil, false
	}

	cached, err := app.redis.Get(ctx, recommendationCacheKey(input)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			app.logger.Warn("recommendation cache read failed", "error", err)
		}
		return nil, false
	}

	return cached, true
}

func (app *application) storeRecommendations(ctx context.Context, input api.RecommendationRequest, resp api.RecommendationResponse) {
	if app.redis == nil {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}

	err = app.redis.Set(ctx, recommendationCacheKey(input), payload, app.config.redis.cacheTTL).Err()
	if err != nil {
		app.logger.Warn("recommendation cache write failed", "error", err)
	}
}

// recommendationCacheKey hashes the full request so any change in the movie
// pool or booking history produces a fresh cache entry.
func recommendationCacheKey(input api.RecommendationRequest) string {
	h := fnv.New64a()
	enc := json.NewEncoder(h)
	enc.Encode(input)

	return fmt.Sprintf("recommendations:%x", h.Sum64())
}
