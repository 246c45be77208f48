package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cinezone/cinezone-ai-service/api"
	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/google/uuid"
)

const trainingTimeout = 10 * time.Minute

// TrainModelHandler accepts a training job and runs it in the background.
// The response acknowledges the job; progress is observable via /model-info.
func (app *application) TrainModelHandler(w http.ResponseWriter, r *http.Request) {
	var input api.TrainModelRequest

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

	bookings := api.ToBookings(input.Bookings)

	moviesByID := make(map[int]domain.Movie, len(input.Movies))
	for _, p := range input.Movies {
		moviesByID[p.ID] = api.ToMovie(p)
	}

	jobID := uuid.NewString()
	logger := app.logger.With("jobId", jobID)

	go func() {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("training job panicked", "error", fmt.Sprintf("%s", err))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), trainingTimeout)
		defer cancel()

		result, err := app.scheduler.TrainDemandModel(ctx, bookings, moviesByID)
		if err != nil {
			logger.Error("training job failed", "error", err)
			return
		}

		app.recordTrainingRun(ctx)

		logger.Info("training job finished",
			"trainSamples", result.Stats.TrainSamples,
			"testRMSE", result.Stats.TestRMSE)
	}()

	resp := api.TrainModelResponse{
		JobID:      jobID,
		Status:     "accepted",
		DataPoints: len(bookings),
	}

	err = app.writeJSON(w, http.StatusAccepted, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) PredictDemandHandler(w http.ResponseWriter, r *http.Request) {
	var input api.PredictDemandRequest

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

	showsAt, err := domain.ParseTime(input.StartsAt)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("starts_at must be a valid ISO 8601 datetime"))
		return
	}

	prediction := app.scheduler.PredictSingleDemand(api.ToMovie(input.Movie), showsAt, input.RoomID)

	err = app.writeJSON(w, http.StatusOK, api.FromPrediction(prediction), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetModelInfoHandler(w http.ResponseWriter, r *http.Request) {
	info := app.scheduler.ModelInfo()

	err := app.writeJSON(w, http.StatusOK, api.FromModelInfo(info), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
