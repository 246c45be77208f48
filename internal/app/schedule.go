package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/cinezone/cinezone-ai-service/api"
	"github.com/cinezone/cinezone-ai-service/internal/domain"
)

func (app *application) OptimizeScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var input api.ScheduleOptimizationRequest

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

	started := time.Now()

	schedule, err := app.scheduler.OptimizeSchedule(
		r.Context(),
		api.ToMovies(input.Movies),
		api.ToExistingShows(input.ExistingShows),
		input.RoomIDs,
		api.ToDateRange(input.DateRange),
		api.ToConstraints(input.Constraints),
	)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidDateRange):
			app.badRequestResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.recordOptimization(r.Context(), time.Since(started), schedule)

	err = app.writeJSON(w, http.StatusOK, api.FromSchedule(schedule), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
