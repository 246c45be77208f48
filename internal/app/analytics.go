package app

import (
	"net/http"

	"github.com/cinezone/cinezone-ai-service/api"
)

func (app *application) AnalyzeRevenueHandler(w http.ResponseWriter, r *http.Request) {
	var input api.AnalyticsRequest

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

	analysis := app.analyzer.AnalyzePatterns(api.ToBookings(input.Bookings))

	err = app.writeJSON(w, http.StatusOK, api.FromAnalysis(analysis), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
