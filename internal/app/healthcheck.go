package app

import (
	"net/http"

	"github.com/cinezone/cinezone-ai-service/api"
	"github.com/cinezone/cinezone-ai-service/internal/vcs"
)

func (app *application) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	systemInfo := api.SystemInfo{
		Version:      vcs.Version(),
		Environment:  app.config.env,
		ModelTrained: app.scheduler.ModelInfo().IsTrained,
	}

	resp := api.HealthcheckResponse{
		Status:     status,
		SystemInfo: systemInfo,
	}

	app.writeJSON(w, http.StatusOK, resp, nil)
}
