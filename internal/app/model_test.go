package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cinezone/cinezone-ai-service/api"
	"github.com/cinezone/cinezone-ai-service/internal/domain"
	"github.com/cinezone/cinezone-ai-service/internal/mocks"
	"github.com/cinezone/cinezone-ai-service/internal/scheduler"
	"github.com/google/uuid"
)

func validTrainRequest(n int) api.TrainModelRequest {
	req := api.TrainModelRequest{
		Movies: []api.MoviePayload{{ID: 1, Title: "Feature", Runtime: 110}},
	}
	for i := 0; i < n; i++ {
		req.Bookings = append(req.Bookings, api.BookingPayload{
			ID: i + 1, ShowID: i + 1, MovieID: 1,
			ShowsAt: "2026-02-10T20:00:00", SeatCount: 12, TotalPrice: 120,
		})
	}
	return req
}

func TestTrainModelHandler(t *testing.T) {
	t.Run("accepted job runs in the background", func(t *testing.T) {
		trained := make(chan int, 1)

		app := newTestApplication(func(a *application) {
			a.scheduler = &mocks.MockScheduler{
				TrainDemandModelFunc: func(ctx context.Context, bookings []domain.Booking, moviesByID map[int]domain.Movie) (scheduler.TrainingResult, error) {
					trained <- len(bookings)
					return scheduler.TrainingResult{}, nil
				},
			}
		})

		w, r := executeRequest(t, http.MethodPost, "/train-model", validTrainRequest(40))
		app.TrainModelHandler(w, r)

		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
		}

		resp := decodeJSON[api.TrainModelResponse](t, w)
		if _, err := uuid.Parse(resp.JobID); err != nil {
			t.Errorf("JobID %q is not a UUID", resp.JobID)
		}
		if resp.Status != "accepted" {
			t.Errorf("Status = %q, want accepted", resp.Status)
		}
		if resp.DataPoints != 40 {
			t.Errorf("DataPoints = %d, want 40", resp.DataPoints)
		}

		select {
		case n := <-trained:
			if n != 40 {
				t.Errorf("trained on %d bookings, want 40", n)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("background training never ran")
		}
	})

	t.Run("empty booking list fails validation", func(t *testing.T) {
		app := newTestApplication()

		w, r := executeRequest(t, http.MethodPost, "/train-model", api.TrainModelRequest{})
		app.TrainModelHandler(w, r)

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", w.Code)
		}
	})

	t.Run("panicking job does not kill the handler", func(t *testing.T) {
		done := make(chan struct{})

		app := newTestApplication(func(a *application) {
			a.scheduler = &mocks.MockScheduler{
				TrainDemandModelFunc: func(ctx context.Context, bookings []domain.Booking, moviesByID map[int]domain.Movie) (scheduler.TrainingResult, error) {
					defer close(done)
					panic("training exploded")
				},
			}
		})

		w, r := executeRequest(t, http.MethodPost, "/train-model", validTrainRequest(5))
		app.TrainModelHandler(w, r)

		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", w.Code)
		}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("background job never started")
		}
	})
}

func TestPredictDemandHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       api.PredictDemandRequest
		prediction scheduler.Prediction
		wantStatus int
		wantModel  string
	}{
		{
			name: "rule-based prediction",
			body: api.PredictDemandRequest{
				Movie:    api.MoviePayload{ID: 1, Title: "Feature"},
				StartsAt: "2026-03-06T20:00:00",
				RoomID:   1,
			},
			prediction: scheduler.Prediction{Demand: 48.123, Confidence: 0.55},
			wantStatus: http.StatusOK,
			wantModel:  "rule-based",
		},
		{
			name: "ml prediction",
			body: api.PredictDemandRequest{
				Movie:    api.MoviePayload{ID: 1, Title: "Feature"},
				StartsAt: "2026-03-06T20:00:00",
				RoomID:   2,
			},
			prediction: scheduler.Prediction{Demand: 61.87, Confidence: 0.648, ML: true},
			wantStatus: http.StatusOK,
			wantModel:  "ml",
		},
		{
			name: "unparsable datetime fails validation",
			body: api.PredictDemandRequest{
				Movie:    api.MoviePayload{ID: 1, Title: "Feature"},
				StartsAt: "tonight",
				RoomID:   1,
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "missing room fails validation",
			body: api.PredictDemandRequest{
				Movie:    api.MoviePayload{ID: 1, Title: "Feature"},
				StartsAt: "2026-03-06T20:00:00",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(func(a *application) {
				a.scheduler = &mocks.MockScheduler{
					PredictSingleDemandFunc: func(movie domain.Movie, showsAt time.Time, roomID int) scheduler.Prediction {
						return tt.prediction
					},
				}
			})

			w, r := executeRequest(t, http.MethodPost, "/predict-demand", tt.body)
			app.PredictDemandHandler(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			resp := decodeJSON[api.PredictDemandResponse](t, w)
			if resp.ModelUsed != tt.wantModel {
				t.Errorf("ModelUsed = %q, want %q", resp.ModelUsed, tt.wantModel)
			}
		})
	}
}

func TestGetModelInfoHandler(t *testing.T) {
	app := newTestApplication(func(a *application) {
		a.scheduler = &mocks.MockScheduler{
			ModelInfoFunc: func() scheduler.ModelInfo {
				return scheduler.ModelInfo{
					IsTrained: true,
					Stats: scheduler.TrainingStats{
						TrainSamples: 48, TestSamples: 12,
						TrainRMSE: 4.2345, TestRMSE: 6.7891,
					},
					FeatureImportance: map[string]float64{"hour": 0.4},
					HistoricalPatterns: scheduler.HistoricalPatterns{
						HourlyDemand:       map[int]float64{20: 35},
						AvgSeatsPerBooking: 3.2,
						TotalBookings:      60,
					},
				}
			},
		}
	})

	w, r := executeRequest(t, http.MethodGet, "/model-info", nil)
	app.GetModelInfoHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	resp := decodeJSON[api.ModelInfoResponse](t, w)
	if !resp.Trained {
		t.Error("Trained = false, want true")
	}
	if resp.TrainSamples != 48 || resp.TestSamples != 12 {
		t.Errorf("samples = %d/%d, want 48/12", resp.TrainSamples, resp.TestSamples)
	}
	if resp.TrainRMSE != 4.235 || resp.TestRMSE != 6.789 {
		t.Errorf("rmse = %v/%v, want rounded to 3 places", resp.TrainRMSE, resp.TestRMSE)
	}
	if resp.FeatureImportance["hour"] != 0.4 {
		t.Errorf("FeatureImportance = %v", resp.FeatureImportance)
	}
	if resp.HistoricalPatterns.TotalBookings != 60 || resp.HistoricalPatterns.HourlyDemand[20] != 35 {
		t.Errorf("HistoricalPatterns = %+v", resp.HistoricalPatterns)
	}
}
