// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	apperrors "riigikogu-radar/internal/common/errors"
	"riigikogu-radar/internal/common/logger"
	"riigikogu-radar/internal/common/validation"
	"riigikogu-radar/internal/models"
	"riigikogu-radar/internal/simulation"
)

// Pinger covers the infrastructure clients the health endpoint probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SimulateHandler serves the simulation job API.
type SimulateHandler struct {
	manager *simulation.Manager
	logger  logger.Logger
}

func NewSimulateHandler(manager *simulation.Manager, log logger.Logger) *SimulateHandler {
	return &SimulateHandler{manager: manager, logger: log}
}

// Create handles POST /simulate
func (h *SimulateHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	if err := validation.ValidateBillInput(body); err != nil {
		stdErr := apperrors.AsStandard(err)
		writeError(w, stdErr.HTTPStatus(), errorBody{
			Error:   stdErr.Message,
			Code:    string(stdErr.Code),
			Details: stdErr.Details,
		})
		return
	}

	var bill models.BillInput
	if err := json.Unmarshal(body, &bill); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "invalid JSON"})
		return
	}

	job, err := h.manager.Create(r.Context(), bill)
	if err != nil {
		stdErr := apperrors.AsStandard(err)
		writeError(w, stdErr.HTTPStatus(), errorBody{
			Error:   stdErr.Message,
			Code:    string(stdErr.Code),
			Details: stdErr.Details,
		})
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

// GetStatus handles GET /simulate/{id}
func (h *SimulateHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, errorBody{Error: "simulation id is required"})
		return
	}

	job, err := h.manager.GetStatus(r.Context(), id)
	if err != nil {
		stdErr := apperrors.AsStandard(err)
		writeError(w, stdErr.HTTPStatus(), errorBody{
			Error:   stdErr.Message,
			Code:    string(stdErr.Code),
			Details: stdErr.Details,
		})
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// HealthHandler reports service liveness plus dependency connectivity.
type HealthHandler struct {
	db        Pinger
	redis     Pinger
	startedAt time.Time
}

func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, startedAt: time.Now()}
}

type healthResponse struct {
	Status        string `json:"status"`
	DB            string `json:"db"`
	Redis         string `json:"redis"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:        "ok",
		DB:            "connected",
		Redis:         "connected",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}

	if h.db == nil || h.db.Ping(ctx) != nil {
		resp.DB = "disconnected"
		resp.Status = "degraded"
	}
	if h.redis == nil || h.redis.Ping(ctx) != nil {
		resp.Redis = "disconnected"
		resp.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, resp)
}
