package main

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"carpath/curve"
	"carpath/planner"
)

// maxWorldBytes bounds an uploaded world file.
const maxWorldBytes = 16 << 20

type planRequest struct {
	Start   curve.Pose          `json:"start"`
	Goal    curve.Pose          `json:"goal"`
	Vehicle planner.VehicleSpec `json:"vehicle"`
}

type planResponse struct {
	*planner.Result
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type server struct {
	planner *planner.Planner
	logger  *zap.SugaredLogger
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/world", corsMiddleware(s.worldHandler))
	mux.HandleFunc("/plan", corsMiddleware(s.planHandler))
	mux.HandleFunc("/grid", corsMiddleware(s.gridHandler))
	mux.HandleFunc("/health", corsMiddleware(s.healthHandler))
	return mux
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnw("writing response", "error", err)
	}
}

// POST /world - replace the world with a GeoJSON FeatureCollection
func (s *server) worldHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxWorldBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	world, err := parseWorld(data)
	if err != nil {
		s.logger.Warnw("rejected world", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.planner.SetWorld(world); err != nil {
		s.logger.Errorw("building environment", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"numObstacles": len(world.Obstacles),
		"arenaRadius":  world.ArenaRadius,
	})
}

// POST /plan - plan from start to goal in the current world
func (s *server) planHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.logger.Debugw("plan request", "start", req.Start, "goal", req.Goal, "turningRadius", req.Vehicle.TurningRadius)

	res, err := s.planner.Plan(req.Start, req.Goal, req.Vehicle)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, planResponse{Message: err.Error()})
		return
	}
	resp := planResponse{Result: res, Success: !res.Outcome.Degraded()}
	if res.Outcome.Degraded() {
		resp.Message = "no validated path found, returning the direct curve"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GET /grid - blocked cells and free-space edges as GeoJSON
func (s *server) gridHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, gridFeatures(s.planner.Environment().Grid))
}

// GET /health - Health check endpoint
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	env := s.planner.Environment()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ready",
		"numObstacles": len(env.World.Obstacles),
		"gridCells":    env.Grid.Cells(),
		"config":       s.planner.Config(),
	})
}
