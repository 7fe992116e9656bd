package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/NordCoder/Proberus/internal/domain/agent"
	"github.com/NordCoder/Proberus/internal/domain/job"
	"github.com/NordCoder/Proberus/internal/services/orchestrator"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handlers exposes the orchestrator over plain JSON. Agents and the frontend
// speak the same surface.
type Handlers struct {
	Log         *zap.Logger
	Coordinator *orchestrator.Coordinator
	Distributor *orchestrator.Distributor
	Agents      *orchestrator.AgentService
}

type createCheckRequest struct {
	Target string   `json:"target"`
	Checks []string `json:"checks"`
}

type createCheckResponse struct {
	CheckID string   `json:"check_id"`
	Status  string   `json:"status"`
	Target  string   `json:"target"`
	Checks  []string `json:"checks"`
}

// CreateCheck handles POST /api/check.
func (h *Handlers) CreateCheck(w http.ResponseWriter, r *http.Request) {
	var req createCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.Join(job.ErrInvalidArgument, err))
		return
	}

	j, err := h.Coordinator.CreateJob(r.Context(), req.Target, req.Checks)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	checks := make([]string, len(j.RequestedChecks))
	for i, t := range j.RequestedChecks {
		checks[i] = string(t)
	}
	writeJSON(w, http.StatusCreated, createCheckResponse{
		CheckID: j.ID,
		Status:  string(j.Status),
		Target:  j.Target,
		Checks:  checks,
	})
}

// GetCheck handles GET /api/check/{id}. Results may be partial while the job
// is in flight.
func (h *Handlers) GetCheck(w http.ResponseWriter, r *http.Request) {
	j, err := h.Coordinator.GetJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// ListChecks handles GET /api/checks, most recent first.
func (h *Handlers) ListChecks(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Coordinator.ListJobs(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"checks": jobs})
}

// GetStats handles GET /api/stats.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Coordinator.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type registerAgentRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	IP       string `json:"ip"`
	Token    string `json:"token"`
}

// RegisterAgent handles POST /api/agents.
func (h *Handlers) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req registerAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.Join(agent.ErrInvalidArgument, err))
		return
	}

	id, err := h.Agents.Register(r.Context(), req.Name, req.Location, req.IP, req.Token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"agent_id": id, "status": "created"})
}

type heartbeatRequest struct {
	AgentID int64  `json:"agent_id"`
	Token   string `json:"token"`
}

// Heartbeat handles POST /api/agents/heartbeat.
func (h *Handlers) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.Join(agent.ErrInvalidArgument, err))
		return
	}

	id, err := h.Agents.Heartbeat(r.Context(), req.AgentID, req.Token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated", "agent_id": id})
}

// ListAgents handles GET /api/agents.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Agents.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

// AgentTasks handles GET /api/agent/tasks: the pull feed of unresolved
// (job, check) pairs.
func (h *Handlers) AgentTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Distributor.PendingTasks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

type agentResultRequest struct {
	TaskID  string `json:"task_id"`
	AgentID int64  `json:"agent_id"`
	Results struct {
		Success bool   `json:"success"`
		Output  string `json:"output"`
		Error   string `json:"error"`
	} `json:"results"`
}

// AgentResults handles POST /api/agent/results.
func (h *Handlers) AgentResults(w http.ResponseWriter, r *http.Request) {
	var req agentResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.Join(job.ErrInvalidArgument, err))
		return
	}

	err := h.Distributor.SubmitResult(r.Context(), req.TaskID,
		req.Results.Success, req.Results.Output, req.Results.Error)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "received", "task_id": req.TaskID})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP codes. Internal faults return a
// generic body; details go to the log only.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, job.ErrInvalidArgument) || errors.Is(err, agent.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, job.ErrNotFound) || errors.Is(err, agent.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error(), "status": "not_found"})
	default:
		h.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}
