package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/doeshing/cmdsense/internal/application/suggest"
	"github.com/doeshing/cmdsense/internal/domain"
	"github.com/doeshing/cmdsense/internal/infrastructure/index"
)

type suggestRequest struct {
	Query          string   `json:"query"`
	CWD            string   `json:"cwd"`
	LastCommand    string   `json:"last_command"`
	LastExitCode   *int     `json:"last_exit_code"`
	RecentCommands []string `json:"recent_commands"`
	MaxSuggestions *int     `json:"max_suggestions"`
}

type suggestionPayload struct {
	Command       string              `json:"command"`
	Score         float64             `json:"score"`
	Rank          int                 `json:"rank"`
	ContextScore  float64             `json:"context_score"`
	FinalScore    float64             `json:"final_score"`
	SemanticScore float64             `json:"semantic_score"`
	Safety        domain.SafetyResult `json:"safety"`
}

type suggestResponse struct {
	Success         bool                `json:"success"`
	Suggestions     []suggestionPayload `json:"suggestions"`
	Context         domain.Context      `json:"context"`
	TotalCandidates int                 `json:"total_candidates"`
}

type fixErrorRequest struct {
	ErrorMessage string `json:"error_message"`
	LastCommand  string `json:"last_command"`
}

type fixErrorResponse struct {
	Success      bool                   `json:"success"`
	Fixes        []domain.FixSuggestion `json:"fixes"`
	QuickFix     *string                `json:"quick_fix"`
	ErrorMessage string                 `json:"error_message"`
}

type rebuildIndexRequest struct {
	Commands []string `json:"commands"`
}

type rebuildIndexResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Stats   index.Stats `json:"stats"`
}

type healthResponse struct {
	Status string        `json:"status"`
	Stats  suggest.Stats `json:"stats"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "cmdsense",
		"status":  "running",
	})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !s.decode(w, r, &req) {
		return
	}
	engineReq := suggest.Request{
		Query:          req.Query,
		CWD:            req.CWD,
		LastCommand:    req.LastCommand,
		LastExitCode:   req.LastExitCode,
		RecentCommands: req.RecentCommands,
	}
	if req.MaxSuggestions != nil {
		engineReq.MaxSuggestions = *req.MaxSuggestions
		if engineReq.MaxSuggestions < 1 {
			s.writeError(w, domain.ErrMalformedRequest)
			return
		}
	}

	result, err := s.engine.Suggest(r.Context(), engineReq)
	if err != nil {
		s.writeError(w, err)
		return
	}

	payload := make([]suggestionPayload, len(result.Suggestions))
	for i, sg := range result.Suggestions {
		payload[i] = suggestionPayload{
			Command:       sg.Command,
			Score:         sg.SemanticScore,
			Rank:          sg.Rank,
			ContextScore:  sg.ContextScore,
			FinalScore:    sg.FinalScore,
			SemanticScore: sg.SemanticScore,
			Safety:        sg.Safety,
		}
	}
	writeJSON(w, http.StatusOK, suggestResponse{
		Success:         true,
		Suggestions:     payload,
		Context:         result.Context,
		TotalCandidates: result.TotalCandidates,
	})
}

func (s *Server) handleFixError(w http.ResponseWriter, r *http.Request) {
	var req fixErrorRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ErrorMessage == "" {
		s.writeError(w, domain.ErrMalformedRequest)
		return
	}

	fixes, quick := s.engine.FixError(req.ErrorMessage, req.LastCommand)
	resp := fixErrorResponse{
		Success:      true,
		Fixes:        fixes,
		ErrorMessage: req.ErrorMessage,
	}
	if quick != "" {
		resp.QuickFix = &quick
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	var req rebuildIndexRequest
	if !s.decode(w, r, &req) {
		return
	}

	stats, err := s.engine.Rebuild(r.Context(), req.Commands, "api")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rebuildIndexResponse{
		Success: true,
		Message: "Index rebuilt successfully",
		Stats:   stats,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := s.engine.Healthy(r.Context()); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
		s.logger.Warn("health check failed", map[string]interface{}{"error": err.Error()})
	}
	writeJSON(w, code, healthResponse{Status: status, Stats: s.engine.Stats()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, domain.ErrMalformedRequest)
		return false
	}
	return true
}

// writeError maps the engine's failure taxonomy to HTTP status codes.
// Internal details never leak to the caller; they go to the log.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var code int
	var msg string
	switch {
	case errors.Is(err, domain.ErrMalformedRequest):
		code = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, domain.ErrModelUnavailable):
		code = http.StatusServiceUnavailable
		msg = "embedding model unavailable"
	default:
		code = http.StatusInternalServerError
		msg = "internal error"
		s.logger.Error("request failed", err, nil)
	}
	writeJSON(w, code, errorResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
