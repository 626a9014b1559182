package hub

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"tabletally/internal/match"
)

// Server exposes the hub over HTTP: the WebSocket push channel for
// companion clients plus the REST surface the table's own screen drives
// the phase flow through.
type Server struct {
	hub      *Hub
	connMgr  *ConnectionManager
	assetDir string
}

// NewServer creates the HTTP surface for a hub.
func NewServer(h *Hub, connMgr *ConnectionManager, assetDir string) *Server {
	return &Server{hub: h, connMgr: connMgr, assetDir: assetDir}
}

// RegisterRoutes mounts all endpoints on a mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)

	mux.HandleFunc("POST /api/match/name-entry", s.phaseHandler(func(r *http.Request) (match.Snapshot, error) {
		return s.hub.BeginNameEntry()
	}))
	mux.HandleFunc("POST /api/match/names", s.phaseHandler(func(r *http.Request) (match.Snapshot, error) {
		var req struct {
			NameA string `json:"name_a"`
			NameB string `json:"name_b"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return match.Snapshot{}, &match.ValidationError{Op: "submit_names", Reason: "malformed payload"}
		}
		return s.hub.SubmitNames(req.NameA, req.NameB)
	}))
	mux.HandleFunc("POST /api/match/roll-off/deployment", s.phaseHandler(func(r *http.Request) (match.Snapshot, error) {
		return s.hub.RollDeployment()
	}))
	mux.HandleFunc("POST /api/match/roll-off/role", s.phaseHandler(func(r *http.Request) (match.Snapshot, error) {
		var req struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return match.Snapshot{}, &match.ValidationError{Op: "choose_role", Reason: "malformed payload"}
		}
		return s.hub.ChooseDeploymentRole(req.Role)
	}))
	mux.HandleFunc("POST /api/match/roll-off/first-turn", s.phaseHandler(func(r *http.Request) (match.Snapshot, error) {
		return s.hub.RollFirstTurn()
	}))
	mux.HandleFunc("POST /api/match/roll-off/first-turn/choice", s.phaseHandler(func(r *http.Request) (match.Snapshot, error) {
		var req struct {
			WinnerGoesFirst bool `json:"winner_goes_first"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return match.Snapshot{}, &match.ValidationError{Op: "choose_first_turn", Reason: "malformed payload"}
		}
		return s.hub.ChooseFirstTurn(req.WinnerGoesFirst)
	}))
	mux.HandleFunc("POST /api/match/new", s.phaseHandler(func(r *http.Request) (match.Snapshot, error) {
		return s.hub.NewMatch()
	}))

	// Mutation requests are also accepted over REST for clients that do
	// not hold a socket open.
	mux.HandleFunc("POST /api/request", s.handleRequest)

	if s.assetDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.assetDir)))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.connMgr.UpgradeConnection(w, r); err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		http.Error(w, "upgrade failed", http.StatusBadRequest)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.State())
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeRejection(w, &match.ValidationError{Op: "request", Reason: "message is not a typed envelope"})
		return
	}
	snap, err := s.hub.HandleRequest(env.Type, env.Payload)
	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// phaseHandler adapts a hub phase operation to an HTTP handler with
// uniform rejection mapping.
func (s *Server) phaseHandler(op func(r *http.Request) (match.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := op(r)
		if err != nil {
			writeRejection(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func writeRejection(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if match.IsRejection(err) {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, ErrorPayload{Code: rejectionCode(err), Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
