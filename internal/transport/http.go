package transport

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// HTTPHandler builds the JSON HTTP mux: store / relate / unrelate /
// retrieve-by-source / status, the graph-domain analogue of the teacher's
// /api/exec, /api/query, /api/status routes. Unlike the gRPC surface
// (§transport/grpc.go), HTTP handlers call the facade directly so a core
// error can be mapped to a real status code via mapError.
func (s *Server) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/concepts", s.handleStore)
	mux.HandleFunc("/relationships", s.handleRelationshipsRoot)
	mux.HandleFunc("/concepts/relationships", s.handleRetrieveBySource)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	id, err := s.graph.Store(r.Context(), req.Payload)
	if err != nil {
		w.WriteHeader(mapError(err))
		writeJSON(w, storeResponse{Error: err.Error()})
		return
	}
	writeJSON(w, storeResponse{ID: id.String()})
}

// handleRelationshipsRoot dispatches POST (relate) and DELETE (unrelate)
// on the same collection path, matching the teacher's habit of one mux
// entry per resource rather than per verb.
func (s *Server) handleRelationshipsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req relateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		source, err := uuid.Parse(req.Source)
		if err != nil {
			http.Error(w, "invalid source id", http.StatusBadRequest)
			return
		}
		target, err := uuid.Parse(req.Target)
		if err != nil {
			http.Error(w, "invalid target id", http.StatusBadRequest)
			return
		}
		id, err := s.graph.Relate(r.Context(), source, req.Type, target)
		if err != nil {
			w.WriteHeader(mapError(err))
			writeJSON(w, relateResponse{Error: err.Error()})
			return
		}
		writeJSON(w, relateResponse{ID: id.String()})
	case http.MethodDelete:
		var req unrelateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		id, err := uuid.Parse(req.RelationshipID)
		if err != nil {
			http.Error(w, "invalid relationship id", http.StatusBadRequest)
			return
		}
		if err := s.graph.Unrelate(r.Context(), id); err != nil {
			w.WriteHeader(mapError(err))
			writeJSON(w, unrelateResponse{Error: err.Error()})
			return
		}
		writeJSON(w, unrelateResponse{})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRetrieveBySource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sourceID, err := uuid.Parse(r.URL.Query().Get("source_id"))
	if err != nil {
		http.Error(w, "invalid source_id", http.StatusBadRequest)
		return
	}
	rels, err := s.graph.RetrieveBySource(r.Context(), sourceID)
	if err != nil {
		w.WriteHeader(mapError(err))
		writeJSON(w, retrieveResponse{Error: err.Error()})
		return
	}
	out := make([]relationshipDTO, 0, len(rels))
	for _, rel := range rels {
		out = append(out, toDTO(rel))
	}
	writeJSON(w, retrieveResponse{Relationships: out})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusResponse{OK: true, Time: nowRFC3339()})
}
