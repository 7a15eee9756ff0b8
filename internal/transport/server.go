package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mnemonic-graph/mnemonic/internal/facade"
	"github.com/mnemonic-graph/mnemonic/internal/graph"
	"github.com/mnemonic-graph/mnemonic/internal/txn"
)

// Server holds the dependencies shared by the HTTP and gRPC adapters,
// mirroring the teacher's Server struct in cmd/Server/main.go.
type Server struct {
	graph *facade.GraphFacade
	log   zerolog.Logger
}

// NewServer builds a transport Server wrapping g.
func NewServer(g *facade.GraphFacade, log zerolog.Logger) *Server {
	return &Server{graph: g, log: log}
}

// GraphServer is the manual gRPC service interface, the graph-domain
// analogue of the teacher's TinySQLServer.
type GraphServer interface {
	Store(context.Context, *storeRequest) (*storeResponse, error)
	Relate(context.Context, *relateRequest) (*relateResponse, error)
	Unrelate(context.Context, *unrelateRequest) (*unrelateResponse, error)
	RetrieveBySource(context.Context, *retrieveRequest) (*retrieveResponse, error)
}

func (s *Server) Store(ctx context.Context, req *storeRequest) (*storeResponse, error) {
	id, err := s.graph.Store(ctx, req.Payload)
	if err != nil {
		return &storeResponse{Error: err.Error()}, nil
	}
	return &storeResponse{ID: id.String()}, nil
}

func (s *Server) Relate(ctx context.Context, req *relateRequest) (*relateResponse, error) {
	source, err := uuid.Parse(req.Source)
	if err != nil {
		return &relateResponse{Error: "invalid source id: " + err.Error()}, nil
	}
	target, err := uuid.Parse(req.Target)
	if err != nil {
		return &relateResponse{Error: "invalid target id: " + err.Error()}, nil
	}
	id, err := s.graph.Relate(ctx, source, req.Type, target)
	if err != nil {
		return &relateResponse{Error: err.Error()}, nil
	}
	return &relateResponse{ID: id.String()}, nil
}

func (s *Server) Unrelate(ctx context.Context, req *unrelateRequest) (*unrelateResponse, error) {
	id, err := uuid.Parse(req.RelationshipID)
	if err != nil {
		return &unrelateResponse{Error: "invalid relationship id: " + err.Error()}, nil
	}
	if err := s.graph.Unrelate(ctx, id); err != nil {
		return &unrelateResponse{Error: err.Error()}, nil
	}
	return &unrelateResponse{}, nil
}

func (s *Server) RetrieveBySource(ctx context.Context, req *retrieveRequest) (*retrieveResponse, error) {
	sourceID, err := uuid.Parse(req.SourceID)
	if err != nil {
		return &retrieveResponse{Error: "invalid source id: " + err.Error()}, nil
	}
	rels, err := s.graph.RetrieveBySource(ctx, sourceID)
	if err != nil {
		return &retrieveResponse{Error: err.Error()}, nil
	}
	out := make([]relationshipDTO, 0, len(rels))
	for _, r := range rels {
		out = append(out, toDTO(r))
	}
	return &retrieveResponse{Relationships: out}, nil
}

func toDTO(r graph.Relationship) relationshipDTO {
	return relationshipDTO{
		ID:        r.ID.String(),
		Source:    r.Source.String(),
		Type:      r.Type,
		Target:    r.Target.String(),
		Version:   r.Metadata.Version,
		CreatedAt: r.Metadata.CreatedAt,
	}
}

// mapError classifies a core error for the HTTP status it should surface.
// The core itself never imports net/http; only this adapter layer does.
func mapError(err error) int {
	switch err.(type) {
	case *txn.ConceptNotFoundError, *txn.RelationshipNotFoundError:
		return http.StatusNotFound
	case *txn.TransactionConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
