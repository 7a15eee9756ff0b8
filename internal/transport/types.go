// Package transport is the dual HTTP + gRPC adapter over one shared Graph
// Facade instance, grounded directly in the teacher's cmd/Server/main.go:
// the same manual grpc.ServiceDesc + JSON codec registration (no protoc
// stubs), the same Server struct shape, and the same writeJSON convention.
package transport

import "time"

type storeRequest struct {
	Payload string `json:"payload"`
}

type storeResponse struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type relateRequest struct {
	Source string `json:"source"`
	Type   string `json:"type"`
	Target string `json:"target"`
}

type relateResponse struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type unrelateRequest struct {
	RelationshipID string `json:"relationship_id"`
}

type unrelateResponse struct {
	Error string `json:"error,omitempty"`
}

type relationshipDTO struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Type      string    `json:"type"`
	Target    string    `json:"target"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

type retrieveRequest struct {
	SourceID string `json:"source_id"`
}

type retrieveResponse struct {
	Relationships []relationshipDTO `json:"relationships,omitempty"`
	Error         string            `json:"error,omitempty"`
}

type statusResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}
