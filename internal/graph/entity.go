// Package graph holds the value types for the property graph: concepts
// (nodes), relationships (typed directed edges), and the versioned
// snapshots of each that the transactional layer persists.
package graph

import (
	"time"

	"github.com/google/uuid"
)

// ConceptID uniquely identifies a concept (graph node).
type ConceptID = uuid.UUID

// RelationshipID uniquely identifies a relationship (graph edge).
type RelationshipID = uuid.UUID

// TransactionID uniquely identifies the transaction that produced a version.
type TransactionID = uuid.UUID

// ConceptKind distinguishes an empty structural node from one carrying a
// caller-supplied payload.
type ConceptKind uint8

const (
	// ConceptEmpty is a pure structural node with no payload.
	ConceptEmpty ConceptKind = iota
	// ConceptStructured carries an opaque UTF-8 payload, typically JSON.
	ConceptStructured
)

// ConceptMetadata tracks the bookkeeping fields every concept carries.
type ConceptMetadata struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       uint64
	TransactionID TransactionID
}

// Concept is a node in the graph. Payload is opaque to the core: it is
// either empty or a caller-chosen UTF-8 string, usually JSON.
type Concept struct {
	ID       ConceptID
	Kind     ConceptKind
	Payload  string
	Metadata ConceptMetadata
}

// NewConcept builds a fresh concept with a new id and structured payload.
func NewConcept(payload string) Concept {
	now := time.Now().UTC()
	return Concept{
		ID:      uuid.New(),
		Kind:    ConceptStructured,
		Payload: payload,
		Metadata: ConceptMetadata{
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
	}
}

// NewEmptyConcept builds a fresh, payload-less structural concept.
func NewEmptyConcept() Concept {
	now := time.Now().UTC()
	return Concept{
		ID:   uuid.New(),
		Kind: ConceptEmpty,
		Metadata: ConceptMetadata{
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		},
	}
}

// ConceptVersion is an immutable historical snapshot of one concept,
// identified by (ConceptID, Version).
type ConceptVersion struct {
	ConceptID ConceptID
	Version   uint64
	Kind      ConceptKind
	Payload   string
	CreatedAt time.Time
	CreatedBy TransactionID
	DeletedAt *time.Time
	DeletedBy *TransactionID
}

// ConceptVersionFromConcept derives the version record a commit should
// persist for the given concept, stamped with the committing transaction.
func ConceptVersionFromConcept(c Concept, txn TransactionID) ConceptVersion {
	return ConceptVersion{
		ConceptID: c.ID,
		Version:   c.Metadata.Version,
		Kind:      c.Kind,
		Payload:   c.Payload,
		CreatedAt: c.Metadata.UpdatedAt,
		CreatedBy: txn,
	}
}

// IsActiveAt reports whether this version was the live state of its entity
// at the given instant.
func (v ConceptVersion) IsActiveAt(t time.Time) bool {
	if v.CreatedAt.After(t) {
		return false
	}
	return v.DeletedAt == nil || v.DeletedAt.After(t)
}

// RelationshipMetadata tracks the bookkeeping fields every relationship
// carries.
type RelationshipMetadata struct {
	CreatedAt     time.Time
	Version       uint64
	TransactionID TransactionID
}

// Relationship is a directed, typed edge between two concepts.
type Relationship struct {
	ID       RelationshipID
	Source   ConceptID
	Type     string
	Target   ConceptID
	Metadata RelationshipMetadata
}

// NewRelationship builds a fresh relationship with a new id.
func NewRelationship(source ConceptID, relType string, target ConceptID) Relationship {
	return Relationship{
		ID:     uuid.New(),
		Source: source,
		Type:   relType,
		Target: target,
		Metadata: RelationshipMetadata{
			CreatedAt: time.Now().UTC(),
			Version:   1,
		},
	}
}

// RelationshipVersion is an immutable historical snapshot of one
// relationship, identified by (RelationshipID, Version).
type RelationshipVersion struct {
	RelationshipID RelationshipID
	Version        uint64
	Source         ConceptID
	Type           string
	Target         ConceptID
	CreatedAt      time.Time
	CreatedBy      TransactionID
	DeletedAt      *time.Time
	DeletedBy      *TransactionID
}

// RelationshipVersionFromRelationship derives the version record a commit
// should persist for the given relationship.
func RelationshipVersionFromRelationship(r Relationship, txn TransactionID) RelationshipVersion {
	return RelationshipVersion{
		RelationshipID: r.ID,
		Version:        r.Metadata.Version,
		Source:         r.Source,
		Type:           r.Type,
		Target:         r.Target,
		CreatedAt:      r.Metadata.CreatedAt,
		CreatedBy:      txn,
	}
}

// IsActiveAt reports whether this version was the live state of its edge
// at the given instant.
func (v RelationshipVersion) IsActiveAt(t time.Time) bool {
	if v.CreatedAt.After(t) {
		return false
	}
	return v.DeletedAt == nil || v.DeletedAt.After(t)
}

// AsRelationship projects a version record back to the plain Relationship
// shape used by read APIs.
func (v RelationshipVersion) AsRelationship() Relationship {
	return Relationship{
		ID:     v.RelationshipID,
		Source: v.Source,
		Type:   v.Type,
		Target: v.Target,
		Metadata: RelationshipMetadata{
			CreatedAt:     v.CreatedAt,
			Version:       v.Version,
			TransactionID: v.CreatedBy,
		},
	}
}
