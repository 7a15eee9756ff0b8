package txn

import (
	"time"

	"github.com/google/uuid"

	"github.com/mnemonic-graph/mnemonic/internal/graph"
)

// IsolationLevel names the isolation a transaction runs under. Only
// Snapshot is implemented; the type stays open so a transport adapter can
// reject an unsupported level at the boundary instead of the core silently
// misbehaving.
type IsolationLevel uint8

const (
	// Snapshot is the only isolation level this core implements.
	Snapshot IsolationLevel = iota
)

// Transaction is a per-session workspace: a caller accumulates pending
// writes and deletes against entity ids between Begin and Commit/Abort.
// Every id in a Pending* map must also appear in the matching *Set.
type Transaction struct {
	ID             uuid.UUID
	StartTimestamp time.Time
	IsolationLevel IsolationLevel

	ReadSet             map[uuid.UUID]struct{}
	RelationshipReadSet map[uuid.UUID]struct{}

	WriteSet             map[uuid.UUID]struct{}
	RelationshipWriteSet map[uuid.UUID]struct{}

	PendingWrites             map[uuid.UUID]graph.Concept
	PendingRelationshipWrites map[uuid.UUID]graph.Relationship

	PendingDeletes        map[uuid.UUID]struct{}
	PendingConceptDeletes map[uuid.UUID]struct{}
}

func newTransaction(id uuid.UUID, start time.Time, level IsolationLevel) *Transaction {
	return &Transaction{
		ID:                        id,
		StartTimestamp:            start,
		IsolationLevel:            level,
		ReadSet:                   make(map[uuid.UUID]struct{}),
		RelationshipReadSet:       make(map[uuid.UUID]struct{}),
		WriteSet:                  make(map[uuid.UUID]struct{}),
		RelationshipWriteSet:      make(map[uuid.UUID]struct{}),
		PendingWrites:             make(map[uuid.UUID]graph.Concept),
		PendingRelationshipWrites: make(map[uuid.UUID]graph.Relationship),
		PendingDeletes:            make(map[uuid.UUID]struct{}),
		PendingConceptDeletes:     make(map[uuid.UUID]struct{}),
	}
}

// StageConceptWrite records a concept to be installed on commit.
func (t *Transaction) StageConceptWrite(c graph.Concept) {
	t.WriteSet[c.ID] = struct{}{}
	t.PendingWrites[c.ID] = c
}

// StageRelationshipWrite records a relationship to be installed on commit.
func (t *Transaction) StageRelationshipWrite(r graph.Relationship) {
	t.RelationshipWriteSet[r.ID] = struct{}{}
	t.PendingRelationshipWrites[r.ID] = r
}

// StageRelationshipDelete marks a relationship for tombstoning on commit.
func (t *Transaction) StageRelationshipDelete(id uuid.UUID) {
	t.RelationshipWriteSet[id] = struct{}{}
	t.PendingDeletes[id] = struct{}{}
}

// StageConceptDelete marks a concept for tombstoning on commit
// (supplemented: the reference leaves concept deletion undefined; this
// core adds it symmetrically to relationship deletion).
func (t *Transaction) StageConceptDelete(id uuid.UUID) {
	t.WriteSet[id] = struct{}{}
	t.PendingConceptDeletes[id] = struct{}{}
}
