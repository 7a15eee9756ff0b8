package txn

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for conditions that carry no entity identity.
var (
	// ErrStorage wraps a Durable Store failure. Commit is aborted; the
	// manager remains operational.
	ErrStorage = errors.New("txn: durable store failure")

	// ErrSerialization means a version record could not be encoded or
	// decoded. Fatal during hydration; aborts the commit otherwise.
	ErrSerialization = errors.New("txn: serialization failure")
)

// ConceptNotFoundError means an operation addressed a concept with no
// active version.
type ConceptNotFoundError struct {
	ID uuid.UUID
}

func (e *ConceptNotFoundError) Error() string {
	return fmt.Sprintf("concept not found: %s", e.ID)
}

// RelationshipNotFoundError means an operation addressed a relationship
// with no active version.
type RelationshipNotFoundError struct {
	ID uuid.UUID
}

func (e *RelationshipNotFoundError) Error() string {
	return fmt.Sprintf("relationship not found: %s", e.ID)
}

// TransactionError signals an internal invariant violation: an unknown
// transaction id at commit/abort, or any other condition that should never
// happen given a correct caller.
type TransactionError struct {
	Msg string
}

func (e *TransactionError) Error() string {
	return "transaction error: " + e.Msg
}

// TransactionConflictError means first-committer-wins validation failed
// for the named entity: someone else committed a conflicting change to it
// after this transaction's snapshot was taken.
type TransactionConflictError struct {
	ID uuid.UUID
}

func (e *TransactionConflictError) Error() string {
	return fmt.Sprintf("conflict detected on entity %s", e.ID)
}
