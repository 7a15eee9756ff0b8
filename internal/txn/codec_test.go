package txn

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mnemonic-graph/mnemonic/internal/graph"
)

func TestConceptVersionCodecRoundTripsTombstone(t *testing.T) {
	deletedAt := time.Now().UTC()
	deletedBy := uuid.New()
	original := graph.ConceptVersion{
		ConceptID: uuid.New(),
		Version:   3,
		Kind:      graph.ConceptStructured,
		Payload:   "payload",
		CreatedAt: deletedAt.Add(-time.Minute),
		CreatedBy: uuid.New(),
		DeletedAt: &deletedAt,
		DeletedBy: &deletedBy,
	}

	encoded, err := encodeConceptVersion(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := decodeConceptVersion(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.ConceptID != original.ConceptID || decoded.Payload != original.Payload {
		t.Fatalf("round trip lost core fields: got %+v", decoded)
	}
	if decoded.DeletedAt == nil || !decoded.DeletedAt.Equal(*original.DeletedAt) {
		t.Errorf("round trip lost DeletedAt: got %+v", decoded.DeletedAt)
	}
	if decoded.DeletedBy == nil || *decoded.DeletedBy != *original.DeletedBy {
		t.Errorf("round trip lost DeletedBy: got %+v", decoded.DeletedBy)
	}
}
