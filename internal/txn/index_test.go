package txn

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mnemonic-graph/mnemonic/internal/graph"
)

func TestVersionIndexAsOfAndModifiedSince(t *testing.T) {
	idx := NewVersionIndex()
	id := uuid.New()

	t0 := time.Now().UTC()
	v1 := graph.ConceptVersion{ConceptID: id, Version: 1, Payload: "v1", CreatedAt: t0}
	idx.AddConceptVersion(v1)

	if idx.ConceptModifiedSince(id, t0.Add(-time.Second)) != true {
		t.Error("expected modification since before creation")
	}
	if idx.ConceptModifiedSince(id, t0.Add(time.Second)) != false {
		t.Error("expected no modification since after creation")
	}

	t1 := t0.Add(time.Millisecond)
	v2 := graph.ConceptVersion{ConceptID: id, Version: 2, Payload: "v2", CreatedAt: t1}
	idx.AddConceptVersion(v2)

	got, ok := idx.GetConceptVersionAt(id, t0)
	if !ok || got.Payload != "v1" {
		t.Errorf("as-of t0 expected v1, got %+v ok=%v", got, ok)
	}
	got, ok = idx.GetConceptVersionAt(id, t1.Add(time.Second))
	if !ok || got.Payload != "v2" {
		t.Errorf("as-of after t1 expected v2, got %+v ok=%v", got, ok)
	}
	if _, ok := idx.GetConceptVersionAt(id, t0.Add(-time.Second)); ok {
		t.Error("as-of before creation should find nothing")
	}
}

func TestVersionIndexTombstoneExcludesFromAsOf(t *testing.T) {
	idx := NewVersionIndex()
	id := uuid.New()

	created := time.Now().UTC()
	idx.AddConceptVersion(graph.ConceptVersion{ConceptID: id, Version: 1, CreatedAt: created})

	deletedAt := created.Add(time.Millisecond)
	tombstone := graph.ConceptVersion{ConceptID: id, Version: 2, CreatedAt: deletedAt, DeletedAt: &deletedAt}
	idx.AddConceptVersion(tombstone)

	if _, ok := idx.GetConceptVersionAt(id, deletedAt.Add(time.Second)); ok {
		t.Error("concept should not be visible after its tombstone")
	}
	if _, ok := idx.GetConceptVersionAt(id, created); !ok {
		t.Error("concept should still be visible before its tombstone")
	}
}

func TestVersionIndexAllActiveExcludesTombstoned(t *testing.T) {
	idx := NewVersionIndex()
	live := uuid.New()
	gone := uuid.New()

	now := time.Now().UTC()
	idx.AddConceptVersion(graph.ConceptVersion{ConceptID: live, Version: 1, CreatedAt: now})
	idx.AddConceptVersion(graph.ConceptVersion{ConceptID: gone, Version: 1, CreatedAt: now})
	deletedAt := now.Add(time.Millisecond)
	idx.AddConceptVersion(graph.ConceptVersion{ConceptID: gone, Version: 2, CreatedAt: deletedAt, DeletedAt: &deletedAt})

	active := idx.AllActiveConcepts(deletedAt.Add(time.Second))
	if len(active) != 1 || active[0].ConceptID != live {
		t.Errorf("expected only %s active, got %+v", live, active)
	}
}
