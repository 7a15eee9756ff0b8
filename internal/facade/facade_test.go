package facade

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mnemonic-graph/mnemonic/internal/kv"
	"github.com/mnemonic-graph/mnemonic/internal/txn"
)

func newTestFacade(t *testing.T) *GraphFacade {
	t.Helper()
	store, err := kv.Open("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	manager, err := txn.New(store)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return New(manager, 2)
}

func TestFacadeStoreAndRetrieve(t *testing.T) {
	ctx := context.Background()
	g := newTestFacade(t)

	source, err := g.Store(ctx, "source")
	if err != nil {
		t.Fatalf("store source: %v", err)
	}
	target, err := g.Store(ctx, "target")
	if err != nil {
		t.Fatalf("store target: %v", err)
	}

	relID, err := g.Relate(ctx, source, "links_to", target)
	if err != nil {
		t.Fatalf("relate: %v", err)
	}

	rels, err := g.RetrieveBySource(ctx, source)
	if err != nil {
		t.Fatalf("retrieve by source: %v", err)
	}
	if len(rels) != 1 || rels[0].ID != relID {
		t.Fatalf("expected to retrieve exactly the new relationship, got %+v", rels)
	}
}

func TestFacadeRelateMissingEndpoint(t *testing.T) {
	ctx := context.Background()
	g := newTestFacade(t)

	source, err := g.Store(ctx, "only source")
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	_, err = g.Relate(ctx, source, "links_to", uuid.New())
	if err == nil {
		t.Fatal("expected an error relating to a nonexistent concept")
	}
	if _, ok := err.(*txn.ConceptNotFoundError); !ok {
		t.Errorf("expected *txn.ConceptNotFoundError, got %T (%v)", err, err)
	}
}

func TestFacadeUnrelateThenRetrieve(t *testing.T) {
	ctx := context.Background()
	g := newTestFacade(t)

	source, _ := g.Store(ctx, "a")
	target, _ := g.Store(ctx, "b")
	relID, err := g.Relate(ctx, source, "knows", target)
	if err != nil {
		t.Fatalf("relate: %v", err)
	}

	if err := g.Unrelate(ctx, relID); err != nil {
		t.Fatalf("unrelate: %v", err)
	}

	rels, err := g.RetrieveBySource(ctx, source)
	if err != nil {
		t.Fatalf("retrieve by source: %v", err)
	}
	if len(rels) != 0 {
		t.Errorf("expected no active relationships after unrelate, got %+v", rels)
	}
}

func TestFacadeDeleteConceptNotFound(t *testing.T) {
	ctx := context.Background()
	g := newTestFacade(t)

	if err := g.DeleteConcept(ctx, uuid.New()); err == nil {
		t.Fatal("expected an error deleting an unknown concept")
	}
}

func TestFacadeExplicitTransaction(t *testing.T) {
	ctx := context.Background()
	g := newTestFacade(t)

	source, _ := g.Store(ctx, "a")
	target, _ := g.Store(ctx, "b")

	tx, err := g.Begin(ctx, txn.Snapshot)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, ok := g.ReadConceptAsOf(source, tx.StartTimestamp); !ok {
		t.Fatal("expected source to be visible to the new transaction")
	}
	if err := g.Abort(ctx, tx); err != nil {
		t.Fatalf("abort: %v", err)
	}
	_ = target
}

func TestFacadeSubmitCompletesAfterContextCancel(t *testing.T) {
	p := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_, _ = submit(ctx, p, func() (struct{}, error) {
			close(started)
			time.Sleep(20 * time.Millisecond)
			close(done)
			return struct{}{}, nil
		})
	}()

	<-started
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submitted job should still run to completion after ctx cancellation")
	}
}
