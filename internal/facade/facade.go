package facade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mnemonic-graph/mnemonic/internal/graph"
	"github.com/mnemonic-graph/mnemonic/internal/txn"
)

// GraphFacade exposes the five core operations as single-statement async
// transactions over a shared Transaction Manager, plus explicit
// begin/commit/abort for callers that want multi-statement transactions.
type GraphFacade struct {
	manager *txn.Manager
	pool    *Pool
}

// New wraps manager with a worker pool of the given size (DefaultPoolSize
// if size <= 0).
func New(manager *txn.Manager, poolSize int) *GraphFacade {
	return &GraphFacade{manager: manager, pool: NewPool(poolSize)}
}

// Store constructs a fresh concept with the given payload, commits it in a
// single transaction, and returns its id.
func (f *GraphFacade) Store(ctx context.Context, payload string) (uuid.UUID, error) {
	return submit(ctx, f.pool, func() (uuid.UUID, error) {
		t := f.manager.Begin(txn.Snapshot)
		concept := graph.NewConcept(payload)
		t.StageConceptWrite(concept)
		if err := f.manager.Commit(t); err != nil {
			return uuid.Nil, err
		}
		return concept.ID, nil
	})
}

// Relate asserts, as of the transaction's start timestamp, that both
// source and target have an active version, then creates and commits a
// fresh relationship between them.
func (f *GraphFacade) Relate(ctx context.Context, source uuid.UUID, relType string, target uuid.UUID) (uuid.UUID, error) {
	return submit(ctx, f.pool, func() (uuid.UUID, error) {
		t := f.manager.Begin(txn.Snapshot)

		if _, ok := f.manager.ReadConceptAsOf(source, t.StartTimestamp); !ok {
			_ = f.manager.Abort(t)
			return uuid.Nil, &txn.ConceptNotFoundError{ID: source}
		}
		if _, ok := f.manager.ReadConceptAsOf(target, t.StartTimestamp); !ok {
			_ = f.manager.Abort(t)
			return uuid.Nil, &txn.ConceptNotFoundError{ID: target}
		}
		t.ReadSet[source] = struct{}{}
		t.ReadSet[target] = struct{}{}

		rel := graph.NewRelationship(source, relType, target)
		t.StageRelationshipWrite(rel)
		if err := f.manager.Commit(t); err != nil {
			return uuid.Nil, err
		}
		return rel.ID, nil
	})
}

// Unrelate asserts the relationship has an active version as of the
// transaction's start, then tombstones it.
func (f *GraphFacade) Unrelate(ctx context.Context, relationshipID uuid.UUID) error {
	_, err := submit(ctx, f.pool, func() (struct{}, error) {
		t := f.manager.Begin(txn.Snapshot)
		if _, ok := f.manager.ReadRelationshipAsOf(relationshipID, t.StartTimestamp); !ok {
			_ = f.manager.Abort(t)
			return struct{}{}, &txn.RelationshipNotFoundError{ID: relationshipID}
		}
		t.StageRelationshipDelete(relationshipID)
		return struct{}{}, f.manager.Commit(t)
	})
	return err
}

// DeleteConcept tombstones a concept (supplemented: see SPEC_FULL.md §3 —
// the reference leaves concept deletion undefined).
func (f *GraphFacade) DeleteConcept(ctx context.Context, conceptID uuid.UUID) error {
	_, err := submit(ctx, f.pool, func() (struct{}, error) {
		t := f.manager.Begin(txn.Snapshot)
		if _, ok := f.manager.ReadConceptAsOf(conceptID, t.StartTimestamp); !ok {
			_ = f.manager.Abort(t)
			return struct{}{}, &txn.ConceptNotFoundError{ID: conceptID}
		}
		t.StageConceptDelete(conceptID)
		return struct{}{}, f.manager.Commit(t)
	})
	return err
}

// RetrieveBySource returns every relationship currently active with the
// given source, as of now. A source concept with no active version (absent
// or tombstoned) yields an empty result.
func (f *GraphFacade) RetrieveBySource(ctx context.Context, sourceID uuid.UUID) ([]graph.Relationship, error) {
	return submit(ctx, f.pool, func() ([]graph.Relationship, error) {
		now := time.Now().UTC()
		if _, ok := f.manager.ReadConceptAsOf(sourceID, now); !ok {
			return []graph.Relationship{}, nil
		}
		active := f.manager.Index().AllActiveRelationships(now)
		matching := lo.Filter(active, func(v graph.RelationshipVersion, _ int) bool {
			return v.Source == sourceID
		})
		return lo.Map(matching, func(v graph.RelationshipVersion, _ int) graph.Relationship {
			return v.AsRelationship()
		}), nil
	})
}

// Begin forwards to the manager, dispatched through the pool like every
// other facade call so callers never block their own goroutine on
// Version Index locks directly.
func (f *GraphFacade) Begin(ctx context.Context, level txn.IsolationLevel) (*txn.Transaction, error) {
	return submit(ctx, f.pool, func() (*txn.Transaction, error) {
		return f.manager.Begin(level), nil
	})
}

// Commit forwards a caller-driven multi-statement transaction to the
// manager.
func (f *GraphFacade) Commit(ctx context.Context, t *txn.Transaction) error {
	_, err := submit(ctx, f.pool, func() (struct{}, error) {
		return struct{}{}, f.manager.Commit(t)
	})
	return err
}

// Abort forwards a caller-driven abort to the manager.
func (f *GraphFacade) Abort(ctx context.Context, t *txn.Transaction) error {
	_, err := submit(ctx, f.pool, func() (struct{}, error) {
		return struct{}{}, f.manager.Abort(t)
	})
	return err
}

// ReadConceptAsOf and ReadRelationshipAsOf expose time-travel reads
// directly; they are cheap read-lock operations and do not need pool
// dispatch, matching the core spec's "delegate directly to the Version
// Index" wording for §4.3.5.
func (f *GraphFacade) ReadConceptAsOf(id uuid.UUID, at time.Time) (graph.ConceptVersion, bool) {
	return f.manager.ReadConceptAsOf(id, at)
}

func (f *GraphFacade) ReadRelationshipAsOf(id uuid.UUID, at time.Time) (graph.RelationshipVersion, bool) {
	return f.manager.ReadRelationshipAsOf(id, at)
}
