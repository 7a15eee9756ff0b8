package txn

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/mnemonic-graph/mnemonic/internal/graph"
	"github.com/mnemonic-graph/mnemonic/internal/kv"
)

// Manager owns the Version Index, a handle to the Durable Store, and the
// thread-safe map of active transactions. It is the only writer of the
// Version Index; every commit and hydration pass goes through it.
type Manager struct {
	store kv.Store
	index *VersionIndex

	mu     sync.Mutex
	active map[uuid.UUID]*Transaction

	// commitMu serializes the whole of Commit: validation, next-version
	// computation, the Durable Store write, and the Version Index install
	// all run as one critical section under this lock, so two concurrent
	// commits against the same entity can never both pass validation and
	// both compute the same next version (§4.3.4, §5).
	commitMu sync.Mutex
}

// New constructs a Manager and hydrates its Version Index from store. If
// store fails any read during hydration, New returns an error and the
// manager does not come up.
func New(store kv.Store) (*Manager, error) {
	m := &Manager{
		store:  store,
		index:  NewVersionIndex(),
		active: make(map[uuid.UUID]*Transaction),
	}
	if err := m.hydrate(); err != nil {
		return nil, err
	}
	return m, nil
}

// hydrate replays every persisted version record into the Version Index.
// Entries come back from ScanFrom already ordered by key, which sorts by
// (entity_id, zero_padded_version) — a cheap pre-sort — but the exposed
// invariant is the explicit chain sort applied below.
func (m *Manager) hydrate() error {
	conceptEntries, err := m.store.ScanFrom(kv.NamespaceVersions, "cv:")
	if err != nil {
		return fmt.Errorf("%w: hydrate concepts: %v", ErrStorage, err)
	}
	for _, e := range conceptEntries {
		v, err := decodeConceptVersion(e.Value)
		if err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrSerialization, e.Key, err)
		}
		m.index.AddConceptVersion(v)
	}

	relEntries, err := m.store.ScanFrom(kv.NamespaceVersions, "rv:")
	if err != nil {
		return fmt.Errorf("%w: hydrate relationships: %v", ErrStorage, err)
	}
	for _, e := range relEntries {
		v, err := decodeRelationshipVersion(e.Value)
		if err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrSerialization, e.Key, err)
		}
		m.index.AddRelationshipVersion(v)
	}

	m.index.sortConceptChains(func(chain []graph.ConceptVersion) {
		slices.SortFunc(chain, func(a, b graph.ConceptVersion) int {
			switch {
			case a.Version < b.Version:
				return -1
			case a.Version > b.Version:
				return 1
			default:
				return 0
			}
		})
	})
	m.index.sortRelationshipChains(func(chain []graph.RelationshipVersion) {
		slices.SortFunc(chain, func(a, b graph.RelationshipVersion) int {
			switch {
			case a.Version < b.Version:
				return -1
			case a.Version > b.Version:
				return 1
			default:
				return 0
			}
		})
	})
	return nil
}

// Begin captures a fresh unique id and the current instant, constructs an
// empty transaction at the requested isolation level, registers it as
// active, and returns it.
func (m *Manager) Begin(level IsolationLevel) *Transaction {
	t := newTransaction(uuid.New(), time.Now().UTC(), level)
	m.mu.Lock()
	m.active[t.ID] = t
	m.mu.Unlock()
	return t
}

// Abort removes the transaction from the active map and discards its
// pending writes and deletes. Fails if the id is not present.
func (m *Manager) Abort(t *Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[t.ID]; !ok {
		return &TransactionError{Msg: fmt.Sprintf("unknown transaction %s at abort", t.ID)}
	}
	delete(m.active, t.ID)
	return nil
}

// Index exposes the Version Index for read-only callers (the Graph
// Facade's time-travel and retrieve paths).
func (m *Manager) Index() *VersionIndex { return m.index }

// ReadConceptAsOf delegates to the Version Index.
func (m *Manager) ReadConceptAsOf(id uuid.UUID, at time.Time) (graph.ConceptVersion, bool) {
	return m.index.GetConceptVersionAt(id, at)
}

// ReadRelationshipAsOf delegates to the Version Index.
func (m *Manager) ReadRelationshipAsOf(id uuid.UUID, at time.Time) (graph.RelationshipVersion, bool) {
	return m.index.GetRelationshipVersionAt(id, at)
}

// Commit runs the three-phase commit protocol described by the
// transactional core: validate the write sets against the Version Index
// (first-committer-wins), stage new version records into one atomic
// Durable Store batch, write the batch, and only on success install the
// buffered appends into the Version Index. On batch failure nothing is
// installed, so the index never diverges from disk. The whole protocol
// runs under commitMu, so commits serialize through one exclusive guard
// the way concurrent reads never need to: validation, next-version
// computation, and install happen as a single critical section, closing
// the window where two concurrent commits against the same entity could
// otherwise both pass validation and both win.
func (m *Manager) Commit(t *Transaction) error {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	m.mu.Lock()
	_, known := m.active[t.ID]
	m.mu.Unlock()
	if !known {
		return &TransactionError{Msg: fmt.Sprintf("unknown transaction %s at commit", t.ID)}
	}

	if err := m.validate(t); err != nil {
		m.mu.Lock()
		delete(m.active, t.ID)
		m.mu.Unlock()
		return err
	}

	var ops []kv.Op
	var conceptAppends []graph.ConceptVersion
	var relAppends []graph.RelationshipVersion

	now := time.Now().UTC()

	for id, concept := range t.PendingWrites {
		next := uint64(1)
		if prior, ok := m.index.LatestConceptVersion(id); ok {
			next = prior.Version + 1
		}
		v := graph.ConceptVersionFromConcept(concept, t.ID)
		v.Version = next
		v.CreatedAt = now
		encoded, err := encodeConceptVersion(v)
		if err != nil {
			return fmt.Errorf("%w: encode concept %s: %v", ErrSerialization, id, err)
		}
		ops = append(ops, kv.Op{Namespace: kv.NamespaceVersions, Key: kv.ConceptVersionKey(id, v.Version), Value: encoded})
		conceptAppends = append(conceptAppends, v)
	}

	for id, rel := range t.PendingRelationshipWrites {
		next := uint64(1)
		if prior, ok := m.index.LatestRelationshipVersion(id); ok {
			next = prior.Version + 1
		}
		v := graph.RelationshipVersionFromRelationship(rel, t.ID)
		v.Version = next
		v.CreatedAt = now
		encoded, err := encodeRelationshipVersion(v)
		if err != nil {
			return fmt.Errorf("%w: encode relationship %s: %v", ErrSerialization, id, err)
		}
		ops = append(ops, kv.Op{Namespace: kv.NamespaceVersions, Key: kv.RelationshipVersionKey(id, v.Version), Value: encoded})
		relAppends = append(relAppends, v)

		// Written for forward compatibility with a source/target secondary
		// lookup; no read path consults NamespaceIndices today since
		// RetrieveBySource scans the Version Index directly.
		ops = append(ops,
			kv.Op{Namespace: kv.NamespaceIndices, Key: kv.SourceIndexKey(rel.Source, id), Value: []byte(id.String())},
			kv.Op{Namespace: kv.NamespaceIndices, Key: kv.TargetIndexKey(rel.Target, id), Value: []byte(id.String())},
		)
	}

	for id := range t.PendingDeletes {
		prior, ok := m.index.LatestRelationshipVersion(id)
		if !ok {
			return &TransactionError{Msg: fmt.Sprintf("unrelate: unknown relationship %s at commit", id)}
		}
		tombstone := prior
		tombstone.Version = prior.Version + 1
		deletedAt := now
		tombstone.CreatedAt = now
		tombstone.DeletedAt = &deletedAt
		deletedBy := t.ID
		tombstone.DeletedBy = &deletedBy
		encoded, err := encodeRelationshipVersion(tombstone)
		if err != nil {
			return fmt.Errorf("%w: encode tombstone %s: %v", ErrSerialization, id, err)
		}
		ops = append(ops, kv.Op{Namespace: kv.NamespaceVersions, Key: kv.RelationshipVersionKey(id, tombstone.Version), Value: encoded})
		relAppends = append(relAppends, tombstone)
	}

	for id := range t.PendingConceptDeletes {
		prior, ok := m.index.LatestConceptVersion(id)
		if !ok {
			return &TransactionError{Msg: fmt.Sprintf("delete: unknown concept %s at commit", id)}
		}
		tombstone := prior
		tombstone.Version = prior.Version + 1
		deletedAt := now
		tombstone.CreatedAt = now
		tombstone.DeletedAt = &deletedAt
		deletedBy := t.ID
		tombstone.DeletedBy = &deletedBy
		encoded, err := encodeConceptVersion(tombstone)
		if err != nil {
			return fmt.Errorf("%w: encode tombstone %s: %v", ErrSerialization, id, err)
		}
		ops = append(ops, kv.Op{Namespace: kv.NamespaceVersions, Key: kv.ConceptVersionKey(id, tombstone.Version), Value: encoded})
		conceptAppends = append(conceptAppends, tombstone)
	}

	// Phase 2 continued: the batch must land on the Durable Store before
	// any of the buffered appends above are installed into the Version
	// Index. This is the order the spec requires (write batch, then
	// append) and deliberately not the reverse order the reference
	// implementation used.
	if len(ops) > 0 {
		if err := m.store.WriteBatch(ops); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	// Install every buffered append under one write lock so readers see
	// either none or all of this commit's versions.
	m.index.mu.Lock()
	for _, v := range conceptAppends {
		m.index.concepts[v.ConceptID] = append(m.index.concepts[v.ConceptID], v)
	}
	for _, v := range relAppends {
		m.index.relationships[v.RelationshipID] = append(m.index.relationships[v.RelationshipID], v)
	}
	m.index.mu.Unlock()

	// Phase 3 — cleanup.
	m.mu.Lock()
	delete(m.active, t.ID)
	m.mu.Unlock()
	return nil
}

// validate implements phase 1: first-committer-wins. For each id in the
// write sets, if the Version Index shows any modification strictly after
// the transaction's start timestamp, the commit fails with a conflict
// naming that id. Reads are never validated under snapshot isolation.
func (m *Manager) validate(t *Transaction) error {
	for id := range t.WriteSet {
		if m.index.ConceptModifiedSince(id, t.StartTimestamp) {
			return &TransactionConflictError{ID: id}
		}
	}
	for id := range t.RelationshipWriteSet {
		if m.index.RelationshipModifiedSince(id, t.StartTimestamp) {
			return &TransactionConflictError{ID: id}
		}
	}
	return nil
}
