package kv

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// CheckpointStore is the one concrete Durable Store this repository ships:
// four in-memory namespaces behind a single RWMutex, periodically and
// on-close checkpointed to a GOB file plus a small JSON manifest, in the
// same shape backend_disk.go persists tables — generalized from
// per-table files to one file per namespace.
type CheckpointStore struct {
	mu   sync.RWMutex
	dir  string
	data map[Namespace]map[string][]byte

	loadCount atomic.Int64
	syncCount atomic.Int64
}

// checkpointFile is the GOB-encoded payload for one namespace's file.
type checkpointFile struct {
	Entries map[string][]byte
}

// manifest records when each namespace was last checkpointed, mirroring
// DiskBackend's manifest.json.
type manifest struct {
	UpdatedAt  time.Time            `json:"updated_at"`
	Namespaces map[Namespace]string `json:"namespaces"` // ns -> file name
}

// Open creates or reopens a checkpoint store rooted at dir. If dir already
// holds a manifest, every namespace file it names is loaded eagerly. An
// empty dir means pure in-memory operation: Sync/Close are no-ops for the
// life of the store.
func Open(dir string) (*CheckpointStore, error) {
	s := &CheckpointStore{
		dir:  dir,
		data: make(map[Namespace]map[string][]byte),
	}
	for _, ns := range allNamespaces {
		s.data[ns] = make(map[string][]byte)
	}
	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kv: create dir: %w", err)
	}
	if err := s.loadManifest(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return s, nil
}

var allNamespaces = []Namespace{
	NamespaceConcepts, NamespaceRelationships, NamespaceIndices, NamespaceVersions,
}

func (s *CheckpointStore) Get(ns Namespace, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[ns][key]
	return v, ok, nil
}

func (s *CheckpointStore) Put(ns Namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(ns)
	s.data[ns][key] = value
	return nil
}

func (s *CheckpointStore) Delete(ns Namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[ns], key)
	return nil
}

func (s *CheckpointStore) ScanFrom(ns Namespace, prefix string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for k, v := range s.data[ns] {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Entry{Key: k, Value: v})
		}
	}
	sortEntries(out)
	return out, nil
}

// WriteBatch applies every op to the in-memory namespaces under one write
// lock. Because the map mutation itself cannot partially fail, all-or-
// nothing atomicity holds for the in-memory view; a crash between applying
// the batch and the next checkpoint can only lose the whole unpersisted
// batch, never half of it, since ops are applied while already holding the
// lock that guards checkpointing.
func (s *CheckpointStore) WriteBatch(ops []Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		s.ensure(op.Namespace)
		if op.Delete {
			delete(s.data[op.Namespace], op.Key)
			continue
		}
		s.data[op.Namespace][op.Key] = op.Value
	}
	return nil
}

func (s *CheckpointStore) ensure(ns Namespace) {
	if s.data[ns] == nil {
		s.data[ns] = make(map[string][]byte)
	}
}

// Sync checkpoints every namespace to disk and rewrites the manifest. A
// no-op when the store was opened without a directory.
func (s *CheckpointStore) Sync() error {
	if s.dir == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := manifest{UpdatedAt: time.Now().UTC(), Namespaces: make(map[Namespace]string)}
	for ns, entries := range s.data {
		fileName := string(ns) + ".gob"
		if err := s.writeNamespaceFile(fileName, entries); err != nil {
			return fmt.Errorf("kv: checkpoint %s: %w", ns, err)
		}
		m.Namespaces[ns] = fileName
	}
	if err := s.writeManifest(m); err != nil {
		return err
	}
	s.syncCount.Add(1)
	return nil
}

func (s *CheckpointStore) Close() error {
	return s.Sync()
}

// Stats reports lightweight counters, surfaced by the housekeeping job.
type Stats struct {
	SyncCount int64
	LoadCount int64
}

func (s *CheckpointStore) StatsSnapshot() Stats {
	return Stats{SyncCount: s.syncCount.Load(), LoadCount: s.loadCount.Load()}
}

func (s *CheckpointStore) writeNamespaceFile(name string, entries map[string][]byte) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	enc := gob.NewEncoder(bw)
	encErr := enc.Encode(checkpointFile{Entries: entries})
	if flushErr := bw.Flush(); encErr == nil {
		encErr = flushErr
	}
	if closeErr := f.Close(); encErr == nil {
		encErr = closeErr
	}
	if encErr != nil {
		_ = os.Remove(tmp)
		return encErr
	}
	return os.Rename(tmp, path)
}

func (s *CheckpointStore) readNamespaceFile(name string) (map[string][]byte, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cf checkpointFile
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&cf); err != nil {
		return nil, err
	}
	return cf.Entries, nil
}

func (s *CheckpointStore) manifestPath() string {
	return filepath.Join(s.dir, "manifest.json")
}

func (s *CheckpointStore) writeManifest(m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.manifestPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.manifestPath())
}

func (s *CheckpointStore) loadManifest() error {
	data, err := os.ReadFile(s.manifestPath())
	if err != nil {
		return err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("kv: parse manifest: %w", err)
	}
	for ns, fileName := range m.Namespaces {
		entries, err := s.readNamespaceFile(fileName)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("kv: load %s: %w", ns, err)
		}
		s.data[ns] = entries
		s.loadCount.Add(1)
	}
	return nil
}
