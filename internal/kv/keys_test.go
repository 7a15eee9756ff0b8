package kv

import (
	"sort"
	"testing"

	"github.com/google/uuid"
)

func TestVersionKeysSortInNumericOrder(t *testing.T) {
	id := uuid.New()
	keys := []string{
		ConceptVersionKey(id, 10),
		ConceptVersionKey(id, 2),
		ConceptVersionKey(id, 1),
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	want := []string{
		ConceptVersionKey(id, 1),
		ConceptVersionKey(id, 2),
		ConceptVersionKey(id, 10),
	}
	for i := range want {
		if sorted[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, sorted[i], want[i])
		}
	}
}

func TestRelationshipVersionKeyArgumentOrder(t *testing.T) {
	id := uuid.New()
	key := RelationshipVersionKey(id, 1)
	want := "rv:" + id.String() + ":00000000000000000001"
	if key != want {
		t.Errorf("RelationshipVersionKey(%s, 1) = %q, want %q", id, key, want)
	}
}

func TestPrefixMatchesItsOwnKeys(t *testing.T) {
	id := uuid.New()
	key := ConceptVersionKey(id, 5)
	prefix := ConceptVersionPrefix(id)
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		t.Errorf("key %q does not start with its own prefix %q", key, prefix)
	}
}
