package kv

import "fmt"

// Key formats for the versions namespace. Versions are zero-padded to a
// fixed width so that a lexicographic prefix scan yields them in numeric
// version order without a separate in-memory sort.
const versionWidth = 20 // enough digits for any uint64

// ConceptVersionKey builds the "cv:<uuid>:<version>" key for a concept
// version record.
func ConceptVersionKey(conceptID fmt.Stringer, version uint64) string {
	return fmt.Sprintf("cv:%s:%0*d", conceptID, versionWidth, version)
}

// ConceptVersionPrefix builds the prefix that scans every version of one
// concept, oldest first.
func ConceptVersionPrefix(conceptID fmt.Stringer) string {
	return fmt.Sprintf("cv:%s:", conceptID)
}

// RelationshipVersionKey builds the "rv:<uuid>:<version>" key for a
// relationship version record.
func RelationshipVersionKey(relID fmt.Stringer, version uint64) string {
	return fmt.Sprintf("rv:%s:%0*d", relID, versionWidth, version)
}

// RelationshipVersionPrefix builds the prefix that scans every version of
// one relationship, oldest first.
func RelationshipVersionPrefix(relID fmt.Stringer) string {
	return fmt.Sprintf("rv:%s:", relID)
}

// ConceptEntityKey builds the entity-level "concept:<uuid>" key.
func ConceptEntityKey(conceptID fmt.Stringer) string {
	return fmt.Sprintf("concept:%s", conceptID)
}

// RelationshipEntityKey builds the entity-level "rel:<uuid>" key.
func RelationshipEntityKey(relID fmt.Stringer) string {
	return fmt.Sprintf("rel:%s", relID)
}

// SourceIndexKey builds the "idx_src:<source_uuid>:<rel_uuid>" secondary
// index key.
func SourceIndexKey(sourceID, relID fmt.Stringer) string {
	return fmt.Sprintf("idx_src:%s:%s", sourceID, relID)
}

// TargetIndexKey builds the "idx_tgt:<target_uuid>:<rel_uuid>" secondary
// index key.
func TargetIndexKey(targetID, relID fmt.Stringer) string {
	return fmt.Sprintf("idx_tgt:%s:%s", targetID, relID)
}
