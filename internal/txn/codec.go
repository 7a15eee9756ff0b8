package txn

import (
	"bytes"
	"encoding/gob"

	"github.com/mnemonic-graph/mnemonic/internal/graph"
)

// Version records are persisted as a self-describing GOB encoding, chosen
// once as the canonical round-trip format (the spec permits any canonical
// encoding provided round-tripping is exact). GOB is the teacher's own
// checkpoint format (backend_disk.go), carried through here rather than
// introducing an unrelated serialization dependency for a handful of
// small, fixed-shape structs.
func encodeConceptVersion(v graph.ConceptVersion) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeConceptVersion(data []byte) (graph.ConceptVersion, error) {
	var v graph.ConceptVersion
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return graph.ConceptVersion{}, err
	}
	return v, nil
}

func encodeRelationshipVersion(v graph.RelationshipVersion) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRelationshipVersion(data []byte) (graph.RelationshipVersion, error) {
	var v graph.RelationshipVersion
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return graph.RelationshipVersion{}, err
	}
	return v, nil
}
