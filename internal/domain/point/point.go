// Package point holds the stored-point data model shared by the search
// pipeline and the offline indexers.
package point

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

type idKind int

const (
	idNum idKind = iota
	idUUID
)

// ID identifies a stored point. Points are keyed either by an unsigned
// integer or by a UUID; the two spaces never collide in canonical form
// (a decimal number is never a valid UUID).
type ID struct {
	kind idKind
	num  uint64
	uid  uuid.UUID
}

// NumID creates a numeric point ID.
func NumID(n uint64) ID {
	return ID{kind: idNum, num: n}
}

// UUIDID creates a UUID point ID.
func UUIDID(u uuid.UUID) ID {
	return ID{kind: idUUID, uid: u}
}

// ParseID parses a stored id string: all-digit strings become numeric
// ids, RFC 4122 strings become UUID ids.
func ParseID(s string) (ID, error) {
	if s == "" {
		return ID{}, fmt.Errorf("empty point id")
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return NumID(n), nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("point id %q is neither numeric nor UUID", s)
	}
	return UUIDID(u), nil
}

// IsNum reports whether the id is numeric.
func (id ID) IsNum() bool { return id.kind == idNum }

// Num returns the numeric id value.
func (id ID) Num() uint64 { return id.num }

// String returns the canonical form used for dedup comparison: decimal
// for numeric ids, lowercase RFC 4122 for UUID ids.
func (id ID) String() string {
	if id.kind == idNum {
		return strconv.FormatUint(id.num, 10)
	}
	return id.uid.String()
}

// PrefixID derives the anchor id for a query prefix: the first 8 bytes
// of the text, zero-padded when shorter, reinterpreted as a little-endian
// uint64. Lossy for prefixes longer than 8 bytes or containing multi-byte
// runes; kept bit-exact for compatibility with ids already stored by the
// prefix indexer.
func PrefixID(prefix string) ID {
	var buf [8]byte
	copy(buf[:], prefix)
	return NumID(binary.LittleEndian.Uint64(buf[:]))
}

// ScoredPoint is a single similarity hit returned by the vector store.
type ScoredPoint struct {
	ID      ID
	Score   float64
	Payload Payload
}
