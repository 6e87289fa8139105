package frecency

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
)

// Item is the capability set the database needs from a payload.
type Item interface {
	// SortString is the text matched against the search input.
	SortString() string
	// IdentityFields are the fields that make two items the same logical
	// item. Transient state must not appear here.
	IdentityFields() []string
}

// ID identifies a record. It is derived from the item's identity fields, so
// the same logical item resolves to the same ID on every scan.
type ID uint64

// identityDomain is versioned so the derivation can change without
// colliding with ids minted by an older release.
const identityDomain = "poki/item/v1"

// Identify returns the ID for item: the first 8 bytes of
// SHA256(domain || 0x00 || uvarint(len(f)) || f ...).
func Identify(item Item) ID {
	h := sha256.New()
	h.Write([]byte(identityDomain))
	h.Write([]byte{0x00})

	var lenBuf [binary.MaxVarintLen64]byte
	for _, field := range item.IdentityFields() {
		n := binary.PutUvarint(lenBuf[:], uint64(len(field)))
		h.Write(lenBuf[:n])
		h.Write([]byte(field))
	}

	sum := h.Sum(nil)
	return ID(binary.BigEndian.Uint64(sum[:8]))
}

func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses the 16 hex digit form produced by ID.String.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID(v), nil
}

// Record is a stored item with its identity and raw score. The raw score is
// only valid as of the database reference time.
type Record[T Item] struct {
	ID    ID
	Item  T
	Score float64
}

// Container is a ranked result.
type Container[T Item] struct {
	ID   ID
	Item T
}
