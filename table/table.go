// Package table implements the Table Layer (TL): named, typed views over
// a raw [github.com/txidx/txidx/kvq] store, each with a physical key
// layout selected by its [Kind].
//
// A [Descriptor] carries EncodeKey/DecodeKey/EncodeValue/DecodeValue as
// plain function values rather than requiring K and V to implement a
// shared codec interface, since Go generics have no way to bound a type
// parameter to "has a static decode constructor."
package table

import (
	"encoding/binary"
	"strconv"

	"github.com/txidx/txidx/kvq"
)

// Kind selects a table's physical key layout and rewrite semantics.
type Kind uint8

const (
	// FuzzyBlockIndex tables append an 8-byte big-endian block height to
	// the physical key, so the same logical key can hold one row per
	// height and predecessor ("leq") lookups resolve "as of height h".
	FuzzyBlockIndex Kind = 0
	// WriteOnce tables have no height suffix. A key is permanent once
	// written: rewriting with the same value is idempotent, rewriting
	// with a different value fails with [ErrWriteOnceViolation].
	WriteOnce Kind = 1
	// Standard tables have no height suffix and behave like an ordinary
	// overwrite/delete key-value table.
	Standard Kind = 2
)

func (k Kind) String() string {
	switch k {
	case FuzzyBlockIndex:
		return "FUZZY_BLOCK_INDEX"
	case WriteOnce:
		return "WRITE_ONCE"
	case Standard:
		return "STANDARD"
	default:
		return "UNKNOWN"
	}
}

// NoHeight is the block-height placeholder decoded for tables that carry
// no height suffix (WRITE_ONCE, STANDARD), mirroring the reference
// design's MAGIC_IMPOSSIBLE_BLOCK_NUMBER sentinel.
const NoHeight uint64 = 0xFFFFFFFFFFFFFFFF

// Descriptor describes one logical table: its identity, physical key
// kind, and the codecs for its logical key/value types.
type Descriptor[K, V any] struct {
	Name  string
	ID    uint32 // must fit in 28 bits; top 4 bits are reserved for Kind
	Kind  Kind
	Codec Codec[K, V]
}

// Codec bundles the key/value encode/decode functions a [Descriptor]
// needs; callers typically build this once per table type.
type Codec[K, V any] struct {
	EncodeKey   func(K) []byte
	DecodeKey   func([]byte) (K, error)
	EncodeValue func(V) []byte
	DecodeValue func([]byte) (V, error)
}

// header packs (kind, id) into the 4-byte big-endian physical-key prefix:
// top 4 bits are the table kind, bottom 28 bits are the table ID.
func header(id uint32, kind Kind) []byte {
	v := (uint32(kind)&0xF)<<28 | (id & 0x0FFFFFFF)

	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)

	return b
}

func physicalKey(id uint32, kind Kind, encKey []byte, height uint64) []byte {
	out := make([]byte, 0, 4+len(encKey)+8)
	out = append(out, header(id, kind)...)
	out = append(out, encKey...)

	if kind == FuzzyBlockIndex {
		out = append(out, kvq.EncodeUint64(height)...)
	}

	return out
}

// KindOfRawKey reads the table kind from the top nibble of a raw store
// key's first byte; the journal's classification step uses this to tell
// FUZZY/WRITE_ONCE/STANDARD writes apart without consulting a table's
// own Descriptor.
func KindOfRawKey(raw []byte) Kind {
	return Kind(raw[0] >> 4)
}

// IDOfRawKey reads the table ID (bottom 28 bits of the 4-byte header)
// from a raw store key.
func IDOfRawKey(raw []byte) uint32 {
	return binary.BigEndian.Uint32(raw[0:4]) & 0x0FFFFFFF
}

// DecodedKey is a raw physical key split back into its table-kind/ID,
// block height (or [NoHeight]), and encoded logical-key bytes.
type DecodedKey struct {
	TableID uint32
	Kind    Kind
	Height  uint64
	KeyBytes []byte
}

// decodePhysicalKey is the inverse of physicalKey.
func decodePhysicalKey(raw []byte) (DecodedKey, error) {
	if len(raw) < 4 {
		return DecodedKey{}, kvq.CodecErr(errShortKey{len(raw)})
	}

	id := IDOfRawKey(raw)
	kind := KindOfRawKey(raw)

	if kind == FuzzyBlockIndex {
		if len(raw) < 12 {
			return DecodedKey{}, kvq.CodecErr(errShortKey{len(raw)})
		}

		height, _ := kvq.DecodeUint64(raw[len(raw)-8:])

		return DecodedKey{TableID: id, Kind: kind, Height: height, KeyBytes: raw[4 : len(raw)-8]}, nil
	}

	return DecodedKey{TableID: id, Kind: kind, Height: NoHeight, KeyBytes: raw[4:]}, nil
}

type errShortKey struct{ got int }

func (e errShortKey) Error() string {
	return "table: raw key too short to decode (" + strconv.Itoa(e.got) + " bytes)"
}
