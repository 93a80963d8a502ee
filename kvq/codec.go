package kvq

import (
	"encoding/binary"
	"strconv"
)

// Serialization Layer (SL): order-preserving, fixed-width big-endian
// codecs for the unsigned integer key types table physical keys use.
// Structured records (journal entries, etc.) are encoded elsewhere.

// EncodeUint8 returns the 1-byte encoding of v.
func EncodeUint8(v uint8) []byte { return []byte{v} }

// DecodeUint8 decodes a 1-byte big-endian uint8.
func DecodeUint8(b []byte) (uint8, error) {
	if len(b) != 1 {
		return 0, CodecErr(errShortBuffer(1, len(b)))
	}

	return b[0], nil
}

// EncodeUint16 returns the 2-byte big-endian encoding of v.
func EncodeUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)

	return b
}

// DecodeUint16 decodes a 2-byte big-endian uint16.
func DecodeUint16(b []byte) (uint16, error) {
	if len(b) != 2 {
		return 0, CodecErr(errShortBuffer(2, len(b)))
	}

	return binary.BigEndian.Uint16(b), nil
}

// EncodeUint32 returns the 4-byte big-endian encoding of v.
func EncodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)

	return b
}

// DecodeUint32 decodes a 4-byte big-endian uint32.
func DecodeUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, CodecErr(errShortBuffer(4, len(b)))
	}

	return binary.BigEndian.Uint32(b), nil
}

// EncodeUint64 returns the 8-byte big-endian encoding of v. Because
// big-endian preserves unsigned order, this is used for both plain u64
// values and the height suffix in FUZZY table physical keys.
func EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)

	return b
}

// DecodeUint64 decodes an 8-byte big-endian uint64.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, CodecErr(errShortBuffer(8, len(b)))
	}

	return binary.BigEndian.Uint64(b), nil
}

// EncodeUint128 encodes a 128-bit unsigned integer given as (hi, lo) in
// 16 big-endian bytes.
func EncodeUint128(hi, lo uint64) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], hi)
	binary.BigEndian.PutUint64(b[8:16], lo)

	return b
}

// DecodeUint128 decodes 16 big-endian bytes into (hi, lo).
func DecodeUint128(b []byte) (hi, lo uint64, err error) {
	if len(b) != 16 {
		return 0, 0, CodecErr(errShortBuffer(16, len(b)))
	}

	return binary.BigEndian.Uint64(b[0:8]), binary.BigEndian.Uint64(b[8:16]), nil
}

// EncodeBytes is the identity encoding for raw byte sequences.
func EncodeBytes(v []byte) []byte { return v }

// DecodeBytes is the identity decoding for raw byte sequences.
func DecodeBytes(b []byte) ([]byte, error) { return b, nil }

// DBRow is the wire shape u32_be(key_len) ‖ key ‖ value, used when a raw
// key/value pair needs to travel as a single opaque byte string (e.g.
// inside a journal action's action_data).
type DBRow struct {
	Key   []byte
	Value []byte
}

// ToBytes encodes r as u32 big-endian key length, then key, then value.
func (r DBRow) ToBytes() []byte {
	out := make([]byte, 0, 4+len(r.Key)+len(r.Value))
	out = append(out, EncodeUint32(uint32(len(r.Key)))...)
	out = append(out, r.Key...)
	out = append(out, r.Value...)

	return out
}

// DBRowFromBytes decodes the wire shape produced by [DBRow.ToBytes].
func DBRowFromBytes(b []byte) (DBRow, error) {
	if len(b) < 4 {
		return DBRow{}, CodecErr(errShortBuffer(4, len(b)))
	}

	keyLen, _ := DecodeUint32(b[:4])
	if int(keyLen) > len(b)-4 {
		return DBRow{}, CodecErr(errShortBuffer(int(keyLen), len(b)-4))
	}

	key := b[4 : 4+keyLen]
	value := b[4+keyLen:]

	return DBRow{
		Key:   append([]byte(nil), key...),
		Value: append([]byte(nil), value...),
	}, nil
}

type shortBufferErr struct {
	want, got int
}

func (e shortBufferErr) Error() string {
	return "short buffer: want " + strconv.Itoa(e.want) + " got " + strconv.Itoa(e.got)
}

func errShortBuffer(want, got int) error {
	return shortBufferErr{want: want, got: got}
}
