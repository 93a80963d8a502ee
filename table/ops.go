package table

import (
	"bytes"
	"errors"

	"github.com/txidx/txidx/kvq"
)

// ErrWriteOnceViolation is returned by [SetAtBlock] when a WRITE_ONCE
// table's key already holds a different value.
var ErrWriteOnceViolation = errors.New("table: write-once key already has a different value")

// KeyWithHeight pairs a decoded logical key with the block height its row
// was written at (or [NoHeight] for non-FUZZY tables).
type KeyWithHeight[K any] struct {
	Key    K
	Height uint64
}

func resolveFuzzyBytes[K, V any](d Descriptor[K, V], fuzzyBytes int) int {
	if d.Kind == FuzzyBlockIndex {
		return fuzzyBytes + 8
	}

	return fuzzyBytes
}

func realKey[K, V any](d Descriptor[K, V], key K, height uint64) []byte {
	return physicalKey(d.ID, d.Kind, d.Codec.EncodeKey(key), height)
}

// GetExactIfExistsAtBlock looks up key at exactly height (ignored for
// non-FUZZY tables) and reports whether it was present.
func GetExactIfExistsAtBlock[K, V any](r kvq.Reader, d Descriptor[K, V], height uint64, key K) (V, bool, error) {
	var zero V

	raw, ok, err := r.GetExactIfExists(realKey(d, key, height))
	if err != nil || !ok {
		return zero, false, err
	}

	v, err := d.Codec.DecodeValue(raw)
	if err != nil {
		return zero, false, kvq.CodecErr(err)
	}

	return v, true, nil
}

// GetExactAtBlock is [GetExactIfExistsAtBlock] but returns
// [kvq.ErrNotFound] when the key is absent.
func GetExactAtBlock[K, V any](r kvq.Reader, d Descriptor[K, V], height uint64, key K) (V, error) {
	v, ok, err := GetExactIfExistsAtBlock(r, d, height, key)
	if err != nil {
		return v, err
	}

	if !ok {
		return v, kvq.NotFound(realKey(d, key, height))
	}

	return v, nil
}

// GetLeqKVAtBlock returns the row with the largest key in the fuzzy
// window ending at (key, height), decoded back to its logical key and
// the height it was written at.
func GetLeqKVAtBlock[K, V any](
	r kvq.Reader, d Descriptor[K, V], height uint64, key K, fuzzyBytes int,
) (KeyWithHeight[K], V, bool, error) {
	var (
		zeroK KeyWithHeight[K]
		zeroV V
	)

	pair, ok, err := kvq.GetLeqKV(r, realKey(d, key, height), resolveFuzzyBytes(d, fuzzyBytes))
	if err != nil || !ok {
		return zeroK, zeroV, false, err
	}

	decoded, err := decodePhysicalKey(pair.Key)
	if err != nil {
		return zeroK, zeroV, false, err
	}

	logicalKey, err := d.Codec.DecodeKey(decoded.KeyBytes)
	if err != nil {
		return zeroK, zeroV, false, kvq.CodecErr(err)
	}

	v, err := d.Codec.DecodeValue(pair.Value)
	if err != nil {
		return zeroK, zeroV, false, kvq.CodecErr(err)
	}

	return KeyWithHeight[K]{Key: logicalKey, Height: decoded.Height}, v, true, nil
}

// GetFuzzyRangeLeqKVAtBlock returns every row in the fuzzy window ending
// at (key, height), in ascending physical-key order.
func GetFuzzyRangeLeqKVAtBlock[K, V any](
	r kvq.Reader, d Descriptor[K, V], height uint64, key K, fuzzyBytes int,
) ([]KeyWithHeight[K], []V, error) {
	pairs, err := kvq.GetFuzzyRangeLeqKV(r, realKey(d, key, height), resolveFuzzyBytes(d, fuzzyBytes))
	if err != nil {
		return nil, nil, err
	}

	keys := make([]KeyWithHeight[K], 0, len(pairs))
	values := make([]V, 0, len(pairs))

	for _, p := range pairs {
		decoded, err := decodePhysicalKey(p.Key)
		if err != nil {
			return nil, nil, err
		}

		logicalKey, err := d.Codec.DecodeKey(decoded.KeyBytes)
		if err != nil {
			return nil, nil, kvq.CodecErr(err)
		}

		v, err := d.Codec.DecodeValue(p.Value)
		if err != nil {
			return nil, nil, kvq.CodecErr(err)
		}

		keys = append(keys, KeyWithHeight[K]{Key: logicalKey, Height: decoded.Height})
		values = append(values, v)
	}

	return keys, values, nil
}

// SetAtBlock writes key=value at height. For a WRITE_ONCE table, rw is
// consulted first: a rewrite with an unchanged value is a no-op, and a
// rewrite with a different value fails with [ErrWriteOnceViolation]
// rather than overwriting.
func SetAtBlock[K, V any](rw kvq.Store, d Descriptor[K, V], height uint64, key K, value V) error {
	rk := realKey(d, key, height)
	encValue := d.Codec.EncodeValue(value)

	if d.Kind == WriteOnce {
		existing, ok, err := rw.GetExactIfExists(rk)
		if err != nil {
			return err
		}

		if ok {
			if bytes.Equal(existing, encValue) {
				return nil
			}

			return ErrWriteOnceViolation
		}
	}

	return rw.Set(rk, encValue)
}

// DeleteAtBlock deletes key at height and reports whether it existed.
// Callers are responsible for only issuing deletes against STANDARD
// tables; see the journal package's classification step, which is where
// a delete against a non-STANDARD table is actually rejected.
func DeleteAtBlock[K, V any](rw kvq.Writer, d Descriptor[K, V], height uint64, key K) (bool, error) {
	return rw.Delete(realKey(d, key, height))
}
