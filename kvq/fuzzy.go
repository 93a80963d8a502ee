package kvq

import "bytes"

// FuzzyWindow computes the [base, end] lexicographic window for a target
// key k with the trailing fuzzyBytes masked to zero.
//
// base(k) = k[0:len(k)-f] ‖ 0x00*f
// end(k)  = k
//
// allZeroTail reports whether the last fuzzyBytes of k are already all
// zero (always true when fuzzyBytes == 0): in that case get_leq is
// defined to be equivalent to an exact lookup.
func FuzzyWindow(key []byte, fuzzyBytes int) (base, end []byte, allZeroTail bool, err error) {
	if fuzzyBytes < 0 || fuzzyBytes > len(key) {
		return nil, nil, false, BadArgument(errFuzzyBytesRange)
	}

	end = key

	base = make([]byte, len(key))
	copy(base, key)

	allZeroTail = true

	tailStart := len(key) - fuzzyBytes
	for i := tailStart; i < len(key); i++ {
		if key[i] != 0 {
			allZeroTail = false
		}

		base[i] = 0
	}

	if fuzzyBytes == 0 {
		allZeroTail = true
	}

	return base, end, allZeroTail, nil
}

var errFuzzyBytesRange = errBadFuzzyBytes{}

type errBadFuzzyBytes struct{}

func (errBadFuzzyBytes) Error() string { return "fuzzy_bytes must be <= key length" }

// GetLeq returns the value of the largest key in [base(key), key], or
// (nil, false, nil) if none exists.
func GetLeq(r Reader, key []byte, fuzzyBytes int) ([]byte, bool, error) {
	kv, ok, err := GetLeqKV(r, key, fuzzyBytes)
	if err != nil || !ok {
		return nil, ok, err
	}

	return kv.Value, true, nil
}

// GetLeqKV is GetLeq but also returns the winning key.
func GetLeqKV(r Reader, key []byte, fuzzyBytes int) (Pair, bool, error) {
	base, end, allZeroTail, err := FuzzyWindow(key, fuzzyBytes)
	if err != nil {
		return Pair{}, false, err
	}

	if allZeroTail {
		v, ok, err := r.GetExactIfExists(key)
		if err != nil || !ok {
			return Pair{}, ok, err
		}

		return Pair{Key: key, Value: v}, true, nil
	}

	// Seeking on the unmasked leading bytes starts at or before the
	// window's lower bound. A key that shares those bytes but is shorter
	// than key can still sort below base, so such keys are skipped.
	it, err := r.PrefixIterator(key[:len(key)-fuzzyBytes])
	if err != nil {
		return Pair{}, false, Backend(err)
	}
	defer it.Close()

	var best Pair

	found := false

	for it.Next() {
		k := it.Key()
		if bytes.Compare(k, end) > 0 {
			break
		}

		if bytes.Compare(k, base) < 0 {
			continue
		}

		found = true

		best = Pair{Key: append([]byte(nil), k...), Value: append([]byte(nil), it.Value()...)}
	}

	if err := it.Err(); err != nil {
		return Pair{}, false, Backend(err)
	}

	return best, found, nil
}

// GetFuzzyRangeLeqKV returns every entry in [base(key), key] in ascending
// key order.
func GetFuzzyRangeLeqKV(r Reader, key []byte, fuzzyBytes int) ([]Pair, error) {
	base, end, _, err := FuzzyWindow(key, fuzzyBytes)
	if err != nil {
		return nil, err
	}

	it, err := r.PrefixIterator(key[:len(key)-fuzzyBytes])
	if err != nil {
		return nil, Backend(err)
	}
	defer it.Close()

	var out []Pair

	for it.Next() {
		k := it.Key()
		if bytes.Compare(k, end) > 0 {
			break
		}

		if bytes.Compare(k, base) < 0 {
			continue
		}

		out = append(out, Pair{Key: append([]byte(nil), k...), Value: append([]byte(nil), it.Value()...)})
	}

	if err := it.Err(); err != nil {
		return nil, Backend(err)
	}

	return out, nil
}
