package memstore_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/txidx/txidx/kvq"
	"github.com/txidx/txidx/kvq/memstore"
)

func TestGetExact_MissReturnsNotFound(t *testing.T) {
	t.Parallel()

	s := memstore.New()

	_, err := s.GetExact([]byte("k"))
	require.Error(t, err)
	require.True(t, errors.Is(err, kvq.ErrNotFound))
}

func TestSetThenGetExact(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	require.NoError(t, s.Set([]byte("k"), []byte("v1")))

	v, err := s.GetExact([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	// last write wins
	require.NoError(t, s.Set([]byte("k"), []byte("v2")))

	v, err = s.GetExact([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), v)
}

func TestDelete_ReportsPriorExistence(t *testing.T) {
	t.Parallel()

	s := memstore.New()

	existed, err := s.Delete([]byte("missing"))
	require.NoError(t, err)
	require.False(t, existed)

	require.NoError(t, s.Set([]byte("k"), []byte("v")))

	existed, err = s.Delete([]byte("k"))
	require.NoError(t, err)
	require.True(t, existed)

	_, found, err := s.GetExactIfExists([]byte("k"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestFuzzyPredecessor_Scenario1(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	key := func(h uint64) []byte {
		k := make([]byte, 32+8)
		copy(k[32:], kvq.EncodeUint64(h))

		return k
	}

	require.NoError(t, s.Set(key(10), []byte("v10")))
	require.NoError(t, s.Set(key(20), []byte("v20")))
	require.NoError(t, s.Set(key(30), []byte("v30")))

	v, ok, err := kvq.GetLeq(s, key(25), 8)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v20"), v)

	v, ok, err = kvq.GetLeq(s, key(30), 8)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v30"), v)

	_, ok, err = kvq.GetLeq(s, key(5), 8)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFuzzyRangeUnion_Scenario6(t *testing.T) {
	t.Parallel()

	s := memstore.New()

	k := func(n byte) []byte { return []byte{0, 0, n} }

	require.NoError(t, s.Set(k(1), []byte("a")))
	require.NoError(t, s.Set(k(2), []byte("b")))

	pairs, err := kvq.GetFuzzyRangeLeqKV(s, k(4), 1)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	require.Equal(t, k(1), pairs[0].Key)
	require.Equal(t, k(2), pairs[1].Key)
}
