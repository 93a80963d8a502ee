package sqlitestore_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/txidx/txidx/kvq"
	"github.com/txidx/txidx/kvq/sqlitestore"
)

func open(t *testing.T) *sqlitestore.Store {
	t.Helper()

	s, err := sqlitestore.Open(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, s.Close()) })

	return s
}

func TestGetExact_MissReturnsNotFound(t *testing.T) {
	t.Parallel()

	s := open(t)

	_, err := s.GetExact([]byte("k"))
	require.Error(t, err)
	require.True(t, errors.Is(err, kvq.ErrNotFound))
}

func TestSetThenGetExact(t *testing.T) {
	t.Parallel()

	s := open(t)
	require.NoError(t, s.Set([]byte("k"), []byte("v1")))

	v, err := s.GetExact([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Set([]byte("k"), []byte("v2")))

	v, err = s.GetExact([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), v)
}

func TestDelete_ReportsPriorExistence(t *testing.T) {
	t.Parallel()

	s := open(t)

	existed, err := s.Delete([]byte("missing"))
	require.NoError(t, err)
	require.False(t, existed)

	require.NoError(t, s.Set([]byte("k"), []byte("v")))

	existed, err = s.Delete([]byte("k"))
	require.NoError(t, err)
	require.True(t, existed)
}

func TestPrefixIterator_OrderedAndBounded(t *testing.T) {
	t.Parallel()

	s := open(t)

	require.NoError(t, s.SetMany([]kvq.Pair{
		{Key: []byte("a/1"), Value: []byte("1")},
		{Key: []byte("a/2"), Value: []byte("2")},
		{Key: []byte("b/1"), Value: []byte("3")},
	}))

	it, err := s.PrefixIterator([]byte("a/"))
	require.NoError(t, err)

	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}

	require.NoError(t, it.Err())
	require.Equal(t, []string{"a/1", "a/2"}, got)
}

func TestFuzzyPredecessor_Scenario1(t *testing.T) {
	t.Parallel()

	s := open(t)
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

	_, ok, err = kvq.GetLeq(s, key(5), 8)
	require.NoError(t, err)
	require.False(t, ok)
}
