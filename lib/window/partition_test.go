package window

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partitions[T any, K comparable](w *Sliding[T, K]) (keys []K) {
	w.WithData(func(data Data[T, K]) {
		keys = data.Partitions()
	})
	return keys
}

func TestPartitionCount_EvictsLeastRecentlyTouched(t *testing.T) {
	w, err := New(Config[int, string]{
		Eviction:          Count{Size: 10},
		Trigger:           Count{Size: 10},
		PartitionEviction: PartitionCount{Count: 2},
	})
	require.NoError(t, err)
	r := record(w)

	require.NoError(t, w.Insert(1, "A"))
	require.NoError(t, w.Insert(2, "B"))
	require.NoError(t, w.Insert(3, "C"))

	assert.ElementsMatch(t, []string{"B", "C"}, partitions(w))
	assert.Equal(t, []string{"A"}, r.dropped)

	require.NoError(t, w.Insert(4, "B"))
	require.NoError(t, w.Insert(5, "D"))
	assert.ElementsMatch(t, []string{"B", "D"}, partitions(w))
	assert.Equal(t, []string{"A", "C"}, r.dropped)
}

func TestPartitionCount_BoundHoldsAfterEveryInsert(t *testing.T) {
	w, err := New(Config[int, int]{
		Eviction:          Count{Size: 3},
		Trigger:           Count{Size: 3},
		PartitionEviction: PartitionCount{Count: 4},
	})
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.NoError(t, w.Insert(i, i%7))
		w.WithData(func(data Data[int, int]) {
			assert.LessOrEqual(t, data.Size(), 4)
		})
	}
}

func TestPartitionCount_SelectionHandler(t *testing.T) {
	w, err := New(Config[int, string]{
		Eviction:          Count{Size: 10},
		Trigger:           Count{Size: 10},
		PartitionEviction: PartitionCount{Count: 2},
	})
	require.NoError(t, err)
	var offered [][]Candidate[string]
	w.RegisterPartitionSelectionHandler(func(candidates []Candidate[string]) []string {
		offered = append(offered, candidates)
		return []string{candidates[len(candidates)-1].Partition}
	})

	require.NoError(t, w.Insert(1, "A"))
	require.NoError(t, w.Insert(2, "B"))
	require.NoError(t, w.Insert(3, "A"))
	require.NoError(t, w.Insert(4, "C"))

	assert.ElementsMatch(t, []string{"B", "C"}, partitions(w))
	require.Len(t, offered, 1)
	require.Len(t, offered[0], 2)
	assert.Equal(t, "B", offered[0][0].Partition)
	assert.Equal(t, "A", offered[0][1].Partition)
	assert.Equal(t, 2, offered[0][1].Count)
}

func TestPartitionSelection_NotCalledUnderBound(t *testing.T) {
	for _, policy := range []PartitionPolicy{PartitionCount{Count: 5}, TupleCount{Count: 5}} {
		t.Run(policy.String(), func(t *testing.T) {
			w, err := New(Config[int, string]{
				Eviction:          Count{Size: 10},
				Trigger:           Count{Size: 10},
				PartitionEviction: policy,
			})
			require.NoError(t, err)
			calls := 0
			w.RegisterPartitionSelectionHandler(func(candidates []Candidate[string]) []string {
				calls++
				require.NotEmpty(t, candidates)
				return nil
			})

			require.NoError(t, w.Insert(1, "A"))
			require.NoError(t, w.Insert(2, "B"))
			require.NoError(t, w.Insert(3, "A"))
			assert.Equal(t, 0, calls)
			assert.ElementsMatch(t, []string{"A", "B"}, partitions(w))
		})
	}
}

func TestPartitionAge(t *testing.T) {
	mock := clock.NewMock()
	w, err := New(Config[int, string]{
		Eviction:          Count{Size: 10},
		Trigger:           Count{Size: 10},
		PartitionEviction: PartitionAge{Age: time.Minute},
		Clock:             mock,
	})
	require.NoError(t, err)
	r := record(w)

	require.NoError(t, w.Insert(1, "A"))
	mock.Add(30 * time.Second)
	require.NoError(t, w.Insert(2, "B"))
	mock.Add(45 * time.Second)
	require.NoError(t, w.Insert(3, "C"))

	assert.ElementsMatch(t, []string{"B", "C"}, partitions(w))
	assert.Equal(t, []string{"A"}, r.dropped)
}

func TestTupleCount(t *testing.T) {
	w, err := New(Config[int, string]{
		Eviction:          Count{Size: 10},
		Trigger:           Count{Size: 10},
		PartitionEviction: TupleCount{Count: 3},
	})
	require.NoError(t, err)
	r := record(w)

	require.NoError(t, w.Insert(1, "A"))
	require.NoError(t, w.Insert(2, "A"))
	require.NoError(t, w.Insert(3, "B"))
	assert.Empty(t, r.dropped)
	require.NoError(t, w.Insert(4, "B"))

	assert.Equal(t, []string{"A"}, r.dropped)
	assert.Equal(t, []string{"B"}, partitions(w))
	w.WithData(func(data Data[int, string]) {
		assert.Equal(t, 2, data.Count())
	})
}

func TestStorage_ReusesSlots(t *testing.T) {
	s := newStorage[int, string]()
	now := time.Unix(0, 0)
	a := s.create("a", now)
	s.push(a, entry[int]{tuple: 1})
	s.create("b", now)
	s.remove("a")
	assert.Equal(t, 0, s.Count())
	s.create("c", now)

	assert.Len(t, s.slots, 2)
	assert.ElementsMatch(t, []string{"b", "c"}, s.Partitions())
	assert.Equal(t, []string{"b", "c"}, s.byAge())
	_, ok := s.Partition("a")
	assert.False(t, ok)
}
