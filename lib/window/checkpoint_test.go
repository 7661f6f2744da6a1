package window

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spl/lib/checkpoint"
)

func save[T any, K comparable](t *testing.T, w *Sliding[T, K]) []byte {
	buffer := &bytes.Buffer{}
	require.NoError(t, w.Checkpoint(checkpoint.NewWriter(buffer, 1)))
	return buffer.Bytes()
}

func load(data []byte) *checkpoint.Checkpoint {
	return checkpoint.NewReader(bytes.NewReader(data), 1)
}

func TestCheckpoint_ResetRestoresContents(t *testing.T) {
	w, err := New(Config[string, string]{Eviction: Count{Size: 2}, Trigger: Count{Size: 2}})
	require.NoError(t, err)
	require.NoError(t, w.Insert("x", "P"))
	require.NoError(t, w.Insert("y", "P"))
	data := save(t, w)

	require.NoError(t, w.Insert("z", "P"))
	assert.Equal(t, []string{"y", "z"}, contents(w, "P"))

	require.NoError(t, w.Reset(load(data)))
	assert.Equal(t, []string{"x", "y"}, contents(w, "P"))
}

func TestCheckpoint_RoundTripKeepsBookkeeping(t *testing.T) {
	mock := clock.NewMock()
	mock.Add(time.Hour)
	config := Config[int, string]{
		Eviction: Delta[int]{Bound: 3, Extract: identity},
		Trigger:  Delta[int]{Bound: 1, Extract: identity},
		Clock:    mock,
	}
	w, err := New(config)
	require.NoError(t, err)
	for i, v := range []int{1, 2, 4, 8} {
		mock.Add(time.Second)
		require.NoError(t, w.Insert(v, []string{"a", "b"}[i%2]))
	}
	data := save(t, w)

	restored, err := New(config)
	require.NoError(t, err)
	r := record(restored)
	require.NoError(t, restored.Reset(load(data)))

	for _, partition := range []string{"a", "b"} {
		assert.Equal(t, contents(w, partition), contents(restored, partition))
		want, ok := w.State(partition)
		require.True(t, ok)
		got, ok := restored.State(partition)
		require.True(t, ok)
		assert.True(t, want.Created.Equal(got.Created))
		assert.True(t, want.LastTrigger.Equal(got.LastTrigger))
		assert.Equal(t, want.InitialFull, got.InitialFull)
		assert.Equal(t, want.TriggerReference, got.TriggerReference)
		assert.Equal(t, want.SinceEviction, got.SinceEviction)
		assert.Equal(t, want.SinceTrigger, got.SinceTrigger)
	}

	require.NoError(t, w.Insert(10, "b"))
	require.NoError(t, restored.Insert(10, "b"))
	assert.Equal(t, contents(w, "b"), contents(restored, "b"))
	assert.Len(t, r.triggers, 1)
}

func TestCheckpoint_FailedResetKeepsLiveState(t *testing.T) {
	w, err := New(Config[string, string]{Eviction: Count{Size: 2}, Trigger: Count{Size: 2}})
	require.NoError(t, err)
	require.NoError(t, w.Insert("x", "P"))
	data := save(t, w)

	err = w.Reset(load(data[:len(data)-3]))
	assert.Error(t, err)
	assert.Equal(t, []string{"x"}, contents(w, "P"))

	err = w.Reset(load([]byte{0x63, 'f', 'o', 'o'}))
	assert.True(t, errors.Is(err, ErrCheckpointMarker))
	assert.Equal(t, []string{"x"}, contents(w, "P"))
}

func TestCheckpoint_PolicyMismatch(t *testing.T) {
	count, err := New(Config[int, string]{Eviction: Count{Size: 2}, Trigger: Count{Size: 2}})
	require.NoError(t, err)
	require.NoError(t, count.Insert(1, ""))
	data := save(t, count)

	delta, err := New(Config[int, string]{Eviction: Count{Size: 2}, Trigger: Delta[int]{Bound: 1, Extract: identity}})
	require.NoError(t, err)
	err = delta.Reset(load(data))
	assert.True(t, errors.Is(err, ErrCheckpointMarker))
}

func TestCheckpoint_Handlers(t *testing.T) {
	w, err := New(Config[int, string]{Eviction: Count{Size: 2}, Trigger: Count{Size: 2}})
	require.NoError(t, err)
	w.RegisterCheckpointHandler(func(ckpt *checkpoint.Checkpoint) error {
		return ckpt.Put("operator state")
	})
	var got string
	w.RegisterResetHandler(func(ckpt *checkpoint.Checkpoint) error {
		return ckpt.Get(&got)
	})
	require.NoError(t, w.Insert(1, ""))
	data := save(t, w)

	require.NoError(t, w.Reset(load(data)))
	assert.Equal(t, "operator state", got)
}

func TestResetToInitialState(t *testing.T) {
	base := time.Unix(1000, 0).UTC()
	w, err := New(Config[reading, string]{
		Eviction:  Count{Size: 2},
		Trigger:   EventTime{Duration: time.Second},
		EventTime: readingTime,
	})
	require.NoError(t, err)
	called := false
	w.RegisterResetToInitialStateHandler(func() error {
		called = true
		return nil
	})
	require.NoError(t, w.Insert(reading{At: base}, "a"))
	require.NoError(t, w.Insert(reading{At: base}, "b"))
	w.NotifyWatermark(base.Add(time.Second))

	require.NoError(t, w.ResetToInitialState())
	assert.True(t, called)
	assert.True(t, w.Watermark().IsZero())
	assert.Empty(t, partitions(w))
	_, ok := w.State("a")
	assert.False(t, ok)
}
