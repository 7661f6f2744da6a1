package checkpoint

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string
	Count uint64
	At    time.Time
}

func TestCheckpoint_Sequence(t *testing.T) {
	buffer := &bytes.Buffer{}
	w := NewWriter(buffer, 7)
	assert.Equal(t, int64(7), w.ID())
	at := time.Unix(100, 5).UTC()
	require.NoError(t, w.PutMarker("section"))
	require.NoError(t, w.Put(item{Name: "a", Count: 3, At: at}))
	require.NoError(t, w.Put([]int{1, 2}))
	assert.Error(t, w.Get(&item{}))

	r := NewReader(bytes.NewReader(buffer.Bytes()), 7)
	require.NoError(t, r.ExpectMarker("section"))
	var got item
	require.NoError(t, r.Get(&got))
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, uint64(3), got.Count)
	assert.True(t, at.Equal(got.At))
	var ints []int
	require.NoError(t, r.Get(&ints))
	assert.Equal(t, []int{1, 2}, ints)
	assert.Error(t, r.Get(&ints))
	assert.Error(t, r.Put(1))
}

func TestCheckpoint_MarkerMismatch(t *testing.T) {
	buffer := &bytes.Buffer{}
	require.NoError(t, NewWriter(buffer, 1).PutMarker("one"))
	err := NewReader(buffer, 1).ExpectMarker("two")
	assert.True(t, errors.Is(err, ErrMarker))
}

func TestMarshal_DefaultMapType(t *testing.T) {
	data, err := Marshal(map[string]any{"key": "value", "n": 1.5})
	require.NoError(t, err)
	var got any
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, map[string]any{"key": "value", "n": 1.5}, got)
}

func TestMarshal_ScalarsInsideAny(t *testing.T) {
	at := time.Unix(100, 5).UTC()
	data, err := Marshal(map[string]any{"seq": 1, "delta": -2, "at": at})
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, int64(1), got["seq"])
	assert.Equal(t, int64(-2), got["delta"])
	require.IsType(t, time.Time{}, got["at"])
	assert.True(t, at.Equal(got["at"].(time.Time)))
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("operator.window")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, store.Save("operator.window", []byte("first")))
	require.NoError(t, store.Save("operator.window", []byte("second")))
	data, err := store.Load("operator.window")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}
