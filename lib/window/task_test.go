package window

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliding_BackgroundTrigger(t *testing.T) {
	w, err := New(Config[int, string]{Eviction: Count{Size: 10}, Trigger: Time{Duration: 20 * time.Millisecond}})
	require.NoError(t, err)
	var fired atomic.Int32
	w.RegisterTriggerHandler(func(event Event[int, string]) {
		fired.Add(1)
	})
	require.NoError(t, w.Insert(1, ""))

	w.Start()
	w.Start()
	assert.Eventually(t, func() bool {
		return fired.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, w.Insert(2, ""))
	assert.NoError(t, w.Err())

	w.Shutdown()
	assert.NoError(t, w.Join())
}

func TestSliding_BackgroundEviction(t *testing.T) {
	w, err := New(Config[int, string]{Eviction: Time{Duration: 30 * time.Millisecond}, Trigger: Count{Size: 100}})
	require.NoError(t, err)
	w.Start()
	defer func() {
		w.Shutdown()
		assert.NoError(t, w.Join())
	}()
	require.NoError(t, w.Insert(1, ""))
	assert.Eventually(t, func() bool {
		return len(contents(w, "")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSliding_BackgroundFault(t *testing.T) {
	w, err := New(Config[int, string]{Eviction: Count{Size: 10}, Trigger: Time{Duration: 10 * time.Millisecond}})
	require.NoError(t, err)
	w.RegisterTriggerHandler(func(event Event[int, string]) {
		panic("handler failed")
	})
	require.NoError(t, w.Insert(1, ""))

	w.Start()
	assert.Eventually(t, func() bool {
		return w.Err() != nil
	}, 2*time.Second, 10*time.Millisecond)
	w.Shutdown()
	err = w.Join()
	assert.True(t, errors.Is(err, ErrBackgroundFault), "got %v", err)
}

func TestSliding_NoBackgroundTask(t *testing.T) {
	w, err := New(Config[int, string]{Eviction: Count{Size: 1}, Trigger: Count{Size: 1}})
	require.NoError(t, err)
	assert.NoError(t, w.Join())
	w.Start()
	w.Shutdown()
	assert.NoError(t, w.Join())
	assert.NoError(t, w.Err())
}
