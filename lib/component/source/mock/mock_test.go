package mock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	splcontext "spl/lib/context"
	"spl/lib/properties"
	"spl/spl"
)

func TestSource_GeneratesRecordsAndWatermarks(t *testing.T) {
	root := splcontext.New(context.Background(), properties.FromMap(map[string]any{
		"mock": map[string]any{"count": 3, "partitions": 2, "watermark-every": 2},
	}))
	ctx := root.Named("mock")
	mock := clock.NewMock()
	s := &source{clock: mock}
	_, err := properties.InitAndRender(ctx.Properties(), s.PropertiesDef())
	require.NoError(t, err)
	require.NoError(t, s.Open(ctx))

	var (
		mutex  sync.Mutex
		events []*spl.Event
	)
	done := make(chan error, 1)
	go func() {
		done <- s.Collect(func(event *spl.Event, _ spl.ACKHandler) {
			mutex.Lock()
			defer mutex.Unlock()
			events = append(events, event)
		})
	}()

	assert.Eventually(t, func() bool {
		mock.Add(100 * time.Millisecond)
		mutex.Lock()
		defer mutex.Unlock()
		return len(events) == 5
	}, 5*time.Second, 10*time.Millisecond)
	root.Cancel()
	require.NoError(t, <-done)

	mutex.Lock()
	defer mutex.Unlock()
	assert.Equal(t, "key-0", events[0].Message.(map[string]any)["key"])
	assert.Equal(t, "key-1", events[1].Message.(map[string]any)["key"])
	assert.Equal(t, spl.WatermarkMarker, events[2].Punct)
	assert.True(t, events[2].Time.Equal(events[1].Time))
	assert.Equal(t, 2.0, events[3].Message.(map[string]any)["value"])
	assert.Equal(t, spl.FinalMarker, events[4].Punct)
}
