package context

import (
	_c "context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spl/lib/properties"
)

func TestNamed(t *testing.T) {
	root := New(_c.Background(), properties.FromMap(map[string]any{
		"operator": map[string]any{"window": map[string]any{"type": "window"}},
	}))
	window := root.Named("operator").Named("window")
	assert.Equal(t, "operator.window", window.Name())
	require.NotNil(t, window.Properties())
	assert.Nil(t, root.Named("sink").Properties())
	assert.Nil(t, New(_c.Background(), nil).Named("source").Properties())

	assert.NoError(t, window.Err())
	root.Cancel()
	<-window.Done()
	assert.ErrorIs(t, window.Err(), _c.Canceled)
}
