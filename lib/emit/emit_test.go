package emit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spl/spl"
)

func TestSelectorRegistry(t *testing.T) {
	calls := 0
	RegisterEmitNextGeneratorFunc("test", func() spl.EmitNextGenerator {
		calls++
		return func(spl.Context, map[spl.Context]spl.EmitGenerator, map[spl.Context][]spl.Context) spl.EmitNext {
			return nil
		}
	})

	generator, err := NewEmitNextGenerator("test")
	require.NoError(t, err)
	assert.NotNil(t, generator)
	assert.Equal(t, 1, calls)

	_, err = NewEmitNextGenerator("round-robin")
	assert.True(t, errors.Is(err, ErrUnknownSelector))
	assert.Panics(t, func() {
		RegisterEmitNextGeneratorFunc("test", nil)
	})
}
