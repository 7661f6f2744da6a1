package sample

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	splcontext "spl/lib/context"
	"spl/lib/properties"
	"spl/spl"
)

func TestOperator_ForwardsOneOutOfRate(t *testing.T) {
	root := splcontext.New(context.Background(), properties.FromMap(map[string]any{
		"sample": map[string]any{"rate": 3},
	}))
	defer root.Cancel()
	ctx := root.Named("sample")
	o := New().(*operator)
	_, err := properties.InitAndRender(ctx.Properties(), o.PropertiesDef())
	require.NoError(t, err)
	require.NoError(t, o.Open(ctx))
	defer o.Close()

	var forwarded []any
	o.emitNext = func(event *spl.Event, _ spl.ACKHandler) {
		if event.IsPunct() {
			forwarded = append(forwarded, event.Punct)
			return
		}
		forwarded = append(forwarded, event.Message)
	}
	dropped := 0
	emit := o.GenerateEmit(nil)
	for i := 1; i <= 6; i++ {
		emit(&spl.Event{
			Message: i,
			Private: map[string]any{spl.PrivateACKHandler: spl.ACKHandler(func() { dropped++ })},
		})
	}
	emit(&spl.Event{Punct: spl.FinalMarker})

	assert.Equal(t, []any{3, 6, spl.FinalMarker}, forwarded)
	assert.Equal(t, 4, dropped)
}
