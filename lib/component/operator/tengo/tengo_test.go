package tengo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	splcontext "spl/lib/context"
	"spl/lib/properties"
	"spl/spl"
)

func reading(value float64) *spl.Event {
	return &spl.Event{
		Meta:    map[string]any{"source": "mock"},
		Message: map[string]any{"key": "a", "value": value},
		Time:    time.Unix(100, 0),
	}
}

func open(t *testing.T, operator spl.Operator, values map[string]any) {
	ctx := splcontext.New(context.Background(), properties.FromMap(map[string]any{"op": values})).Named("op")
	t.Cleanup(ctx.Cancel)
	_, err := properties.InitAndRender(ctx.Properties(), operator.PropertiesDef())
	require.NoError(t, err)
	require.NoError(t, operator.Open(ctx))
	t.Cleanup(func() { _ = operator.Close() })
}

func TestExpression_Eval(t *testing.T) {
	expr, err := CompileExpression(`event.message.value > 2 && event.meta.source == "mock"`)
	require.NoError(t, err)
	assert.Equal(t, `event.message.value > 2 && event.meta.source == "mock"`, expr.String())

	res, err := expr.Eval(context.Background(), reading(3))
	require.NoError(t, err)
	assert.Equal(t, true, res)

	res, err = expr.Eval(context.Background(), reading(1))
	require.NoError(t, err)
	assert.Equal(t, false, res)

	key, err := CompileExpression(`event.message.key`)
	require.NoError(t, err)
	res, err = key.Eval(context.Background(), reading(1))
	require.NoError(t, err)
	assert.Equal(t, "a", res)
}

func TestExpression_CompileError(t *testing.T) {
	_, err := CompileExpression(`event.message.value >`)
	assert.Error(t, err)
}

func TestReducer_Sum(t *testing.T) {
	reducer, err := CompileReducer(`
sum := 0.0
for e in events {
	sum += e.message.value
}
result = {count: len(events), sum: sum}
`)
	require.NoError(t, err)

	res, err := reducer.Reduce(context.Background(), []*spl.Event{reading(1), reading(2), reading(4)})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"count": int64(3), "sum": 7.0}, res)

	res, err = reducer.Reduce(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"count": int64(0), "sum": 0.0}, res)
}

func TestFilter(t *testing.T) {
	f := NewFilter().(*filterOperator)
	open(t, f, map[string]any{"condition": `event.message.value >= 2`})
	var out []*spl.Event
	f.emitNext = func(event *spl.Event, _ spl.ACKHandler) {
		out = append(out, event)
	}
	acked := 0
	dropped := reading(1)
	dropped.Private = map[string]any{spl.PrivateACKHandler: spl.ACKHandler(func() { acked++ })}

	emit := f.GenerateEmit(nil)
	emit(dropped)
	emit(reading(2))
	emit(spl.NewWatermark(time.Unix(200, 0)))

	require.Len(t, out, 2)
	assert.Equal(t, 2.0, out[0].Message.(map[string]any)["value"])
	assert.Equal(t, spl.WatermarkMarker, out[1].Punct)
	assert.Equal(t, 1, acked)
}

func TestScript(t *testing.T) {
	s := NewScript().(*scriptOperator)
	open(t, s, map[string]any{"script": `event.meta.doubled = event.message.value * 2`})
	var out []*spl.Event
	s.emitNext = func(event *spl.Event, _ spl.ACKHandler) {
		out = append(out, event)
	}

	s.GenerateEmit(nil)(reading(3))

	require.Len(t, out, 1)
	assert.Equal(t, 6.0, out[0].Meta["doubled"])
	assert.Equal(t, "mock", out[0].Meta["source"])
	assert.True(t, time.Unix(100, 0).Equal(out[0].Time))
}
