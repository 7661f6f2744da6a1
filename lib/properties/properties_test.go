package properties

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spl/spl"
)

var (
	sizeProperty     = NewProperty("size", "window size", 10)
	periodProperty   = NewProperty("period", "trigger period", time.Second)
	requiredProperty = NewRequiredProperty[string]("source", "source name")
)

func TestInitAndRender_Defaults(t *testing.T) {
	p := FromMap(map[string]any{
		"operator": map[string]any{"size": 3, "source": "mock"},
	}).Sub("operator")
	require.NotNil(t, p)

	table, err := InitAndRender(p, spl.PropertiesDef{sizeProperty, periodProperty, requiredProperty})
	require.NoError(t, err)
	assert.Contains(t, table, "period")
	assert.Equal(t, 3, p.GetInt(sizeProperty))
	assert.Equal(t, time.Second, p.GetDuration(periodProperty))
	assert.Equal(t, "mock", p.GetString(requiredProperty))
}

func TestInitAndRender_Required(t *testing.T) {
	p := FromMap(map[string]any{"operator": map[string]any{"size": 3}}).Sub("operator")
	_, err := InitAndRender(p, spl.PropertiesDef{requiredProperty})
	assert.True(t, errors.Is(err, ErrPropertyNoSet))
}

func TestGlobal(t *testing.T) {
	p := FromMap(map[string]any{
		"global":   map[string]any{"name": "job"},
		"operator": map[string]any{"size": 3},
	})
	assert.Equal(t, "job", p.Sub("operator").Global().GetString(NewProperty("name", "", "")))
	assert.Nil(t, p.Sub("missing"))

	empty := FromMap(map[string]any{})
	assert.Equal(t, "", empty.Global().GetString(NewProperty("name", "", "")))
}

func TestRenderDef(t *testing.T) {
	table := RenderDef(spl.PropertiesDef{sizeProperty, requiredProperty})
	assert.Contains(t, table, "window size")
	assert.Contains(t, table, "true")
}
