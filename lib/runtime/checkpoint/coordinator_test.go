package checkpoint

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"spl/lib/checkpoint"
	"spl/lib/log"
	"spl/spl"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type counter struct {
	value      string
	failOn     string
	resets     int
	snapshotFn func() ([]byte, error)
}

func (c *counter) Open(spl.Context) error           { return nil }
func (c *counter) Close() error                     { return nil }
func (c *counter) PropertiesDef() spl.PropertiesDef { return nil }

func (c *counter) Snapshot() ([]byte, error) {
	if c.snapshotFn != nil {
		return c.snapshotFn()
	}
	return []byte(c.value), nil
}

func (c *counter) Restore(snapshot []byte) error {
	if string(snapshot) == c.failOn {
		return errors.New("corrupted state")
	}
	c.value = string(snapshot)
	return nil
}

func (c *counter) ResetToInitialState() error {
	c.resets++
	c.value = ""
	return nil
}

type stateless struct{}

func (s *stateless) Open(spl.Context) error           { return nil }
func (s *stateless) Close() error                     { return nil }
func (s *stateless) PropertiesDef() spl.PropertiesDef { return nil }

func newCoordinator(t *testing.T) (*Coordinator, checkpoint.Store) {
	store, err := checkpoint.NewFileStore(t.TempDir())
	require.NoError(t, err)
	c, err := New(log.Named("checkpoint"), store, "")
	require.NoError(t, err)
	return c, store
}

func TestCoordinator_SnapshotAndRestore(t *testing.T) {
	c, store := newCoordinator(t)
	first := &counter{}
	require.NoError(t, c.Restore("operator.window", first))
	assert.Equal(t, "", first.value)

	first.value = "42"
	require.NoError(t, c.SnapshotAll())
	data, err := store.Load("operator.window")
	require.NoError(t, err)
	assert.Equal(t, []byte("42"), data)

	first.value = "43"
	require.NoError(t, c.Unregister("operator.window"))
	assert.NoError(t, c.Snapshot("operator.window"))

	second := &counter{}
	require.NoError(t, c.Restore("operator.window", second))
	assert.Equal(t, "43", second.value)
	assert.Equal(t, 0, second.resets)
}

func TestCoordinator_FailedRestoreResets(t *testing.T) {
	c, store := newCoordinator(t)
	require.NoError(t, store.Save("operator.window", []byte("bad")))

	component := &counter{value: "live", failOn: "bad"}
	require.NoError(t, c.Restore("operator.window", component))
	assert.Equal(t, 1, component.resets)
	assert.Equal(t, "", component.value)
}

func TestCoordinator_SkipsEmptyAndStateless(t *testing.T) {
	c, store := newCoordinator(t)
	require.NoError(t, c.Restore("sink.echo", &stateless{}))
	empty := &counter{snapshotFn: func() ([]byte, error) { return nil, nil }}
	require.NoError(t, c.Restore("operator.interval", empty))

	require.NoError(t, c.SnapshotAll())
	_, err := store.Load("operator.interval")
	assert.True(t, errors.Is(err, checkpoint.ErrNotFound))
	_, err = store.Load("sink.echo")
	assert.True(t, errors.Is(err, checkpoint.ErrNotFound))
}

func TestCoordinator_CollectsSnapshotErrors(t *testing.T) {
	c, _ := newCoordinator(t)
	failing := &counter{snapshotFn: func() ([]byte, error) { return nil, errors.New("busy") }}
	require.NoError(t, c.Restore("a", failing))
	require.NoError(t, c.Restore("b", &counter{value: "1"}))
	err := c.SnapshotAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busy")
}

func TestCoordinator_Schedule(t *testing.T) {
	store, err := checkpoint.NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, err = New(log.Named("checkpoint"), store, "not a schedule")
	assert.Error(t, err)

	c, err := New(log.Named("checkpoint"), store, "@every 1h")
	require.NoError(t, err)
	c.Start()
	c.Stop()
}
