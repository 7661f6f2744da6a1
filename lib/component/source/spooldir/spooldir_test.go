package spooldir

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	splcontext "spl/lib/context"
	"spl/lib/properties"
	"spl/spl"
)

func TestOffsets_SnapshotRestore(t *testing.T) {
	o := newOffsets()
	first, second := Identify{Device: 1, Inode: 20}, Identify{Device: 1, Inode: 10}
	o.store(first, 0)
	o.store(second, 5)
	o.advance(first, 12)
	o.advance(second, 3)
	o.advance(Identify{Device: 9, Inode: 9}, 100)

	data, err := o.marshal()
	require.NoError(t, err)

	restored := newOffsets()
	require.NoError(t, restored.unmarshal(data))
	assert.Equal(t, []fileOffset{
		{Identify: second, Offset: 5},
		{Identify: first, Offset: 12},
	}, restored.list())

	restored.remove(first)
	_, ok := restored.load(first)
	assert.False(t, ok)
	restored.reset()
	assert.Empty(t, restored.list())
}

func TestConvertPathToIdentify(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.log")
	require.NoError(t, os.WriteFile(filePath, []byte("x\n"), 0644))
	id, err := convertPathToIdentify(filePath)
	require.NoError(t, err)

	moved := filepath.Join(dir, "b.log")
	require.NoError(t, os.Rename(filePath, moved))
	again, err := convertPathToIdentify(moved)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = convertPathToIdentify(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestSource_CombinesExistingFiles(t *testing.T) {
	scan, backup := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scan, "access.log"), []byte("first\nsecond\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(scan, "skip.tmp"), []byte("ignored\n"), 0644))

	root := splcontext.New(context.Background(), properties.FromMap(map[string]any{
		"spooldir": map[string]any{"scan": scan, "backup": backup, "pattern": `\.log$`},
	}))
	ctx := root.Named("spooldir")
	s := New()
	_, err := properties.InitAndRender(ctx.Properties(), s.PropertiesDef())
	require.NoError(t, err)
	require.NoError(t, s.Open(ctx))

	var (
		mutex  sync.Mutex
		events []*spl.Event
	)
	done := make(chan error, 1)
	go func() {
		done <- s.Collect(func(event *spl.Event, handler spl.ACKHandler) {
			mutex.Lock()
			events = append(events, event)
			mutex.Unlock()
			if handler != nil {
				handler()
			}
		})
	}()

	assert.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return len(events) == 3
	}, 5*time.Second, 10*time.Millisecond)

	root.Cancel()
	require.NoError(t, <-done)
	require.NoError(t, s.Close())

	mutex.Lock()
	defer mutex.Unlock()
	assert.Equal(t, "first", events[0].Message)
	assert.Equal(t, int64(0), events[0].Meta["offset"])
	assert.Equal(t, "second", events[1].Message)
	assert.Equal(t, int64(6), events[1].Meta["offset"])
	assert.Equal(t, spl.WatermarkMarker, events[2].Punct)

	backups, err := os.ReadDir(backup)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
	_, err = os.Stat(filepath.Join(scan, "skip.tmp"))
	assert.NoError(t, err)

	data, err := s.(spl.Stateful).Snapshot()
	require.NoError(t, err)
	restored := newOffsets()
	require.NoError(t, restored.unmarshal(data))
	assert.Empty(t, restored.list())
}
