package spooldir

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hpcloud/tail"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"spl/lib/component"
	"spl/lib/eventtime"
	"spl/lib/log"
	"spl/lib/properties"
	"spl/spl"
)

var (
	ScanProperty         = properties.NewRequiredProperty[string]("scan", "directory watched for new files")
	BackupProperty       = properties.NewProperty[string]("backup", "directory for combined files, empty removes them", "")
	PatternProperty      = properties.NewProperty[string]("pattern", "regex of the file paths to combine", ".*")
	ConcurrentProperty   = properties.NewProperty[int]("concurrent", "files combined at the same time", 1)
	WatermarkLagProperty = properties.NewProperty[time.Duration]("watermark-lag", "watermark lag behind the newest line, emitted after every combined file, negative disables watermarks", time.Duration(0))
)

type source struct {
	ctx       spl.Context
	logger    spl.Logger
	emitNext  spl.EmitNext
	scanDir   string
	backupDir string
	pattern   *regexp.Regexp
	pool      *ants.PoolWithFunc
	offsets   *offsets
	generator *eventtime.Generator
}

//Snapshot saves the read offset of every unfinished file
func (s *source) Snapshot() ([]byte, error) {
	return s.offsets.marshal()
}

func (s *source) Restore(snapshot []byte) error {
	return s.offsets.unmarshal(snapshot)
}

func (s *source) ResetToInitialState() error {
	s.offsets.reset()
	return nil
}

func (s *source) Open(ctx spl.Context) (err error) {
	s.ctx = ctx
	s.logger = log.Ctx(s.ctx)
	p := ctx.Properties()
	s.scanDir = p.GetString(ScanProperty)
	s.backupDir = p.GetString(BackupProperty)
	s.offsets = newOffsets()
	if lag := p.GetDuration(WatermarkLagProperty); lag >= 0 {
		s.generator = eventtime.NewGenerator(lag)
	}
	if s.pattern, err = regexp.Compile(p.GetString(PatternProperty)); err != nil {
		return errors.WithMessage(err, "invalid file pattern")
	}
	s.pool, err = ants.NewPoolWithFunc(p.GetInt(ConcurrentProperty),
		func(arg interface{}) {
			s.combine(cast.ToString(arg))
		},
		ants.WithLogger(&log.TailLoggerWrapper{Logger: s.logger}),
		ants.WithPanicHandler(func(reason interface{}) {
			s.logger.Errorw("combine panic.", "reason", reason)
		}))
	return err
}

func (s *source) Close() error {
	if s.pool != nil {
		s.pool.Release()
	}
	return nil
}

func (s *source) PropertiesDef() spl.PropertiesDef {
	return spl.PropertiesDef{ScanProperty, BackupProperty, PatternProperty, ConcurrentProperty, WatermarkLagProperty}
}

func (s *source) Collect(emitNext spl.EmitNext) error {
	s.emitNext = emitNext
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()
	if err = watcher.Add(s.scanDir); err != nil {
		return errors.WithMessagef(err, "can't watch %s", s.scanDir)
	}
	if err = s.resume(); err != nil {
		return err
	}
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case e := <-watcher.Events:
			if e.Op&fsnotify.Create == fsnotify.Create && s.pattern.MatchString(e.Name) {
				s.logger.Infof("scan to new file:%s.", e.Name)
				s.submit(e.Name)
			}
		case err = <-watcher.Errors:
			s.logger.Warnw("watch file system failed.", "err", err)
		}
	}
}

func (s *source) submit(filePath string) {
	if err := s.pool.Invoke(filePath); err != nil {
		s.logger.Errorw("submit combine task error, skip file.", "path", filePath, "err", err)
	}
}

//resume combines the files of a restored snapshot and the files already in the scan dir
func (s *source) resume() error {
	paths := map[Identify]string{}
	err := filepath.Walk(s.scanDir, func(filePath string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if stat, ok := info.Sys().(*syscall.Stat_t); ok {
			paths[convertStatToIdentify(stat)] = filePath
		}
		return nil
	})
	if err != nil {
		return errors.WithMessagef(err, "can't walk %s", s.scanDir)
	}
	for _, offset := range s.offsets.list() {
		if _, ok := paths[offset.Identify]; !ok {
			s.logger.Warnw("file of a saved offset is gone.", "identify", offset.Identify)
			s.offsets.remove(offset.Identify)
		}
	}
	for _, filePath := range paths {
		if s.pattern.MatchString(filePath) {
			s.submit(filePath)
		}
	}
	return nil
}

func (s *source) combine(filePath string) {
	fileId, err := convertPathToIdentify(filePath)
	if err != nil {
		s.logger.Errorw("can't convert to identify, skip file.", "path", filePath, "err", err)
		return
	}
	offset, _ := s.offsets.load(fileId)
	s.offsets.store(fileId, offset)
	tailFile, err := tail.TailFile(filePath, tail.Config{
		Location: &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:   &log.TailLoggerWrapper{Logger: s.logger},
	})
	if err != nil {
		s.logger.Errorw("tail error, skip this file.", "path", filePath, "err", err)
		return
	}
	for {
		select {
		case line, ok := <-tailFile.Lines:
			if !ok {
				s.logger.Debugf("combine %s done.", filePath)
				s.finish(filePath, fileId)
				return
			}
			offset = s.emitLine(filePath, fileId, offset, line)
		case <-s.ctx.Done():
			s.logger.Infow("ctx done, stopping tail.", "path", filePath)
			if err := tailFile.Stop(); err != nil {
				s.logger.Warnw("stop tail error.", "path", filePath, "err", err)
			}
			return
		}
	}
}

//emitLine hands a line over and returns the offset after it, the saved offset moves
//when the line is acknowledged
func (s *source) emitLine(filePath string, fileId Identify, offset int64, line *tail.Line) int64 {
	next := offset + int64(len(line.Text)) + 1
	if line.Err != nil {
		s.logger.Warnw("read line error.", "path", filePath, "err", line.Err)
		return offset
	}
	s.emitNext(&spl.Event{
		Meta:    map[string]any{"file": filePath, "offset": offset},
		Message: line.Text,
		Time:    line.Time,
	}, func() {
		s.offsets.advance(fileId, next)
	})
	if s.generator != nil {
		s.generator.Observe(line.Time)
	}
	return next
}

func (s *source) finish(filePath string, fileId Identify) {
	if s.backupDir == "" {
		if err := os.Remove(filePath); err != nil {
			s.logger.Errorw("can't remove.", "path", filePath, "err", err)
			return
		}
	} else {
		backupPath := filepath.Join(s.backupDir, filepath.Base(filePath)+time.Now().Format(".20060102150405"))
		if err := os.Rename(filePath, backupPath); err != nil {
			s.logger.Errorw("can't rename.", "path", filePath, "err", err)
			return
		}
	}
	s.offsets.remove(fileId)
	if s.generator != nil {
		if wm, ok := s.generator.Next(); ok {
			s.emitNext(spl.NewWatermark(wm), nil)
		}
	}
}

var (
	_ spl.Stateful   = (*source)(nil)
	_ spl.Resettable = (*source)(nil)
)

func New() spl.Source {
	return &source{}
}

func init() {
	component.RegisterNewSourceFunc("spooldir", New)
}
