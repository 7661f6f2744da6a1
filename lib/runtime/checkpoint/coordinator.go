package checkpoint

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"spl/lib/checkpoint"
	"spl/spl"
)

//Coordinator snapshots stateful components on a cron schedule and restores them on start
type Coordinator struct {
	logger spl.Logger
	store  checkpoint.Store
	cron   *cron.Cron

	mutex      sync.Mutex
	components map[string]spl.Stateful
}

//New schedules SnapshotAll with a six field cron expression, an empty schedule only
//snapshots when components stop
func New(logger spl.Logger, store checkpoint.Store, schedule string) (*Coordinator, error) {
	c := &Coordinator{
		logger:     logger,
		store:      store,
		cron:       cron.New(cron.WithSeconds()),
		components: map[string]spl.Stateful{},
	}
	if schedule != "" {
		if _, err := c.cron.AddFunc(schedule, func() {
			if err := c.SnapshotAll(); err != nil {
				c.logger.Errorw("periodic checkpoint failed.", "err", err)
			}
		}); err != nil {
			return nil, errors.WithMessagef(err, "invalid checkpoint schedule %q", schedule)
		}
	}
	return c, nil
}

func (c *Coordinator) Start() {
	c.cron.Start()
}

//Stop waits for a running snapshot to finish
func (c *Coordinator) Stop() {
	<-c.cron.Stop().Done()
}

//Restore loads the last snapshot of an opened component and registers it for checkpoints.
//A snapshot that can't be applied resets the component to its initial state.
func (c *Coordinator) Restore(name string, component spl.Component) error {
	stateful, ok := component.(spl.Stateful)
	if !ok {
		return nil
	}
	c.mutex.Lock()
	c.components[name] = stateful
	c.mutex.Unlock()

	c.logger.Infof("start restore component %s state.", name)
	data, err := c.store.Load(name)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			c.logger.Debugf("component %s state is not exist.", name)
			return nil
		}
		c.logger.Warnw("can't read component state, skip state start.", "component", name, "err", err)
		return c.reset(name, component)
	}
	if err = stateful.Restore(data); err != nil {
		c.logger.Errorw("can't recovery component state.", "component", name, "err", err)
		return c.reset(name, component)
	}
	return nil
}

func (c *Coordinator) reset(name string, component spl.Component) error {
	resettable, ok := component.(spl.Resettable)
	if !ok {
		return nil
	}
	return errors.WithMessagef(resettable.ResetToInitialState(), "can't reset component %s", name)
}

//Snapshot checkpoints one registered component
func (c *Coordinator) Snapshot(name string) error {
	c.mutex.Lock()
	stateful, ok := c.components[name]
	c.mutex.Unlock()
	if !ok {
		return nil
	}
	data, err := stateful.Snapshot()
	if err != nil {
		return errors.WithMessagef(err, "can't snapshot component %s state", name)
	}
	if data == nil {
		return nil
	}
	if err = c.store.Save(name, data); err != nil {
		return err
	}
	c.logger.Debugw("component state saved.", "component", name, "bytes", len(data))
	return nil
}

//SnapshotAll checkpoints every registered component and collects the failures
func (c *Coordinator) SnapshotAll() (err error) {
	c.mutex.Lock()
	names := make([]string, 0, len(c.components))
	for name := range c.components {
		names = append(names, name)
	}
	c.mutex.Unlock()
	for _, name := range names {
		err = multierr.Append(err, c.Snapshot(name))
	}
	return err
}

//Unregister takes a final snapshot of a stopped component
func (c *Coordinator) Unregister(name string) error {
	err := c.Snapshot(name)
	c.mutex.Lock()
	delete(c.components, name)
	c.mutex.Unlock()
	return err
}
