package window

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/tomb.v2"
)

//Start launches the background eviction and trigger tasks of time policies, other windows need none
func (w *Sliding[T, K]) Start() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.started {
		return
	}
	w.started = true
	w.life = &tomb.Tomb{}
	if w.eviction.clock() == wallClock {
		w.life.Go(func() error {
			return w.run("eviction", w.tickEviction)
		})
	}
	if w.trigger.clock() == wallClock {
		w.life.Go(func() error {
			return w.run("trigger", w.tickTrigger)
		})
	}
}

//Shutdown asks the background tasks to stop, Join waits for them
func (w *Sliding[T, K]) Shutdown() {
	if life := w.lifecycle(); life != nil {
		life.Kill(nil)
	}
}

//Join blocks until the background tasks exit and returns the fault that stopped them, if any
func (w *Sliding[T, K]) Join() error {
	life := w.lifecycle()
	if life == nil || !w.background() {
		return nil
	}
	return life.Wait()
}

//Err returns the background fault, nil while the tasks are healthy or stopped cleanly
func (w *Sliding[T, K]) Err() error {
	life := w.lifecycle()
	if life == nil {
		return nil
	}
	if err := life.Err(); err != tomb.ErrStillAlive {
		return err
	}
	return nil
}

func (w *Sliding[T, K]) lifecycle() *tomb.Tomb {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.life
}

func (w *Sliding[T, K]) run(task string, tick func(at instant)) error {
	ticker := w.clock.Ticker(w.resolution)
	defer ticker.Stop()
	for {
		select {
		case <-w.life.Dying():
			return nil
		case <-ticker.C:
			if err := w.safeTick(tick); err != nil {
				w.logger.Errorw("background task failed.", "task", task, "err", err)
				return err
			}
		}
	}
}

//safeTick turns a panic escaping a handler into the fault of the task
func (w *Sliding[T, K]) safeTick(tick func(at instant)) (err error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	defer func() {
		if reason := recover(); reason != nil {
			err = errors.WithMessage(ErrBackgroundFault, fmt.Sprint(reason))
		}
	}()
	tick(w.instant(wallClock))
	return nil
}
