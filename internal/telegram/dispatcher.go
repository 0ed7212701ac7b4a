package telegram

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"go.uber.org/atomic"
)

// Dispatcher runs jobs concurrently across keys and in submission order
// within a key. Each key with pending work has exactly one worker, which
// exits once its queue is empty.
type Dispatcher struct {
	logger *logrus.Logger

	mu     sync.Mutex
	queues map[int64][]func()
	closed bool

	workers conc.WaitGroup
	pending *atomic.Int64
	done    *atomic.Int64
}

// NewDispatcher creates an idle dispatcher
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		logger:  logger,
		queues:  make(map[int64][]func()),
		pending: atomic.NewInt64(0),
		done:    atomic.NewInt64(0),
	}
}

// Submit queues job under key. It reports false once the dispatcher is
// closed.
func (d *Dispatcher) Submit(key int64, job func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	queue, running := d.queues[key]
	d.queues[key] = append(queue, job)
	d.pending.Inc()

	if !running {
		d.workers.Go(func() { d.drain(key) })
	}
	return true
}

func (d *Dispatcher) drain(key int64) {
	for {
		d.mu.Lock()
		queue := d.queues[key]
		if len(queue) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		job := queue[0]
		queue[0] = nil
		d.queues[key] = queue[1:]
		d.mu.Unlock()

		d.run(key, job)
		d.pending.Dec()
		d.done.Inc()
	}
}

func (d *Dispatcher) run(key int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(logrus.Fields{
				"key":   key,
				"panic": fmt.Sprint(r),
			}).Error("Panic in update handler")
		}
	}()
	job()
}

// Pending returns the number of queued or running jobs
func (d *Dispatcher) Pending() int64 {
	return d.pending.Load()
}

// Processed returns the number of finished jobs
func (d *Dispatcher) Processed() int64 {
	return d.done.Load()
}

// Close stops accepting jobs and waits for the queued ones to finish
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.workers.Wait()
	d.logger.WithField("processed", d.Processed()).Info("Update dispatcher stopped")
}
