// Package serial funnels state mutations through a single consumer goroutine.
package serial

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("serial: queue closed")

type command struct {
	fn   func()
	done chan struct{}
}

// Queue runs submitted functions one at a time, in submission order.
type Queue struct {
	cmds chan command
	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func New(buffer int) *Queue {
	if buffer < 0 {
		buffer = 0
	}
	q := &Queue{
		cmds: make(chan command, buffer),
		quit: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer q.wg.Done()
	for {
		select {
		case <-q.quit:
			return
		case cmd := <-q.cmds:
			cmd.fn()
			close(cmd.done)
		}
	}
}

// Do runs fn on the queue's goroutine and blocks until it has returned.
// If ctx ends after fn was accepted, fn may still run.
func (q *Queue) Do(ctx context.Context, fn func()) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case <-q.quit:
		return ErrClosed
	default:
	}
	select {
	case q.cmds <- cmd:
	case <-q.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-q.quit:
		// the consumer may have picked it up right before quitting
		select {
		case <-cmd.done:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the consumer and waits for the running command, if any.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.quit)
	})
	q.wg.Wait()
}
