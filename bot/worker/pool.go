// Package worker runs update handlers on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/spotelegramify/spotelegramify-go/bot"
)

// queuePerWorker is how many tasks may wait per worker before Submit blocks.
const queuePerWorker = 8

var ErrPoolClosed = errors.New("worker pool closed")

var _ bot.WorkerPool = (*Pool)(nil)

// Pool executes submitted tasks on a fixed number of workers.
// With one worker, tasks run strictly in submission order.
type Pool struct {
	size   int
	queue  chan func()
	quit   chan struct{}
	wg     sync.WaitGroup
	logger bot.Logger

	// mu guards closed and the close of queue against in-flight sends.
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// New starts size workers. Non-positive sizes mean one worker; logger may be nil.
func New(size int, logger bot.Logger) *Pool {
	size = max(size, 1)
	p := &Pool{
		size:   size,
		queue:  make(chan func(), size*queuePerWorker),
		quit:   make(chan struct{}),
		logger: logger,
	}
	p.wg.Add(size)
	for range size {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.queue {
		p.exec(task)
	}
}

// exec keeps the worker alive when a task panics.
func (p *Pool) exec(task func()) {
	if task == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && p.logger != nil {
			p.logger.Error("worker task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}

// Submit queues a task, blocking while the queue is full.
func (p *Pool) Submit(task func()) error {
	return p.enqueue(context.Background(), task)
}

func (p *Pool) enqueue(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- task:
		return nil
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitWait queues a task and returns its error.
func (p *Pool) SubmitWait(task func() error) error {
	return p.SubmitWaitContext(context.Background(), task)
}

// SubmitWaitContext queues a task and waits for its result or for ctx.
// A task that already started keeps running after ctx ends.
func (p *Pool) SubmitWaitContext(ctx context.Context, task func() error) error {
	if task == nil {
		return nil
	}
	result := make(chan error, 1)
	if err := p.enqueue(ctx, func() { result <- task() }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown refuses new tasks, then waits for queued and running tasks or for ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.stop()
	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopNow refuses new tasks without waiting for the queue to drain.
func (p *Pool) StopNow() {
	p.stop()
}

// stop wakes blocked senders through quit before taking the write lock,
// so closing the queue never races a send.
func (p *Pool) stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
}

func (p *Pool) Size() int {
	return p.size
}
