package service

import (
	"context"
	"log"
	"sync"
	"time"
)

const taskTimeout = 30 * time.Second

type backgroundTask struct {
	name string
	fn   func(context.Context) error
}

// BackgroundTasks runs fire-and-forget work (topic subscription updates and
// similar side effects that must never fail a synchronous caller). Failures
// are logged and dropped.
type BackgroundTasks struct {
	tasks chan backgroundTask
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewBackgroundTasks starts the task worker with the given queue capacity.
func NewBackgroundTasks(buffer int) *BackgroundTasks {
	if buffer <= 0 {
		buffer = 100
	}
	b := &BackgroundTasks{tasks: make(chan backgroundTask, buffer)}
	b.wg.Add(1)
	go b.run()
	return b
}

// Submit queues fn for background execution. It never blocks: when the queue
// is full or closed the task is dropped with a log line.
func (b *BackgroundTasks) Submit(name string, fn func(context.Context) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		log.Printf("Background task %s dropped: runner closed", name)
		return
	}
	select {
	case b.tasks <- backgroundTask{name: name, fn: fn}:
	default:
		log.Printf("Background task %s dropped: queue full", name)
	}
}

func (b *BackgroundTasks) run() {
	defer b.wg.Done()
	for t := range b.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		if err := t.fn(ctx); err != nil {
			log.Printf("Background task %s failed: %v", t.name, err)
		}
		cancel()
	}
}

// Close drains queued tasks and stops the worker.
func (b *BackgroundTasks) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.tasks)
	b.mu.Unlock()
	b.wg.Wait()
}
