package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/show5116/family-planner-back-end-sub000/internal/queue"
)

const (
	// DefaultWorkerCount is tuned for I/O-bound loops: each worker spends
	// nearly all its time inside a blocking pop or a gateway round trip.
	DefaultWorkerCount = 5
	// popTimeout bounds how long a worker is deaf to shutdown when the
	// queue is idle.
	popTimeout = 5 * time.Second
	errorPause = time.Second
	// drainMargin is added to popTimeout when waiting for workers to stop.
	drainMargin = 2 * time.Second
)

// Dispatcher consumes one popped notification. Implementations must not
// panic and must swallow their own errors.
type Dispatcher interface {
	Dispatch(ctx context.Context, n queue.Notification)
}

// Pool runs N long-lived consumer loops over the ready queue. Coordination
// happens entirely through the store's atomic pops: workers never block on
// each other, and each item is popped by exactly one worker.
type Pool struct {
	store      queue.Store
	dispatcher Dispatcher
	count      int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(store queue.Store, dispatcher Dispatcher, count int) *Pool {
	if count <= 0 {
		count = DefaultWorkerCount
	}
	return &Pool{store: store, dispatcher: dispatcher, count: count}
}

// Start spawns the consumer loops. The passed context is the shutdown
// signal for every worker.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Printf("Notification worker pool started (%d workers)", p.count)
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d stopping", id)
			return
		default:
		}

		// Shutdown is a stop flag checked at the top of the loop only. The
		// pop and the dispatch run on a background context: a popped item
		// is already gone from the store, so canceling mid-pop or
		// mid-dispatch would lose it. The pop timeout bounds how long
		// shutdown waits for an idle worker.
		n, err := p.store.BlockingPopReady(context.Background(), popTimeout)
		if err != nil {
			// Store unavailable; pause so a dead Redis does not spin the
			// loop hot.
			log.Printf("Worker %d: pop failed: %v", id, err)
			select {
			case <-ctx.Done():
			case <-time.After(errorPause):
			}
			continue
		}
		if n == nil {
			continue // pop timeout, loop to observe shutdown
		}

		p.dispatcher.Dispatch(context.Background(), *n)
	}
}

// Stop signals every worker and waits for in-flight pops and dispatches to
// finish, bounded by the pop timeout plus a margin.
func (p *Pool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Notification worker pool drained")
	case <-time.After(popTimeout + drainMargin):
		log.Println("Notification worker pool drain timed out")
	}
}
