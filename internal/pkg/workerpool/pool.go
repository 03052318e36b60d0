package workerpool

import (
	"context"
	"log"
	"sync"
)

type Job func(ctx context.Context)

// WorkerPool runs after-commit jobs (cache warming, cleanups) off the
// request path. Submission never blocks a request: a full queue drops
// the job, which is fine for work the next read can redo.
type WorkerPool struct {
	queue chan Job
	wg    sync.WaitGroup
}

func New(ctx context.Context, workerCount, queueSize int) *WorkerPool {
	pool := &WorkerPool{
		queue: make(chan Job, queueSize),
	}

	for i := 0; i < workerCount; i++ {
		go pool.worker(ctx)
	}

	return pool
}

func (p *WorkerPool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.wg.Add(1)
			job(ctx)
			p.wg.Done()
		}
	}
}

// Submit enqueues a job; returns false when the queue is full.
func (p *WorkerPool) Submit(job Job) bool {
	select {
	case p.queue <- job:
		return true
	default:
		log.Println("worker pool queue full: job dropped")
		return false
	}
}

// Shutdown closes the queue and waits for in-flight jobs, bounded by ctx.
func (p *WorkerPool) Shutdown(ctx context.Context) {
	close(p.queue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		log.Println("worker pool shutdown timed out")
	case <-done:
	}
}
