package scanner

import (
	"context"
	"sync"
)

// scanJob is a single file submitted to the worker pool.
type scanJob struct {
	ctx    context.Context
	path   string
	result chan<- ScanResult
}

// WorkerPool runs a fixed number of scanning goroutines fed from a shared
// job queue.
type WorkerPool struct {
	jobQueue chan scanJob
	wg       sync.WaitGroup
	stopped  bool
	mu       sync.Mutex
}

// NewWorkerPool starts workerCount workers that call scan for each job.
func NewWorkerPool(workerCount int, scan func(ctx context.Context, path string) ScanResult) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &WorkerPool{
		jobQueue: make(chan scanJob, workerCount*2),
	}

	pool.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer pool.wg.Done()
			for job := range pool.jobQueue {
				job.result <- scan(job.ctx, job.path)
			}
		}()
	}

	return pool
}

// Submit queues path and reports false if the pool has been stopped.
func (p *WorkerPool) Submit(ctx context.Context, path string, result chan<- ScanResult) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return false
	}
	p.jobQueue <- scanJob{ctx: ctx, path: path, result: result}
	return true
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()
}
