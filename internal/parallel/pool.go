// Package parallel provides a worker pool for the data-parallel pipeline
// stages. Each stage fans a kernel out over an index range and waits for
// every element to complete before the next stage begins (a full barrier).
package parallel

import (
	"runtime"
	"sync"
)

// Pool is a pool of goroutines for data-parallel kernels.
//
// Work items are distributed round-robin across per-worker queues; idle
// workers steal from their siblings, which balances load when some grid
// regions are much denser than others.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds per-worker work queues. Each worker primarily pulls
	// from its own queue but can steal from others.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// mu orders submissions against Close: Run enqueues under the read
	// lock, Close flips closed under the write lock. Work submitted before
	// the flip is guaranteed to reach a worker queue, which workers drain
	// before exiting.
	mu     sync.RWMutex
	closed bool
}

// New creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Buffered queues hide submission latency.
	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	mine := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(mine)
			return

		case work := <-mine:
			if work != nil {
				work()
			}

		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			// Nothing to steal, block on own queue.
			select {
			case <-p.done:
				p.drain(mine)
				return
			case work := <-mine:
				if work != nil {
					work()
				}
			}
		}
	}
}

// drain executes all remaining work in a queue.
func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// steal attempts to take work from another worker's queue.
// Returns nil if no work is available.
func (p *Pool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// Run distributes the given tasks across workers and blocks until all of
// them have completed. This is the barrier primitive between pipeline
// stages: when Run returns, every write made by the tasks is visible to the
// caller. If the pool is closed, the tasks execute on the calling goroutine
// instead, so a caller racing with Close still gets every task run.
func (p *Pool) Run(tasks []func()) {
	if len(tasks) == 0 {
		return
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		for _, task := range tasks {
			task()
		}
		return
	}

	var barrier sync.WaitGroup
	barrier.Add(len(tasks))

	for i, fn := range tasks {
		task := fn
		p.queues[i%p.workers] <- func() {
			defer barrier.Done()
			task()
		}
	}
	p.mu.RUnlock()

	barrier.Wait()
}

// ForRange splits [0, n) into contiguous chunks, runs fn(lo, hi) on each
// chunk across the pool, and blocks until every chunk has completed.
// fn must not depend on writes made by sibling chunks.
//
// The chunk count targets a few chunks per worker so that uneven chunks
// still keep all workers busy. For n == 0 ForRange returns immediately.
func (p *Pool) ForRange(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}

	chunks := p.workers * 4
	if chunks > n {
		chunks = n
	}
	chunkSize := (n + chunks - 1) / chunks

	tasks := make([]func(), 0, chunks)
	for lo := 0; lo < n; lo += chunkSize {
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		lo, hi := lo, hi
		tasks = append(tasks, func() { fn(lo, hi) })
	}
	p.Run(tasks)
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// Close gracefully shuts down the pool. It stops accepting new work, waits
// for queued work to finish, and stops all workers. Later Run calls fall
// back to executing on the caller.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()
}
