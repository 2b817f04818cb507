// Package dispatcher provides bounded fan-out for independent fetch jobs.
package dispatcher

import (
	"context"
	"sync"
)

// Pool runs jobs across a fixed number of goroutines. Completion order is
// unspecified; every job is attempted exactly once.
type Pool struct {
	width int
}

// New creates a Pool of the given width.
func New(width int) *Pool {
	if width <= 0 {
		width = 1
	}
	return &Pool{width: width}
}

// Width returns the worker count.
func (p *Pool) Width() int {
	return p.width
}

// Run applies fn to every index in [0, n). It blocks until all started
// jobs finish. If the context is canceled, remaining jobs are not started.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.width; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(ctx, i)
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}
