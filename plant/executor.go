package plant

import (
	"time"

	"golang.org/x/sync/errgroup"
)

// executor fans the independent loop advances of one step out to at most
// workers goroutines and waits for all of them.
type executor struct {
	workers int
}

func newExecutor(workers int) *executor {
	if workers < 1 {
		workers = 1
	}
	return &executor{workers: workers}
}

// dispatch runs task(0..n-1). Each task must only write its own index.
func (e *executor) dispatch(n int, task func(i int) error) (time.Duration, error) {
	start := time.Now()
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return task(i)
		})
	}
	err := g.Wait()
	return time.Since(start), err
}
