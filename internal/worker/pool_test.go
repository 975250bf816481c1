package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countJob struct {
	counter *atomic.Int64
	err     error
}

type countResult struct{ err error }

func (r *countResult) GetError() error { return r.err }

func (j *countJob) Execute(ctx context.Context) Result {
	j.counter.Add(1)
	return &countResult{err: j.err}
}

func TestPoolRunsAllJobs(t *testing.T) {
	var counter atomic.Int64
	pool := NewPool(4)
	pool.Start()

	for i := 0; i < 20; i++ {
		pool.Submit(&countJob{counter: &counter})
	}
	results := pool.Wait()

	if counter.Load() != 20 {
		t.Errorf("executed %d jobs, want 20", counter.Load())
	}
	if len(results) != 20 {
		t.Errorf("collected %d results, want 20", len(results))
	}
}

func TestPoolCarriesErrorsInResults(t *testing.T) {
	var counter atomic.Int64
	jobErr := errors.New("document failed")

	pool := NewPool(2)
	pool.Start()
	pool.Submit(&countJob{counter: &counter, err: jobErr})
	pool.Submit(&countJob{counter: &counter})

	var failed int
	for _, r := range pool.Wait() {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("got %d failed results, want 1", failed)
	}
}

func TestPoolClampsWorkerCount(t *testing.T) {
	var counter atomic.Int64
	pool := NewPool(0)
	pool.Start()
	pool.Submit(&countJob{counter: &counter})
	pool.Wait()

	if counter.Load() != 1 {
		t.Error("pool with zero workers should still run jobs on one worker")
	}
}
