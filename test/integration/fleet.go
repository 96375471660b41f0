// ============================================================================
// Fleet - In-Process Worker Pool Test Harness
// ============================================================================
//
// Package: test/integration
// File: fleet.go
// Purpose: Drives a *dispatcher.Dispatcher with N in-process worker
// goroutines without opening any TCP socket, so the end-to-end scenarios in
// spec section 8 run in milliseconds.
//
// Design Pattern:
//   Adapted from the teacher repo's Worker Pool pattern (fixed set of
//   goroutines, shared WaitGroup, a results channel), but here the "pool"
//   drives real dispatcher/worker protocol objects instead of simulated
//   tasks: *dispatcher.Dispatcher already implements worker.TaskSource (its
//   GetTask method has the exact same signature), so workers talk to it
//   directly as an in-process function call instead of over gRPC.
//
// Lifecycle:
//   1. NewFleet(d)         - wrap a constructed dispatcher
//   2. AddWorker(...)       - register one worker, not yet running
//   3. Start(ctx)           - launch the dispatcher's run loop and every
//                             worker goroutine
//   4. Wait()               - block until every worker and the dispatcher
//                             have returned, then close the report channel
//
// ============================================================================

package integration

import (
	"context"
	"io"
	"sync"

	"github.com/lsu-cct/taskfarm/internal/dispatcher"
	"github.com/lsu-cct/taskfarm/internal/worker"
	"github.com/lsu-cct/taskfarm/pkg/types"
)

// Fleet manages one dispatcher and its workers for a single test run.
type Fleet struct {
	d        *dispatcher.Dispatcher
	workers  []*worker.Worker
	reportCh chan types.Report
	wg       sync.WaitGroup

	dispatchErr error
	workerErrs  []error
	mu          sync.Mutex
}

// NewFleet wraps an already-validated dispatcher.
func NewFleet(d *dispatcher.Dispatcher) *Fleet {
	return &Fleet{
		d:        d,
		reportCh: make(chan types.Report, 256),
	}
}

// AddWorker registers one worker against the fleet's dispatcher. Reports
// are collected on the fleet's channel; stdout/stderr text output is
// discarded since assertions read structured reports instead.
func (f *Fleet) AddWorker(hostname string, index int, jobtime float64) *worker.Worker {
	w := worker.New(worker.Config{Hostname: hostname, Index: index, JobTime: jobtime}, f.d, io.Discard, io.Discard)
	w.OnReport(func(r types.Report) { f.reportCh <- r })
	f.workers = append(f.workers, w)
	return w
}

// Start launches the dispatcher's run loop and every registered worker.
func (f *Fleet) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		err := f.d.Run(ctx)
		f.mu.Lock()
		f.dispatchErr = err
		f.mu.Unlock()
	}()

	for _, w := range f.workers {
		f.wg.Add(1)
		go func(w *worker.Worker) {
			defer f.wg.Done()
			err := w.Run(ctx)
			f.mu.Lock()
			f.workerErrs = append(f.workerErrs, err)
			f.mu.Unlock()
		}(w)
	}
}

// Wait blocks until the dispatcher and every worker have returned, then
// closes the report channel so range loops over Reports() terminate.
func (f *Fleet) Wait() {
	f.wg.Wait()
	close(f.reportCh)
}

// Reports returns the channel every worker's reports are delivered on.
// Must be drained (or ranged over) concurrently with Wait, since the
// channel is bounded.
func (f *Fleet) Reports() <-chan types.Report {
	return f.reportCh
}

// DispatcherErr returns the dispatcher's Run error, valid after Wait.
func (f *Fleet) DispatcherErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dispatchErr
}

// WorkerErrs returns every worker's Run error, valid after Wait.
func (f *Fleet) WorkerErrs() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.workerErrs...)
}
