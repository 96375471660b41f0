package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lsu-cct/taskfarm/internal/dispatcher"
	"github.com/lsu-cct/taskfarm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectReports(t *testing.T, f *Fleet, timeout time.Duration) []types.Report {
	t.Helper()
	var reports []types.Report
	deadline := time.After(timeout)
	for {
		select {
		case r, ok := <-f.Reports():
			if !ok {
				return reports
			}
			reports = append(reports, r)
		case <-deadline:
			t.Fatal("timed out collecting reports")
		}
	}
}

// TestS1AmpleTimeCleanSweep: files = [a..e], cmd = echo, allworkers = 2,
// jobtime = 3600, start = 1. Expect 5 Ran reports with tasknum in 1..5, 2
// FINI replies, dispatcher log Last: 5.
func TestS1AmpleTimeCleanSweep(t *testing.T) {
	cfg := dispatcher.Config{
		Cmd:        "echo",
		Files:      []string{"a", "b", "c", "d", "e"},
		AllWorkers: 2,
		Start:      1,
	}
	d, err := dispatcher.New(cfg, nil)
	require.NoError(t, err)

	f := NewFleet(d)
	f.AddWorker("node1", 0, 3600)
	f.AddWorker("node1", 1, 3600)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f.Start(ctx)
	go f.Wait()
	reports := collectReports(t, f, 5*time.Second)

	ran := 0
	seen := map[int64]bool{}
	for _, r := range reports {
		if r.Mode == types.ModeRan {
			ran++
			assert.False(t, seen[r.TaskNum], "task %d double-served", r.TaskNum)
			seen[r.TaskNum] = true
			assert.GreaterOrEqual(t, r.TaskNum, int64(1))
			assert.LessOrEqual(t, r.TaskNum, int64(5))
		}
	}
	assert.Equal(t, 5, ran)
	assert.Equal(t, dispatcher.Done, d.Status().State)
	assert.EqualValues(t, 5, d.Status().LastTask)
}

// TestS2StarvationStart: same as S1 but start = 4. Expect 2 Ran reports
// with tasknum in {4,5}, Last: 5.
func TestS2StarvationStart(t *testing.T) {
	cfg := dispatcher.Config{
		Cmd:        "echo",
		Files:      []string{"a", "b", "c", "d", "e"},
		AllWorkers: 1,
		Start:      4,
	}
	d, err := dispatcher.New(cfg, nil)
	require.NoError(t, err)

	f := NewFleet(d)
	f.AddWorker("node1", 0, 3600)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.Start(ctx)
	go f.Wait()
	reports := collectReports(t, f, 5*time.Second)

	var tasknums []int64
	for _, r := range reports {
		if r.Mode == types.ModeRan {
			tasknums = append(tasknums, r.TaskNum)
		}
	}
	assert.ElementsMatch(t, []int64{4, 5}, tasknums)
	assert.EqualValues(t, 5, d.Status().LastTask)
}

// TestS3TimeUpMidRun: 100 tasks, cmd sleeps ~0 (kept fast for the test
// suite) per task, allworkers = 1, a tiny jobtime forces admission to fail
// after a handful of tasks. Expect at least one Skipped report, exactly one
// FINI delivered, Last equal to the last tasknum the worker was assigned.
func TestS3TimeUpMidRun(t *testing.T) {
	files := make([]string, 100)
	for i := range files {
		files[i] = fmt.Sprintf("job-%d", i)
	}

	cfg := dispatcher.Config{
		Cmd:        "sleep 0.05",
		Files:      files,
		AllWorkers: 1,
	}
	d, err := dispatcher.New(cfg, nil)
	require.NoError(t, err)

	f := NewFleet(d)
	// A jobtime tight enough that the admission rule fails after a few
	// iterations once local_maxtime accumulates past the margin.
	f.AddWorker("node1", 0, 0.2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.Start(ctx)
	go f.Wait()
	reports := collectReports(t, f, 5*time.Second)

	skipped := 0
	var lastAssignedTasknum int64
	for _, r := range reports {
		if r.Mode == types.ModeSkipped {
			skipped++
		}
		lastAssignedTasknum = r.TaskNum
	}
	assert.GreaterOrEqual(t, skipped, 1)
	assert.Equal(t, lastAssignedTasknum, d.Status().LastTask)
}

// TestS4ConfigErrorStartPastEnd: start = 10, files of length 5. Dispatcher
// must be rejected before any socket is bound.
func TestS4ConfigErrorStartPastEnd(t *testing.T) {
	cfg := dispatcher.Config{
		Cmd:        "echo",
		Files:      []string{"a", "b", "c", "d", "e"},
		AllWorkers: 1,
		Start:      10,
	}
	_, err := dispatcher.New(cfg, nil)
	assert.Error(t, err)
}

// TestS5EmptyInput: files = []. Dispatcher must be rejected.
func TestS5EmptyInput(t *testing.T) {
	cfg := dispatcher.Config{Cmd: "echo", Files: nil, AllWorkers: 1}
	_, err := dispatcher.New(cfg, nil)
	assert.Error(t, err)
}

// TestS6MoreWorkersThanTasks: files of length 2, allworkers = 4. Expect 2
// Ran reports, 4 FINI replies (observed as every worker's Run returning
// without error), dispatcher exits cleanly.
func TestS6MoreWorkersThanTasks(t *testing.T) {
	cfg := dispatcher.Config{
		Cmd:        "echo",
		Files:      []string{"a", "b"},
		AllWorkers: 4,
	}
	d, err := dispatcher.New(cfg, nil)
	require.NoError(t, err)

	f := NewFleet(d)
	for i := 0; i < 4; i++ {
		f.AddWorker("node1", i, 3600)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.Start(ctx)
	go f.Wait()
	reports := collectReports(t, f, 5*time.Second)

	ran := 0
	for _, r := range reports {
		if r.Mode == types.ModeRan {
			ran++
		}
	}
	assert.Equal(t, 2, ran)
	for _, err := range f.WorkerErrs() {
		assert.NoError(t, err)
	}
	assert.Equal(t, dispatcher.Done, d.Status().State)
}
