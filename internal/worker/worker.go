// ============================================================================
// Worker - Task-Farm Execution Unit
// ============================================================================
//
// Package: internal/worker
// File: worker.go
// Function: Loops request/decide/execute/report against a dispatcher until
// it receives FINI. When the admission rule declines a task the loop goes on,
// so the next request carries the time-up signal.
//
// Admission rule:
//   With safety margin M = 1.25, a worker takes the next task only if
//   timeleft > local_maxtime * M. Task durations jitter; local_maxtime is a
//   sample maximum, not a bound, so the margin trades a little idle time at
//   the end of the run for a lower chance of overrunning the job's
//   wall-clock budget.
//
// Latch:
//   Once the admission rule fails, timeup latches true and never reverts;
//   every subsequent request reports maxtime = -1, which is what drives the
//   dispatcher into its drain phase.
//
// ============================================================================

package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	pb "github.com/lsu-cct/taskfarm/api/taskfarm/v1"
	"github.com/lsu-cct/taskfarm/pkg/types"
)

var log = slog.Default()

// Margin is the safety factor M applied to local_maxtime in the admission
// rule.
const Margin = 1.25

// Config holds the startup inputs for a single worker process.
type Config struct {
	// Hostname + Index form the worker id "<hostname>_<index>".
	Hostname string
	Index    int
	// JobTime is the wall-time budget in seconds. Zero means "use the
	// default of one day", matching the spec's configuration surface.
	JobTime float64
}

// DefaultJobTime is used when Config.JobTime is unset.
const DefaultJobTime = 86400

// Worker runs the request/decide/execute/report loop against a TaskSource.
type Worker struct {
	id      string
	source  TaskSource
	jobtime float64
	t0      time.Time

	localMaxtime float64
	tasknum      int64
	timeup       bool

	stdout io.Writer
	stderr io.Writer

	// onReport, if set, is invoked after every report is printed. It exists
	// so test harnesses (see fleet.go) can observe outcomes without
	// scraping stdout text.
	onReport func(types.Report)
}

// New constructs a Worker bound to source. stdout/stderr receive the
// per-task reports; pass os.Stdout/os.Stderr in production.
func New(cfg Config, source TaskSource, stdout, stderr io.Writer) *Worker {
	jobtime := cfg.JobTime
	if jobtime <= 0 {
		jobtime = DefaultJobTime
	}
	return &Worker{
		id:      fmt.Sprintf("%s_%d", cfg.Hostname, cfg.Index),
		source:  source,
		jobtime: jobtime,
		t0:      time.Now(),
		stdout:  stdout,
		stderr:  stderr,
	}
}

// ID returns the worker's "<hostname>_<n>" identity.
func (w *Worker) ID() string { return w.id }

// OnReport registers a callback fired after every printed report. Intended
// for tests; production callers should leave this unset.
func (w *Worker) OnReport(fn func(types.Report)) { w.onReport = fn }

// Run loops until the dispatcher replies FINI, the admission rule's own
// decision terminates work (it doesn't — skipping just keeps looping so the
// dispatcher sees the time-up signal), or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		req := w.nextRequest()

		reply, err := w.source.GetTask(ctx, req)
		if err != nil {
			return fmt.Errorf("worker %s: GetTask: %w", w.id, err)
		}

		if reply.Cmd == pb.FiniCmd {
			log.Info("Fini", "worker", w.id, "lasttask", w.tasknum)
			return nil
		}

		if reply.MaxTime > w.localMaxtime {
			w.localMaxtime = reply.MaxTime
		}
		w.tasknum = reply.TaskNum

		walltime := time.Since(w.t0).Seconds()
		timeleft := w.jobtime - walltime
		task := reply.Cmd + " " + reply.File

		var report types.Report
		if timeleft > w.localMaxtime*Margin {
			log.Info("Taking", "worker", w.id, "tasknum", w.tasknum, "walltime", walltime, "timeleft", timeleft)
			report = w.execute(task, walltime)
		} else {
			w.timeup = true
			log.Info("Skipping", "worker", w.id, "tasknum", w.tasknum, "walltime", walltime, "timeleft", timeleft)
			report = w.skip(task, walltime, timeleft)
		}

		printReport(w.stdout, w.stderr, report)
		if w.onReport != nil {
			w.onReport(report)
		}
	}
}

func (w *Worker) nextRequest() *pb.TaskRequest {
	if w.timeup {
		return &pb.TaskRequest{WorkerID: w.id, MaxTime: -1, LastTask: w.tasknum}
	}
	return &pb.TaskRequest{WorkerID: w.id, MaxTime: w.localMaxtime, LastTask: w.tasknum}
}

func (w *Worker) execute(task string, walltime float64) types.Report {
	taskStart := time.Now()
	result := runShell(task)
	taskEnd := time.Now()
	elapsed := taskEnd.Sub(taskStart).Seconds()

	if elapsed > w.localMaxtime {
		w.localMaxtime = elapsed
	}

	return types.Report{
		TaskNum:   w.tasknum,
		WorkerID:  w.id,
		Mode:      types.ModeRan,
		Success:   result.success,
		Task:      task,
		TaskStart: timestampSeconds(taskStart),
		TaskEnd:   timestampSeconds(taskEnd),
		TaskTime:  elapsed,
		WallTime:  taskEnd.Sub(w.t0).Seconds(),
		Stdout:    result.stdout,
		Stderr:    result.stderr,
	}
}

func (w *Worker) skip(task string, walltime, timeleft float64) types.Report {
	return types.Report{
		TaskNum:   w.tasknum,
		WorkerID:  w.id,
		Mode:      types.ModeSkipped,
		Success:   false,
		Task:      task,
		TaskStart: -1,
		TaskEnd:   -1,
		TaskTime:  -1,
		WallTime:  walltime,
		Stdout:    []string{"Insufficient Time"},
		Stderr:    []string{fmt.Sprintf("Time left: %.2f; Max Time: %.2f; Margin: %.2f", timeleft, w.localMaxtime, Margin)},
	}
}

func timestampSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
