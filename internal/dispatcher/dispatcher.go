// ============================================================================
// Dispatcher - Task-Farm Coordinator
// ============================================================================
//
// Package: internal/dispatcher
// File: dispatcher.go
// Purpose: Owns the task list and the cluster-wide observed maxtime; serves
// one task per request over a strict request-reply round; drives the
// HANDING_OUT -> DRAINING -> DONE shutdown state machine.
//
// Concurrency:
//   gRPC hands each unary call its own goroutine, but the protocol requires
//   strict sequential processing of requests (the dispatcher is logically
//   single-threaded, per the request-reply lock-step design). Rather than
//   guard the counters with a mutex, every GetTask call is funneled through
//   the single goroutine executing Run via a request channel; Run is the sole
//   owner of tasknum, maxtime, known_workers, already_notified and lasttask,
//   and replies on a per-call channel carried inside the envelope.
//
// ============================================================================

package dispatcher

import (
	"context"
	"log/slog"
	"sync/atomic"

	pb "github.com/lsu-cct/taskfarm/api/taskfarm/v1"
)

var log = slog.Default()

// Recorder is the subset of internal/metrics.DispatcherCollector the
// dispatcher needs. Kept as an interface so tests can run without a
// Prometheus registry, and so metrics stay optional per the ambient-stack
// convention (disabling metrics never changes dispatch behavior).
type Recorder interface {
	RecordHandout()
	RecordTimeup()
	RecordDrainReply()
	SetObservedMaxtime(seconds float64)
	SetState(state int)
}

type noopRecorder struct{}

func (noopRecorder) RecordHandout()             {}
func (noopRecorder) RecordTimeup()              {}
func (noopRecorder) RecordDrainReply()          {}
func (noopRecorder) SetObservedMaxtime(float64) {}
func (noopRecorder) SetState(int)               {}

// State mirrors the HANDING_OUT/DRAINING/DONE state machine for status
// reporting; it is distinct from pkg/types.State so this package has no
// compile-time dependency on the worker-facing domain package.
type State int32

const (
	HandingOut State = iota
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case HandingOut:
		return "HANDING_OUT"
	case Draining:
		return "DRAINING"
	default:
		return "DONE"
	}
}

// Status is a point-in-time snapshot safe to read from any goroutine.
type Status struct {
	State        State
	TaskNum      int64
	MaxTime      float64
	KnownWorkers int
	LastTask     int64
}

type request struct {
	req   *pb.TaskRequest
	reply chan *pb.TaskReply
}

// Dispatcher implements pb.DispatchServiceServer.
type Dispatcher struct {
	cfg      Config
	metrics  Recorder
	requests chan request
	done     chan struct{}
	state    atomic.Int32
	status   atomic.Pointer[Status]
}

// New validates cfg and constructs a Dispatcher. The run loop is not started
// until Run is called, matching the exit-code contract in the spec: a
// configuration error must be reportable before any socket is opened.
func New(cfg Config, recorder Recorder) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	d := &Dispatcher{
		cfg:      cfg,
		metrics:  recorder,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	d.status.Store(&Status{State: HandingOut})
	return d, nil
}

// Status returns the most recent snapshot of dispatcher state.
func (d *Dispatcher) Status() Status {
	return *d.status.Load()
}

// GetTask implements pb.DispatchServiceServer. It is called once per worker
// request-reply round; it blocks until the internal run loop has produced a
// reply for this specific request.
func (d *Dispatcher) GetTask(ctx context.Context, req *pb.TaskRequest) (*pb.TaskReply, error) {
	env := request{req: req, reply: make(chan *pb.TaskReply, 1)}
	select {
	case d.requests <- env:
	case <-d.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case reply := <-env.reply:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run executes the dispatcher's entire lifecycle: HANDING_OUT, DRAINING,
// then DONE. It blocks until the drain phase has serviced its quota of
// replies or ctx is cancelled, and closes d.done on return so that any
// GetTask calls still waiting are unblocked with ErrClosed.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)

	log.Info("Start",
		"port", d.cfg.Port,
		"tasks", len(d.cfg.Files),
		"start", d.cfg.Start,
		"allworkers", d.cfg.AllWorkers,
		"cmd", d.cfg.Cmd,
	)

	known := make(map[string]struct{})
	tasknum := int64(d.cfg.Start - 1)
	var maxtime float64
	var alreadyNotified int
	var lasttask int64

	nextIdx := d.cfg.Start - 1 // 0-based index into Files of the next task to hand out

	handingOut := true
	for handingOut {
		var env request
		select {
		case env = <-d.requests:
		case <-ctx.Done():
			return ctx.Err()
		}

		known[env.req.WorkerID] = struct{}{}
		tasknum++

		if env.req.MaxTime >= 0 {
			if env.req.MaxTime > maxtime {
				maxtime = env.req.MaxTime
				log.Info("Maxtime", "seconds", maxtime)
				d.metrics.SetObservedMaxtime(maxtime)
			}

			file := d.cfg.Files[nextIdx]
			nextIdx++
			env.reply <- &pb.TaskReply{Cmd: d.cfg.Cmd, File: file, MaxTime: maxtime, TaskNum: tasknum}
			d.metrics.RecordHandout()

			if nextIdx >= len(d.cfg.Files) {
				lasttask = tasknum
				log.Info("Shutdown", "reason", "exhausted", "tasknum", tasknum)
				handingOut = false
			}
		} else {
			maxtime = -1
			lasttask = env.req.LastTask
			log.Info("Timeup", "worker", env.req.WorkerID, "lasttask", lasttask)

			env.reply <- pb.Fini(tasknum)
			alreadyNotified++
			d.metrics.RecordTimeup()
			d.metrics.RecordDrainReply()

			log.Info("Shutdown", "reason", "timeup", "tasknum", tasknum)
			handingOut = false
		}

		d.publishStatus(HandingOut, tasknum, maxtime, len(known), lasttask)
	}

	d.publishStatus(Draining, tasknum, maxtime, len(known), lasttask)

	shutdown := d.cfg.AllWorkers - alreadyNotified
	for i := 0; i < shutdown; i++ {
		var env request
		select {
		case env = <-d.requests:
		case <-ctx.Done():
			return ctx.Err()
		}

		known[env.req.WorkerID] = struct{}{}
		if env.req.MaxTime < 0 && env.req.LastTask < lasttask {
			lasttask = env.req.LastTask
		}

		env.reply <- pb.Fini(tasknum)
		d.metrics.RecordDrainReply()

		d.publishStatus(Draining, tasknum, maxtime, len(known), lasttask)
	}

	d.publishStatus(Done, tasknum, maxtime, len(known), lasttask)
	log.Info("Last", "lasttask", lasttask)
	return nil
}

func (d *Dispatcher) publishStatus(state State, tasknum int64, maxtime float64, knownWorkers int, lasttask int64) {
	d.state.Store(int32(state))
	d.metrics.SetState(int(state))
	d.status.Store(&Status{
		State:        state,
		TaskNum:      tasknum,
		MaxTime:      maxtime,
		KnownWorkers: knownWorkers,
		LastTask:     lasttask,
	})
}
