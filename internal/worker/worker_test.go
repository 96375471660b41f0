package worker

import (
	"bytes"
	"context"
	"strings"
	"testing"

	pb "github.com/lsu-cct/taskfarm/api/taskfarm/v1"
	"github.com/lsu-cct/taskfarm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays a fixed sequence of replies, one per GetTask call,
// and records every request it received.
type scriptedSource struct {
	replies  []*pb.TaskReply
	calls    []*pb.TaskRequest
	callIdx  int
}

func (s *scriptedSource) GetTask(ctx context.Context, req *pb.TaskRequest) (*pb.TaskReply, error) {
	s.calls = append(s.calls, req)
	reply := s.replies[s.callIdx]
	if s.callIdx < len(s.replies)-1 {
		s.callIdx++
	}
	return reply, nil
}

func TestWorkerRunsUntilFini(t *testing.T) {
	src := &scriptedSource{replies: []*pb.TaskReply{
		{Cmd: "echo", File: "a", MaxTime: 0, TaskNum: 1},
		{Cmd: "echo", File: "b", MaxTime: 0.1, TaskNum: 2},
		pb.Fini(2),
	}}

	var stdout, stderr bytes.Buffer
	w := New(Config{Hostname: "node1", Index: 0, JobTime: 3600}, src, &stdout, &stderr)

	var reports []types.Report
	w.OnReport(func(r types.Report) { reports = append(reports, r) })

	err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, len(reports))
	assert.Equal(t, types.ModeRan, reports[0].Mode)
	assert.Equal(t, types.ModeRan, reports[1].Mode)
	assert.Contains(t, stdout.String(), "Task:1:node1_0:Ran")
}

func TestWorkerLatchesTimeupAndNeverReverts(t *testing.T) {
	// A jobtime so small that the very first reply already fails admission.
	src := &scriptedSource{replies: []*pb.TaskReply{
		{Cmd: "sleep", File: "1", MaxTime: 1000, TaskNum: 1},
		pb.Fini(1),
	}}

	var stdout, stderr bytes.Buffer
	w := New(Config{Hostname: "node1", Index: 1, JobTime: 1}, src, &stdout, &stderr)

	var reports []types.Report
	w.OnReport(func(r types.Report) { reports = append(reports, r) })

	err := w.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, len(reports))
	assert.Equal(t, types.ModeSkipped, reports[0].Mode)
	assert.True(t, w.timeup)

	// The second request (which triggered FINI) must have carried maxtime < 0.
	require.Equal(t, 2, len(src.calls))
	assert.Less(t, src.calls[1].MaxTime, 0.0)
}

func TestWorkerIdentity(t *testing.T) {
	src := &scriptedSource{replies: []*pb.TaskReply{pb.Fini(0)}}
	var stdout, stderr bytes.Buffer
	w := New(Config{Hostname: "nodeA", Index: 3}, src, &stdout, &stderr)
	assert.Equal(t, "nodeA_3", w.ID())
}

func TestRunShellSuccessWhenStderrEmpty(t *testing.T) {
	result := runShell("echo hello")
	assert.True(t, result.success)
	assert.Contains(t, strings.Join(result.stdout, "\n"), "hello")
}

func TestRunShellFailureWhenStderrNonEmpty(t *testing.T) {
	result := runShell("echo oops 1>&2")
	assert.False(t, result.success)
	assert.Contains(t, strings.Join(result.stderr, "\n"), "oops")
}

func TestJobTimeDefaultsToOneDay(t *testing.T) {
	// A Config without JobTime falls back to DefaultJobTime (one day).
	w := New(Config{Hostname: "node1", Index: 0}, &scriptedSource{replies: []*pb.TaskReply{pb.Fini(0)}}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, float64(DefaultJobTime), w.jobtime)
}
