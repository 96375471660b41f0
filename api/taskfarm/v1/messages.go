// Package taskfarmpb defines the wire messages and gRPC service for the
// dispatcher/worker request-reply protocol.
//
// There is no .proto file here: the service is hand-written directly against
// grpc's public codec and registration API (see codec.go, service.go) rather
// than generated by protoc, and the messages below are plain JSON-tagged Go
// structs instead of protobuf messages. See DESIGN.md for why.
package taskfarmpb

// FiniCmd is the sentinel command instructing a worker to terminate.
const FiniCmd = "FINI"

// NoneFile is the sentinel file value accompanying a FiniCmd reply.
const NoneFile = "None"

// TaskRequest is sent worker -> dispatcher on every iteration of the
// worker's main loop.
//
// MaxTime >= 0 means "I'm alive; the longest task I know of took MaxTime
// seconds; give me work." MaxTime < 0 means "I have decided I cannot safely
// run another task; record LastTask as the last task I actually executed or
// was assigned."
type TaskRequest struct {
	WorkerID string  `json:"worker_id"`
	MaxTime  float64 `json:"maxtime"`
	LastTask int64   `json:"lasttask"`
}

// TaskReply is sent dispatcher -> worker in response to a TaskRequest.
//
// If Cmd equals FiniCmd the worker must terminate; File is then NoneFile and
// MaxTime is -1.
type TaskReply struct {
	Cmd     string  `json:"cmd"`
	File    string  `json:"file"`
	MaxTime float64 `json:"maxtime"`
	TaskNum int64   `json:"tasknum"`
}

// Fini builds the termination reply carrying the dispatcher's current task
// counter, per the wire protocol's definition of a FINI reply.
func Fini(tasknum int64) *TaskReply {
	return &TaskReply{Cmd: FiniCmd, File: NoneFile, MaxTime: -1, TaskNum: tasknum}
}
