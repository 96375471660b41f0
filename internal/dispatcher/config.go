package dispatcher

// Config holds the startup inputs the dispatcher needs before it can bind
// its socket: the command template, the ordered parameter lines, and the
// worker-count/start-index bookkeeping that lets an operator resume a
// partial run.
type Config struct {
	// Port is the listening port for the hand-written gRPC service.
	Port int
	// Cmd is the process-wide command template handed back verbatim in
	// every non-FINI reply.
	Cmd string
	// Files is the ordered list of parameter lines, one per task.
	Files []string
	// AllWorkers is the total worker count across every node, used to size
	// the drain phase.
	AllWorkers int
	// Start is the 1-based index of the first task to hand out. Defaults
	// to 1 when zero.
	Start int
}

// Validate applies the configuration-error taxonomy from the wire protocol:
// an empty file list, a start index past the end of the list, or a
// non-positive worker count are all rejected before any socket is opened.
func (c *Config) Validate() error {
	if c.Start == 0 {
		c.Start = 1
	}
	if len(c.Files) == 0 {
		return &ConfigError{Reason: "input list is empty"}
	}
	if c.Start > len(c.Files) {
		return &ConfigError{Reason: "start index exceeds task count"}
	}
	if c.Start < 1 {
		return &ConfigError{Reason: "start index must be >= 1"}
	}
	if c.AllWorkers <= 0 {
		return &ConfigError{Reason: "allworkers must be positive"}
	}
	return nil
}
