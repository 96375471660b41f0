package worker

import (
	"fmt"
	"io"
	"strings"

	"github.com/lsu-cct/taskfarm/pkg/types"
)

// printReport renders a report in the line-oriented format the original
// dispatcher's operators scrape with plain text tools: one Task line, one
// Timings line, then the captured stdout/stderr bodies indented two spaces,
// blank lines dropped.
func printReport(stdout, stderr io.Writer, r types.Report) {
	fmt.Fprintf(stdout, "Task:%d:%s:%s:%t:%s\n", r.TaskNum, r.WorkerID, r.Mode, r.Success, r.Task)
	fmt.Fprintf(stdout, "Timings:%d:%s:%.2f:%.2f:%.2f:%.2f\n",
		r.TaskNum, r.WorkerID, r.TaskStart, r.TaskEnd, r.TaskTime, r.WallTime)

	fmt.Fprintf(stdout, "Stdout:%d:\n", r.TaskNum)
	for _, line := range r.Stdout {
		if strings.TrimSpace(line) != "" {
			fmt.Fprintf(stdout, "  %s\n", strings.TrimSpace(line))
		}
	}

	fmt.Fprintf(stderr, "Stderr:%d:\n", r.TaskNum)
	for _, line := range r.Stderr {
		if strings.TrimSpace(line) != "" {
			fmt.Fprintf(stderr, "  %s\n", strings.TrimSpace(line))
		}
	}
	fmt.Fprintln(stdout)
}
