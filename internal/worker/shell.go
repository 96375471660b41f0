package worker

import (
	"os/exec"
	"strings"
)

// shellResult mirrors the original implementation's 3-tuple: a success
// flag, stdout split into lines, and stderr split into lines.
type shellResult struct {
	success bool
	stdout  []string
	stderr  []string
}

// runShell invokes cmd through the platform shell, capturing stdout and
// stderr in full. Success is defined as "stderr came back empty" rather
// than trusting the child's exit code, since the controller cannot assume
// arbitrary user scripts report status via exit codes.
func runShell(cmd string) shellResult {
	c := exec.Command("sh", "-c", cmd)
	var stdout, stderr strings.Builder
	c.Stdout = &stdout
	c.Stderr = &stderr

	_ = c.Run() // exit status is deliberately ignored; see success rule below

	stderrText := stderr.String()
	return shellResult{
		success: stderrText == "",
		stdout:  splitLines(stdout.String()),
		stderr:  splitLines(stderrText),
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
