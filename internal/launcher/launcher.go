// Package launcher spawns the dispatcher and worker processes that make up
// one task-farm run. It owns no protocol state of its own: it resolves the
// mother-superior hostname, validates the worker count, and execs child
// processes, then exits once every child has started.
package launcher

import (
	"fmt"
	"net"
	"os"
	"os/exec"
)

// DispatcherSpec describes how to launch the dispatcher process.
type DispatcherSpec struct {
	BinaryPath string
	Port       int
	Cmd        string
	InputsPath string
	AllWorkers int
	Start      int
}

// WorkerSpec describes how to launch one node's worker processes.
type WorkerSpec struct {
	BinaryPath      string
	Count           int
	MotherSuperior  string
	Port            int
	WallTime        string
}

// ResolveHost looks up the mother-superior hostname the way the original
// ipaddrs() helper did, returning its first resolvable IPv4/IPv6 address.
func ResolveHost(hostname string) (string, error) {
	addrs, err := net.LookupHost(hostname)
	if err != nil {
		return "", fmt.Errorf("launcher: resolve %q: %w", hostname, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("launcher: no addresses for %q", hostname)
	}
	return addrs[0], nil
}

// SpawnDispatcher starts exactly one dispatcher process and returns
// immediately; it does not wait for the process to exit.
func SpawnDispatcher(spec DispatcherSpec) (*exec.Cmd, error) {
	args := []string{
		"dispatch",
		"--port", fmt.Sprintf("%d", spec.Port),
		"--cmd", spec.Cmd,
		"--inputs", spec.InputsPath,
		"--allworkers", fmt.Sprintf("%d", spec.AllWorkers),
		"--start", fmt.Sprintf("%d", spec.Start),
	}
	cmd := exec.Command(spec.BinaryPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launcher: spawn dispatcher: %w", err)
	}
	return cmd, nil
}

// SpawnWorkers starts spec.Count worker processes on the local node, each
// given a distinct per-node index. It validates the count before spawning
// anything.
func SpawnWorkers(spec WorkerSpec) ([]*exec.Cmd, error) {
	if spec.Count <= 0 {
		return nil, fmt.Errorf("launcher: worker count must be positive, got %d", spec.Count)
	}
	if spec.MotherSuperior == "" {
		return nil, fmt.Errorf("launcher: mother-superior host is required")
	}

	cmds := make([]*exec.Cmd, 0, spec.Count)
	for i := 0; i < spec.Count; i++ {
		args := []string{
			"work",
			"--index", fmt.Sprintf("%d", i),
			"--mothersuperior", spec.MotherSuperior,
			"--port", fmt.Sprintf("%d", spec.Port),
		}
		if spec.WallTime != "" {
			args = append(args, "--time", spec.WallTime)
		}
		cmd := exec.Command(spec.BinaryPath, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			for _, started := range cmds {
				_ = started.Process.Kill()
			}
			return nil, fmt.Errorf("launcher: spawn worker %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
