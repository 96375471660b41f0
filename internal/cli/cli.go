// ============================================================================
// Task-Farm CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra-based command tree for the three processes that make up a
// task-farm run (dispatch, work) plus convenience/inspection commands
// (launch, status).
//
// Command Structure:
//   taskfarm
//   ├── dispatch       # Run the dispatcher: owns the task list, drives drain
//   │   ├── --port, --cmd, --inputs, --allworkers, --start
//   ├── work           # Run one node's worker processes
//   │   ├── --mothersuperior, --port, --count, --time
//   ├── launch         # Convenience: spawn dispatcher + workers locally
//   └── status         # Query a running dispatcher's status endpoint
//
// Signal Handling:
//   dispatch and work both capture SIGINT/SIGTERM and stop gracefully: the
//   dispatcher closes its gRPC listener within its linger window; workers
//   finish the shell task they are running, while an in-flight or later
//   GetTask call is cancelled and the worker returns that error.
//
// ============================================================================

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lsu-cct/taskfarm/internal/dispatcher"
	"github.com/lsu-cct/taskfarm/internal/launcher"
	"github.com/lsu-cct/taskfarm/internal/metrics"
	"github.com/lsu-cct/taskfarm/internal/timeutil"
	"github.com/lsu-cct/taskfarm/internal/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var log = slog.Default()

// BuildCLI assembles the root command and every subcommand.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskfarm",
		Short: "taskfarm: a lightweight distributed task-farm controller for HPC batch jobs",
		Long: `taskfarm hands out independent, file-parameterized shell commands to a
fleet of worker processes, tracks the longest observed task runtime, and
gracefully drains the workforce when the allocation's wall-clock budget can
no longer safely fit another task.`,
	}

	rootCmd.AddCommand(buildDispatchCommand())
	rootCmd.AddCommand(buildWorkCommand())
	rootCmd.AddCommand(buildLaunchCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

func buildDispatchCommand() *cobra.Command {
	var (
		port          int
		cmd           string
		inputsPath    string
		allWorkers    int
		start         int
		metricsPort   int
		metricsOn     bool
	)

	c := &cobra.Command{
		Use:   "dispatch",
		Short: "Run the dispatcher for one task-farm run",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDispatcher(dispatchOptions{
				Port:        port,
				Cmd:         cmd,
				InputsPath:  inputsPath,
				AllWorkers:  allWorkers,
				Start:       start,
				MetricsPort: metricsPort,
				MetricsOn:   metricsOn,
			})
		},
	}

	c.Flags().IntVar(&port, "port", 5555, "listening port")
	c.Flags().StringVar(&cmd, "cmd", "", "command template applied to each task (required)")
	c.Flags().StringVar(&inputsPath, "inputs", "", "path to the input list file (required)")
	c.Flags().IntVar(&allWorkers, "allworkers", 1, "total worker count across all nodes")
	c.Flags().IntVar(&start, "start", 1, "1-based index of the first task to hand out")
	c.Flags().IntVar(&metricsPort, "metrics-port", 9090, "port for Prometheus metrics and status")
	c.Flags().BoolVar(&metricsOn, "metrics", true, "expose Prometheus metrics and a status endpoint")
	c.MarkFlagRequired("cmd")
	c.MarkFlagRequired("inputs")

	return c
}

type dispatchOptions struct {
	Port        int
	Cmd         string
	InputsPath  string
	AllWorkers  int
	Start       int
	MetricsPort int
	MetricsOn   bool
}

func runDispatcher(opts dispatchOptions) error {
	files, err := readInputList(opts.InputsPath)
	if err != nil {
		return err
	}

	cfg := dispatcher.Config{
		Port:       opts.Port,
		Cmd:        opts.Cmd,
		Files:      files,
		AllWorkers: opts.AllWorkers,
		Start:      opts.Start,
	}

	var recorder dispatcher.Recorder
	var collector *metrics.DispatcherCollector
	if opts.MetricsOn {
		collector = metrics.NewDispatcherCollector()
		recorder = collector
	}

	d, err := dispatcher.New(cfg, recorder)
	if err != nil {
		return err
	}

	server, err := dispatcher.NewGRPCServer(d)
	if err != nil {
		return err
	}

	if opts.MetricsOn {
		go serveStatusAndMetrics(opts.MetricsPort, d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- d.Run(ctx) }()

	serveErrCh := make(chan error, 1)
	go func() { serveErrCh <- server.Serve() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runReturned := false
	select {
	case <-sigCh:
		cancel()
	case err := <-runErrCh:
		if err != nil {
			cancel()
			server.Shutdown(context.Background())
			return err
		}
		runReturned = true
	case err := <-serveErrCh:
		cancel()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), dispatcher.DefaultLinger+time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
	if !runReturned {
		<-runErrCh
	}
	return nil
}

// readInputList reads one parameter per line, stripping trailing whitespace.
// Blank lines are passed through verbatim rather than filtered: the choice
// the spec leaves open, resolved here because a blank parameter line is
// still a legitimate (if useless) task in an operator-authored input list.
func readInputList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cli: open input list: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, trimTrailingWhitespace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cli: read input list: %w", err)
	}
	return lines, nil
}

func trimTrailingWhitespace(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\r') {
		end--
	}
	return s[:end]
}

func serveStatusAndMetrics(port int, d *dispatcher.Dispatcher) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := d.Status()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state":         status.State.String(),
			"tasknum":       status.TaskNum,
			"maxtime":       status.MaxTime,
			"known_workers": status.KnownWorkers,
			"lasttask":      status.LastTask,
		})
	})
	addr := fmt.Sprintf(":%d", port)
	log.Info("metrics and status listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("status/metrics server exited", "error", err)
	}
}

func buildWorkCommand() *cobra.Command {
	var (
		mothersuperior string
		port           int
		count          int
		wallTime       string
		index          int
	)

	c := &cobra.Command{
		Use:   "work",
		Short: "Run worker processes against a dispatcher",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runWorkers(mothersuperior, port, count, wallTime, index)
		},
	}

	c.Flags().StringVar(&mothersuperior, "mothersuperior", "", "dispatcher host name (required)")
	c.Flags().IntVar(&port, "port", 5555, "dispatcher port")
	c.Flags().IntVar(&count, "count", 1, "number of workers to run in this process")
	c.Flags().StringVar(&wallTime, "time", "", "wall-time budget (ss, mm:ss, hh:mm:ss, d:hh:mm:ss); default one day")
	c.Flags().IntVar(&index, "index", 0, "starting per-node worker index")
	c.MarkFlagRequired("mothersuperior")

	return c
}

func runWorkers(mothersuperior string, port, count int, wallTime string, startIndex int) error {
	jobtime := float64(worker.DefaultJobTime)
	if wallTime != "" {
		secs, err := timeutil.ParseDuration(wallTime)
		if err != nil {
			return err
		}
		jobtime = float64(secs)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("cli: hostname: %w", err)
	}

	if count <= 0 {
		return fmt.Errorf("cli: worker count must be positive, got %d", count)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	errCh := make(chan error, count)
	for i := 0; i < count; i++ {
		src, err := worker.DialDispatcher(mothersuperior, port)
		if err != nil {
			cancel()
			return err
		}
		w := worker.New(worker.Config{Hostname: hostname, Index: startIndex + i, JobTime: jobtime}, src, os.Stdout, os.Stderr)
		go func(src *worker.GrpcTaskSource) {
			defer src.Close()
			errCh <- w.Run(ctx)
		}(src)
	}

	var firstErr error
	for i := 0; i < count; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildLaunchCommand() *cobra.Command {
	var (
		binaryPath string
		port       int
		cmd        string
		inputsPath string
		allWorkers int
		start      int
		workerHost string
		localCount int
		wallTime   string
	)

	c := &cobra.Command{
		Use:   "launch",
		Short: "Spawn a dispatcher and local workers as separate processes",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := launcher.SpawnDispatcher(launcher.DispatcherSpec{
				BinaryPath: binaryPath,
				Port:       port,
				Cmd:        cmd,
				InputsPath: inputsPath,
				AllWorkers: allWorkers,
				Start:      start,
			})
			if err != nil {
				return err
			}

			host := workerHost
			if host == "" {
				var err error
				host, err = os.Hostname()
				if err != nil {
					return err
				}
			}

			addr, err := launcher.ResolveHost(host)
			if err != nil {
				return err
			}

			_, err = launcher.SpawnWorkers(launcher.WorkerSpec{
				BinaryPath:     binaryPath,
				Count:          localCount,
				MotherSuperior: addr,
				Port:           port,
				WallTime:       wallTime,
			})
			return err
		},
	}

	c.Flags().StringVar(&binaryPath, "binary", os.Args[0], "path to the taskfarm binary to re-exec")
	c.Flags().IntVar(&port, "port", 5555, "dispatcher port")
	c.Flags().StringVar(&cmd, "cmd", "", "command template (required)")
	c.Flags().StringVar(&inputsPath, "inputs", "", "input list path (required)")
	c.Flags().IntVar(&allWorkers, "allworkers", 1, "total worker count")
	c.Flags().IntVar(&start, "start", 1, "1-based start index")
	c.Flags().StringVar(&workerHost, "mothersuperior", "", "dispatcher host name (defaults to this host)")
	c.Flags().IntVar(&localCount, "count", 1, "number of local worker processes to spawn")
	c.Flags().StringVar(&wallTime, "time", "", "wall-time budget for spawned workers")
	c.MarkFlagRequired("cmd")
	c.MarkFlagRequired("inputs")

	return c
}

func buildStatusCommand() *cobra.Command {
	var host string
	var port int

	c := &cobra.Command{
		Use:   "status",
		Short: "Query a running dispatcher's status endpoint",
		RunE: func(_ *cobra.Command, _ []string) error {
			return showStatus(host, port)
		},
	}

	c.Flags().StringVar(&host, "host", "localhost", "dispatcher status host")
	c.Flags().IntVar(&port, "port", 9090, "dispatcher status/metrics port")

	return c
}

func showStatus(host string, port int) error {
	url := fmt.Sprintf("http://%s/status", hostPort(host, port))
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("cli: query status: %w", err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("cli: decode status: %w", err)
	}

	fmt.Println("Task-Farm Dispatcher Status")
	fmt.Println("===========================")
	for _, key := range []string{"state", "tasknum", "maxtime", "known_workers", "lasttask"} {
		fmt.Printf("  %-14s %v\n", key+":", payload[key])
	}
	return nil
}

func hostPort(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}
