package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"sync"
	"syscall"
	"time"
)

// Defaults applied by NewRunner to zero Config fields.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultGracefulTimeout = 5 * time.Second
)

// outputBufferSize caps the captured stdout/stderr of one run.
const outputBufferSize = 4096

// Sentinel errors returned by Run and Start.
var (
	ErrNotAllowed = errors.New("process: command not allowed")
	ErrStopped    = errors.New("process: runner stopped")
	ErrTimeout    = errors.New("process: timed out")
	ErrFailed     = errors.New("process: command failed")
)

// Config holds settings shared by every run.
type Config struct {
	// Timeout bounds a single run. The process group is terminated when it
	// expires.
	Timeout time.Duration

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration

	// AllowedCommands restricts which executables may be started, by exact
	// path. Empty allows any.
	AllowedCommands []string

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// WorkDir is the working directory for the process.
	// If empty, inherits from parent process.
	WorkDir string

	// OnExit is called after every run that started.
	OnExit func(Result)
}

// Result describes one finished run.
type Result struct {
	Name     string        `json:"name"`
	Binary   string        `json:"binary"`
	PID      int           `json:"pid"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Stats counts runs since the runner was created.
type Stats struct {
	Started   int `json:"started"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	TimedOut  int `json:"timed_out"`
	Running   int `json:"running"`
}

// Logger defines the logging interface for the runner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Runner starts short-lived commands bound to pad keys. Each run gets its
// own process group so the whole tree is signalled on timeout or Stop.
//
// Thread Safety: All methods are safe for concurrent use.
type Runner struct {
	config Config
	logger Logger

	mu      sync.Mutex
	running map[int]string
	stats   Stats
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewRunner creates a runner with the given configuration.
func NewRunner(cfg Config) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.GracefulTimeout <= 0 {
		cfg.GracefulTimeout = DefaultGracefulTimeout
	}
	return &Runner{
		config:  cfg,
		logger:  noopLogger{},
		running: make(map[int]string),
		stopCh:  make(chan struct{}),
	}
}

// SetLogger sets the logger for the runner. Call before the first run.
func (r *Runner) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Allowed reports whether binary may be started.
func (r *Runner) Allowed(binary string) bool {
	if len(r.config.AllowedCommands) == 0 {
		return true
	}
	return slices.Contains(r.config.AllowedCommands, binary)
}

// Run executes binary and waits for it to exit, time out, or for ctx to
// end. A non-zero exit is reported as ErrFailed along with the Result.
func (r *Runner) Run(ctx context.Context, name, binary string, args []string) (Result, error) {
	if err := r.begin(binary); err != nil {
		return Result{Name: name, Binary: binary}, err
	}
	defer r.wg.Done()
	return r.execute(ctx, name, binary, args)
}

// Start runs binary in the background. Only admission errors are
// returned; the outcome goes to Config.OnExit and the log.
func (r *Runner) Start(ctx context.Context, name, binary string, args []string) error {
	if err := r.begin(binary); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer r.wg.Done()
		//nolint:errcheck // outcome is reported through OnExit
		r.execute(ctx, name, binary, args)
	}()
	return nil
}

// Stop terminates every running command and waits for them to exit.
// Later calls to Run and Start fail with ErrStopped.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.stopCh)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Stats returns the current run counters.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.Running = len(r.running)
	return s
}

func (r *Runner) begin(binary string) error {
	if binary == "" {
		return fmt.Errorf("%w: empty command", ErrNotAllowed)
	}
	if !r.Allowed(binary) {
		return fmt.Errorf("%w: %s", ErrNotAllowed, binary)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrStopped
	}
	r.wg.Add(1)
	return nil
}

func (r *Runner) execute(ctx context.Context, name, binary string, args []string) (Result, error) {
	res := Result{Name: name, Binary: binary}

	cmd := exec.Command(binary, args...) //nolint:gosec // binary is checked against AllowedCommands

	// New process group so the whole tree can be signalled.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if r.config.Env != nil {
		cmd.Env = append(os.Environ(), r.config.Env...)
	}
	if r.config.WorkDir != "" {
		cmd.Dir = r.config.WorkDir
	}
	out := &cappedBuffer{max: outputBufferSize}
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	if err := cmd.Start(); err != nil {
		err = fmt.Errorf("%w: starting %s: %w", ErrFailed, name, err)
		r.logger.Warn("action failed to start", "name", name, "binary", binary, "error", err)
		r.mu.Lock()
		r.stats.Failed++
		r.mu.Unlock()
		res.ExitCode = -1
		res.Error = err.Error()
		return res, err
	}

	pid := cmd.Process.Pid
	res.PID = pid
	r.mu.Lock()
	r.running[pid] = name
	r.stats.Started++
	r.mu.Unlock()

	r.logger.Info("action started", "name", name, "binary", binary, "pid", pid)

	exitCh := make(chan error, 1)
	go func() {
		exitCh <- cmd.Wait()
	}()

	timer := time.NewTimer(r.config.Timeout)
	defer timer.Stop()

	var err error
	select {
	case waitErr := <-exitCh:
		if waitErr != nil {
			err = fmt.Errorf("%w: %w", ErrFailed, waitErr)
		}
	case <-timer.C:
		r.terminate(name, pid, exitCh)
		err = fmt.Errorf("%w after %v", ErrTimeout, r.config.Timeout)
	case <-ctx.Done():
		r.terminate(name, pid, exitCh)
		err = ctx.Err()
	case <-r.stopCh:
		r.terminate(name, pid, exitCh)
		err = ErrStopped
	}

	res.Duration = time.Since(start)
	res.Output = out.String()
	res.ExitCode = -1
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	r.mu.Lock()
	delete(r.running, pid)
	switch {
	case err == nil:
		r.stats.Succeeded++
	case errors.Is(err, ErrTimeout):
		r.stats.TimedOut++
	default:
		r.stats.Failed++
	}
	r.mu.Unlock()

	if err != nil {
		res.Error = err.Error()
		r.logger.Warn("action failed", "name", name, "pid", pid, "exit_code", res.ExitCode, "error", err)
	} else {
		r.logger.Info("action finished", "name", name, "pid", pid, "duration", res.Duration)
	}
	if r.config.OnExit != nil {
		r.config.OnExit(res)
	}
	return res, err
}

// terminate sends SIGTERM to the process group, then SIGKILL after the
// graceful timeout, and waits for the exit to be reaped.
func (r *Runner) terminate(name string, pid int, exitCh <-chan error) {
	r.logger.Debug("terminating action", "name", name, "pid", pid)

	// Negative PID signals the process group created via Setpgid.
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		r.logger.Warn("failed to send SIGTERM to process group", "name", name, "error", err)
	}

	select {
	case <-exitCh:
		return
	case <-time.After(r.config.GracefulTimeout):
		r.logger.Warn("graceful shutdown timeout, sending SIGKILL", "name", name, "timeout", r.config.GracefulTimeout)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		r.logger.Error("killing process group", "name", name, "error", err)
	}
	<-exitCh
}

// cappedBuffer keeps the first max bytes written and discards the rest.
type cappedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
