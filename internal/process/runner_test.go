package process

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(Config{})

	if r.config.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", r.config.Timeout, DefaultTimeout)
	}
	if r.config.GracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("GracefulTimeout = %v, want %v", r.config.GracefulTimeout, DefaultGracefulTimeout)
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		binary  string
		want    bool
	}{
		{"empty list allows all", nil, "/bin/echo", true},
		{"listed", []string{"/bin/echo"}, "/bin/echo", true},
		{"not listed", []string{"/bin/echo"}, "/bin/sh", false},
		{"base name does not match", []string{"echo"}, "/bin/echo", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(Config{AllowedCommands: tt.allowed})
			if got := r.Allowed(tt.binary); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.binary, got, tt.want)
			}
		})
	}
}

func TestRun_Success(t *testing.T) {
	r := NewRunner(Config{})

	res, err := r.Run(context.Background(), "edit/1", "/bin/echo", []string{"hello"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if res.Output != "hello\n" {
		t.Errorf("Output = %q, want %q", res.Output, "hello\n")
	}
	if res.PID == 0 {
		t.Error("PID = 0, want the child pid")
	}

	stats := r.Stats()
	if stats.Started != 1 || stats.Succeeded != 1 || stats.Running != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	r := NewRunner(Config{})

	res, err := r.Run(context.Background(), "fail", "/bin/sh", []string{"-c", "echo oops >&2; exit 3"})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("Run() error = %v, want ErrFailed", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(res.Output, "oops") {
		t.Errorf("Output = %q, want stderr captured", res.Output)
	}
	if r.Stats().Failed != 1 {
		t.Errorf("Failed = %d, want 1", r.Stats().Failed)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	r := NewRunner(Config{})

	_, err := r.Run(context.Background(), "missing", "/nonexistent/binary", nil)
	if !errors.Is(err, ErrFailed) {
		t.Errorf("Run() error = %v, want ErrFailed", err)
	}
	if s := r.Stats(); s.Started != 0 || s.Failed != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestRun_NotAllowed(t *testing.T) {
	r := NewRunner(Config{AllowedCommands: []string{"/bin/true"}})

	_, err := r.Run(context.Background(), "x", "/bin/echo", nil)
	if !errors.Is(err, ErrNotAllowed) {
		t.Errorf("Run() error = %v, want ErrNotAllowed", err)
	}
	_, err = r.Run(context.Background(), "x", "", nil)
	if !errors.Is(err, ErrNotAllowed) {
		t.Errorf("Run(\"\") error = %v, want ErrNotAllowed", err)
	}
}

func TestRun_Timeout(t *testing.T) {
	r := NewRunner(Config{Timeout: 50 * time.Millisecond, GracefulTimeout: time.Second})

	start := time.Now()
	res, err := r.Run(context.Background(), "slow", "/bin/sleep", []string{"10"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Run() took %v, want prompt termination", elapsed)
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1 for a signalled process", res.ExitCode)
	}
	if r.Stats().TimedOut != 1 {
		t.Errorf("TimedOut = %d, want 1", r.Stats().TimedOut)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	r := NewRunner(Config{GracefulTimeout: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, "slow", "/bin/sleep", []string{"10"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestStart_OnExit(t *testing.T) {
	var (
		mu      sync.Mutex
		results []Result
	)
	done := make(chan struct{})
	r := NewRunner(Config{OnExit: func(res Result) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		close(done)
	}})

	if err := r.Start(context.Background(), "bg", "/bin/echo", []string{"bg"}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("OnExit not called")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0].Name != "bg" || results[0].Output != "bg\n" {
		t.Errorf("results = %+v", results)
	}
}

func TestStop_TerminatesRunning(t *testing.T) {
	r := NewRunner(Config{GracefulTimeout: time.Second})

	if err := r.Start(context.Background(), "long", "/bin/sleep", []string{"10"}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.Stats().Running == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if r.Stats().Running != 1 {
		t.Fatal("command never started")
	}

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return")
	}

	if s := r.Stats(); s.Running != 0 || s.Failed != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if err := r.Start(context.Background(), "late", "/bin/true", nil); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
	}
	r.Stop()
}

func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{max: 4}

	n, err := b.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Errorf("Write() = %d, %v, want 6, nil", n, err)
	}
	_, _ = b.Write([]byte("gh"))

	if got := b.String(); got != "abcd" {
		t.Errorf("String() = %q, want %q", got, "abcd")
	}
}
