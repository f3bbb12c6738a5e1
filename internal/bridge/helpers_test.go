package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// scriptTransport records commands and answers them with handle, or by
// echoing the command back when handle is nil.
type scriptTransport struct {
	mu       sync.Mutex
	sent     []string
	handle   func(ctx context.Context, cmd []byte) ([]byte, error)
	handlers map[int]func([]byte)
	nextID   int
}

func newScriptTransport() *scriptTransport {
	return &scriptTransport{handlers: make(map[int]func([]byte))}
}

func (s *scriptTransport) SendCommand(ctx context.Context, cmd []byte) ([]byte, error) {
	s.mu.Lock()
	s.sent = append(s.sent, string(cmd))
	h := s.handle
	s.mu.Unlock()

	if h == nil {
		return cmd, nil
	}
	return h(ctx, cmd)
}

func (s *scriptTransport) OnEvent(fn func([]byte)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.handlers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

func (s *scriptTransport) setHandle(h func(ctx context.Context, cmd []byte) ([]byte, error)) {
	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()
}

func (s *scriptTransport) emit(payload string) {
	s.mu.Lock()
	var fns []func([]byte)
	for _, fn := range s.handlers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn([]byte(payload))
	}
}

func (s *scriptTransport) sentCommands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *scriptTransport) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// commandType returns the namespace of a flattened command.
func commandType(t *testing.T, cmd []byte) string {
	t.Helper()
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(cmd, &head); err != nil {
		t.Errorf("command %s is not JSON: %v", cmd, err)
	}
	return head.Type
}

// recordingJournal collects command records.
type recordingJournal struct {
	mu      sync.Mutex
	records []CommandRecord
	err     error
}

func (j *recordingJournal) RecordCommand(_ context.Context, rec CommandRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return j.err
}

func (j *recordingJournal) all() []CommandRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]CommandRecord(nil), j.records...)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
