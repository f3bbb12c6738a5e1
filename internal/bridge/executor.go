package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// CommandRecord describes one executed command for the journal.
type CommandRecord struct {
	Namespace protocol.Namespace
	Request   json.RawMessage
	OK        bool
	Kind      FailureKind
	Error     string
	Duration  time.Duration
	At        time.Time
}

// Journal receives a record of every executed command.
type Journal interface {
	RecordCommand(ctx context.Context, rec CommandRecord) error
}

// Executor sends typed commands across the transport and resolves their
// responses. It never retries and has no timeout of its own.
//
// Thread Safety: All methods are safe for concurrent use.
type Executor struct {
	transport Transport

	mu      sync.RWMutex
	logger  Logger
	journal Journal
}

// NewExecutor creates an executor bound to a transport.
func NewExecutor(t Transport) *Executor {
	return &Executor{transport: t, logger: noopLogger{}}
}

// SetLogger sets the logger for command tracing.
func (e *Executor) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	e.mu.Lock()
	e.logger = logger
	e.mu.Unlock()
}

// SetJournal sets the journal that records executed commands.
func (e *Executor) SetJournal(j Journal) {
	e.mu.Lock()
	e.journal = j
	e.mu.Unlock()
}

// Execute validates, sends and decodes a command. Failures are reported
// in the result; no error or panic escapes.
func Execute[R any](ctx context.Context, e *Executor, cmd protocol.Command[R]) Result[R] {
	raw, kind, err := e.roundTrip(ctx, cmd)
	if err != nil {
		return failure[R](cmd, kind, err)
	}

	v, err := protocol.DecodeResult(cmd, raw)
	if err != nil {
		return failure[R](cmd, FailureProtocol, fmt.Errorf("%w: %w", ErrTransport, err))
	}
	return success(cmd, v)
}

// Dispatch executes a request whose response type is not known at compile
// time, such as a command decoded from the wire. The result holds the raw
// response payload.
func (e *Executor) Dispatch(ctx context.Context, req protocol.Request) Result[json.RawMessage] {
	raw, kind, err := e.roundTrip(ctx, req)
	if err != nil {
		return failure[json.RawMessage](req, kind, err)
	}
	if raw == nil {
		return success[json.RawMessage](req, nil)
	}
	return success(req, &raw)
}

// roundTrip runs validate, marshal, send and response check, and records
// the outcome.
func (e *Executor) roundTrip(ctx context.Context, req protocol.Request) (json.RawMessage, FailureKind, error) {
	if req == nil {
		return nil, FailureValidation, fmt.Errorf("%w: nil command", ErrValidation)
	}

	start := time.Now()
	ns := req.Namespace()

	raw, body, kind, err := e.send(ctx, req)

	e.record(ctx, CommandRecord{
		Namespace: ns,
		Request:   body,
		OK:        err == nil,
		Kind:      kind,
		Error:     errString(err),
		Duration:  time.Since(start),
		At:        start.UTC(),
	})

	logger := e.log()
	if err != nil {
		logger.Warn("command failed", "namespace", ns, "kind", kind, "error", err)
		return nil, kind, err
	}
	logger.Debug("command executed", "namespace", ns, "duration", time.Since(start))
	return raw, "", nil
}

func (e *Executor) send(ctx context.Context, req protocol.Request) (raw, body json.RawMessage, kind FailureKind, err error) {
	if err := req.Validate(); err != nil {
		return nil, nil, FailureValidation, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	body, err = protocol.Marshal(req)
	if err != nil {
		return nil, nil, FailureEncoding, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	reply, err := e.call(ctx, body)
	if err != nil {
		return nil, body, FailureTransport, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	raw, err = protocol.DecodeResponse(req.Namespace(), reply)
	if err != nil {
		return nil, body, FailureProtocol, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return raw, body, "", nil
}

// call invokes the transport and converts a panic into an error.
func (e *Executor) call(ctx context.Context, body []byte) (reply []byte, err error) {
	if e.transport == nil {
		return nil, errors.New("no transport")
	}
	defer func() {
		if r := recover(); r != nil {
			reply = nil
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return e.transport.SendCommand(ctx, body)
}

func (e *Executor) record(ctx context.Context, rec CommandRecord) {
	e.mu.RLock()
	j := e.journal
	e.mu.RUnlock()
	if j == nil {
		return
	}
	if err := j.RecordCommand(context.WithoutCancel(ctx), rec); err != nil {
		e.log().Warn("journal write failed", "namespace", rec.Namespace, "error", err)
	}
}

func (e *Executor) log() Logger {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.logger
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
