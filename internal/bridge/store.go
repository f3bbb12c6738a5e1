package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/ratpad-bridge/internal/pad"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// DefaultConnectTimeout bounds how long a successful serial.connect may
// wait for the pad's connect event before the attempt is abandoned.
const DefaultConnectTimeout = 10 * time.Second

// StateHandler receives a snapshot after every state change.
type StateHandler func(pad.AppState)

type watcher struct {
	id uint64
	fn StateHandler
}

// Store owns the application state: the connection state and the last
// configuration confirmed by the pad.
//
// The configuration is only ever replaced by a successful refresh; write
// operations issue their command and then re-query the pad. Connection
// changes come from pad events, except Waiting, which is entered when
// Connect issues serial.connect and left by the connect event, a
// disconnect event, a failed send or the connect timeout.
//
// Every connection change advances an epoch. A refresh that started in an
// earlier epoch, or that finishes after a newer refresh was applied, is
// discarded with ErrRefreshSuperseded.
//
// Thread Safety: All methods are safe for concurrent use. Watchers are
// called in order on a dedicated goroutine and may call back into the
// store.
type Store struct {
	exec        *Executor
	unsubscribe func()

	mu             sync.Mutex
	state          pad.AppState
	epoch          uint64
	refreshSeq     uint64
	appliedSeq     uint64
	attempt        uint64
	connectTimer   *time.Timer
	connectTimeout time.Duration
	closed         bool

	loggerMu sync.RWMutex
	logger   Logger

	watchMu   sync.RWMutex
	watchers  []watcher
	nextWatch uint64

	queueMu  sync.Mutex
	queue    []pad.AppState
	wake     chan struct{}
	stop     chan struct{}
	loopDone chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewStore creates a store in the initial state {Disconnected, nil} and
// subscribes it to events. events may be nil.
func NewStore(exec *Executor, events *EventChannel) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		exec:           exec,
		state:          pad.InitialAppState(),
		connectTimeout: DefaultConnectTimeout,
		logger:         noopLogger{},
		wake:           make(chan struct{}, 1),
		stop:           make(chan struct{}),
		loopDone:       make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
	go s.notifyLoop()

	if events != nil {
		s.unsubscribe = events.Subscribe(s.handleEvent)
	}
	return s
}

// SetLogger sets the logger for state transitions and background refreshes.
func (s *Store) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

// SetConnectTimeout changes the connect timeout. Zero disables it.
func (s *Store) SetConnectTimeout(d time.Duration) {
	s.mu.Lock()
	s.connectTimeout = d
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() pad.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Connection returns the current connection state.
func (s *Store) Connection() pad.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Connection
}

// Watch registers fn to receive a snapshot after each state change.
// The returned function removes it.
func (s *Store) Watch(fn StateHandler) (unwatch func()) {
	s.watchMu.Lock()
	s.nextWatch++
	id := s.nextWatch
	s.watchers = append(s.watchers, watcher{id: id, fn: fn})
	s.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.watchMu.Lock()
			defer s.watchMu.Unlock()
			for i, w := range s.watchers {
				if w.id == id {
					s.watchers = append(s.watchers[:i:i], s.watchers[i+1:]...)
					return
				}
			}
		})
	}
}

// UpdateState queries config.get_config and serial.get_state and replaces
// the stored configuration and connection state together. On failure the
// state is left untouched. A refresh never resolves Waiting.
func (s *Store) UpdateState(ctx context.Context) (*pad.AppConfig, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.refreshSeq++
	seq, epoch := s.refreshSeq, s.epoch
	s.mu.Unlock()

	cfgRes := Execute(ctx, s.exec, protocol.ConfigGetConfig{})
	if !cfgRes.OK {
		return nil, cfgRes.Err()
	}
	if cfgRes.Value == nil {
		return nil, ErrEmptyConfig
	}
	serialRes := Execute(ctx, s.exec, protocol.SerialGetState{})
	if !serialRes.OK {
		return nil, serialRes.Err()
	}

	cfg := cfgRes.Value.Config.Clone()

	s.mu.Lock()
	if s.epoch != epoch || s.appliedSeq > seq {
		s.mu.Unlock()
		s.log().Debug("refresh discarded", "seq", seq)
		return nil, ErrRefreshSuperseded
	}
	s.appliedSeq = seq
	stored := cfg.Clone()
	s.state.Config = &stored
	if serialRes.Value != nil && s.state.Connection != pad.Waiting {
		if serialRes.Value.Connected {
			s.state.Connection = pad.Connected
		} else {
			s.state.Connection = pad.Disconnected
		}
	}
	s.publishLocked()
	s.mu.Unlock()

	s.log().Debug("configuration refreshed", "modes", cfg.ModeKeys())
	return &cfg, nil
}

// Connect issues serial.connect. The state is Waiting when Connect
// returns successfully and becomes Connected on the pad's connect event.
// If the command fails the state reverts to Disconnected.
func (s *Store) Connect(ctx context.Context, port string, rate uint32) error {
	req := protocol.SerialConnect{Port: port, Rate: rate}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state.Connection == pad.Waiting {
		s.mu.Unlock()
		return ErrConnectInFlight
	}
	s.attempt++
	attempt := s.attempt
	s.setConnectionLocked(pad.Waiting)
	s.mu.Unlock()

	s.log().Info("connecting to pad", "port", port, "rate", rate)

	res := Execute(ctx, s.exec, req)
	if !res.OK {
		s.abandonAttempt(attempt, "connect failed")
		return res.Err()
	}
	s.armConnectTimeout(attempt)
	return nil
}

// Disconnect issues serial.disconnect. The state changes when the
// disconnect event arrives.
func (s *Store) Disconnect(ctx context.Context) error {
	return run(ctx, s.exec, protocol.SerialDisconnect{})
}

// ListPorts returns the serial ports visible to the transport.
func (s *Store) ListPorts(ctx context.Context) ([]pad.PortInfo, error) {
	res := Execute(ctx, s.exec, protocol.SerialListPorts{})
	if !res.OK {
		return nil, res.Err()
	}
	if res.Value == nil {
		return []pad.PortInfo{}, nil
	}
	return *res.Value, nil
}

// WriteMode stores a mode on the pad and re-queries the configuration.
func (s *Store) WriteMode(ctx context.Context, mode pad.ModeConfig) (*pad.AppConfig, error) {
	if err := run(ctx, s.exec, protocol.ConfigWriteMode{Mode: mode}); err != nil {
		return nil, err
	}
	return s.requery(ctx)
}

// WriteModes validates the whole batch, including key uniqueness, before
// writing anything, then writes the modes in order. It stops at the first
// failed write.
func (s *Store) WriteModes(ctx context.Context, modes []pad.ModeConfig) (*pad.AppConfig, error) {
	if err := pad.ValidateModes(modes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	for _, m := range modes {
		if err := run(ctx, s.exec, protocol.ConfigWriteMode{Mode: m}); err != nil {
			if _, rerr := s.requery(ctx); rerr != nil {
				s.log().Warn("refresh after failed batch write failed", "error", rerr)
			}
			return nil, fmt.Errorf("write mode %q: %w", m.Key, err)
		}
	}
	return s.requery(ctx)
}

// DeleteMode removes a mode and re-queries the configuration. When the
// configuration is known, an unknown key fails with pad.ErrModeNotFound
// without contacting the pad.
func (s *Store) DeleteMode(ctx context.Context, key string) (*pad.AppConfig, error) {
	if err := s.checkModeKnown(key); err != nil {
		return nil, err
	}
	if err := run(ctx, s.exec, protocol.ConfigDeleteMode{Key: key}); err != nil {
		return nil, err
	}
	return s.requery(ctx)
}

// ClearModes removes every mode and re-queries the configuration.
func (s *Store) ClearModes(ctx context.Context) (*pad.AppConfig, error) {
	if err := run(ctx, s.exec, protocol.ConfigClearModes{}); err != nil {
		return nil, err
	}
	return s.requery(ctx)
}

// SetColor assigns a navigation color or the brightness and re-queries
// the configuration.
func (s *Store) SetColor(ctx context.Context, req protocol.PadSetColor) (*pad.AppConfig, error) {
	if err := run(ctx, s.exec, req); err != nil {
		return nil, err
	}
	return s.requery(ctx)
}

// SetMode activates a mode on the pad.
func (s *Store) SetMode(ctx context.Context, key string) error {
	if err := s.checkModeKnown(key); err != nil {
		return err
	}
	return run(ctx, s.exec, protocol.PadSetMode{Mode: key})
}

// SetHome returns the pad to its home screen.
func (s *Store) SetHome(ctx context.Context) error {
	return run(ctx, s.exec, protocol.PadSetHome{})
}

// Close detaches from events, waits for background refreshes and stops
// watcher delivery after flushing pending snapshots.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		if s.connectTimer != nil {
			s.connectTimer.Stop()
			s.connectTimer = nil
		}
		s.mu.Unlock()

		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.cancel()
		s.wg.Wait()

		close(s.stop)
		<-s.loopDone
	})
}

func (s *Store) handleEvent(e protocol.Event) {
	switch {
	case e.IsConnect():
		s.transition(pad.Connected)
		s.refreshAsync("connect")
	case e.IsDisconnect():
		s.transition(pad.Disconnected)
	case e.IsConfigChange():
		s.refreshAsync("config")
	}
}

func (s *Store) transition(to pad.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
	from := s.state.Connection
	s.setConnectionLocked(to)
	if from != to {
		s.log().Info("pad connection changed", "from", from, "to", to)
	}
}

// setConnectionLocked advances the epoch and publishes if the state
// changed. s.mu must be held.
func (s *Store) setConnectionLocked(to pad.ConnectionState) {
	s.epoch++
	if s.state.Connection == to {
		return
	}
	s.state.Connection = to
	s.publishLocked()
}

// abandonAttempt reverts Waiting to Disconnected if attempt is still the
// current connect attempt.
func (s *Store) abandonAttempt(attempt uint64, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != attempt || s.state.Connection != pad.Waiting {
		return
	}
	if s.connectTimer != nil {
		s.connectTimer.Stop()
		s.connectTimer = nil
	}
	s.setConnectionLocked(pad.Disconnected)
	s.log().Warn("connect attempt abandoned", "reason", reason)
}

func (s *Store) armConnectTimeout(attempt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.connectTimeout <= 0 || s.attempt != attempt || s.state.Connection != pad.Waiting {
		return
	}
	if s.connectTimer != nil {
		s.connectTimer.Stop()
	}
	s.connectTimer = time.AfterFunc(s.connectTimeout, func() {
		s.abandonAttempt(attempt, "no connect event before timeout")
	})
}

func (s *Store) refreshAsync(reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if _, err := s.UpdateState(s.ctx); err != nil &&
			!errors.Is(err, ErrRefreshSuperseded) && !errors.Is(err, ErrClosed) {
			s.log().Warn("background refresh failed", "reason", reason, "error", err)
		}
	}()
}

// requery refreshes after a successful write. A superseded refresh is not
// an error for the write; the current snapshot is returned instead.
func (s *Store) requery(ctx context.Context) (*pad.AppConfig, error) {
	cfg, err := s.UpdateState(ctx)
	if errors.Is(err, ErrRefreshSuperseded) {
		return s.Snapshot().Config, nil
	}
	return cfg, err
}

func (s *Store) checkModeKnown(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Config == nil {
		return nil
	}
	if _, ok := s.state.Config.Mode(key); !ok {
		return fmt.Errorf("%w: %q", pad.ErrModeNotFound, key)
	}
	return nil
}

// publishLocked queues a snapshot for the watchers. s.mu must be held so
// snapshots are queued in the order the changes were made.
func (s *Store) publishLocked() {
	snap := s.state.Clone()
	s.queueMu.Lock()
	s.queue = append(s.queue, snap)
	s.queueMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) notifyLoop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.stop:
			s.drain()
			return
		}
	}
}

func (s *Store) drain() {
	for {
		s.queueMu.Lock()
		pending := s.queue
		s.queue = nil
		s.queueMu.Unlock()
		if len(pending) == 0 {
			return
		}

		s.watchMu.RLock()
		watchers := s.watchers
		s.watchMu.RUnlock()

		for _, snap := range pending {
			for _, w := range watchers {
				s.deliver(w, snap.Clone())
			}
		}
	}
}

func (s *Store) deliver(w watcher, snap pad.AppState) {
	defer func() {
		if r := recover(); r != nil {
			s.log().Error("state watcher panicked", "watcher", w.id, "panic", r)
		}
	}()
	w.fn(snap)
}

func (s *Store) log() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

// run executes a fire-and-forget command and returns its error.
func run(ctx context.Context, exec *Executor, cmd protocol.Command[protocol.None]) error {
	return Execute(ctx, exec, cmd).Err()
}
