package cloudvar_client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cloudvarx/cloudvar-client-go/transport"
)

var (
	ErrUsernameRequired = errors.New("cloudvar: username required")
	ErrProjectRequired  = errors.New("cloudvar: project id required")
	ErrAlreadyConnected = errors.New("cloudvar: session already connected")
	ErrSessionClosed    = errors.New("cloudvar: session closed")
)

// Credential identifies the account a session acts as. SessionID is
// the opaque token produced by the login flow; it is only ever used to
// build connection headers.
type Credential struct {
	Username  string
	SessionID string
}

// Options tune a session beyond its defaults. The zero value connects
// to the default host with full-jitter reconnects and no logging.
type Options struct {
	// Endpoint picks the backend. Zero value: the default host, or
	// the alternate host when TurboWarp is set.
	Endpoint Endpoint
	// TurboWarp selects the alternate host when Endpoint is zero.
	TurboWarp bool
	// Backoff is the reconnect delay policy. Nil means full-jitter
	// exponential with unbounded retries. A policy returning
	// backoff.Stop ends the reconnect loop.
	Backoff backoff.BackOff
	// Logger receives session diagnostics. Nil disables logging.
	Logger *zap.Logger
	// Metrics instruments the session when non-nil.
	Metrics *Metrics
	// NewStream overrides the transport constructor; tests and custom
	// backends use this. Nil dials a WebSocket to Endpoint.URL.
	NewStream func(endpoint Endpoint, header http.Header) transport.Stream
}

// Session replicates one project's cloud variables. Create with New,
// start with Connect. Set and Get work in every connection state;
// writes made while offline are queued and flushed on the next open.
type Session struct {
	cred     Credential
	project  string
	endpoint Endpoint

	log       *zap.Logger
	metrics   *Metrics
	events    *emitter
	policy    backoff.BackOff
	newStream func(Endpoint, http.Header) transport.Stream

	mu         sync.Mutex
	vars       *varStore
	queue      *outbox
	stream     transport.Stream
	autoPrefix bool
	didSetup   bool
	started    bool
	closed     bool
	cancel     context.CancelFunc

	done chan struct{}
}

func New(cred Credential, projectID string, opts Options) (*Session, error) {
	if strings.TrimSpace(cred.Username) == "" {
		return nil, ErrUsernameRequired
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, ErrProjectRequired
	}

	endpoint := opts.Endpoint
	if endpoint == (Endpoint{}) && opts.TurboWarp {
		endpoint = TurboWarpEndpoint()
	}
	endpoint = endpoint.withDefaults()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(
		zap.String("session", uuid.NewString()),
		zap.String("project", projectID),
	)

	policy := opts.Backoff
	if policy == nil {
		policy = NewReconnectBackoff(nil)
	}

	newStream := opts.NewStream
	if newStream == nil {
		newStream = func(e Endpoint, h http.Header) transport.Stream {
			return transport.NewWebsocket(e.URL, h)
		}
	}

	return &Session{
		cred:       cred,
		project:    projectID,
		endpoint:   endpoint,
		log:        logger,
		metrics:    opts.Metrics,
		events:     newEmitter(),
		policy:     policy,
		newStream:  newStream,
		vars:       newVarStore(),
		queue:      newOutbox(),
		autoPrefix: true,
		done:       make(chan struct{}),
	}, nil
}

// Connect starts the connection manager and returns immediately; the
// open event signals a live connection. The session reconnects after
// every drop until ctx is cancelled, Close is called, or the backoff
// policy gives up.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.started = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

// Close stops reconnecting and closes any live transport. It returns
// without waiting so it is safe to call from an event listener; Done
// is closed once the manager goroutine has exited. Calling Close more
// than once, or before Connect, is fine.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	cancel := s.cancel
	stream := s.stream
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stream != nil {
		stream.Close()
	}
	if !started {
		close(s.done)
	}
	return nil
}

// Done is closed when the connection manager has exited, either after
// Close, context cancellation, or the backoff policy giving up.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Set writes a variable locally and replicates it to the room. The
// name gets the cloud prefix unless autoprefixing is disabled; the
// value is rendered to its string form. Values that are not numeric,
// or that exceed the host's length cap, are logged and dropped.
func (s *Session) Set(name string, value interface{}) {
	val := formatValue(value)
	if !numericString(val) {
		s.log.Warn("set rejected, value is not numeric",
			zap.String("name", name), zap.String("value", val))
		s.metrics.incRejectedSets()
		return
	}
	if len(val) > s.endpoint.MaxValueLen {
		s.log.Warn("set rejected, value exceeds host cap",
			zap.String("name", name), zap.Int("len", len(val)),
			zap.Int("cap", s.endpoint.MaxValueLen))
		s.metrics.incRejectedSets()
		return
	}

	s.mu.Lock()
	name = s.prefixedLocked(name)
	pkt := Packet{
		Method:    MethodSet,
		User:      s.cred.Username,
		ProjectID: s.project,
		Name:      name,
		Value:     val,
	}
	s.vars.apply(name, val)
	s.metrics.setVariables(s.vars.size())
	stream := s.stream
	if stream == nil {
		s.queue.enqueue(pkt)
		s.metrics.setQueueDepth(s.queue.size())
		s.mu.Unlock()
		return
	}
	err := s.writePacket(stream, pkt)
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("send failed", zap.String("name", name), zap.Error(err))
		s.metrics.incTransportErrors()
		s.events.emit(Event{Kind: EventError, Err: err})
	}
}

// Get returns the current value for name, applying the same prefix
// rule as Set. ok is false when the variable has never been observed.
func (s *Session) Get(name string) (value string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars.get(s.prefixedLocked(name))
}

// Has reports whether the variable has been observed, applying the
// same prefix rule as Set.
func (s *Session) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars.has(s.prefixedLocked(name))
}

// Variables returns a copy of every known variable.
func (s *Session) Variables() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars.snapshot()
}

// Connected reports whether a transport is currently live.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

// QueueLen reports how many packets wait for the next connection.
func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.size()
}

// EnableAutoPrefix makes Set and Get qualify bare names with
// VariablePrefix. This is the initial state.
func (s *Session) EnableAutoPrefix() {
	s.mu.Lock()
	s.autoPrefix = true
	s.mu.Unlock()
}

// DisableAutoPrefix makes Set and Get use names exactly as given.
func (s *Session) DisableAutoPrefix() {
	s.mu.Lock()
	s.autoPrefix = false
	s.mu.Unlock()
}

// On registers fn for kind. Listeners run on the session's manager
// goroutine in registration order and may call back into the session.
func (s *Session) On(kind EventKind, fn func(Event)) Subscription {
	return s.events.on(kind, fn, false)
}

// Once registers fn for a single delivery.
func (s *Session) Once(kind EventKind, fn func(Event)) Subscription {
	return s.events.on(kind, fn, true)
}

// Off removes a listener and reports whether it was still registered.
func (s *Session) Off(sub Subscription) bool {
	return s.events.off(sub)
}

func (s *Session) prefixedLocked(name string) string {
	if s.autoPrefix && !strings.HasPrefix(name, VariablePrefix) {
		return VariablePrefix + name
	}
	return name
}

func (s *Session) handshakePacket() Packet {
	return Packet{Method: MethodHandshake, User: s.cred.Username, ProjectID: s.project}
}

// formatValue renders a value to its wire string. Strings pass
// through untouched, everything else takes its fmt rendering.
func formatValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// numericString reports whether s is something the service will
// store: the string form of a number. Out-of-range numbers are still
// syntactically numeric and pass; the literal NaN and the empty
// string do not.
func numericString(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Is(err, strconv.ErrRange)
	}
	return !math.IsNaN(f)
}
