package cloudvar_client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/cloudvarx/cloudvar-client-go/transport"
)

// run drives connection epochs until the context is cancelled or the
// backoff policy gives up. At most one transport is live at a time.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	for {
		s.runEpoch(ctx)
		if ctx.Err() != nil {
			return
		}
		delay := s.policy.NextBackOff()
		if delay == backoff.Stop {
			s.log.Info("reconnect policy gave up, stopping")
			return
		}
		s.log.Debug("reconnecting", zap.Duration("delay", delay))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runEpoch opens one transport, performs the handshake and queue
// flush, then pumps inbound frames until the connection drops.
func (s *Session) runEpoch(ctx context.Context) {
	stream := s.newStream(s.endpoint, s.endpoint.Header(s.cred))
	if err := stream.Open(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("connect failed", zap.String("url", s.endpoint.URL), zap.Error(err))
		s.metrics.incTransportErrors()
		s.events.emit(Event{Kind: EventError, Err: err})
		s.events.emit(Event{Kind: EventClose, Err: err})
		return
	}

	if err := s.attach(stream); err != nil {
		stream.Close()
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("handshake failed", zap.Error(err))
		s.metrics.incTransportErrors()
		s.events.emit(Event{Kind: EventError, Err: err})
		s.events.emit(Event{Kind: EventClose, Err: err})
		return
	}

	s.metrics.incOpens()
	s.log.Info("connected", zap.String("url", s.endpoint.URL))
	s.events.emit(Event{Kind: EventOpen})

	// A blocked Read only returns once the connection dies, so close
	// the transport when the context ends.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stream.Close()
		case <-stop:
		}
	}()

	err := s.readLoop(stream)
	close(stop)

	s.detach(stream)
	s.metrics.incCloses()
	if ctx.Err() != nil || s.isClosed() {
		s.log.Info("disconnected")
		s.events.emit(Event{Kind: EventClose})
		return
	}
	s.log.Warn("connection lost", zap.Error(err))
	s.metrics.incTransportErrors()
	s.events.emit(Event{Kind: EventError, Err: err})
	s.events.emit(Event{Kind: EventClose, Err: err})
}

// attach marks a fresh transport live: reset the backoff policy, send
// the handshake, then flush the offline queue in FIFO order. Nothing
// written after the open can overtake the flush because every write
// runs under the session mutex. On a write failure the unsent tail is
// requeued and the transport stays detached.
func (s *Session) attach(stream transport.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policy.Reset()
	pending := s.queue.drain()
	if err := s.writePacket(stream, s.handshakePacket()); err != nil {
		s.queue.requeue(pending)
		s.metrics.setQueueDepth(s.queue.size())
		return err
	}
	for i, pkt := range pending {
		if err := s.writePacket(stream, pkt); err != nil {
			s.queue.requeue(pending[i:])
			s.metrics.setQueueDepth(s.queue.size())
			return err
		}
	}
	s.metrics.setQueueDepth(s.queue.size())
	s.stream = stream
	return nil
}

func (s *Session) detach(stream transport.Stream) {
	s.mu.Lock()
	if s.stream == stream {
		s.stream = nil
	}
	s.mu.Unlock()
	stream.Close()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) readLoop(stream transport.Stream) error {
	for {
		frame, err := stream.Read()
		if err != nil {
			return err
		}
		s.handleFrame(frame)
	}
}

// handleFrame applies one inbound frame. Every set packet lands in
// the store; the first non-empty frame against a store that was empty
// additionally fires the one-time setup notification, after the whole
// frame has been applied. Events fire outside the mutex so listeners
// may call back into the session.
func (s *Session) handleFrame(frame []byte) {
	packets := DecodeFrame(frame)
	if len(packets) == 0 {
		return
	}
	s.metrics.addReceived(len(packets))

	s.mu.Lock()
	wasEmpty := s.vars.size() == 0
	events := make([]Event, 0, len(packets))
	for _, pkt := range packets {
		if pkt.Method != MethodSet || pkt.Name == "" {
			continue
		}
		kind := EventSet
		if s.vars.apply(pkt.Name, pkt.Value) {
			kind = EventAddVariable
		}
		events = append(events, Event{Kind: kind, Name: pkt.Name, Value: pkt.Value})
	}
	s.metrics.setVariables(s.vars.size())
	fireSetup := !s.didSetup && wasEmpty
	if fireSetup {
		s.didSetup = true
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.events.emit(ev)
	}
	if fireSetup {
		s.log.Debug("initial state loaded", zap.Int("variables", len(events)))
		s.events.emit(Event{Kind: EventSetup})
	}
}

// writePacket sends one packet. Callers hold s.mu so writes never
// interleave.
func (s *Session) writePacket(stream transport.Stream, pkt Packet) error {
	data, err := EncodePacket(pkt)
	if err != nil {
		return err
	}
	if err := stream.Write(data); err != nil {
		return err
	}
	s.metrics.addSent(1)
	return nil
}
