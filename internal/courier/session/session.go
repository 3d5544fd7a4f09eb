// Package session implements tenant session management for the courier
// service. Each tenant owns at most one session: a supervised connection to
// the real-time messaging network that surfaces login codes, dispatches
// inbound messages to the brain, and delivers replies with a human-pace
// typing simulation. Sessions publish lifecycle events and activity logs to
// the event bus for streaming observers.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bizline/bizline/internal/courier/wire"
)

// State is the lifecycle state of a tenant session.
type State string

const (
	StateIdle               State = "idle"
	StateConnecting         State = "connecting"
	StateAwaitingLogin      State = "awaiting-login"
	StateOpen               State = "open"
	StateClosing            State = "closing"
	StateReconnectScheduled State = "reconnect-scheduled"
	StateTerminated         State = "terminated"
)

// Status is a point-in-time snapshot of one session.
type Status struct {
	TenantID          string `json:"tenantId"`
	State             State  `json:"state"`
	Connected         bool   `json:"connected"`
	Identity          string `json:"identity,omitempty"`
	LoginCode         string `json:"loginCode,omitempty"`
	ReconnectAttempts int    `json:"reconnectAttempts,omitempty"`
}

// Session supervises one tenant's connection to the messaging network. All
// inbound events for the connection are consumed by a single event loop
// goroutine, so message dispatch for a tenant is strictly one at a time.
type Session struct {
	tenantID string
	mgr      *Manager

	logger zerolog.Logger // process log with tenant context
	busLog zerolog.Logger // activity log streamed to observers via the event bus

	mu             sync.Mutex
	state          State
	conn           wire.Conn
	identity       string // resolved identity, set on first successful open
	lastLoginCode  string // pending login code, cleared on open or close
	wasConnected   bool   // the session reached open at least once
	attempts       int    // reconnect attempts in the current episode
	reconnectTimer *time.Timer
}

// TenantID returns the tenant this session belongs to.
func (s *Session) TenantID() string {
	return s.tenantID
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		TenantID:          s.tenantID,
		State:             s.state,
		Connected:         s.state == StateOpen,
		Identity:          s.identity,
		LoginCode:         s.lastLoginCode,
		ReconnectAttempts: s.attempts,
	}
}

// alive reports whether the session still represents a live or recoverable
// connection. A terminated session left in the registry is a dead handle.
func (s *Session) alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateConnecting, StateAwaitingLogin, StateOpen, StateClosing, StateReconnectScheduled:
		return true
	}
	return false
}

// connect dials the messaging network and hands the connection to the event
// loop. Runs on its own goroutine for the initial start and on the reconnect
// timer's goroutine for retries.
func (s *Session) connect(ctx context.Context) {
	s.logger.Info().Msg("connecting session")
	s.busLog.Info().Msg("connecting")

	dir, apperr := s.mgr.store.Ensure(s.tenantID)
	if apperr != nil {
		s.logger.Error().Err(apperr).Msg("credential store unavailable")
		s.terminate()
		return
	}

	conn, err := s.mgr.dialer.Dial(ctx, dir)
	if err != nil {
		s.logger.Error().Err(err).Msg("dial failed")
		s.handleClosed(wire.CloseTransient)
		return
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		// stopped or deleted while the dial was in flight
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	go s.eventLoop(conn)
}

// eventLoop consumes the connection's inbound events until it closes. One
// loop per connection; a reconnect spawns a fresh loop for the new handle.
func (s *Session) eventLoop(conn wire.Conn) {
	ctx := context.Background()
	closed := false
	for ev := range conn.Events() {
		switch ev.Type {
		case wire.EventLoginCode:
			s.handleLoginCode(ev.LoginCode)
		case wire.EventOpened:
			s.handleOpened(ev.Identity)
		case wire.EventClosed:
			closed = true
			s.handleClosed(ev.Class)
		case wire.EventMessage:
			s.handleMessage(ctx, conn, ev.Message)
		}
		if closed {
			break
		}
	}
	if !closed {
		// the engine dropped the channel without a close event
		s.handleClosed(wire.CloseTransient)
	}
}

func (s *Session) handleLoginCode(code string) {
	s.mu.Lock()
	if s.state != StateConnecting && s.state != StateAwaitingLogin {
		s.mu.Unlock()
		return
	}
	s.state = StateAwaitingLogin
	s.lastLoginCode = code
	s.mu.Unlock()

	s.busLog.Info().Msg("login code issued")
	s.publishLifecycle(EventLoginCode, code)
}

func (s *Session) handleOpened(identity string) {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return
	}
	first := s.identity == "" && identity != ""
	if identity != "" {
		s.identity = identity
	}
	s.state = StateOpen
	s.wasConnected = true
	s.attempts = 0
	s.lastLoginCode = ""
	resolved := s.identity
	s.mu.Unlock()

	if first {
		if err := s.mgr.store.SetIdentity(s.tenantID, identity); err != nil {
			s.logger.Error().Err(err).Msg("unable to record resolved identity")
		}
	}

	s.logger.Info().Str("identity", resolved).Msg("session open")
	s.busLog.Info().Msg("connected")
	s.publishLifecycle(EventConnected, map[string]string{"identity": resolved})
}

// handleClosed resolves a connection close: notify observers, then decide
// between credential erasure, reconnect, and plain termination based on the
// close classification.
func (s *Session) handleClosed(class wire.CloseClass) {
	s.mu.Lock()
	if s.state == StateTerminated || s.state == StateClosing {
		s.mu.Unlock()
		return
	}
	s.state = StateClosing
	conn := s.conn
	s.conn = nil
	s.lastLoginCode = ""
	wasConnected := s.wasConnected
	attempts := s.attempts
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	s.logger.Info().Str("reason", class.String()).Msg("connection closed")
	s.busLog.Info().Str("reason", class.String()).Msg("disconnected")
	s.publishLifecycle(EventDisconnected, map[string]string{"reason": class.String()})

	switch class {
	case wire.CloseLoginTimeout:
		// the pending credentials can never complete a login
		s.eraseCredentials()
		s.terminate()

	case wire.CloseLoggedOut:
		s.publishLifecycle(EventLoggedOut, nil)
		s.eraseCredentials()
		s.terminate()

	default:
		// Only sessions that actually reached open get a reconnect budget;
		// a session that never opened has nothing worth retrying toward.
		if wasConnected && attempts < s.mgr.opts.MaxReconnect {
			s.scheduleReconnect(attempts + 1)
		} else {
			s.terminate()
		}
	}
}

func (s *Session) handleMessage(ctx context.Context, conn wire.Conn, msg *wire.Message) {
	s.mu.Lock()
	open := s.state == StateOpen
	s.mu.Unlock()
	if !open {
		return
	}
	s.mgr.dispatcher.dispatch(ctx, s.tenantID, conn, msg, s.busLog)
}

// scheduleReconnect arms the reconnect timer with linear backoff capped at
// the configured ceiling.
func (s *Session) scheduleReconnect(attempt int) {
	delay := time.Duration(attempt) * s.mgr.opts.BackoffUnit
	if delay > s.mgr.opts.BackoffCap {
		delay = s.mgr.opts.BackoffCap
	}

	s.mu.Lock()
	if s.state != StateClosing {
		s.mu.Unlock()
		return
	}
	s.attempts = attempt
	s.state = StateReconnectScheduled
	s.reconnectTimer = s.mgr.afterFunc(delay, s.reconnectFire)
	s.mu.Unlock()

	s.logger.Info().Int("attempt", attempt).Dur("delay", delay).Msg("reconnect scheduled")
	s.busLog.Info().Int("attempt", attempt).Dur("delay", delay).Msg("reconnect scheduled")
}

// reconnectFire runs when the reconnect timer expires. The session may have
// been stopped or replaced since the timer was armed, so both the registry
// membership and the state are re-validated before redialing.
func (s *Session) reconnectFire() {
	if !s.mgr.owns(s) {
		return
	}
	s.mu.Lock()
	if s.state != StateReconnectScheduled {
		s.mu.Unlock()
		return
	}
	s.state = StateConnecting
	s.reconnectTimer = nil
	s.mu.Unlock()

	s.connect(context.Background())
}

// send delivers an operator-initiated outbound message on the open
// connection. Returns false if the session is not open or the send fails.
func (s *Session) send(ctx context.Context, recipient, text string) bool {
	s.mu.Lock()
	conn := s.conn
	open := s.state == StateOpen
	s.mu.Unlock()
	if !open || conn == nil {
		return false
	}

	octx, cancel := context.WithTimeout(ctx, deliveryOpTimeout)
	defer cancel()
	if err := conn.Send(octx, recipient, text); err != nil {
		s.logger.Warn().Err(err).Msg("outbound send failed")
		return false
	}
	s.busLog.Info().Str("recipient", recipient).Msg("outbound message sent")
	return true
}

// terminate drives the session to its terminal state: cancel any pending
// reconnect, close the connection, remove the session from the registry, and
// disconnect all observers. Safe to call from any state and more than once.
func (s *Session) terminate() {
	s.mu.Lock()
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	conn := s.conn
	s.conn = nil
	s.state = StateTerminated
	s.lastLoginCode = ""
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	s.mgr.release(s)
	s.mgr.bus.CloseAllForPattern(AllTenantTopics(s.tenantID))
	s.logger.Info().Msg("session terminated")
}

func (s *Session) eraseCredentials() {
	if err := s.mgr.store.Erase(s.tenantID); err != nil {
		s.logger.Error().Err(err).Msg("unable to erase credentials")
	} else {
		s.logger.Info().Msg("credentials erased")
	}
}

func (s *Session) publishLifecycle(event string, data any) {
	s.mgr.bus.Publish(
		TenantTopic(s.tenantID, TopicLifecycle),
		&LifecycleEvent{Event: event, Data: data},
		publishTimeout,
	)
}
