package wire

import (
	"context"
	"sync"
)

// FakeConn is an in-memory Conn used to drive the session state machine with
// synthetic events in tests.
type FakeConn struct {
	mu        sync.Mutex
	events    chan Event
	closed    bool
	chClosed  bool
	CloseN    int             // number of Close calls observed
	Sent      []SentMessage   // Send calls observed
	Presences []PresenceState // Presence calls observed

	// SendErr, PresenceErr and DownloadErr, when set, are returned by the
	// corresponding methods.
	SendErr     error
	PresenceErr error
	DownloadErr error

	// Payload is returned by Download.
	Payload []byte
}

// SentMessage records one Send call on a FakeConn.
type SentMessage struct {
	Recipient string
	Text      string
}

// NewFakeConn returns a FakeConn with a buffered event channel.
func NewFakeConn() *FakeConn {
	return &FakeConn{
		events: make(chan Event, 16),
	}
}

// Emit queues a synthetic event for the session's event loop. Events emitted
// after EmitClosed or Drop are discarded.
func (c *FakeConn) Emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chClosed {
		return
	}
	c.events <- ev
}

// EmitClosed queues a close event and closes the event channel, mimicking the
// engine's terminal close behavior. Idempotent, like Drop.
func (c *FakeConn) EmitClosed(class CloseClass) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chClosed {
		return
	}
	c.chClosed = true
	c.events <- Event{Type: EventClosed, Class: class}
	close(c.events)
}

// Drop closes the event channel without a close event, mimicking an engine
// that died without reporting why.
func (c *FakeConn) Drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chClosed {
		return
	}
	c.chClosed = true
	close(c.events)
}

// Events implements Conn.
func (c *FakeConn) Events() <-chan Event {
	return c.events
}

// Send implements Conn.
func (c *FakeConn) Send(_ context.Context, recipient, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Sent = append(c.Sent, SentMessage{Recipient: recipient, Text: text})
	return nil
}

// SentMessages returns a copy of the Send calls observed so far.
func (c *FakeConn) SentMessages() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentMessage, len(c.Sent))
	copy(out, c.Sent)
	return out
}

// Presence implements Conn.
func (c *FakeConn) Presence(_ context.Context, _ string, state PresenceState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PresenceErr != nil {
		return c.PresenceErr
	}
	c.Presences = append(c.Presences, state)
	return nil
}

// Download implements Conn.
func (c *FakeConn) Download(_ context.Context, _ *Message) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DownloadErr != nil {
		return nil, c.DownloadErr
	}
	return c.Payload, nil
}

// Close implements Conn. Idempotent by contract.
func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CloseN++
	c.closed = true
	return nil
}

// Closed reports whether Close has been called at least once.
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FakeDialer hands out queued FakeConns, or an error, per Dial call.
type FakeDialer struct {
	mu    sync.Mutex
	conns []*FakeConn
	Err   error
	Dials []string // credential dirs observed
}

// NewFakeDialer returns a FakeDialer that will serve the given conns in order.
func NewFakeDialer(conns ...*FakeConn) *FakeDialer {
	return &FakeDialer{conns: conns}
}

// Queue appends another conn to be served by a future Dial.
func (d *FakeDialer) Queue(c *FakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns = append(d.conns, c)
}

// Dial implements Dialer.
func (d *FakeDialer) Dial(_ context.Context, credentialDir string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Dials = append(d.Dials, credentialDir)
	if d.Err != nil {
		return nil, d.Err
	}
	if len(d.conns) == 0 {
		c := NewFakeConn()
		return c, nil
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

// DialCount returns the number of Dial calls observed.
func (d *FakeDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Dials)
}

var _ Conn = (*FakeConn)(nil)
var _ Dialer = (*FakeDialer)(nil)
