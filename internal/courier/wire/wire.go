// Package wire defines the boundary to the real-time messaging protocol engine.
// The engine itself is an external collaborator: it opens a socket, performs the
// handshake/login flow, and raises connection and message events. Courier consumes
// it through the Dialer and Conn interfaces and a tagged inbound event union, so
// the session state machine can be driven by a fake engine in tests.
package wire

import (
	"context"
)

// CloseClass classifies why a connection closed. The session supervisor's
// terminal/retry decision hangs off this classification.
type CloseClass int

const (
	// CloseTransient is a recoverable connectivity failure (network blip,
	// stream error, server restart).
	CloseTransient CloseClass = iota

	// CloseLoginTimeout means the login code expired without being scanned.
	// The pending credentials are useless and must be erased.
	CloseLoginTimeout

	// CloseLoggedOut means the remote side explicitly revoked the login.
	CloseLoggedOut
)

// String returns the classification name for logging and observer payloads.
func (c CloseClass) String() string {
	switch c {
	case CloseLoginTimeout:
		return "login-timeout"
	case CloseLoggedOut:
		return "logged-out"
	default:
		return "transient"
	}
}

// EventType discriminates the inbound event union.
type EventType int

const (
	// EventLoginCode carries a fresh pairing code to show the user.
	// May repeat while the session awaits login.
	EventLoginCode EventType = iota

	// EventOpened signals the connection is established and authenticated.
	EventOpened

	// EventClosed signals the connection closed, with a classification.
	EventClosed

	// EventMessage carries one inbound message.
	EventMessage
)

// Event is one inbound event from the protocol engine. Exactly the fields
// relevant to the Type are populated.
type Event struct {
	Type      EventType
	LoginCode string     // EventLoginCode
	Identity  string     // EventOpened: resolved identity, e.g. a phone number
	Class     CloseClass // EventClosed
	Message   *Message   // EventMessage
}

// MessageKind classifies an inbound message's content.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindText
	KindImage
	KindDocument
	KindAudio
)

// Message is one inbound message from the chat network.
type Message struct {
	ID       string      // protocol-assigned message id
	Sender   string      // sender address on the chat network
	Kind     MessageKind // content classification
	Text     string      // body for text messages, caption for media
	MimeType string      // declared MIME type for media; may be empty
	FromSelf bool        // echo of a message this account sent
	Group    bool        // broadcast/group origin
}

// PresenceState is an outbound presence update.
type PresenceState string

const (
	PresenceComposing PresenceState = "composing"
	PresenceAvailable PresenceState = "available"
)

// Conn is one live connection handle. All methods must be safe for concurrent
// use; Close must be idempotent because both the natural close path and
// defensive cleanup may invoke it.
type Conn interface {
	// Events returns the inbound event channel. The engine closes the channel
	// after delivering a terminal EventClosed.
	Events() <-chan Event

	// Send delivers a text message to a recipient.
	Send(ctx context.Context, recipient, text string) error

	// Presence publishes a presence update visible to the recipient.
	Presence(ctx context.Context, recipient string, state PresenceState) error

	// Download fetches the media payload of an inbound message.
	Download(ctx context.Context, msg *Message) ([]byte, error)

	// Close tears down the connection. Safe to call multiple times.
	Close() error
}

// Dialer opens protocol connections. The credential directory belongs to the
// credential store; the engine reads and writes its own key material there.
type Dialer interface {
	Dial(ctx context.Context, credentialDir string) (Conn, error)
}
