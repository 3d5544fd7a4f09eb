package session

import (
	"fmt"
	"time"
)

const (
	// TopicLifecycle is the event topic for session lifecycle events.
	// Used for streaming login-code and connection status to observers.
	TopicLifecycle = "lifecycle"

	// TopicActivityLog is the event topic for per-tenant activity logs.
	// Used for streaming session log lines to observers.
	TopicActivityLog = "log"
)

// Lifecycle event names pushed to observers.
const (
	EventLoginCode    = "login-code"
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventLoggedOut    = "logged-out"
)

// publishTimeout bounds event bus publishes so a stuck observer cannot
// stall the session's event loop.
const publishTimeout = 100 * time.Millisecond

// LifecycleEvent is the payload delivered to observers for lifecycle events.
type LifecycleEvent struct {
	Event string `json:"event"` // lifecycle event name
	Data  any    `json:"data"`  // event-specific payload
}

// TenantTopic generates a topic name for a specific tenant and event type.
func TenantTopic(tenantID string, topic string) string {
	return fmt.Sprintf("tenant.%s.%s", tenantID, topic)
}

// AllTenantTopics generates a pattern matching all topics for a tenant.
func AllTenantTopics(tenantID string) string {
	return fmt.Sprintf("tenant.%s.*", tenantID)
}
