// Package api defines the wire types for the courier admin API and a client
// for invoking it. Both the service handlers and the bizline CLI depend on
// this package, so it carries no server-side dependencies.
package api

// Version is the admin API version reported by the version endpoint.
const Version = "0.1.0-alpha.1"

// TenantStatus is a point-in-time snapshot of one tenant session.
type TenantStatus struct {
	TenantID          string `json:"tenantId"`
	State             string `json:"state"`
	Connected         bool   `json:"connected"`
	Identity          string `json:"identity,omitempty"`
	LoginCode         string `json:"loginCode,omitempty"`
	ReconnectAttempts int    `json:"reconnectAttempts,omitempty"`
}

// ListTenantsResponse is the response for the tenant list endpoint.
type ListTenantsResponse struct {
	Tenants []TenantStatus `json:"tenants"`
}

// SendMessageRequest asks the service to deliver an outbound message through
// a tenant's open session.
type SendMessageRequest struct {
	Recipient string `json:"recipient" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

// SendMessageResponse reports the outcome of an outbound send.
type SendMessageResponse struct {
	Delivered bool `json:"delivered"`
}

// StopSessionResponse reports the outcome of a session stop.
type StopSessionResponse struct {
	Stopped bool `json:"stopped"`
}

// DeleteTenantResponse reports the outcome of a tenant delete.
type DeleteTenantResponse struct {
	Deleted bool `json:"deleted"`
}

// StreamEvent is one server-sent event from the tenant event stream. Event
// is the SSE event name; Data is the event payload as sent by the service.
type StreamEvent struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// LifecycleData is the decoded payload of a lifecycle stream event.
type LifecycleData struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// VersionResponse is the response for the version endpoint.
type VersionResponse struct {
	ServerVersion string `json:"serverVersion"`
	APIVersion    string `json:"apiVersion"`
}
