package session

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/common/httpx"
	"github.com/bizline/bizline/internal/courier/eventbus"
	"github.com/bizline/bizline/pkg/api"
)

// streamBufferSize is the per-observer event buffer. Slow observers drop
// events rather than stall publishers.
const streamBufferSize = 64

type apiHandler struct {
	mgr      *Manager
	validate *validator.Validate
}

func (h *apiHandler) listTenants(r *http.Request) (*httpx.Response, error) {
	statuses := h.mgr.List()
	rsp := &api.ListTenantsResponse{
		Tenants: make([]api.TenantStatus, 0, len(statuses)),
	}
	for _, st := range statuses {
		rsp.Tenants = append(rsp.Tenants, toAPIStatus(st))
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   rsp,
	}, nil
}

func (h *apiHandler) startSession(r *http.Request) (*httpx.Response, error) {
	tenantID := chi.URLParam(r, "tenantID")
	s, err := h.mgr.Start(r.Context(), tenantID)
	if err != nil {
		return nil, err
	}

	log.Ctx(r.Context()).Info().Str("tenant_id", tenantID).Msg("session start requested")
	rsp := toAPIStatus(s.Status())
	return &httpx.Response{
		StatusCode: http.StatusAccepted,
		Response:   &rsp,
	}, nil
}

func (h *apiHandler) getSession(r *http.Request) (*httpx.Response, error) {
	tenantID := chi.URLParam(r, "tenantID")
	s, ok := h.mgr.Get(tenantID)
	if !ok {
		return nil, ErrNoSession
	}
	rsp := toAPIStatus(s.Status())
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   &rsp,
	}, nil
}

func (h *apiHandler) stopSession(r *http.Request) (*httpx.Response, error) {
	tenantID := chi.URLParam(r, "tenantID")
	if !h.mgr.Stop(tenantID) {
		return nil, ErrNoSession
	}

	log.Ctx(r.Context()).Info().Str("tenant_id", tenantID).Msg("session stopped")
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   &api.StopSessionResponse{Stopped: true},
	}, nil
}

func (h *apiHandler) deleteTenant(r *http.Request) (*httpx.Response, error) {
	tenantID := chi.URLParam(r, "tenantID")
	if tenantID == "" {
		return nil, ErrInvalidTenant
	}
	if !h.mgr.Delete(tenantID) {
		return nil, httpx.ErrTenantNotFound()
	}

	log.Ctx(r.Context()).Info().Str("tenant_id", tenantID).Msg("tenant deleted")
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   &api.DeleteTenantResponse{Deleted: true},
	}, nil
}

func (h *apiHandler) sendMessage(r *http.Request) (*httpx.Response, error) {
	tenantID := chi.URLParam(r, "tenantID")

	req := &api.SendMessageRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, ErrBadRequest.MsgErr("invalid send request", err)
	}

	s, ok := h.mgr.Get(tenantID)
	if !ok {
		return nil, ErrNoSession
	}
	if s.State() != StateOpen {
		return nil, ErrNotConnected
	}
	if !s.send(r.Context(), req.Recipient, req.Content) {
		return nil, ErrSendFailed
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   &api.SendMessageResponse{Delivered: true},
	}, nil
}

// streamEvents serves the tenant's lifecycle and activity log events as a
// server-sent event stream. The stream ends when the client disconnects or
// the session reaches a terminal state and closes its topics.
func (h *apiHandler) streamEvents(r *http.Request) (*httpx.Response, error) {
	tenantID := chi.URLParam(r, "tenantID")
	if _, ok := h.mgr.Get(tenantID); !ok {
		return nil, ErrNoSession
	}

	ch, unsubscribe := h.mgr.bus.Subscribe(AllTenantTopics(tenantID), streamBufferSize)

	return &httpx.Response{
		StatusCode:  http.StatusOK,
		ContentType: "text/event-stream",
		Chunked:     true,
		WriteChunks: func(w http.ResponseWriter) error {
			defer unsubscribe()

			flusher, ok := w.(http.Flusher)
			if !ok {
				return ErrSessionError.Msg("streaming not supported")
			}

			ctx := r.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-ch:
					if !ok {
						// session terminated; the topics were closed
						return nil
					}
					if err := writeSSE(w, ev); err != nil {
						return err
					}
					flusher.Flush()
				}
			}
		},
	}, nil
}

// writeSSE writes one bus event in server-sent event format. The SSE event
// name is the topic's last segment: "lifecycle" or "log".
func writeSSE(w io.Writer, ev eventbus.Event) error {
	name := ev.Topic
	if i := bytes.LastIndexByte([]byte(ev.Topic), '.'); i >= 0 {
		name = ev.Topic[i+1:]
	}

	var payload []byte
	switch data := ev.Data.(type) {
	case []byte:
		payload = bytes.TrimRight(data, "\n")
	default:
		var err error
		payload, err = jsoniter.Marshal(data)
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}

func toAPIStatus(st Status) api.TenantStatus {
	return api.TenantStatus{
		TenantID:          st.TenantID,
		State:             string(st.State),
		Connected:         st.Connected,
		Identity:          st.Identity,
		LoginCode:         st.LoginCode,
		ReconnectAttempts: st.ReconnectAttempts,
	}
}
