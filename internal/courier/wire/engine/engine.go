// Package engine runs the external protocol engine as a per-tenant subprocess
// and adapts it to the wire interfaces. The engine owns the socket to the chat
// network and the login handshake; courier talks to it with JSON-RPC 2.0 over
// the process's stdin and stdout, one message per line. Engine notifications
// become wire events; wire operations become engine requests.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/common/jsonrpc"
	"github.com/bizline/bizline/internal/common/uuid"
	"github.com/bizline/bizline/internal/courier/wire"
)

// Engine-to-courier notification methods.
const (
	methodLoginCode jsonrpc.MethodType = "session.loginCode"
	methodOpened    jsonrpc.MethodType = "session.opened"
	methodClosed    jsonrpc.MethodType = "session.closed"
	methodMessage   jsonrpc.MethodType = "message.received"
)

// Courier-to-engine request methods.
const (
	methodSend     jsonrpc.MethodType = "message.send"
	methodPresence jsonrpc.MethodType = "presence.update"
	methodDownload jsonrpc.MethodType = "media.download"
)

// closeGrace is how long a closed engine gets to exit before it is killed.
const closeGrace = 3 * time.Second

// eventBufferSize bounds the inbound event channel. The session consumes
// events one at a time; a full buffer applies backpressure to the engine pipe.
const eventBufferSize = 32

// Config holds the engine launch configuration.
type Config struct {
	Command string   // engine executable
	Args    []string // extra arguments passed before the credential dir
}

// Dialer launches one engine process per Dial.
type Dialer struct {
	config Config
}

// NewDialer creates a Dialer for the given engine configuration.
func NewDialer(config Config) *Dialer {
	return &Dialer{config: config}
}

// Dial implements wire.Dialer. It starts the engine process pointed at the
// tenant's credential directory and wires up the stdio protocol.
func (d *Dialer) Dial(ctx context.Context, credentialDir string) (wire.Conn, error) {
	args := make([]string, 0, len(d.config.Args)+2)
	args = append(args, d.config.Args...)
	args = append(args, "--credentials", credentialDir)

	cmd := exec.Command(d.config.Command, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, ErrEngineStart.MsgErr("unable to open stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, ErrEngineStart.MsgErr("unable to open stdout pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, ErrEngineStart.MsgErr("unable to start engine", err)
	}

	c := &conn{
		cmd:     cmd,
		stdin:   stdin,
		events:  make(chan wire.Event, eventBufferSize),
		pending: make(map[string]chan *jsonrpc.Response),
		done:    make(chan struct{}),
		waited:  make(chan struct{}),
	}

	go func() {
		_ = cmd.Wait()
		close(c.waited)
	}()
	go c.readLoop(stdout)

	return c, nil
}

// conn is one live engine process implementing wire.Conn.
type conn struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	events chan wire.Event

	writeMu sync.Mutex // serializes stdin writes

	pendingMu sync.Mutex
	pending   map[string]chan *jsonrpc.Response

	closeOnce sync.Once
	done      chan struct{} // closed when the conn is shut down
	waited    chan struct{} // closed when the process has exited
}

// Events implements wire.Conn. The channel closes when the engine's stdout
// reaches EOF.
func (c *conn) Events() <-chan wire.Event {
	return c.events
}

type sendParams struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// Send implements wire.Conn.
func (c *conn) Send(ctx context.Context, recipient, text string) error {
	return c.call(ctx, methodSend, &sendParams{Recipient: recipient, Text: text}, nil)
}

type presenceParams struct {
	Recipient string `json:"recipient"`
	State     string `json:"state"`
}

// Presence implements wire.Conn.
func (c *conn) Presence(ctx context.Context, recipient string, state wire.PresenceState) error {
	return c.call(ctx, methodPresence, &presenceParams{Recipient: recipient, State: string(state)}, nil)
}

type downloadParams struct {
	MessageID string `json:"messageId"`
}

type downloadResult struct {
	DataBase64 string `json:"dataBase64"`
}

// Download implements wire.Conn. The payload crosses the pipe base64-encoded.
func (c *conn) Download(ctx context.Context, msg *wire.Message) ([]byte, error) {
	result := &downloadResult{}
	if err := c.call(ctx, methodDownload, &downloadParams{MessageID: msg.ID}, result); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(result.DataBase64)
	if err != nil {
		return nil, ErrEngineProtocol.MsgErr("invalid media payload", err)
	}
	return data, nil
}

// Close implements wire.Conn. The engine gets its stdin closed as the exit
// signal and a grace period before it is killed. Safe to call multiple times.
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.stdin.Close()
		go func() {
			select {
			case <-c.waited:
			case <-time.After(closeGrace):
				_ = c.cmd.Process.Kill()
			}
		}()
	})
	return nil
}

// readLoop consumes engine stdout line by line, routing notifications to the
// event channel and responses to their pending calls.
func (c *conn) readLoop(stdout io.Reader) {
	defer close(c.events)
	defer c.Close()

	scanner := bufio.NewScanner(stdout)
	// media download results ride this pipe
	scanner.Buffer(make([]byte, 64*1024), 32*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if req, err := jsonrpc.ParseRequest(line); err == nil {
			if !req.IsNotification() {
				log.Warn().Str("method", string(req.Method)).Msg("engine request ignored")
				continue
			}
			c.handleNotification(req)
			continue
		}
		rsp, err := jsonrpc.ParseResponse(line)
		if err != nil {
			log.Warn().Str("line", string(line)).Msg("unparseable engine output")
			continue
		}
		c.resolve(rsp)
	}
}

type loginCodeParams struct {
	Code string `json:"code"`
}

type openedParams struct {
	Identity string `json:"identity"`
}

type closedParams struct {
	Class string `json:"class"`
}

type messageParams struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	MimeType string `json:"mimeType"`
	FromSelf bool   `json:"fromSelf"`
	Group    bool   `json:"group"`
}

func (c *conn) handleNotification(req *jsonrpc.Request) {
	switch req.Method {
	case methodLoginCode:
		params := &loginCodeParams{}
		if err := req.Params.GetAs(params); err != nil {
			log.Warn().Err(err).Msg("invalid loginCode notification")
			return
		}
		c.emit(wire.Event{Type: wire.EventLoginCode, LoginCode: params.Code})

	case methodOpened:
		params := &openedParams{}
		if err := req.Params.GetAs(params); err != nil {
			log.Warn().Err(err).Msg("invalid opened notification")
			return
		}
		c.emit(wire.Event{Type: wire.EventOpened, Identity: params.Identity})

	case methodClosed:
		params := &closedParams{}
		if err := req.Params.GetAs(params); err != nil {
			log.Warn().Err(err).Msg("invalid closed notification")
			return
		}
		c.emit(wire.Event{Type: wire.EventClosed, Class: closeClass(params.Class)})

	case methodMessage:
		params := &messageParams{}
		if err := req.Params.GetAs(params); err != nil {
			log.Warn().Err(err).Msg("invalid message notification")
			return
		}
		c.emit(wire.Event{Type: wire.EventMessage, Message: &wire.Message{
			ID:       params.ID,
			Sender:   params.Sender,
			Kind:     messageKind(params.Kind),
			Text:     params.Text,
			MimeType: params.MimeType,
			FromSelf: params.FromSelf,
			Group:    params.Group,
		}})

	default:
		log.Warn().Str("method", string(req.Method)).Msg("unknown engine notification")
	}
}

func (c *conn) emit(ev wire.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// call sends one request and waits for its response.
func (c *conn) call(ctx context.Context, method jsonrpc.MethodType, params any, result any) error {
	id := uuid.New().String()
	data, err := jsonrpc.ConstructRequest(id, method, params)
	if err != nil {
		return ErrEngineProtocol.MsgErr("unable to encode request", err)
	}

	ch := make(chan *jsonrpc.Response, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	_, err = c.stdin.Write(append(data, '\n'))
	c.writeMu.Unlock()
	if err != nil {
		return ErrEngineClosed.MsgErr("unable to write to engine", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrEngineClosed
	case rsp := <-ch:
		if rsp.Error != nil {
			return ErrEngineCommand.Msg(rsp.Error.Message)
		}
		if result != nil && rsp.Result != nil {
			if err := json.Unmarshal(rsp.Result, result); err != nil {
				return ErrEngineProtocol.MsgErr("unable to decode result", err)
			}
		}
		return nil
	}
}

func (c *conn) resolve(rsp *jsonrpc.Response) {
	c.pendingMu.Lock()
	ch, ok := c.pending[rsp.ID]
	c.pendingMu.Unlock()
	if !ok {
		log.Warn().Str("id", rsp.ID).Msg("response for unknown request")
		return
	}
	select {
	case ch <- rsp:
	default:
	}
}

func closeClass(s string) wire.CloseClass {
	switch s {
	case "login-timeout":
		return wire.CloseLoginTimeout
	case "logged-out":
		return wire.CloseLoggedOut
	default:
		return wire.CloseTransient
	}
}

func messageKind(s string) wire.MessageKind {
	switch s {
	case "text":
		return wire.KindText
	case "image":
		return wire.KindImage
	case "document":
		return wire.KindDocument
	case "audio":
		return wire.KindAudio
	default:
		return wire.KindUnknown
	}
}

var _ wire.Dialer = (*Dialer)(nil)
var _ wire.Conn = (*conn)(nil)
