package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizline/bizline/internal/courier/wire"
)

func writeFakeEngine(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-engine.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func dialFakeEngine(t *testing.T, script string) wire.Conn {
	t.Helper()
	d := NewDialer(Config{Command: writeFakeEngine(t, script)})
	conn, err := d.Dial(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func nextEvent(t *testing.T, ch <-chan wire.Event) wire.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "event channel closed early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for engine event")
		return wire.Event{}
	}
}

func TestNotificationsBecomeEvents(t *testing.T) {
	conn := dialFakeEngine(t, `
echo '{"jsonrpc":"2.0","method":"session.loginCode","params":{"code":"ABC-123"}}'
echo 'not json at all'
echo '{"jsonrpc":"2.0","method":"session.opened","params":{"identity":"15551234567"}}'
echo '{"jsonrpc":"2.0","method":"message.received","params":{"id":"m1","sender":"15550001111","kind":"image","text":"look","mimeType":"image/png"}}'
echo '{"jsonrpc":"2.0","method":"session.closed","params":{"class":"logged-out"}}'
`)

	ev := nextEvent(t, conn.Events())
	assert.Equal(t, wire.EventLoginCode, ev.Type)
	assert.Equal(t, "ABC-123", ev.LoginCode)

	ev = nextEvent(t, conn.Events())
	assert.Equal(t, wire.EventOpened, ev.Type)
	assert.Equal(t, "15551234567", ev.Identity)

	ev = nextEvent(t, conn.Events())
	assert.Equal(t, wire.EventMessage, ev.Type)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "m1", ev.Message.ID)
	assert.Equal(t, "15550001111", ev.Message.Sender)
	assert.Equal(t, wire.KindImage, ev.Message.Kind)
	assert.Equal(t, "look", ev.Message.Text)
	assert.Equal(t, "image/png", ev.Message.MimeType)

	ev = nextEvent(t, conn.Events())
	assert.Equal(t, wire.EventClosed, ev.Type)
	assert.Equal(t, wire.CloseLoggedOut, ev.Class)

	// engine stdout EOF closes the channel
	select {
	case _, ok := <-conn.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("event channel did not close after engine exit")
	}
}

func TestDialPassesCredentialDir(t *testing.T) {
	// the engine reports its last argument back as the identity
	script := writeFakeEngine(t, `
for last; do :; done
printf '{"jsonrpc":"2.0","method":"session.opened","params":{"identity":"%s"}}\n' "$last"
`)
	d := NewDialer(Config{Command: script, Args: []string{"--verbose"}})
	credDir := t.TempDir()
	conn, err := d.Dial(context.Background(), credDir)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ev := nextEvent(t, conn.Events())
	assert.Equal(t, credDir, ev.Identity)
}

const responderScript = `
while IFS= read -r line; do
  id=$(printf '%s' "$line" | sed -n 's/.*"id":"\([^"]*\)".*/\1/p')
  printf '{"jsonrpc":"2.0","id":"%s","result":{}}\n' "$id"
done
`

func TestSendRoundTrip(t *testing.T) {
	conn := dialFakeEngine(t, responderScript)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, conn.Send(ctx, "15550001111", "hello"))
	assert.NoError(t, conn.Presence(ctx, "15550001111", wire.PresenceComposing))
}

func TestDownloadDecodesPayload(t *testing.T) {
	conn := dialFakeEngine(t, `
while IFS= read -r line; do
  id=$(printf '%s' "$line" | sed -n 's/.*"id":"\([^"]*\)".*/\1/p')
  printf '{"jsonrpc":"2.0","id":"%s","result":{"dataBase64":"aGVsbG8h"}}\n' "$id"
done
`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := conn.Download(ctx, &wire.Message{ID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello!"), data)
}

func TestEngineErrorResponse(t *testing.T) {
	conn := dialFakeEngine(t, `
while IFS= read -r line; do
  id=$(printf '%s' "$line" | sed -n 's/.*"id":"\([^"]*\)".*/\1/p')
  printf '{"jsonrpc":"2.0","id":"%s","error":{"code":-32010,"message":"recipient unknown"}}\n' "$id"
done
`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := conn.Send(ctx, "nobody", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient unknown")
}

func TestCallAfterClose(t *testing.T) {
	conn := dialFakeEngine(t, responderScript)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, conn.Send(ctx, "15550001111", "hello"))
}

func TestDialBadCommand(t *testing.T) {
	d := NewDialer(Config{Command: filepath.Join(t.TempDir(), "missing-engine")})
	_, err := d.Dial(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestCloseClassMapping(t *testing.T) {
	assert.Equal(t, wire.CloseLoginTimeout, closeClass("login-timeout"))
	assert.Equal(t, wire.CloseLoggedOut, closeClass("logged-out"))
	assert.Equal(t, wire.CloseTransient, closeClass("stream-error"))
	assert.Equal(t, wire.CloseTransient, closeClass(""))
}

func TestMessageKindMapping(t *testing.T) {
	assert.Equal(t, wire.KindText, messageKind("text"))
	assert.Equal(t, wire.KindImage, messageKind("image"))
	assert.Equal(t, wire.KindDocument, messageKind("document"))
	assert.Equal(t, wire.KindAudio, messageKind("audio"))
	assert.Equal(t, wire.KindUnknown, messageKind("sticker"))
}
