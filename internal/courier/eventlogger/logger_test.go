package eventlogger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizline/bizline/internal/courier/eventbus"
)

func recvLine(t *testing.T, ch <-chan eventbus.Event) string {
	t.Helper()
	select {
	case ev := <-ch:
		data, ok := ev.Data.([]byte)
		require.True(t, ok, "log events carry byte slices")
		return string(data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for log line")
		return ""
	}
}

func TestWritePublishesToTopic(t *testing.T) {
	bus := eventbus.New()
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe("tenant.acme.log", 4)
	defer unsubscribe()

	w := &LogWriter{Bus: bus, Topic: "tenant.acme.log"}
	line := []byte(`{"message":"hand-written line"}`)
	n, err := w.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	assert.Equal(t, string(line), recvLine(t, ch))
}

func TestWriteCopiesTheBuffer(t *testing.T) {
	bus := eventbus.New()
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe("t.log", 4)
	defer unsubscribe()

	w := &LogWriter{Bus: bus, Topic: "t.log"}
	buf := []byte("original")
	_, err := w.Write(buf)
	require.NoError(t, err)

	// the writer must not alias the caller's buffer
	copy(buf, "clobber!")
	assert.Equal(t, "original", recvLine(t, ch))
}

func TestLoggerEmitsStructuredLines(t *testing.T) {
	bus := eventbus.New()
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe("tenant.acme.log", 4)
	defer unsubscribe()

	logger := NewLogger(bus, "tenant.acme.log").With().Str("tenant_id", "acme").Logger()
	logger.Info().Msg("session open")

	line := recvLine(t, ch)
	assert.Contains(t, line, `"level":"info"`)
	assert.Contains(t, line, `"tenant_id":"acme"`)
	assert.Contains(t, line, "session open")
}
