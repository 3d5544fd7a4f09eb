// Package eventlogger bridges zerolog onto the event bus. A session's
// activity logger writes here, and every line comes out as a bus event on the
// tenant's log topic, where SSE observers pick it up.
package eventlogger

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/bizline/bizline/internal/courier/eventbus"
)

// publishTimeout bounds how long one log line may wait on a slow observer.
const publishTimeout = 100 * time.Millisecond

// LogWriter is an io.Writer that publishes each write to a bus topic.
type LogWriter struct {
	Bus   *eventbus.EventBus
	Topic string
}

// Write publishes one log line. The buffer is copied because zerolog reuses
// it after Write returns.
func (lw *LogWriter) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)
	lw.Bus.Publish(lw.Topic, line, publishTimeout)
	return len(p), nil
}

// NewLogger returns a zerolog.Logger whose output is published to the given
// bus topic, one event per line, with timestamps.
func NewLogger(bus *eventbus.EventBus, topic string) zerolog.Logger {
	return zerolog.New(&LogWriter{Bus: bus, Topic: topic}).With().Timestamp().Logger()
}
