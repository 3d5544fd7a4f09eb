package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizline/bizline/internal/courier/wire"
)

var testTyping = TypingOptions{
	ShortReplyChars: 10,
	ShortMin:        3 * time.Second,
	ShortMax:        7 * time.Second,
	LongMin:         12 * time.Second,
	LongMax:         18 * time.Second,
}

func TestTypingDelayBands(t *testing.T) {
	d := newDelivery(testTyping)

	for i := 0; i < 100; i++ {
		short := d.typingDelay(5)
		assert.GreaterOrEqual(t, short, 3*time.Second)
		assert.Less(t, short, 7*time.Second)

		long := d.typingDelay(500)
		assert.GreaterOrEqual(t, long, 12*time.Second)
		assert.Less(t, long, 18*time.Second)
	}
}

func TestTypingDelayBoundary(t *testing.T) {
	d := newDelivery(testTyping)

	// at the boundary the short band applies
	delay := d.typingDelay(10)
	assert.Less(t, delay, 7*time.Second)

	// one past it the long band applies
	delay = d.typingDelay(11)
	assert.GreaterOrEqual(t, delay, 12*time.Second)
}

func TestDeliverSequence(t *testing.T) {
	d := newDelivery(testTyping)
	var slept []time.Duration
	d.sleep = func(_ context.Context, dur time.Duration) {
		slept = append(slept, dur)
	}

	conn := wire.NewFakeConn()
	d.deliver(context.Background(), conn, "15550001111", "short", zerolog.Nop())

	assert.Equal(t, []wire.PresenceState{wire.PresenceComposing, wire.PresenceAvailable}, conn.Presences)
	sent := conn.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "short", sent[0].Text)

	require.Len(t, slept, 1)
	assert.GreaterOrEqual(t, slept[0], 3*time.Second)
}

func TestDeliverPresenceFailureStillSends(t *testing.T) {
	d := newDelivery(testTyping)
	d.sleep = func(context.Context, time.Duration) {}

	conn := wire.NewFakeConn()
	conn.PresenceErr = errors.New("presence unavailable")

	d.deliver(context.Background(), conn, "15550001111", "hello there", zerolog.Nop())

	sent := conn.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "hello there", sent[0].Text)
}

func TestDeliverSendFailureIsSwallowed(t *testing.T) {
	d := newDelivery(testTyping)
	d.sleep = func(context.Context, time.Duration) {}

	conn := wire.NewFakeConn()
	conn.SendErr = errors.New("socket reset")

	// must not panic or propagate
	d.deliver(context.Background(), conn, "15550001111", "hello", zerolog.Nop())
	assert.Empty(t, conn.SentMessages())
}

func TestCtxSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ctxSleep(ctx, 10*time.Second)
	assert.Less(t, time.Since(start), time.Second)
}
