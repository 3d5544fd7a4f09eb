package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/bizline/bizline/internal/courier/wire"
)

// TypingOptions configures the human-pace typing simulation applied to
// outbound replies.
type TypingOptions struct {
	ShortReplyChars int           // replies at or under this length use the short band
	ShortMin        time.Duration // short band lower bound
	ShortMax        time.Duration // short band upper bound
	LongMin         time.Duration // long band lower bound
	LongMax         time.Duration // long band upper bound
}

// deliveryOpTimeout bounds each individual presence or send call so a hung
// transport operation cannot pin the dispatch loop.
const deliveryOpTimeout = 15 * time.Second

// delivery drives the outbound reply sequence: signal composing, pause for a
// human-plausible typing interval, signal available, then send. Every step is
// best-effort. A recipient who never sees the typing indicator still gets the
// reply, and a reply lost by the transport is logged and dropped.
type delivery struct {
	typing TypingOptions

	// sleep is swapped out in tests so delivery tests don't take seconds.
	sleep func(ctx context.Context, d time.Duration)
}

func newDelivery(typing TypingOptions) *delivery {
	return &delivery{
		typing: typing,
		sleep:  ctxSleep,
	}
}

// deliver runs the full reply sequence for one outbound text.
func (d *delivery) deliver(ctx context.Context, conn wire.Conn, recipient string, text string, logger zerolog.Logger) {
	bestEffort(logger, "presence_composing", func() error {
		octx, cancel := context.WithTimeout(ctx, deliveryOpTimeout)
		defer cancel()
		return conn.Presence(octx, recipient, wire.PresenceComposing)
	})

	d.sleep(ctx, d.typingDelay(len(text)))

	bestEffort(logger, "presence_available", func() error {
		octx, cancel := context.WithTimeout(ctx, deliveryOpTimeout)
		defer cancel()
		return conn.Presence(octx, recipient, wire.PresenceAvailable)
	})

	bestEffort(logger, "send", func() error {
		octx, cancel := context.WithTimeout(ctx, deliveryOpTimeout)
		defer cancel()
		return conn.Send(octx, recipient, text)
	})
}

// typingDelay picks a random delay within the band for the reply length.
func (d *delivery) typingDelay(replyLen int) time.Duration {
	min, max := d.typing.ShortMin, d.typing.ShortMax
	if replyLen > d.typing.ShortReplyChars {
		min, max = d.typing.LongMin, d.typing.LongMax
	}
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// bestEffort runs one delivery step and swallows its failure. Delivery steps
// never propagate errors into the session's event loop.
func bestEffort(logger zerolog.Logger, step string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn().Err(err).Str("step", step).Msg("delivery step failed")
	}
}

func ctxSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
