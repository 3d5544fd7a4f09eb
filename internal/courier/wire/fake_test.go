package wire

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeConnEmitAfterCloseIsDropped(t *testing.T) {
	conn := NewFakeConn()
	conn.Emit(Event{Type: EventLoginCode, LoginCode: "ABC"})
	conn.EmitClosed(CloseTransient)

	require.NotPanics(t, func() {
		conn.Emit(Event{Type: EventOpened, Identity: "1555"})
	})

	// the channel still ends with the close event, nothing after it
	var events []Event
	for ev := range conn.Events() {
		events = append(events, ev)
	}
	require.Len(t, events, 2)
	assert.Equal(t, EventLoginCode, events[0].Type)
	assert.Equal(t, EventClosed, events[1].Type)
}

func TestFakeConnDropIsIdempotent(t *testing.T) {
	conn := NewFakeConn()
	conn.Drop()
	require.NotPanics(t, func() {
		conn.Drop()
		conn.EmitClosed(CloseTransient)
	})

	_, open := <-conn.Events()
	assert.False(t, open)
}

func TestFakeDialerServesConnsInOrder(t *testing.T) {
	c1 := NewFakeConn()
	c2 := NewFakeConn()
	d := NewFakeDialer(c1)
	d.Queue(c2)

	got1, err := d.Dial(context.Background(), "/creds/T1")
	require.NoError(t, err)
	got2, err := d.Dial(context.Background(), "/creds/T1")
	require.NoError(t, err)

	assert.Same(t, c1, got1)
	assert.Same(t, c2, got2)
	assert.Equal(t, 2, d.DialCount())
	assert.Equal(t, []string{"/creds/T1", "/creds/T1"}, d.Dials)
}
