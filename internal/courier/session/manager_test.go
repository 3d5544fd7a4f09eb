package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizline/bizline/internal/courier/credstore"
	"github.com/bizline/bizline/internal/courier/wire"
)

func TestRestoreOnBoot(t *testing.T) {
	store := credstore.New(t.TempDir())

	// completed login
	_, err := store.Ensure("restored")
	require.Nil(t, err)
	require.Nil(t, store.SetIdentity("restored", "15551234567"))

	// partial login, never completed
	_, err = store.Ensure("partial")
	require.Nil(t, err)

	dialer := wire.NewFakeDialer(wire.NewFakeConn())
	m := NewManager(Options{
		Store:  store,
		Dialer: dialer,
		Brain:  &fakeBrain{reply: "ok"},
	})
	t.Cleanup(m.Shutdown)

	restored := m.RestoreOnBoot(context.Background())
	assert.Equal(t, 1, restored)

	_, ok := m.Get("restored")
	assert.True(t, ok)
	_, ok = m.Get("partial")
	assert.False(t, ok)

	// partial-login leftovers are erased
	_, readErr := store.Read("partial")
	assert.True(t, errors.Is(readErr, credstore.ErrNoCredentials))

	waitFor(t, "restored dial", func() bool { return dialer.DialCount() == 1 })
}

func TestDelete(t *testing.T) {
	conn := wire.NewFakeConn()
	m := newTestManager(t, wire.NewFakeDialer(conn))

	s, err := m.Start(context.Background(), "T1")
	require.Nil(t, err)
	conn.Emit(wire.Event{Type: wire.EventOpened, Identity: "15551234567"})
	waitFor(t, "open", func() bool { return s.State() == StateOpen })

	assert.True(t, m.Delete("T1"))

	_, ok := m.Get("T1")
	assert.False(t, ok)
	_, readErr := m.store.Read("T1")
	assert.True(t, errors.Is(readErr, credstore.ErrNoCredentials))

	// nothing left to delete
	assert.False(t, m.Delete("T1"))
}

func TestDeleteStoppedTenantErasesCredentials(t *testing.T) {
	m := newTestManager(t, wire.NewFakeDialer())

	// credentials without a running session
	_, err := m.store.Ensure("paused")
	require.Nil(t, err)

	assert.True(t, m.Delete("paused"))
	_, readErr := m.store.Read("paused")
	assert.True(t, errors.Is(readErr, credstore.ErrNoCredentials))
}

func TestList(t *testing.T) {
	connB := wire.NewFakeConn()
	connA := wire.NewFakeConn()
	dialer := wire.NewFakeDialer()
	m := newTestManager(t, dialer)

	dialer.Queue(connB)
	_, err := m.Start(context.Background(), "beta")
	require.Nil(t, err)
	waitFor(t, "beta dial", func() bool { return dialer.DialCount() == 1 })

	dialer.Queue(connA)
	_, err = m.Start(context.Background(), "alpha")
	require.Nil(t, err)
	waitFor(t, "alpha dial", func() bool { return dialer.DialCount() == 2 })

	connB.Emit(wire.Event{Type: wire.EventOpened, Identity: "15551230000"})
	connA.Emit(wire.Event{Type: wire.EventLoginCode, LoginCode: "XYZ-789"})

	waitFor(t, "states settle", func() bool {
		statuses := m.List()
		return len(statuses) == 2 &&
			statuses[0].State == StateAwaitingLogin &&
			statuses[1].State == StateOpen
	})

	statuses := m.List()
	assert.Equal(t, "alpha", statuses[0].TenantID)
	assert.Equal(t, "XYZ-789", statuses[0].LoginCode)
	assert.Equal(t, "beta", statuses[1].TenantID)
	assert.True(t, statuses[1].Connected)
	assert.Equal(t, "15551230000", statuses[1].Identity)
}

func TestShutdownTerminatesAllSessions(t *testing.T) {
	conn1 := wire.NewFakeConn()
	conn2 := wire.NewFakeConn()
	dialer := wire.NewFakeDialer(conn1, conn2)
	m := newTestManager(t, dialer)

	s1, err := m.Start(context.Background(), "T1")
	require.Nil(t, err)
	waitFor(t, "T1 dial", func() bool { return dialer.DialCount() == 1 })
	s2, err := m.Start(context.Background(), "T2")
	require.Nil(t, err)
	waitFor(t, "T2 dial", func() bool { return dialer.DialCount() == 2 })

	conn1.Emit(wire.Event{Type: wire.EventOpened, Identity: "1"})
	waitFor(t, "T1 open", func() bool { return s1.State() == StateOpen })

	m.Shutdown()

	assert.Equal(t, StateTerminated, s1.State())
	assert.Equal(t, StateTerminated, s2.State())
	assert.Empty(t, m.List())
	waitFor(t, "connections closed", func() bool { return conn1.Closed() })
}
