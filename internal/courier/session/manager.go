package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/common/apperrors"
	"github.com/bizline/bizline/internal/courier/brain"
	"github.com/bizline/bizline/internal/courier/credstore"
	"github.com/bizline/bizline/internal/courier/eventbus"
	"github.com/bizline/bizline/internal/courier/eventlogger"
	"github.com/bizline/bizline/internal/courier/wire"
)

// Options configures a Manager. Store, Dialer, and Brain are required; the
// rest are backfilled with defaults matching the service configuration.
type Options struct {
	Store  *credstore.Store
	Dialer wire.Dialer
	Brain  brain.Service
	Bus    *eventbus.EventBus // optional; a fresh bus is created if nil

	MaxReconnect int           // reconnect budget per episode
	BackoffUnit  time.Duration // per-attempt backoff unit
	BackoffCap   time.Duration // backoff ceiling

	Media  MediaOptions
	Typing TypingOptions
}

func (o *Options) fillDefaults() {
	if o.MaxReconnect == 0 {
		o.MaxReconnect = 5
	}
	if o.BackoffUnit == 0 {
		o.BackoffUnit = 5 * time.Second
	}
	if o.BackoffCap == 0 {
		o.BackoffCap = 60 * time.Second
	}
	if o.Media.ImageMaxBytes == 0 {
		o.Media.ImageMaxBytes = 4 << 20
	}
	if o.Media.DocumentMaxBytes == 0 {
		o.Media.DocumentMaxBytes = 10 << 20
	}
	if o.Media.DefaultDocMime == "" {
		o.Media.DefaultDocMime = "application/octet-stream"
	}
	if o.Media.DownloadTimeout == 0 {
		o.Media.DownloadTimeout = 30 * time.Second
	}
	if o.Typing.ShortReplyChars == 0 {
		o.Typing.ShortReplyChars = 120
	}
	if o.Typing.ShortMin == 0 {
		o.Typing.ShortMin = 3 * time.Second
	}
	if o.Typing.ShortMax == 0 {
		o.Typing.ShortMax = 7 * time.Second
	}
	if o.Typing.LongMin == 0 {
		o.Typing.LongMin = 12 * time.Second
	}
	if o.Typing.LongMax == 0 {
		o.Typing.LongMax = 18 * time.Second
	}
}

// Manager is the session registry and the single entry point for session
// operations. It owns the event bus that carries lifecycle events and
// activity logs to streaming observers.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	bus        *eventbus.EventBus
	store      *credstore.Store
	dialer     wire.Dialer
	dispatcher *dispatcher
	opts       Options

	// afterFunc arms the reconnect timers. Tests swap it to observe the
	// computed delays.
	afterFunc func(time.Duration, func()) *time.Timer
}

// NewManager creates a Manager with the given options.
func NewManager(opts Options) *Manager {
	opts.fillDefaults()
	bus := opts.Bus
	if bus == nil {
		bus = eventbus.New()
	}
	return &Manager{
		sessions:   make(map[string]*Session),
		bus:        bus,
		store:      opts.Store,
		dialer:     opts.Dialer,
		dispatcher: newDispatcher(opts.Brain, opts.Media, newDelivery(opts.Typing)),
		opts:       opts,
		afterFunc:  time.AfterFunc,
	}
}

// EventBus returns the bus carrying lifecycle events and activity logs.
func (m *Manager) EventBus() *eventbus.EventBus {
	return m.bus
}

// Start begins a session for the tenant, or returns the existing one if it
// is still live. A dead handle left in the registry is cleared and replaced.
// The returned session is connecting; callers observe progress through the
// event bus or by polling Status.
func (m *Manager) Start(ctx context.Context, tenantID string) (*Session, apperrors.Error) {
	if tenantID == "" {
		return nil, ErrInvalidTenant
	}

	m.mu.Lock()
	if existing, ok := m.sessions[tenantID]; ok {
		if existing.alive() {
			m.mu.Unlock()
			return existing, nil
		}
		delete(m.sessions, tenantID)
	}
	s := m.newSession(tenantID)
	s.state = StateConnecting
	m.sessions[tenantID] = s
	m.mu.Unlock()

	// The session outlives the caller's request.
	go s.connect(context.WithoutCancel(ctx))
	return s, nil
}

// Stop terminates the tenant's session, keeping credentials so a later Start
// can resume without a fresh login. Returns false if no session exists.
func (m *Manager) Stop(tenantID string) bool {
	m.mu.RLock()
	s, ok := m.sessions[tenantID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	s.logger.Info().Msg("stopping session")
	s.terminate()
	return true
}

// Delete terminates the tenant's session and erases its credentials. The
// next Start requires a fresh login. Returns false if neither a session nor
// credentials existed.
func (m *Manager) Delete(tenantID string) bool {
	_, readErr := m.store.Read(tenantID)
	hadCreds := readErr == nil

	stopped := m.Stop(tenantID)
	if err := m.store.Erase(tenantID); err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("unable to erase credentials")
	}
	return stopped || hadCreds
}

// Get returns the tenant's session if one is registered.
func (m *Manager) Get(tenantID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tenantID]
	return s, ok
}

// List returns a snapshot of all registered sessions, ordered by tenant id.
func (m *Manager) List() []Status {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	statuses := make([]Status, 0, len(sessions))
	for _, s := range sessions {
		statuses = append(statuses, s.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].TenantID < statuses[j].TenantID
	})
	return statuses
}

// Send delivers an operator-initiated message through the tenant's open
// session. Returns false if the session is absent, not open, or the send
// fails; transport errors are logged, not propagated.
func (m *Manager) Send(ctx context.Context, tenantID, recipient, text string) bool {
	m.mu.RLock()
	s, ok := m.sessions[tenantID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return s.send(ctx, recipient, text)
}

// RestoreOnBoot starts sessions for every tenant whose stored credentials
// carry a completed login. Partial-login leftovers can never complete and
// are erased. Returns the number of sessions started.
func (m *Manager) RestoreOnBoot(ctx context.Context) int {
	tenants, err := m.store.List()
	if err != nil {
		log.Error().Err(err).Msg("unable to list credential store for restore")
		return 0
	}

	restored := 0
	for _, tenantID := range tenants {
		if !m.store.HasCompletedLogin(tenantID) {
			log.Info().Str("tenant_id", tenantID).Msg("discarding partial login credentials")
			if err := m.store.Erase(tenantID); err != nil {
				log.Error().Err(err).Str("tenant_id", tenantID).Msg("unable to erase credentials")
			}
			continue
		}
		if _, err := m.Start(ctx, tenantID); err != nil {
			log.Error().Err(err).Str("tenant_id", tenantID).Msg("unable to restore session")
			continue
		}
		restored++
	}
	if restored > 0 {
		log.Info().Int("count", restored).Msg("restored tenant sessions")
	}
	return restored
}

// Shutdown terminates all sessions and shuts down the event bus.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.terminate()
	}
	m.bus.Shutdown()
}

func (m *Manager) newSession(tenantID string) *Session {
	return &Session{
		tenantID: tenantID,
		mgr:      m,
		state:    StateIdle,
		logger:   log.With().Str("tenant_id", tenantID).Logger(),
		busLog: eventlogger.NewLogger(m.bus, TenantTopic(tenantID, TopicActivityLog)).
			With().Str("tenant_id", tenantID).Logger(),
	}
}

// owns reports whether the registry entry for the session's tenant is this
// exact session. A replaced or removed session no longer owns its slot.
func (m *Manager) owns(s *Session) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[s.tenantID] == s
}

// release removes the session from the registry if it still owns its slot.
func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.tenantID] == s {
		delete(m.sessions, s.tenantID)
	}
}
