package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/draftvision/draftvision/internal/draftroom/events"
	"github.com/draftvision/draftvision/internal/models"
)

const (
	streamName          = "DRAFT_EVENTS"
	roomSubjectPrefix   = "draft.rooms"
	profileUpdateSubj   = "players.profile.updated"
	natsMaxReconnects   = 10
	natsReconnectWait   = 2 * time.Second
	maxManualReconnects = 3
)

// Manager owns the NATS connection and its health state. It is explicitly
// constructed with Init/Teardown lifecycle and passed to components that
// need the change feed or event publishing; there are no package globals.
type Manager struct {
	url string

	mu         sync.Mutex
	nc         *nats.Conn
	js         jetstream.JetStream
	subs       []*nats.Subscription
	reconnects int

	forceReload chan struct{}
}

// NewManager creates a manager for the given NATS URL. Call Init before
// use.
func NewManager(url string) *Manager {
	return &Manager{
		url:         url,
		forceReload: make(chan struct{}, 1),
	}
}

// Init connects to NATS, sets up JetStream and ensures the draft event
// stream exists.
func (m *Manager) Init(ctx context.Context) error {
	opts := []nats.Option{
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(m.url, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{roomSubjectPrefix + ".>"},
	}); err != nil {
		nc.Close()
		return fmt.Errorf("ensure stream: %w", err)
	}

	m.mu.Lock()
	m.nc = nc
	m.js = js
	m.reconnects = 0
	m.mu.Unlock()

	log.Info().Str("url", m.url).Msg("realtime manager initialized")
	return nil
}

// Teardown drains subscriptions and closes the connection.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("failed to unsubscribe")
		}
	}
	m.subs = nil
	if m.nc != nil {
		m.nc.Close()
		m.nc = nil
	}
}

// Healthy reports whether the connection is currently usable.
func (m *Manager) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nc != nil && m.nc.IsConnected()
}

// ForceReload signals that recovery attempts are exhausted and the client
// should perform a full reload.
func (m *Manager) ForceReload() <-chan struct{} {
	return m.forceReload
}

// Reconnect is the manual "fix connection" affordance. Attempts are
// capped; past the cap a force-reload is signalled instead.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.mu.Lock()
	if m.nc != nil && m.nc.IsConnected() {
		m.mu.Unlock()
		return nil
	}
	m.reconnects++
	attempts := m.reconnects
	m.mu.Unlock()

	if attempts > maxManualReconnects {
		log.Warn().Int("attempts", attempts).Msg("reconnect attempts exhausted, forcing reload")
		select {
		case m.forceReload <- struct{}{}:
		default:
		}
		return fmt.Errorf("reconnect attempts exhausted")
	}

	log.Info().Int("attempt", attempts).Msg("manual reconnect")
	m.Teardown()
	return m.Init(ctx)
}

// PublishRoomEvent publishes a draft room event to JetStream.
func (m *Manager) PublishRoomEvent(ctx context.Context, ev *events.Envelope) error {
	m.mu.Lock()
	js := m.js
	m.mu.Unlock()
	if js == nil {
		return fmt.Errorf("realtime manager not initialized")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", roomSubjectPrefix, ev.RoomID, ev.Type)
	if _, err := js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// SubscribePlayerProfiles subscribes to player-profile row updates and
// feeds each patch to the handler.
func (m *Manager) SubscribePlayerProfiles(handler func(models.Player)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nc == nil {
		return fmt.Errorf("realtime manager not initialized")
	}

	sub, err := m.nc.Subscribe(profileUpdateSubj, func(msg *nats.Msg) {
		var p models.Player
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			log.Error().Err(err).Msg("failed to unmarshal player profile update")
			return
		}
		handler(p)
	})
	if err != nil {
		return fmt.Errorf("subscribe to profile updates: %w", err)
	}
	m.subs = append(m.subs, sub)

	log.Info().Str("subject", profileUpdateSubj).Msg("subscribed to player profile updates")
	return nil
}
