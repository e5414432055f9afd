package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftvision/draftvision/internal/draftroom"
	"github.com/draftvision/draftvision/internal/draftroom/events"
	"github.com/draftvision/draftvision/internal/models"
)

// ErrRoomNotFound is returned when a room id has no live session.
var ErrRoomNotFound = errors.New("draft room not found")

// OrderRepository loads the draft order for a season.
type OrderRepository interface {
	ListOrderByYear(ctx context.Context, year, rounds int) ([]models.DraftOrderEntry, error)
}

// PoolLoader loads the player pool for a season.
type PoolLoader interface {
	LoadPool(ctx context.Context, year, rounds int) ([]models.Player, error)
}

// EventPublisher forwards room events beyond the local fan-out.
type EventPublisher interface {
	PublishRoomEvent(ctx context.Context, ev *events.Envelope) error
}

// RoomManager owns the live draft room sessions.
type RoomManager struct {
	orders    OrderRepository
	pool      PoolLoader
	conns     *ConnectionManager
	publisher EventPublisher

	mu    sync.RWMutex
	rooms map[uuid.UUID]*draftroom.Room
}

// NewRoomManager creates a room manager.
func NewRoomManager(orders OrderRepository, pool PoolLoader, conns *ConnectionManager, publisher EventPublisher) *RoomManager {
	return &RoomManager{
		orders:    orders,
		pool:      pool,
		conns:     conns,
		publisher: publisher,
		rooms:     make(map[uuid.UUID]*draftroom.Room),
	}
}

// Create loads the draft order and player pool for the configuration and
// opens a new room. Fetch failures surface to the caller with no retry.
func (rm *RoomManager) Create(ctx context.Context, cfg models.DraftConfiguration) (*draftroom.Room, error) {
	order, err := rm.orders.ListOrderByYear(ctx, cfg.DraftYear, cfg.Rounds)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft order: %w", err)
	}
	pool, err := rm.pool.LoadPool(ctx, cfg.DraftYear, cfg.Rounds)
	if err != nil {
		return nil, err
	}

	room, err := draftroom.NewRoom(cfg, order, pool,
		draftroom.WithSink(draftroom.SinkFunc(rm.dispatch)))
	if err != nil {
		return nil, err
	}

	rm.mu.Lock()
	rm.rooms[room.ID] = room
	rm.mu.Unlock()

	log.Info().Str("room_id", room.ID.String()).Int("year", cfg.DraftYear).Msg("draft room created")
	return room, nil
}

// Order exposes the raw draft order for a season, capped to a round
// count.
func (rm *RoomManager) Order(ctx context.Context, year, rounds int) ([]models.DraftOrderEntry, error) {
	return rm.orders.ListOrderByYear(ctx, year, rounds)
}

// Get returns a live room by id.
func (rm *RoomManager) Get(id uuid.UUID) (*draftroom.Room, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, ok := rm.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Close drops a room from the manager.
func (rm *RoomManager) Close(id uuid.UUID) {
	rm.mu.Lock()
	delete(rm.rooms, id)
	rm.mu.Unlock()
}

// dispatch fans a room event out to websocket clients and the realtime
// publisher. Called from inside the room with its lock held, so all work
// here must be non-blocking.
func (rm *RoomManager) dispatch(ev *events.Envelope) {
	rm.conns.Broadcast(ev)
	if rm.publisher != nil {
		go func() {
			if err := rm.publisher.PublishRoomEvent(context.Background(), ev); err != nil {
				log.Error().Err(err).
					Str("room_id", ev.RoomID).
					Str("event_type", string(ev.Type)).
					Msg("failed to publish room event")
			}
		}()
	}
}
