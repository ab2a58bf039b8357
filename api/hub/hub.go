package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"coderanker/api/dto"
	"coderanker/pkg/config"
	"coderanker/pkg/logger"
	"coderanker/pkg/messages"
	"coderanker/pkg/metrics"

	"github.com/gorilla/websocket"
)

// Snapshots is the source of the state sent to the rooms.
type Snapshots interface {
	LeaderboardSnapshot(ctx context.Context, n int) ([]*dto.LeaderboardEntry, error)
	GlobalSnapshot(ctx context.Context) (*dto.GlobalStats, error)
	UserSnapshot(ctx context.Context, userID string) (*dto.UserStats, error)
}

// Hub keeps the room memberships and pushes the leaderboard updates.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn
	rooms map[string]map[string]Conn

	snapshots Snapshots
	logger    logger.Logger
	metrics   *metrics.Metrics
	cfg       config.HubConfig
}

// HubDeps is the dependency list for the hub.
type HubDeps struct {
	Snapshots Snapshots
	Logger    logger.Logger
	Metrics   *metrics.Metrics
	Config    config.HubConfig
}

// NewHub creates an empty hub.
func NewHub(deps *HubDeps) *Hub {
	h := &Hub{
		conns:     make(map[string]Conn),
		rooms:     make(map[string]map[string]Conn),
		snapshots: deps.Snapshots,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		cfg:       deps.Config,
	}
	if h.logger == nil {
		h.logger = logger.Nop{}
	}
	return h
}

// Register adds the connection and sends the welcome message.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	h.conns[conn.ID()] = conn
	h.mu.Unlock()
	h.metrics.ConnectionOpened()

	welcome := newMessage(TypeConnection, "", map[string]string{"connectionId": conn.ID()})
	welcome.Message = "Connected to the leaderboard"
	h.sendTo(conn, welcome)
}

// Subscribe adds the connection to the room and sends the current state of the room to it.
func (h *Hub) Subscribe(ctx context.Context, conn Conn, room string) error {
	if err := ValidateRoom(room); err != nil {
		return err
	}
	if err := AuthorizeRoom(room, conn.UserID()); err != nil {
		return err
	}

	snapshot, err := h.snapshot(ctx, room)
	if err != nil {
		return err
	}
	snapshotPayload, err := encode(snapshot)
	if err != nil {
		return err
	}
	ackPayload, err := encode(newMessage(TypeSubscribed, room, nil))
	if err != nil {
		return err
	}

	// Joining and sending under the lock puts the snapshot ahead of every broadcast this subscriber gets.
	// It was loaded before the lock, so it may trail a broadcast sent in between. The next update catches up.
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]Conn)
		h.rooms[room] = members
	}
	members[conn.ID()] = conn

	sendErr := conn.Send(snapshotPayload)
	if sendErr == nil {
		sendErr = conn.Send(ackPayload)
	}
	h.mu.Unlock()

	if sendErr != nil {
		h.drop(conn)
	}
	return nil
}

// Unsubscribe removes the connection from the room. Unknown memberships are ignored.
func (h *Hub) Unsubscribe(conn Conn, room string) {
	h.mu.Lock()
	h.leave(conn.ID(), room)
	h.mu.Unlock()

	h.sendTo(conn, newMessage(TypeUnsubscribed, room, nil))
}

// OnDisconnect removes the connection from every room.
func (h *Hub) OnDisconnect(conn Conn) {
	if h.remove(conn.ID()) {
		h.metrics.ConnectionClosed()
	}
}

// Broadcast sends the message to the members of the room, dropping the ones that fail.
// It returns how many members received it.
func (h *Hub) Broadcast(room string, message Message) int {
	message.Room = room
	payload, err := encode(message)
	if err != nil {
		h.logger.Errorf("Couldn't broadcast to %s: %v", room, err)
		return 0
	}

	var failed []Conn
	delivered := 0

	h.mu.RLock()
	for _, conn := range h.rooms[room] {
		if err := conn.Send(payload); err != nil {
			failed = append(failed, conn)
			continue
		}
		delivered++
	}
	h.mu.RUnlock()

	for _, conn := range failed {
		h.drop(conn)
	}

	return delivered
}

// HandleMessage processes a client message.
func (h *Hub) HandleMessage(ctx context.Context, conn Conn, payload []byte) {
	var msg inbound
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.sendTo(conn, errorMessage(sentence(messages.InvalidMessage)))
		return
	}

	switch msg.Type {
	case TypeSubscribe:
		if err := h.Subscribe(ctx, conn, msg.Room); err != nil {
			h.sendTo(conn, errorMessage(err.Error()))
		}
	case TypeUnsubscribe:
		h.Unsubscribe(conn, msg.Room)
	case TypePing:
		h.sendTo(conn, newMessage(TypePong, "", nil))
	default:
		h.sendTo(conn, errorMessage(sentence(messages.UnknownMessageType)))
	}
}

// ServeWS runs the websocket connection of an authenticated user until the client goes away.
func (h *Hub) ServeWS(ctx context.Context, ws *websocket.Conn, userID string) {
	conn := NewWSConn(ws, userID, h.cfg.SendBuffer)
	go conn.WritePump()

	h.Register(conn)
	defer func() {
		h.OnDisconnect(conn)
		conn.Close()
	}()

	conn.ReadPump(func(payload []byte) {
		h.HandleMessage(ctx, conn, payload)
	})
}

// Run pushes the periodic leaderboard and global updates until the context ends.
func (h *Hub) Run(ctx context.Context) {
	leaderboardTicker := time.NewTicker(h.cfg.LeaderboardInterval)
	globalTicker := time.NewTicker(h.cfg.GlobalInterval)
	defer leaderboardTicker.Stop()
	defer globalTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-leaderboardTicker.C:
			h.BroadcastLeaderboard(ctx)
		case <-globalTicker.C:
			h.BroadcastGlobal(ctx)
		}
	}
}

// BroadcastLeaderboard sends the current top entries to the leaderboard room.
func (h *Hub) BroadcastLeaderboard(ctx context.Context) {
	if h.RoomSize(RoomLeaderboard) == 0 {
		return
	}

	message, err := h.snapshot(ctx, RoomLeaderboard)
	if err != nil {
		h.logger.Warnf("Couldn't build the leaderboard update: %v", err)
		return
	}
	h.Broadcast(RoomLeaderboard, message)
}

// BroadcastGlobal sends the global numbers to the global room.
func (h *Hub) BroadcastGlobal(ctx context.Context) {
	if h.RoomSize(RoomGlobal) == 0 {
		return
	}

	message, err := h.snapshot(ctx, RoomGlobal)
	if err != nil {
		h.logger.Warnf("Couldn't build the global update: %v", err)
		return
	}
	h.Broadcast(RoomGlobal, message)
}

// NotifyRankChange pushes the rank change and the new leaderboard without waiting for the next tick.
func (h *Hub) NotifyRankChange(ctx context.Context, event dto.RankChangeEvent) {
	h.Broadcast(RoomLeaderboard, newMessage(TypeLeaderboardChange, RoomLeaderboard, event))
	h.BroadcastLeaderboard(ctx)
}

// NotifyUserStatsUpdated tells the room of the user that new stats are available.
func (h *Hub) NotifyUserStatsUpdated(ctx context.Context, userID string) {
	room := UserRoom(userID)
	h.Broadcast(room, newMessage(TypeUserStatsUpdated, room, map[string]string{"userId": userID}))
}

// RoomSize returns the number of members of the room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Connections returns the number of registered connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close closes every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]Conn)
	h.rooms = make(map[string]map[string]Conn)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
		h.metrics.ConnectionClosed()
	}
}

// Build the current state message of a room.
func (h *Hub) snapshot(ctx context.Context, room string) (Message, error) {
	switch {
	case room == RoomLeaderboard:
		entries, err := h.snapshots.LeaderboardSnapshot(ctx, h.cfg.LeaderboardSize)
		if err != nil {
			return Message{}, fmt.Errorf("failed to load the leaderboard: %w", err)
		}
		return newMessage(TypeLeaderboardUpdate, room, entries), nil
	case room == RoomGlobal:
		stats, err := h.snapshots.GlobalSnapshot(ctx)
		if err != nil {
			return Message{}, fmt.Errorf("failed to load the global stats: %w", err)
		}
		return newMessage(TypeGlobalStatsUpdate, room, stats), nil
	default:
		userID := strings.TrimPrefix(room, userRoomPrefix)
		stats, err := h.snapshots.UserSnapshot(ctx, userID)
		if err != nil {
			return Message{}, fmt.Errorf("failed to load the stats of %s: %w", userID, err)
		}
		return newMessage(TypeUserStats, room, stats), nil
	}
}

// Send a single message, dropping the connection on failure.
func (h *Hub) sendTo(conn Conn, message Message) {
	payload, err := encode(message)
	if err != nil {
		h.logger.Errorf("Couldn't send to %s: %v", conn.ID(), err)
		return
	}
	if err := conn.Send(payload); err != nil {
		h.drop(conn)
	}
}

// Remove a failing connection and close it.
func (h *Hub) drop(conn Conn) {
	if h.remove(conn.ID()) {
		h.metrics.ConnectionDropped()
		h.metrics.ConnectionClosed()
	}
	conn.Close()
}

// Remove the connection from the hub, reporting whether it was registered.
func (h *Hub) remove(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.rooms {
		h.leave(id, room)
	}

	_, ok := h.conns[id]
	delete(h.conns, id)
	return ok
}

// Must be called with the lock held.
func (h *Hub) leave(id, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}
