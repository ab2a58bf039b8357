package hub

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"coderanker/pkg/apperrors"
	"coderanker/pkg/messages"
)

// Rooms accepted by the hub, besides the per user ones.
const (
	RoomLeaderboard = "leaderboard"
	RoomGlobal      = "global"
	userRoomPrefix  = "user_"
)

// Message types.
const (
	TypeConnection        = "connection"
	TypeSubscribe         = "subscribe"
	TypeUnsubscribe       = "unsubscribe"
	TypePing              = "ping"
	TypePong              = "pong"
	TypeSubscribed        = "subscribed"
	TypeUnsubscribed      = "unsubscribed"
	TypeError             = "error"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeLeaderboardChange = "leaderboard_change"
	TypeGlobalStatsUpdate = "global_stats_update"
	TypeUserStats         = "user_stats"
	TypeUserStatsUpdated  = "user_stats_updated"
)

// Message is everything sent to a client.
type Message struct {
	Type      string `json:"type"`
	Room      string `json:"room,omitempty"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// inbound is a message received from a client.
type inbound struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

func newMessage(messageType, room string, data any) Message {
	return Message{
		Type:      messageType,
		Room:      room,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

func errorMessage(text string) Message {
	return Message{
		Type:      TypeError,
		Message:   text,
		Timestamp: time.Now().UnixMilli(),
	}
}

func encode(message Message) ([]byte, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", message.Type, err)
	}
	return payload, nil
}

// UserRoom is the room receiving the updates of a single user.
func UserRoom(userID string) string {
	return userRoomPrefix + userID
}

// ValidateRoom accepts the leaderboard, the global and a user room.
func ValidateRoom(room string) error {
	switch {
	case room == RoomLeaderboard, room == RoomGlobal:
		return nil
	case strings.HasPrefix(room, userRoomPrefix) && len(room) > len(userRoomPrefix):
		return nil
	default:
		return fmt.Errorf("%w: "+messages.InvalidRoom, apperrors.ErrValidation, room)
	}
}

// AuthorizeRoom lets a user join the shared rooms and its own user room only.
func AuthorizeRoom(room, userID string) error {
	if owner, ok := strings.CutPrefix(room, userRoomPrefix); ok && owner != userID {
		return fmt.Errorf("%w: "+messages.RoomNotOwned, apperrors.ErrValidation, room)
	}
	return nil
}

// Capitalize the first letter, the client messages are sentences.
func sentence(text string) string {
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}
