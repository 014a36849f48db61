package types

import (
	"time"

	"github.com/google/uuid"
)

type Participant struct {
	Id        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarUrl string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Room struct {
	Id           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Participants []Participant `json:"participants,omitempty"`
	CreatedAt    time.Time     `json:"created_at,omitempty"`
}

// ReplySummary is the compact form of a replied-to message embedded in a
// broadcast, enough for a client to render a quote without a second fetch.
type ReplySummary struct {
	Id       uuid.UUID `json:"id"`
	SenderId uuid.UUID `json:"sender_id"`
	Content  string    `json:"content"`
	Kind     string    `json:"type"`
}

// Message is the outbound broadcast DTO for a persisted chat message.
type Message struct {
	Id              uuid.UUID     `json:"id"`
	RoomId          uuid.UUID     `json:"room_id"`
	SenderId        uuid.UUID     `json:"sender_id"`
	Content         string        `json:"content"`
	Kind            string        `json:"type"`
	CreatedAt       time.Time     `json:"created_at"`
	ReplyTo         *ReplySummary `json:"reply_to,omitempty"`
	ClientMessageId string        `json:"client_message_id,omitempty"`
}
