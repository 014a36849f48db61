package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Room struct {
	Id        uuid.UUID
	Title     string
	CreatedAt time.Time
}

type Participant struct {
	Id        uuid.UUID
	Username  string
	AvatarUrl sql.NullString
	PushToken sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	Id        uuid.UUID
	RoomId    uuid.UUID
	SenderId  uuid.UUID
	Content   string
	Kind      string
	ReplyToId uuid.NullUUID
	IsRead    bool
	// Transcription is written once by the media pipeline after an audio
	// message is processed; the hub only ever reads it.
	Transcription sql.NullString
	CreatedAt     time.Time
}

type CreateMessageParams struct {
	RoomId   uuid.UUID
	SenderId uuid.UUID
	Content  string
	Kind     string
	ReplyTo  uuid.NullUUID
}
