package database

import "github.com/google/uuid"

type ChatRepository interface {
	Ping() error
	RoomExists(roomId uuid.UUID) (bool, error)
	GetRoomParticipants(roomId uuid.UUID) ([]Participant, error)
	GetParticipant(participantId uuid.UUID) (Participant, error)
	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessage(roomId, messageId uuid.UUID) (Message, error)
}
