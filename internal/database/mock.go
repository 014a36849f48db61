package database

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockChatRepository) RoomExists(roomId uuid.UUID) (bool, error) {
	args := m.Called(roomId)
	return args.Bool(0), args.Error(1)
}
func (m *MockChatRepository) GetRoomParticipants(roomId uuid.UUID) ([]Participant, error) {
	args := m.Called(roomId)
	if participants, ok := args.Get(0).([]Participant); ok {
		return participants, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockChatRepository) GetParticipant(participantId uuid.UUID) (Participant, error) {
	args := m.Called(participantId)
	return args.Get(0).(Participant), args.Error(1)
}
func (m *MockChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockChatRepository) GetMessage(roomId, messageId uuid.UUID) (Message, error) {
	args := m.Called(roomId, messageId)
	return args.Get(0).(Message), args.Error(1)
}
