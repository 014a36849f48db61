package database

import (
	"github.com/google/uuid"
)

func (db *PgChatRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgChatRepository) RoomExists(roomId uuid.UUID) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)",
		roomId,
	)

	var exists bool
	err := row.Scan(&exists)

	return exists, err
}

func (db *PgChatRepository) GetRoomParticipants(roomId uuid.UUID) ([]Participant, error) {
	rows, err := db.conn.Query(
		"SELECT p.id, p.username, p.avatar_url, p.push_token FROM participants p "+
			"JOIN room_participants rp ON rp.participant_id = p.id "+
			"WHERE rp.room_id = $1 ORDER BY p.username",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(
			&p.Id,
			&p.Username,
			&p.AvatarUrl,
			&p.PushToken,
		); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func (db *PgChatRepository) GetParticipant(participantId uuid.UUID) (Participant, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, avatar_url, push_token, created_at, updated_at "+
			"FROM participants WHERE id = $1 LIMIT 1",
		participantId,
	)

	var p Participant
	err := row.Scan(
		&p.Id,
		&p.Username,
		&p.AvatarUrl,
		&p.PushToken,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgChatRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (id, room_id, sender_id, content, type, reply_to_id, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, now()) "+
			"RETURNING id, room_id, sender_id, content, type, reply_to_id, is_read, created_at",
		uuid.New(),
		params.RoomId,
		params.SenderId,
		params.Content,
		params.Kind,
		params.ReplyTo,
	)

	var m Message
	err := res.Scan(
		&m.Id,
		&m.RoomId,
		&m.SenderId,
		&m.Content,
		&m.Kind,
		&m.ReplyToId,
		&m.IsRead,
		&m.CreatedAt,
	)

	return m, err
}

func (db *PgChatRepository) GetMessage(roomId, messageId uuid.UUID) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_id, sender_id, content, type, reply_to_id, is_read, transcription, created_at "+
			"FROM messages WHERE id = $1 AND room_id = $2 LIMIT 1",
		messageId,
		roomId,
	)

	var m Message
	err := row.Scan(
		&m.Id,
		&m.RoomId,
		&m.SenderId,
		&m.Content,
		&m.Kind,
		&m.ReplyToId,
		&m.IsRead,
		&m.Transcription,
		&m.CreatedAt,
	)

	return m, err
}
