package hub

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/langbridge/chathub/internal/database"
	"github.com/langbridge/chathub/internal/stats"
	"github.com/langbridge/chathub/internal/types"
)

// IngestPipeline validates an inbound chat envelope, persists it and produces
// the broadcast DTO. It creates exactly one message row per successful call
// and none on any rejection path.
type IngestPipeline struct {
	db       database.ChatRepository
	validate *validator.Validate
	log      *log.Logger
	stats    stats.StatsProvider
}

func NewIngestPipeline(db database.ChatRepository, logger *log.Logger, sp stats.StatsProvider) *IngestPipeline {
	return &IngestPipeline{
		db:       db,
		validate: validator.New(),
		log:      logger,
		stats:    sp,
	}
}

// Ingest runs the full pipeline for one chat envelope. It returns a
// *ValidationError for malformed envelopes and a *StorageError when the
// persistence call fails; the message is broadcast only on a nil error.
func (p *IngestPipeline) Ingest(roomId uuid.UUID, env *InboundEnvelope) (*types.Message, error) {
	if !env.Type.IsChat() {
		return nil, NewValidationError("unsupported message type %q", env.Type)
	}

	if err := p.validate.Struct(env); err != nil {
		return nil, p.validationError(err)
	}

	senderId, err := uuid.Parse(env.SenderId)
	if err != nil {
		return nil, NewValidationError("Invalid sender ID")
	}

	replyTo, summary := p.resolveReplyTarget(roomId, env.ReplyToMessageId)

	msg, err := p.db.CreateMessage(database.CreateMessageParams{
		RoomId:   roomId,
		SenderId: senderId,
		Content:  env.Content,
		Kind:     string(env.Type),
		ReplyTo:  replyTo,
	})
	if err != nil {
		return nil, &StorageError{Err: err}
	}

	p.stats.Incr(stats.MessagesPersisted)

	return &types.Message{
		Id:              msg.Id,
		RoomId:          msg.RoomId,
		SenderId:        msg.SenderId,
		Content:         msg.Content,
		Kind:            msg.Kind,
		CreatedAt:       msg.CreatedAt,
		ReplyTo:         summary,
		ClientMessageId: env.ClientMessageId,
	}, nil
}

// resolveReplyTarget looks up the replied-to message. The reference is a
// best-effort enrichment: a malformed or unresolvable id is dropped with a
// log line, never a reason to fail the message.
func (p *IngestPipeline) resolveReplyTarget(roomId uuid.UUID, replyToId string) (uuid.NullUUID, *types.ReplySummary) {
	if replyToId == "" {
		return uuid.NullUUID{}, nil
	}

	targetId, err := uuid.Parse(replyToId)
	if err != nil {
		p.log.Printf("dropping malformed reply target %q: %v", replyToId, err)
		return uuid.NullUUID{}, nil
	}

	target, err := p.db.GetMessage(roomId, targetId)
	if err != nil {
		p.log.Printf("dropping unresolved reply target %q: %v", replyToId, err)
		return uuid.NullUUID{}, nil
	}

	return uuid.NullUUID{UUID: target.Id, Valid: true}, &types.ReplySummary{
		Id:       target.Id,
		SenderId: target.SenderId,
		Content:  target.Content,
		Kind:     target.Kind,
	}
}

func (p *IngestPipeline) validationError(err error) *ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Field() {
		case "Content":
			return NewValidationError("Content cannot be empty")
		case "SenderId":
			return NewValidationError("Invalid sender ID")
		}
	}

	return NewValidationError("invalid message")
}
