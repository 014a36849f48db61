package hub

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/langbridge/chathub/internal/database"
	"github.com/langbridge/chathub/internal/push"
	"github.com/langbridge/chathub/internal/stats"
	"github.com/langbridge/chathub/internal/types"
)

// NotificationTrigger fires a push notification after a successful broadcast.
// It is fire-and-forget: every failure is logged and none of them ever
// surfaces to a connection.
type NotificationTrigger struct {
	db       database.ChatRepository
	notifier push.Notifier
	registry *Registry
	// offlineOnly suppresses pushes for participants that already received
	// the broadcast on a live transport. When false, every participant but
	// the sender is notified regardless of presence.
	offlineOnly bool
	log         *log.Logger
	stats       stats.StatsProvider
}

func NewNotificationTrigger(db database.ChatRepository, notifier push.Notifier, registry *Registry, offlineOnly bool, logger *log.Logger, sp stats.StatsProvider) *NotificationTrigger {
	return &NotificationTrigger{
		db:          db,
		notifier:    notifier,
		registry:    registry,
		offlineOnly: offlineOnly,
		log:         logger,
		stats:       sp,
	}
}

func (t *NotificationTrigger) Notify(ctx context.Context, roomId uuid.UUID, msg *types.Message) {
	participants, err := t.db.GetRoomParticipants(roomId)
	if err != nil {
		t.log.Printf("fetch participants for room %q: %v", roomId, err)
		t.stats.Incr(stats.NotificationFailures)
		return
	}

	title := "New message"
	var tokens []string
	for _, p := range participants {
		if p.Id == msg.SenderId {
			title = p.Username
			continue
		}

		if t.offlineOnly && t.registry.IsConnected(roomId, p.Id) {
			continue
		}

		if p.PushToken.Valid && p.PushToken.String != "" {
			tokens = append(tokens, p.PushToken.String)
		}
	}

	if len(tokens) == 0 {
		return
	}

	res, err := t.notifier.Send(ctx, tokens, title, notificationBody(msg), map[string]string{
		"room_id":    msg.RoomId.String(),
		"message_id": msg.Id.String(),
		"sender_id":  msg.SenderId.String(),
	})
	if err != nil {
		t.log.Printf("push notification for room %q: %v", roomId, err)
		t.stats.Incr(stats.NotificationFailures)
		return
	}

	t.log.Printf("push notification for room %q: %d sent, %d failed", roomId, res.SuccessCount, res.FailureCount)
	t.stats.Add(stats.NotificationsSent, res.SuccessCount)
	if res.FailureCount > 0 {
		t.stats.Add(stats.NotificationFailures, res.FailureCount)
	}
}

// notificationBody renders the preview line shown on the lock screen.
func notificationBody(msg *types.Message) string {
	switch Kind(msg.Kind) {
	case KindAudio:
		return "[voice message]"
	case KindVideo:
		return "[video message]"
	case KindText:
		return msg.Content
	default:
		return "[attachment]"
	}
}
