package hub

import (
	"log"

	"github.com/google/uuid"

	"github.com/langbridge/chathub/internal/stats"
)

// SignalingRelay forwards call-control frames point-to-point between room
// participants. Frames are never persisted and never echoed to the sender;
// the payload passes through byte-for-byte.
type SignalingRelay struct {
	registry *Registry
	log      *log.Logger
	stats    stats.StatsProvider
}

func NewSignalingRelay(registry *Registry, logger *log.Logger, sp stats.StatsProvider) *SignalingRelay {
	return &SignalingRelay{
		registry: registry,
		log:      logger,
		stats:    sp,
	}
}

// Relay forwards the raw frame to every transport in the room except the
// sender's. Failed transports are unregistered and the loop continues.
func (r *SignalingRelay) Relay(roomId, senderId uuid.UUID, frame []byte) int {
	var relayed int
	for _, sub := range r.registry.Snapshot(roomId) {
		if sub.ParticipantId == senderId {
			continue
		}

		if !sub.Client.queueFrame(frame) {
			terr := &TransportError{Participant: sub.ParticipantId.String(), Err: errSendQueueFull}
			r.log.Printf("dropping subscriber in room %q: %v", roomId, terr)

			r.registry.Unregister(roomId, sub.ParticipantId, sub.Client.session)
			sub.Client.close()
			r.stats.Incr(stats.DeliveryFailures)
			continue
		}

		relayed++
		r.stats.Incr(stats.SignalsRelayed)
	}

	return relayed
}
