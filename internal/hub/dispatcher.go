package hub

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/langbridge/chathub/internal/stats"
	"github.com/langbridge/chathub/internal/types"
)

// BroadcastDispatcher fans a persisted message out to every transport in the
// room, the sender's own included: the self-echo is how the sender's UI
// confirms persistence. Delivery is at-most-once and per-transport isolated.
type BroadcastDispatcher struct {
	registry *Registry
	log      *log.Logger
	stats    stats.StatsProvider
}

func NewBroadcastDispatcher(registry *Registry, logger *log.Logger, sp stats.StatsProvider) *BroadcastDispatcher {
	return &BroadcastDispatcher{
		registry: registry,
		log:      logger,
		stats:    sp,
	}
}

// Broadcast delivers the message to every transport registered for the room
// at the instant of dispatch. A transport that fails delivery is unregistered
// and the loop continues; it returns the number of successful deliveries.
func (d *BroadcastDispatcher) Broadcast(roomId uuid.UUID, msg *types.Message) int {
	payload, err := json.Marshal(msg)
	if err != nil {
		d.log.Printf("marshal broadcast for room %q: %v", roomId, err)
		return 0
	}

	var delivered int
	for _, sub := range d.registry.Snapshot(roomId) {
		if !sub.Client.queueFrame(payload) {
			d.dropSubscriber(roomId, sub)
			continue
		}

		delivered++
		d.stats.Incr(stats.BroadcastsDelivered)
	}

	return delivered
}

// dropSubscriber treats a failed delivery as an implicit disconnect.
func (d *BroadcastDispatcher) dropSubscriber(roomId uuid.UUID, sub Subscriber) {
	terr := &TransportError{Participant: sub.ParticipantId.String(), Err: errSendQueueFull}
	d.log.Printf("dropping subscriber in room %q: %v", roomId, terr)

	d.registry.Unregister(roomId, sub.ParticipantId, sub.Client.session)
	sub.Client.close()
	d.stats.Incr(stats.DeliveryFailures)
}
