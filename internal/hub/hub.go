package hub

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"github.com/langbridge/chathub/internal/database"
	"github.com/langbridge/chathub/internal/push"
	"github.com/langbridge/chathub/internal/stats"
)

// Options are the hub's explicit policy knobs.
type Options struct {
	// CloseOnSupersede sends a close frame to the old transport when a
	// participant reconnects, instead of leaving it to error out on its own.
	CloseOnSupersede bool
	// NotifyOfflineOnly restricts push notifications to participants without
	// a live transport.
	NotifyOfflineOnly bool
}

// Hub owns the connection registry and drives the chat flow: ingest, fan-out
// and notification for chat envelopes, relay for signaling envelopes. It is
// constructed once and shared by every connection.
type Hub struct {
	log        *log.Logger
	db         database.ChatRepository
	registry   *Registry
	pipeline   *IngestPipeline
	dispatcher *BroadcastDispatcher
	relay      *SignalingRelay
	trigger    *NotificationTrigger
	stats      stats.StatsProvider
	opts       Options
}

func NewHub(logger *log.Logger, db database.ChatRepository, notifier push.Notifier, sp stats.StatsProvider, opts Options) *Hub {
	registry := NewRegistry()

	return &Hub{
		log:        logger,
		db:         db,
		registry:   registry,
		pipeline:   NewIngestPipeline(db, logger, sp),
		dispatcher: NewBroadcastDispatcher(registry, logger, sp),
		relay:      NewSignalingRelay(registry, logger, sp),
		trigger:    NewNotificationTrigger(db, notifier, registry, opts.NotifyOfflineOnly, logger, sp),
		stats:      sp,
		opts:       opts,
	}
}

// Registry exposes the live-connection table to the HTTP layer.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Attach registers a freshly upgraded connection and starts its pumps. The
// handshake (room id shape, room existence, participant presence) has already
// been verified by the caller.
func (h *Hub) Attach(roomId, participantId uuid.UUID, conn *websocket.Conn) (*Client, error) {
	session, err := shortid.Generate()
	if err != nil {
		return nil, err
	}

	c := newClient(session, roomId, participantId, conn, h, h.log)

	if prev := h.registry.Register(roomId, participantId, c); prev != nil {
		h.log.Printf("superseding connection for %q in room %q", participantId, roomId)
		if h.opts.CloseOnSupersede {
			prev.closeWithCode(websocket.CloseGoingAway, "superseded by a new connection")
		}
		h.stats.Decr(stats.ActiveConnections)
	}

	h.stats.Incr(stats.ActiveConnections)
	h.log.Printf("registered %q in room %q", participantId, roomId)

	go c.writePump()
	go c.readPump()

	return c, nil
}

// disconnect tears a client down after its read pump exits. The conditional
// unregister means a superseded connection cannot evict its replacement.
func (h *Hub) disconnect(c *Client) {
	if h.registry.Unregister(c.roomId, c.participantId, c.session) {
		h.stats.Decr(stats.ActiveConnections)
		h.log.Printf("unregistered %q from room %q", c.participantId, c.roomId)
	}

	c.close()
}

// handleChat runs one chat envelope through ingest, fan-out and the
// notification trigger. Rejections are answered on the sender's connection
// only; other transports in the room observe nothing.
func (h *Hub) handleChat(c *Client, env *InboundEnvelope) {
	msg, err := h.pipeline.Ingest(c.roomId, env)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			c.sendError(vErr.Message)
			return
		}

		var sErr *StorageError
		if errors.As(err, &sErr) {
			h.log.Printf("persist message from %q in room %q: %v", c.participantId, c.roomId, sErr)
			c.sendError("Failed to save message, please retry")
			return
		}

		h.log.Printf("ingest message from %q in room %q: %v", c.participantId, c.roomId, err)
		c.sendError("internal server error")
		return
	}

	h.dispatcher.Broadcast(c.roomId, msg)

	// best-effort, never blocks or fails the chat flow
	go h.trigger.Notify(context.Background(), c.roomId, msg)
}

// Shutdown stops every live client. Pending writes are abandoned; the
// registry empties as the read pumps exit.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.log.Println("shutting down hub")

	for _, c := range h.registry.Clients() {
		c.closeWithCode(websocket.CloseGoingAway, "server shutting down")
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for h.registry.NumRooms() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}
