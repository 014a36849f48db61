package hub

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	// large enough for an SDP offer, which dwarfs any chat envelope
	maxMessageSize = 16 * 1024
)

var errSendQueueFull = errors.New("send queue full")

// Client owns one websocket transport registered for a (room, participant)
// pair. The read pump processes envelopes strictly in arrival order, so a
// single sender's messages are persisted and broadcast in the order sent.
type Client struct {
	session       string
	roomId        uuid.UUID
	participantId uuid.UUID
	conn          *websocket.Conn
	hub           *Hub
	log           *log.Logger
	send          chan []byte
	closeFrame    chan []byte
	stop          chan struct{}
	stopOnce      sync.Once
}

func newClient(session string, roomId, participantId uuid.UUID, conn *websocket.Conn, h *Hub, l *log.Logger) *Client {
	return &Client{
		session:       session,
		roomId:        roomId,
		participantId: participantId,
		conn:          conn,
		hub:           h,
		log:           l,
		send:          make(chan []byte, 256),
		closeFrame:    make(chan []byte, 1),
		stop:          make(chan struct{}),
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("write pump for %q exiting", c.participantId)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}

			if !c.writeFrame(websocket.TextMessage, frame) {
				return
			}
		case frame := <-c.closeFrame:
			c.writeFrame(websocket.CloseMessage, frame)
			return
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Printf("panic in connection for %q in room %q: %v", c.participantId, c.roomId, r)
		}

		c.conn.Close()
		c.hub.disconnect(c)
		c.log.Printf("read pump for %q exiting", c.participantId)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		c.handleEnvelope(raw)
	}
}

// handleEnvelope classifies one inbound frame: chat kinds go through the
// ingest pipeline, signaling kinds are relayed verbatim. Rejections send an
// inline error frame and keep the connection open.
func (c *Client) handleEnvelope(raw []byte) {
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Printf("parse envelope from %q: %v", c.participantId, err)
		c.sendError("invalid message format")
		return
	}

	switch {
	case env.Type.IsSignaling():
		c.hub.relay.Relay(c.roomId, c.participantId, raw)
	case env.Type.IsChat():
		c.hub.handleChat(c, &env)
	default:
		c.sendError("unsupported message type")
	}
}

// queueFrame enqueues a frame for the write pump without blocking. A full
// queue means the peer has stopped draining and is treated as disconnected.
func (c *Client) queueFrame(frame []byte) bool {
	select {
	case <-c.stop:
		return false
	case c.send <- frame:
		return true
	default:
		c.log.Printf("send queue full for %q", c.participantId)
		return false
	}
}

func (c *Client) sendError(msg string) {
	frame, err := json.Marshal(ErrorFrame{Error: msg})
	if err != nil {
		c.log.Printf("marshal error frame: %v", err)
		return
	}

	c.queueFrame(frame)
}

func (c *Client) writeFrame(msgType int, frame []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, frame); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write frame: %s", err)
		}
		return false
	}

	return true
}

// closeWithCode hands the write pump a close frame so the peer learns why it
// is being disconnected. The frame goes through the pump because it is the
// connection's only writer; the pump tears the connection down after writing
// it, which in turn ends the read pump.
func (c *Client) closeWithCode(code int, reason string) {
	select {
	case c.closeFrame <- websocket.FormatCloseMessage(code, reason):
	default:
		// a close frame is already pending
	}
}

func (c *Client) close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
