package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const closeWriteWait = 10 * time.Second

func (s *App) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *App) health(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health: %v", err)
		errResp := NewServiceUnavailableError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serveWs upgrades the connection, runs the handshake checks and hands the
// socket to the hub. Handshake failures close the socket with a specific
// close code before any message exchange: a malformed room id or missing
// participant id is a protocol violation (1002), an unknown room means the
// server cannot proceed (1011).
func (s *App) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	roomId, err := uuid.Parse(r.PathValue("room_id"))
	if err != nil {
		s.closeWithCode(conn, websocket.CloseProtocolError, "invalid room ID")
		return
	}

	exists, err := s.db.RoomExists(roomId)
	if err != nil {
		s.log.Println("room lookup:", err)
		s.closeWithCode(conn, websocket.CloseInternalServerErr, "internal server error")
		return
	}
	if !exists {
		s.closeWithCode(conn, websocket.CloseInternalServerErr, "room not found")
		return
	}

	participantId, err := uuid.Parse(r.URL.Query().Get("participant_id"))
	if err != nil {
		s.closeWithCode(conn, websocket.CloseProtocolError, "participant_id is required")
		return
	}

	if _, err := s.hub.Attach(roomId, participantId, conn); err != nil {
		s.log.Println("attach client:", err)
		s.closeWithCode(conn, websocket.CloseInternalServerErr, "internal server error")
	}
}

func (s *App) closeWithCode(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait)); err != nil {
		s.log.Println("write close message:", err)
	}

	conn.Close()
}
