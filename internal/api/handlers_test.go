package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/langbridge/chathub/internal/config"
	"github.com/langbridge/chathub/internal/database"
	"github.com/langbridge/chathub/internal/hub"
	"github.com/langbridge/chathub/internal/push"
	"github.com/langbridge/chathub/internal/stats"
	"github.com/langbridge/chathub/internal/testutil"
	"github.com/langbridge/chathub/internal/types"
)

type wsTestEnv struct {
	app    *App
	hub    *hub.Hub
	db     *database.MockChatRepository
	server *httptest.Server
}

func newWsTestEnv(t *testing.T) *wsTestEnv {
	db := &database.MockChatRepository{}
	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything).Return().Maybe()
	su.On("Decr", mock.Anything).Return().Maybe()
	su.On("Add", mock.Anything, mock.Anything).Return().Maybe()

	logger := testutil.TestLogger(t)
	h := hub.NewHub(logger, db, &push.MockNotifier{}, su, hub.Options{
		CloseOnSupersede:  true,
		NotifyOfflineOnly: true,
	})

	mux := http.NewServeMux()
	app := NewApp(mux, logger, h, db, &config.Config{ServerAddr: "localhost:0"})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &wsTestEnv{app: app, hub: h, db: db, server: server}
}

func (env *wsTestEnv) dial(t *testing.T, roomId, participantId string) (*websocket.Conn, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/" + roomId + "?participant_id=" + participantId
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, err
}

func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.Truef(t, websocket.IsCloseError(err, code), "expected close code %d, got %v", code, err)
}

func TestServeWs_MalformedRoomId(t *testing.T) {
	env := newWsTestEnv(t)
	defer env.db.AssertExpectations(t)

	conn, err := env.dial(t, "not-a-uuid", uuid.New().String())
	require.NoError(t, err, "expected the upgrade to succeed before the handshake check")

	expectClose(t, conn, websocket.CloseProtocolError)
	assert.Equal(t, 0, env.hub.Registry().NumRooms(), "expected no registration for a malformed room id")
}

func TestServeWs_UnknownRoom(t *testing.T) {
	env := newWsTestEnv(t)
	defer env.db.AssertExpectations(t)

	roomId := uuid.New()
	env.db.On("RoomExists", roomId).Return(false, nil)

	conn, err := env.dial(t, roomId.String(), uuid.New().String())
	require.NoError(t, err)

	expectClose(t, conn, websocket.CloseInternalServerErr)
	assert.Equal(t, 0, env.hub.Registry().NumRooms())
}

func TestServeWs_MissingParticipantId(t *testing.T) {
	env := newWsTestEnv(t)
	defer env.db.AssertExpectations(t)

	roomId := uuid.New()
	env.db.On("RoomExists", roomId).Return(true, nil)

	conn, err := env.dial(t, roomId.String(), "")
	require.NoError(t, err)

	expectClose(t, conn, websocket.CloseProtocolError)
	assert.Equal(t, 0, env.hub.Registry().NumRooms())
}

func TestServeWs_RoomLookupFailure(t *testing.T) {
	env := newWsTestEnv(t)
	defer env.db.AssertExpectations(t)

	roomId := uuid.New()
	env.db.On("RoomExists", roomId).Return(false, errors.New("connection refused"))

	conn, err := env.dial(t, roomId.String(), uuid.New().String())
	require.NoError(t, err)

	expectClose(t, conn, websocket.CloseInternalServerErr)
}

func TestServeWs_EmptyContentKeepsConnectionOpen(t *testing.T) {
	env := newWsTestEnv(t)
	defer env.db.AssertExpectations(t)

	roomId, senderId := uuid.New(), uuid.New()
	env.db.On("RoomExists", roomId).Return(true, nil)

	conn, err := env.dial(t, roomId.String(), senderId.String())
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":      "text",
		"sender_id": senderId.String(),
		"content":   "",
	}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var frame map[string]string
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "Content cannot be empty", frame["error"])

	// the connection stays open: a valid message still goes through
	env.db.On("CreateMessage", mock.Anything).Return(database.Message{
		Id:        uuid.New(),
		RoomId:    roomId,
		SenderId:  senderId,
		Content:   "hi",
		Kind:      "text",
		CreatedAt: time.Now().UTC(),
	}, nil)
	env.db.On("GetRoomParticipants", roomId).Return(nil, nil).Maybe()

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":      "text",
		"sender_id": senderId.String(),
		"content":   "hi",
	}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg types.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "hi", msg.Content)
}

func TestServeWs_BroadcastReachesAllTransports(t *testing.T) {
	env := newWsTestEnv(t)
	defer env.db.AssertExpectations(t)

	roomId, aId, bId := uuid.New(), uuid.New(), uuid.New()
	env.db.On("RoomExists", roomId).Return(true, nil)

	connA, err := env.dial(t, roomId.String(), aId.String())
	require.NoError(t, err)
	connB, err := env.dial(t, roomId.String(), bId.String())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return env.hub.Registry().RoomSize(roomId) == 2
	}, time.Second, 10*time.Millisecond, "expected both transports registered")

	createdAt := time.Now().UTC().Round(time.Millisecond)
	messageId := uuid.New()
	env.db.On("CreateMessage", database.CreateMessageParams{
		RoomId:   roomId,
		SenderId: aId,
		Content:  "hi",
		Kind:     "text",
	}).Return(database.Message{
		Id:        messageId,
		RoomId:    roomId,
		SenderId:  aId,
		Content:   "hi",
		Kind:      "text",
		CreatedAt: createdAt,
	}, nil)
	env.db.On("GetRoomParticipants", roomId).Return(nil, nil).Maybe()

	require.NoError(t, connA.WriteJSON(map[string]string{
		"type":              "text",
		"sender_id":         aId.String(),
		"content":           "hi",
		"client_message_id": "optimistic-1",
	}))

	for _, conn := range []*websocket.Conn{connA, connB} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		var msg types.Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, messageId, msg.Id, "expected a fresh persisted message id")
		assert.Equal(t, roomId, msg.RoomId)
		assert.Equal(t, aId, msg.SenderId)
		assert.Equal(t, "hi", msg.Content)
		assert.Equal(t, createdAt, msg.CreatedAt.UTC(), "expected the server-assigned timestamp")
	}
}

func TestServeWs_SignalingRelayedToPeersOnly(t *testing.T) {
	env := newWsTestEnv(t)
	defer env.db.AssertExpectations(t)

	roomId, aId, bId := uuid.New(), uuid.New(), uuid.New()
	env.db.On("RoomExists", roomId).Return(true, nil)

	connA, err := env.dial(t, roomId.String(), aId.String())
	require.NoError(t, err)
	connB, err := env.dial(t, roomId.String(), bId.String())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return env.hub.Registry().RoomSize(roomId) == 2
	}, time.Second, 10*time.Millisecond)

	offer := `{"type":"call_offer","sender_id":"` + aId.String() + `","sdp":{"type":"offer","sdp":"v=0"}}`
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, []byte(offer)))

	connB.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := connB.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, offer, string(raw), "expected the offer forwarded unchanged")

	// the sender must not receive its own offer
	connA.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = connA.ReadMessage()
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout(), "expected no frame on the sender's connection")

	env.db.AssertNotCalled(t, "CreateMessage", mock.Anything)
}

func TestServeWs_SupersededConnectionIsReplaced(t *testing.T) {
	env := newWsTestEnv(t)
	defer env.db.AssertExpectations(t)

	roomId, participantId := uuid.New(), uuid.New()
	env.db.On("RoomExists", roomId).Return(true, nil)

	connOld, err := env.dial(t, roomId.String(), participantId.String())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return env.hub.Registry().RoomSize(roomId) == 1
	}, time.Second, 10*time.Millisecond)

	connNew, err := env.dial(t, roomId.String(), participantId.String())
	require.NoError(t, err)

	// the old transport is closed with a going-away code
	connOld.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = connOld.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "expected the superseded transport closed, got %v", err)

	assert.Equal(t, 1, env.hub.Registry().RoomSize(roomId), "expected one live transport per participant")

	env.db.On("CreateMessage", mock.Anything).Return(database.Message{
		Id:       uuid.New(),
		RoomId:   roomId,
		SenderId: participantId,
		Content:  "hi",
		Kind:     "text",
	}, nil)
	env.db.On("GetRoomParticipants", roomId).Return(nil, nil).Maybe()

	require.NoError(t, connNew.WriteJSON(map[string]string{
		"type":      "text",
		"sender_id": participantId.String(),
		"content":   "hi",
	}))

	connNew.SetReadDeadline(time.Now().Add(time.Second))
	var msg types.Message
	require.NoError(t, connNew.ReadJSON(&msg))
	assert.Equal(t, "hi", msg.Content, "expected broadcasts to reach the newest transport")
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db := &database.MockChatRepository{}
		defer db.AssertExpectations(t)
		db.On("Ping").Return(nil)

		app := &App{log: testutil.TestLogger(t), db: db}

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		app.health(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("database unreachable", func(t *testing.T) {
		db := &database.MockChatRepository{}
		defer db.AssertExpectations(t)
		db.On("Ping").Return(errors.New("connection refused"))

		app := &App{log: testutil.TestLogger(t), db: db}

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		app.health(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
