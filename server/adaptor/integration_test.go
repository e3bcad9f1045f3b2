package adaptor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ponyo877/swapdesk/server/domain"
	"github.com/ponyo877/swapdesk/server/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func (r *memoryRepository) GetSession(_ context.Context, id string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.sessions[id]
	if !exists {
		return domain.Session{}, usecase.ErrSessionNotFound
	}
	return s, nil
}

func (r *memoryRepository) PutSession(_ context.Context, id string, s domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
	return nil
}

func (r *memoryRepository) DeleteSessionsBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type wsTestServer struct {
	uc  *usecase.Usecase
	srv *httptest.Server
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	repo := &memoryRepository{sessions: make(map[string]domain.Session)}
	uc := usecase.NewUsecase(repo, domain.NewRoomManager(), nil)
	srv := httptest.NewServer(NewAdaptor(uc, nil).Router())
	t.Cleanup(srv.Close)
	return &wsTestServer{uc: uc, srv: srv}
}

func (s *wsTestServer) dial(t *testing.T, sessionID, address string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("X-Session-Id", sessionID)
	header.Set("X-Address", address)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev domain.Envelope
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func writeEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	ev, err := domain.NewEnvelope(event, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ev))
}

func TestWS_UnknownSessionRejected(t *testing.T) {
	s := newWSTestServer(t)
	conn := s.dial(t, "nope", "alice")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestWS_HandshakeScenario(t *testing.T) {
	s := newWSTestServer(t)
	id, err := s.uc.CreateSession(context.Background())
	require.NoError(t, err)

	alice := s.dial(t, id, "alice")
	ev := readEvent(t, alice)
	require.Equal(t, domain.EventParticipants, ev.Event)

	writeEvent(t, alice, domain.EventSelected, domain.Asset{ContractAddress: "0xc1", TokenID: "1"})
	require.Eventually(t, func() bool {
		session, err := s.uc.GetSession(context.Background(), id)
		return err == nil && session.X.ContractAddress == "0xc1"
	}, 2*time.Second, 10*time.Millisecond)

	bob := s.dial(t, id, "bob")
	ev = readEvent(t, alice)
	require.Equal(t, domain.EventNewParticipant, ev.Event)
	ev = readEvent(t, bob)
	require.Equal(t, domain.EventParticipants, ev.Event)
	var snapshot domain.ParticipantsPayload
	require.NoError(t, json.Unmarshal(ev.Data, &snapshot))
	assert.ElementsMatch(t, []string{"alice", "bob"}, snapshot.Addresses)

	writeEvent(t, bob, domain.EventSelected, domain.Asset{ContractAddress: "0xc2", TokenID: "2"})
	ev = readEvent(t, alice)
	require.Equal(t, domain.EventTargetSelected, ev.Event)
	var asset domain.Asset
	require.NoError(t, json.Unmarshal(ev.Data, &asset))
	assert.Equal(t, domain.Asset{ContractAddress: "0xc2", TokenID: "2"}, asset)

	writeEvent(t, alice, domain.EventApproved, domain.Asset{ContractAddress: "0xc1", TokenID: "1"})
	ev = readEvent(t, bob)
	require.Equal(t, domain.EventTargetApproved, ev.Event)

	writeEvent(t, bob, domain.EventApproved, domain.Asset{ContractAddress: "0xc2", TokenID: "2"})
	ev = readEvent(t, bob)
	require.Equal(t, domain.EventProcessSwap, ev.Event)
	var session domain.Session
	require.NoError(t, json.Unmarshal(ev.Data, &session))
	assert.True(t, session.Ready())
	assert.Equal(t, "0xc1", session.X.ContractAddress)
	assert.Equal(t, "0xc2", session.Y.ContractAddress)

	ev = readEvent(t, alice)
	require.Equal(t, domain.EventTargetApproved, ev.Event)

	writeEvent(t, bob, domain.EventSwapped, map[string]string{"tx": "0xdeadbeef"})
	for _, conn := range []*websocket.Conn{alice, bob} {
		ev = readEvent(t, conn)
		require.Equal(t, domain.EventSwapped, ev.Event)
		assert.JSONEq(t, `{"tx":"0xdeadbeef"}`, string(ev.Data))
	}
}

func TestWS_ReconnectEvictsOldConnection(t *testing.T) {
	s := newWSTestServer(t)
	id, err := s.uc.CreateSession(context.Background())
	require.NoError(t, err)

	old := s.dial(t, id, "alice")
	readEvent(t, old) // participants

	replacement := s.dial(t, id, "alice")
	ev := readEvent(t, replacement)
	require.Equal(t, domain.EventParticipants, ev.Event)
	var snapshot domain.ParticipantsPayload
	require.NoError(t, json.Unmarshal(ev.Data, &snapshot))
	assert.Equal(t, []string{"alice"}, snapshot.Addresses)

	old.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = old.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	// the slot is unchanged
	session, err := s.uc.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.X.Address)
	assert.Empty(t, session.Y.Address)
}

func TestWS_MalformedEventGetsErrorReply(t *testing.T) {
	s := newWSTestServer(t)
	id, err := s.uc.CreateSession(context.Background())
	require.NoError(t, err)

	alice := s.dial(t, id, "alice")
	readEvent(t, alice) // participants

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"event":"nft-selected","data":{}}`)))
	ev := readEvent(t, alice)
	require.Equal(t, domain.EventError, ev.Event)
	var payload domain.ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, "bad-payload", payload.Code)
}
