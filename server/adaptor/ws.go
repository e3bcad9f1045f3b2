package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/ponyo877/swapdesk/server/domain"
	"github.com/ponyo877/swapdesk/server/usecase"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 8 * 1024
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient binds one WebSocket connection to its room membership.
type wsClient struct {
	member domain.Member
	conn   *websocket.Conn
	out    chan domain.Envelope
	uc     Usecase
	logger *slog.Logger
}

func (a *Adaptor) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(headerSessionID)
	if sessionID == "" {
		sessionID = r.URL.Query().Get("session")
	}
	address := r.Header.Get(headerAddress)
	if address == "" {
		address = r.URL.Query().Get("address")
	}
	if sessionID == "" || address == "" {
		writeError(w, http.StatusBadRequest, "missing session id or address")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		member: domain.Member{
			ID:      ulid.Make().String(),
			Address: address,
			Room:    sessionID,
		},
		conn:   conn,
		out:    make(chan domain.Envelope, 32),
		uc:     a.uc,
		logger: a.logger,
	}

	if err := a.uc.Join(r.Context(), sessionID, address, client.member.ID, client.out); err != nil {
		a.logger.Info("connection rejected", "session_id", sessionID, "address", address, "error", err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown session"),
			time.Now().Add(wsWriteWait))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads frames off the connection and dispatches them until
// the peer goes away, then leaves the room.
func (c *wsClient) readPump() {
	defer func() {
		c.uc.Leave(c.member.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "member_id", c.member.ID, "error", err)
			}
			return
		}
		c.dispatch(context.Background(), message)
	}
}

// writePump drains the outbound channel onto the connection. A closed
// channel means the room manager evicted us; say goodbye and hang up.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced"))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch validates one inbound frame and routes it to the usecase.
// Malformed or unknown events earn the sender an error envelope and
// touch no state.
func (c *wsClient) dispatch(ctx context.Context, raw []byte) {
	var ev domain.Envelope
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.sendError("bad-envelope", "message is not a valid event envelope")
		return
	}

	switch ev.Event {
	case domain.EventSelected, domain.EventApproved:
		var asset domain.Asset
		if err := json.Unmarshal(ev.Data, &asset); err != nil || asset.IsZero() {
			c.sendError("bad-payload", "expected {contractAddress, tokenId}")
			return
		}
		var err error
		if ev.Event == domain.EventSelected {
			err = c.uc.Select(ctx, c.member, asset)
		} else {
			err = c.uc.Approve(ctx, c.member, asset)
		}
		c.reportError(err)
	case domain.EventSwapped:
		c.reportError(c.uc.Swapped(ctx, c.member, ev.Data))
	default:
		c.sendError("unknown-event", "unknown event: "+ev.Event)
	}
}

func (c *wsClient) reportError(err error) {
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrSessionNotFound):
		c.sendError("session-not-found", "session no longer exists")
	case errors.Is(err, usecase.ErrNoSlot):
		c.sendError("no-slot", "only the two slotted participants may negotiate")
	default:
		c.logger.Error("event handling failed", "member_id", c.member.ID, "error", err)
		c.sendError("internal", "event could not be processed")
	}
}

// sendError goes through the room manager rather than writing to c.out
// directly: eviction may close the channel at any moment, and only the
// manager knows, under its lock, whether the member is still live.
func (c *wsClient) sendError(code, message string) {
	c.uc.NotifyError(c.member.ID, code, message)
}
