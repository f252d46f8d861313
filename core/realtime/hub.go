package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/darasa/platform/core"
	"github.com/darasa/platform/core/auth"
)

// clientSendBufferSize is the per-client outbound message buffer size.
const clientSendBufferSize = 256

type (
	// Hub is the connection registry. Room membership is computed once per
	// connection from its authenticated identity; connections never survive
	// a reconnect, rooms are rejoined fresh each time.
	Hub struct {
		conf   core.ServerConfig
		logger core.Logger

		mu      sync.RWMutex
		clients map[string]*Client              // by socket id
		rooms   map[RoomID]map[*Client]struct{} // membership index
	}

	// Client is one authenticated long-lived connection. Identity is
	// attached at handshake and never re-derived from later messages.
	Client struct {
		ID       string
		Identity auth.Identity

		hub   *Hub
		conn  *websocket.Conn // nil for transport-less clients in tests
		send  chan []byte
		rooms []RoomID
	}
)

func NewHub(conf core.ServerConfig, logger core.Logger) *Hub {
	return &Hub{
		conf:    conf,
		logger:  logger,
		clients: make(map[string]*Client),
		rooms:   make(map[RoomID]map[*Client]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Connect registers a new client for the identity and joins its computed
// rooms. The caller owns starting the read/write pumps.
func (h *Hub) Connect(conn *websocket.Conn, identity auth.Identity) *Client {
	client := &Client{
		ID:       uuid.NewString(),
		Identity: identity,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, clientSendBufferSize),
		rooms:    RoomsFor(identity),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	for _, room := range client.rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[client] = struct{}{}
	}
	h.mu.Unlock()

	h.logger.Debug("client connected", clientLogRef(client))
	return client
}

// JoinCourses subscribes the client to course channels. Enrollment is
// resolved server-side by the caller; clients cannot join rooms through
// inbound messages.
func (h *Hub) JoinCourses(client *Client, courseIDs ...int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.clients[client.ID]; !live {
		return
	}
	for _, id := range courseIDs {
		room := CourseRoom(id)
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		if _, joined := members[client]; joined {
			continue
		}
		members[client] = struct{}{}
		client.rooms = append(client.rooms, room)
	}
}

// IsMemberOf reports whether the client currently belongs to the room.
func (h *Hub) IsMemberOf(client *Client, room RoomID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][client]
	return ok
}

// Disconnect removes the client from all rooms and the registry. Only the
// goroutine that removes the client closes its send channel, preventing
// double-close during shutdown.
func (h *Hub) Disconnect(client *Client) {
	h.mu.Lock()
	_, existed := h.clients[client.ID]
	delete(h.clients, client.ID)
	for _, room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("client disconnected", clientLogRef(client))
}

// CountActiveInRoom is an O(1) presence lookup.
func (h *Hub) CountActiveInRoom(room RoomID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// IsUserOnline reports whether the user has at least one live connection.
func (h *Hub) IsUserOnline(userID int) bool {
	return h.CountActiveInRoom(UserRoom(userID)) > 0
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, id)
	}
	h.rooms = make(map[RoomID]map[*Client]struct{})
}

// roomSnapshot copies a room's member list under the hub lock so sends
// happen lock-free.
func (h *Hub) roomSnapshot(room RoomID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		members = append(members, client)
	}
	return members
}

// ReadPump reads messages from the connection and routes them. Events on
// one socket process in arrival order; sockets proceed concurrently.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	deadline := c.hub.conf.WSPingInterval + c.hub.conf.WSPongTimeout
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", err, clientLogRef(c))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
		c.hub.HandleInbound(c, message)
	}
}

// WritePump writes queued messages and protocol pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.conf.WSPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.conf.WSWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.conf.WSWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend never blocks: full buffers (slow clients) and closed channels
// (disconnect racing a broadcast) drop the message.
func (c *Client) trySend(data []byte) {
	defer func() {
		recover() // absorb send-on-closed-channel
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(message string) {
	msg := OutboundMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]string{"message": message},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

// Receive pops the next queued outbound frame; transport-less test helper.
func (c *Client) Receive() ([]byte, bool) {
	select {
	case data, ok := <-c.send:
		return data, ok
	default:
		return nil, false
	}
}

func clientLogRef(c *Client) string {
	return "socket=" + c.ID
}
