package realtime

import (
	"encoding/json"
	"time"
)

// Broadcast fans a payload out to every connection in the room, stamping
// the envelope with a server-generated timestamp at dispatch.
func (h *Hub) Broadcast(room RoomID, event string, payload interface{}) {
	msg := OutboundMessage{
		Type:      MsgTypeEvent,
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshalling broadcast message", err)
		return
	}

	members := h.roomSnapshot(room)
	for _, client := range members {
		client.trySend(data)
	}
	if len(members) > 0 {
		h.logger.Debug("broadcast sent", "room="+string(room), "event="+event)
	}
}

// SendToUser targets every live connection of one user.
func (h *Hub) SendToUser(userID int, event string, payload interface{}) {
	h.Broadcast(UserRoom(userID), event, payload)
}

// BroadcastToTenant targets every connection scoped to the tenant.
func (h *Hub) BroadcastToTenant(tenantID int, event string, payload interface{}) {
	h.Broadcast(TenantRoom(tenantID), event, payload)
}

// SendToCourseRoom targets the course channel.
func (h *Hub) SendToCourseRoom(courseID int, event string, payload interface{}) {
	h.Broadcast(CourseRoom(courseID), event, payload)
}
