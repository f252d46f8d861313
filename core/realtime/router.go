package realtime

import (
	"encoding/json"
	"fmt"
)

// HandleInbound validates and routes one client message. Every check
// compares against the connection's authenticated identity, never against
// client-declared fields; authorization failures are side-effect-free
// drops, logged as security warnings.
func (h *Hub) HandleInbound(c *Client, data []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid JSON message")
		return
	}
	if !IsKnownEvent(msg.Event) {
		c.sendError("unknown event: " + msg.Event)
		return
	}

	// Declared scope must agree with the authenticated identity. The
	// global super-role carries no tenant and may address one explicitly.
	if msg.TenantID != 0 && msg.TenantID != c.Identity.TenantID && !c.Identity.IsGlobal() {
		h.warnRejected(c, msg.Event, fmt.Sprintf("declared tenant_id=%d identity tenant_id=%d", msg.TenantID, c.Identity.TenantID))
		return
	}
	if msg.UserID != 0 && msg.UserID != c.Identity.ID {
		h.warnRejected(c, msg.Event, fmt.Sprintf("declared user_id=%d identity id=%d", msg.UserID, c.Identity.ID))
		return
	}

	// Privileged events re-check the role at dispatch time.
	if IsPrivilegedEvent(msg.Event) && !c.Identity.Role.IsAdmin() {
		h.warnRejected(c, msg.Event, "role "+string(c.Identity.Role)+" is not administrative")
		return
	}

	switch msg.Event {
	case EventCourseProgress, EventCourseMessage:
		if msg.CourseID <= 0 {
			c.sendError("course_id is required")
			return
		}
		// course_id is client-supplied; only members of the course room may
		// address it, so an unenrolled connection cannot reach other tenants
		// through an arbitrary course id.
		if !h.IsMemberOf(c, CourseRoom(msg.CourseID)) {
			h.warnRejected(c, msg.Event, fmt.Sprintf("not a member of course %d", msg.CourseID))
			return
		}
		h.SendToCourseRoom(msg.CourseID, msg.Event, inboundPayload(c, msg))

	case EventTenantBroadcast:
		tenantID := c.Identity.TenantID
		if c.Identity.IsGlobal() && msg.TenantID != 0 {
			tenantID = msg.TenantID
		}
		if tenantID == 0 {
			c.sendError("tenant_id is required")
			return
		}
		h.BroadcastToTenant(tenantID, msg.Event, inboundPayload(c, msg))

	case EventSystemAlert:
		if !c.Identity.IsGlobal() {
			h.warnRejected(c, msg.Event, "system alerts require the global role")
			return
		}
		h.Broadcast(AdminsRoom, msg.Event, inboundPayload(c, msg))
	}
}

// inboundPayload rebuilds the fan-out payload from authenticated facts plus
// the opaque client payload; declared ids are discarded.
func inboundPayload(c *Client, msg InboundMessage) map[string]interface{} {
	out := map[string]interface{}{
		"sender_id": c.Identity.ID,
	}
	if c.Identity.TenantID != 0 {
		out["tenant_id"] = c.Identity.TenantID
	}
	if msg.CourseID > 0 {
		out["course_id"] = msg.CourseID
	}
	if len(msg.Payload) > 0 {
		out["data"] = json.RawMessage(msg.Payload)
	}
	return out
}

func (h *Hub) warnRejected(c *Client, event, reason string) {
	h.logger.Warn("inbound event rejected",
		"event="+event,
		fmt.Sprintf("identity_id=%d", c.Identity.ID),
		clientLogRef(c),
		reason,
	)
}
