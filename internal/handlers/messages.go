package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inspection-portal/internal/messaging"
)

// MessageHandler serves messages and complaints for every role
type MessageHandler struct {
	messaging *messaging.Service
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(svc *messaging.Service) *MessageHandler {
	return &MessageHandler{messaging: svc}
}

// Inbox returns received messages
func (h *MessageHandler) Inbox(c *gin.Context) {
	msgs, err := h.messaging.Inbox(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	unread, err := h.messaging.UnreadCount(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"inbox": msgs, "count": len(msgs), "unread": unread})
}

// Sent returns sent messages
func (h *MessageHandler) Sent(c *gin.Context) {
	msgs, err := h.messaging.Sent(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	page(c, gin.H{"sent": msgs, "count": len(msgs)})
}

// Send delivers a message
func (h *MessageHandler) Send(c *gin.Context) {
	var in messaging.SendInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.messaging.Send(c.Request.Context(), actor(c), in); err != nil {
		fail(c, err)
		return
	}
	done(c, "Message sent", "/messages/sent")
}

// MarkRead flags a received message as read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.messaging.MarkRead(c.Request.Context(), actor(c), id); err != nil {
		fail(c, err)
		return
	}
	done(c, "Marked as read", "/messages")
}

// FileComplaint records a complaint
func (h *MessageHandler) FileComplaint(c *gin.Context) {
	var in messaging.ComplaintInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.messaging.FileComplaint(c.Request.Context(), actor(c), in); err != nil {
		fail(c, err)
		return
	}
	done(c, "Complaint filed, an admin will review it", home(c))
}
