package ws

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub    *Hub
	logger *zap.SugaredLogger
}

func NewHubNotifier(hub *Hub, logger *zap.SugaredLogger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

func (n *HubNotifier) NotifyNewMessage(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageNew, &msg.ConversationID, MessagePayload{Message: *msg})
	if err != nil {
		n.logger.Errorw("notifier marshal failed", "error", err)
		return
	}
	n.hub.BroadcastToConversation(msg.ConversationID, evt, nil)
}

func (n *HubNotifier) NotifyDeletedMessage(conversationID, messageID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageDeleted, &conversationID, MessageDeletedPayload{ID: messageID})
	if err != nil {
		n.logger.Errorw("notifier marshal failed", "error", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, nil)
}
