package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/transport/ws"
)

// APIGateway talks to the messaging server: REST for query/insert/delete,
// WebSocket for the live subscription.
type APIGateway struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.SugaredLogger
}

func NewAPIGateway(baseURL, token string, logger *zap.SugaredLogger) *APIGateway {
	return &APIGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (g *APIGateway) History(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	path := fmt.Sprintf("/api/v1/conversations/%s/messages?limit=100", conversationID)
	if err := g.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (g *APIGateway) Insert(ctx context.Context, conversationID uuid.UUID, content string, attachments []string) error {
	body := map[string]any{"content": content}
	if len(attachments) > 0 {
		body["attachments"] = attachments
	}
	path := fmt.Sprintf("/api/v1/conversations/%s/messages", conversationID)
	return g.do(ctx, http.MethodPost, path, body, nil)
}

func (g *APIGateway) Delete(ctx context.Context, messageID uuid.UUID) error {
	err := g.do(ctx, http.MethodDelete, "/api/v1/messages/"+messageID.String(), nil, nil)
	// Already gone is as good as deleted.
	if err != nil && strings.Contains(err.Error(), "404") {
		return nil
	}
	return err
}

// Conversations lists the caller's conversations for the picker view.
func (g *APIGateway) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	if err := g.do(ctx, http.MethodGet, "/api/v1/conversations", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// MarkRead resets the caller's unread counter for a conversation.
func (g *APIGateway) MarkRead(ctx context.Context, conversationID uuid.UUID) error {
	return g.do(ctx, http.MethodPost, "/api/v1/conversations/"+conversationID.String()+"/read", nil, nil)
}

func (g *APIGateway) Subscribe(ctx context.Context, conversationID uuid.UUID) (Subscription, error) {
	wsURL := strings.Replace(g.baseURL, "http", "ws", 1) + "/ws?token=" + g.token

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing gateway: %w", err)
	}

	payload, err := json.Marshal(ws.ConversationPayload{ConversationID: conversationID})
	if err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return nil, err
	}
	if err := wsjson.Write(ctx, conn, ws.Event{
		Type:    ws.EventTypeSubscribe,
		Payload: payload,
	}); err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return nil, fmt.Errorf("subscribing: %w", err)
	}

	sub := &wsSubscription{
		conn:   conn,
		events: make(chan Event, 64),
	}
	go sub.readLoop(ctx, conversationID, g.logger)
	return sub, nil
}

func (g *APIGateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// wsSubscription adapts the server's event stream to the store's
// Subscription interface, filtered to one conversation.
type wsSubscription struct {
	conn   *websocket.Conn
	events chan Event
}

func (s *wsSubscription) Events() <-chan Event {
	return s.events
}

func (s *wsSubscription) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

func (s *wsSubscription) readLoop(ctx context.Context, conversationID uuid.UUID, logger *zap.SugaredLogger) {
	defer close(s.events)

	for {
		var evt ws.Event
		if err := wsjson.Read(ctx, s.conn, &evt); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				logger.Warnw("subscription read failed", "error", err)
			}
			return
		}

		if evt.ConversationID == nil || *evt.ConversationID != conversationID {
			continue
		}

		switch evt.Type {
		case ws.EventTypeSubscribed:
			s.emit(Event{Kind: EventSubscribed})

		case ws.EventTypeMessageNew:
			var p ws.MessagePayload
			if err := json.Unmarshal(evt.Payload, &p); err != nil {
				logger.Warnw("bad message payload", "error", err)
				continue
			}
			msg := p.Message
			s.emit(Event{Kind: EventInsert, Message: &msg})

		case ws.EventTypeMessageDeleted:
			var p ws.MessageDeletedPayload
			if err := json.Unmarshal(evt.Payload, &p); err != nil {
				logger.Warnw("bad delete payload", "error", err)
				continue
			}
			s.emit(Event{Kind: EventDelete, MessageID: p.ID})
		}
	}
}

func (s *wsSubscription) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		// Slow consumer; drop rather than block the read loop.
	}
}
