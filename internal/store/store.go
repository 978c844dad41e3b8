// Package store owns the client-side view of one conversation: the
// ordered message list, the loading flag and the live-connection state.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

// ConnectionStatus is the client's current belief about subscription
// health. It starts at StatusConnecting and moves to StatusConnected on
// the subscription ack or StatusDisconnected on failure; reconnect
// attempts re-enter StatusConnecting.
type ConnectionStatus int

const (
	StatusConnecting ConnectionStatus = iota
	StatusConnected
	StatusDisconnected
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventKind tags a subscription event.
type EventKind int

const (
	EventSubscribed EventKind = iota
	EventInsert
	EventDelete
)

// Event is one row-change (or ack) delivered by the subscription.
type Event struct {
	Kind      EventKind
	Message   *domain.Message
	MessageID uuid.UUID
}

// Subscription is a live event stream for one conversation. The Events
// channel closing signals that the channel dropped.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Gateway is the backend the store talks to. It is injected so tests can
// substitute a fake.
type Gateway interface {
	History(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
	Insert(ctx context.Context, conversationID uuid.UUID, content string, attachments []string) error
	Delete(ctx context.Context, messageID uuid.UUID) error
	Subscribe(ctx context.Context, conversationID uuid.UUID) (Subscription, error)
}

// ErrNotConnected is returned by Send while the subscription is down.
var ErrNotConnected = errors.New("not connected")

// StoreError is the typed failure surfaced to the presentation layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// Snapshot is the read contract exposed to presentation code.
type Snapshot struct {
	Messages []domain.Message
	Loading  bool
	Err      *StoreError
	Status   ConnectionStatus
}

const (
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

// MessageStore keeps one conversation's live message list.
type MessageStore struct {
	gateway        Gateway
	conversationID uuid.UUID
	logger         *zap.SugaredLogger

	mu       sync.Mutex
	messages []domain.Message
	seen     map[uuid.UUID]struct{}
	loading  bool
	status   ConnectionStatus
	lastErr  *StoreError
	onChange func()

	cancel context.CancelFunc
	done   chan struct{}
}

func New(gateway Gateway, conversationID uuid.UUID, logger *zap.SugaredLogger) *MessageStore {
	return &MessageStore{
		gateway:        gateway,
		conversationID: conversationID,
		logger:         logger,
		seen:           make(map[uuid.UUID]struct{}),
		loading:        true,
		status:         StatusConnecting,
		done:           make(chan struct{}),
	}
}

// SetOnChange registers a callback fired after every state change. Must
// be called before Open.
func (s *MessageStore) SetOnChange(fn func()) {
	s.onChange = fn
}

// Open loads history and starts the subscription loop. Non-blocking.
func (s *MessageStore) Open(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

// Close tears the subscription down and waits for the loop to exit.
func (s *MessageStore) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *MessageStore) run(ctx context.Context) {
	defer close(s.done)

	s.loadHistory(ctx)

	backoff := baseBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		s.setStatus(StatusConnecting)

		sub, err := s.gateway.Subscribe(ctx, s.conversationID)
		if err != nil {
			s.logger.Warnw("subscribe failed", "conversation_id", s.conversationID, "error", err)
			s.setStatus(StatusDisconnected)
			if !s.sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		for ev := range sub.Events() {
			switch ev.Kind {
			case EventSubscribed:
				backoff = baseBackoff
				s.setStatus(StatusConnected)
			case EventInsert:
				if ev.Message != nil {
					s.applyInsert(*ev.Message)
				}
			case EventDelete:
				s.applyDelete(ev.MessageID)
			}
		}
		sub.Close()
		s.setStatus(StatusDisconnected)

		if !s.sleep(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

func (s *MessageStore) loadHistory(ctx context.Context) {
	messages, err := s.gateway.History(ctx, s.conversationID)

	s.mu.Lock()
	if err != nil {
		s.lastErr = &StoreError{Op: "load", Err: err}
		s.logger.Warnw("history load failed", "conversation_id", s.conversationID, "error", err)
	} else {
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		})
		s.messages = messages
		for _, msg := range messages {
			s.seen[msg.ID] = struct{}{}
		}
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// Send inserts a message. Empty content with no attachments is a no-op;
// sends are inert while the subscription is down. No local echo: the
// message appears once the subscription delivers it.
func (s *MessageStore) Send(ctx context.Context, content string, attachments []string) error {
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return nil
	}

	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	if status != StatusConnected {
		return &StoreError{Op: "send", Err: ErrNotConnected}
	}

	if err := s.gateway.Insert(ctx, s.conversationID, content, attachments); err != nil {
		serr := &StoreError{Op: "send", Err: err}
		s.recordErr(serr)
		return serr
	}
	return nil
}

// Delete removes a message by id. Unknown ids are harmless.
func (s *MessageStore) Delete(ctx context.Context, messageID uuid.UUID) error {
	if err := s.gateway.Delete(ctx, messageID); err != nil {
		serr := &StoreError{Op: "delete", Err: err}
		s.recordErr(serr)
		return serr
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (s *MessageStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]domain.Message, len(s.messages))
	copy(messages, s.messages)
	return Snapshot{
		Messages: messages,
		Loading:  s.loading,
		Err:      s.lastErr,
		Status:   s.status,
	}
}

// Status returns the current connection status.
func (s *MessageStore) Status() ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *MessageStore) applyInsert(msg domain.Message) {
	s.mu.Lock()
	if _, ok := s.seen[msg.ID]; ok {
		s.mu.Unlock()
		return
	}
	s.seen[msg.ID] = struct{}{}

	// Insert keeping ascending created_at order. Subscription delivery
	// order is not guaranteed under concurrent senders, so walk back
	// from the tail.
	i := len(s.messages)
	for i > 0 && s.messages[i-1].CreatedAt.After(msg.CreatedAt) {
		i--
	}
	s.messages = append(s.messages, domain.Message{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = msg
	s.mu.Unlock()
	s.notify()
}

func (s *MessageStore) applyDelete(messageID uuid.UUID) {
	s.mu.Lock()
	changed := false
	for i, msg := range s.messages {
		if msg.ID == messageID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			delete(s.seen, messageID)
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *MessageStore) setStatus(status ConnectionStatus) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *MessageStore) recordErr(err *StoreError) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.notify()
}

func (s *MessageStore) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *MessageStore) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
