package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

type fakeSub struct {
	events chan Event
	once   sync.Once
}

func (s *fakeSub) Events() <-chan Event { return s.events }
func (s *fakeSub) Close() error         { return nil }

// drop closes the events channel exactly once, mirroring a real
// subscription's channel-drop signal.
func (s *fakeSub) drop() { s.once.Do(func() { close(s.events) }) }

type fakeGateway struct {
	mu         sync.Mutex
	history    []domain.Message
	historyErr error
	subErr     error
	inserts    []string
	deletes    []uuid.UUID
	subs       []*fakeSub
}

func (g *fakeGateway) History(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.historyErr != nil {
		return nil, g.historyErr
	}
	out := make([]domain.Message, len(g.history))
	copy(out, g.history)
	return out, nil
}

func (g *fakeGateway) Insert(ctx context.Context, conversationID uuid.UUID, content string, attachments []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inserts = append(g.inserts, content)
	return nil
}

func (g *fakeGateway) Delete(ctx context.Context, messageID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes = append(g.deletes, messageID)
	return nil
}

func (g *fakeGateway) Subscribe(ctx context.Context, conversationID uuid.UUID) (Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.subErr != nil {
		return nil, g.subErr
	}
	sub := &fakeSub{events: make(chan Event, 16)}
	g.subs = append(g.subs, sub)
	// Real subscriptions close their Events channel when ctx is
	// canceled; mirror that so the store's run loop can exit.
	go func() {
		<-ctx.Done()
		sub.drop()
	}()
	return sub, nil
}

func (g *fakeGateway) insertCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inserts)
}

func (g *fakeGateway) lastSub() *fakeSub {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.subs) == 0 {
		return nil
	}
	return g.subs[len(g.subs)-1]
}

func (g *fakeGateway) subCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestStore(t *testing.T, gw *fakeGateway) *MessageStore {
	t.Helper()
	st := New(gw, uuid.New(), zap.NewNop().Sugar())
	st.Open(context.Background())
	t.Cleanup(st.Close)
	return st
}

func connect(t *testing.T, gw *fakeGateway, st *MessageStore) *fakeSub {
	t.Helper()
	waitFor(t, 2*time.Second, func() bool { return gw.lastSub() != nil })
	sub := gw.lastSub()
	sub.events <- Event{Kind: EventSubscribed}
	waitFor(t, 2*time.Second, func() bool { return st.Status() == StatusConnected })
	return sub
}

func messageAt(at time.Time) domain.Message {
	return domain.Message{ID: uuid.New(), Content: "hello", CreatedAt: at}
}

func TestInitialLoadSortsAscending(t *testing.T) {
	t0 := time.Now().Add(-time.Hour)
	early, late := messageAt(t0), messageAt(t0.Add(time.Minute))
	gw := &fakeGateway{history: []domain.Message{late, early}}

	st := newTestStore(t, gw)
	waitFor(t, 2*time.Second, func() bool { return !st.Snapshot().Loading })

	snap := st.Snapshot()
	if len(snap.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(snap.Messages))
	}
	if snap.Messages[0].ID != early.ID || snap.Messages[1].ID != late.ID {
		t.Error("history not sorted ascending by created_at")
	}
}

func TestLoadFailureSetsTypedError(t *testing.T) {
	gw := &fakeGateway{historyErr: errors.New("boom"), subErr: errors.New("down")}

	st := newTestStore(t, gw)
	waitFor(t, 2*time.Second, func() bool { return !st.Snapshot().Loading })

	snap := st.Snapshot()
	if snap.Err == nil {
		t.Fatal("expected a typed load error")
	}
	if snap.Err.Op != "load" {
		t.Errorf("Op = %q, want load", snap.Err.Op)
	}
}

func TestSendEmptyIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	st := newTestStore(t, gw)
	connect(t, gw, st)

	if err := st.Send(context.Background(), "   ", nil); err != nil {
		t.Fatalf("empty send returned error: %v", err)
	}
	if gw.insertCount() != 0 {
		t.Error("empty send issued an insert call")
	}
	if n := len(st.Snapshot().Messages); n != 0 {
		t.Errorf("local message count changed: %d", n)
	}
}

func TestSendInertWhileDisconnected(t *testing.T) {
	gw := &fakeGateway{subErr: errors.New("subscription refused")}
	st := newTestStore(t, gw)
	waitFor(t, 2*time.Second, func() bool { return st.Status() == StatusDisconnected })

	err := st.Send(context.Background(), "hello", nil)
	if err == nil {
		t.Fatal("expected an error while disconnected")
	}
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("error = %v, want ErrNotConnected", err)
	}
	if gw.insertCount() != 0 {
		t.Error("disconnected send reached the gateway")
	}
}

func TestSendHasNoLocalEcho(t *testing.T) {
	gw := &fakeGateway{}
	st := newTestStore(t, gw)
	connect(t, gw, st)

	if err := st.Send(context.Background(), "bonjour", nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gw.insertCount() != 1 {
		t.Fatalf("insert count = %d, want 1", gw.insertCount())
	}
	// Confirmed-only: nothing appears until the subscription delivers it.
	if n := len(st.Snapshot().Messages); n != 0 {
		t.Errorf("message echoed locally before confirmation: %d", n)
	}
}

func TestLiveInsertDedupeAndOrder(t *testing.T) {
	gw := &fakeGateway{}
	st := newTestStore(t, gw)
	sub := connect(t, gw, st)

	t0 := time.Now().Add(-time.Hour)
	first, second := messageAt(t0), messageAt(t0.Add(time.Minute))

	// Delivered out of order, with a duplicate.
	sub.events <- Event{Kind: EventInsert, Message: &second}
	sub.events <- Event{Kind: EventInsert, Message: &first}
	sub.events <- Event{Kind: EventInsert, Message: &second}

	waitFor(t, 2*time.Second, func() bool { return len(st.Snapshot().Messages) == 2 })
	time.Sleep(20 * time.Millisecond) // let the duplicate drain

	snap := st.Snapshot()
	if len(snap.Messages) != 2 {
		t.Fatalf("got %d messages, want 2 (dedupe failed)", len(snap.Messages))
	}
	if snap.Messages[0].ID != first.ID || snap.Messages[1].ID != second.ID {
		t.Error("messages not in ascending created_at order")
	}
}

func TestDeleteEventRemovesExactlyOne(t *testing.T) {
	t0 := time.Now().Add(-time.Hour)
	keep, gone := messageAt(t0), messageAt(t0.Add(time.Minute))
	gw := &fakeGateway{history: []domain.Message{keep, gone}}

	st := newTestStore(t, gw)
	sub := connect(t, gw, st)
	waitFor(t, 2*time.Second, func() bool { return len(st.Snapshot().Messages) == 2 })

	// Unknown id is harmless.
	sub.events <- Event{Kind: EventDelete, MessageID: uuid.New()}
	sub.events <- Event{Kind: EventDelete, MessageID: gone.ID}

	waitFor(t, 2*time.Second, func() bool { return len(st.Snapshot().Messages) == 1 })
	if st.Snapshot().Messages[0].ID != keep.ID {
		t.Error("wrong message removed")
	}
}

func TestReconnectAfterChannelDrop(t *testing.T) {
	gw := &fakeGateway{}
	st := newTestStore(t, gw)
	sub := connect(t, gw, st)

	sub.drop()
	waitFor(t, 2*time.Second, func() bool { return st.Status() == StatusDisconnected })

	// Backoff resubscribe kicks in and re-acks.
	waitFor(t, 5*time.Second, func() bool { return gw.subCount() >= 2 })
	gw.lastSub().events <- Event{Kind: EventSubscribed}
	waitFor(t, 2*time.Second, func() bool { return st.Status() == StatusConnected })
}

func TestStatusStringer(t *testing.T) {
	if StatusConnecting.String() != "connecting" ||
		StatusConnected.String() != "connected" ||
		StatusDisconnected.String() != "disconnected" {
		t.Error("unexpected status strings")
	}
}
