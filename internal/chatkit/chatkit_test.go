package chatkit

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

func msgAt(t time.Time) domain.Message {
	return domain.Message{ID: uuid.New(), CreatedAt: t, Content: "hi"}
}

func TestGroupByDayPartition(t *testing.T) {
	day1 := time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)
	messages := []domain.Message{
		msgAt(day1),
		msgAt(day1.Add(5*time.Hour + 30*time.Minute)),  // 14:30 same day
		msgAt(day1.Add(24*time.Hour + 15*time.Minute)), // 09:15 next day
	}

	groups := GroupByDay(messages)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0].Messages) != 2 || len(groups[1].Messages) != 1 {
		t.Fatalf("unexpected group sizes: %d, %d", len(groups[0].Messages), len(groups[1].Messages))
	}

	// Concatenation reproduces the input exactly.
	var flat []domain.Message
	for _, g := range groups {
		flat = append(flat, g.Messages...)
	}
	if len(flat) != len(messages) {
		t.Fatalf("partition lost messages: %d != %d", len(flat), len(messages))
	}
	for i := range flat {
		if flat[i].ID != messages[i].ID {
			t.Errorf("message %d reordered", i)
		}
	}

	if !groups[0].Day.Before(groups[1].Day) {
		t.Error("groups not in chronological day order")
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if groups := GroupByDay(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestPreviewShortUnchanged(t *testing.T) {
	for _, s := range []string{"", "bonjour", strings.Repeat("a", PreviewLimit)} {
		if got := Preview(s); got != s {
			t.Errorf("Preview(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("é", PreviewLimit+40)
	got := Preview(long)
	if runes := []rune(got); len(runes) != PreviewLimit {
		t.Fatalf("preview length = %d runes, want %d", len(runes), PreviewLimit)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("truncated preview missing ellipsis")
	}
	// Idempotent: a preview of a preview is itself.
	if Preview(got) != got {
		t.Error("Preview not idempotent on its own output")
	}
}

func TestDisplayNameDirectSymmetry(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	conv := &domain.Conversation{
		IsGroup: false,
		Participants: []domain.Participant{
			{UserID: u1, DisplayName: "Claire Dubois"},
			{UserID: u2, DisplayName: "Marc Tremblay"},
		},
	}

	if got := DisplayName(conv, u1); got != "Marc Tremblay" {
		t.Errorf("viewer u1: got %q", got)
	}
	if got := DisplayName(conv, u2); got != "Claire Dubois" {
		t.Errorf("viewer u2: got %q", got)
	}
}

func TestDisplayNameGroupUsesTitle(t *testing.T) {
	title := "Conseil d'administration"
	conv := &domain.Conversation{IsGroup: true, Title: &title}
	if got := DisplayName(conv, uuid.New()); got != title {
		t.Errorf("got %q, want %q", got, title)
	}
}

func TestDisplayNameFallback(t *testing.T) {
	viewer := uuid.New()
	conv := &domain.Conversation{
		IsGroup: false,
		Participants: []domain.Participant{
			{UserID: viewer, DisplayName: "Me"},
			{UserID: uuid.New()}, // unresolved other side
		},
	}
	if got := DisplayName(conv, viewer); got != FallbackName {
		t.Errorf("got %q, want fallback", got)
	}

	group := &domain.Conversation{IsGroup: true}
	if got := DisplayName(group, viewer); got != FallbackName {
		t.Errorf("untitled group: got %q, want fallback", got)
	}
}

func TestFormatConversationTime(t *testing.T) {
	now := time.Date(2026, 3, 12, 18, 0, 0, 0, time.Local) // a Thursday

	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2026, 3, 12, 9, 30, 0, 0, time.Local), "09:30"},
		{time.Date(2026, 3, 9, 10, 0, 0, 0, time.Local), "Monday"},
		{time.Date(2026, 1, 5, 10, 0, 0, 0, time.Local), "Jan 5"},
		{time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local), "2025-06-01"},
	}
	for _, tc := range cases {
		if got := FormatConversationTime(tc.at, now); got != tc.want {
			t.Errorf("FormatConversationTime(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}

	// Deterministic: same input, same output.
	at := time.Date(2026, 3, 12, 9, 30, 0, 0, time.Local)
	if FormatConversationTime(at, now) != FormatConversationTime(at, now) {
		t.Error("formatting not deterministic")
	}
}
