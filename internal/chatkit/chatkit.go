// Package chatkit holds the pure helpers the messaging views are built
// from: day grouping, timestamp rendering, previews and display names.
package chatkit

import (
	"time"

	"github.com/google/uuid"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

// PreviewLimit is the maximum rune length of a conversation preview.
const PreviewLimit = 80

// FallbackName is shown when the other participant cannot be resolved.
const FallbackName = "Unknown resident"

// DayGroup is one calendar day's worth of messages, in original order.
type DayGroup struct {
	Label    string
	Day      time.Time
	Messages []domain.Message
}

// GroupByDay partitions an ascending-ordered message list into ordered
// day buckets. Concatenating the groups reproduces the input exactly.
func GroupByDay(messages []domain.Message) []DayGroup {
	var groups []DayGroup
	for _, msg := range messages {
		day := startOfDay(msg.CreatedAt.Local())
		if n := len(groups); n > 0 && groups[n-1].Day.Equal(day) {
			groups[n-1].Messages = append(groups[n-1].Messages, msg)
			continue
		}
		groups = append(groups, DayGroup{
			Label:    day.Format("Monday, January 2, 2006"),
			Day:      day,
			Messages: []domain.Message{msg},
		})
	}
	return groups
}

// FormatMessageTime renders the in-thread timestamp of a message.
func FormatMessageTime(t time.Time) string {
	return t.Local().Format("15:04")
}

// FormatConversationTime renders the relative timestamp shown on the
// conversation list: clock for today, weekday within the last week,
// short date otherwise.
func FormatConversationTime(t, now time.Time) string {
	t = t.Local()
	now = now.Local()

	if startOfDay(t).Equal(startOfDay(now)) {
		return t.Format("15:04")
	}
	if now.Sub(t) < 7*24*time.Hour && t.Before(now) {
		return t.Format("Monday")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("2006-01-02")
}

// Preview truncates message content for list rendering. Total: any input
// yields a result, and content already within PreviewLimit is returned
// unchanged.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLimit {
		return content
	}
	return string(runes[:PreviewLimit-1]) + "…"
}

// DisplayName resolves what the viewer should call a conversation: the
// title for groups, the other participant's name for direct threads.
func DisplayName(conv *domain.Conversation, viewerID uuid.UUID) string {
	if conv.IsGroup {
		if conv.Title != nil && *conv.Title != "" {
			return *conv.Title
		}
		return FallbackName
	}

	for _, p := range conv.Participants {
		if p.UserID == viewerID {
			continue
		}
		if p.DisplayName != "" {
			return p.DisplayName
		}
	}
	return FallbackName
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
