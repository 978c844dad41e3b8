package validator

import (
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const (
	maxTitleLen   = 200
	maxContentLen = 10000
)

// ValidateCreateConversation checks the request before it reaches the
// service. totalParticipants counts the caller.
func ValidateCreateConversation(title string, totalParticipants int, isGroup bool) ValidationErrors {
	errs := make(ValidationErrors)

	title = strings.TrimSpace(title)
	if isGroup && title == "" {
		errs.Add("title", "Group conversations require a title")
	}
	if len(title) > maxTitleLen {
		errs.Add("title", "Title is too long")
	}

	if totalParticipants < 2 {
		errs.Add("participant_ids", "At least one other participant is required")
	}

	return errs
}

func ValidateSendMessage(content string, attachments []string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(content) == "" && len(attachments) == 0 {
		errs.Add("content", "Message needs content or an attachment")
	}
	if len(content) > maxContentLen {
		errs.Add("content", "Message is too long")
	}

	for _, url := range attachments {
		if strings.TrimSpace(url) == "" {
			errs.Add("attachments", "Attachment URLs cannot be empty")
			break
		}
	}

	return errs
}
