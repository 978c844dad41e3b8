package validator

import (
	"strings"
	"testing"
)

func TestValidateCreateConversation(t *testing.T) {
	if errs := ValidateCreateConversation("Board updates", 3, true); errs.HasErrors() {
		t.Errorf("valid group rejected: %v", errs)
	}
	if errs := ValidateCreateConversation("", 2, false); errs.HasErrors() {
		t.Errorf("untitled direct conversation rejected: %v", errs)
	}

	errs := ValidateCreateConversation("  ", 2, true)
	if _, ok := errs["title"]; !ok {
		t.Error("blank group title accepted")
	}

	errs = ValidateCreateConversation(strings.Repeat("a", maxTitleLen+1), 3, true)
	if _, ok := errs["title"]; !ok {
		t.Error("oversized title accepted")
	}

	errs = ValidateCreateConversation("", 1, false)
	if _, ok := errs["participant_ids"]; !ok {
		t.Error("single-participant conversation accepted")
	}
}

func TestValidateSendMessage(t *testing.T) {
	if errs := ValidateSendMessage("bonjour", nil); errs.HasErrors() {
		t.Errorf("valid message rejected: %v", errs)
	}
	if errs := ValidateSendMessage("", []string{"documents/avis.pdf"}); errs.HasErrors() {
		t.Errorf("attachment-only message rejected: %v", errs)
	}

	errs := ValidateSendMessage("   ", nil)
	if _, ok := errs["content"]; !ok {
		t.Error("blank message accepted")
	}

	errs = ValidateSendMessage(strings.Repeat("a", maxContentLen+1), nil)
	if _, ok := errs["content"]; !ok {
		t.Error("oversized message accepted")
	}

	errs = ValidateSendMessage("hi", []string{"ok.pdf", "  "})
	if _, ok := errs["attachments"]; !ok {
		t.Error("blank attachment URL accepted")
	}
}
