package usecase

import (
	"strings"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

const msgContactRequired = "Email and phone number are required"

// ValidateCaptureLeadInput checks the only hard requirement of intake: email
// and phone must both be present. Everything else is optional.
func ValidateCaptureLeadInput(input CaptureLeadInput) error {
	if strings.TrimSpace(input.Email) == "" {
		return &ValidationError{Field: "email", Message: msgContactRequired}
	}
	if strings.TrimSpace(input.PhoneNumber) == "" {
		return &ValidationError{Field: "phoneNumber", Message: msgContactRequired}
	}
	return nil
}

var knownEvents = map[string]bool{
	entity.EventPageView:             true,
	entity.EventQuizStarted:          true,
	entity.EventAppointmentScheduled: true,
	entity.EventContentViewed:        true,
	entity.EventLeadCaptured:         true,
}

func ValidateTrackEventInput(input TrackEventInput) error {
	if strings.TrimSpace(input.SessionID) == "" {
		return &ValidationError{Field: "sessionId", Message: "sessionId is required"}
	}
	if !knownEvents[input.EventType] {
		return &ValidationError{Field: "eventType", Message: "unknown eventType"}
	}
	return nil
}
