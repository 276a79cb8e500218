package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types accepted by the tracking endpoint.
const (
	EventPageView             = "page_view"
	EventQuizStarted          = "quiz_started"
	EventAppointmentScheduled = "appointment_scheduled"
	EventContentViewed        = "content_viewed"
	EventLeadCaptured         = "lead_captured"
)

// UTM holds the campaign parameters of a visit.
type UTM struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

func (u UTM) IsZero() bool {
	return u == UTM{}
}

// AttributionEvent is a client-side event tied to a quiz session.
type AttributionEvent struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	EventType   string    `json:"event_type"`
	Referrer    string    `json:"referrer,omitempty"`
	LandingPage string    `json:"landing_page,omitempty"`
	VisitorID   string    `json:"visitor_id,omitempty"`
	UTM         UTM       `json:"utm"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewAttributionEvent(sessionID, eventType string) *AttributionEvent {
	return &AttributionEvent{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		EventType:  eventType,
		OccurredAt: time.Now(),
	}
}

// TrackedEvent is the analytics-facing shape of a non-lead event.
type TrackedEvent struct {
	Name       string         `json:"name"`
	SessionID  string         `json:"session_id"`
	VisitorID  string         `json:"visitor_id,omitempty"`
	Email      string         `json:"email,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	SourceURL  string         `json:"source_url,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type AttributionRepositoryInterface interface {
	Create(ctx context.Context, e *AttributionEvent) error
	LatestBySession(ctx context.Context, sessionID string) (*AttributionEvent, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
