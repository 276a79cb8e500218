// Package metacapi sends server events to the Meta Conversions API.
package metacapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/xavierca1/retirement-leads/internal/delivery"
	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/phone"
	"github.com/xavierca1/retirement-leads/internal/quiz"
)

const SinkName = "meta_capi"

// Standard event names.
const (
	EventLead        = "Lead"
	EventSchedule    = "Schedule"
	EventViewContent = "ViewContent"
)

type Client struct {
	endpoint   string
	testCode   string
	httpClient *http.Client
}

// NewClient returns nil unless pixel id and access token are set.
func NewClient(baseURL, apiVersion, pixelID, accessToken, testCode string) *Client {
	if pixelID == "" || accessToken == "" {
		return nil
	}
	q := url.Values{}
	q.Set("access_token", accessToken)
	return &Client{
		endpoint:   fmt.Sprintf("%s/%s/%s/events?%s", strings.TrimRight(baseURL, "/"), apiVersion, pixelID, q.Encode()),
		testCode:   testCode,
		httpClient: delivery.DefaultClient,
	}
}

func (c *Client) Name() string { return SinkName }

func (c *Client) Send(ctx context.Context, lead *entity.Lead, contact *entity.Contact) error {
	custom := map[string]any{
		"content_name": lead.FunnelType,
		"currency":     "USD",
	}
	if answers, _ := quiz.Decode(lead.FunnelType, lead.QuizAnswers); answers.AllocationAmount() > 0 {
		custom["value"] = answers.AllocationAmount()
	}

	ev := ServerEvent{
		EventName:      EventLead,
		EventTime:      lead.UpdatedAt.Unix(),
		EventID:        lead.ID,
		ActionSource:   "website",
		EventSourceURL: lead.LandingPage,
		UserData:       userData(contact.Email, contact.Phone, contact.FirstName, contact.LastName, contact.ID),
		CustomData:     custom,
	}
	return c.post(ctx, ev)
}

func (c *Client) SendEvent(ctx context.Context, event entity.TrackedEvent) error {
	name, ok := eventNames[event.Name]
	if !ok {
		return delivery.ErrSkipped
	}

	ev := ServerEvent{
		EventName:      name,
		EventTime:      event.OccurredAt.Unix(),
		EventID:        event.SessionID + ":" + event.Name,
		ActionSource:   "website",
		EventSourceURL: event.SourceURL,
		UserData:       userData(event.Email, event.Phone, "", "", event.VisitorID),
		CustomData:     event.Properties,
	}
	return c.post(ctx, ev)
}

func (c *Client) post(ctx context.Context, ev ServerEvent) error {
	req := Request{Data: []ServerEvent{ev}, TestEventCode: c.testCode}
	return delivery.PostJSON(ctx, c.httpClient, SinkName, c.endpoint, req)
}

var eventNames = map[string]string{
	entity.EventAppointmentScheduled: EventSchedule,
	entity.EventContentViewed:        EventViewContent,
}

// userData hashes identifiers the way Meta matches them: trimmed, lowercase,
// phone as digits with country code.
func userData(email, phoneNumber, first, last, externalID string) UserData {
	var u UserData
	if v := hashNormalized(email); v != "" {
		u.Email = []string{v}
	}
	if v := hashNormalized(phone.Digits(phoneNumber)); v != "" {
		u.Phone = []string{v}
	}
	if v := hashNormalized(first); v != "" {
		u.FirstName = []string{v}
	}
	if v := hashNormalized(last); v != "" {
		u.LastName = []string{v}
	}
	if v := hashNormalized(externalID); v != "" {
		u.ExternalID = []string{v}
	}
	return u
}

func hashNormalized(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
