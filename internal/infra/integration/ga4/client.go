// Package ga4 sends server-side events through the GA4 Measurement Protocol.
package ga4

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/delivery"
	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/quiz"
)

const SinkName = "ga4"

// GA4 recommended event names.
const (
	EventGenerateLead        = "generate_lead"
	EventScheduleAppointment = "schedule_appointment"
	EventViewContent         = "view_content"
)

type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient returns nil unless both the measurement id and api secret are set.
func NewClient(baseURL, measurementID, apiSecret string) *Client {
	if measurementID == "" || apiSecret == "" {
		return nil
	}
	q := url.Values{}
	q.Set("measurement_id", measurementID)
	q.Set("api_secret", apiSecret)
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/mp/collect?" + q.Encode(),
		httpClient: delivery.DefaultClient,
	}
}

func (c *Client) Name() string { return SinkName }

func (c *Client) Send(ctx context.Context, lead *entity.Lead, contact *entity.Contact) error {
	params := map[string]any{
		"lead_id":     lead.ID,
		"funnel_type": lead.FunnelType,
		"site_key":    lead.SiteKey,
		"currency":    "USD",
	}
	if answers, _ := quiz.Decode(lead.FunnelType, lead.QuizAnswers); answers.AllocationAmount() > 0 {
		params["value"] = answers.AllocationAmount()
	}
	setIf(params, "source", lead.UTMSource)
	setIf(params, "medium", lead.UTMMedium)
	setIf(params, "campaign", lead.UTMCampaign)

	req := Request{
		ClientID:        clientID(lead.VisitorID, lead.SessionID, lead.ID),
		UserID:          contact.ID,
		TimestampMicros: lead.UpdatedAt.UnixMicro(),
		Events:          []Event{{Name: EventGenerateLead, Params: params}},
	}
	return delivery.PostJSON(ctx, c.httpClient, SinkName, c.endpoint, req)
}

func (c *Client) SendEvent(ctx context.Context, event entity.TrackedEvent) error {
	name, ok := eventNames[event.Name]
	if !ok {
		return delivery.ErrSkipped
	}

	params := map[string]any{"session_id": event.SessionID}
	setIf(params, "page_location", event.SourceURL)
	for k, v := range event.Properties {
		params[k] = v
	}

	req := Request{
		ClientID:        clientID(event.VisitorID, event.SessionID, ""),
		TimestampMicros: event.OccurredAt.UnixMicro(),
		Events:          []Event{{Name: name, Params: params}},
	}
	if err := delivery.PostJSON(ctx, c.httpClient, SinkName, c.endpoint, req); err != nil {
		return err
	}
	zap.L().Debug("ga4: event sent", zap.String("event", name))
	return nil
}

var eventNames = map[string]string{
	entity.EventAppointmentScheduled: EventScheduleAppointment,
	entity.EventContentViewed:        EventViewContent,
}

// clientID prefers the _ga cookie value ("GA1.1.123.456" → "123.456").
func clientID(visitorID string, fallbacks ...string) string {
	if visitorID != "" {
		parts := strings.Split(visitorID, ".")
		if len(parts) == 4 && strings.HasPrefix(parts[0], "GA") {
			return parts[2] + "." + parts[3]
		}
		return visitorID
	}
	for _, f := range fallbacks {
		if f != "" {
			return f
		}
	}
	return "anonymous"
}

func setIf(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
