// Package ghl posts verified leads to a GoHighLevel inbound webhook.
package ghl

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/delivery"
	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/phone"
	"github.com/xavierca1/retirement-leads/internal/quiz"
)

const SinkName = "ghl"

type Client struct {
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient returns nil when no webhook is configured.
func NewClient(webhookURL string) *Client {
	if webhookURL == "" {
		zap.L().Warn("ghl: webhook url not configured, CRM delivery disabled")
		return nil
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: delivery.DefaultClient,
		now:        time.Now,
	}
}

func (c *Client) Name() string { return SinkName }

func (c *Client) Send(ctx context.Context, lead *entity.Lead, contact *entity.Contact) error {
	payload := BuildPayload(lead, contact, c.now())
	if err := delivery.PostJSON(ctx, c.httpClient, SinkName, c.webhookURL, payload); err != nil {
		return err
	}
	zap.L().Info("ghl: lead sent", zap.String("lead_id", lead.ID))
	return nil
}

// BuildPayload flattens a lead into the field names the CRM workflow maps.
// Scalar quiz answers are carried as quiz_<question>; funnel-specific fields
// decoded from the answers are added under their CRM names.
func BuildPayload(lead *entity.Lead, contact *entity.Contact, submittedAt time.Time) Payload {
	p := Payload{
		"leadId":      lead.ID,
		"contactId":   contact.ID,
		"firstName":   contact.FirstName,
		"lastName":    contact.LastName,
		"name":        contact.FullName(),
		"email":       contact.Email,
		"phone":       contact.Phone,
		"siteKey":     lead.SiteKey,
		"funnelType":  lead.FunnelType,
		"status":      lead.Status,
		"submittedAt": submittedAt.UTC().Format(time.RFC3339),
		"source":      "website",
	}
	if contact.Phone != "" {
		p["phoneFormatted"] = phone.National(contact.Phone)
		p["phoneLast4"] = phone.Last4(contact.Phone)
	}
	if lead.VerifiedAt != nil {
		p["verifiedAt"] = lead.VerifiedAt.UTC().Format(time.RFC3339)
	}

	answers, err := quiz.Decode(lead.FunnelType, lead.QuizAnswers)
	if err != nil {
		zap.L().Debug("ghl: answers do not match funnel shape", zap.String("lead_id", lead.ID), zap.Error(err))
	}
	if amount := answers.AllocationAmount(); amount > 0 {
		p["allocationAmount"] = strconv.FormatFloat(amount, 'f', 0, 64)
	}
	for k, v := range answers.Fields() {
		p[k] = v
	}
	for k, v := range quiz.Flatten(lead.QuizAnswers, "quiz_") {
		p[k] = v
	}

	p.setIf("utm_source", lead.UTMSource)
	p.setIf("utm_medium", lead.UTMMedium)
	p.setIf("utm_campaign", lead.UTMCampaign)
	p.setIf("utm_term", lead.UTMTerm)
	p.setIf("utm_content", lead.UTMContent)
	p.setIf("referrer", lead.Referrer)
	p.setIf("landingPage", lead.LandingPage)
	p.setIf("trustedFormCertUrl", lead.TrustedFormCertURL)
	return p
}
