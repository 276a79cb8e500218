package queue

import (
	"time"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

// DeliveryJob is what the intake publishes in queue mode: everything the
// fan-out needs, so the worker never touches the database.
type DeliveryJob struct {
	Lead       entity.Lead    `json:"lead"`
	Contact    entity.Contact `json:"contact"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// LeadMessage is the public snapshot published on k.lead.verified. It
// carries no raw phone number.
type LeadMessage struct {
	LeadID      string             `json:"lead_id"`
	ContactID   string             `json:"contact_id"`
	Email       string             `json:"email"`
	PhoneHash   string             `json:"phone_hash,omitempty"`
	FirstName   string             `json:"first_name,omitempty"`
	LastName    string             `json:"last_name,omitempty"`
	SiteKey     string             `json:"site_key"`
	FunnelType  string             `json:"funnel_type"`
	SessionID   string             `json:"session_id,omitempty"`
	UTM         entity.UTM         `json:"utm"`
	QuizAnswers entity.QuizAnswers `json:"quiz_answers"`
	VerifiedAt  *time.Time         `json:"verified_at,omitempty"`
}

func newLeadMessage(lead *entity.Lead, contact *entity.Contact) LeadMessage {
	return LeadMessage{
		LeadID:     lead.ID,
		ContactID:  contact.ID,
		Email:      contact.Email,
		PhoneHash:  contact.PhoneHash,
		FirstName:  contact.FirstName,
		LastName:   contact.LastName,
		SiteKey:    lead.SiteKey,
		FunnelType: lead.FunnelType,
		SessionID:  lead.SessionID,
		UTM: entity.UTM{
			Source:   lead.UTMSource,
			Medium:   lead.UTMMedium,
			Campaign: lead.UTMCampaign,
			Term:     lead.UTMTerm,
			Content:  lead.UTMContent,
		},
		QuizAnswers: lead.QuizAnswers,
		VerifiedAt:  lead.VerifiedAt,
	}
}
