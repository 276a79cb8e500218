package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const LeadStatusVerified = "verified"

var (
	ErrDuplicateLead = errors.New("lead already exists for session")
	ErrLeadNotFound  = errors.New("lead not found")
)

// QuizAnswers is the open question→answer bag of a funnel. It is stored and
// forwarded verbatim; only sinks that need typed fields decode it.
type QuizAnswers map[string]any

type Lead struct {
	ID                 string      `json:"id"`
	ContactID          string      `json:"contact_id"`
	SessionID          string      `json:"session_id,omitempty"`
	SiteKey            string      `json:"site_key"`
	FunnelType         string      `json:"funnel_type"`
	Status             string      `json:"status"`
	IsVerified         bool        `json:"is_verified"`
	VerifiedAt         *time.Time  `json:"verified_at,omitempty"`
	QuizAnswers        QuizAnswers `json:"quiz_answers"`
	UTMSource          string      `json:"utm_source,omitempty"`
	UTMMedium          string      `json:"utm_medium,omitempty"`
	UTMCampaign        string      `json:"utm_campaign,omitempty"`
	UTMTerm            string      `json:"utm_term,omitempty"`
	UTMContent         string      `json:"utm_content,omitempty"`
	Referrer           string      `json:"referrer,omitempty"`
	LandingPage        string      `json:"landing_page,omitempty"`
	VisitorID          string      `json:"visitor_id,omitempty"`
	TrustedFormCertURL string      `json:"trusted_form_cert_url,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func NewLead(contactID, sessionID string) *Lead {
	now := time.Now()
	return &Lead{
		ID:          uuid.New().String(),
		ContactID:   contactID,
		SessionID:   sessionID,
		QuizAnswers: QuizAnswers{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkVerified sets the verified status; every lead this service records has
// already passed contact-detail capture.
func (l *Lead) MarkVerified(at time.Time) {
	l.Status = LeadStatusVerified
	l.IsVerified = true
	l.VerifiedAt = &at
	l.UpdatedAt = at
}

type LeadRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindBySession(ctx context.Context, contactID, sessionID string) (*Lead, error)
	Create(ctx context.Context, lead *Lead) error
	Update(ctx context.Context, lead *Lead) error
}
