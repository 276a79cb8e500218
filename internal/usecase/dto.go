package usecase

import "github.com/xavierca1/retirement-leads/internal/entity"

type CaptureLeadInput struct {
	PhoneNumber        string             `json:"phoneNumber"`
	Email              string             `json:"email"`
	FirstName          string             `json:"firstName"`
	LastName           string             `json:"lastName"`
	QuizAnswers        entity.QuizAnswers `json:"quizAnswers"`
	SessionID          string             `json:"sessionId"`
	UTMParams          entity.UTM         `json:"utmParams"`
	TrustedFormCertURL string             `json:"trustedFormCertUrl"`
	SiteKey            string             `json:"siteKey"`
	FunnelType         string             `json:"funnelType"`
	Referrer           string             `json:"referrer"`
	LandingPage        string             `json:"landingPage"`
}

type CaptureLeadOutput struct {
	Success bool   `json:"success"`
	LeadID  string `json:"lead_id"`
	NextURL string `json:"next_url"`
}

type ResolveContactInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

type RecordLeadInput struct {
	ContactID          string
	SessionID          string
	QuizAnswers        entity.QuizAnswers
	UTM                entity.UTM
	TrustedFormCertURL string
	SiteKey            string
	FunnelType         string
	Referrer           string
	LandingPage        string
	VisitorID          string
}

type TrackEventInput struct {
	EventType   string         `json:"eventType"`
	SessionID   string         `json:"sessionId"`
	VisitorID   string         `json:"visitorId"`
	Referrer    string         `json:"referrer"`
	LandingPage string         `json:"landingPage"`
	UTMParams   entity.UTM     `json:"utmParams"`
	Email       string         `json:"email"`
	Phone       string         `json:"phoneNumber"`
	Properties  map[string]any `json:"properties"`
}

type LeadStatusOutput struct {
	LeadID     string     `json:"lead_id"`
	Status     string     `json:"status"`
	IsVerified bool       `json:"is_verified"`
	FunnelType string     `json:"funnel_type"`
	SiteKey    string     `json:"site_key"`
	VerifiedAt string     `json:"verified_at,omitempty"`
	CreatedAt  string     `json:"created_at"`
	UTM        entity.UTM `json:"utm"`
}
