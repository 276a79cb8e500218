package usecase

import (
	"context"
	"errors"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

const (
	answersAttributionKey = "attribution"
	answersCertKey        = "trusted_form_cert_url"
)

// LeadRecorder keeps one verified lead per (contact, session).
type LeadRecorder struct {
	Repo        entity.LeadRepositoryInterface
	Attribution entity.AttributionRepositoryInterface
	now         func() time.Time
}

func NewLeadRecorder(repo entity.LeadRepositoryInterface, attribution entity.AttributionRepositoryInterface) *LeadRecorder {
	return &LeadRecorder{Repo: repo, Attribution: attribution, now: time.Now}
}

func (r *LeadRecorder) Record(ctx context.Context, input RecordLeadInput) (*entity.Lead, error) {
	input = r.enrich(ctx, input)
	now := r.now()

	if input.SessionID != "" {
		existing, err := r.Repo.FindBySession(ctx, input.ContactID, input.SessionID)
		if err != nil {
			return nil, &PersistenceError{Op: "find lead", Err: err}
		}
		if existing != nil {
			return r.update(ctx, existing, input, now)
		}
	}

	lead := entity.NewLead(input.ContactID, input.SessionID)
	lead.CreatedAt = now
	apply(lead, input)
	lead.QuizAnswers = buildAnswers(input.QuizAnswers, lead)
	lead.MarkVerified(now)

	err := r.Repo.Create(ctx, lead)
	if err == nil {
		zap.L().Info("lead created",
			zap.String("lead_id", lead.ID),
			zap.String("contact_id", lead.ContactID),
			zap.String("funnel", lead.FunnelType),
		)
		return lead, nil
	}
	if !errors.Is(err, entity.ErrDuplicateLead) {
		return nil, &PersistenceError{Op: "create lead", Err: err}
	}

	// A concurrent submission for the same session inserted first.
	existing, ferr := r.Repo.FindBySession(ctx, input.ContactID, input.SessionID)
	if ferr != nil {
		return nil, &PersistenceError{Op: "find lead after conflict", Err: ferr}
	}
	if existing == nil {
		return nil, &PersistenceError{Op: "create lead", Err: err}
	}
	return r.update(ctx, existing, input, now)
}

func (r *LeadRecorder) update(ctx context.Context, lead *entity.Lead, input RecordLeadInput, now time.Time) (*entity.Lead, error) {
	apply(lead, input)
	if lead.QuizAnswers == nil {
		lead.QuizAnswers = entity.QuizAnswers{}
	}
	maps.Copy(lead.QuizAnswers, buildAnswers(input.QuizAnswers, lead))
	lead.MarkVerified(now)

	if err := r.Repo.Update(ctx, lead); err != nil {
		return nil, &PersistenceError{Op: "update lead", Err: err}
	}
	zap.L().Info("lead updated", zap.String("lead_id", lead.ID), zap.String("session_id", lead.SessionID))
	return lead, nil
}

// enrich fills attribution fields the submission left empty from the latest
// tracked event of the session. Lookup failures are logged and ignored.
func (r *LeadRecorder) enrich(ctx context.Context, input RecordLeadInput) RecordLeadInput {
	if input.SessionID == "" || r.Attribution == nil {
		return input
	}
	ev, err := r.Attribution.LatestBySession(ctx, input.SessionID)
	if err != nil {
		zap.L().Warn("attribution lookup failed", zap.String("session_id", input.SessionID), zap.Error(err))
		return input
	}
	if ev == nil {
		return input
	}

	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&input.Referrer, ev.Referrer)
	fill(&input.LandingPage, ev.LandingPage)
	fill(&input.VisitorID, ev.VisitorID)
	fill(&input.UTM.Source, ev.UTM.Source)
	fill(&input.UTM.Medium, ev.UTM.Medium)
	fill(&input.UTM.Campaign, ev.UTM.Campaign)
	fill(&input.UTM.Term, ev.UTM.Term)
	fill(&input.UTM.Content, ev.UTM.Content)
	return input
}

// apply copies the submission's descriptive fields onto lead. Empty values
// never clear what an earlier submission stored.
func apply(lead *entity.Lead, input RecordLeadInput) {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&lead.SiteKey, input.SiteKey)
	set(&lead.FunnelType, input.FunnelType)
	set(&lead.UTMSource, input.UTM.Source)
	set(&lead.UTMMedium, input.UTM.Medium)
	set(&lead.UTMCampaign, input.UTM.Campaign)
	set(&lead.UTMTerm, input.UTM.Term)
	set(&lead.UTMContent, input.UTM.Content)
	set(&lead.Referrer, input.Referrer)
	set(&lead.LandingPage, input.LandingPage)
	set(&lead.VisitorID, input.VisitorID)
	set(&lead.TrustedFormCertURL, input.TrustedFormCertURL)
}

// buildAnswers returns the submitted answers verbatim plus the attribution
// sub-object and the consent certificate reference. Both are taken from the
// lead after apply, so they always mirror the stored columns.
func buildAnswers(answers entity.QuizAnswers, lead *entity.Lead) entity.QuizAnswers {
	out := make(entity.QuizAnswers, len(answers)+2)
	maps.Copy(out, answers)

	attribution := map[string]any{
		"utm_source":   lead.UTMSource,
		"utm_medium":   lead.UTMMedium,
		"utm_campaign": lead.UTMCampaign,
	}
	if lead.UTMTerm != "" {
		attribution["utm_term"] = lead.UTMTerm
	}
	if lead.UTMContent != "" {
		attribution["utm_content"] = lead.UTMContent
	}
	out[answersAttributionKey] = attribution

	if lead.TrustedFormCertURL != "" {
		out[answersCertKey] = lead.TrustedFormCertURL
	}
	return out
}
