package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

// TrackEventUseCase stores a session attribution event and forwards the
// events analytics cares about.
type TrackEventUseCase struct {
	Repo    entity.AttributionRepositoryInterface
	Tracker EventTracker
}

func NewTrackEventUseCase(repo entity.AttributionRepositoryInterface, tracker EventTracker) *TrackEventUseCase {
	return &TrackEventUseCase{Repo: repo, Tracker: tracker}
}

func (uc *TrackEventUseCase) Execute(ctx context.Context, input TrackEventInput) (*entity.AttributionEvent, error) {
	if err := ValidateTrackEventInput(input); err != nil {
		return nil, err
	}

	ev := entity.NewAttributionEvent(strings.TrimSpace(input.SessionID), input.EventType)
	ev.Referrer = input.Referrer
	ev.LandingPage = input.LandingPage
	ev.VisitorID = input.VisitorID
	ev.UTM = input.UTMParams

	if err := uc.Repo.Create(ctx, ev); err != nil {
		return nil, &PersistenceError{Op: "create attribution event", Err: err}
	}

	if uc.Tracker == nil || !forwarded(ev.EventType) {
		return ev, nil
	}

	report := uc.Tracker.Track(ctx, entity.TrackedEvent{
		Name:       ev.EventType,
		SessionID:  ev.SessionID,
		VisitorID:  ev.VisitorID,
		Email:      NormalizeEmail(input.Email),
		Phone:      input.Phone,
		SourceURL:  ev.LandingPage,
		Properties: input.Properties,
		OccurredAt: ev.OccurredAt,
	})
	if !report.AllSucceeded() {
		zap.L().Warn("event forwarded with failures",
			zap.String("event", ev.EventType),
			zap.String("session_id", ev.SessionID),
			zap.Int("failed", len(report.Failed())),
		)
	}
	return ev, nil
}

// forwarded reports whether an event type goes to the analytics sinks.
// Lead captures are sent by the intake pipeline itself.
func forwarded(eventType string) bool {
	return eventType == entity.EventAppointmentScheduled || eventType == entity.EventContentViewed
}

// GetLeadUseCase reads back a recorded lead.
type GetLeadUseCase struct {
	Repo entity.LeadRepositoryInterface
}

func NewGetLeadUseCase(repo entity.LeadRepositoryInterface) *GetLeadUseCase {
	return &GetLeadUseCase{Repo: repo}
}

func (uc *GetLeadUseCase) Execute(ctx context.Context, id string) (*LeadStatusOutput, error) {
	lead, err := uc.Repo.FindByID(ctx, id)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &PersistenceError{Op: "find lead", Err: err}
	}

	out := &LeadStatusOutput{
		LeadID:     lead.ID,
		Status:     lead.Status,
		IsVerified: lead.IsVerified,
		FunnelType: lead.FunnelType,
		SiteKey:    lead.SiteKey,
		CreatedAt:  lead.CreatedAt.Format(time.RFC3339),
		UTM: entity.UTM{
			Source:   lead.UTMSource,
			Medium:   lead.UTMMedium,
			Campaign: lead.UTMCampaign,
			Term:     lead.UTMTerm,
			Content:  lead.UTMContent,
		},
	}
	if lead.VerifiedAt != nil {
		out.VerifiedAt = lead.VerifiedAt.Format(time.RFC3339)
	}
	return out, nil
}
