package usecase

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

// CaptureDefaults fill submission fields the landing page left out.
type CaptureDefaults struct {
	SiteKey    string
	FunnelType string
}

// CaptureLeadUseCase runs intake: resolve contact, record lead, then hand the
// lead to delivery. Delivery runs after the response in a tracked goroutine
// and its outcome never changes the result.
type CaptureLeadUseCase struct {
	Resolver *ContactResolver
	Recorder *LeadRecorder
	Delivery Deliverer
	Defaults CaptureDefaults
	NextURL  func(funnelType string) string

	inflight sync.WaitGroup
}

func NewCaptureLeadUseCase(
	resolver *ContactResolver,
	recorder *LeadRecorder,
	delivery Deliverer,
	defaults CaptureDefaults,
	nextURL func(funnelType string) string,
) *CaptureLeadUseCase {
	return &CaptureLeadUseCase{
		Resolver: resolver,
		Recorder: recorder,
		Delivery: delivery,
		Defaults: defaults,
		NextURL:  nextURL,
	}
}

func (uc *CaptureLeadUseCase) Execute(ctx context.Context, input CaptureLeadInput) (*CaptureLeadOutput, error) {
	if err := ValidateCaptureLeadInput(input); err != nil {
		return nil, err
	}

	contact, err := uc.Resolver.Resolve(ctx, ResolveContactInput{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}

	lead, err := uc.Recorder.Record(ctx, RecordLeadInput{
		ContactID:          contact.ID,
		SessionID:          strings.TrimSpace(input.SessionID),
		QuizAnswers:        input.QuizAnswers,
		UTM:                input.UTMParams,
		TrustedFormCertURL: input.TrustedFormCertURL,
		SiteKey:            firstNonEmpty(input.SiteKey, uc.Defaults.SiteKey),
		FunnelType:         firstNonEmpty(input.FunnelType, uc.Defaults.FunnelType),
		Referrer:           input.Referrer,
		LandingPage:        input.LandingPage,
	})
	if err != nil {
		return nil, err
	}

	if uc.Delivery != nil {
		uc.inflight.Add(1)
		go func() {
			defer uc.inflight.Done()
			uc.deliver(context.WithoutCancel(ctx), lead, contact)
		}()
	}

	return &CaptureLeadOutput{
		Success: true,
		LeadID:  lead.ID,
		NextURL: uc.nextURL(lead),
	}, nil
}

func (uc *CaptureLeadUseCase) deliver(ctx context.Context, lead *entity.Lead, contact *entity.Contact) {
	report := uc.Delivery.Deliver(ctx, lead, contact)
	if failed := report.Failed(); len(failed) > 0 {
		sinks := make([]string, 0, len(failed))
		for _, a := range failed {
			sinks = append(sinks, a.Sink)
		}
		zap.L().Warn("lead delivered with failures",
			zap.String("lead_id", lead.ID),
			zap.Strings("failed_sinks", sinks),
		)
		return
	}
	zap.L().Info("lead delivered", zap.String("lead_id", lead.ID), zap.Int("sinks", len(report.Attempts)))
}

// Wait blocks until every delivery started by Execute has finished.
func (uc *CaptureLeadUseCase) Wait() {
	uc.inflight.Wait()
}

func (uc *CaptureLeadUseCase) nextURL(lead *entity.Lead) string {
	next := "/thank-you"
	if uc.NextURL != nil {
		if u := uc.NextURL(lead.FunnelType); u != "" {
			next = u
		}
	}
	return withQuery(next, "lead_id", lead.ID)
}

func withQuery(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
