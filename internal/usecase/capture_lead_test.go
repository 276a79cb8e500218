package usecase

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

type captureFixture struct {
	contacts    *MockContactRepository
	leads       *MockLeadRepository
	attribution *MockAttributionRepository
	deliverer   *MockDeliverer
	uc          *CaptureLeadUseCase
}

func newCaptureFixture(nextURL func(string) string) *captureFixture {
	f := &captureFixture{
		contacts:    new(MockContactRepository),
		leads:       new(MockLeadRepository),
		attribution: new(MockAttributionRepository),
		deliverer:   new(MockDeliverer),
	}
	f.uc = NewCaptureLeadUseCase(
		NewContactResolver(f.contacts, "US"),
		NewLeadRecorder(f.leads, f.attribution),
		f.deliverer,
		CaptureDefaults{SiteKey: "main", FunnelType: "retirement-income"},
		nextURL,
	)
	return f
}

func (f *captureFixture) expectNewContactAndLead(ctx context.Context) {
	f.contacts.On("FindByEmail", ctx, "a@x.com").Return(nil, nil)
	f.contacts.On("FindByPhoneHash", ctx, mock.Anything).Return(nil, nil)
	f.contacts.On("Create", ctx, mock.Anything).Return(nil)
	f.attribution.On("LatestBySession", ctx, "s-1").Return(nil, nil)
	f.leads.On("FindBySession", ctx, mock.Anything, "s-1").Return(nil, nil)
	f.leads.On("Create", ctx, mock.Anything).Return(nil)
}

func TestCaptureLead_MissingEmailOrPhone(t *testing.T) {
	cases := []CaptureLeadInput{
		{PhoneNumber: "5551234567"},
		{Email: "a@x.com"},
		{Email: "   ", PhoneNumber: "5551234567"},
	}
	for _, in := range cases {
		f := newCaptureFixture(nil)

		out, err := f.uc.Execute(context.Background(), in)

		assert.Nil(t, out)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, "Email and phone number are required", err.Error())
		f.contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestCaptureLead_SuccessDespiteDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newCaptureFixture(func(string) string { return "" })
	f.expectNewContactAndLead(ctx)

	f.deliverer.On("Deliver", mock.Anything, mock.AnythingOfType("*entity.Lead"), mock.AnythingOfType("*entity.Contact")).
		Return(entity.DeliveryReport{Attempts: []entity.DeliveryAttempt{
			{Sink: "ghl", Outcome: entity.OutcomeFailure, Error: "dial tcp: connection refused"},
			{Sink: "ga4", Outcome: entity.OutcomeSuccess},
		}})

	out, err := f.uc.Execute(ctx, CaptureLeadInput{
		Email:       "a@x.com",
		PhoneNumber: "5551234567",
		FirstName:   "Jane",
		SessionID:   "s-1",
		QuizAnswers: entity.QuizAnswers{"age_range": "55-64"},
	})
	f.uc.Wait()

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.LeadID)
	assert.Equal(t, "/thank-you?lead_id="+out.LeadID, out.NextURL)
	f.deliverer.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestCaptureLead_AppliesDefaultsAndFunnelNextURL(t *testing.T) {
	ctx := context.Background()
	f := newCaptureFixture(func(funnel string) string {
		if funnel == "gold-ira" {
			return "https://example.com/gold/next?step=2"
		}
		return "/thank-you"
	})
	f.expectNewContactAndLead(ctx)
	f.deliverer.On("Deliver", mock.Anything, mock.MatchedBy(func(l *entity.Lead) bool {
		return l.SiteKey == "main" && l.FunnelType == "gold-ira"
	}), mock.Anything).Return(entity.DeliveryReport{})

	out, err := f.uc.Execute(ctx, CaptureLeadInput{
		Email:       "a@x.com",
		PhoneNumber: "5551234567",
		SessionID:   "s-1",
		FunnelType:  "gold-ira",
	})
	f.uc.Wait()

	require.NoError(t, err)
	u, perr := url.Parse(out.NextURL)
	require.NoError(t, perr)
	assert.Equal(t, "/gold/next", u.Path)
	assert.Equal(t, "2", u.Query().Get("step"))
	assert.Equal(t, out.LeadID, u.Query().Get("lead_id"))
	f.deliverer.AssertExpectations(t)
}

func TestCaptureLead_PersistenceFailureSkipsDelivery(t *testing.T) {
	ctx := context.Background()
	f := newCaptureFixture(nil)
	f.contacts.On("FindByEmail", ctx, "a@x.com").Return(nil, errors.New("db down"))

	out, err := f.uc.Execute(ctx, CaptureLeadInput{Email: "a@x.com", PhoneNumber: "5551234567"})
	f.uc.Wait()

	assert.Nil(t, out)
	assert.True(t, IsPersistenceError(err))
	f.deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
}
