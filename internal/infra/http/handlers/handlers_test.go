package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/infra/integration/propertydata"
	"github.com/xavierca1/retirement-leads/internal/usecase"
)

type mockCapturer struct{ mock.Mock }

func (m *mockCapturer) Execute(ctx context.Context, in usecase.CaptureLeadInput) (*usecase.CaptureLeadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.CaptureLeadOutput)
	return out, args.Error(1)
}

type mockGetter struct{ mock.Mock }

func (m *mockGetter) Execute(ctx context.Context, id string) (*usecase.LeadStatusOutput, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*usecase.LeadStatusOutput)
	return out, args.Error(1)
}

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) Execute(ctx context.Context, in usecase.TrackEventInput) (*entity.AttributionEvent, error) {
	args := m.Called(ctx, in)
	ev, _ := args.Get(0).(*entity.AttributionEvent)
	return ev, args.Error(1)
}

type mockLookup struct{ mock.Mock }

func (m *mockLookup) Lookup(ctx context.Context, address string) (*propertydata.Property, error) {
	args := m.Called(ctx, address)
	p, _ := args.Get(0).(*propertydata.Property)
	return p, args.Error(1)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func postLead(h *LeadHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.CaptureLead(rec, req)
	return rec
}

func TestCaptureLead_Success(t *testing.T) {
	capture := new(mockCapturer)
	capture.On("Execute", mock.Anything, mock.MatchedBy(func(in usecase.CaptureLeadInput) bool {
		return in.Email == "jane@example.com" && in.QuizAnswers["age_range"] == "55-64"
	})).Return(&usecase.CaptureLeadOutput{Success: true, LeadID: "l-1", NextURL: "/thank-you?lead_id=l-1"}, nil)

	h := NewLeadHandler(capture, nil, nil)
	rec := postLead(h, `{"email":"jane@example.com","phoneNumber":"555-123-4567","quizAnswers":{"age_range":"55-64"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "l-1", body["lead_id"])
	assert.Equal(t, "/thank-you?lead_id=l-1", body["next_url"])
	capture.AssertExpectations(t)
}

func TestCaptureLead_InvalidJSON(t *testing.T) {
	capture := new(mockCapturer)
	h := NewLeadHandler(capture, nil, nil)

	rec := postLead(h, `{"email":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON", decode(t, rec)["error"])
	capture.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestCaptureLead_ValidationError(t *testing.T) {
	capture := new(mockCapturer)
	capture.On("Execute", mock.Anything, mock.Anything).
		Return(nil, &usecase.ValidationError{Field: "email", Message: "Email and phone number are required"})

	h := NewLeadHandler(capture, nil, nil)
	rec := postLead(h, `{"phoneNumber":"5551234567"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Email and phone number are required", body["error"])
	_, hasSuccess := body["success"]
	assert.False(t, hasSuccess)
}

func TestCaptureLead_InternalError(t *testing.T) {
	capture := new(mockCapturer)
	capture.On("Execute", mock.Anything, mock.Anything).
		Return(nil, &usecase.PersistenceError{Op: "record lead", Err: errors.New("db down")})

	h := NewLeadHandler(capture, nil, nil)
	rec := postLead(h, `{"email":"a@x.com","phoneNumber":"5551234567"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestCaptureLead_RateLimited(t *testing.T) {
	capture := new(mockCapturer)
	capture.On("Execute", mock.Anything, mock.Anything).
		Return(&usecase.CaptureLeadOutput{Success: true, LeadID: "l-1"}, nil)

	h := NewLeadHandler(capture, nil, NewRateLimiter(2))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{"email":"a@x.com","phoneNumber":"5551234567"}`))
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.CaptureLead(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.7"))
	assert.Equal(t, http.StatusOK, send("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
}

func TestGetLead(t *testing.T) {
	get := new(mockGetter)
	get.On("Execute", mock.Anything, "l-1").
		Return(&usecase.LeadStatusOutput{LeadID: "l-1", Status: "verified", IsVerified: true}, nil)
	get.On("Execute", mock.Anything, "missing").
		Return(nil, entity.ErrLeadNotFound)

	h := NewLeadHandler(nil, get, nil)
	r := chi.NewRouter()
	r.Get("/api/leads/{id}", h.GetLead)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads/l-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "verified", decode(t, rec)["status"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackEvent(t *testing.T) {
	track := new(mockRecorder)
	track.On("Execute", mock.Anything, mock.MatchedBy(func(in usecase.TrackEventInput) bool {
		return in.EventType == entity.EventPageView && in.Referrer == "https://google.com/"
	})).Return(&entity.AttributionEvent{ID: "e-1"}, nil)

	h := NewEventHandler(track, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"eventType":"page_view","sessionId":"s-1"}`))
	req.Header.Set("Referer", "https://google.com/")
	rec := httptest.NewRecorder()
	h.Track(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e-1", decode(t, rec)["event_id"])
	track.AssertExpectations(t)
}

func TestTrackEvent_Validation(t *testing.T) {
	track := new(mockRecorder)
	track.On("Execute", mock.Anything, mock.Anything).
		Return(nil, &usecase.ValidationError{Field: "eventType", Message: "Unknown event type"})

	h := NewEventHandler(track, nil)
	rec := httptest.NewRecorder()
	h.Track(rec, httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"eventType":"nope","sessionId":"s-1"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown event type", decode(t, rec)["error"])
}

func TestPropertyLookup(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("Lookup", mock.Anything, "1 Main St").
		Return(&propertydata.Property{FormattedAddress: "1 Main St, Austin, TX", AssessedValue: 410000}, nil)
	lookup.On("Lookup", mock.Anything, "nowhere").
		Return(nil, propertydata.ErrNotFound)

	h := NewPropertyHandler(lookup)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"found", "/api/property-lookup?address=1+Main+St", http.StatusOK},
		{"not found", "/api/property-lookup?address=nowhere", http.StatusNotFound},
		{"missing address", "/api/property-lookup", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Lookup(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeBroker bool

func (f fakeBroker) Healthy() bool { return bool(f) }

func TestHealth(t *testing.T) {
	h := NewHealthHandler(fakePinger{}, fakeBroker(true), []string{"ghl", "ga4"}, "test")
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, []any{"ghl", "ga4"}, body["sinks"])

	h = NewHealthHandler(fakePinger{err: errors.New("refused")}, nil, nil, "test")
	rec = httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	deps := decode(t, rec)["dependencies"].(map[string]any)
	assert.Equal(t, "not configured", deps["rabbitmq"])
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(5)
	rl.Allow("1.1.1.1")
	rl.evictIdle(time.Now().Add(time.Hour))
	assert.Empty(t, rl.visitors)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5123"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}
