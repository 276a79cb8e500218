package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) FindByEmail(ctx context.Context, email string) (*entity.Contact, error) {
	args := m.Called(ctx, email)
	c, _ := args.Get(0).(*entity.Contact)
	return c, args.Error(1)
}

func (m *MockContactRepository) FindByPhoneHash(ctx context.Context, phoneHash string) (*entity.Contact, error) {
	args := m.Called(ctx, phoneHash)
	c, _ := args.Get(0).(*entity.Contact)
	return c, args.Error(1)
}

func (m *MockContactRepository) Create(ctx context.Context, c *entity.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContactRepository) Backfill(ctx context.Context, c *entity.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*entity.Lead)
	return l, args.Error(1)
}

func (m *MockLeadRepository) FindBySession(ctx context.Context, contactID, sessionID string) (*entity.Lead, error) {
	args := m.Called(ctx, contactID, sessionID)
	l, _ := args.Get(0).(*entity.Lead)
	return l, args.Error(1)
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

type MockAttributionRepository struct {
	mock.Mock
}

func (m *MockAttributionRepository) Create(ctx context.Context, e *entity.AttributionEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockAttributionRepository) LatestBySession(ctx context.Context, sessionID string) (*entity.AttributionEvent, error) {
	args := m.Called(ctx, sessionID)
	e, _ := args.Get(0).(*entity.AttributionEvent)
	return e, args.Error(1)
}

func (m *MockAttributionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return int64(args.Int(0)), args.Error(1)
}

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, lead *entity.Lead, contact *entity.Contact) entity.DeliveryReport {
	args := m.Called(ctx, lead, contact)
	return args.Get(0).(entity.DeliveryReport)
}

type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Track(ctx context.Context, event entity.TrackedEvent) entity.DeliveryReport {
	args := m.Called(ctx, event)
	return args.Get(0).(entity.DeliveryReport)
}

// memContacts enforces the same uniqueness as the contacts table.
type memContacts struct {
	mu   sync.Mutex
	byID map[string]*entity.Contact
}

func newMemContacts() *memContacts {
	return &memContacts{byID: map[string]*entity.Contact{}}
}

func (s *memContacts) FindByEmail(_ context.Context, email string) (*entity.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memContacts) FindByPhoneHash(_ context.Context, hash string) (*entity.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.PhoneHash == hash {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memContacts) Create(_ context.Context, c *entity.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == c.Email || (c.PhoneHash != "" && existing.PhoneHash == c.PhoneHash) {
			return entity.ErrDuplicateContact
		}
	}
	cp := *c
	s.byID[c.ID] = &cp
	return nil
}

func (s *memContacts) Backfill(_ context.Context, c *entity.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[c.ID]
	if !ok {
		return nil
	}
	stored.Backfill(*c)
	return nil
}

func (s *memContacts) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
