package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/phone"
)

// ContactResolver finds or creates the canonical contact for a submission.
type ContactResolver struct {
	Repo          entity.ContactRepositoryInterface
	DefaultRegion string
}

func NewContactResolver(repo entity.ContactRepositoryInterface, defaultRegion string) *ContactResolver {
	if defaultRegion == "" {
		defaultRegion = "US"
	}
	return &ContactResolver{Repo: repo, DefaultRegion: defaultRegion}
}

// Resolve looks the contact up by email, then by phone hash. When both keys
// hit different contacts the email match wins and the phone is left on the
// other record. A found contact only has its empty fields backfilled.
// Creation is optimistic: losing a concurrent insert re-reads the winner.
func (r *ContactResolver) Resolve(ctx context.Context, input ResolveContactInput) (*entity.Contact, error) {
	incoming, err := r.normalize(input)
	if err != nil {
		return nil, err
	}

	existing, err := r.lookup(ctx, &incoming)
	if err != nil {
		return nil, &PersistenceError{Op: "find contact", Err: err}
	}
	if existing != nil {
		return r.backfill(ctx, existing, incoming)
	}

	c := entity.NewContact(incoming.Email, incoming.Phone, incoming.PhoneHash, incoming.FirstName, incoming.LastName)
	err = r.Repo.Create(ctx, c)
	if err == nil {
		zap.L().Info("contact created", zap.String("contact_id", c.ID))
		return c, nil
	}
	if !errors.Is(err, entity.ErrDuplicateContact) {
		return nil, &PersistenceError{Op: "create contact", Err: err}
	}

	zap.L().Info("contact create lost race, re-reading", zap.String("email", incoming.Email))
	winner, lerr := r.lookup(ctx, &incoming)
	if lerr != nil {
		return nil, &PersistenceError{Op: "find contact after conflict", Err: lerr}
	}
	if winner == nil {
		return nil, &PersistenceError{Op: "create contact", Err: err}
	}
	return r.backfill(ctx, winner, incoming)
}

func (r *ContactResolver) normalize(input ResolveContactInput) (entity.Contact, error) {
	c := entity.Contact{
		Email:     NormalizeEmail(input.Email),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
	}
	if strings.TrimSpace(input.Phone) != "" {
		e164, err := phone.Normalize(input.Phone, r.DefaultRegion)
		if err != nil {
			return c, &ValidationError{Field: "phoneNumber", Message: "Phone number is invalid"}
		}
		c.Phone = e164
		c.PhoneHash = phone.Hash(e164)
	}
	return c, nil
}

// lookup applies the precedence rule. When the phone hash already belongs to
// a contact other than the email match, the phone is dropped from incoming so
// the backfill cannot collide on phone_hash.
func (r *ContactResolver) lookup(ctx context.Context, incoming *entity.Contact) (*entity.Contact, error) {
	var byEmail, byPhone *entity.Contact
	var err error

	if incoming.Email != "" {
		byEmail, err = r.Repo.FindByEmail(ctx, incoming.Email)
		if err != nil {
			return nil, err
		}
	}
	if incoming.PhoneHash != "" {
		byPhone, err = r.Repo.FindByPhoneHash(ctx, incoming.PhoneHash)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case byEmail != nil && byPhone != nil && byEmail.ID != byPhone.ID:
		zap.L().Warn("email and phone match different contacts, using email match",
			zap.String("email_contact_id", byEmail.ID),
			zap.String("phone_contact_id", byPhone.ID),
		)
		incoming.Phone = ""
		incoming.PhoneHash = ""
		return byEmail, nil
	case byEmail != nil:
		return byEmail, nil
	default:
		return byPhone, nil
	}
}

func (r *ContactResolver) backfill(ctx context.Context, existing *entity.Contact, incoming entity.Contact) (*entity.Contact, error) {
	stored := *existing
	if !existing.Backfill(incoming) {
		return existing, nil
	}
	existing.UpdatedAt = time.Now()

	err := r.Repo.Backfill(ctx, existing)
	if errors.Is(err, entity.ErrDuplicateContact) {
		// Another contact claimed the email or phone in the meantime; the
		// match itself is still valid but nothing was written.
		zap.L().Warn("contact backfill conflicted, keeping stored values", zap.String("contact_id", existing.ID))
		return &stored, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "backfill contact", Err: err}
	}
	return existing, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
