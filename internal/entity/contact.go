package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrDuplicateContact = errors.New("contact already exists")

// Contact is the canonical person record, unique by email and by phone hash.
type Contact struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	PhoneHash string    `json:"phone_hash,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewContact(email, phone, phoneHash, firstName, lastName string) *Contact {
	now := time.Now()
	return &Contact{
		ID:        uuid.New().String(),
		Email:     email,
		Phone:     phone,
		PhoneHash: phoneHash,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Backfill copies values from incoming into fields that are still empty on c.
// Populated fields are never overwritten. Reports whether anything changed.
func (c *Contact) Backfill(incoming Contact) bool {
	changed := false
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&c.Email, incoming.Email)
	fill(&c.FirstName, incoming.FirstName)
	fill(&c.LastName, incoming.LastName)
	if c.Phone == "" && c.PhoneHash == "" && incoming.Phone != "" {
		c.Phone = incoming.Phone
		c.PhoneHash = incoming.PhoneHash
		changed = true
	}
	return changed
}

func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ContactRepositoryInterface lookups return (nil, nil) when nothing matches.
type ContactRepositoryInterface interface {
	FindByEmail(ctx context.Context, email string) (*Contact, error)
	FindByPhoneHash(ctx context.Context, phoneHash string) (*Contact, error)
	Create(ctx context.Context, c *Contact) error
	Backfill(ctx context.Context, c *Contact) error
}
