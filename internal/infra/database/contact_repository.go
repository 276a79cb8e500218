package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

type ContactRepository struct {
	DB Pool
}

func NewContactRepository(db Pool) *ContactRepository {
	return &ContactRepository{DB: db}
}

const contactColumns = `id, email, phone, phone_hash, first_name, last_name, created_at, updated_at`

func (r *ContactRepository) FindByEmail(ctx context.Context, email string) (*entity.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE email = $1 LIMIT 1`
	return r.findOne(ctx, query, email)
}

func (r *ContactRepository) FindByPhoneHash(ctx context.Context, phoneHash string) (*entity.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE phone_hash = $1 LIMIT 1`
	return r.findOne(ctx, query, phoneHash)
}

func (r *ContactRepository) findOne(ctx context.Context, query, arg string) (*entity.Contact, error) {
	var c entity.Contact
	var email, phone, phoneHash, first, last *string
	err := r.DB.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&email,
		&phone,
		&phoneHash,
		&first,
		&last,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "contacts: find")
	}
	c.Email = derefString(email)
	c.Phone = derefString(phone)
	c.PhoneHash = derefString(phoneHash)
	c.FirstName = derefString(first)
	c.LastName = derefString(last)
	return &c, nil
}

// Create inserts c. A clash on email or phone_hash returns ErrDuplicateContact.
func (r *ContactRepository) Create(ctx context.Context, c *entity.Contact) error {
	query := `
		INSERT INTO contacts (id, email, phone, phone_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.DB.Exec(ctx, query,
		c.ID,
		nullString(c.Email),
		nullString(c.Phone),
		nullString(c.PhoneHash),
		nullString(c.FirstName),
		nullString(c.LastName),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicateContact
		}
		return eris.Wrap(err, "contacts: create")
	}
	return nil
}

// Backfill writes c's fields only into columns that are still empty, so a
// concurrent writer's values are never clobbered either.
func (r *ContactRepository) Backfill(ctx context.Context, c *entity.Contact) error {
	query := `
		UPDATE contacts SET
			email      = COALESCE(NULLIF(email, ''), $2),
			first_name = COALESCE(NULLIF(first_name, ''), $3),
			last_name  = COALESCE(NULLIF(last_name, ''), $4),
			phone      = CASE WHEN NULLIF(phone_hash, '') IS NULL THEN $5 ELSE phone END,
			phone_hash = COALESCE(NULLIF(phone_hash, ''), $6),
			updated_at = $7
		WHERE id = $1
	`

	_, err := r.DB.Exec(ctx, query,
		c.ID,
		nullString(c.Email),
		nullString(c.FirstName),
		nullString(c.LastName),
		nullString(c.Phone),
		nullString(c.PhoneHash),
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicateContact
		}
		return eris.Wrap(err, "contacts: backfill")
	}
	return nil
}
