package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

type LeadRepository struct {
	DB Pool
}

func NewLeadRepository(db Pool) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, contact_id, session_id, site_key, funnel_type, status, is_verified, verified_at,
	quiz_answers, utm_source, utm_medium, utm_campaign, utm_term, utm_content,
	referrer, landing_page, visitor_id, trusted_form_cert_url, created_at, updated_at`

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := r.scanOne(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, entity.ErrLeadNotFound
	}
	return lead, nil
}

// FindBySession returns (nil, nil) when the contact has no lead for session.
func (r *LeadRepository) FindBySession(ctx context.Context, contactID, sessionID string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE contact_id = $1 AND session_id = $2 LIMIT 1`
	return r.scanOne(r.DB.QueryRow(ctx, query, contactID, sessionID))
}

func (r *LeadRepository) scanOne(row pgx.Row) (*entity.Lead, error) {
	var l entity.Lead
	var sessionID, src, medium, campaign, term, content *string
	var referrer, landing, visitor, cert *string
	var verifiedAt *time.Time
	var answers []byte
	err := row.Scan(
		&l.ID,
		&l.ContactID,
		&sessionID,
		&l.SiteKey,
		&l.FunnelType,
		&l.Status,
		&l.IsVerified,
		&verifiedAt,
		&answers,
		&src,
		&medium,
		&campaign,
		&term,
		&content,
		&referrer,
		&landing,
		&visitor,
		&cert,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "leads: scan")
	}

	l.SessionID = derefString(sessionID)
	l.VerifiedAt = verifiedAt
	l.UTMSource = derefString(src)
	l.UTMMedium = derefString(medium)
	l.UTMCampaign = derefString(campaign)
	l.UTMTerm = derefString(term)
	l.UTMContent = derefString(content)
	l.Referrer = derefString(referrer)
	l.LandingPage = derefString(landing)
	l.VisitorID = derefString(visitor)
	l.TrustedFormCertURL = derefString(cert)

	l.QuizAnswers = entity.QuizAnswers{}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &l.QuizAnswers); err != nil {
			return nil, eris.Wrapf(err, "leads: decode quiz_answers for %s", l.ID)
		}
	}
	return &l, nil
}

// Create inserts lead. A second lead for the same (contact, session) returns
// ErrDuplicateLead.
func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	answers, err := json.Marshal(lead.QuizAnswers)
	if err != nil {
		return eris.Wrap(err, "leads: encode quiz_answers")
	}

	query := `
		INSERT INTO leads (
			id, contact_id, session_id, site_key, funnel_type, status, is_verified, verified_at,
			quiz_answers, utm_source, utm_medium, utm_campaign, utm_term, utm_content,
			referrer, landing_page, visitor_id, trusted_form_cert_url, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20
		)
	`

	_, err = r.DB.Exec(ctx, query,
		lead.ID,
		lead.ContactID,
		nullString(lead.SessionID),
		lead.SiteKey,
		lead.FunnelType,
		lead.Status,
		lead.IsVerified,
		lead.VerifiedAt,
		answers,
		nullString(lead.UTMSource),
		nullString(lead.UTMMedium),
		nullString(lead.UTMCampaign),
		nullString(lead.UTMTerm),
		nullString(lead.UTMContent),
		nullString(lead.Referrer),
		nullString(lead.LandingPage),
		nullString(lead.VisitorID),
		nullString(lead.TrustedFormCertURL),
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicateLead
		}
		return eris.Wrap(err, "leads: create")
	}
	return nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	answers, err := json.Marshal(lead.QuizAnswers)
	if err != nil {
		return eris.Wrap(err, "leads: encode quiz_answers")
	}

	query := `
		UPDATE leads SET
			site_key = $2,
			funnel_type = $3,
			status = $4,
			is_verified = $5,
			verified_at = $6,
			quiz_answers = $7,
			utm_source = $8,
			utm_medium = $9,
			utm_campaign = $10,
			utm_term = $11,
			utm_content = $12,
			referrer = $13,
			landing_page = $14,
			visitor_id = $15,
			trusted_form_cert_url = $16,
			updated_at = $17
		WHERE id = $1
	`

	tag, err := r.DB.Exec(ctx, query,
		lead.ID,
		lead.SiteKey,
		lead.FunnelType,
		lead.Status,
		lead.IsVerified,
		lead.VerifiedAt,
		answers,
		nullString(lead.UTMSource),
		nullString(lead.UTMMedium),
		nullString(lead.UTMCampaign),
		nullString(lead.UTMTerm),
		nullString(lead.UTMContent),
		nullString(lead.Referrer),
		nullString(lead.LandingPage),
		nullString(lead.VisitorID),
		nullString(lead.TrustedFormCertURL),
		lead.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "leads: update %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}
