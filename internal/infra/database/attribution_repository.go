package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

type AttributionRepository struct {
	DB Pool
}

func NewAttributionRepository(db Pool) *AttributionRepository {
	return &AttributionRepository{DB: db}
}

func (r *AttributionRepository) Create(ctx context.Context, e *entity.AttributionEvent) error {
	query := `
		INSERT INTO attribution_events (
			id, session_id, event_type, referrer, landing_page, visitor_id,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.DB.Exec(ctx, query,
		e.ID,
		e.SessionID,
		e.EventType,
		nullString(e.Referrer),
		nullString(e.LandingPage),
		nullString(e.VisitorID),
		nullString(e.UTM.Source),
		nullString(e.UTM.Medium),
		nullString(e.UTM.Campaign),
		nullString(e.UTM.Term),
		nullString(e.UTM.Content),
		e.OccurredAt,
	)
	if err != nil {
		return eris.Wrap(err, "attribution: create")
	}
	return nil
}

// LatestBySession returns the most recent event for the session, or
// (nil, nil) when there is none.
func (r *AttributionRepository) LatestBySession(ctx context.Context, sessionID string) (*entity.AttributionEvent, error) {
	query := `
		SELECT id, session_id, event_type, referrer, landing_page, visitor_id,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content, occurred_at
		FROM attribution_events
		WHERE session_id = $1
		ORDER BY occurred_at DESC
		LIMIT 1
	`

	var e entity.AttributionEvent
	var referrer, landing, visitor *string
	var src, medium, campaign, term, content *string
	err := r.DB.QueryRow(ctx, query, sessionID).Scan(
		&e.ID,
		&e.SessionID,
		&e.EventType,
		&referrer,
		&landing,
		&visitor,
		&src,
		&medium,
		&campaign,
		&term,
		&content,
		&e.OccurredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "attribution: latest by session")
	}

	e.Referrer = derefString(referrer)
	e.LandingPage = derefString(landing)
	e.VisitorID = derefString(visitor)
	e.UTM = entity.UTM{
		Source:   derefString(src),
		Medium:   derefString(medium),
		Campaign: derefString(campaign),
		Term:     derefString(term),
		Content:  derefString(content),
	}
	return &e, nil
}

func (r *AttributionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM attribution_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "attribution: purge")
	}
	return tag.RowsAffected(), nil
}
