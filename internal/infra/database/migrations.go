package database

import (
	"context"

	"github.com/rotisserie/eris"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id          TEXT PRIMARY KEY,
	email       TEXT,
	phone       TEXT,
	phone_hash  TEXT,
	first_name  TEXT,
	last_name   TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_contacts_email ON contacts(email) WHERE email IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS ux_contacts_phone_hash ON contacts(phone_hash) WHERE phone_hash IS NOT NULL;

CREATE TABLE IF NOT EXISTS leads (
	id                    TEXT PRIMARY KEY,
	contact_id            TEXT NOT NULL REFERENCES contacts(id),
	session_id            TEXT,
	site_key              TEXT NOT NULL,
	funnel_type           TEXT NOT NULL,
	status                TEXT NOT NULL,
	is_verified           BOOLEAN NOT NULL DEFAULT false,
	verified_at           TIMESTAMPTZ,
	quiz_answers          JSONB NOT NULL DEFAULT '{}'::jsonb,
	utm_source            TEXT,
	utm_medium            TEXT,
	utm_campaign          TEXT,
	utm_term              TEXT,
	utm_content           TEXT,
	referrer              TEXT,
	landing_page          TEXT,
	visitor_id            TEXT,
	trusted_form_cert_url TEXT,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_leads_contact_session ON leads(contact_id, session_id) WHERE session_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);

CREATE TABLE IF NOT EXISTS attribution_events (
	id            TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	event_type    TEXT NOT NULL,
	referrer      TEXT,
	landing_page  TEXT,
	visitor_id    TEXT,
	utm_source    TEXT,
	utm_medium    TEXT,
	utm_campaign  TEXT,
	utm_term      TEXT,
	utm_content   TEXT,
	occurred_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_attribution_session_time ON attribution_events(session_id, occurred_at DESC);
`

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return eris.Wrap(err, "database: migrate")
	}
	return nil
}
