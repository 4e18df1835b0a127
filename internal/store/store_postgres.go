package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"orgtrust/internal/domain"
)

// PostgresStore persists profiles in PostgreSQL. Upserts for one identifier
// serialize on the row lock, so the last resolution wins without a stale
// overwrite race.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profilesSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	orgid              TEXT PRIMARY KEY,
	owner              TEXT NOT NULL DEFAULT '',
	director           TEXT NOT NULL DEFAULT '',
	state              BOOLEAN NOT NULL DEFAULT FALSE,
	director_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
	kind               TEXT NOT NULL DEFAULT 'unknown',
	directory          TEXT NOT NULL DEFAULT 'unknown',
	name               TEXT NOT NULL DEFAULT '',
	logo               TEXT NOT NULL DEFAULT '',
	country            TEXT NOT NULL DEFAULT '',
	subsidiaries       TEXT[] NOT NULL DEFAULT '{}',
	parent_orgid       TEXT,
	parent_name        TEXT,
	parent_proofs_qty  INTEGER,
	website_proved     BOOLEAN NOT NULL DEFAULT FALSE,
	tls_proved         BOOLEAN NOT NULL DEFAULT FALSE,
	deposit_proved     BOOLEAN NOT NULL DEFAULT FALSE,
	social_fb_proved   BOOLEAN NOT NULL DEFAULT FALSE,
	social_tw_proved   BOOLEAN NOT NULL DEFAULT FALSE,
	proofs_qty         INTEGER NOT NULL DEFAULT 0,
	is_json_valid      BOOLEAN NOT NULL DEFAULT FALSE,
	json_hash          TEXT NOT NULL DEFAULT '',
	json_hash_computed TEXT NOT NULL DEFAULT '',
	json_uri           TEXT NOT NULL DEFAULT '',
	document           JSONB,
	checked_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
)`

// Migrate creates the profiles table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, profilesSchema); err != nil {
		return fmt.Errorf("migrate profiles: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, profile *domain.Profile) error {
	var document []byte
	if profile.Document != nil {
		var err error
		if document, err = json.Marshal(profile.Document); err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
	}

	subsidiaries := make([]string, 0, len(profile.Subsidiaries))
	for _, sub := range profile.Subsidiaries {
		subsidiaries = append(subsidiaries, sub.String())
	}

	var parentID, parentName sql.NullString
	var parentProofs sql.NullInt64
	if profile.Parent != nil {
		parentID = sql.NullString{String: profile.Parent.OrgID.String(), Valid: true}
		parentName = sql.NullString{String: profile.Parent.Name, Valid: true}
		parentProofs = sql.NullInt64{Int64: int64(profile.Parent.ProofsQty), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (
			orgid, owner, director, state, director_confirmed,
			kind, directory, name, logo, country,
			subsidiaries, parent_orgid, parent_name, parent_proofs_qty,
			website_proved, tls_proved, deposit_proved, social_fb_proved, social_tw_proved,
			proofs_qty, is_json_valid, json_hash, json_hash_computed, json_uri,
			document, checked_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25, $26, $27
		)
		ON CONFLICT (orgid) DO UPDATE SET
			owner = EXCLUDED.owner,
			director = EXCLUDED.director,
			state = EXCLUDED.state,
			director_confirmed = EXCLUDED.director_confirmed,
			kind = EXCLUDED.kind,
			directory = EXCLUDED.directory,
			name = EXCLUDED.name,
			logo = EXCLUDED.logo,
			country = EXCLUDED.country,
			subsidiaries = EXCLUDED.subsidiaries,
			parent_orgid = EXCLUDED.parent_orgid,
			parent_name = EXCLUDED.parent_name,
			parent_proofs_qty = EXCLUDED.parent_proofs_qty,
			website_proved = EXCLUDED.website_proved,
			tls_proved = EXCLUDED.tls_proved,
			deposit_proved = EXCLUDED.deposit_proved,
			social_fb_proved = EXCLUDED.social_fb_proved,
			social_tw_proved = EXCLUDED.social_tw_proved,
			proofs_qty = EXCLUDED.proofs_qty,
			is_json_valid = EXCLUDED.is_json_valid,
			json_hash = EXCLUDED.json_hash,
			json_hash_computed = EXCLUDED.json_hash_computed,
			json_uri = EXCLUDED.json_uri,
			document = EXCLUDED.document,
			checked_at = EXCLUDED.checked_at,
			updated_at = EXCLUDED.updated_at`,
		profile.OrgID.String(), profile.Owner, profile.Director, profile.State, profile.DirectorConfirmed,
		string(profile.Kind), profile.Directory, profile.Name, profile.Logo, profile.Country,
		pq.Array(subsidiaries), parentID, parentName, parentProofs,
		profile.Proofs.Website, profile.Proofs.TLS, profile.Proofs.Deposit,
		profile.Proofs.SocialFacebook, profile.Proofs.SocialTwitter,
		profile.ProofsQty, profile.IsJSONValid, profile.JSONHash, profile.JSONHashComputed, profile.JSONURI,
		document, profile.CheckedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", profile.OrgID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.OrgID) (*domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT orgid, owner, director, state, director_confirmed,
			kind, directory, name, logo, country,
			subsidiaries, parent_orgid, parent_name, parent_proofs_qty,
			website_proved, tls_proved, deposit_proved, social_fb_proved, social_tw_proved,
			proofs_qty, is_json_valid, json_hash, json_hash_computed, json_uri,
			document, checked_at, updated_at
		FROM profiles WHERE orgid = $1`, id.String())

	var (
		profile      domain.Profile
		orgidText    string
		kind         string
		subsidiaries pq.StringArray
		parentID     sql.NullString
		parentName   sql.NullString
		parentProofs sql.NullInt64
		document     []byte
	)
	err := row.Scan(
		&orgidText, &profile.Owner, &profile.Director, &profile.State, &profile.DirectorConfirmed,
		&kind, &profile.Directory, &profile.Name, &profile.Logo, &profile.Country,
		&subsidiaries, &parentID, &parentName, &parentProofs,
		&profile.Proofs.Website, &profile.Proofs.TLS, &profile.Proofs.Deposit,
		&profile.Proofs.SocialFacebook, &profile.Proofs.SocialTwitter,
		&profile.ProofsQty, &profile.IsJSONValid, &profile.JSONHash, &profile.JSONHashComputed, &profile.JSONURI,
		&document, &profile.CheckedAt, &profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}

	if profile.OrgID, err = domain.ParseOrgID(orgidText); err != nil {
		return nil, fmt.Errorf("stored orgid: %w", err)
	}
	profile.Kind = domain.Kind(kind)
	for _, sub := range subsidiaries {
		subID, err := domain.ParseOrgID(sub)
		if err != nil {
			return nil, fmt.Errorf("stored subsidiary: %w", err)
		}
		profile.Subsidiaries = append(profile.Subsidiaries, subID)
	}
	if parentID.Valid {
		pid, err := domain.ParseOrgID(parentID.String)
		if err != nil {
			return nil, fmt.Errorf("stored parent orgid: %w", err)
		}
		profile.Parent = &domain.ParentSummary{
			OrgID:     pid,
			Name:      parentName.String,
			ProofsQty: int(parentProofs.Int64),
		}
	}
	if len(document) > 0 {
		var doc domain.OrganizationDocument
		if err := json.Unmarshal(document, &doc); err != nil {
			return nil, fmt.Errorf("stored document: %w", err)
		}
		profile.Document = &doc
	}
	return &profile, nil
}

func (s *PostgresStore) ListIdentifiers(ctx context.Context, filter Filter) ([]domain.OrgID, error) {
	query := `SELECT orgid FROM profiles ORDER BY orgid`
	if filter == FilterInvalid {
		query = `SELECT orgid FROM profiles WHERE NOT is_json_valid ORDER BY orgid`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var ids []domain.OrgID
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan orgid: %w", err)
		}
		id, err := domain.ParseOrgID(text)
		if err != nil {
			return nil, fmt.Errorf("stored orgid: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
