package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"starsky/internal/app/db"
)

// Postgres is the Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an already migrated pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const loadIdentitySQL = `
SELECT telegram_id, username, info, last_activity
FROM users
WHERE telegram_id = $1`

func (p *Postgres) LoadIdentity(ctx context.Context, userID int64) (*Identity, error) {
	var identity Identity
	err := p.pool.QueryRow(ctx, loadIdentitySQL, userID).
		Scan(&identity.UserID, &identity.Username, &identity.Info, &identity.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load identity %d: %w", userID, err)
	}
	return &identity, nil
}

const loadStarStateSQL = `
SELECT user_id, activity_score, star_color, star_shape, info, skins_owned
FROM user_stars
WHERE user_id = $1`

func (p *Postgres) LoadStarState(ctx context.Context, userID int64) (*StarState, error) {
	var state StarState
	err := p.pool.QueryRow(ctx, loadStarStateSQL, userID).Scan(
		&state.UserID, &state.ActivityScore, &state.StarColor, &state.StarShape, &state.Info, &state.SkinsOwned,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load star state %d: %w", userID, err)
	}
	return &state, nil
}

const upsertIdentitySQL = `
INSERT INTO users (telegram_id, username, info, last_activity)
VALUES ($1, $2, $3, $4)
ON CONFLICT (telegram_id) DO UPDATE SET
    username      = EXCLUDED.username,
    info          = EXCLUDED.info,
    last_activity = COALESCE(EXCLUDED.last_activity, users.last_activity)`

func (p *Postgres) UpsertIdentity(ctx context.Context, identity Identity) error {
	if _, err := p.pool.Exec(ctx, upsertIdentitySQL,
		identity.UserID, identity.Username, identity.Info, identity.LastSeen,
	); err != nil {
		return fmt.Errorf("upsert identity %d: %w", identity.UserID, err)
	}
	return nil
}

const upsertStarStateSQL = `
INSERT INTO user_stars (user_id, activity_score, star_color, star_shape, info, skins_owned)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
    activity_score = EXCLUDED.activity_score,
    star_color     = EXCLUDED.star_color,
    star_shape     = EXCLUDED.star_shape,
    info           = EXCLUDED.info,
    skins_owned    = EXCLUDED.skins_owned`

func (p *Postgres) UpsertStarState(ctx context.Context, state StarState) error {
	skins := state.SkinsOwned
	if skins == nil {
		skins = []string{}
	}

	if _, err := p.pool.Exec(ctx, upsertStarStateSQL,
		state.UserID, state.ActivityScore, state.StarColor, state.StarShape, state.Info, skins,
	); err != nil {
		return fmt.Errorf("upsert star state %d: %w", state.UserID, err)
	}
	return nil
}

func (p *Postgres) AppendPublicMessage(ctx context.Context, userID int64, username, text string) error {
	if _, err := p.pool.Exec(ctx,
		`INSERT INTO chat_messages (user_id, username, text) VALUES ($1, $2, $3)`,
		userID, username, text,
	); err != nil {
		return fmt.Errorf("append public message: %w", err)
	}
	return nil
}

const listPublicMessagesSQL = `
SELECT user_id, username, text, created_at
FROM (
    SELECT id, user_id, username, text, created_at
    FROM chat_messages
    ORDER BY id DESC
    LIMIT $1
) latest
ORDER BY id ASC`

func (p *Postgres) ListPublicMessages(ctx context.Context, limit int) ([]PublicMessage, error) {
	rows, err := p.pool.Query(ctx, listPublicMessagesSQL, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("list public messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PublicMessage, error) {
		var m PublicMessage
		err := row.Scan(&m.UserID, &m.Username, &m.Text, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan public messages: %w", err)
	}
	return messages, nil
}

func (p *Postgres) IssueLoginCode(ctx context.Context, userID int64, code *string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE users SET login_code = $2 WHERE telegram_id = $1`, userID, code)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("issue login code for %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ResolveLoginCode(ctx context.Context, code string) (*LoginRecord, error) {
	var record LoginRecord
	err := p.pool.QueryRow(ctx,
		`UPDATE users SET login_code = NULL WHERE login_code = $1 RETURNING telegram_id, username`,
		code,
	).Scan(&record.UserID, &record.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve login code: %w", err)
	}
	return &record, nil
}

const listStarsSQL = `
SELECT s.user_id, s.activity_score, s.star_color, s.star_shape, s.info, s.skins_owned,
       COALESCE(u.username, ''), COALESCE(u.info, '')
FROM user_stars s
LEFT JOIN users u ON u.telegram_id = s.user_id
ORDER BY s.user_id`

func (p *Postgres) ListStars(ctx context.Context) ([]StarRecord, error) {
	rows, err := p.pool.Query(ctx, listStarsSQL)
	if err != nil {
		return nil, fmt.Errorf("list stars: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (StarRecord, error) {
		var r StarRecord
		err := row.Scan(
			&r.UserID, &r.ActivityScore, &r.StarColor, &r.StarShape, &r.Info, &r.SkinsOwned,
			&r.Username, &r.IdentityInfo,
		)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan stars: %w", err)
	}
	return records, nil
}

// Unavailable reports whether err means the database could not be reached at all,
// as opposed to a query or constraint failure.
func Unavailable(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
