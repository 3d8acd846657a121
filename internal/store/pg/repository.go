// Package pg stores users and image metadata in PostgreSQL through pgx.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/openidgate/internal/store"
)

const uniqueViolation = "23505"

type Store struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// Open resolves the pool for dsn through pm.
func Open(ctx context.Context, pm *PoolManager, dsn string) (*Store, error) {
	pool, err := pm.GetPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(pool), nil
}

// Pool exposes the underlying pool (migrations, health).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) CreateUser(ctx context.Context, u *store.User) (int64, error) {
	const q = `
		INSERT INTO users (username, name, email, password_hash, role, balance, sex_id,
		                   currency_id, language_code, openid_identity, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := s.pool.QueryRow(ctx, q,
		u.Username, u.Name, u.Email, u.PasswordHash, u.Role, u.Balance, u.SexID,
		u.CurrencyID, u.LanguageCode, u.OpenIDIdentity, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, store.ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return u.ID, nil
}

func (s *Store) GetUserByIdentity(ctx context.Context, identity string) (*store.User, error) {
	const q = `
		SELECT id, username, name, COALESCE(email, ''), password_hash, role, balance, sex_id,
		       currency_id, language_code, openid_identity, created_at
		FROM users WHERE openid_identity = $1
		ORDER BY id LIMIT 1`
	var u store.User
	err := s.pool.QueryRow(ctx, q, identity).Scan(
		&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Balance, &u.SexID,
		&u.CurrencyID, &u.LanguageCode, &u.OpenIDIdentity, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (s *Store) CreateImage(ctx context.Context, img *store.Image) (int64, error) {
	const q = `
		INSERT INTO images (user_id, object_type, object_id, width, height, mime_type, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, q,
		img.UserID, img.ObjectType, img.ObjectID, img.Width, img.Height, img.MimeType, img.Type,
	).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return img.ID, nil
}

func (s *Store) DeleteImage(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

var (
	_ store.UserRepository  = (*Store)(nil)
	_ store.ImageRepository = (*Store)(nil)
)
