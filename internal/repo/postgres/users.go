package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/contacts/internal/domain/user"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, subscription, token, verified, verification_token, avatar_url, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	u := user.New(nu)

	err := r.prom.ObserveDB("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, subscription, token, verified, verification_token, avatar_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NULL, $5, $6, $7, $8, $9)`,
			u.ID, u.Email, u.PasswordHash, string(u.Subscription), u.Verified, u.VerificationToken, u.AvatarURL, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// SetToken stores the current session token; an empty token clears it.
func (r *UsersRepo) SetToken(ctx context.Context, id, token string) error {
	var stored *string
	if token != "" {
		stored = &token
	}

	return r.exec(ctx, "users.set_token",
		`UPDATE users SET token = $2, updated_at = NOW() WHERE id = $1`, id, stored)
}

func (r *UsersRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	return r.exec(ctx, "users.update_avatar",
		`UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1`, id, avatarURL)
}

func (r *UsersRepo) UpdateSubscription(ctx context.Context, id string, sub user.Subscription) (user.User, error) {
	return r.getOne(ctx, "users.update_subscription",
		`UPDATE users SET subscription = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, string(sub))
}

// MarkVerified is a single conditional update: only an unverified user still
// holding this exact token matches, and the token is cleared in the same step.
func (r *UsersRepo) MarkVerified(ctx context.Context, token string) (user.User, error) {
	if token == "" {
		return user.User{}, user.ErrNotFound
	}

	return r.getOne(ctx, "users.mark_verified",
		`UPDATE users SET verified = TRUE, verification_token = '', updated_at = NOW()
		WHERE verification_token = $1 AND verified = FALSE
		RETURNING `+userColumns, token)
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, args ...any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		err := scanUser(r.pool.QueryRow(ctx, query, args...), &u)
		if errors.Is(err, pgx.ErrNoRows) {
			// absence is an answer, not a store failure
			return nil
		}
		return err
	})

	if err != nil {
		return user.User{}, err
	}

	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) exec(ctx context.Context, op, query string, args ...any) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB(op, func() error {
		var err error
		tag, err = r.pool.Exec(ctx, query, args...)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}

func scanUser(row pgx.Row, u *user.User) error {
	var (
		sub   string
		token *string
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&sub,
		&token,
		&u.Verified,
		&u.VerificationToken,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		*u = user.User{}
		return err
	}

	u.Subscription = user.Subscription(sub)
	if token != nil {
		u.Token = *token
	}

	return nil
}
