package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/contacts/internal/domain/contact"
	"github.com/geocoder89/contacts/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contactColumns = `id, owner_id, name, email, phone, favorite, created_at, updated_at`

// ContactsRepo scopes every statement by owner_id. Mutations match id and
// owner in the same statement that writes, so there is no read-then-write gap.
type ContactsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewContactsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ContactsRepo {
	return &ContactsRepo{pool: pool, prom: prom}
}

func (r *ContactsRepo) Create(ctx context.Context, owner string, req contact.CreateContactRequest) (contact.Contact, error) {
	c := contact.NewFromCreateRequest(owner, req)

	err := r.prom.ObserveDB("contacts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO contacts (id, owner_id, name, email, phone, favorite, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.Owner, c.Name, c.Email, c.Phone, c.Favorite, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return contact.Contact{}, contact.ErrPhoneTaken
		}
		return contact.Contact{}, err
	}

	return c, nil
}

func (r *ContactsRepo) List(ctx context.Context, owner string, filter contact.ListFilter) ([]contact.Contact, int, error) {
	conds := []string{"owner_id = $1"}
	args := []interface{}{owner}

	argsPosition := 2

	if filter.Favorite != nil {
		conds = append(conds, fmt.Sprintf("favorite = $%d", argsPosition))
		args = append(args, *filter.Favorite)
		argsPosition++
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	// stable ordering for pagination
	query := `SELECT ` + contactColumns + `, COUNT(*) OVER() AS total FROM contacts` + where +
		fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	output := make([]contact.Contact, 0, filter.Limit)
	total := 0

	err := r.prom.ObserveDB("contacts.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c contact.Contact
			var t int

			err = rows.Scan(&c.ID, &c.Owner, &c.Name, &c.Email, &c.Phone, &c.Favorite, &c.CreatedAt, &c.UpdatedAt, &t)
			if err != nil {
				return err
			}

			total = t
			output = append(output, c)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	// an offset past the end yields no rows, so the window count is unavailable
	if len(output) == 0 && filter.Offset > 0 {
		total, err = r.count(ctx, where, args[:len(args)-2])
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *ContactsRepo) count(ctx context.Context, where string, args []interface{}) (int, error) {
	var total int

	err := r.prom.ObserveDB("contacts.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`+where, args...).Scan(&total)
	})

	return total, err
}

func (r *ContactsRepo) GetByID(ctx context.Context, owner, id string) (contact.Contact, error) {
	return r.one(ctx, "contacts.get_by_id",
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND owner_id = $2`, id, owner)
}

func (r *ContactsRepo) Update(ctx context.Context, owner, id string, req contact.UpdateContactRequest) (contact.Contact, error) {
	c, err := r.one(ctx, "contacts.update",
		`UPDATE contacts
			SET name = $3,
				email = $4,
				phone = $5,
				favorite = COALESCE($6, favorite),
				updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+contactColumns,
		id, owner, req.Name, req.Email, req.Phone, req.Favorite,
	)

	if err != nil && IsUniqueViolation(err) {
		return contact.Contact{}, contact.ErrPhoneTaken
	}

	return c, err
}

func (r *ContactsRepo) UpdateFavorite(ctx context.Context, owner, id string, favorite bool) (contact.Contact, error) {
	return r.one(ctx, "contacts.update_favorite",
		`UPDATE contacts SET favorite = $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+contactColumns, id, owner, favorite)
}

// Delete removes the contact and returns its prior state.
func (r *ContactsRepo) Delete(ctx context.Context, owner, id string) (contact.Contact, error) {
	return r.one(ctx, "contacts.delete",
		`DELETE FROM contacts WHERE id = $1 AND owner_id = $2
		RETURNING `+contactColumns, id, owner)
}

func (r *ContactsRepo) one(ctx context.Context, op, query string, args ...any) (contact.Contact, error) {
	var c contact.Contact
	found := true

	err := r.prom.ObserveDB(op, func() error {
		err := r.pool.QueryRow(ctx, query, args...).Scan(
			&c.ID,
			&c.Owner,
			&c.Name,
			&c.Email,
			&c.Phone,
			&c.Favorite,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			found = false
			return nil
		}
		return err
	})

	if err != nil {
		return contact.Contact{}, err
	}

	if !found {
		return contact.Contact{}, contact.ErrNotFound
	}

	return c, nil
}
