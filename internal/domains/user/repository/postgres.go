package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/user/model"
	"library-backend/pkg/database"
)

const userColumns = `id, username, password_hash, user_type, user_number, photo_key, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.UserType,
		&u.UserNumber,
		&u.PhotoKey,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, user_type, user_number, photo_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.UserType, u.UserNumber, u.PhotoKey,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *postgresRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *postgresRepository) getBy(ctx context.Context, column string, value interface{}) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, query, value))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, nil
}

func (r *postgresRepository) ListByType(ctx context.Context, role model.Role, limit, offset int) ([]model.User, int, error) {
	conn := database.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE user_type = $1`, role).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE user_type = $1
		ORDER BY username
		LIMIT $2 OFFSET $3
	`, role, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *postgresRepository) UpdatePhoto(ctx context.Context, id uuid.UUID, key string) (*string, error) {
	var previous *string
	err := database.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE users u SET photo_key = $2, updated_at = NOW()
		FROM (SELECT id, photo_key FROM users WHERE id = $1 FOR UPDATE) prev
		WHERE u.id = prev.id
		RETURNING prev.photo_key
	`, id, key).Scan(&previous)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user photo: %w", err)
	}
	return previous, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrUserNotFound
		}
		if database.IsForeignKeyViolation(err) {
			return nil, model.ErrUserInUse
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return u, nil
}
