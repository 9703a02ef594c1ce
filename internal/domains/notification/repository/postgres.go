package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/notification/model"
	"library-backend/pkg/database"
)

const notificationColumns = `id, user_id, message, status, type, COALESCE(reference_id, ''),
	book_name, author, category, publish_year, book_photo,
	is_read, read_at, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var n model.Notification
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Message,
		&n.Status,
		&n.Type,
		&n.ReferenceID,
		&n.Book.Name,
		&n.Book.Author,
		&n.Book.Category,
		&n.Book.PublishYear,
		&n.Book.Photo,
		&n.IsRead,
		&n.ReadAt,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *postgresRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, message, status, type, reference_id,
			book_name, author, category, publish_year, book_photo,
			is_read, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, FALSE, $12, $13)
	`
	_, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		n.ID, n.UserID, n.Message, n.Status, n.Type, n.ReferenceID,
		n.Book.Name, n.Book.Author, n.Book.Category, n.Book.PublishYear, n.Book.Photo,
		n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	return r.get(ctx, id, "")
}

func (r *postgresRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *postgresRepository) get(ctx context.Context, id uuid.UUID, lock string) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1` + lock
	n, err := scanNotification(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, statuses []model.Status) ([]model.Notification, error) {
	wanted := make([]string, len(statuses))
	for i, s := range statuses {
		wanted[i] = string(s)
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
	`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, userID, wanted)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *postgresRepository) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $3), updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID, at)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotificationNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.Status) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE notifications SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("update notification status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotWaiting
	}
	return nil
}

// DeleteReadBefore keeps waiting notifications, which are still claimable
// for a delivery, and notifications a delivery references.
func (r *postgresRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM notifications n
		WHERE n.is_read AND n.read_at < $1
		  AND n.status <> $2
		  AND NOT EXISTS (SELECT 1 FROM deliveries d WHERE d.notification_id = n.id)
	`, cutoff, string(model.StatusWaiting))
	if err != nil {
		return 0, fmt.Errorf("delete read notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
