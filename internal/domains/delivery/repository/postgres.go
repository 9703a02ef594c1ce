package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/delivery/model"
	"library-backend/pkg/database"
)

const deliveryColumns = `id, user_id, notification_id, name, address, phone_number, preferred_date,
	latitude, longitude, status, type, COALESCE(reference_id, ''),
	book_name, author, category, publish_year, book_photo,
	delivered_at, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanDelivery(row pgx.Row) (*model.Delivery, error) {
	var d model.Delivery
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.NotificationID,
		&d.Name,
		&d.Address,
		&d.PhoneNumber,
		&d.PreferredDate,
		&d.Latitude,
		&d.Longitude,
		&d.Status,
		&d.Type,
		&d.ReferenceID,
		&d.Book.Name,
		&d.Book.Author,
		&d.Book.Category,
		&d.Book.PublishYear,
		&d.Book.Photo,
		&d.DeliveredAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *postgresRepository) Create(ctx context.Context, d *model.Delivery) error {
	query := `
		INSERT INTO deliveries (
			id, user_id, notification_id, name, address, phone_number, preferred_date,
			latitude, longitude, status, type, reference_id,
			book_name, author, category, publish_year, book_photo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		d.ID, d.UserID, d.NotificationID, d.Name, d.Address, d.PhoneNumber, d.PreferredDate,
		d.Latitude, d.Longitude, d.Status, d.Type, d.ReferenceID,
		d.Book.Name, d.Book.Author, d.Book.Category, d.Book.PublishYear, d.Book.Photo,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrDuplicateDelivery
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	return r.get(ctx, id, "")
}

func (r *postgresRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *postgresRepository) get(ctx context.Context, id uuid.UUID, lock string) (*model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = $1` + lock
	d, err := scanDelivery(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (*model.Delivery, error) {
	query := `
		UPDATE deliveries
		SET status = $2, delivered_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + deliveryColumns
	d, err := scanDelivery(database.Conn(ctx, r.pool).QueryRow(ctx, query,
		id, model.StatusDelivered, at, model.StatusOnTheWay))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrAlreadyDelivered
		}
		return nil, fmt.Errorf("confirm delivery: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	out := make([]model.Delivery, 0)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
