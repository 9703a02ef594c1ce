package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/donation/model"
	"library-backend/pkg/database"
)

var donationColumns = []interface{}{
	"donation_id", "user_id", "book_title", "book_author", "book_condition", "category",
	"publication_year", "photo_key", "donation_status", "book_id", "donation_date", "updated_at",
}

const donationColumnList = `donation_id, user_id, book_title, book_author, book_condition, category,
	publication_year, photo_key, donation_status, book_id, donation_date, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanDonation(row pgx.Row) (*model.Donation, error) {
	var d model.Donation
	err := row.Scan(
		&d.DonationID,
		&d.UserID,
		&d.BookTitle,
		&d.BookAuthor,
		&d.Condition,
		&d.Category,
		&d.PublicationYear,
		&d.PhotoKey,
		&d.Status,
		&d.BookID,
		&d.DonationDate,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *postgresRepository) Create(ctx context.Context, d *model.Donation) error {
	query := `
		INSERT INTO donations (
			user_id, book_title, book_author, book_condition, category,
			publication_year, photo_key, donation_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING donation_id, donation_date, updated_at
	`
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		d.UserID, d.BookTitle, d.BookAuthor, d.Condition, d.Category,
		d.PublicationYear, d.PhotoKey, d.Status,
	).Scan(&d.DonationID, &d.DonationDate, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Donation, error) {
	return r.get(ctx, id, "")
}

func (r *postgresRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Donation, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *postgresRepository) get(ctx context.Context, id int64, lock string) (*model.Donation, error) {
	query := `SELECT ` + donationColumnList + ` FROM donations WHERE donation_id = $1` + lock
	d, err := scanDonation(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrDonationNotFound
		}
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) Transition(ctx context.Context, id int64, from, to model.Status, bookID *int64) (*model.Donation, error) {
	query := `
		UPDATE donations
		SET donation_status = $3,
			book_id = COALESCE($4, book_id),
			updated_at = NOW()
		WHERE donation_id = $1 AND donation_status = $2
		RETURNING ` + donationColumnList

	d, err := scanDonation(database.Conn(ctx, r.pool).QueryRow(ctx, query, id, from, to, bookID))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrNotPending
		}
		return nil, fmt.Errorf("transition donation: %w", err)
	}
	return d, nil
}

func buildListQuery(req model.ListRequest) (*goqu.SelectDataset, *goqu.SelectDataset) {
	ds := database.Dialect.From("donations")
	if req.Status != "" {
		ds = ds.Where(goqu.C("donation_status").Eq(string(req.Status)))
	}
	if req.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(req.UserID.String()))
	}

	count := ds.Select(goqu.COUNT("*"))
	page := database.Page(
		ds.Select(donationColumns...).Order(goqu.C("donation_date").Desc(), goqu.C("donation_id").Desc()),
		req.Limit, req.Offset(),
	)
	return page, count
}

func (r *postgresRepository) List(ctx context.Context, req model.ListRequest) ([]model.Donation, int, error) {
	pageDS, countDS := buildListQuery(req)
	db := database.Conn(ctx, r.pool)

	countSQL, countArgs, err := database.ToSQL(countDS)
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}

	pageSQL, pageArgs, err := database.ToSQL(pageDS)
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	out := make([]model.Donation, 0, req.Limit)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM donations WHERE donation_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDonationNotFound
	}
	return nil
}
