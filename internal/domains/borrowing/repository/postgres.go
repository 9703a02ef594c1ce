package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/borrowing/model"
	"library-backend/pkg/database"
)

// book_id is cleared when the book is deleted; it reads back as 0.
const borrowingColumns = `borrowing_id, COALESCE(book_id, 0), user_id, borrow_date, due_date,
	return_date, borrowing_status, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanBorrowing(row pgx.Row, extra ...any) (*model.Borrowing, error) {
	var b model.Borrowing
	dest := []any{
		&b.BorrowingID,
		&b.BookID,
		&b.UserID,
		&b.BorrowDate,
		&b.DueDate,
		&b.ReturnDate,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *postgresRepository) Create(ctx context.Context, b *model.Borrowing) error {
	query := `
		INSERT INTO borrowings (
			borrowing_id, book_id, user_id, borrow_date, due_date,
			return_date, borrowing_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		b.BorrowingID,
		b.BookID,
		b.UserID,
		b.BorrowDate,
		b.DueDate,
		b.ReturnDate,
		b.Status,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert borrowing: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*model.Borrowing, error) {
	return r.get(ctx, id, "")
}

func (r *postgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.Borrowing, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *postgresRepository) get(ctx context.Context, id, lock string) (*model.Borrowing, error) {
	query := `SELECT ` + borrowingColumns + ` FROM borrowings WHERE borrowing_id = $1` + lock

	b, err := scanBorrowing(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrBorrowingNotFound
		}
		return nil, fmt.Errorf("get borrowing: %w", err)
	}
	return b, nil
}

func (r *postgresRepository) Transition(ctx context.Context, id string, from, to model.Status, returnDate *time.Time) (*model.Borrowing, error) {
	query := `
		UPDATE borrowings
		SET borrowing_status = $3,
			return_date = COALESCE($4, return_date),
			updated_at = NOW()
		WHERE borrowing_id = $1 AND borrowing_status = $2
		RETURNING ` + borrowingColumns

	b, err := scanBorrowing(database.Conn(ctx, r.pool).QueryRow(ctx, query, id, from, to, returnDate))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrNotPending
		}
		return nil, fmt.Errorf("transition borrowing: %w", err)
	}
	return b, nil
}

// buildListQuery joins books for the title and author shown in listings.
// History of a deleted book is still listed, with empty book fields.
func buildListQuery(req model.ListRequest) (*goqu.SelectDataset, *goqu.SelectDataset) {
	ds := database.Dialect.From(goqu.T("borrowings").As("br")).
		LeftJoin(goqu.T("books").As("b"), goqu.On(goqu.I("b.book_id").Eq(goqu.I("br.book_id"))))

	if req.Status != "" {
		ds = ds.Where(goqu.I("br.borrowing_status").Eq(string(req.Status)))
	}
	if req.UserID != nil {
		ds = ds.Where(goqu.I("br.user_id").Eq(*req.UserID))
	}
	if req.Overdue {
		ds = ds.Where(
			goqu.I("br.borrowing_status").Eq(string(model.StatusBorrowed)),
			goqu.I("br.due_date").Lt(req.Now),
		)
	}

	count := ds.Select(goqu.COUNT("*"))
	page := database.Page(
		ds.Select(
			"br.borrowing_id", goqu.COALESCE(goqu.I("br.book_id"), 0), "br.user_id", "br.borrow_date", "br.due_date",
			"br.return_date", "br.borrowing_status", "br.created_at", "br.updated_at",
			goqu.COALESCE(goqu.I("b.title"), ""), goqu.COALESCE(goqu.I("b.author"), ""),
		).Order(goqu.I("br.borrow_date").Desc()),
		req.Limit, req.Offset(),
	)
	return page, count
}

func (r *postgresRepository) List(ctx context.Context, req model.ListRequest) ([]model.BorrowingDetail, int, error) {
	pageDS, countDS := buildListQuery(req)
	db := database.Conn(ctx, r.pool)

	countSQL, countArgs, err := database.ToSQL(countDS)
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count borrowings: %w", err)
	}

	pageSQL, pageArgs, err := database.ToSQL(pageDS)
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list borrowings: %w", err)
	}
	defer rows.Close()

	out := make([]model.BorrowingDetail, 0, req.Limit)
	for rows.Next() {
		var d model.BorrowingDetail
		b, err := scanBorrowing(rows, &d.BookTitle, &d.BookAuthor)
		if err != nil {
			return nil, 0, fmt.Errorf("scan borrowing: %w", err)
		}
		d.Borrowing = *b
		d.Overdue = b.IsOverdue(req.Now)
		out = append(out, d)
	}
	return out, total, rows.Err()
}
