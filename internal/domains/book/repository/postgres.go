package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/book/model"
	"library-backend/pkg/database"
)

const bookColumns = `book_id, title, author, category, publication_year,
	total_copies, available_copies, photo_key, version, created_at, updated_at`

var bookSelectColumns = []interface{}{
	"book_id", "title", "author", "category", "publication_year",
	"total_copies", "available_copies", "photo_key", "version", "created_at", "updated_at",
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) db(ctx context.Context) database.DBTX {
	return database.Conn(ctx, r.pool)
}

func scanBook(row pgx.Row, extra ...any) (*model.Book, error) {
	var b model.Book
	dest := []any{
		&b.BookID,
		&b.Title,
		&b.Author,
		&b.Category,
		&b.PublicationYear,
		&b.TotalCopies,
		&b.AvailableCopies,
		&b.PhotoKey,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

// ============================================
// LEDGER
// ============================================

func (r *postgresRepository) UpsertByTuple(ctx context.Context, t model.Tuple, qty int, photoKey *string) (*model.Book, bool, error) {
	// xmax is 0 only for a freshly inserted row version.
	query := `
		INSERT INTO books (
			title, author, category, publication_year,
			total_copies, available_copies, photo_key
		) VALUES ($1, $2, $3, $4, $5, $5, $6)
		ON CONFLICT ON CONSTRAINT books_tuple_key DO UPDATE SET
			total_copies     = books.total_copies + EXCLUDED.total_copies,
			available_copies = books.available_copies + EXCLUDED.available_copies,
			photo_key        = COALESCE(EXCLUDED.photo_key, books.photo_key),
			updated_at       = NOW()
		RETURNING ` + bookColumns + `, (xmax = 0) AS inserted
	`

	var inserted bool
	b, err := scanBook(r.db(ctx).QueryRow(ctx, query,
		t.Title, t.Author, t.Category, t.PublicationYear, qty, photoKey,
	), &inserted)
	if err != nil {
		if database.IsCheckViolation(err) {
			return nil, false, model.ErrTotalBelowLentOut
		}
		return nil, false, fmt.Errorf("upsert book: %w", err)
	}
	return b, inserted, nil
}

func (r *postgresRepository) DecrementAvailable(ctx context.Context, bookID int64) (*model.Book, error) {
	query := `
		UPDATE books
		SET available_copies = available_copies - 1,
			updated_at = NOW()
		WHERE book_id = $1 AND available_copies > 0
		RETURNING ` + bookColumns

	b, err := scanBook(r.db(ctx).QueryRow(ctx, query, bookID))
	if err == nil {
		return b, nil
	}
	if !database.IsNoRows(err) {
		return nil, fmt.Errorf("decrement available copies: %w", err)
	}

	// Nothing matched: either the book is missing or it has no copy left.
	if _, err := r.GetByID(ctx, bookID); err != nil {
		return nil, err
	}
	return nil, model.ErrBookNotAvailable
}

func (r *postgresRepository) IncrementAvailable(ctx context.Context, bookID int64) (*model.Book, bool, error) {
	query := `
		WITH prev AS (
			SELECT book_id, available_copies
			FROM books
			WHERE book_id = $1
			FOR UPDATE
		)
		UPDATE books
		SET available_copies = LEAST(books.available_copies + 1, books.total_copies),
			updated_at = NOW()
		FROM prev
		WHERE books.book_id = prev.book_id
		RETURNING books.book_id, books.title, books.author, books.category, books.publication_year,
			books.total_copies, books.available_copies, books.photo_key, books.version,
			books.created_at, books.updated_at, prev.available_copies
	`

	var before int
	b, err := scanBook(r.db(ctx).QueryRow(ctx, query, bookID), &before)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, false, model.ErrBookNotFound
		}
		return nil, false, fmt.Errorf("increment available copies: %w", err)
	}
	return b, b.AvailableCopies == before, nil
}

func (r *postgresRepository) CreateMovement(ctx context.Context, m *model.Movement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO book_movements (
			id, book_id, movement_type, quantity_delta,
			available_after, total_after,
			reference_type, reference_id, note, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10)
	`
	_, err := r.db(ctx).Exec(ctx, query,
		m.ID,
		m.BookID,
		m.Type,
		m.QuantityDelta,
		m.AvailableAfter,
		m.TotalAfter,
		m.ReferenceType,
		m.ReferenceID,
		m.Note,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log book movement: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListMovements(ctx context.Context, bookID int64, limit int) ([]model.Movement, error) {
	query := `
		SELECT id, book_id, movement_type, quantity_delta, available_after, total_after,
			COALESCE(reference_type, ''), COALESCE(reference_id, ''), COALESCE(note, ''), created_at
		FROM book_movements
		WHERE book_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db(ctx).Query(ctx, query, bookID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]model.Movement, 0)
	for rows.Next() {
		var m model.Movement
		if err := rows.Scan(
			&m.ID, &m.BookID, &m.Type, &m.QuantityDelta, &m.AvailableAfter, &m.TotalAfter,
			&m.ReferenceType, &m.ReferenceID, &m.Note, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ============================================
// CATALOG
// ============================================

func (r *postgresRepository) GetByID(ctx context.Context, bookID int64) (*model.Book, error) {
	return r.getByID(ctx, bookID, false)
}

func (r *postgresRepository) GetByIDForUpdate(ctx context.Context, bookID int64) (*model.Book, error) {
	return r.getByID(ctx, bookID, true)
}

func (r *postgresRepository) getByID(ctx context.Context, bookID int64, lock bool) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE book_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	b, err := scanBook(r.db(ctx).QueryRow(ctx, query, bookID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// buildListQuery returns the page query and the matching count query.
func buildListQuery(req model.ListBooksRequest) (*goqu.SelectDataset, *goqu.SelectDataset) {
	ds := database.Dialect.From("books")

	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
		))
	}
	if req.Author != "" {
		ds = ds.Where(goqu.C("author").ILike("%" + req.Author + "%"))
	}
	if req.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(req.Category))
	}
	switch req.Status {
	case model.StatusAvailable:
		ds = ds.Where(goqu.C("available_copies").Gt(0))
	case model.StatusBorrowed:
		ds = ds.Where(goqu.C("available_copies").Eq(0))
	}

	count := ds.Select(goqu.COUNT("*"))
	page := database.Page(
		ds.Select(bookSelectColumns...).Order(goqu.C("book_id").Asc()),
		req.Limit, req.Offset(),
	)
	return page, count
}

func (r *postgresRepository) List(ctx context.Context, req model.ListBooksRequest) ([]model.Book, int, error) {
	pageDS, countDS := buildListQuery(req)

	countSQL, countArgs, err := database.ToSQL(countDS)
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.db(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	pageSQL, pageArgs, err := database.ToSQL(pageDS)
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.db(ctx).Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := make([]model.Book, 0, req.Limit)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return books, total, nil
}

// Update writes metadata and counts guarded by the version column.
func (r *postgresRepository) Update(ctx context.Context, b *model.Book) error {
	query := `
		UPDATE books SET
			title = $3,
			author = $4,
			category = $5,
			publication_year = $6,
			total_copies = $7,
			available_copies = $8,
			version = version + 1,
			updated_at = NOW()
		WHERE book_id = $1 AND version = $2
		RETURNING version, updated_at
	`
	err := r.db(ctx).QueryRow(ctx, query,
		b.BookID, b.Version,
		b.Title, b.Author, b.Category, b.PublicationYear,
		b.TotalCopies, b.AvailableCopies,
	).Scan(&b.Version, &b.UpdatedAt)

	switch {
	case err == nil:
		return nil
	case database.IsNoRows(err):
		return model.ErrVersionConflict
	case database.IsUniqueViolation(err):
		return model.ErrDuplicateBook
	case database.IsCheckViolation(err):
		return model.ErrTotalBelowLentOut
	default:
		return fmt.Errorf("update book: %w", err)
	}
}

func (r *postgresRepository) UpdatePhoto(ctx context.Context, bookID int64, key string) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE books SET photo_key = $2, updated_at = NOW() WHERE book_id = $1`,
		bookID, key,
	)
	if err != nil {
		return fmt.Errorf("update book photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, bookID int64) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM books WHERE book_id = $1`, bookID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return model.ErrBookInUse
		}
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}
	return nil
}

func (r *postgresRepository) HasActiveBorrowings(ctx context.Context, bookID int64) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM borrowings
			WHERE book_id = $1 AND borrowing_status IN ('pending', 'borrowed')
		)`, bookID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active borrowings: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) PhotoReferenced(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM donations WHERE photo_key = $1)
			OR EXISTS(SELECT 1 FROM books WHERE photo_key = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check photo references: %w", err)
	}
	return exists, nil
}

func buildCategoryQuery() *goqu.SelectDataset {
	return database.Dialect.From("books").
		Select(
			goqu.C("category"),
			goqu.COUNT("*"),
			goqu.COALESCE(goqu.SUM("total_copies"), 0),
			goqu.COALESCE(goqu.SUM("available_copies"), 0),
		).
		GroupBy(goqu.C("category")).
		Order(goqu.C("category").Asc())
}

func (r *postgresRepository) Categories(ctx context.Context) ([]model.CategorySummary, error) {
	query, args, err := database.ToSQL(buildCategoryQuery())
	if err != nil {
		return nil, fmt.Errorf("build category query: %w", err)
	}
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]model.CategorySummary, 0)
	for rows.Next() {
		var c model.CategorySummary
		if err := rows.Scan(&c.Category, &c.Titles, &c.TotalCopies, &c.AvailableCopies); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
