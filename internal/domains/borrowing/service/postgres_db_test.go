package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookmodel "library-backend/internal/domains/book/model"
	bookrepository "library-backend/internal/domains/book/repository"
	bookservice "library-backend/internal/domains/book/service"
	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/repository"
	"library-backend/internal/domains/notification/notificationtest"
	notificationservice "library-backend/internal/domains/notification/service"
	"library-backend/internal/testutil"
	"library-backend/internal/testutil/pgtest"
	"library-backend/pkg/database"
)

type dbFixture struct {
	svc     *BorrowingService
	pool    *pgxpool.Pool
	repo    repository.Repository
	books   bookrepository.Repository
	catalog *bookservice.BookService
}

func newDBFixture(t *testing.T) *dbFixture {
	pool := pgtest.Pool(t)
	books := bookrepository.NewPostgresRepository(pool)
	repo := repository.NewPostgresRepository(pool)
	tx := database.NewTransactor(pool)
	c := testutil.NewCache()
	ledger := bookservice.NewLedgerService(books, tx, c)
	catalog := bookservice.NewService(books, ledger, tx, c, testutil.NewPhotos(), &testutil.Jobs{})
	notifier := notificationservice.NewService(notificationtest.NewRepository(), c, nil, catalog)

	return &dbFixture{
		svc:     NewService(repo, ledger, catalog, notifier, tx),
		pool:    pool,
		repo:    repo,
		books:   books,
		catalog: catalog,
	}
}

func (f *dbFixture) available(t *testing.T, bookID int64) int {
	t.Helper()
	b, err := f.books.GetByID(context.Background(), bookID)
	require.NoError(t, err)
	return b.AvailableCopies
}

func dueIn(d time.Duration) model.BorrowRequest {
	due := time.Now().Add(d)
	return model.BorrowRequest{DueDate: &due}
}

func TestPostgres_RequestBorrow_LastCopyRace(t *testing.T) {
	f := newDBFixture(t)
	ctx := context.Background()
	bookID := pgtest.CreateBook(t, f.pool, 1, 1)
	req := dueIn(14 * 24 * time.Hour)
	req.BookID = bookID

	const workers = 6
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		user := pgtest.CreateUser(t, f.pool)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.RequestBorrow(ctx, user, req)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, bookmodel.ErrBookNotAvailable)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.available(t, bookID))

	var rows int
	require.NoError(t, f.pool.QueryRow(ctx,
		`SELECT count(*) FROM borrowings WHERE book_id = $1`, bookID).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestPostgres_RequestBorrow_InsertFailureRollsBack(t *testing.T) {
	f := newDBFixture(t)
	ctx := context.Background()
	bookID := pgtest.CreateBook(t, f.pool, 1, 1)
	req := dueIn(14 * 24 * time.Hour)
	req.BookID = bookID

	// No such user, so the borrowing insert fails after the decrement.
	_, err := f.svc.RequestBorrow(ctx, uuid.New(), req)

	require.Error(t, err)
	assert.Equal(t, 1, f.available(t, bookID))

	var movements int
	require.NoError(t, f.pool.QueryRow(ctx,
		`SELECT count(*) FROM book_movements WHERE book_id = $1`, bookID).Scan(&movements))
	assert.Zero(t, movements)
}

func TestPostgres_AcceptBorrow_Twice(t *testing.T) {
	f := newDBFixture(t)
	ctx := context.Background()
	bookID := pgtest.CreateBook(t, f.pool, 1, 1)
	req := dueIn(14 * 24 * time.Hour)
	req.BookID = bookID
	b, err := f.svc.RequestBorrow(ctx, pgtest.CreateUser(t, f.pool), req)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.AcceptBorrow(ctx, b.BorrowingID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, model.ErrNotPending)
	}
	assert.Equal(t, 1, succeeded)

	_, err = f.svc.AcceptBorrow(ctx, b.BorrowingID)
	assert.ErrorIs(t, err, model.ErrNotPending)

	stored, err := f.repo.GetByID(ctx, b.BorrowingID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBorrowed, stored.Status)
	assert.Equal(t, 0, f.available(t, bookID))
}

func TestPostgres_DeleteBook_KeepsClosedHistory(t *testing.T) {
	f := newDBFixture(t)
	ctx := context.Background()
	bookID := pgtest.CreateBook(t, f.pool, 1, 1)
	req := dueIn(14 * 24 * time.Hour)
	req.BookID = bookID
	b, err := f.svc.RequestBorrow(ctx, pgtest.CreateUser(t, f.pool), req)
	require.NoError(t, err)

	assert.ErrorIs(t, f.catalog.DeleteBook(ctx, bookID), bookmodel.ErrBookInUse)

	_, err = f.svc.RejectBorrow(ctx, b.BorrowingID)
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteBook(ctx, bookID))

	stored, err := f.repo.GetByID(ctx, b.BorrowingID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, stored.Status)
	assert.Zero(t, stored.BookID)
}
