package service

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/book/booktest"
	"library-backend/internal/domains/book/model"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/testutil"
)

type fixture struct {
	svc    *BookService
	repo   *booktest.Repository
	cache  *testutil.Cache
	photos *testutil.Photos
	jobs   *testutil.Jobs
}

func newFixture() *fixture {
	repo := booktest.NewRepository()
	c := testutil.NewCache()
	tx := &testutil.Transactor{}
	f := &fixture{
		repo:   repo,
		cache:  c,
		photos: testutil.NewPhotos(),
		jobs:   &testutil.Jobs{},
	}
	f.svc = NewService(repo, NewLedgerService(repo, tx, c), tx, c, f.photos, f.jobs)
	return f
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestCreateBook_DuplicateTupleIncrements(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	req := model.CreateBookRequest{Title: "Dune", Author: "Frank Herbert", Category: "Sci-Fi", PublicationYear: 1965, Copies: 2}

	first, err := f.svc.CreateBook(ctx, req, nil)
	require.NoError(t, err)
	second, err := f.svc.CreateBook(ctx, req, nil)
	require.NoError(t, err)

	assert.Equal(t, first.BookID, second.BookID)
	assert.Equal(t, 4, second.TotalCopies)
	assert.Equal(t, 4, second.AvailableCopies)
	assert.Equal(t, model.StatusAvailable, second.Status)
}

func TestCreateBook_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateBook(context.Background(), model.CreateBookRequest{Title: "No author"}, nil)

	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, 0, f.repo.Len())
}

func TestCreateBook_WithPhoto(t *testing.T) {
	f := newFixture()
	req := model.CreateBookRequest{Title: "Dune", Author: "Frank Herbert", Category: "Sci-Fi", PublicationYear: 1965}

	resp, err := f.svc.CreateBook(context.Background(), req, []byte("jpeg"))

	require.NoError(t, err)
	assert.Equal(t, model.PhotoPath(resp.BookID), resp.PhotoURL)
	assert.Len(t, f.photos.Objects, 1)
}

func TestCreateBook_InvalidPhoto(t *testing.T) {
	f := newFixture()
	req := model.CreateBookRequest{Title: "Dune", Author: "Frank Herbert", Category: "Sci-Fi", PublicationYear: 1965}

	_, err := f.svc.CreateBook(context.Background(), req, testutil.InvalidPhoto)

	assert.ErrorIs(t, err, model.ErrInvalidPhoto)
	assert.Equal(t, 0, f.repo.Len())
}

func TestGetBook_CachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.Seed(model.Book{BookID: 7, Title: "Dune", TotalCopies: 2, AvailableCopies: 2})

	got, err := f.svc.GetBook(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableCopies)
	assert.True(t, f.cache.Has(detailCacheKey(7)))

	_, err = f.svc.ledger.DecrementAvailable(ctx, 7, model.Reference{})
	require.NoError(t, err)

	got, err = f.svc.GetBook(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)
}

func TestGetBook_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetBook(context.Background(), 1)

	assert.ErrorIs(t, err, model.ErrBookNotFound)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestListBooks_StatusFilter(t *testing.T) {
	f := newFixture()
	f.repo.Seed(model.Book{BookID: 1, Title: "A", TotalCopies: 1, AvailableCopies: 1})
	f.repo.Seed(model.Book{BookID: 2, Title: "B", TotalCopies: 1, AvailableCopies: 0})

	resp, err := f.svc.ListBooks(context.Background(), model.ListBooksRequest{Status: model.StatusBorrowed})

	require.NoError(t, err)
	require.Len(t, resp.Books, 1)
	assert.Equal(t, int64(2), resp.Books[0].BookID)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
}

func TestListBooks_InvalidStatus(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ListBooks(context.Background(), model.ListBooksRequest{Status: "lost"})

	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestUpdateBook(t *testing.T) {
	tests := []struct {
		name      string
		req       model.UpdateBookRequest
		wantErr   error
		wantTotal int
		wantAvail int
	}{
		{
			name:      "raise total keeps lent out copies",
			req:       model.UpdateBookRequest{TotalCopies: intPtr(5), Version: 1},
			wantTotal: 5,
			wantAvail: 4,
		},
		{
			name:      "lower total down to lent out",
			req:       model.UpdateBookRequest{TotalCopies: intPtr(1), Version: 1},
			wantTotal: 1,
			wantAvail: 0,
		},
		{
			name:    "total below lent out",
			req:     model.UpdateBookRequest{TotalCopies: intPtr(0), Version: 1},
			wantErr: model.ErrTotalBelowLentOut,
		},
		{
			name:    "stale version",
			req:     model.UpdateBookRequest{Title: strPtr("Dune Messiah"), Version: 3},
			wantErr: model.ErrVersionConflict,
		},
		{
			name:      "metadata only",
			req:       model.UpdateBookRequest{Title: strPtr(" Dune Messiah "), Version: 1},
			wantTotal: 3,
			wantAvail: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.repo.Seed(model.Book{
				BookID: 7, Title: "Dune", Author: "Frank Herbert", Category: "Sci-Fi",
				PublicationYear: 1965, TotalCopies: 3, AvailableCopies: 2, Version: 1,
			})

			resp, err := f.svc.UpdateBook(context.Background(), 7, tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, resp.TotalCopies)
			assert.Equal(t, tt.wantAvail, resp.AvailableCopies)
			assert.Equal(t, 2, resp.Version)
			if tt.req.Title != nil {
				assert.Equal(t, "Dune Messiah", resp.Title)
			}
		})
	}
}

func TestUpdateBook_RecordsAdjustment(t *testing.T) {
	f := newFixture()
	f.repo.Seed(model.Book{BookID: 7, Title: "Dune", TotalCopies: 3, AvailableCopies: 3, Version: 1})

	_, err := f.svc.UpdateBook(context.Background(), 7, model.UpdateBookRequest{TotalCopies: intPtr(1), Version: 1})

	require.NoError(t, err)
	movements := f.repo.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementAdjustment, movements[0].Type)
	assert.Equal(t, -2, movements[0].QuantityDelta)
}

func TestDeleteBook(t *testing.T) {
	t.Run("refused while borrowed", func(t *testing.T) {
		f := newFixture()
		f.repo.Seed(model.Book{BookID: 7, TotalCopies: 1})
		f.repo.ActiveBorrowings[7] = true

		err := f.svc.DeleteBook(context.Background(), 7)

		assert.ErrorIs(t, err, model.ErrBookInUse)
		assert.Equal(t, 1, f.repo.Len())
	})

	t.Run("removes book and schedules photo deletion", func(t *testing.T) {
		f := newFixture()
		f.repo.Seed(model.Book{BookID: 7, TotalCopies: 1, PhotoKey: strPtr("books/7.jpg")})

		err := f.svc.DeleteBook(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, 0, f.repo.Len())
		assert.Equal(t, []string{"books/7.jpg"}, f.jobs.Deleted)
	})

	t.Run("keeps photo a donation still holds", func(t *testing.T) {
		f := newFixture()
		f.repo.Seed(model.Book{BookID: 7, TotalCopies: 1, PhotoKey: strPtr("donations/3.jpg")})
		f.repo.DonationPhotos["donations/3.jpg"] = true

		err := f.svc.DeleteBook(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, 0, f.repo.Len())
		assert.Empty(t, f.jobs.Deleted)
	})

	t.Run("keeps photo another book shares", func(t *testing.T) {
		f := newFixture()
		f.repo.Seed(model.Book{BookID: 7, TotalCopies: 1, PhotoKey: strPtr("books/shared.jpg")})
		f.repo.Seed(model.Book{BookID: 8, TotalCopies: 1, PhotoKey: strPtr("books/shared.jpg")})

		err := f.svc.DeleteBook(context.Background(), 7)

		require.NoError(t, err)
		assert.Empty(t, f.jobs.Deleted)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture()

		err := f.svc.DeleteBook(context.Background(), 7)

		assert.ErrorIs(t, err, model.ErrBookNotFound)
	})
}

func TestUploadPhoto_ReplacesOld(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.Seed(model.Book{BookID: 7, TotalCopies: 1, PhotoKey: strPtr("books/old.jpg")})

	resp, err := f.svc.UploadPhoto(ctx, 7, []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, model.PhotoPath(7), resp.PhotoURL)
	assert.Equal(t, []string{"books/old.jpg"}, f.jobs.Deleted)

	obj, err := f.svc.OpenPhoto(ctx, 7)
	require.NoError(t, err)
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(body))
}

func TestOpenPhoto_NoPhoto(t *testing.T) {
	f := newFixture()
	f.repo.Seed(model.Book{BookID: 7, TotalCopies: 1})

	_, err := f.svc.OpenPhoto(context.Background(), 7)

	assert.ErrorIs(t, err, model.ErrPhotoNotFound)
}

func TestListMovements(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.Seed(model.Book{BookID: 7, TotalCopies: 2, AvailableCopies: 2})
	_, err := f.svc.ledger.DecrementAvailable(ctx, 7, model.Reference{Type: model.RefBorrowing, ID: "x"})
	require.NoError(t, err)

	got, err := f.svc.ListMovements(ctx, 7, 0)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].ReferenceID)

	_, err = f.svc.ListMovements(ctx, 8, 10)
	assert.ErrorIs(t, err, model.ErrBookNotFound)
}

func TestCategories_CachedUntilLedgerChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.Seed(model.Book{BookID: 1, Title: "Dune", Category: "Sci-Fi", TotalCopies: 2, AvailableCopies: 2})
	f.repo.Seed(model.Book{BookID: 2, Title: "Emma", Category: "Classics", TotalCopies: 1, AvailableCopies: 0})
	f.repo.Seed(model.Book{BookID: 3, Title: "Solaris", Category: "Sci-Fi", TotalCopies: 1, AvailableCopies: 1})

	got, err := f.svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.CategorySummary{Category: "Classics", Titles: 1, TotalCopies: 1}, got[0])
	assert.Equal(t, model.CategorySummary{Category: "Sci-Fi", Titles: 2, TotalCopies: 3, AvailableCopies: 3}, got[1])
	assert.True(t, f.cache.Has(categoriesCacheKey))

	_, err = f.svc.ledger.DecrementAvailable(ctx, 1, model.Reference{})
	require.NoError(t, err)
	assert.False(t, f.cache.Has(categoriesCacheKey))

	got, err = f.svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got[1].AvailableCopies)
}
