package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookmodel "library-backend/internal/domains/book/model"
	borrowingmodel "library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/notification/model"
	"library-backend/internal/domains/notification/notificationtest"
	"library-backend/internal/testutil"
)

type fakeBorrowings map[string]*borrowingmodel.Borrowing

func (f fakeBorrowings) GetBorrowing(_ context.Context, id string) (*borrowingmodel.Borrowing, error) {
	b, ok := f[id]
	if !ok {
		return nil, borrowingmodel.ErrBorrowingNotFound
	}
	return b, nil
}

type fakeBooks map[int64]*bookmodel.Book

func (f fakeBooks) GetBookByID(_ context.Context, id int64) (*bookmodel.Book, error) {
	b, ok := f[id]
	if !ok {
		return nil, bookmodel.ErrBookNotFound
	}
	return b, nil
}

type fixture struct {
	svc        *NotificationService
	repo       *notificationtest.Repository
	cache      *testutil.Cache
	borrowings fakeBorrowings
	now        time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:       notificationtest.NewRepository(),
		cache:      testutil.NewCache(),
		borrowings: fakeBorrowings{},
		now:        time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	books := fakeBooks{7: {BookID: 7, Title: "Dune", Author: "Frank Herbert", Category: "Sci-Fi", PublicationYear: 1965}}
	f.svc = NewService(f.repo, f.cache, f.borrowings, books)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) emit(t *testing.T, user uuid.UUID, status model.Status) *model.Notification {
	t.Helper()
	n, err := f.svc.Emit(context.Background(), model.Event{
		UserID:  user,
		Message: "hello",
		Status:  status,
		Type:    model.TypeBorrow,
	})
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	return n
}

func TestEmit_RejectsIncompleteEvent(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Emit(context.Background(), model.Event{UserID: uuid.New(), Message: "x", Type: "fax"})
	assert.Error(t, err)
	_, err = f.svc.Emit(context.Background(), model.Event{Message: "x", Type: model.TypeBorrow})
	assert.Error(t, err)
	assert.Empty(t, f.repo.All())
}

func TestListForUser_InboxNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user := uuid.New()

	older := f.emit(t, user, model.StatusWaiting)
	rejected := f.emit(t, user, model.StatusRejected)
	claimed := f.emit(t, user, model.StatusWaiting)
	f.emit(t, uuid.New(), model.StatusWaiting)
	_, err := f.svc.ClaimForDelivery(ctx, user, claimed.ID)
	require.NoError(t, err)

	items, err := f.svc.ListForUser(ctx, user)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, rejected.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
	assert.True(t, f.cache.Has(inboxCacheKey(user)))
}

func TestListForUser_CacheInvalidatedOnEmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user := uuid.New()
	f.emit(t, user, model.StatusWaiting)

	_, err := f.svc.ListForUser(ctx, user)
	require.NoError(t, err)
	require.True(t, f.cache.Has(inboxCacheKey(user)))

	f.emit(t, user, model.StatusWaiting)
	assert.False(t, f.cache.Has(inboxCacheKey(user)))

	items, err := f.svc.ListForUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user := uuid.New()
	n := f.emit(t, user, model.StatusWaiting)

	assert.ErrorIs(t, f.svc.MarkRead(ctx, uuid.New(), n.ID), model.ErrNotificationNotFound)
	require.NoError(t, f.svc.MarkRead(ctx, user, n.ID))

	stored := f.repo.All()[0]
	assert.True(t, stored.IsRead)
	require.NotNil(t, stored.ReadAt)
}

func TestSendOverdue(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	t.Run("overdue borrowing", func(t *testing.T) {
		f := newFixture()
		f.borrowings["b1"] = &borrowingmodel.Borrowing{
			BorrowingID: "b1", BookID: 7, UserID: user,
			DueDate: f.now.Add(-time.Hour), Status: borrowingmodel.StatusBorrowed,
		}

		n, err := f.svc.SendOverdue(ctx, "b1")

		require.NoError(t, err)
		assert.Equal(t, user, n.UserID)
		assert.Equal(t, model.TypeReturn, n.Type)
		assert.Equal(t, model.StatusWaiting, n.Status)
		assert.Equal(t, `Your borrowed book "Dune" is overdue. Please return it as soon as possible.`, n.Message)
		assert.Equal(t, "Dune", n.Book.Name)
		assert.Equal(t, "b1", n.ReferenceID)
	})

	t.Run("not yet due", func(t *testing.T) {
		f := newFixture()
		f.borrowings["b2"] = &borrowingmodel.Borrowing{
			BorrowingID: "b2", BookID: 7, UserID: user,
			DueDate: f.now.Add(time.Hour), Status: borrowingmodel.StatusBorrowed,
		}
		_, err := f.svc.SendOverdue(ctx, "b2")
		assert.ErrorIs(t, err, model.ErrNotOverdue)
	})

	t.Run("already returned", func(t *testing.T) {
		f := newFixture()
		f.borrowings["b3"] = &borrowingmodel.Borrowing{
			BorrowingID: "b3", BookID: 7, UserID: user,
			DueDate: f.now.Add(-time.Hour), Status: borrowingmodel.StatusReturned,
		}
		_, err := f.svc.SendOverdue(ctx, "b3")
		assert.ErrorIs(t, err, model.ErrNotOverdue)
	})

	t.Run("missing borrowing", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.SendOverdue(ctx, "nope")
		assert.ErrorIs(t, err, borrowingmodel.ErrBorrowingNotFound)
	})
}

func TestClaimForDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user := uuid.New()
	waiting := f.emit(t, user, model.StatusWaiting)
	rejected := f.emit(t, user, model.StatusRejected)

	_, err := f.svc.ClaimForDelivery(ctx, uuid.New(), waiting.ID)
	assert.ErrorIs(t, err, model.ErrNotificationNotFound)

	_, err = f.svc.ClaimForDelivery(ctx, user, rejected.ID)
	assert.ErrorIs(t, err, model.ErrNotWaiting)

	n, err := f.svc.ClaimForDelivery(ctx, user, waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFilledIn, n.Status)

	_, err = f.svc.ClaimForDelivery(ctx, user, waiting.ID)
	assert.ErrorIs(t, err, model.ErrNotWaiting)
}

func TestCleanupRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user := uuid.New()
	old := f.emit(t, user, model.StatusRejected)
	fresh := f.emit(t, user, model.StatusRejected)
	f.emit(t, user, model.StatusRejected)

	require.NoError(t, f.svc.MarkRead(ctx, user, old.ID))
	f.now = f.now.Add(48 * time.Hour)
	require.NoError(t, f.svc.MarkRead(ctx, user, fresh.ID))

	deleted, err := f.svc.CleanupRead(ctx, 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Len(t, f.repo.All(), 2)
}

func TestCleanupRead_KeepsWaitingNoticeClaimable(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	user := uuid.New()
	notice, err := f.svc.Emit(ctx, model.Event{
		UserID:      user,
		Message:     "Please fill in the delivery information.",
		Status:      model.StatusWaiting,
		Type:        model.TypeReturn,
		ReferenceID: "01HZX3",
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkRead(ctx, user, notice.ID))
	f.now = f.now.Add(60 * 24 * time.Hour)

	deleted, err := f.svc.CleanupRead(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	claimed, err := f.svc.ClaimForDelivery(ctx, user, notice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFilledIn, claimed.Status)
}
