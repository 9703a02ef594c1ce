package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/studyroom/model"
	"library-backend/internal/domains/studyroom/studyroomtest"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/testutil"
)

func newService(t *testing.T, rooms ...int64) (*StudyRoomService, *studyroomtest.Repository) {
	t.Helper()
	repo := studyroomtest.NewRepository()
	svc := NewService(repo, &testutil.Transactor{})
	for _, id := range rooms {
		_, err := svc.CreateRoom(context.Background(), model.CreateRoomRequest{RoomID: id, Capacity: 4})
		require.NoError(t, err)
	}
	return svc, repo
}

func tomorrow() *time.Time {
	d := time.Now().Add(24 * time.Hour)
	return &d
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 101)

	room, err := svc.GetRoom(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, room.Status)

	_, err = svc.CreateRoom(ctx, model.CreateRoomRequest{RoomID: 101, Capacity: 2})
	assert.ErrorIs(t, err, model.ErrRoomExists)

	_, err = svc.CreateRoom(ctx, model.CreateRoomRequest{RoomID: 102})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.CreateRoom(ctx, model.CreateRoomRequest{RoomID: 103, Capacity: 2, Status: "closed"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestListRooms_ByStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 3, 1, 2)
	_, err := svc.BookRoom(ctx, uuid.New(), model.BookRoomRequest{RoomID: 2, BookingDate: tomorrow()})
	require.NoError(t, err)

	all, err := svc.ListRooms(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].RoomID)

	empty, err := svc.ListRooms(ctx, model.StatusAvailable)
	require.NoError(t, err)
	assert.Len(t, empty, 2)

	occupied, err := svc.ListRooms(ctx, model.StatusBooked)
	require.NoError(t, err)
	require.Len(t, occupied, 1)
	assert.Equal(t, int64(2), occupied[0].RoomID)

	_, err = svc.ListRooms(ctx, "closed")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestBookRoom(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	svc, repo := newService(t, 7)

	resp, err := svc.BookRoom(ctx, user, model.BookRoomRequest{RoomID: 7, BookingDate: tomorrow()})
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, resp.Room.Status)
	assert.Len(t, resp.Booking.BookingID, 26)
	assert.Equal(t, user, resp.Booking.UserID)

	_, err = svc.BookRoom(ctx, uuid.New(), model.BookRoomRequest{RoomID: 7, BookingDate: tomorrow()})
	assert.ErrorIs(t, err, model.ErrRoomBooked)

	_, err = svc.BookRoom(ctx, user, model.BookRoomRequest{RoomID: 99, BookingDate: tomorrow()})
	assert.ErrorIs(t, err, model.ErrRoomNotFound)

	assert.Len(t, repo.Bookings(), 1)
}

func TestBookRoom_Validation(t *testing.T) {
	svc, _ := newService(t, 7)
	yesterday := time.Now().Add(-48 * time.Hour)

	cases := map[string]model.BookRoomRequest{
		"missing room": {BookingDate: tomorrow()},
		"missing date": {RoomID: 7},
		"past date":    {RoomID: 7, BookingDate: &yesterday},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.BookRoom(context.Background(), uuid.New(), req)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		})
	}
}

func TestBookRoom_ConcurrentRequestsBookOnce(t *testing.T) {
	svc, repo := newService(t, 5)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		conflict int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.BookRoom(context.Background(), uuid.New(), model.BookRoomRequest{RoomID: 5, BookingDate: tomorrow()})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else if assert.ErrorIs(t, err, model.ErrRoomBooked) {
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 9, conflict)
	assert.Len(t, repo.Bookings(), 1)
}

func TestReleaseRoom(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 8)

	_, err := svc.ReleaseRoom(ctx, 8)
	assert.ErrorIs(t, err, model.ErrRoomNotBooked)

	_, err = svc.BookRoom(ctx, uuid.New(), model.BookRoomRequest{RoomID: 8, BookingDate: tomorrow()})
	require.NoError(t, err)

	room, err := svc.ReleaseRoom(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, room.Status)

	_, err = svc.ReleaseRoom(ctx, 404)
	assert.ErrorIs(t, err, model.ErrRoomNotFound)
}

func TestUpdateAndDeleteRoom(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 9)
	capacity := 12

	room, err := svc.UpdateRoom(ctx, 9, model.UpdateRoomRequest{Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, 12, room.Capacity)

	zero := 0
	_, err = svc.UpdateRoom(ctx, 9, model.UpdateRoomRequest{Capacity: &zero})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.UpdateRoom(ctx, 404, model.UpdateRoomRequest{Capacity: &capacity})
	assert.ErrorIs(t, err, model.ErrRoomNotFound)

	_, err = svc.BookRoom(ctx, uuid.New(), model.BookRoomRequest{RoomID: 9, BookingDate: tomorrow()})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteRoom(ctx, 9), model.ErrRoomBooked)

	_, err = svc.ReleaseRoom(ctx, 9)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRoom(ctx, 9))
	assert.ErrorIs(t, svc.DeleteRoom(ctx, 9), model.ErrRoomNotFound)
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t, 1, 2)
	ann := uuid.New()
	repo.Usernames[ann] = "ann"

	_, err := svc.BookRoom(ctx, ann, model.BookRoomRequest{RoomID: 1, BookingDate: tomorrow()})
	require.NoError(t, err)
	_, err = svc.BookRoom(ctx, uuid.New(), model.BookRoomRequest{RoomID: 2, BookingDate: tomorrow()})
	require.NoError(t, err)

	all, err := svc.ListBookings(ctx, model.BookingListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Equal(t, 20, all.Limit)

	room := int64(1)
	one, err := svc.ListBookings(ctx, model.BookingListRequest{RoomID: &room})
	require.NoError(t, err)
	require.Len(t, one.Bookings, 1)
	assert.Equal(t, "ann", one.Bookings[0].Username)
}
