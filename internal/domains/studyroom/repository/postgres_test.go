package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/studyroom/model"
	"library-backend/pkg/database"
)

func TestBuildUpdate_OnlySuppliedColumns(t *testing.T) {
	capacity := 8

	sql, args, err := buildUpdate(3, model.UpdateRoomRequest{Capacity: &capacity})

	require.NoError(t, err)
	assert.Contains(t, sql, `UPDATE "study_rooms" SET`)
	assert.Contains(t, sql, `"capacity"=$1`)
	assert.Contains(t, sql, `"updated_at"=NOW()`)
	assert.NotContains(t, sql, `"room_status"=`)
	assert.Contains(t, sql, `RETURNING`)
	assert.Len(t, args, 2)
}

func TestBuildBookingQuery(t *testing.T) {
	room := int64(4)

	page, count := buildBookingQuery(model.BookingListRequest{RoomID: &room, Page: 2, Limit: 5})

	sql, _, err := database.ToSQL(page)
	require.NoError(t, err)
	assert.Contains(t, sql, `INNER JOIN "users" AS "u"`)
	assert.Contains(t, sql, `"rb"."room_id" = `)
	assert.Contains(t, sql, `ORDER BY "rb"."booking_date" DESC`)
	assert.Contains(t, sql, `LIMIT $`)

	countSQL, _, err := database.ToSQL(count)
	require.NoError(t, err)
	assert.Contains(t, countSQL, "COUNT(*)")
}
