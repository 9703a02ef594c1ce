package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/studyroom/model"
	"library-backend/pkg/database"
)

const roomColumns = `room_id, capacity, room_status, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanRoom(row pgx.Row) (*model.Room, error) {
	var room model.Room
	if err := row.Scan(&room.RoomID, &room.Capacity, &room.Status, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *postgresRepository) Create(ctx context.Context, room *model.Room) error {
	query := `
		INSERT INTO study_rooms (room_id, capacity, room_status)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, room.RoomID, room.Capacity, room.Status).
		Scan(&room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrRoomExists
		}
		return fmt.Errorf("insert study room: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM study_rooms WHERE room_id = $1`
	room, err := scanRoom(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrRoomNotFound
		}
		return nil, fmt.Errorf("get study room: %w", err)
	}
	return room, nil
}

func (r *postgresRepository) List(ctx context.Context, status model.Status) ([]model.Room, error) {
	ds := database.Dialect.From("study_rooms").
		Select("room_id", "capacity", "room_status", "created_at", "updated_at").
		Order(goqu.I("room_id").Asc())
	if status != "" {
		ds = ds.Where(goqu.I("room_status").Eq(string(status)))
	}

	query, args, err := database.ToSQL(ds)
	if err != nil {
		return nil, fmt.Errorf("build study room query: %w", err)
	}
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list study rooms: %w", err)
	}
	defer rows.Close()

	rooms := []model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study room: %w", err)
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

// buildUpdate sets only the supplied columns.
func buildUpdate(id int64, req model.UpdateRoomRequest) (string, []interface{}, error) {
	record := goqu.Record{"updated_at": goqu.L("NOW()")}
	if req.Capacity != nil {
		record["capacity"] = *req.Capacity
	}
	if req.Status != nil {
		record["room_status"] = string(*req.Status)
	}
	return database.Dialect.Update("study_rooms").
		Set(record).
		Where(goqu.I("room_id").Eq(id)).
		Returning("room_id", "capacity", "room_status", "created_at", "updated_at").
		Prepared(true).
		ToSQL()
}

func (r *postgresRepository) Update(ctx context.Context, id int64, req model.UpdateRoomRequest) (*model.Room, error) {
	query, args, err := buildUpdate(id, req)
	if err != nil {
		return nil, fmt.Errorf("build study room update: %w", err)
	}
	room, err := scanRoom(database.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrRoomNotFound
		}
		return nil, fmt.Errorf("update study room: %w", err)
	}
	return room, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM study_rooms WHERE room_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete study room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRoomNotFound
	}
	return nil
}

func (r *postgresRepository) SetStatus(ctx context.Context, id int64, from, to model.Status) (*model.Room, error) {
	query := `
		UPDATE study_rooms
		SET room_status = $3, updated_at = NOW()
		WHERE room_id = $1 AND room_status = $2
		RETURNING ` + roomColumns

	room, err := scanRoom(database.Conn(ctx, r.pool).QueryRow(ctx, query, id, from, to))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrRoomNotFound
		}
		return nil, fmt.Errorf("set study room status: %w", err)
	}
	return room, nil
}

func (r *postgresRepository) CreateBooking(ctx context.Context, b *model.Booking) error {
	query := `
		INSERT INTO room_bookings (booking_id, room_id, user_id, booking_date)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, b.BookingID, b.RoomID, b.UserID, b.BookingDate).
		Scan(&b.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return model.ErrRoomNotFound
		}
		return fmt.Errorf("insert room booking: %w", err)
	}
	return nil
}

func buildBookingQuery(req model.BookingListRequest) (*goqu.SelectDataset, *goqu.SelectDataset) {
	ds := database.Dialect.From(goqu.T("room_bookings").As("rb")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("rb.user_id"))))
	if req.RoomID != nil {
		ds = ds.Where(goqu.I("rb.room_id").Eq(*req.RoomID))
	}

	count := ds.Select(goqu.COUNT("*"))
	page := database.Page(
		ds.Select("rb.booking_id", "rb.room_id", "rb.user_id", "rb.booking_date", "rb.created_at", "u.username").
			Order(goqu.I("rb.booking_date").Desc(), goqu.I("rb.booking_id").Desc()),
		req.Limit, req.Offset(),
	)
	return page, count
}

func (r *postgresRepository) ListBookings(ctx context.Context, req model.BookingListRequest) ([]model.BookingDetail, int, error) {
	pageDS, countDS := buildBookingQuery(req)
	db := database.Conn(ctx, r.pool)

	countSQL, countArgs, err := database.ToSQL(countDS)
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count room bookings: %w", err)
	}

	pageSQL, pageArgs, err := database.ToSQL(pageDS)
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list room bookings: %w", err)
	}
	defer rows.Close()

	out := make([]model.BookingDetail, 0, req.Limit)
	for rows.Next() {
		var d model.BookingDetail
		if err := rows.Scan(&d.BookingID, &d.RoomID, &d.UserID, &d.BookingDate, &d.CreatedAt, &d.Username); err != nil {
			return nil, 0, fmt.Errorf("scan room booking: %w", err)
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}
