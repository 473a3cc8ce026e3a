package appointment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vmontano/taller-booking-backend/internal/pkg/apperror"
	"github.com/vmontano/taller-booking-backend/internal/schedule"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter Filter) ([]*Appointment, int, error)
	Update(ctx context.Context, a *Appointment) error

	// ActiveForUser returns the user's active appointments ordered by
	// (date, time) ascending, so the earliest one is a deterministic pick.
	ActiveForUser(ctx context.Context, userID string) ([]*Appointment, error)

	// BusyForMechanicDay returns the active booking intervals for one
	// mechanic within [dayStart, dayEnd).
	BusyForMechanicDay(ctx context.Context, mechanicID string, dayStart, dayEnd time.Time) ([]schedule.Busy, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

// storageErr classifies a pgx failure. Exclusion violations come from the
// calendar EXCLUDE constraint, the write-time second line of defense behind
// the in-memory conflict check; anything else is surfaced as a transient
// storage failure the caller may retry.
func storageErr(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
		return ErrSlotTaken
	}
	return apperror.Wrap(fmt.Errorf("%s: %w", op, err), http.StatusServiceUnavailable, "storage unavailable")
}

var appointmentColumns = []string{
	"a.id", "a.user_id", "u.phone", "a.mechanic_id", "coalesce(m.name, '')",
	"a.service_key", "a.start_time", "a.end_time", "a.status",
	"a.created_at", "a.updated_at",
}

func scanAppointment(row pgx.Row, extra ...any) (*Appointment, error) {
	var a Appointment
	dest := []any{
		&a.ID, &a.UserID, &a.UserPhone, &a.MechanicID, &a.MechanicName,
		&a.ServiceKey, &a.StartTime, &a.EndTime, &a.Status,
		&a.CreatedAt, &a.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *pgxRepository) Create(ctx context.Context, a *Appointment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.appointments").
		Columns("user_id", "mechanic_id", "service_key", "start_time", "end_time", "status").
		Values(a.UserID, a.MechanicID, a.ServiceKey, a.StartTime, a.EndTime, a.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create appointment query failed: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return storageErr(err, "create appointment")
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(appointmentColumns...).
		From("public.appointments a").
		Join("public.users u ON a.user_id = u.id").
		LeftJoin("public.mechanics m ON a.mechanic_id = m.id").
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get appointment query failed: %w", err)
	}

	a, err := scanAppointment(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err, "get appointment")
	}
	return a, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Appointment, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	columns := append(append([]string{}, appointmentColumns...), "count(*) OVER() as total_count")
	query := psql.Select(columns...).
		From("public.appointments a").
		Join("public.users u ON a.user_id = u.id").
		LeftJoin("public.mechanics m ON a.mechanic_id = m.id")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"a.user_id": filter.UserID})
	}
	if filter.MechanicID != "" {
		query = query.Where(squirrel.Eq{"a.mechanic_id": filter.MechanicID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"a.status": filter.Status})
	}
	if filter.DateFrom != nil {
		query = query.Where(squirrel.GtOrEq{"a.start_time": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		query = query.Where(squirrel.Lt{"a.start_time": *filter.DateTo})
	}

	orderBy := "a.start_time"
	if filter.SortBy != "" {
		orderBy = "a." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list appointments query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, storageErr(err, "list appointments")
	}
	defer rows.Close()

	var appointments []*Appointment
	var total int
	for rows.Next() {
		a, err := scanAppointment(rows, &total)
		if err != nil {
			return nil, 0, storageErr(err, "scan appointment")
		}
		appointments = append(appointments, a)
	}
	return appointments, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, a *Appointment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.appointments").
		Set("mechanic_id", a.MechanicID).
		Set("start_time", a.StartTime).
		Set("end_time", a.EndTime).
		Set("status", a.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update appointment query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return storageErr(err, "update appointment")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ActiveForUser(ctx context.Context, userID string) ([]*Appointment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(appointmentColumns...).
		From("public.appointments a").
		Join("public.users u ON a.user_id = u.id").
		LeftJoin("public.mechanics m ON a.mechanic_id = m.id").
		Where(squirrel.Eq{"a.user_id": userID}).
		Where(squirrel.Eq{"a.status": []Status{StatusConfirmed, StatusRescheduled}}).
		OrderBy("a.start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active appointments query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err, "active appointments")
	}
	defer rows.Close()

	var appointments []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, storageErr(err, "scan appointment")
		}
		appointments = append(appointments, a)
	}
	return appointments, nil
}

func (r *pgxRepository) BusyForMechanicDay(ctx context.Context, mechanicID string, dayStart, dayEnd time.Time) ([]schedule.Busy, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "start_time", "end_time").
		From("public.appointments").
		Where(squirrel.Eq{"mechanic_id": mechanicID}).
		Where(squirrel.Eq{"status": []Status{StatusConfirmed, StatusRescheduled}}).
		Where(squirrel.GtOrEq{"start_time": dayStart}).
		Where(squirrel.Lt{"start_time": dayEnd}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build busy intervals query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err, "busy intervals")
	}
	defer rows.Close()

	var busy []schedule.Busy
	for rows.Next() {
		var b schedule.Busy
		if err := rows.Scan(&b.ID, &b.Start, &b.End); err != nil {
			return nil, storageErr(err, "scan busy interval")
		}
		busy = append(busy, b)
	}
	return busy, nil
}
