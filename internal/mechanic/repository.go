package mechanic

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, m *Mechanic) error
	GetByID(ctx context.Context, id string) (*Mechanic, error)
	GetByPhone(ctx context.Context, phone string) (*Mechanic, error)
	List(ctx context.Context, filter Filter) ([]*Mechanic, int, error)
	Update(ctx context.Context, m *Mechanic) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, m *Mechanic) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.mechanics").
		Columns("name", "phone", "service_keys").
		Values(m.Name, m.Phone, m.ServiceKeys).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create mechanic query failed: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrPhoneAlreadyUsed
		}
		return fmt.Errorf("create mechanic failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Mechanic, error) {
	return r.getByField(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) GetByPhone(ctx context.Context, phone string) (*Mechanic, error) {
	return r.getByField(ctx, squirrel.Eq{"phone": phone})
}

func (r *pgxRepository) getByField(ctx context.Context, where squirrel.Eq) (*Mechanic, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "phone", "service_keys", "created_at").
		From("public.mechanics").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get mechanic query failed: %w", err)
	}

	var m Mechanic
	err = r.pool.QueryRow(ctx, query, args...).
		Scan(&m.ID, &m.Name, &m.Phone, &m.ServiceKeys, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get mechanic failed: %w", err)
	}
	return &m, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Mechanic, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("id", "name", "phone", "service_keys", "created_at",
		"count(*) OVER() as total_count").
		From("public.mechanics").
		OrderBy("name ASC")

	if filter.ServiceKey != "" {
		// Empty service_keys means "performs everything".
		query = query.Where(squirrel.Or{
			squirrel.Expr("cardinality(service_keys) = 0"),
			squirrel.Expr("? = ANY(service_keys)", filter.ServiceKey),
		})
	}

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
		return nil, 0, fmt.Errorf("build list mechanics query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list mechanics failed: %w", err)
	}
	defer rows.Close()

	var mechanics []*Mechanic
	var total int
	for rows.Next() {
		var m Mechanic
		if err := rows.Scan(&m.ID, &m.Name, &m.Phone, &m.ServiceKeys, &m.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan mechanic failed: %w", err)
		}
		mechanics = append(mechanics, &m)
	}
	return mechanics, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, m *Mechanic) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.mechanics").
		Set("name", m.Name).
		Set("phone", m.Phone).
		Set("service_keys", m.ServiceKeys).
		Where(squirrel.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update mechanic query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrPhoneAlreadyUsed
		}
		return fmt.Errorf("update mechanic failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.mechanics").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete mechanic query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete mechanic failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
