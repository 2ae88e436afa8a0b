package clinic

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbot/clinic/internal/platform/db"
)

// =========== Clinic Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

const serviceCols = `id, name, category, description, duration_minutes, price`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.DurationMinutes, &s.Price)
	if db.NotFound(err) {
		return nil, ErrServiceNotFound
	}
	return &s, err
}

func (r *repoPG) GetInfo(ctx context.Context) (*Info, error) {
	var i Info
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT name, address, phone, email, opening_hours, emergency_hours, map_url
		FROM clinic_info WHERE id = 1`,
	).Scan(&i.Name, &i.Address, &i.Phone, &i.Email, &i.OpeningHours, &i.EmergencyHours, &i.MapURL)
	if db.NotFound(err) {
		return nil, ErrInfoMissing
	}
	if err != nil {
		return nil, fmt.Errorf("get clinic info: %w", err)
	}
	return &i, nil
}

func (r *repoPG) ListServices(ctx context.Context, category string) ([]*Service, error) {
	query := `SELECT ` + serviceCols + ` FROM clinic_services`
	var args []interface{}
	if category != "" {
		query += ` WHERE category ILIKE $1`
		args = append(args, category)
	}
	query += ` ORDER BY category, name`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clinic services: %w", err)
	}
	defer rows.Close()
	var items []*Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) GetServiceByName(ctx context.Context, name string) (*Service, error) {
	return scanService(r.conn(ctx).QueryRow(ctx,
		`SELECT `+serviceCols+` FROM clinic_services WHERE name ILIKE $1`, name))
}
