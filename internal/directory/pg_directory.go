package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

// Helpers

const doctorCols = `
	d.id, d.name, d.hospital, d.block, d.district, d.active, d.status,
	d.priority, d.max_concurrent_patients,
	ARRAY(SELECT v.village FROM doctor_coverage_villages v WHERE v.doctor_id = d.id ORDER BY v.village)`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string

	err := row.Scan(&u.ID, &role, &u.FullName, &u.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.Role, err = ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	return &u, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var village, block, district *string

	err := row.Scan(&p.ID, &p.Name, &village, &block, &district)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Village = deref(village)
	p.Block = deref(block)
	p.District = deref(district)
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Hospital,
		&d.Block,
		&d.District,
		&d.Active,
		&d.Status,
		&d.Priority,
		&d.MaxConcurrentPatients,
		&d.CoverageVillages,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func (r *PgDirectory) queryDoctors(ctx context.Context, where string, arg any) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorCols+`
		FROM doctors d
		WHERE `+where+`
		ORDER BY d.created_at, d.id
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Interface methods

func (r *PgDirectory) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, role, full_name, active
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgDirectory) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, village, block, district
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgDirectory) FindByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorCols+`
		FROM doctors d
		WHERE d.id = $1
	`, id)
	return scanDoctor(row)
}

// UpdateDoctorStatus sets the availability status and returns the updated
// profile.
func (r *PgDirectory) UpdateDoctorStatus(ctx context.Context, id uuid.UUID, status DoctorStatus) (*Doctor, error) {
	status, err := ParseDoctorStatus(string(status))
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE doctors d
		SET status = $2
		WHERE d.id = $1
		RETURNING `+doctorCols, id, string(status))
	d, err := scanDoctor(row)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update doctor status: %w", err)
	}
	return d, nil
}

func (r *PgDirectory) FindByVillage(ctx context.Context, village string) ([]Doctor, error) {
	doctors, err := r.queryDoctors(ctx, `EXISTS (
			SELECT 1 FROM doctor_coverage_villages v
			WHERE v.doctor_id = d.id AND lower(v.village) = lower($1)
		)`, village)
	if err != nil {
		return nil, fmt.Errorf("find doctors by village: %w", err)
	}
	return doctors, nil
}

func (r *PgDirectory) FindByBlock(ctx context.Context, block string) ([]Doctor, error) {
	doctors, err := r.queryDoctors(ctx, `lower(d.block) = lower($1)`, block)
	if err != nil {
		return nil, fmt.Errorf("find doctors by block: %w", err)
	}
	return doctors, nil
}

func (r *PgDirectory) FindByDistrict(ctx context.Context, district string) ([]Doctor, error) {
	doctors, err := r.queryDoctors(ctx, `lower(d.district) = lower($1)`, district)
	if err != nil {
		return nil, fmt.Errorf("find doctors by district: %w", err)
	}
	return doctors, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
