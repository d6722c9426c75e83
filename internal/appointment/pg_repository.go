package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentCols = `
	id, patient_id, doctor_id, start_time, end_time, appointment_type,
	status, routing_status, assigned_hospital, symptoms, tele_slot_id,
	patient_village, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var hospital, symptoms, teleSlot, village *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.StartTime,
		&a.EndTime,
		&a.Type,
		&a.Status,
		&a.RoutingStatus,
		&hospital,
		&symptoms,
		&teleSlot,
		&village,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.AssignedHospital = deref(hospital)
	a.Symptoms = deref(symptoms)
	a.TeleSlotID = deref(teleSlot)
	a.PatientVillage = deref(village)
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Interface methods

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, doctor_id, start_time, end_time, appointment_type,
			status, routing_status, assigned_hospital, symptoms, tele_slot_id,
			patient_village, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		RETURNING`+appointmentCols,
		id, a.PatientID, a.DoctorID, a.StartTime, a.EndTime, a.Type,
		a.Status, a.RoutingStatus, nullable(a.AssignedHospital), nullable(a.Symptoms),
		nullable(a.TeleSlotID), nullable(a.PatientVillage),
	)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+appointmentCols+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) CountOverlappingScheduled(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE doctor_id = $1
		  AND status = 'SCHEDULED'
		  AND start_time < $3
		  AND end_time > $2
	`, doctorID, start, end).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING`+appointmentCols, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) AssignDoctor(ctx context.Context, id, doctorID uuid.UUID, hospital *string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    routing_status = 'ASSIGNED',
		    assigned_hospital = COALESCE($3, assigned_hospital),
		    updated_at = now()
		WHERE id = $1
		RETURNING`+appointmentCols, id, doctorID, hospital)

	return scanAppointment(row)
}

func (r *PgRepository) BindQueued(ctx context.Context, id, doctorID uuid.UUID, hospital string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    routing_status = 'ASSIGNED',
		    assigned_hospital = $3,
		    updated_at = now()
		WHERE id = $1
		  AND doctor_id IS NULL
		  AND status = 'SCHEDULED'
		RETURNING`+appointmentCols, id, doctorID, hospital)

	return scanAppointment(row)
}

func (r *PgRepository) ListScheduledByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+appointmentCols+`
		FROM appointments
		WHERE patient_id = $1
		  AND status = 'SCHEDULED'
		ORDER BY start_time, id
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListScheduledByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+appointmentCols+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status = 'SCHEDULED'
		ORDER BY start_time, id
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) FindQueued(ctx context.Context, startingAfter time.Time, limit int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+appointmentCols+`
		FROM appointments
		WHERE status = 'SCHEDULED'
		  AND routing_status = 'NO_DOCTOR_AVAILABLE'
		  AND doctor_id IS NULL
		  AND start_time > $1
		ORDER BY start_time, id
		LIMIT $2
	`, startingAfter, limit)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
