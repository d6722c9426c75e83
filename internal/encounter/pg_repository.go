package encounter

import (
	"context"
	"errors"
	"fmt"

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

const encounterCols = `
	id, patient_id, chw_id, doctor_id, status, symptoms, provisional_diagnosis,
	risk_score, blood_sugar, vitals_json, created_at, updated_at`

func scanEncounter(row pgx.Row) (*Encounter, error) {
	var e Encounter
	var symptoms, diagnosis, vitals *string

	err := row.Scan(
		&e.ID,
		&e.PatientID,
		&e.CHWID,
		&e.DoctorID,
		&e.Status,
		&symptoms,
		&diagnosis,
		&e.RiskScore,
		&e.BloodSugar,
		&vitals,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEncounterNotFound
		}
		return nil, err
	}

	if symptoms != nil {
		e.Symptoms = *symptoms
	}
	if diagnosis != nil {
		e.ProvisionalDiagnosis = *diagnosis
	}
	if vitals != nil {
		e.VitalsJSON = *vitals
	}
	return &e, nil
}

func (r *PgRepository) list(ctx context.Context, column string, id uuid.UUID) ([]Encounter, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+encounterCols+`
		FROM encounters
		WHERE `+column+` = $1
		ORDER BY created_at DESC, id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Encounter
	for rows.Next() {
		e, err := scanEncounter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) Create(ctx context.Context, e *Encounter) (*Encounter, error) {
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO encounters (
			id, patient_id, chw_id, doctor_id, status, symptoms, provisional_diagnosis,
			risk_score, blood_sugar, vitals_json, created_at, updated_at
		)
		VALUES ($1, $2, $3, NULL, 'OPEN', $4, $5, $6, $7, $8, now(), now())
		RETURNING`+encounterCols,
		id, e.PatientID, e.CHWID, e.Symptoms, e.ProvisionalDiagnosis,
		e.RiskScore, e.BloodSugar, e.VitalsJSON,
	)

	created, err := scanEncounter(row)
	if err != nil {
		return nil, fmt.Errorf("insert encounter: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+encounterCols+`
		FROM encounters
		WHERE id = $1
	`, id)
	return scanEncounter(row)
}

func (r *PgRepository) Assign(ctx context.Context, id, doctorID uuid.UUID) (*Encounter, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE encounters
		SET doctor_id = $2,
		    status = 'ASSIGNED',
		    updated_at = now()
		WHERE id = $1
		  AND status <> 'COMPLETED'
		RETURNING`+encounterCols, id, doctorID)

	return scanEncounter(row)
}

func (r *PgRepository) Complete(ctx context.Context, id uuid.UUID, diagnosis, notes string) (*Encounter, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE encounters
		SET provisional_diagnosis = $2,
		    vitals_json = $3,
		    status = 'COMPLETED',
		    updated_at = now()
		WHERE id = $1
		  AND status <> 'COMPLETED'
		RETURNING`+encounterCols, id, diagnosis, notes)

	return scanEncounter(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Encounter, error) {
	return r.list(ctx, "patient_id", patientID)
}

func (r *PgRepository) ListByCHW(ctx context.Context, chwID uuid.UUID) ([]Encounter, error) {
	return r.list(ctx, "chw_id", chwID)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Encounter, error) {
	return r.list(ctx, "doctor_id", doctorID)
}
