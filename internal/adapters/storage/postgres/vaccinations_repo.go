package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pet-health/internal/domain/vaccinations"
	"pet-health/internal/platform/apperr"
)

type VaccinationsRepo struct {
	db *sql.DB
}

func NewVaccinationsRepo(db *sql.DB) *VaccinationsRepo {
	return &VaccinationsRepo{db: db}
}

const vaccinationColumns = `
	id, pet_id, vaccine_name, date_given, next_due_date,
	vet_name, batch_number, notes, created_at`

func (r *VaccinationsRepo) Create(ctx context.Context, v vaccinations.VaccinationRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaccination_records (`+vaccinationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		v.ID,
		v.PetID,
		v.VaccineName,
		v.DateGiven.UTC(),
		nullTime(v.NextDueDate),
		v.VetName,
		v.BatchNumber,
		v.Notes,
		v.CreatedAt,
	)
	return err
}

func (r *VaccinationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaccination_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("vaccination", id)
	}
	return nil
}

func (r *VaccinationsRepo) GetByID(ctx context.Context, id string) (vaccinations.VaccinationRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vaccinationColumns+` FROM vaccination_records WHERE id = $1`, strings.TrimSpace(id))
	v, err := scanVaccination(row)
	if errors.Is(err, sql.ErrNoRows) {
		return vaccinations.VaccinationRecord{}, apperr.NotFound("vaccination", id)
	}
	return v, err
}

func (r *VaccinationsRepo) ListByPet(ctx context.Context, petID string) ([]vaccinations.VaccinationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+vaccinationColumns+`
		FROM vaccination_records
		WHERE pet_id = $1
		ORDER BY date_given DESC, created_at DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccinations.VaccinationRecord, 0)
	for rows.Next() {
		v, err := scanVaccination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVaccination(s scanner) (vaccinations.VaccinationRecord, error) {
	var v vaccinations.VaccinationRecord
	var next sql.NullTime
	if err := s.Scan(
		&v.ID,
		&v.PetID,
		&v.VaccineName,
		&v.DateGiven,
		&next,
		&v.VetName,
		&v.BatchNumber,
		&v.Notes,
		&v.CreatedAt,
	); err != nil {
		return vaccinations.VaccinationRecord{}, err
	}
	v.DateGiven = v.DateGiven.UTC()
	v.NextDueDate = fromNullTime(next)
	return v, nil
}
