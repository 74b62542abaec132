package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-health/internal/domain/healthrecords"
	"pet-health/internal/platform/apperr"
)

type HealthRecordsRepo struct {
	db *sql.DB
}

func NewHealthRecordsRepo(db *sql.DB) *HealthRecordsRepo {
	return &HealthRecordsRepo{db: db}
}

const healthRecordColumns = `
	id, pet_id, date, type,
	vet_name, vet_clinic, diagnosis, treatment, medications, notes,
	follow_up_date, cost, attachments,
	created_at, updated_at`

func (r *HealthRecordsRepo) Create(ctx context.Context, rec healthrecords.HealthRecord) error {
	att, err := encodeAttachments(rec.Attachments)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO health_records (`+healthRecordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13::jsonb,$14,$15)
	`,
		rec.ID,
		rec.PetID,
		rec.Date.UTC(),
		string(rec.Type),
		rec.VetName,
		rec.VetClinic,
		rec.Diagnosis,
		rec.Treatment,
		rec.Medications,
		rec.Notes,
		nullTime(rec.FollowUpDate),
		nullFloat(rec.Cost),
		att,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (r *HealthRecordsRepo) Update(ctx context.Context, rec healthrecords.HealthRecord) error {
	att, err := encodeAttachments(rec.Attachments)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE health_records
		SET
			date = $2,
			type = $3,
			vet_name = $4,
			vet_clinic = $5,
			diagnosis = $6,
			treatment = $7,
			medications = $8,
			notes = $9,
			follow_up_date = $10,
			cost = $11,
			attachments = $12::jsonb,
			updated_at = $13
		WHERE id = $1
	`,
		rec.ID,
		rec.Date.UTC(),
		string(rec.Type),
		rec.VetName,
		rec.VetClinic,
		rec.Diagnosis,
		rec.Treatment,
		rec.Medications,
		rec.Notes,
		nullTime(rec.FollowUpDate),
		nullFloat(rec.Cost),
		att,
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("health record", rec.ID)
	}
	return nil
}

func (r *HealthRecordsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM health_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("health record", id)
	}
	return nil
}

func (r *HealthRecordsRepo) GetByID(ctx context.Context, id string) (healthrecords.HealthRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+healthRecordColumns+` FROM health_records WHERE id = $1`, strings.TrimSpace(id))
	rec, err := scanHealthRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return healthrecords.HealthRecord{}, apperr.NotFound("health record", id)
	}
	return rec, err
}

func (r *HealthRecordsRepo) ListByPet(ctx context.Context, petID string, f healthrecords.ListFilter) ([]healthrecords.HealthRecord, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + healthRecordColumns + ` FROM health_records WHERE pet_id = $1`)

	args := []any{petID}
	argN := 2

	if len(f.Types) > 0 {
		placeholders := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(t))
			argN++
		}
		sb.WriteString(" AND type IN (" + strings.Join(placeholders, ",") + ")")
	}
	if f.From != nil {
		sb.WriteString(fmt.Sprintf(" AND date >= $%d", argN))
		args = append(args, f.From.UTC())
		argN++
	}
	if f.To != nil {
		sb.WriteString(fmt.Sprintf(" AND date <= $%d", argN))
		args = append(args, f.To.UTC())
		argN++
	}

	sb.WriteString(" ORDER BY date DESC, created_at DESC")
	if f.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]healthrecords.HealthRecord, 0)
	for rows.Next() {
		rec, err := scanHealthRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *HealthRecordsRepo) CountBetween(ctx context.Context, petID string, t healthrecords.RecordType, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM health_records
		WHERE pet_id = $1 AND type = $2 AND date >= $3 AND date <= $4
	`, petID, string(t), from.UTC(), to.UTC()).Scan(&n)
	return n, err
}

func (r *HealthRecordsRepo) CountByPet(ctx context.Context, petID string, asOf time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM health_records WHERE pet_id = $1 AND date <= $2`,
		petID, asOf.UTC(),
	).Scan(&n)
	return n, err
}

func scanHealthRecord(s scanner) (healthrecords.HealthRecord, error) {
	var rec healthrecords.HealthRecord
	var typ string
	var followUp sql.NullTime
	var cost sql.NullFloat64
	var att []byte
	if err := s.Scan(
		&rec.ID,
		&rec.PetID,
		&rec.Date,
		&typ,
		&rec.VetName,
		&rec.VetClinic,
		&rec.Diagnosis,
		&rec.Treatment,
		&rec.Medications,
		&rec.Notes,
		&followUp,
		&cost,
		&att,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return healthrecords.HealthRecord{}, err
	}

	rec.Type = healthrecords.RecordType(typ)
	rec.Date = rec.Date.UTC()
	rec.FollowUpDate = fromNullTime(followUp)
	if cost.Valid {
		c := cost.Float64
		rec.Cost = &c
	}
	if len(att) > 0 {
		if err := json.Unmarshal(att, &rec.Attachments); err != nil {
			return healthrecords.HealthRecord{}, fmt.Errorf("decode attachments of %s: %w", rec.ID, err)
		}
	}
	if rec.Attachments == nil {
		rec.Attachments = []string{}
	}
	return rec, nil
}

func encodeAttachments(a []string) (string, error) {
	if a == nil {
		a = []string{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode attachments: %w", err)
	}
	return string(b), nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
