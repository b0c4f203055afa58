package claims

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for a violated unique
// constraint.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientCols = `id, name, email, date_of_birth, insurance_id, phone`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.DateOfBirth, &p.InsuranceID, &p.Phone)
	return &p, err
}

func (r *patientRepoPG) Insert(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, email, date_of_birth, insurance_id, phone)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.Email, p.DateOfBirth, p.InsuranceID, p.Phone)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert patient %s: %w", p.ID, ErrDuplicate)
	}
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// =========== Claim Repository ===========

type claimRepoPG struct{ pool *pgxpool.Pool }

func NewClaimRepoPG(pool *pgxpool.Pool) ClaimRepository { return &claimRepoPG{pool: pool} }

const claimCols = `id, patient_id, provider_id, amount, description, date_of_service, status, created_at, updated_at`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.PatientID, &c.ProviderID, &c.Amount, &c.Description,
		&c.DateOfService, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *claimRepoPG) Insert(ctx context.Context, c *Claim) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO claims (id, patient_id, provider_id, amount, description, date_of_service, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.PatientID, c.ProviderID, c.Amount, c.Description, c.DateOfService, c.Status, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert claim %s: %w", c.ID, ErrDuplicate)
	}
	return err
}

func (r *claimRepoPG) GetByID(ctx context.Context, id string) (*Claim, error) {
	return scanClaim(r.pool.QueryRow(ctx, `SELECT `+claimCols+` FROM claims WHERE id = $1`, id))
}

func (r *claimRepoPG) UpdateStatus(ctx context.Context, id string, status ClaimStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE claims SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *claimRepoPG) listWhere(ctx context.Context, where string, args ...interface{}) ([]*Claim, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+claimCols+` FROM claims `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *claimRepoPG) ListByPatient(ctx context.Context, patientID string) ([]*Claim, error) {
	return r.listWhere(ctx, `WHERE patient_id = $1`, patientID)
}

func (r *claimRepoPG) ListByStatus(ctx context.Context, status ClaimStatus) ([]*Claim, error) {
	return r.listWhere(ctx, `WHERE status = $1`, status)
}

func (r *claimRepoPG) List(ctx context.Context) ([]*Claim, error) {
	return r.listWhere(ctx, ``)
}

func (r *claimRepoPG) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{StatusBreakdown: make(map[ClaimStatus]StatusBreakdown)}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM claims`).Scan(&stats.TotalClaims); err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*), AVG(amount), SUM(amount)
		FROM claims
		GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status ClaimStatus
		var b StatusBreakdown
		if err := rows.Scan(&status, &b.Count, &b.AvgAmount, &b.TotalAmount); err != nil {
			return nil, err
		}
		stats.StatusBreakdown[status] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM claims WHERE created_at >= NOW() - INTERVAL '30 days'`).
		Scan(&stats.RecentClaims30Days); err != nil {
		return nil, fmt.Errorf("recent claims: %w", err)
	}

	return stats, nil
}
