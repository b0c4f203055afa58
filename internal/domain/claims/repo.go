package claims

import (
	"context"
)

// PatientRepository mirrors patients into relational storage.
// Insert returns ErrDuplicate when a uniqueness constraint (id, email,
// insurance id) is violated.
type PatientRepository interface {
	Insert(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
}

// ClaimRepository mirrors claims into relational storage and serves the
// reporting aggregates. UpdateStatus reports whether a row existed.
type ClaimRepository interface {
	Insert(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id string) (*Claim, error)
	UpdateStatus(ctx context.Context, id string, status ClaimStatus) (bool, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Claim, error)
	ListByStatus(ctx context.Context, status ClaimStatus) ([]*Claim, error)
	List(ctx context.Context) ([]*Claim, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

// StatusBreakdown aggregates the claims carrying one status.
type StatusBreakdown struct {
	Count       int     `json:"count"`
	AvgAmount   float64 `json:"avg_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// Statistics is the reporting snapshot over the claims table. It is
// informational only; engine correctness never depends on it.
type Statistics struct {
	TotalClaims        int                             `json:"total_claims"`
	StatusBreakdown    map[ClaimStatus]StatusBreakdown `json:"status_breakdown"`
	RecentClaims30Days int                             `json:"recent_claims_30_days"`
}
