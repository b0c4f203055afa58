package claims

import (
	"regexp"
	"strings"
	"time"
)

// ClaimStatus enumerates the lifecycle states of a claim.
type ClaimStatus string

const (
	StatusPending        ClaimStatus = "pending"
	StatusApproved       ClaimStatus = "approved"
	StatusRejected       ClaimStatus = "rejected"
	StatusProcessing     ClaimStatus = "processing"
	StatusRequiresReview ClaimStatus = "requires_review"
)

var validStatuses = map[ClaimStatus]bool{
	StatusPending: true, StatusApproved: true, StatusRejected: true,
	StatusProcessing: true, StatusRequiresReview: true,
}

// Valid reports whether s is a known claim status.
func (s ClaimStatus) Valid() bool { return validStatuses[s] }

// Terminal reports whether s is an absorbing status. Approved and
// rejected claims accept no further transitions.
func (s ClaimStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// emailShapeRE accepts the minimal local@domain.tld shape enforced at
// entity construction. The stricter format predicate lives in validate.go.
var emailShapeRE = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// Patient maps to the patients table. Immutable once validated.
type Patient struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	InsuranceID string    `db:"insurance_id" json:"insurance_id"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
}

// NewPatient validates p and returns a copy. Construction either fully
// succeeds or the entity does not exist.
func NewPatient(p Patient) (*Patient, error) {
	if p.Email == "" || !emailShapeRE.MatchString(p.Email) {
		return nil, &ValidationError{Field: "email", Reason: "invalid email format"}
	}
	if p.InsuranceID == "" {
		return nil, &ValidationError{Field: "insurance_id", Reason: "insurance ID is required"}
	}
	return &p, nil
}

// Claim maps to the claims table.
type Claim struct {
	ID            string      `db:"id" json:"id"`
	PatientID     string      `db:"patient_id" json:"patient_id"`
	ProviderID    string      `db:"provider_id" json:"provider_id"`
	Amount        float64     `db:"amount" json:"amount"`
	Description   string      `db:"description" json:"description"`
	DateOfService time.Time   `db:"date_of_service" json:"date_of_service"`
	Status        ClaimStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// NewClaim validates c, defaults its status and timestamps, and returns
// a copy. A fresh claim starts in pending until the engine decides it.
func NewClaim(c Claim) (*Claim, error) {
	if c.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "claim amount must be positive"}
	}
	if len(strings.TrimSpace(c.Description)) < 5 {
		return nil, &ValidationError{Field: "description", Reason: "claim description must be at least 5 characters"}
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	if !c.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown claim status"}
	}
	return &c, nil
}
