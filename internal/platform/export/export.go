// Package export handles bulk JSON export and import of claim records.
// Dates are rendered as ISO-8601 text so files interoperate with other
// tooling; import fails loudly on unreadable or malformed input.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/clearwell-health/claims-api/internal/domain/claims"
)

const dateLayout = "2006-01-02"

// ClaimRecord is the file representation of a claim.
type ClaimRecord struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	ProviderID    string    `json:"provider_id"`
	Amount        float64   `json:"amount"`
	Description   string    `json:"description"`
	DateOfService string    `json:"date_of_service"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FromClaim converts a domain claim into its file representation.
func FromClaim(c *claims.Claim) ClaimRecord {
	return ClaimRecord{
		ID:            c.ID,
		PatientID:     c.PatientID,
		ProviderID:    c.ProviderID,
		Amount:        c.Amount,
		Description:   c.Description,
		DateOfService: c.DateOfService.Format(dateLayout),
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ToClaim converts a file record back into a validated domain claim.
func (r ClaimRecord) ToClaim() (*claims.Claim, error) {
	dos, err := time.Parse(dateLayout, r.DateOfService)
	if err != nil {
		// Tolerate full timestamps written by other exporters.
		dos, err = time.Parse(time.RFC3339, r.DateOfService)
		if err != nil {
			return nil, fmt.Errorf("claim %s: parse date_of_service: %w", r.ID, err)
		}
	}
	return claims.NewClaim(claims.Claim{
		ID:            r.ID,
		PatientID:     r.PatientID,
		ProviderID:    r.ProviderID,
		Amount:        r.Amount,
		Description:   r.Description,
		DateOfService: dos,
		Status:        claims.ClaimStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	})
}

// WriteFile exports records to path as indented JSON.
func WriteFile(path string, records []ClaimRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal claims: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile imports records from path.
func ReadFile(path string) ([]ClaimRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []ClaimRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}
