package claims

import (
	"context"
	"fmt"
	"time"
)

// Options configures the engine's decision thresholds.
type Options struct {
	// AutoApproveThreshold is the amount at or below which a submitted
	// claim is approved without review.
	AutoApproveThreshold float64
	// ReviewThreshold is the amount above which a submitted claim is
	// routed to manual review instead of normal processing.
	ReviewThreshold float64
	// MaxClaimAmount is the hard ceiling; submissions above it are
	// rejected with a LimitExceededError.
	MaxClaimAmount float64
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		AutoApproveThreshold: 100,
		ReviewThreshold:      10000,
		MaxClaimAmount:       50000,
	}
}

// Engine owns the in-memory patient registry and claim store and applies
// the approval-decision rule on submission. It assumes a single caller;
// concurrent users must serialize access externally (the HTTP layer holds
// one mutex around the whole engine).
type Engine struct {
	opts Options

	patients     map[string]*Patient
	patientOrder []string
	claims       map[string]*Claim
	claimOrder   []string

	// Optional storage mirror. The in-memory store is authoritative;
	// mirror failures surface to the caller but do not unwind a status
	// change already applied in memory.
	patientMirror PatientRepository
	claimMirror   ClaimRepository
}

// NewEngine creates an engine with the given thresholds. Zero-valued
// options fall back to DefaultOptions.
func NewEngine(opts Options) *Engine {
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	return &Engine{
		opts:     opts,
		patients: make(map[string]*Patient),
		claims:   make(map[string]*Claim),
	}
}

// AttachMirror wires the relational mirror. Passing nil repositories
// disables mirroring.
func (e *Engine) AttachMirror(patients PatientRepository, claims ClaimRepository) {
	e.patientMirror = patients
	e.claimMirror = claims
}

// RegisterPatient stores a validated patient. Returns false without
// error if the identifier is already registered; the first registration
// is left untouched.
func (e *Engine) RegisterPatient(ctx context.Context, p *Patient) (bool, error) {
	if _, ok := e.patients[p.ID]; ok {
		return false, nil
	}
	e.patients[p.ID] = p
	e.patientOrder = append(e.patientOrder, p.ID)
	if e.patientMirror != nil {
		if err := e.patientMirror.Insert(ctx, p); err != nil {
			return true, fmt.Errorf("mirror patient %s: %w", p.ID, err)
		}
	}
	return true, nil
}

// SubmitClaim validates referential existence and the amount ceiling,
// stores the claim, and immediately runs the auto-decision rule. A
// freshly submitted claim is never observed in pending.
func (e *Engine) SubmitClaim(ctx context.Context, c *Claim) (bool, error) {
	if _, ok := e.claims[c.ID]; ok {
		return false, nil
	}
	if _, ok := e.patients[c.PatientID]; !ok {
		return false, &ReferentialError{Entity: "patient", ID: c.PatientID}
	}
	if c.Amount > e.opts.MaxClaimAmount {
		return false, &LimitExceededError{Amount: c.Amount, Limit: e.opts.MaxClaimAmount}
	}
	e.claims[c.ID] = c
	e.claimOrder = append(e.claimOrder, c.ID)
	e.decide(c)
	if e.claimMirror != nil {
		if err := e.claimMirror.Insert(ctx, c); err != nil {
			return true, fmt.Errorf("mirror claim %s: %w", c.ID, err)
		}
	}
	return true, nil
}

// decide applies the auto-decision rule, in order: auto-approve below
// the threshold, route large amounts to review, everything else to
// processing.
func (e *Engine) decide(c *Claim) {
	switch {
	case c.Amount <= e.opts.AutoApproveThreshold:
		c.Status = StatusApproved
	case c.Amount > e.opts.ReviewThreshold:
		c.Status = StatusRequiresReview
	default:
		c.Status = StatusProcessing
	}
	c.UpdatedAt = time.Now()
}

// ApproveClaim manually approves a claim. Returns false if the claim is
// absent or already in an absorbing state.
func (e *Engine) ApproveClaim(ctx context.Context, id string) (bool, error) {
	return e.transition(ctx, id, StatusApproved)
}

// RejectClaim rejects a claim. The reason is accepted for the caller's
// benefit (the HTTP layer logs it) but is not persisted by the engine.
func (e *Engine) RejectClaim(ctx context.Context, id, reason string) (bool, error) {
	_ = reason
	return e.transition(ctx, id, StatusRejected)
}

func (e *Engine) transition(ctx context.Context, id string, status ClaimStatus) (bool, error) {
	c, ok := e.claims[id]
	if !ok {
		return false, nil
	}
	if c.Status.Terminal() {
		return false, nil
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	if e.claimMirror != nil {
		if _, err := e.claimMirror.UpdateStatus(ctx, id, status); err != nil {
			return true, fmt.Errorf("mirror claim status %s: %w", id, err)
		}
	}
	return true, nil
}

// Patient returns the registered patient or nil.
func (e *Engine) Patient(id string) *Patient { return e.patients[id] }

// Claim returns the stored claim or nil.
func (e *Engine) Claim(id string) *Claim { return e.claims[id] }

// ClaimsByPatient returns the patient's claims in insertion order.
func (e *Engine) ClaimsByPatient(patientID string) []*Claim {
	var out []*Claim
	for _, id := range e.claimOrder {
		if c := e.claims[id]; c.PatientID == patientID {
			out = append(out, c)
		}
	}
	return out
}

// ClaimsByStatus returns all claims with the given status in insertion order.
func (e *Engine) ClaimsByStatus(status ClaimStatus) []*Claim {
	var out []*Claim
	for _, id := range e.claimOrder {
		if c := e.claims[id]; c.Status == status {
			out = append(out, c)
		}
	}
	return out
}

// TotalApprovedAmount sums the amounts of the patient's currently
// approved claims. An unknown patient id yields 0, not an error.
func (e *Engine) TotalApprovedAmount(patientID string) float64 {
	var total float64
	for _, id := range e.claimOrder {
		c := e.claims[id]
		if c.PatientID == patientID && c.Status == StatusApproved {
			total += c.Amount
		}
	}
	return total
}
