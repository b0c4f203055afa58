package claims

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler exposes the claim engine over HTTP. The engine assumes a
// single caller, so the handler serializes every engine call behind one
// mutex; echo runs handlers concurrently.
type Handler struct {
	mu     sync.Mutex
	engine *Engine
	repo   ClaimRepository // reporting only; may be nil
	logger zerolog.Logger
}

func NewHandler(engine *Engine, repo ClaimRepository, logger zerolog.Logger) *Handler {
	return &Handler{engine: engine, repo: repo, logger: logger}
}

// RegisterRoutes mounts the claim endpoints. Mutating routes require a
// valid session via sessionmw.
func (h *Handler) RegisterRoutes(api *echo.Group, sessionmw echo.MiddlewareFunc) {
	api.GET("/patients/:id", h.GetPatient)
	api.GET("/patients/:id/approved-total", h.ApprovedTotal)
	api.GET("/claims", h.ListClaims)
	api.GET("/claims/:id", h.GetClaim)
	api.GET("/reports/statistics", h.Statistics)

	api.POST("/patients", h.RegisterPatient, sessionmw)
	api.POST("/claims", h.SubmitClaim, sessionmw)
	api.POST("/claims/:id/approve", h.ApproveClaim, sessionmw)
	api.POST("/claims/:id/reject", h.RejectClaim, sessionmw)
}

type patientRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	DateOfBirth string  `json:"date_of_birth"`
	InsuranceID string  `json:"insurance_id"`
	Phone       *string `json:"phone,omitempty"`
}

type claimRequest struct {
	ID            string  `json:"id"`
	PatientID     string  `json:"patient_id"`
	ProviderID    string  `json:"provider_id"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	DateOfService string  `json:"date_of_service"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date_of_birth")
	}
	p, err := NewPatient(Patient{
		ID:          req.ID,
		Name:        req.Name,
		Email:       req.Email,
		DateOfBirth: dob,
		InsuranceID: req.InsuranceID,
		Phone:       req.Phone,
	})
	if err != nil {
		return domainHTTPError(err)
	}

	h.mu.Lock()
	ok, err := h.engine.RegisterPatient(c.Request().Context(), p)
	h.mu.Unlock()
	if err != nil {
		return domainHTTPError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "patient already registered")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	h.mu.Lock()
	p := h.engine.Patient(c.Param("id"))
	h.mu.Unlock()
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SubmitClaim(c echo.Context) error {
	var req claimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	dos, err := parseDate(req.DateOfService)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date_of_service")
	}
	cl, err := NewClaim(Claim{
		ID:            req.ID,
		PatientID:     req.PatientID,
		ProviderID:    req.ProviderID,
		Amount:        req.Amount,
		Description:   req.Description,
		DateOfService: dos,
	})
	if err != nil {
		return domainHTTPError(err)
	}

	h.mu.Lock()
	ok, err := h.engine.SubmitClaim(c.Request().Context(), cl)
	h.mu.Unlock()
	if err != nil {
		return domainHTTPError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "claim already submitted")
	}
	h.logger.Info().
		Str("claim_id", cl.ID).
		Str("patient_id", cl.PatientID).
		Float64("amount", cl.Amount).
		Str("status", string(cl.Status)).
		Msg("claim decided")
	return c.JSON(http.StatusCreated, cl)
}

func (h *Handler) GetClaim(c echo.Context) error {
	h.mu.Lock()
	cl := h.engine.Claim(c.Param("id"))
	h.mu.Unlock()
	if cl == nil {
		return echo.NewHTTPError(http.StatusNotFound, "claim not found")
	}
	return c.JSON(http.StatusOK, cl)
}

// ListClaims filters by patient_id or status query parameter.
func (h *Handler) ListClaims(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if patientID := c.QueryParam("patient_id"); patientID != "" {
		return c.JSON(http.StatusOK, orEmpty(h.engine.ClaimsByPatient(patientID)))
	}
	if status := c.QueryParam("status"); status != "" {
		s := ClaimStatus(status)
		if !s.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
		}
		return c.JSON(http.StatusOK, orEmpty(h.engine.ClaimsByStatus(s)))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "patient_id or status is required")
}

func (h *Handler) ApproveClaim(c echo.Context) error {
	id := c.Param("id")
	h.mu.Lock()
	ok, err := h.engine.ApproveClaim(c.Request().Context(), id)
	cl := h.engine.Claim(id)
	h.mu.Unlock()
	if err != nil {
		return domainHTTPError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "claim absent or already finalized")
	}
	h.logger.Info().Str("claim_id", id).Msg("claim approved")
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) RejectClaim(c echo.Context) error {
	id := c.Param("id")
	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.mu.Lock()
	ok, err := h.engine.RejectClaim(c.Request().Context(), id, req.Reason)
	cl := h.engine.Claim(id)
	h.mu.Unlock()
	if err != nil {
		return domainHTTPError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "claim absent or already finalized")
	}
	h.logger.Info().Str("claim_id", id).Str("reason", req.Reason).Msg("claim rejected")
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) ApprovedTotal(c echo.Context) error {
	patientID := c.Param("id")
	h.mu.Lock()
	total := h.engine.TotalApprovedAmount(patientID)
	h.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id":            patientID,
		"total_approved_amount": total,
		"formatted":             FormatCurrency(total),
	})
}

func (h *Handler) Statistics(c echo.Context) error {
	if h.repo == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "reporting storage not configured")
	}
	stats, err := h.repo.Statistics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

// domainHTTPError maps the error taxonomy onto HTTP status codes.
func domainHTTPError(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	}
	var re *ReferentialError
	if errors.As(err, &re) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, re.Error())
	}
	var le *LimitExceededError
	if errors.As(err, &le) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, le.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("storage mirror: %v", err))
}

func orEmpty(items []*Claim) []*Claim {
	if items == nil {
		return []*Claim{}
	}
	return items
}
