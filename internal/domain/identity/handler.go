package identity

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clearwell-health/claims-api/internal/domain/claims"
)

// Handler exposes registration, login, and session management. One
// RWMutex serializes access to the service; session validation on the
// hot path takes only the read lock.
type Handler struct {
	mu     sync.RWMutex
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/session", h.Session)
}

type registerRequest struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	UserType UserType `json:"user_type"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.mu.Lock()
	ok, err := h.svc.RegisterUser(c.Request().Context(), req.ID, req.Email, req.Password, req.UserType)
	h.mu.Unlock()
	if err != nil {
		var ve *claims.ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "user id already registered")
	}
	h.logger.Info().Str("user_id", req.ID).Str("user_type", string(req.UserType)).Msg("user registered")
	return c.JSON(http.StatusCreated, map[string]string{"id": req.ID})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.mu.Lock()
	view := h.svc.Authenticate(req.Email, req.Password)
	if view == nil {
		h.mu.Unlock()
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	token, err := h.svc.CreateSession(view.UserID)
	h.mu.Unlock()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  view,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	h.mu.Lock()
	ok := h.svc.Logout(token)
	h.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Session(c echo.Context) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	h.mu.RLock()
	userID, ok := h.svc.ValidateSession(token)
	h.mu.RUnlock()
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	return c.JSON(http.StatusOK, map[string]string{"user_id": userID})
}

// SessionMiddleware guards routes behind a valid bearer session token
// and places the resolved user id on the echo context.
func (h *Handler) SessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}
			h.mu.RLock()
			userID, ok := h.svc.ValidateSession(token)
			h.mu.RUnlock()
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}
			c.Set("user_id", userID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return parts[1], nil
}
