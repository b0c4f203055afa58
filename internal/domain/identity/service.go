package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clearwell-health/claims-api/internal/domain/claims"
)

var emailShapeRE = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

const minPasswordLength = 8

// Service manages user credentials and ephemeral session tokens. It is
// independent of the claim engine and, like it, assumes a single caller;
// the HTTP layer serializes access.
type Service struct {
	users      map[string]*User
	sessions   map[string]string // token -> user id
	bcryptCost int
	mirror     UserRepository
}

// NewService creates a service with the given bcrypt cost; zero or
// negative cost selects the bcrypt default.
func NewService(bcryptCost int) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      make(map[string]*User),
		sessions:   make(map[string]string),
		bcryptCost: bcryptCost,
	}
}

// AttachMirror wires the relational mirror for user records.
func (s *Service) AttachMirror(r UserRepository) { s.mirror = r }

// RegisterUser stores a new active user. Returns false without error if
// the id is already taken. Email format and password length violations
// are ValidationErrors.
func (s *Service) RegisterUser(ctx context.Context, id, email, password string, userType UserType) (bool, error) {
	if _, ok := s.users[id]; ok {
		return false, nil
	}
	if email == "" || !emailShapeRE.MatchString(email) {
		return false, &claims.ValidationError{Field: "email", Reason: "invalid email format"}
	}
	if len(password) < minPasswordLength {
		return false, &claims.ValidationError{Field: "password", Reason: fmt.Sprintf("password must be at least %d characters long", minPasswordLength)}
	}
	if !userType.Valid() {
		return false, &claims.ValidationError{Field: "user_type", Reason: "unknown user type"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		Type:         userType,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	s.users[id] = u
	if s.mirror != nil {
		if err := s.mirror.Insert(ctx, u); err != nil {
			return true, fmt.Errorf("mirror user %s: %w", id, err)
		}
	}
	return true, nil
}

// Authenticate scans stored users for an exact email match, compares
// the password against the stored hash, and returns a view for active
// accounts. Any failure yields nil.
func (s *Service) Authenticate(email, password string) *UserView {
	for id, u := range s.users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			continue
		}
		if !u.Active {
			return nil
		}
		return &UserView{UserID: id, Email: email, UserType: u.Type}
	}
	return nil
}

// CreateSession issues a random opaque token for the user id. The id is
// not checked against the user store; callers authenticate first.
func (s *Service) CreateSession(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	s.sessions[token] = userID
	return token, nil
}

// ValidateSession resolves a token to its user id.
func (s *Service) ValidateSession(token string) (string, bool) {
	userID, ok := s.sessions[token]
	return userID, ok
}

// Logout removes a session. Returns false if the token was not active.
func (s *Service) Logout(token string) bool {
	if _, ok := s.sessions[token]; !ok {
		return false
	}
	delete(s.sessions, token)
	return true
}
