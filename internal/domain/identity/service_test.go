package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/clearwell-health/claims-api/internal/domain/claims"
)

// Low bcrypt cost keeps the hashing fast in tests.
const testBcryptCost = 4

func registerTestUser(t *testing.T, s *Service, id string) {
	t.Helper()
	ok, err := s.RegisterUser(context.Background(), id, id+"@example.com", "correct-horse", TypePatient)
	if err != nil || !ok {
		t.Fatalf("register %s: ok=%v err=%v", id, ok, err)
	}
}

// ---------- RegisterUser ----------

func TestRegisterUser_HashesPassword(t *testing.T) {
	s := NewService(testBcryptCost)
	registerTestUser(t, s, "U1")

	u := s.users["U1"]
	if u == nil {
		t.Fatal("user not stored")
	}
	if u.PasswordHash == "correct-horse" {
		t.Fatal("password stored in plaintext")
	}
	if !u.Active {
		t.Fatal("new users start active")
	}
}

func TestRegisterUser_DuplicateID(t *testing.T) {
	s := NewService(testBcryptCost)
	registerTestUser(t, s, "U1")

	ok, err := s.RegisterUser(context.Background(), "U1", "other@example.com", "different-pass", TypeProvider)
	if err != nil {
		t.Fatalf("duplicate id must not error, got %v", err)
	}
	if ok {
		t.Fatal("duplicate id must report false")
	}
	if s.users["U1"].Email != "U1@example.com" {
		t.Fatal("first registration was overwritten")
	}
}

func TestRegisterUser_Validation(t *testing.T) {
	s := NewService(testBcryptCost)
	cases := []struct {
		name     string
		email    string
		password string
		userType UserType
		field    string
	}{
		{"bad email", "nope", "correct-horse", TypePatient, "email"},
		{"empty email", "", "correct-horse", TypePatient, "email"},
		{"short password", "u@example.com", "short", TypePatient, "password"},
		{"unknown type", "u@example.com", "correct-horse", UserType("admin"), "user_type"},
	}
	for _, tc := range cases {
		ok, err := s.RegisterUser(context.Background(), "U1", tc.email, tc.password, tc.userType)
		if ok {
			t.Fatalf("%s: registration must fail", tc.name)
		}
		var ve *claims.ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("%s: expected %s ValidationError, got %v", tc.name, tc.field, err)
		}
	}
}

func TestRegisterUser_MirrorFailureKeepsMemory(t *testing.T) {
	s := NewService(testBcryptCost)
	s.AttachMirror(&failingUserRepo{err: errors.New("connection refused")})

	ok, err := s.RegisterUser(context.Background(), "U1", "u@example.com", "correct-horse", TypePayor)
	if !ok {
		t.Fatal("in-memory registration should succeed despite mirror failure")
	}
	if err == nil {
		t.Fatal("mirror failure must surface")
	}
	if s.users["U1"] == nil {
		t.Fatal("user missing from memory")
	}
}

type failingUserRepo struct{ err error }

func (f *failingUserRepo) Insert(context.Context, *User) error          { return f.err }
func (f *failingUserRepo) GetByID(context.Context, string) (*User, error) { return nil, nil }
func (f *failingUserRepo) List(context.Context) ([]*User, error)          { return nil, nil }

// ---------- Authenticate ----------

func TestAuthenticate_Success(t *testing.T) {
	s := NewService(testBcryptCost)
	registerTestUser(t, s, "U1")

	view := s.Authenticate("U1@example.com", "correct-horse")
	if view == nil {
		t.Fatal("expected successful authentication")
	}
	if view.UserID != "U1" || view.UserType != TypePatient {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	s := NewService(testBcryptCost)
	registerTestUser(t, s, "U1")

	if s.Authenticate("U1@example.com", "wrong-password") != nil {
		t.Fatal("wrong password must not authenticate")
	}
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	s := NewService(testBcryptCost)
	if s.Authenticate("ghost@example.com", "correct-horse") != nil {
		t.Fatal("unknown email must not authenticate")
	}
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	s := NewService(testBcryptCost)
	registerTestUser(t, s, "U1")
	s.users["U1"].Active = false

	if s.Authenticate("U1@example.com", "correct-horse") != nil {
		t.Fatal("inactive user must not authenticate")
	}
}

// ---------- Sessions ----------

func TestSessionLifecycle(t *testing.T) {
	s := NewService(testBcryptCost)

	token, err := s.CreateSession("U1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	userID, ok := s.ValidateSession(token)
	if !ok || userID != "U1" {
		t.Fatalf("validate: ok=%v userID=%s", ok, userID)
	}

	if !s.Logout(token) {
		t.Fatal("logout of active session must succeed")
	}
	if _, ok := s.ValidateSession(token); ok {
		t.Fatal("token valid after logout")
	}
	if s.Logout(token) {
		t.Fatal("second logout must report false")
	}
}

func TestCreateSession_TokensAreUnique(t *testing.T) {
	s := NewService(testBcryptCost)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := s.CreateSession("U1")
		if err != nil {
			t.Fatalf("create session: %v", err)
		}
		if seen[token] {
			t.Fatal("duplicate token issued")
		}
		seen[token] = true
	}
}

func TestValidateSession_UnknownToken(t *testing.T) {
	s := NewService(testBcryptCost)
	if _, ok := s.ValidateSession("made-up-token"); ok {
		t.Fatal("unknown token must not validate")
	}
}

// ---------- UserType ----------

func TestUserType_Valid(t *testing.T) {
	for _, ut := range []UserType{TypePatient, TypeProvider, TypePayor} {
		if !ut.Valid() {
			t.Fatalf("%s should be valid", ut)
		}
	}
	if UserType("admin").Valid() {
		t.Fatal("unknown type should be invalid")
	}
}
