package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"clinicbook/backend/internal/domain"
	"clinicbook/backend/internal/security"
	"clinicbook/backend/internal/service/errs"
	"clinicbook/backend/internal/store/memory"
)

func newService() *Service {
	return NewService(memory.New(), WithBcryptCost(bcrypt.MinCost))
}

func TestServiceCreate_NormalizesAndHashes(t *testing.T) {
	svc := newService()

	u, err := svc.Create(context.Background(), CreateInput{
		Email:    "  Dr.House@Example.com ",
		Username: " house ",
		Password: "vicodin123",
		Role:     "doctor",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.Email != "dr.house@example.com" {
		t.Fatalf("email = %q, want lower-cased and trimmed", u.Email)
	}
	if u.Username != "house" {
		t.Fatalf("username = %q, want trimmed", u.Username)
	}
	if u.Role != domain.RoleDoctor {
		t.Fatalf("role = %q, want %q", u.Role, domain.RoleDoctor)
	}
	if u.ID == uuid.Nil {
		t.Fatalf("expected an id")
	}
	if err := security.CheckPassword(u.PasswordHash, "vicodin123"); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestServiceCreate_DefaultsToPatient(t *testing.T) {
	svc := newService()
	u, err := svc.Create(context.Background(), CreateInput{Email: "p@example.com", Username: "p", Password: "longenough"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.Role != domain.RolePatient {
		t.Fatalf("role = %q, want %q", u.Role, domain.RolePatient)
	}
}

func TestServiceCreate_Errors(t *testing.T) {
	svc := newService()
	if _, err := svc.Create(context.Background(), CreateInput{Email: "taken@example.com", Username: "a", Password: "longenough"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	tests := []struct {
		name string
		in   CreateInput
		want errs.Kind
	}{
		{name: "missing email", in: CreateInput{Username: "a", Password: "longenough"}, want: errs.KindInvalid},
		{name: "malformed email", in: CreateInput{Email: "nope", Username: "a", Password: "longenough"}, want: errs.KindInvalid},
		{name: "missing username", in: CreateInput{Email: "b@example.com", Password: "longenough"}, want: errs.KindInvalid},
		{name: "short password", in: CreateInput{Email: "b@example.com", Username: "b", Password: "short"}, want: errs.KindInvalid},
		{name: "unknown role", in: CreateInput{Email: "b@example.com", Username: "b", Password: "longenough", Role: "ADMIN"}, want: errs.KindInvalid},
		{name: "duplicate email", in: CreateInput{Email: "TAKEN@example.com", Username: "c", Password: "longenough"}, want: errs.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			if got := errs.KindOf(err); got != tt.want {
				t.Fatalf("kind = %v (%v), want %v", got, err, tt.want)
			}
		})
	}
}

func TestServiceGet(t *testing.T) {
	svc := newService()
	u, err := svc.Create(context.Background(), CreateInput{Email: "p@example.com", Username: "p", Password: "longenough"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := svc.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Email != u.Email {
		t.Fatalf("email = %q, want %q", got.Email, u.Email)
	}

	if _, err := svc.Get(context.Background(), uuid.New()); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
	if _, err := svc.Get(context.Background(), uuid.Nil); errs.KindOf(err) != errs.KindInvalid {
		t.Fatalf("err = %v, want invalid", err)
	}
}
