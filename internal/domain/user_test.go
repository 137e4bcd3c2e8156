package domain_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/adilzhan/auth-core/internal/domain"
)

func TestPublicProjection(t *testing.T) {
	avatar := "https://cdn.example.com/a.png"
	u := &domain.User{
		ID:           domain.NewUserID(),
		Email:        "priv@example.com",
		PasswordHash: "$2a$12$x",
		Name:         "Priv",
		AvatarURL:    &avatar,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	b, err := json.Marshal(u.Public())
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if strings.Contains(s, "priv@example.com") || strings.Contains(s, "$2a$12$x") {
		t.Fatalf("public projection leaks private fields: %s", s)
	}
	if !strings.Contains(s, u.ID) || !strings.Contains(s, avatar) {
		t.Fatalf("public projection incomplete: %s", s)
	}
}

func TestUserJSONHidesSecrets(t *testing.T) {
	u := &domain.User{
		ID:           domain.NewUserID(),
		Email:        "u@example.com",
		PasswordHash: "$2a$12$x",
		Locked:       true,
	}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if strings.Contains(s, "$2a$12$x") || strings.Contains(s, "locked") {
		t.Fatalf("serialized secrets: %s", s)
	}
}
