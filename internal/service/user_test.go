package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yaroslav/recipebox/internal/storage/storagetest"
	"github.com/yaroslav/recipebox/models"
)

func TestCreateUser(t *testing.T) {
	svc, logs := newUserService(t, storagetest.New(t))
	ctx := context.Background()

	user, err := svc.Create(ctx, &models.UserCreateRequest{
		Email:    "  Test@EXAMPLE.com ",
		Password: "testpass123",
		Name:     "Test Name",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected generated ID")
	}
	if user.Email != "Test@example.com" {
		t.Errorf("email = %q, want normalized", user.Email)
	}
	if !user.IsActive || user.IsStaff {
		t.Errorf("flags = active %v staff %v, want active non-staff", user.IsActive, user.IsStaff)
	}
	if user.PasswordHash == "testpass123" {
		t.Error("password stored in plain text")
	}

	if logs.FilterMessage("user created").Len() != 1 {
		t.Error("expected a 'user created' log entry")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t, storagetest.New(t))
	seedUser(t, svc, "test@example.com", "First")

	_, err := svc.Create(context.Background(), &models.UserCreateRequest{
		Email:    "test@EXAMPLE.COM",
		Password: "testpass123",
		Name:     "Second",
	})
	if !errors.Is(err, models.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestCreateUser_PasswordTooShort(t *testing.T) {
	svc, _ := newUserService(t, storagetest.New(t))

	_, err := svc.Create(context.Background(), &models.UserCreateRequest{
		Email:    "test@example.com",
		Password: "pw",
		Name:     "Test",
	})
	if !errors.Is(err, models.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestCreateUser_PasswordTooLong(t *testing.T) {
	svc, _ := newUserService(t, storagetest.New(t))

	_, err := svc.Create(context.Background(), &models.UserCreateRequest{
		Email:    "test@example.com",
		Password: strings.Repeat("p", models.MaxPasswordLength+1),
		Name:     "Test",
	})
	if !errors.Is(err, models.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	_, err = svc.Create(context.Background(), &models.UserCreateRequest{
		Email:    "test@example.com",
		Password: strings.Repeat("p", models.MaxPasswordLength),
		Name:     "Test",
	})
	if err != nil {
		t.Fatalf("72-byte password rejected: %v", err)
	}
}

func TestCreateSuperuser(t *testing.T) {
	svc, _ := newUserService(t, storagetest.New(t))

	user, err := svc.CreateSuperuser(context.Background(), "admin@example.com", "Admin", "adminpass")
	if err != nil {
		t.Fatalf("CreateSuperuser failed: %v", err)
	}
	if !user.IsStaff {
		t.Error("superuser should be staff")
	}

	got, err := svc.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.IsStaff || !got.IsActive {
		t.Errorf("stored flags = staff %v active %v", got.IsStaff, got.IsActive)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newUserService(t, storagetest.New(t))
	seeded := seedUser(t, svc, "test@example.com", "Test")
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "test@EXAMPLE.com", "testpass123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("user ID = %d, want %d", user.ID, seeded.ID)
	}

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "test@example.com", "wrong"},
		{"unknown email", "nobody@example.com", "testpass123"},
		{"blank password", "test@example.com", ""},
		{"blank email", "", "testpass123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Authenticate(ctx, tc.email, tc.password); !errors.Is(err, models.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	db := storagetest.New(t)
	svc, _ := newUserService(t, db)
	user := seedUser(t, svc, "test@example.com", "Test")

	if _, err := db.Exec(context.Background(), "test", `UPDATE users SET is_active = ? WHERE id = ?`, false, user.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "test@example.com", "testpass123"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIssueTokenAndResolve(t *testing.T) {
	svc, _ := newUserService(t, storagetest.New(t))
	user := seedUser(t, svc, "test@example.com", "Test")
	ctx := context.Background()

	out, err := svc.IssueToken(ctx, &models.TokenCreateRequest{Email: "test@example.com", Password: "testpass123"})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if out.Access == "" {
		t.Fatal("expected access token")
	}

	resolved, err := svc.UserFromToken(ctx, out.Access)
	if err != nil {
		t.Fatalf("UserFromToken failed: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("resolved user = %d, want %d", resolved.ID, user.ID)
	}

	_, err = svc.UserFromToken(ctx, "not-a-token")
	if !errors.Is(err, models.ErrUnauthorized) || !errors.Is(err, models.ErrInvalidToken) {
		t.Errorf("garbage token: expected ErrUnauthorized and ErrInvalidToken, got %v", err)
	}
}

func TestUserFromToken_DeletedUser(t *testing.T) {
	db := storagetest.New(t)
	svc, _ := newUserService(t, db)
	user := seedUser(t, svc, "test@example.com", "Test")
	ctx := context.Background()

	out, err := svc.IssueToken(ctx, &models.TokenCreateRequest{Email: "test@example.com", Password: "testpass123"})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := db.Exec(ctx, "test", `DELETE FROM users WHERE id = ?`, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	_, err = svc.UserFromToken(ctx, out.Access)
	if !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if errors.Is(err, models.ErrInvalidToken) {
		t.Error("a valid token for a deleted user is not an invalid token")
	}
}

func TestListUsers(t *testing.T) {
	svc, _ := newUserService(t, storagetest.New(t))

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected empty list, got %d", len(users))
	}

	seedUser(t, svc, "a@example.com", "A")
	seedUser(t, svc, "b@example.com", "B")

	users, err = svc.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 || users[0].Email != "a@example.com" || users[1].Email != "b@example.com" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestUpdateName(t *testing.T) {
	svc, _ := newUserService(t, storagetest.New(t))
	ctx := context.Background()
	alice := seedUser(t, svc, "alice@example.com", "Alice")
	bob := seedUser(t, svc, "bob@example.com", "Bob")
	admin, err := svc.CreateSuperuser(ctx, "admin@example.com", "Admin", "adminpass")
	if err != nil {
		t.Fatalf("CreateSuperuser failed: %v", err)
	}

	updated, err := svc.UpdateName(ctx, alice, alice.ID, "Alice Updated")
	if err != nil {
		t.Fatalf("self update failed: %v", err)
	}
	if updated.Name != "Alice Updated" {
		t.Errorf("name = %q", updated.Name)
	}

	if _, err := svc.UpdateName(ctx, bob, alice.ID, "Hacked"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("other user: expected ErrForbidden, got %v", err)
	}

	if _, err := svc.UpdateName(ctx, admin, bob.ID, "Robert"); err != nil {
		t.Errorf("staff update failed: %v", err)
	}

	if _, err := svc.UpdateName(ctx, admin, 9999, "Ghost"); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("missing user: expected ErrUserNotFound, got %v", err)
	}

	if _, err := svc.UpdateName(ctx, alice, alice.ID, "  "); !errors.Is(err, models.ErrInvalidRequest) {
		t.Errorf("blank name: expected ErrInvalidRequest, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc, _ := newUserService(t, storagetest.New(t))
	ctx := context.Background()
	user := seedUser(t, svc, "test@example.com", "Test")

	if _, err := svc.UpdatePassword(ctx, user, user.ID, "abc"); !errors.Is(err, models.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := svc.UpdatePassword(ctx, user, user.ID, strings.Repeat("é", 40)); !errors.Is(err, models.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	if _, err := svc.UpdatePassword(ctx, user, user.ID, "newpassword"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "test@example.com", "testpass123"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "test@example.com", "newpassword"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}
