//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"ai-assistant-backend/internal/domain"
	"ai-assistant-backend/internal/domain/model"
)

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewPostgresUserRepo(testPool)
	ctx := context.Background()

	t.Run("should perform full CRUD cycle", func(t *testing.T) {
		cleanup(t)

		newUser, err := model.NewUser("", "integration_user", "it@example.com", "hash", model.RoleUser)
		if err != nil {
			t.Fatalf("model.NewUser() failed: %v", err)
		}
		if err := repo.Save(ctx, nil, newUser); err != nil {
			t.Fatalf("Failed to save new user: %v", err)
		}

		found, err := repo.FindByUsername(ctx, nil, "integration_user")
		if err != nil {
			t.Fatalf("Failed to find user by username: %v", err)
		}
		if found.ID != newUser.ID {
			t.Errorf("Expected user ID to be %s, got %s", newUser.ID, found.ID)
		}
		if found.Role != model.RoleUser {
			t.Errorf("Expected role user, got %s", found.Role)
		}

		found.Username = "updated_user"
		found.Extend(30)
		if err := repo.Save(ctx, nil, found); err != nil {
			t.Fatalf("Failed to update user: %v", err)
		}

		updated, err := repo.FindByID(ctx, nil, found.ID)
		if err != nil {
			t.Fatalf("Failed to find user by ID: %v", err)
		}
		if updated.Username != "updated_user" {
			t.Errorf("Expected username to be 'updated_user', got '%s'", updated.Username)
		}

		if err := repo.Delete(ctx, nil, found.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.FindByID(ctx, nil, found.ID); !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound after delete, got %v", err)
		}
	})

	t.Run("should reject duplicate usernames and emails", func(t *testing.T) {
		cleanup(t)

		u1, _ := model.NewUser("", "dup", "a@example.com", "hash", model.RoleUser)
		u2, _ := model.NewUser("", "dup", "b@example.com", "hash", model.RoleUser)
		u3, _ := model.NewUser("", "other", "a@example.com", "hash", model.RoleUser)
		if err := repo.Save(ctx, nil, u1); err != nil {
			t.Fatalf("Save u1 failed: %v", err)
		}
		if err := repo.Save(ctx, nil, u2); !errors.Is(err, domain.ErrUsernameTaken) {
			t.Errorf("expected ErrUsernameTaken, got %v", err)
		}
		if err := repo.Save(ctx, nil, u3); !errors.Is(err, domain.ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("should list and count users", func(t *testing.T) {
		cleanup(t)

		for _, name := range []string{"u1", "u2", "u3"} {
			u, _ := model.NewUser("", name, name+"@example.com", "hash", model.RoleUser)
			if err := repo.Save(ctx, nil, u); err != nil {
				t.Fatalf("Save %s failed: %v", name, err)
			}
		}
		total, err := repo.CountUsers(ctx, nil)
		if err != nil {
			t.Fatalf("CountUsers failed: %v", err)
		}
		if total != 3 {
			t.Errorf("expected total count to be 3, but got %d", total)
		}
		page, err := repo.List(ctx, nil, 1, 1)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(page) != 1 {
			t.Errorf("expected one user on the page, got %d", len(page))
		}
	})
}
