package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Miura55/freee-labor-bot/internal/server/repository"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

func TestUsersLifecycle(t *testing.T) {
	repo, err := New("file:repo_users_lifecycle?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	ctx := context.Background()

	if err := repo.CreateUser(ctx, models.UserRecord{UserID: "U1", EmployeeID: "E100"}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetUser(ctx, "U1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.EmployeeID != "E100" || got.AwaitingCorrection {
		t.Fatalf("bad user: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}

	if err := repo.SetAwaitingCorrection(ctx, "U1", true); err != nil {
		t.Fatalf("set awaiting: %v", err)
	}
	got, _ = repo.GetUser(ctx, "U1")
	if !got.AwaitingCorrection {
		t.Fatalf("awaiting flag not persisted")
	}
	if got.EmployeeID != "E100" {
		t.Fatalf("employee id changed: %q", got.EmployeeID)
	}

	if err := repo.DeleteUser(ctx, "U1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetUser(ctx, "U1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestTokensUpsert(t *testing.T) {
	repo, err := New("file:repo_tokens_upsert?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	ctx := context.Background()

	if _, err := repo.GetToken(ctx, "1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	exp := time.Now().Add(6 * time.Hour).UTC().Truncate(time.Second)
	if err := repo.PutToken(ctx, models.BearerToken{TenantID: "1", AccessToken: "a1", RefreshToken: "r1", ExpiresAt: exp}); err != nil {
		t.Fatal(err)
	}
	if err := repo.PutToken(ctx, models.BearerToken{TenantID: "1", AccessToken: "a2", RefreshToken: "r2", ExpiresAt: exp}); err != nil {
		t.Fatal(err)
	}
	tok, err := repo.GetToken(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "a2" || tok.RefreshToken != "r2" {
		t.Fatalf("token not replaced: %+v", tok)
	}
	if !tok.ExpiresAt.Equal(exp) {
		t.Fatalf("expires_at: got %v want %v", tok.ExpiresAt, exp)
	}
}
