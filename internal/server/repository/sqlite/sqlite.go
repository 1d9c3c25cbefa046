package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/Miura55/freee-labor-bot/internal/server/repository"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type Repository struct {
	db *sql.DB
}

func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// migrateUp applies the embedded migrations. The migrate instance is not
// closed because closing it would close db as well.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Users

func (r *Repository) CreateUser(ctx context.Context, u models.UserRecord) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO users(user_id, employee_id, awaiting_correction, created_at, updated_at) VALUES(?,?,?,?,?)`,
		u.UserID, u.EmployeeID, u.AwaitingCorrection, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (models.UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT user_id, employee_id, awaiting_correction, created_at, updated_at FROM users WHERE user_id = ?`, userID)
	var u models.UserRecord
	if err := row.Scan(&u.UserID, &u.EmployeeID, &u.AwaitingCorrection, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserRecord{}, repository.ErrNotFound
		}
		return models.UserRecord{}, err
	}
	return u, nil
}

func (r *Repository) SetAwaitingCorrection(ctx context.Context, userID string, awaiting bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET awaiting_correction = ?, updated_at = ? WHERE user_id = ?`, awaiting, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Tokens

func (r *Repository) PutToken(ctx context.Context, t models.BearerToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bearer_tokens(tenant_id, access_token, refresh_token, expires_at, updated_at)
		VALUES(?,?,?,?,?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			access_token=excluded.access_token,
			refresh_token=excluded.refresh_token,
			expires_at=excluded.expires_at,
			updated_at=excluded.updated_at
	`, t.TenantID, t.AccessToken, t.RefreshToken, t.ExpiresAt.UTC(), time.Now().UTC())
	return err
}

func (r *Repository) GetToken(ctx context.Context, tenantID string) (models.BearerToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT tenant_id, access_token, refresh_token, expires_at, updated_at FROM bearer_tokens WHERE tenant_id = ?`, tenantID)
	var t models.BearerToken
	if err := row.Scan(&t.TenantID, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BearerToken{}, repository.ErrNotFound
		}
		return models.BearerToken{}, err
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
