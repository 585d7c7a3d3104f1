package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tourbook/tourbook/internal/database"
	"github.com/tourbook/tourbook/internal/models"
)

// userColumns is the canonical select list shared by every query.
const userColumns = `id, name, email, photo, password_hash, role, email_verified, active,
	password_changed_at, password_reset_token_hash, password_reset_expires_at,
	email_verification_token_hash, email_verification_expires_at, created_at, updated_at`

// UserRepository is the credential store. Every default query excludes
// soft-deleted rows: the "active" filter is applied here, explicitly, not
// through any query-hook mechanism.
type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning user rows (single row or rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Name, &user.Email, &user.Photo, &user.PasswordHash,
		&user.Role, &user.EmailVerified, &user.Active,
		&user.PasswordChangedAt,
		&user.PasswordResetTokenHash, &user.PasswordResetExpiresAt,
		&user.EmailVerificationTokenHash, &user.EmailVerificationExpiresAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Active = true

	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Photo == "" {
		user.Photo = "default.jpg"
	}

	query := `
		INSERT INTO users (id, name, email, photo, password_hash, role, email_verified, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userColumns

	created, err := scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.Photo, user.PasswordHash,
		user.Role, user.EmailVerified, user.Active, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND active`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND active`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

// GetByVerificationTokenHash finds the user holding the given pending
// verification digest. Expiry is NOT checked here: the caller
// distinguishes expired from unknown for user-facing messaging.
func (r *UserRepository) GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE email_verification_token_hash = $1 AND active`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, tokenHash))
}

// GetByResetTokenHash finds the user holding the given pending password
// reset digest, expired or not.
func (r *UserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE password_reset_token_hash = $1 AND active`

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, tokenHash))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE active ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// UpdateProfile changes the fields a user may edit about themselves.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name, email, photo string) (*models.User, error) {
	query := `
		UPDATE users SET name = $1, email = $2, photo = $3, updated_at = NOW()
		WHERE id = $4 AND active
		RETURNING ` + userColumns

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, name, email, photo, id))
}

// UpdateRole is the admin escape hatch for role changes.
func (r *UserRepository) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	query := `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2 AND active
		RETURNING ` + userColumns

	return scanUserRow(r.db.Pool.QueryRow(ctx, query, role, id))
}

// Deactivate soft-deletes an account. The row survives but drops out of
// every default query.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a row outright. Used by signup rollback and admin
// deletion; normal account removal goes through Deactivate.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetVerificationToken stores a pending verification digest and expiry.
// Both fields move together, keeping the pending-pair invariant.
func (r *UserRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET email_verification_token_hash = $1, email_verification_expires_at = $2, updated_at = NOW()
		WHERE id = $3 AND active`

	result, err := r.db.Pool.Exec(ctx, query, tokenHash, expiresAt, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkEmailVerified flips the verified flag and clears the pending pair
// in one statement, so a redeemed token can never be redeemed again.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET email_verified = TRUE,
		    email_verification_token_hash = NULL,
		    email_verification_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND active`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetResetToken stores a pending password reset digest and expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token_hash = $1, password_reset_expires_at = $2, updated_at = NOW()
		WHERE id = $3 AND active`

	result, err := r.db.Pool.Exec(ctx, query, tokenHash, expiresAt, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearResetToken drops a pending reset pair, leaving no dangling
// unusable reset state after a failed email send.
func (r *UserRepository) ClearResetToken(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET password_reset_token_hash = NULL, password_reset_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND active`

	_, err := r.db.Pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// UpdatePassword swaps in a new hash, stamps the change time, and clears
// any pending reset pair in a single statement.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $1,
		    password_changed_at = $2,
		    password_reset_token_hash = NULL,
		    password_reset_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $3 AND active`

	result, err := r.db.Pool.Exec(ctx, query, passwordHash, changedAt, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CleanupExpiredTokens clears side-channel token pairs whose expiry has
// passed. Returns the number of rows touched.
func (r *UserRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET password_reset_token_hash = CASE WHEN password_reset_expires_at < NOW() THEN NULL ELSE password_reset_token_hash END,
		    password_reset_expires_at = CASE WHEN password_reset_expires_at < NOW() THEN NULL ELSE password_reset_expires_at END,
		    email_verification_token_hash = CASE WHEN email_verification_expires_at < NOW() THEN NULL ELSE email_verification_token_hash END,
		    email_verification_expires_at = CASE WHEN email_verification_expires_at < NOW() THEN NULL ELSE email_verification_expires_at END
		WHERE password_reset_expires_at < NOW() OR email_verification_expires_at < NOW()`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
