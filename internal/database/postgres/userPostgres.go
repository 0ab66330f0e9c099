package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ticket-office/internal/entity"
)

const pqUniqueViolation = "23505"

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, role, account_verified, name, login_fail_count, external_account_id, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Verified,
		&user.Name,
		&user.LoginFailCount,
		&user.ExternalAccountID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, account_verified, name, login_fail_count, external_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Verified,
		user.Name,
		user.LoginFailCount,
		user.ExternalAccountID,
		user.CreatedAt,
	).Scan(&user.ID)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
		return entity.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrUnknownItem
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetAll(ctx context.Context) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrUnknownItem
	}
	return nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.updateField(ctx, id, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash)
}

func (r *userRepository) UpdateName(ctx context.Context, id int64, name string) error {
	return r.updateField(ctx, id, `UPDATE users SET name = $1 WHERE id = $2`, name)
}

func (r *userRepository) UpdateRole(ctx context.Context, id int64, role entity.Role) error {
	return r.updateField(ctx, id, `UPDATE users SET role = $1 WHERE id = $2`, string(role))
}

func (r *userRepository) updateField(ctx context.Context, id int64, query string, value interface{}) error {
	result, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrUnknownItem
	}
	return nil
}

// IncrementLoginFail bumps the counter in a single statement so concurrent
// failed attempts never lose an increment.
func (r *userRepository) IncrementLoginFail(ctx context.Context, id int64) (int, error) {
	query := `UPDATE users SET login_fail_count = login_fail_count + 1 WHERE id = $1 RETURNING login_fail_count`

	var count int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, entity.ErrUnknownItem
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment login failures: %w", err)
	}
	return count, nil
}

func (r *userRepository) SetLoginFailCount(ctx context.Context, id int64, count int) error {
	return r.updateField(ctx, id, `UPDATE users SET login_fail_count = $1 WHERE id = $2`, count)
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) MarkVerified(ctx context.Context, email string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET account_verified = TRUE WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrUnknownItem
	}
	return nil
}

// GetOrCreateByExternalID resolves a provider-side account id to a local
// user, creating a placeholder row (no role, no email) on first sight. The
// unique constraint on external_account_id makes concurrent first logins
// safe: the loser of the race re-reads the winner's row.
func (r *userRepository) GetOrCreateByExternalID(ctx context.Context, externalID string) (*entity.User, error) {
	user, err := r.getByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	query := `
		INSERT INTO users (account_verified, login_fail_count, external_account_id, created_at)
		VALUES (FALSE, 0, $1, $2)
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRowContext(ctx, query, externalID, time.Now()))
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
		// Lost the creation race; the row exists now.
		return r.getByExternalID(ctx, externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create external user: %w", err)
	}
	return created, nil
}

func (r *userRepository) getByExternalID(ctx context.Context, externalID string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_account_id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by external account: %w", err)
	}
	return user, nil
}
