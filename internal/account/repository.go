package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// Sentinel errors for the repository contract. The service maps these to
// the caller-visible apperror kinds; which kind depends on the operation
// (login conflates "no such account" with wrong password, reset flows don't).
var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// mysqlDuplicateKey is the MySQL/MariaDB error number for a unique key
// violation, raised by the unique index on accounts.email.
const mysqlDuplicateKey = 1062

// Repository defines the data access contract for accounts. All SQL lives
// in the concrete implementation -- no SQL leaks out.
//
// Update persists the whole record in a single statement, which is the only
// atomicity this subsystem relies on. Concurrent failed logins against the
// same account can therefore race on the attempt counter (last write wins);
// accepted and documented rather than fixed.
type Repository interface {
	Create(ctx context.Context, acct *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Update(ctx context.Context, acct *Account) error
}

// mariadbRepository implements Repository with hand-written MariaDB queries.
type mariadbRepository struct {
	db *sql.DB
}

// NewRepository creates an account repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &mariadbRepository{db: db}
}

// accountColumns is the shared SELECT column list, kept in one place so the
// scan order can't drift between the two lookup queries.
const accountColumns = `id, username, email, password_hash, session_token,
	login_attempts, lock_until, reset_code, reset_code_expires,
	reset_attempts, reset_lock_until, created_at, updated_at`

// Create inserts a new account row. A duplicate email surfaces as
// ErrDuplicateEmail via the unique index -- uniqueness is enforced at
// creation by the database, not by a pre-check.
func (r *mariadbRepository) Create(ctx context.Context, acct *Account) error {
	query := `INSERT INTO accounts
	          (id, username, email, password_hash, session_token,
	           login_attempts, lock_until, reset_code, reset_code_expires,
	           reset_attempts, reset_lock_until, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		acct.ID,
		acct.Username,
		acct.Email,
		acct.PasswordHash,
		acct.SessionToken,
		acct.LoginAttempts,
		acct.LockUntil,
		acct.ResetCode,
		acct.ResetCodeExpires,
		acct.ResetAttempts,
		acct.ResetLockUntil,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateKey {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	return nil
}

// FindByEmail retrieves an account by its exact email. Emails are stored
// and matched case-sensitively (utf8mb4_bin collation on the column).
func (r *mariadbRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email), "email")
}

// FindByID retrieves an account by its UUID.
func (r *mariadbRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "id")
}

// scanOne scans a single account row, mapping sql.ErrNoRows to ErrNotFound.
func (r *mariadbRepository) scanOne(row *sql.Row, by string) (*Account, error) {
	acct := &Account{}
	err := row.Scan(
		&acct.ID,
		&acct.Username,
		&acct.Email,
		&acct.PasswordHash,
		&acct.SessionToken,
		&acct.LoginAttempts,
		&acct.LockUntil,
		&acct.ResetCode,
		&acct.ResetCodeExpires,
		&acct.ResetAttempts,
		&acct.ResetLockUntil,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by %s: %w", by, err)
	}

	return acct, nil
}

// Update saves the whole record in one statement. Every operation mutates
// and persists the full entity, so partial-column updates would only hide
// which fields a given code path touches.
func (r *mariadbRepository) Update(ctx context.Context, acct *Account) error {
	query := `UPDATE accounts SET
	          username = ?, email = ?, password_hash = ?, session_token = ?,
	          login_attempts = ?, lock_until = ?, reset_code = ?,
	          reset_code_expires = ?, reset_attempts = ?, reset_lock_until = ?,
	          updated_at = NOW()
	          WHERE id = ?`

	// RowsAffected is deliberately not checked: MySQL reports 0 affected
	// rows when the new values equal the old ones, which legitimately
	// happens when a no-op state transition lands within the same second.
	_, err := r.db.ExecContext(ctx, query,
		acct.Username,
		acct.Email,
		acct.PasswordHash,
		acct.SessionToken,
		acct.LoginAttempts,
		acct.LockUntil,
		acct.ResetCode,
		acct.ResetCodeExpires,
		acct.ResetAttempts,
		acct.ResetLockUntil,
		acct.ID,
	)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}

	return nil
}
