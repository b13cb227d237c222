package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"bloodbank/m/domain"
)

// ErrAccountNotFound is returned when no account matches a username.
var ErrAccountNotFound = errors.New("account not found")

// dummyHash is compared against when the username is unknown so that a
// failed login costs the same either way.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("bloodbank-dummy-password"), bcrypt.DefaultCost)

// AccountStore holds staff login credentials.
type AccountStore struct {
	db *sqlx.DB
}

func NewAccountStore(db *sqlx.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Get(ctx context.Context, username string) (domain.StaffAccount, error) {
	var account domain.StaffAccount
	err := s.db.GetContext(ctx, &account, s.db.Rebind(`SELECT username, password_hash FROM staff_accounts WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return account, ErrAccountNotFound
	}
	if err != nil {
		return account, fmt.Errorf("get account %q: %w", username, err)
	}
	return account, nil
}

// SetPassword creates the account or replaces its password.
func (s *AccountStore) SetPassword(ctx context.Context, username, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO staff_accounts (username, password_hash) VALUES (?, ?)
                ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`), username, string(hashed))
	if err != nil {
		return fmt.Errorf("save account %q: %w", username, err)
	}
	return nil
}

// EnsureAccount creates the account with password only if it does not exist
// yet. It reports whether an account was created.
func (s *AccountStore) EnsureAccount(ctx context.Context, username, password string) (bool, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO staff_accounts (username, password_hash) VALUES (?, ?)
                ON CONFLICT (username) DO NOTHING`), username, string(hashed))
	if err != nil {
		return false, fmt.Errorf("ensure account %q: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure account %q: %w", username, err)
	}
	return n > 0, nil
}

// Authenticate verifies password against the stored hash for username. A
// wrong password or unknown username yields false with a nil error.
func (s *AccountStore) Authenticate(ctx context.Context, username, password string) (bool, error) {
	account, err := s.Get(ctx, username)
	if errors.Is(err, ErrAccountNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil, nil
}
