package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// SQLiteStorage handles all database operations.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLiteStorage instance over an open pool.
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

// EnsureUser creates the user row if it does not exist yet and refreshes the
// display name when it does.
func (s *SQLiteStorage) EnsureUser(ctx context.Context, userID int64, firstName string) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	query := `
		INSERT INTO users (user_id, first_name)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			first_name = excluded.first_name,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.ExecContext(ctx, query, userID, firstName)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by their Telegram ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, userID int64) (*User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			user_id, first_name, zodiac_sign, subscription_until,
			free_readings_used, referral_bonus_days,
			created_at, updated_at
		FROM users
		WHERE user_id = ?`,
		userID).Scan(
		&user.UserID,
		&user.FirstName,
		&user.ZodiacSign,
		&user.SubscriptionUntil,
		&user.FreeReadingsUsed,
		&user.ReferralBonusDays,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found with ID %d", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// SetZodiacSign updates the stored zodiac key for a user.
func (s *SQLiteStorage) SetZodiacSign(ctx context.Context, userID int64, sign string) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if sign == "" {
		return fmt.Errorf("%w: zodiac sign cannot be empty", ErrInvalidInput)
	}

	query := `
		UPDATE users
		SET zodiac_sign = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, sign, userID)
	if err != nil {
		return fmt.Errorf("failed to set zodiac sign: %w", err)
	}
	return requireRow(result, userID)
}

// IncrementReadingsUsed bumps the usage counter for a user by one.
func (s *SQLiteStorage) IncrementReadingsUsed(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	query := `
		UPDATE users
		SET free_readings_used = free_readings_used + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to increment readings: %w", err)
	}
	return requireRow(result, userID)
}

// ExtendSubscription pushes the subscription expiry forward by the given
// number of days. An expired or absent subscription extends from now.
func (s *SQLiteStorage) ExtendSubscription(ctx context.Context, userID int64, days int) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current sql.NullTime
	err = tx.QueryRowContext(ctx,
		"SELECT subscription_until FROM users WHERE user_id = ?",
		userID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: user not found with ID %d", ErrNotFound, userID)
		}
		return fmt.Errorf("failed to read subscription: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	base := now
	if current.Valid && current.Time.After(now) {
		base = current.Time.UTC()
	}
	until := base.Add(time.Duration(days) * 24 * time.Hour)

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET subscription_until = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`,
		until, userID)
	if err != nil {
		return fmt.Errorf("failed to extend subscription: %w", err)
	}

	return tx.Commit()
}

// AddReferralBonusDays credits bonus days earned through referrals.
func (s *SQLiteStorage) AddReferralBonusDays(ctx context.Context, userID int64, days int) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if days <= 0 {
		return fmt.Errorf("%w: bonus days must be positive", ErrInvalidInput)
	}

	query := `
		UPDATE users
		SET referral_bonus_days = referral_bonus_days + ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, days, userID)
	if err != nil {
		return fmt.Errorf("failed to add bonus days: %w", err)
	}
	return requireRow(result, userID)
}

// AddReferral records that referredID joined through referrerID's link.
// Repeated inserts of the same pair are ignored.
func (s *SQLiteStorage) AddReferral(ctx context.Context, referrerID, referredID int64) error {
	if referrerID <= 0 || referredID <= 0 {
		return fmt.Errorf("%w: referral IDs must be positive", ErrInvalidInput)
	}
	if referrerID == referredID {
		return fmt.Errorf("%w: user cannot refer themselves", ErrInvalidInput)
	}

	query := `INSERT OR IGNORE INTO referrals (referrer_id, referred_id) VALUES (?, ?)`
	_, err := s.db.ExecContext(ctx, query, referrerID, referredID)
	if err != nil {
		return fmt.Errorf("failed to add referral: %w", err)
	}
	return nil
}

// CountReferrals returns how many users joined through the given referrer.
func (s *SQLiteStorage) CountReferrals(ctx context.Context, referrerID int64) (int64, error) {
	if referrerID <= 0 {
		return 0, fmt.Errorf("%w: referrer ID must be positive", ErrInvalidInput)
	}

	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM referrals WHERE referrer_id = ?",
		referrerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

// RecordInvoice appends an issued invoice to the ledger.
func (s *SQLiteStorage) RecordInvoice(ctx context.Context, id string, userID int64, product string, amount int) error {
	if id == "" {
		return fmt.Errorf("%w: invoice ID cannot be empty", ErrInvalidInput)
	}
	if userID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if product == "" {
		return fmt.Errorf("%w: product cannot be empty", ErrInvalidInput)
	}

	query := `INSERT INTO invoices (id, user_id, product, amount) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, id, userID, product, amount)
	if err != nil {
		return fmt.Errorf("failed to record invoice: %w", err)
	}
	return nil
}

func requireRow(result sql.Result, userID int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user not found with ID %d", ErrNotFound, userID)
	}
	return nil
}
