package storage

import (
	"database/sql"
	"time"
)

// User represents a row in the users table. Optional columns keep their
// database nullability; presentation defaults live in the profile resolver.
type User struct {
	UserID            int64
	FirstName         sql.NullString
	ZodiacSign        sql.NullString
	SubscriptionUntil sql.NullTime
	FreeReadingsUsed  int64
	ReferralBonusDays int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
