package profile

import (
	"context"
	"errors"
	"log"
	"time"

	"astroapp-go/internal/metrics"
	"astroapp-go/internal/storage"
	"astroapp-go/internal/zodiac"
)

// defaultName is shown when a user has no stored display name.
const defaultName = "Путник"

// Store is the subset of the storage layer the resolver reads from.
type Store interface {
	GetUser(ctx context.Context, userID int64) (*storage.User, error)
	CountReferrals(ctx context.Context, referrerID int64) (int64, error)
}

// Profile is the normalized view rendered by the Mini App. Field names match
// the JSON contract the frontend expects.
type Profile struct {
	UserID      int64  `json:"userId"`
	UserName    string `json:"userName"`
	Zodiac      string `json:"zodiac"`
	ZodiacEmoji string `json:"zodiacEmoji"`
	IsPremium   bool   `json:"isPremium"`
	FreeUsed    int64  `json:"freeUsed"`
	Readings    int64  `json:"readings"`
	Referrals   int64  `json:"referrals"`
	BonusDays   int64  `json:"bonusDays"`
}

// Resolver builds profile views from storage. It never fails: an unknown user
// and a storage outage both degrade to the zero-value profile so the UI
// always has something to render.
type Resolver struct {
	store       Store
	logger      *log.Logger
	defaultSign zodiac.Sign
	now         func() time.Time
}

// NewResolver creates a Resolver. defaultSign is used when a stored zodiac
// key is absent or unrecognized.
func NewResolver(store Store, defaultSign zodiac.Sign, logger *log.Logger) *Resolver {
	return &Resolver{
		store:       store,
		logger:      logger,
		defaultSign: defaultSign,
		now:         time.Now,
	}
}

// Resolve returns the profile view for a user ID.
func (r *Resolver) Resolve(ctx context.Context, userID int64) Profile {
	p := r.emptyProfile(userID)

	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Printf("profile: failed to load user %d: %v", userID, err)
			metrics.StorageFailures.WithLabelValues("get_user").Inc()
		}
		return p
	}

	if user.FirstName.Valid && user.FirstName.String != "" {
		p.UserName = user.FirstName.String
	}

	sign := r.defaultSign
	if user.ZodiacSign.Valid {
		if s, ok := zodiac.Lookup(user.ZodiacSign.String); ok {
			sign = s
		}
	}
	p.Zodiac = sign.Label
	p.ZodiacEmoji = sign.Emoji

	// Premium only while the expiry is strictly in the future.
	if user.SubscriptionUntil.Valid && user.SubscriptionUntil.Time.After(r.now()) {
		p.IsPremium = true
	}

	p.FreeUsed = user.FreeReadingsUsed
	p.Readings = user.FreeReadingsUsed
	p.BonusDays = user.ReferralBonusDays

	referrals, err := r.store.CountReferrals(ctx, userID)
	if err != nil {
		r.logger.Printf("profile: failed to count referrals for %d: %v", userID, err)
		metrics.StorageFailures.WithLabelValues("count_referrals").Inc()
	} else {
		p.Referrals = referrals
	}

	return p
}

func (r *Resolver) emptyProfile(userID int64) Profile {
	return Profile{
		UserID:      userID,
		UserName:    defaultName,
		Zodiac:      r.defaultSign.Label,
		ZodiacEmoji: r.defaultSign.Emoji,
	}
}
