package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "astro.db")

	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnsureUser_CreateAndGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.EnsureUser(ctx, 123456, "Анна")
	require.NoError(t, err)

	user, err := s.GetUser(ctx, 123456)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), user.UserID)
	assert.Equal(t, "Анна", user.FirstName.String)
	assert.False(t, user.ZodiacSign.Valid)
	assert.False(t, user.SubscriptionUntil.Valid)
	assert.Zero(t, user.FreeReadingsUsed)
	assert.Zero(t, user.ReferralBonusDays)
	assert.NotZero(t, user.CreatedAt)
	assert.NotZero(t, user.UpdatedAt)
}

func TestEnsureUser_RefreshesName(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, 1, "Старое"))
	require.NoError(t, s.EnsureUser(ctx, 1, "Новое"))

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Новое", user.FirstName.String)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUser_InvalidID(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetUser(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetZodiacSign(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, 1, "Анна"))
	require.NoError(t, s.SetZodiacSign(ctx, 1, "leo"))

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "leo", user.ZodiacSign.String)

	err = s.SetZodiacSign(ctx, 99, "leo")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrementReadingsUsed(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, 1, "Анна"))
	require.NoError(t, s.IncrementReadingsUsed(ctx, 1))
	require.NoError(t, s.IncrementReadingsUsed(ctx, 1))

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.FreeReadingsUsed)

	err = s.IncrementReadingsUsed(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtendSubscription_FromNothing(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, 1, "Анна"))
	require.NoError(t, s.ExtendSubscription(ctx, 1, 30))

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	require.True(t, user.SubscriptionUntil.Valid)

	expected := time.Now().UTC().Add(30 * 24 * time.Hour)
	assert.WithinDuration(t, expected, user.SubscriptionUntil.Time, 5*time.Second)
}

func TestExtendSubscription_Stacks(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, 1, "Анна"))
	require.NoError(t, s.ExtendSubscription(ctx, 1, 30))
	require.NoError(t, s.ExtendSubscription(ctx, 1, 30))

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	require.True(t, user.SubscriptionUntil.Valid)

	expected := time.Now().UTC().Add(60 * 24 * time.Hour)
	assert.WithinDuration(t, expected, user.SubscriptionUntil.Time, 5*time.Second)
}

func TestExtendSubscription_ExpiredRestartsFromNow(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, 1, "Анна"))
	// A negative extension leaves the expiry in the past.
	require.NoError(t, s.ExtendSubscription(ctx, 1, -10))
	require.NoError(t, s.ExtendSubscription(ctx, 1, 30))

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)

	expected := time.Now().UTC().Add(30 * 24 * time.Hour)
	assert.WithinDuration(t, expected, user.SubscriptionUntil.Time, 5*time.Second)
}

func TestExtendSubscription_MissingUser(t *testing.T) {
	s := newTestStorage(t)

	err := s.ExtendSubscription(context.Background(), 99, 30)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReferrals(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.AddReferral(ctx, 1, 2))
	require.NoError(t, s.AddReferral(ctx, 1, 3))
	// Duplicates are ignored.
	require.NoError(t, s.AddReferral(ctx, 1, 2))

	count, err := s.CountReferrals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = s.CountReferrals(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAddReferral_SelfReferral(t *testing.T) {
	s := newTestStorage(t)

	err := s.AddReferral(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddReferralBonusDays(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, 1, "Анна"))
	require.NoError(t, s.AddReferralBonusDays(ctx, 1, 3))
	require.NoError(t, s.AddReferralBonusDays(ctx, 1, 2))

	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ReferralBonusDays)
}

func TestRecordInvoice(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.RecordInvoice(ctx, "inv-1", 1, "subscription", 250))

	err := s.RecordInvoice(ctx, "inv-1", 1, "subscription", 250)
	assert.Error(t, err, "duplicate invoice IDs must be rejected")

	err = s.RecordInvoice(ctx, "", 1, "subscription", 250)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetMetrics(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureUser(ctx, 1, "Анна"))
	require.NoError(t, s.EnsureUser(ctx, 2, "Борис"))
	require.NoError(t, s.ExtendSubscription(ctx, 1, 30))
	require.NoError(t, s.IncrementReadingsUsed(ctx, 1))
	require.NoError(t, s.IncrementReadingsUsed(ctx, 2))
	require.NoError(t, s.IncrementReadingsUsed(ctx, 2))
	require.NoError(t, s.AddReferral(ctx, 1, 2))
	require.NoError(t, s.RecordInvoice(ctx, "inv-1", 1, "subscription", 250))

	m, err := s.GetMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.TotalUsers)
	assert.Equal(t, int64(1), m.PremiumUsers)
	assert.Equal(t, int64(3), m.ReadingsUsed)
	assert.Equal(t, int64(1), m.Referrals)
	assert.Equal(t, int64(1), m.Invoices)
	assert.NotZero(t, m.CollectedAt)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Path = ""
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = cfg
	bad.MaxIdleConns = bad.MaxOpenConns + 1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = cfg
	bad.BusyTimeout = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)
}
