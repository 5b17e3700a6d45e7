package otp

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prayagtech/storefront/internal/users"
	"github.com/prayagtech/storefront/pkg/config"
	"github.com/prayagtech/storefront/pkg/db/models"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
)

type capturingSender struct {
	lastPhone   string
	lastMessage string
	sends       int
}

func (c *capturingSender) Send(ctx context.Context, phone, message string) error {
	c.lastPhone = phone
	c.lastMessage = message
	c.sends++
	return nil
}

type stubLimiter struct {
	allow bool
	calls int
}

func (s *stubLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	s.calls++
	return s.allow, 1, nil
}

var codeRe = regexp.MustCompile(`\d{6}`)

func setupOtpTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	otps := `
CREATE TABLE IF NOT EXISTS otps (
  id TEXT PRIMARY KEY,
  phone TEXT NOT NULL UNIQUE,
  code_hash TEXT NOT NULL,
  attempts INTEGER NOT NULL DEFAULT 0,
  expires_at DATETIME NOT NULL,
  last_sent_at DATETIME NOT NULL,
  created_at DATETIME
);`
	usersDDL := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT UNIQUE,
  phone TEXT UNIQUE,
  password_hash TEXT,
  name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(otps).Error)
	require.NoError(t, db.Exec(usersDDL).Error)
	return db
}

func newOtpService(t *testing.T, db *gorm.DB, sender *capturingSender, limiter *stubLimiter) Service {
	t.Helper()
	svc, err := NewService(Params{
		Repo:    NewRepository(db),
		Users:   users.NewRepository(db),
		Sender:  sender,
		Limiter: limiter,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		OTPConfig: config.OTPConfig{
			TTL:            5 * time.Minute,
			ResendInterval: 30 * time.Second,
			MaxAttempts:    5,
		},
		// Light argon params keep the test fast.
		PasswordCfg: config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	})
	require.NoError(t, err)
	return svc
}

func requestCode(t *testing.T, svc Service, sender *capturingSender, phone string) string {
	t.Helper()
	require.NoError(t, svc.Request(context.Background(), phone))
	code := codeRe.FindString(sender.lastMessage)
	require.Len(t, code, 6)
	return code
}

func TestRequestAndVerifyCreatesUser(t *testing.T) {
	db := setupOtpTestDB(t)
	sender := &capturingSender{}
	svc := newOtpService(t, db, sender, &stubLimiter{allow: true})
	ctx := context.Background()

	code := requestCode(t, svc, sender, "+91 98765 43210")
	assert.Equal(t, "9876543210", sender.lastPhone)

	user, err := svc.Verify(ctx, "9876543210", code)
	require.NoError(t, err)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "9876543210", *user.Phone)
	assert.Nil(t, user.PasswordHash, "otp-only accounts carry no password")

	// Single use: the same code no longer works.
	_, err = svc.Verify(ctx, "9876543210", code)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestVerifyExistingUserIsReused(t *testing.T) {
	db := setupOtpTestDB(t)
	sender := &capturingSender{}
	svc := newOtpService(t, db, sender, &stubLimiter{allow: true})
	ctx := context.Background()

	code := requestCode(t, svc, sender, "9876543210")
	first, err := svc.Verify(ctx, "9876543210", code)
	require.NoError(t, err)

	// Next login resolves to the same account.
	time.Sleep(31 * time.Millisecond)
	resetResend(t, db, "9876543210")
	code = requestCode(t, svc, sender, "9876543210")
	second, err := svc.Verify(ctx, "9876543210", code)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.NotNil(t, second.LastLoginAt)
}

func TestWrongCodeCountsAttemptsAndLocksOut(t *testing.T) {
	db := setupOtpTestDB(t)
	sender := &capturingSender{}
	svc := newOtpService(t, db, sender, &stubLimiter{allow: true})
	ctx := context.Background()

	code := requestCode(t, svc, sender, "9876543210")

	for i := 0; i < 5; i++ {
		_, err := svc.Verify(ctx, "9876543210", "000000")
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}

	// Attempt limit exhausted: even the right code is refused, and the row
	// stays for the expiry sweep so every later try reports the same refusal.
	for i := 0; i < 2; i++ {
		_, err := svc.Verify(ctx, "9876543210", code)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeRateLimit, pkgerrors.As(err).Code())
	}

	row, err := NewRepository(db).FindByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, 5, row.Attempts)
}

func TestResendIntervalEnforced(t *testing.T) {
	db := setupOtpTestDB(t)
	sender := &capturingSender{}
	svc := newOtpService(t, db, sender, &stubLimiter{allow: true})
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "9876543210"))

	err := svc.Request(ctx, "9876543210")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeRateLimit, pkgerrors.As(err).Code())
	assert.Equal(t, 1, sender.sends)

	// After the interval a new code goes out and replaces the old one.
	resetResend(t, db, "9876543210")
	oldCode := codeRe.FindString(sender.lastMessage)
	newCode := requestCode(t, svc, sender, "9876543210")
	if oldCode == newCode {
		t.Skip("generated the same code twice; cannot distinguish replacement")
	}
	_, err = svc.Verify(ctx, "9876543210", oldCode)
	require.Error(t, err, "replaced code must stop working")
}

func TestRedisWindowDeniesRequest(t *testing.T) {
	db := setupOtpTestDB(t)
	sender := &capturingSender{}
	limiter := &stubLimiter{allow: false}
	svc := newOtpService(t, db, sender, limiter)

	err := svc.Request(context.Background(), "9876543210")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeRateLimit, pkgerrors.As(err).Code())
	assert.Equal(t, 0, sender.sends)
	assert.Equal(t, 1, limiter.calls)
}

func TestExpiredCodeRejectedAndDeleted(t *testing.T) {
	db := setupOtpTestDB(t)
	sender := &capturingSender{}
	svc := newOtpService(t, db, sender, &stubLimiter{allow: true})
	ctx := context.Background()

	code := requestCode(t, svc, sender, "9876543210")

	require.NoError(t, db.Model(&models.Otp{}).
		Where("phone = ?", "9876543210").
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err := svc.Verify(ctx, "9876543210", code)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = NewRepository(db).FindByPhone(ctx, "9876543210")
	require.Error(t, err)
}

func TestPhoneNormalization(t *testing.T) {
	if _, err := normalizePhone("+91 98765-43210"); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, err := normalizePhone("12345"); err == nil {
		t.Fatal("expected error for short number")
	}
	if _, err := normalizePhone("abcdefghij"); err == nil {
		t.Fatal("expected error for letters")
	}
}

func resetResend(t *testing.T, db *gorm.DB, phone string) {
	t.Helper()
	require.NoError(t, db.Model(&models.Otp{}).
		Where("phone = ?", phone).
		Update("last_sent_at", time.Now().Add(-time.Minute)).Error)
}
