package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/prayagtech/storefront/internal/users"
	"github.com/prayagtech/storefront/pkg/config"
	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
	"github.com/prayagtech/storefront/pkg/security"
	"github.com/prayagtech/storefront/pkg/sms"
)

const codeDigits = 6

// Limit upstream SMS spend: per-phone sends per hour, on top of the resend
// interval.
const (
	sendLimitPerWindow = 10
	sendLimitWindow    = time.Hour
)

var phoneRe = regexp.MustCompile(`^[0-9]{10}$`)

// rateLimiter is the Redis fixed-window seam.
type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service issues and verifies one-time login codes.
type Service interface {
	Request(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) (*models.User, error)
}

type service struct {
	repo    Repository
	users   users.Repository
	sender  sms.Sender
	limiter rateLimiter
	logger  *logger.Logger

	otpCfg      config.OTPConfig
	passwordCfg config.PasswordConfig
}

// Params collects the service dependencies.
type Params struct {
	Repo        Repository
	Users       users.Repository
	Sender      sms.Sender
	Limiter     rateLimiter
	Logger      *logger.Logger
	OTPConfig   config.OTPConfig
	PasswordCfg config.PasswordConfig
}

// NewService builds the OTP service.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("otp repository required")
	}
	if p.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if p.Sender == nil {
		return nil, fmt.Errorf("sms sender required")
	}
	if p.Limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        p.Repo,
		users:       p.Users,
		sender:      p.Sender,
		limiter:     p.Limiter,
		logger:      p.Logger,
		otpCfg:      p.OTPConfig,
		passwordCfg: p.PasswordCfg,
	}, nil
}

// Request generates a fresh code for the phone, replacing any previous one.
// Sends within the resend interval are rejected.
func (s *service) Request(ctx context.Context, phone string) error {
	normalized, err := normalizePhone(phone)
	if err != nil {
		return err
	}

	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "otp:"+normalized, sendLimitPerWindow, sendLimitWindow)
	if err != nil {
		return err
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many codes requested for this number")
	}

	existing, err := s.repo.FindByPhone(ctx, normalized)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && time.Since(existing.LastSentAt) < s.otpCfg.ResendInterval {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "please wait before requesting another code")
	}

	code, err := generateCode()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating code")
	}
	codeHash, err := security.HashPassword(code, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing code")
	}

	now := time.Now()
	row := &models.Otp{
		Phone:      normalized,
		CodeHash:   codeHash,
		ExpiresAt:  now.Add(s.otpCfg.TTL),
		LastSentAt: now,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return err
	}

	if err := s.sender.Send(ctx, normalized, fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, int(s.otpCfg.TTL.Minutes()))); err != nil {
		return err
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{"phone_suffix": normalized[len(normalized)-4:]}), "otp issued")
	return nil
}

// Verify checks the code, burns the row on success, and returns the matching
// user, creating one on first login.
func (s *service) Verify(ctx context.Context, phone, code string) (*models.User, error) {
	normalized, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.FindByPhone(ctx, normalized)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired code")
	}
	if err != nil {
		return nil, err
	}

	if time.Now().After(row.ExpiresAt) {
		_ = s.repo.DeleteByPhone(ctx, normalized)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired code")
	}
	// The row stays until the expiry sweep reclaims it, so every verify past
	// the cap reports the same refusal.
	if row.Attempts >= s.otpCfg.MaxAttempts {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts; request a new code")
	}

	ok, err := security.VerifyPassword(strings.TrimSpace(code), row.CodeHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying code")
	}
	if !ok {
		if incErr := s.repo.IncrementAttempts(ctx, normalized); incErr != nil {
			return nil, incErr
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid code")
	}

	// Single use: the row is gone before the session is minted.
	if err := s.repo.DeleteByPhone(ctx, normalized); err != nil {
		return nil, err
	}

	return s.findOrCreateUser(ctx, normalized)
}

func (s *service) findOrCreateUser(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.users.FindByPhone(ctx, phone)
	if err == nil {
		if !user.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
		}
		if touchErr := s.users.TouchLastLogin(ctx, user.ID); touchErr != nil {
			return nil, touchErr
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created, err := s.users.Create(ctx, &models.User{
		Phone:    &phone,
		Role:     enums.UserRoleCustomer,
		IsActive: true,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user created via otp login")
	return created, nil
}

func normalizePhone(phone string) (string, error) {
	trimmed := strings.TrimSpace(phone)
	trimmed = strings.TrimPrefix(trimmed, "+91")
	trimmed = strings.ReplaceAll(trimmed, " ", "")
	trimmed = strings.ReplaceAll(trimmed, "-", "")
	if !phoneRe.MatchString(trimmed) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone must be a 10 digit number")
	}
	return trimmed, nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
