package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/prayagtech/storefront/internal/otp"
	"github.com/prayagtech/storefront/internal/settings"
	"github.com/prayagtech/storefront/internal/users"
	pkgauth "github.com/prayagtech/storefront/pkg/auth"
	"github.com/prayagtech/storefront/pkg/auth/session"
	"github.com/prayagtech/storefront/pkg/config"
	"github.com/prayagtech/storefront/pkg/db"
	"github.com/prayagtech/storefront/pkg/db/models"
	"github.com/prayagtech/storefront/pkg/enums"
	pkgerrors "github.com/prayagtech/storefront/pkg/errors"
	"github.com/prayagtech/storefront/pkg/logger"
	"github.com/prayagtech/storefront/pkg/security"
)

// sessionRegistry is the Redis-backed jti registry seam.
type sessionRegistry interface {
	Register(ctx context.Context, accessID string) error
	Revoke(ctx context.Context, accessID string) error
}

// Session is a minted token plus the user it represents.
type Session struct {
	Token string
	User  *models.User
}

// Service handles registration, both login paths, and logout.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	LoginWithPassword(ctx context.Context, input PasswordLoginInput) (*Session, error)
	RequestOTP(ctx context.Context, phone string) error
	LoginWithOTP(ctx context.Context, phone, code string) (*Session, error)
	Logout(ctx context.Context, jti string) error
	CurrentUser(ctx context.Context, claims *pkgauth.SessionTokenClaims) (*models.User, error)
}

// RegisterInput is the payload for email+password signup.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required"`
}

// PasswordLoginInput is the payload for email+password login.
type PasswordLoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type service struct {
	users    users.Repository
	otp      otp.Service
	settings settings.Service
	sessions sessionRegistry
	logger   *logger.Logger

	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// Params collects the service dependencies.
type Params struct {
	Users       users.Repository
	OTP         otp.Service
	Settings    settings.Service
	Sessions    sessionRegistry
	Logger      *logger.Logger
	JWTConfig   config.JWTConfig
	PasswordCfg config.PasswordConfig
}

// NewService builds the auth service.
func NewService(p Params) (Service, error) {
	if p.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if p.OTP == nil {
		return nil, fmt.Errorf("otp service required")
	}
	if p.Settings == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if p.Sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:       p.Users,
		otp:         p.OTP,
		settings:    p.Settings,
		sessions:    p.Sessions,
		logger:      p.Logger,
		jwtCfg:      p.JWTConfig,
		passwordCfg: p.PasswordCfg,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := s.requirePasswordLogin(ctx); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        &email,
		PasswordHash: &hash,
		Name:         strings.TrimSpace(input.Name),
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	})
	if db.IsUniqueViolation(err) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered")
	return s.issueSession(ctx, user)
}

func (s *service) LoginWithPassword(ctx context.Context, input PasswordLoginInput) (*Session, error) {
	if err := s.requirePasswordLogin(ctx); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPassword(input.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, invalidCredentials()
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user)
}

func (s *service) RequestOTP(ctx context.Context, phone string) error {
	if err := s.requireOTPLogin(ctx); err != nil {
		return err
	}
	return s.otp.Request(ctx, phone)
}

func (s *service) LoginWithOTP(ctx context.Context, phone, code string) (*Session, error) {
	if err := s.requireOTPLogin(ctx); err != nil {
		return nil, err
	}
	user, err := s.otp.Verify(ctx, phone, code)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user)
}

func (s *service) Logout(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, jti)
}

// CurrentUser resolves the session claims to a live account.
func (s *service) CurrentUser(ctx context.Context, claims *pkgauth.SessionTokenClaims) (*models.User, error) {
	if claims == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}
	return user, nil
}

func (s *service) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	jti := session.NewAccessID()
	token, err := pkgauth.MintSessionToken(s.jwtCfg, time.Now(), pkgauth.SessionTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting session token")
	}
	if err := s.sessions.Register(ctx, jti); err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func (s *service) requirePasswordLogin(ctx context.Context) error {
	row, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !row.EnablePasswordLogin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "password login is disabled")
	}
	return nil
}

func (s *service) requireOTPLogin(ctx context.Context) error {
	row, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !row.EnableOTPLogin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "otp login is disabled")
	}
	return nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
