// Package auth implements registration, login, and OTP-based password reset.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sereneleaf/backend/internal/domain/user"
)

// bcryptCost matches the work factor the site has always used for password
// hashes; changing it only affects newly hashed passwords.
const bcryptCost = 12

// Sentinel errors surfaced by the auth service.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// Service implements the authentication flows.
type Service struct {
	users  user.Repository
	otps   OTPRepository
	tokens *TokenIssuer
	mailer Mailer
	now    func() time.Time
}

// NewService creates an auth Service with the required dependencies.
func NewService(users user.Repository, otps OTPRepository, tokens *TokenIssuer, mailer Mailer) *Service {
	return &Service{
		users:  users,
		otps:   otps,
		tokens: tokens,
		mailer: mailer,
		now:    time.Now,
	}
}

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
	Address  string
	Phone    string
}

// Register creates a new account with a bcrypt-hashed password and sends a
// welcome OTP. OTP delivery is best effort: a mail failure does not undo the
// registration.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	role := req.Role
	if role == "" {
		role = user.RoleCustomer
	}
	if !role.Valid() {
		return nil, errors.Errorf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		Role:         role,
		Address:      req.Address,
		Phone:        req.Phone,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	if err := s.sendOTP(ctx, u.Email); err != nil {
		zctx.From(ctx).Warn("Welcome OTP delivery failed",
			zap.String("email", u.Email), zap.Error(err))
	}
	return u, nil
}

// Login verifies credentials and issues an access token. Unknown emails and
// wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, "get user")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", nil, errors.Wrap(err, "issue token")
	}
	return token, u, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.users.UpdatePassword(ctx, u.ID, string(hash))
}

// RequestOTP issues a fresh code for a known account and emails it.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		return err
	}
	return s.sendOTP(ctx, email)
}

// VerifyOTP checks that the code matches and has not expired, without
// consuming it.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	otp, err := s.otps.Find(ctx, normalizeEmail(email), code)
	if err != nil {
		return err
	}
	if otp.Expired(s.now()) {
		return ErrInvalidOTP
	}
	return nil
}

// ResetPassword sets a new password after verifying the OTP, then consumes
// the code.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if err := s.VerifyOTP(ctx, email, code); err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return err
	}

	if err := s.otps.Delete(ctx, email, code); err != nil {
		zctx.From(ctx).Warn("OTP cleanup failed", zap.String("email", email), zap.Error(err))
	}
	return nil
}

// Profile returns the account for the authenticated user.
func (s *Service) Profile(ctx context.Context, userID string) (*user.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) sendOTP(ctx context.Context, email string) error {
	code, err := GenerateCode()
	if err != nil {
		return err
	}
	otp := &OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(OTPTTL),
	}
	if err := s.otps.Upsert(ctx, otp); err != nil {
		return errors.Wrap(err, "store OTP")
	}
	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		return errors.Wrap(err, "send OTP")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
