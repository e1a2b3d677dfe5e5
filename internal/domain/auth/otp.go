package auth

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/go-faster/errors"
)

// OTPTTL is how long a one-time code stays valid after issuance.
const OTPTTL = 10 * time.Minute

// ErrInvalidOTP covers unknown and expired codes alike, so callers cannot
// probe which emails have outstanding codes.
var ErrInvalidOTP = errors.New("invalid or expired OTP")

// OTP is a one-time numeric code bound to an email address. A new code for
// the same email replaces the previous one.
type OTP struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is past its expiry at the given time.
func (o *OTP) Expired(now time.Time) bool {
	return o.ExpiresAt.Before(now)
}

// OTPRepository defines persistence operations for one-time codes.
type OTPRepository interface {
	// Upsert stores the code, replacing any previous code for the email.
	Upsert(ctx context.Context, o *OTP) error
	// Find returns the stored code matching email and code, or ErrInvalidOTP.
	Find(ctx context.Context, email, code string) (*OTP, error)
	Delete(ctx context.Context, email, code string) error
}

// GenerateCode returns a random 6-digit numeric code.
func GenerateCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random")
	}
	code := make([]byte, 6)
	for i, b := range buf {
		code[i] = '0' + b%10
	}
	return string(code), nil
}

// Mailer delivers one-time codes to users. Implementations live outside the
// domain; delivery failures on registration are logged, not fatal.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}
