package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Ledger and membership failures. Every one of them leaves stored state
// unchanged; match with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotAMember             = errors.New("not a member of this group")
	ErrNotAuthorized          = errors.New("not authorized for this action")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNoSuchBalance          = errors.New("no outstanding balance to settle")
	ErrOverSettlement         = errors.New("settlement exceeds outstanding balance")
	ErrDuplicateInvitation    = errors.New("invitation already pending")
	ErrAlreadyMember          = errors.New("account is already a member")
	ErrInvitationClosed       = errors.New("invitation already answered")
	ErrOutstandingBalance     = errors.New("member has outstanding balances")
	ErrConcurrentModification = errors.New("concurrent modification, retry")
)

// Auth failures
var (
	ErrEmailTaken          = errors.New("email should be unique")
	ErrUserNameTaken       = errors.New("username should be unique")
	ErrOTPNotFound         = errors.New("otp not found or expired")
	ErrIncorrectOTP        = errors.New("incorrect otp")
	ErrRegistrationExpired = errors.New("registration data expired")
	ErrNotVerified         = errors.New("email not verified")
	ErrInvalidCredentials  = errors.New("invalid username/email or password")
)

// isRetryable reports Postgres aborts that a retry can resolve:
// serialization_failure, deadlock_detected and a unique_violation raised
// by a racing insert of the same pair row.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return true
		}
	}
	return false
}
