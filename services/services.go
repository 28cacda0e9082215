package services

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the optional collaborators. Nil fields switch the
// matching channel off.
type Options struct {
	Events  Publisher
	Push    Pusher
	Mail    Mailer
	OTPs    OTPStore
	OTPTTL  time.Duration
	AppName string
	AppURL  string
}

// Services is every domain service sharing one database and one set of
// group locks.
type Services struct {
	Auth          *AuthService
	Gate          *MembershipGate
	Ledger        *Ledger
	Invitations   *InvitationService
	Activity      *ActivityService
	Transactions  *TransactionService
	Notifications *NotificationService
}

func New(db *gorm.DB, log *zap.Logger, opts Options) *Services {
	if opts.OTPs == nil {
		opts.OTPs = NewDBOTPStore(db)
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}

	runner := &groupRunner{db: db, locks: newGroupLocks()}
	notify := &NotificationService{
		db:      db,
		events:  opts.Events,
		push:    opts.Push,
		mail:    opts.Mail,
		appName: opts.AppName,
		appURL:  opts.AppURL,
		otpTTL:  opts.OTPTTL,
		log:     log.Named("notify"),
	}
	gate := &MembershipGate{db: db, runner: runner, notify: notify, log: log.Named("groups")}

	return &Services{
		Auth:          &AuthService{db: db, otps: opts.OTPs, otpTTL: opts.OTPTTL, notify: notify, log: log.Named("auth")},
		Gate:          gate,
		Ledger:        &Ledger{db: db, runner: runner, gate: gate, notify: notify, log: log.Named("ledger")},
		Invitations:   &InvitationService{db: db, runner: runner, notify: notify, log: log.Named("invitations")},
		Activity:      &ActivityService{db: db, gate: gate},
		Transactions:  &TransactionService{db: db, log: log.Named("transactions")},
		Notifications: notify,
	}
}
