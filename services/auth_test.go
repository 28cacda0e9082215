package services

import (
	"errors"
	"regexp"
	"testing"

	"expenshare-backend/models"

	"github.com/google/uuid"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (f *fixture) mailedCode(email string) string {
	f.t.Helper()
	sent := f.mail.to(email)
	if len(sent) == 0 {
		f.t.Fatalf("no mail sent to %s", email)
	}
	code := codePattern.FindString(sent[len(sent)-1].body)
	if code == "" {
		f.t.Fatalf("no code in mail body")
	}
	return code
}

func TestRegistrationFlow(t *testing.T) {
	f := newFixture(t)

	otpID, regID, err := f.svc.Auth.SendVerificationMail(f.ctx, Signup{
		Email:    " New@Example.com ",
		UserName: "newbie",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("SendVerificationMail: %v", err)
	}
	code := f.mailedCode("new@example.com")

	if _, err := f.svc.Auth.Register(f.ctx, regID); !errors.Is(err, ErrNotVerified) {
		t.Errorf("register before verify err = %v, want ErrNotVerified", err)
	}

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if err := f.svc.Auth.VerifyOTP(f.ctx, otpID, regID, wrong); !errors.Is(err, ErrIncorrectOTP) {
		t.Errorf("wrong code err = %v, want ErrIncorrectOTP", err)
	}
	if err := f.svc.Auth.VerifyOTP(f.ctx, otpID, regID, code); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if err := f.svc.Auth.VerifyOTP(f.ctx, otpID, regID, code); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("reused code err = %v, want ErrOTPNotFound", err)
	}

	user, err := f.svc.Auth.Register(f.ctx, regID)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "new@example.com" || user.UserName != "newbie" {
		t.Errorf("user = %+v", user)
	}
	var member models.Member
	if err := f.db.Where("user_id = ?", user.ID).First(&member).Error; err != nil {
		t.Errorf("no member identity created: %v", err)
	}
	if _, err := f.svc.Auth.Register(f.ctx, regID); !errors.Is(err, ErrRegistrationExpired) {
		t.Errorf("second register err = %v, want ErrRegistrationExpired", err)
	}

	for _, login := range []string{"newbie", "NEW@example.com"} {
		if _, err := f.svc.Auth.Login(f.ctx, login, "secret1"); err != nil {
			t.Errorf("Login(%q): %v", login, err)
		}
	}
	if _, err := f.svc.Auth.Login(f.ctx, "newbie", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password err = %v", err)
	}
	if _, err := f.svc.Auth.Login(f.ctx, "nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestSendVerificationMailRejectsTaken(t *testing.T) {
	f := newFixture(t)
	f.account("taken")

	_, _, err := f.svc.Auth.SendVerificationMail(f.ctx, Signup{Email: "taken@example.com", UserName: "fresh", Password: "secret1"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("email taken err = %v", err)
	}
	_, _, err = f.svc.Auth.SendVerificationMail(f.ctx, Signup{Email: "fresh@example.com", UserName: "taken", Password: "secret1"})
	if !errors.Is(err, ErrUserNameTaken) {
		t.Errorf("username taken err = %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("mail sent for rejected signup")
	}
}

func TestVerifyOTPRequiresMatchingRegistration(t *testing.T) {
	f := newFixture(t)

	otpA, _, err := f.svc.Auth.SendVerificationMail(f.ctx, Signup{Email: "a@example.com", UserName: "a", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	_, regB, err := f.svc.Auth.SendVerificationMail(f.ctx, Signup{Email: "b@example.com", UserName: "b", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Auth.VerifyOTP(f.ctx, otpA, regB, f.mailedCode("a@example.com")); !errors.Is(err, ErrIncorrectOTP) {
		t.Errorf("cross verification err = %v, want ErrIncorrectOTP", err)
	}
	if err := f.svc.Auth.VerifyOTP(f.ctx, uuid.New(), regB, "123456"); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("unknown otp err = %v, want ErrOTPNotFound", err)
	}
}

func TestSearchUsersAndFCMToken(t *testing.T) {
	f := newFixture(t)
	me := f.account("alice")
	f.account("alfred")
	f.account("bob")

	users, err := f.svc.Auth.SearchUsers(f.ctx, me.ID, "AL", 10)
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(users) != 1 || users[0].UserName != "alfred" {
		t.Errorf("search = %+v, want only alfred", users)
	}

	if err := f.svc.Auth.UpdateFCMToken(f.ctx, me.ID, "device-token"); err != nil {
		t.Fatalf("UpdateFCMToken: %v", err)
	}
	user, err := f.svc.Auth.Me(f.ctx, me.ID)
	if err != nil || user.FCMToken != "device-token" {
		t.Errorf("Me = %+v, %v", user, err)
	}
	if err := f.svc.Auth.UpdateFCMToken(f.ctx, uuid.New(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown account err = %v", err)
	}
}
