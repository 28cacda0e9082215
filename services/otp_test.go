package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenshare-backend/models"
	"expenshare-backend/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisOTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisOTPStore(rdb), mr
}

func TestRedisOTPStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	otp := models.OTPRecord{Email: "a@example.com", CodeHash: "hash"}
	if err := store.SaveOTP(ctx, &otp, time.Minute); err != nil {
		t.Fatalf("SaveOTP: %v", err)
	}
	if otp.ID == uuid.Nil {
		t.Fatal("SaveOTP did not assign an id")
	}
	got, err := store.GetOTP(ctx, otp.ID)
	if err != nil || got.CodeHash != "hash" {
		t.Fatalf("GetOTP = %+v, %v", got, err)
	}
	if ttl := mr.TTL(otpKey(otp.ID)); ttl != time.Minute {
		t.Errorf("otp ttl = %v, want 1m", ttl)
	}

	reg := models.PendingRegistration{Email: "a@example.com", UserName: "a"}
	if err := store.SaveRegistration(ctx, &reg, time.Minute); err != nil {
		t.Fatalf("SaveRegistration: %v", err)
	}
	mr.FastForward(30 * time.Second)
	if err := store.MarkVerified(ctx, reg.ID); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}
	if ttl := mr.TTL(registrationKey(reg.ID)); ttl != 30*time.Second {
		t.Errorf("MarkVerified reset ttl to %v", ttl)
	}
	loaded, err := store.GetRegistration(ctx, reg.ID)
	if err != nil || !loaded.Verified {
		t.Fatalf("GetRegistration = %+v, %v", loaded, err)
	}

	mr.FastForward(time.Minute)
	if _, err := store.GetOTP(ctx, otp.ID); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("expired otp err = %v, want ErrOTPNotFound", err)
	}
	if _, err := store.GetRegistration(ctx, reg.ID); !errors.Is(err, ErrRegistrationExpired) {
		t.Errorf("expired registration err = %v, want ErrRegistrationExpired", err)
	}
	if err := store.MarkVerified(ctx, reg.ID); !errors.Is(err, ErrRegistrationExpired) {
		t.Errorf("MarkVerified expired err = %v", err)
	}
}

func TestDBOTPStoreExpiryAndSweep(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	store := NewDBOTPStore(db)

	live := models.OTPRecord{Email: "live@example.com", CodeHash: "h"}
	if err := store.SaveOTP(ctx, &live, time.Hour); err != nil {
		t.Fatalf("SaveOTP: %v", err)
	}
	dead := models.OTPRecord{Email: "dead@example.com", CodeHash: "h"}
	if err := store.SaveOTP(ctx, &dead, -time.Minute); err != nil {
		t.Fatalf("SaveOTP: %v", err)
	}
	deadReg := models.PendingRegistration{Email: "dead@example.com", UserName: "dead", PasswordHash: "p"}
	if err := store.SaveRegistration(ctx, &deadReg, -time.Minute); err != nil {
		t.Fatalf("SaveRegistration: %v", err)
	}

	if _, err := store.GetOTP(ctx, live.ID); err != nil {
		t.Errorf("live otp: %v", err)
	}
	if _, err := store.GetOTP(ctx, dead.ID); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("expired otp err = %v, want ErrOTPNotFound", err)
	}
	if err := store.MarkVerified(ctx, deadReg.ID); !errors.Is(err, ErrRegistrationExpired) {
		t.Errorf("MarkVerified expired err = %v", err)
	}

	removed, err := store.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if removed != 2 {
		t.Errorf("swept %d records, want 2", removed)
	}
	var count int64
	db.Model(&models.OTPRecord{}).Count(&count)
	if count != 1 {
		t.Errorf("%d otp rows left, want 1", count)
	}
}
