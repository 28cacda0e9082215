package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OTPStore keeps short-lived verification codes and the sign-up data
// waiting on them. Expired records read as missing.
type OTPStore interface {
	SaveOTP(ctx context.Context, rec *models.OTPRecord, ttl time.Duration) error
	GetOTP(ctx context.Context, id uuid.UUID) (*models.OTPRecord, error)
	DeleteOTP(ctx context.Context, id uuid.UUID) error
	SaveRegistration(ctx context.Context, reg *models.PendingRegistration, ttl time.Duration) error
	GetRegistration(ctx context.Context, id uuid.UUID) (*models.PendingRegistration, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	DeleteRegistration(ctx context.Context, id uuid.UUID) error
}

// RedisOTPStore stores JSON values under otp:<id> and registration:<id>
// and lets Redis expire them.
type RedisOTPStore struct {
	rdb *redis.Client
}

func NewRedisOTPStore(rdb *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb}
}

func otpKey(id uuid.UUID) string          { return "otp:" + id.String() }
func registrationKey(id uuid.UUID) string { return "registration:" + id.String() }

func (s *RedisOTPStore) SaveOTP(ctx context.Context, rec *models.OTPRecord, ttl time.Duration) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.ExpiresAt = time.Now().Add(ttl)
	return s.set(ctx, otpKey(rec.ID), rec, ttl)
}

func (s *RedisOTPStore) GetOTP(ctx context.Context, id uuid.UUID) (*models.OTPRecord, error) {
	var rec models.OTPRecord
	if err := s.get(ctx, otpKey(id), &rec); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOTPNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *RedisOTPStore) DeleteOTP(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Del(ctx, otpKey(id)).Err()
}

func (s *RedisOTPStore) SaveRegistration(ctx context.Context, reg *models.PendingRegistration, ttl time.Duration) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	reg.ExpiresAt = time.Now().Add(ttl)
	return s.set(ctx, registrationKey(reg.ID), reg, ttl)
}

func (s *RedisOTPStore) GetRegistration(ctx context.Context, id uuid.UUID) (*models.PendingRegistration, error) {
	var reg models.PendingRegistration
	if err := s.get(ctx, registrationKey(id), &reg); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRegistrationExpired
		}
		return nil, err
	}
	return &reg, nil
}

func (s *RedisOTPStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	reg, err := s.GetRegistration(ctx, id)
	if err != nil {
		return err
	}
	reg.Verified = true
	return s.set(ctx, registrationKey(id), reg, redis.KeepTTL)
}

func (s *RedisOTPStore) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Del(ctx, registrationKey(id)).Err()
}

func (s *RedisOTPStore) set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, ttl).Err()
}

func (s *RedisOTPStore) get(ctx context.Context, key string, v interface{}) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// DBOTPStore keeps the records in Postgres when Redis is unavailable.
// Reads filter on expires_at; SweepExpired removes the leftovers.
type DBOTPStore struct {
	db *gorm.DB
}

func NewDBOTPStore(db *gorm.DB) *DBOTPStore {
	return &DBOTPStore{db: db}
}

func (s *DBOTPStore) SaveOTP(ctx context.Context, rec *models.OTPRecord, ttl time.Duration) error {
	rec.ExpiresAt = time.Now().Add(ttl)
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *DBOTPStore) GetOTP(ctx context.Context, id uuid.UUID) (*models.OTPRecord, error) {
	var rec models.OTPRecord
	err := s.db.WithContext(ctx).Where("id = ? AND expires_at > ?", id, time.Now()).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOTPNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *DBOTPStore) DeleteOTP(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&models.OTPRecord{}, "id = ?", id).Error
}

func (s *DBOTPStore) SaveRegistration(ctx context.Context, reg *models.PendingRegistration, ttl time.Duration) error {
	reg.ExpiresAt = time.Now().Add(ttl)
	return s.db.WithContext(ctx).Create(reg).Error
}

func (s *DBOTPStore) GetRegistration(ctx context.Context, id uuid.UUID) (*models.PendingRegistration, error) {
	var reg models.PendingRegistration
	err := s.db.WithContext(ctx).Where("id = ? AND expires_at > ?", id, time.Now()).First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRegistrationExpired
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *DBOTPStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.PendingRegistration{}).
		Where("id = ? AND expires_at > ?", id, time.Now()).
		Update("verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRegistrationExpired
	}
	return nil
}

func (s *DBOTPStore) DeleteRegistration(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&models.PendingRegistration{}, "id = ?", id).Error
}

// SweepExpired deletes expired codes and registrations.
func (s *DBOTPStore) SweepExpired(ctx context.Context) (int64, error) {
	now := time.Now()
	var removed int64
	for _, model := range []interface{}{&models.OTPRecord{}, &models.PendingRegistration{}} {
		res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(model)
		if res.Error != nil {
			return removed, res.Error
		}
		removed += res.RowsAffected
	}
	return removed, nil
}

// StartOTPSweeper runs SweepExpired on schedule (standard five-field cron
// syntax). Stop the returned cron on shutdown.
func StartOTPSweeper(store *DBOTPStore, schedule string, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		removed, err := store.SweepExpired(ctx)
		if err != nil {
			log.Error("otp sweep failed", zap.Error(err))
			return
		}
		log.Info("expired otp records cleared", zap.Int64("removed", removed))
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
