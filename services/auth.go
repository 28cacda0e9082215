package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const otpDigits = 6

// Signup is the data collected before the email is verified.
type Signup struct {
	Email          string
	UserName       string
	Password       string
	ProfilePicture string
}

// AuthService registers accounts through an emailed one-time code and
// checks credentials.
type AuthService struct {
	db     *gorm.DB
	otps   OTPStore
	otpTTL time.Duration
	notify *NotificationService
	log    *zap.Logger
}

// SendVerificationMail stores a pending registration and mails a code for
// it. The returned ids go back to the client as cookies.
func (s *AuthService) SendVerificationMail(ctx context.Context, in Signup) (otpID, registrationID uuid.UUID, err error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.UserName = strings.TrimSpace(in.UserName)
	if in.Email == "" || in.UserName == "" || in.Password == "" {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: email, username and password are required", ErrInvalidInput)
	}
	if err := s.checkAvailable(ctx, in.Email, in.UserName); err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := generateOTP()
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("hash otp: %w", err)
	}

	otp := models.OTPRecord{ID: uuid.New(), Email: in.Email, CodeHash: string(codeHash)}
	if err := s.otps.SaveOTP(ctx, &otp, s.otpTTL); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("store otp: %w", err)
	}
	reg := models.PendingRegistration{
		ID:             uuid.New(),
		Email:          in.Email,
		UserName:       in.UserName,
		PasswordHash:   string(passwordHash),
		ProfilePicture: in.ProfilePicture,
	}
	if err := s.otps.SaveRegistration(ctx, &reg, s.otpTTL); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("store registration: %w", err)
	}

	if err := s.notify.SendOTP(ctx, in.Email, in.UserName, code); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("send otp: %w", err)
	}
	s.log.Info("verification mail sent", zap.String("email", in.Email))
	return otp.ID, reg.ID, nil
}

// VerifyOTP checks the code and marks the registration verified. A used
// code cannot be reused.
func (s *AuthService) VerifyOTP(ctx context.Context, otpID, registrationID uuid.UUID, code string) error {
	otp, err := s.otps.GetOTP(ctx, otpID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		return ErrIncorrectOTP
	}

	reg, err := s.otps.GetRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg.Email != otp.Email {
		return ErrIncorrectOTP
	}
	if err := s.otps.DeleteOTP(ctx, otpID); err != nil {
		return err
	}
	return s.otps.MarkVerified(ctx, registrationID)
}

// Register turns a verified pending registration into an account with its
// member identity.
func (s *AuthService) Register(ctx context.Context, registrationID uuid.UUID) (*models.User, error) {
	reg, err := s.otps.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !reg.Verified {
		return nil, ErrNotVerified
	}
	if err := s.checkAvailable(ctx, reg.Email, reg.UserName); err != nil {
		return nil, err
	}

	user := models.User{
		Email:          reg.Email,
		UserName:       reg.UserName,
		PasswordHash:   reg.PasswordHash,
		ProfilePicture: reg.ProfilePicture,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		_, err := ensureMember(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.otps.DeleteRegistration(ctx, registrationID); err != nil {
		s.log.Warn("delete pending registration", zap.Error(err))
	}
	s.log.Info("account registered", zap.String("user_id", user.ID.String()))
	return &user, nil
}

// Login accepts either the username or the email.
func (s *AuthService) Login(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("user_name = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthService) Me(ctx context.Context, accountID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers finds other accounts by username or email prefix.
func (s *AuthService) SearchUsers(ctx context.Context, accountID uuid.UUID, query string, limit int) ([]models.UserResponse, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	results := []models.UserResponse{}
	if query == "" {
		return results, nil
	}

	var users []models.User
	pattern := query + "%"
	err := s.db.WithContext(ctx).
		Where("id <> ?", accountID).
		Where("LOWER(user_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Order("user_name").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for i := range users {
		results = append(results, users[i].ToResponse())
	}
	return results, nil
}

// UpdateFCMToken stores the device token push notifications go to.
func (s *AuthService) UpdateFCMToken(ctx context.Context, accountID uuid.UUID, token string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", accountID).Update("fcm_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return nil
}

func (s *AuthService) checkAvailable(ctx context.Context, email, userName string) error {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	if err := db.Model(&models.User{}).Where("user_name = ?", userName).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserNameTaken
	}
	return nil
}

// generateOTP returns a uniformly random numeric code.
func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
