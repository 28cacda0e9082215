package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPRecord holds a bcrypt hash of a mailed one-time code
type OTPRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"not null;size:255" json:"email"`
	CodeHash  string    `gorm:"not null;size:255" json:"code_hash"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

func (o *OTPRecord) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// PendingRegistration is the sign-up data waiting for OTP verification
type PendingRegistration struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string    `gorm:"not null;size:255" json:"email"`
	UserName       string    `gorm:"not null;size:100" json:"user_name"`
	PasswordHash   string    `gorm:"not null;size:255" json:"password_hash"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Verified       bool      `gorm:"not null;default:false" json:"verified"`
	ExpiresAt      time.Time `gorm:"index;not null" json:"expires_at"`
}

func (p *PendingRegistration) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
