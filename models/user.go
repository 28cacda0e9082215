package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string          `gorm:"uniqueIndex;not null;size:255" json:"email"`
	UserName       string          `gorm:"uniqueIndex;not null;size:100" json:"user_name"`
	PasswordHash   string          `gorm:"not null;size:255" json:"-"`
	ProfilePicture string          `json:"profile_picture,omitempty"`
	FCMToken       string          `json:"-"`
	TotalBalance   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_balance"`
	TotalIncome    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_income"`
	TotalExpense   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_expense"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Response struct (what we return to clients)
type UserResponse struct {
	ID             uuid.UUID       `json:"id"`
	Email          string          `json:"email"`
	UserName       string          `json:"user_name"`
	ProfilePicture string          `json:"profile_picture,omitempty"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		UserName:       u.UserName,
		ProfilePicture: u.ProfilePicture,
		TotalBalance:   u.TotalBalance,
		TotalIncome:    u.TotalIncome,
		TotalExpense:   u.TotalExpense,
		CreatedAt:      u.CreatedAt,
	}
}

// Member is an account's identity inside groups. One per account, shared
// by every group the account belongs to.
type Member struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Email     string    `gorm:"size:255" json:"email"`
	UserName  string    `gorm:"not null;size:100" json:"user_name"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
