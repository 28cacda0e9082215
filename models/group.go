package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type Group struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"not null;size:100" json:"name"`
	ImageURL     string          `json:"image_url,omitempty"`
	Category     string          `gorm:"default:NONE;size:30" json:"category"`
	OwnerID      uuid.UUID       `gorm:"type:uuid;not null" json:"owner_id"`
	TotalExpense decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_expense"`
	Version      int64           `gorm:"not null;default:0" json:"-"`
	Members      []GroupMember   `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type GroupMember struct {
	GroupID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"group_id"`
	MemberID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"member_id"`
	Member   Member    `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Role     string    `gorm:"default:member;size:20" json:"role"` // owner, member
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// Request structs
type CreateGroupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Category string `json:"category"`
	ImageURL string `json:"image_url"`
}

type UpdateGroupRequest struct {
	Name     string `json:"name" binding:"omitempty,max=100"`
	Category string `json:"category"`
	ImageURL string `json:"image_url"`
}

// Response structs
type GroupResponse struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	ImageURL     string                `json:"image_url,omitempty"`
	Category     string                `json:"category"`
	OwnerID      uuid.UUID             `json:"owner_id"`
	TotalExpense decimal.Decimal       `json:"total_expense"`
	Members      []GroupMemberResponse `json:"members"`
	CreatedAt    time.Time             `json:"created_at"`
}

type GroupMemberResponse struct {
	MemberID uuid.UUID `json:"member_id"`
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Email    string    `json:"email"`
	ImageURL string    `json:"image_url,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
