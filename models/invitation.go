package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
	InvitationRejected = "REJECTED"
)

type Invitation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID    uuid.UUID `gorm:"type:uuid;index;not null" json:"group_id"`
	GroupName  string    `gorm:"size:100" json:"group_name"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`         // member
	ReceiverID uuid.UUID `gorm:"type:uuid;index;not null" json:"receiver_id"` // account
	Status     string    `gorm:"default:PENDING;size:20" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *Invitation) Terminal() bool {
	return i.Status == InvitationAccepted || i.Status == InvitationRejected
}

type InviteRequest struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1"`
}
