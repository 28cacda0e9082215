package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActivityGroupCreated   = "group_created"
	ActivityEntryAdded     = "entry_added"
	ActivityEntryUpdated   = "entry_updated"
	ActivityEntryDeleted   = "entry_deleted"
	ActivitySettlement     = "settlement"
	ActivityMemberJoined   = "member_joined"
	ActivityMemberLeft     = "member_left"
	ActivityInvitationSent = "invitation_sent"
)

type Activity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID `gorm:"type:uuid;index" json:"group_id"`
	GroupName   string    `gorm:"-" json:"group_name,omitempty"`
	MemberID    uuid.UUID `gorm:"type:uuid" json:"member_id"`
	Type        string    `gorm:"not null;size:30" json:"type"`
	ReferenceID uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
