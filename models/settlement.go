package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Settlement struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"group_id"`
	PayerID   uuid.UUID       `gorm:"type:uuid;not null" json:"payer_id"`
	PayeeID   uuid.UUID       `gorm:"type:uuid;not null" json:"payee_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type CreateSettlementRequest struct {
	PayeeID string `json:"payee_id" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
	Note    string `json:"note"`
}
