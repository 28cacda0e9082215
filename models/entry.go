package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntry is one recorded group expense.
type LedgerEntry struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID       uuid.UUID          `gorm:"type:uuid;index;not null" json:"group_id"`
	PayerID       uuid.UUID          `gorm:"type:uuid;not null" json:"payer_id"`
	Amount        decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"amount"`
	Category      string             `gorm:"size:50" json:"category"`
	Title         string             `gorm:"not null;size:255" json:"title"`
	EntryDate     time.Time          `gorm:"not null" json:"entry_date"`
	Note          string             `json:"note,omitempty"`
	AttachmentURL string             `json:"attachment_url,omitempty"`
	Participants  []EntryParticipant `gorm:"foreignKey:EntryID" json:"participants"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EntryParticipant keeps the share that was allocated when the entry was
// aggregated, so reversal undoes exactly what was applied.
type EntryParticipant struct {
	EntryID  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"-"`
	MemberID uuid.UUID       `gorm:"type:uuid;primaryKey" json:"member_id"`
	Share    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"share"`
}

// Request structs
type EntryRequest struct {
	PayerID       string   `json:"payer_id"`
	Participants  []string `json:"participants" binding:"required,min=1"`
	Amount        string   `json:"amount" binding:"required"`
	Category      string   `json:"category"`
	Title         string   `json:"title" binding:"required,max=255"`
	Date          string   `json:"date"` // YYYY-MM-DD
	Note          string   `json:"note"`
	AttachmentURL string   `json:"attachment_url"`
}

// Response
type EntryResponse struct {
	ID            uuid.UUID             `json:"id"`
	GroupID       uuid.UUID             `json:"group_id"`
	PayerID       uuid.UUID             `json:"payer_id"`
	PayerName     string                `json:"payer_name"`
	Amount        decimal.Decimal       `json:"amount"`
	Category      string                `json:"category"`
	Title         string                `json:"title"`
	EntryDate     time.Time             `json:"entry_date"`
	Note          string                `json:"note,omitempty"`
	AttachmentURL string                `json:"attachment_url,omitempty"`
	Participants  []ParticipantResponse `json:"participants"`
	CreatedAt     time.Time             `json:"created_at"`
}

type ParticipantResponse struct {
	MemberID uuid.UUID       `json:"member_id"`
	UserName string          `json:"user_name"`
	Share    decimal.Decimal `json:"share"`
}
