package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction is a personal income or expense record
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	Type            string          `gorm:"not null;size:10" json:"type"` // income, expense
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Category        string          `gorm:"not null;size:50" json:"category"`
	Title           string          `gorm:"not null;size:255" json:"title"`
	Notes           string          `json:"notes,omitempty"`
	InvoiceURL      string          `json:"invoice_url,omitempty"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// MonthlyHistory is the per-month rollup of a user's transactions
type MonthlyHistory struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_history_month" json:"user_id"`
	Year           int             `gorm:"not null;uniqueIndex:idx_history_month" json:"year"`
	Month          int             `gorm:"not null;uniqueIndex:idx_history_month" json:"month"`
	Income         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"income"`
	Expense        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"expense"`
	MonthlyBalance decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"monthly_balance"`
}

func (h *MonthlyHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

type CreateTransactionRequest struct {
	Type       string `json:"type" binding:"required,oneof=income expense"`
	Amount     string `json:"amount" binding:"required"`
	Category   string `json:"category" binding:"required"`
	Title      string `json:"title" binding:"required,max=255"`
	Notes      string `json:"notes"`
	InvoiceURL string `json:"invoice_url"`
	Date       string `json:"date" binding:"required"` // YYYY-MM-DD
}
