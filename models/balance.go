package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PairBalance records that Debtor owes Creditor Amount within a group.
// For any two members at most one direction exists and Amount is always
// positive; a pair that nets to zero has no row.
type PairBalance struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pair_balance" json:"group_id"`
	DebtorID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pair_balance" json:"debtor_id"`
	CreditorID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pair_balance" json:"creditor_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (b *PairBalance) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BalanceView is a pair balance with display names attached
type BalanceView struct {
	DebtorID     uuid.UUID       `json:"debtor_id"`
	DebtorName   string          `json:"debtor_name"`
	CreditorID   uuid.UUID       `json:"creditor_id"`
	CreditorName string          `json:"creditor_name"`
	Amount       decimal.Decimal `json:"amount"`
}

// GroupBalanceSummary is returned for GET /api/groups/:id/balances
type GroupBalanceSummary struct {
	GroupID      uuid.UUID       `json:"group_id"`
	GroupName    string          `json:"group_name"`
	Balances     []BalanceView   `json:"balances"`
	TotalExpense decimal.Decimal `json:"total_expense"`
}

// DebtTransfer is one suggested payment from the simplified view
type DebtTransfer struct {
	From   uuid.UUID       `json:"from"`
	To     uuid.UUID       `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// FriendBalance represents the overall balance with a single counterpart
type FriendBalance struct {
	UserID   uuid.UUID       `json:"user_id"`
	UserName string          `json:"user_name"`
	Email    string          `json:"email"`
	Amount   decimal.Decimal `json:"amount"` // positive = they owe you, negative = you owe them
}

// OverallBalanceSummary is returned for GET /api/balances
type OverallBalanceSummary struct {
	TotalOwed  decimal.Decimal `json:"total_owed"`  // total others owe you
	TotalOwing decimal.Decimal `json:"total_owing"` // total you owe others
	Friends    []FriendBalance `json:"friends"`
}
