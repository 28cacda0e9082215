package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GroupBalances returns the stored pair balances of a group.
func (l *Ledger) GroupBalances(ctx context.Context, groupID, accountID uuid.UUID) (*models.GroupBalanceSummary, error) {
	if _, err := l.gate.Authorize(ctx, groupID, accountID, ActionView); err != nil {
		return nil, err
	}
	return balanceSummary(l.db.WithContext(ctx), groupID)
}

// SimplifiedDebts suggests the fewest transfers that would clear the
// group. It is derived from the pair balances and never stored.
func (l *Ledger) SimplifiedDebts(ctx context.Context, groupID, accountID uuid.UUID) ([]models.DebtTransfer, error) {
	if _, err := l.gate.Authorize(ctx, groupID, accountID, ActionView); err != nil {
		return nil, err
	}

	var balances []models.PairBalance
	if err := l.db.WithContext(ctx).Where("group_id = ?", groupID).Find(&balances).Error; err != nil {
		return nil, err
	}
	transfers := simplifyDebts(netPositions(balances))
	if transfers == nil {
		transfers = []models.DebtTransfer{}
	}
	return transfers, nil
}

// AccountSummary nets the account's balances with every counterpart
// across all of its groups.
func (l *Ledger) AccountSummary(ctx context.Context, accountID uuid.UUID) (*models.OverallBalanceSummary, error) {
	db := l.db.WithContext(ctx)
	summary := &models.OverallBalanceSummary{
		TotalOwed:  decimal.Zero,
		TotalOwing: decimal.Zero,
		Friends:    []models.FriendBalance{},
	}

	me, err := memberForAccount(db, accountID)
	if errors.Is(err, ErrNotAMember) {
		return summary, nil
	}
	if err != nil {
		return nil, err
	}

	var balances []models.PairBalance
	err = db.Where("debtor_id = ? OR creditor_id = ?", me.ID, me.ID).Find(&balances).Error
	if err != nil {
		return nil, err
	}

	// positive: they owe me
	byCounterpart := make(map[uuid.UUID]decimal.Decimal)
	for _, b := range balances {
		if b.CreditorID == me.ID {
			byCounterpart[b.DebtorID] = byCounterpart[b.DebtorID].Add(b.Amount)
		} else {
			byCounterpart[b.CreditorID] = byCounterpart[b.CreditorID].Sub(b.Amount)
		}
	}

	ids := make([]uuid.UUID, 0, len(byCounterpart))
	for id, amount := range byCounterpart {
		if !amount.IsZero() {
			ids = append(ids, id)
		}
	}
	var members []models.Member
	if len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Find(&members).Error; err != nil {
			return nil, err
		}
	}

	for _, m := range members {
		amount := byCounterpart[m.ID]
		summary.Friends = append(summary.Friends, models.FriendBalance{
			UserID:   m.UserID,
			UserName: m.UserName,
			Email:    m.Email,
			Amount:   amount,
		})
		if amount.IsPositive() {
			summary.TotalOwed = summary.TotalOwed.Add(amount)
		} else {
			summary.TotalOwing = summary.TotalOwing.Add(amount.Neg())
		}
	}
	slices.SortFunc(summary.Friends, func(a, b models.FriendBalance) int {
		return b.Amount.Abs().Cmp(a.Amount.Abs())
	})
	return summary, nil
}

func balanceSummary(db *gorm.DB, groupID uuid.UUID) (*models.GroupBalanceSummary, error) {
	var group models.Group
	err := db.First(&group, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var balances []models.PairBalance
	if err := db.Where("group_id = ?", groupID).Order("amount DESC").Find(&balances).Error; err != nil {
		return nil, err
	}
	names, err := memberNames(db, func(add func(uuid.UUID)) {
		for _, b := range balances {
			add(b.DebtorID)
			add(b.CreditorID)
		}
	})
	if err != nil {
		return nil, err
	}

	views := make([]models.BalanceView, 0, len(balances))
	for _, b := range balances {
		views = append(views, models.BalanceView{
			DebtorID:     b.DebtorID,
			DebtorName:   names[b.DebtorID],
			CreditorID:   b.CreditorID,
			CreditorName: names[b.CreditorID],
			Amount:       b.Amount,
		})
	}

	return &models.GroupBalanceSummary{
		GroupID:      group.ID,
		GroupName:    group.Name,
		Balances:     views,
		TotalExpense: group.TotalExpense,
	}, nil
}
