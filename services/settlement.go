package services

import (
	"context"
	"errors"
	"fmt"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Settle records that the caller paid payeeID amount and reduces what the
// caller owes them. Paying more than is owed is rejected with
// ErrOverSettlement; settling the full amount removes the balance.
func (l *Ledger) Settle(ctx context.Context, groupID, accountID, payeeID uuid.UUID, amount decimal.Decimal, note string) (*models.Settlement, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var settlement models.Settlement
	var payer *models.Member
	err := l.runner.run(ctx, groupID, func(tx *gorm.DB, g *models.Group) error {
		p, err := authorize(tx, g, accountID, ActionSettle)
		if err != nil {
			return err
		}
		payer = p
		if payeeID == payer.ID {
			return fmt.Errorf("%w: cannot settle with yourself", ErrInvalidInput)
		}
		if err := requireMembers(tx, g.ID, payeeID); err != nil {
			return err
		}

		var owed models.PairBalance
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("group_id = ? AND debtor_id = ? AND creditor_id = ?", g.ID, payer.ID, payeeID).
			First(&owed).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoSuchBalance
		}
		if err != nil {
			return err
		}
		if amount.GreaterThan(owed.Amount) {
			return fmt.Errorf("%w: owed %s, paying %s", ErrOverSettlement, owed.Amount.StringFixed(2), amount.StringFixed(2))
		}

		settlement = models.Settlement{
			GroupID: g.ID,
			PayerID: payer.ID,
			PayeeID: payeeID,
			Amount:  amount,
			Note:    note,
		}
		if err := tx.Create(&settlement).Error; err != nil {
			return err
		}
		if err := adjust(tx, g.ID, payer.ID, payeeID, amount.Neg()); err != nil {
			return err
		}

		names, err := memberNames(tx, func(add func(uuid.UUID)) { add(payeeID) })
		if err != nil {
			return err
		}
		if err := logActivity(tx, g.ID, payer.ID, models.ActivitySettlement, settlement.ID,
			fmt.Sprintf("%s paid %s %s", payer.UserName, names[payeeID], amount.StringFixed(2))); err != nil {
			return err
		}
		return bumpGroup(tx, g, decimal.Zero)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("settlement recorded",
		zap.String("group_id", groupID.String()),
		zap.String("settlement_id", settlement.ID.String()),
		zap.String("amount", amount.String()))
	l.notify.BalancesChanged(ctx, groupID)
	l.notify.SettlementRecorded(ctx, &settlement, payer)
	return &settlement, nil
}

// ListSettlements returns the group's settlement audit trail, newest first.
func (l *Ledger) ListSettlements(ctx context.Context, groupID, accountID uuid.UUID) ([]models.Settlement, error) {
	if _, err := l.gate.Authorize(ctx, groupID, accountID, ActionView); err != nil {
		return nil, err
	}

	settlements := []models.Settlement{}
	err := l.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&settlements).Error
	return settlements, err
}
