package services

import (
	"slices"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// adjust moves delta onto "debtor owes creditor" and re-nets the pair.
// Both ordered rows are read under lock; afterwards at most one row
// exists for the pair and its amount is positive. A negative delta undoes
// an earlier adjustment.
func adjust(tx *gorm.DB, groupID, debtor, creditor uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() || debtor == creditor {
		return nil
	}

	var rows []models.PairBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("group_id = ? AND ((debtor_id = ? AND creditor_id = ?) OR (debtor_id = ? AND creditor_id = ?))",
			groupID, debtor, creditor, creditor, debtor).
		Find(&rows).Error
	if err != nil {
		return err
	}

	// positive: debtor owes creditor
	net := delta
	for _, r := range rows {
		if r.DebtorID == debtor {
			net = net.Add(r.Amount)
		} else {
			net = net.Sub(r.Amount)
		}
	}

	from, to := debtor, creditor
	if net.IsNegative() {
		from, to, net = creditor, debtor, net.Neg()
	}

	kept := false
	for i := range rows {
		r := &rows[i]
		if !net.IsZero() && r.DebtorID == from && !kept {
			if err := tx.Model(r).Update("amount", net).Error; err != nil {
				return err
			}
			kept = true
			continue
		}
		if err := tx.Delete(r).Error; err != nil {
			return err
		}
	}
	if net.IsZero() || kept {
		return nil
	}
	return tx.Create(&models.PairBalance{
		GroupID:    groupID,
		DebtorID:   from,
		CreditorID: to,
		Amount:     net,
	}).Error
}

// applyShares posts every non-payer share as a debt to the payer;
// sign -1 reverses a previous posting.
func applyShares(tx *gorm.DB, groupID, payerID uuid.UUID, shares []Share, sign int64) error {
	for _, s := range shares {
		if s.MemberID == payerID {
			continue
		}
		if err := adjust(tx, groupID, s.MemberID, payerID, s.Amount.Mul(decimal.NewFromInt(sign))); err != nil {
			return err
		}
	}
	return nil
}

func sharesOf(entry *models.LedgerEntry) []Share {
	shares := make([]Share, 0, len(entry.Participants))
	for _, p := range entry.Participants {
		shares = append(shares, Share{MemberID: p.MemberID, Amount: p.Share})
	}
	return shares
}

// netPositions sums every pair balance into one signed figure per member:
// positive means the member is owed money.
func netPositions(balances []models.PairBalance) map[uuid.UUID]decimal.Decimal {
	net := make(map[uuid.UUID]decimal.Decimal)
	for _, b := range balances {
		net[b.CreditorID] = net[b.CreditorID].Add(b.Amount)
		net[b.DebtorID] = net[b.DebtorID].Sub(b.Amount)
	}
	return net
}

// simplifyDebts greedily matches the largest debtor with the largest
// creditor until every position is zero. The result is advisory: it never
// replaces the stored pair balances.
func simplifyDebts(net map[uuid.UUID]decimal.Decimal) []models.DebtTransfer {
	type position struct {
		id     uuid.UUID
		amount decimal.Decimal
	}

	var creditors, debtors []position
	for id, amount := range net {
		switch {
		case amount.IsPositive():
			creditors = append(creditors, position{id, amount})
		case amount.IsNegative():
			debtors = append(debtors, position{id, amount.Neg()})
		}
	}

	byAmountDesc := func(a, b position) int {
		if c := b.amount.Cmp(a.amount); c != 0 {
			return c
		}
		return slices.Compare(a.id[:], b.id[:])
	}
	slices.SortFunc(creditors, byAmountDesc)
	slices.SortFunc(debtors, byAmountDesc)

	var transfers []models.DebtTransfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		transfers = append(transfers, models.DebtTransfer{
			From:   debtors[i].id,
			To:     creditors[j].id,
			Amount: amount,
		})

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}
	return transfers
}
