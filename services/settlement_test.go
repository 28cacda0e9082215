package services

import (
	"errors"
	"testing"

	"expenshare-backend/models"
)

func TestSettle(t *testing.T) {
	f := newFixture(t)
	a, b := f.account("a"), f.account("b")
	groupID := f.group(a, b)
	f.record(groupID, a, a, "100", b) // b owes a 100

	s, err := f.svc.Ledger.Settle(f.ctx, groupID, b.ID, a.Member, amt("40"), "part")
	if err != nil {
		t.Fatalf("partial Settle: %v", err)
	}
	if s.PayerID != b.Member || s.PayeeID != a.Member {
		t.Errorf("settlement = %+v", s)
	}
	if got := f.owes(groupID, b, a); !got.Equal(amt("60")) {
		t.Errorf("b owes a %s after partial, want 60", got)
	}

	if _, err := f.svc.Ledger.Settle(f.ctx, groupID, b.ID, a.Member, amt("60"), ""); err != nil {
		t.Fatalf("full Settle: %v", err)
	}
	var count int64
	f.db.Model(&models.PairBalance{}).Where("group_id = ?", groupID).Count(&count)
	if count != 0 {
		t.Errorf("full settlement left %d rows", count)
	}

	settlements, err := f.svc.Ledger.ListSettlements(f.ctx, groupID, a.ID)
	if err != nil {
		t.Fatalf("ListSettlements: %v", err)
	}
	if len(settlements) != 2 {
		t.Errorf("got %d settlements, want 2", len(settlements))
	}
	if g := f.loadGroup(groupID); !g.TotalExpense.Equal(amt("100")) {
		t.Errorf("settlements changed total expense to %s", g.TotalExpense)
	}
}

func TestSettleRejects(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.account("a"), f.account("b"), f.account("c")
	outsider := f.account("outsider")
	groupID := f.group(a, b, c)
	f.record(groupID, a, a, "50", b) // b owes a 50

	tests := []struct {
		name   string
		caller account
		payee  account
		amount string
		want   error
	}{
		{"over settlement", b, a, "50.01", ErrOverSettlement},
		{"wrong direction", a, b, "10", ErrNoSuchBalance},
		{"no balance", c, a, "10", ErrNoSuchBalance},
		{"zero", b, a, "0", ErrInvalidAmount},
		{"negative", b, a, "-5", ErrInvalidAmount},
		{"past column range", b, a, "1000000000000", ErrInvalidAmount},
		{"self", b, b, "5", ErrInvalidInput},
		{"payee not a member", b, outsider, "5", ErrNotAMember},
		{"caller not a member", outsider, a, "5", ErrNotAMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Ledger.Settle(f.ctx, groupID, tt.caller.ID, tt.payee.Member, amt(tt.amount), "")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if got := f.owes(groupID, b, a); !got.Equal(amt("50")) {
		t.Errorf("b owes a %s after rejected settlements, want 50", got)
	}
	var count int64
	f.db.Model(&models.Settlement{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected settlements stored %d rows", count)
	}
}

func TestBalanceViews(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.account("a"), f.account("b"), f.account("c")
	groupID := f.group(a, b, c)
	f.record(groupID, a, b, "20", a) // a owes b 20
	f.record(groupID, b, c, "20", b) // b owes c 20

	summary, err := f.svc.Ledger.GroupBalances(f.ctx, groupID, a.ID)
	if err != nil {
		t.Fatalf("GroupBalances: %v", err)
	}
	if len(summary.Balances) != 2 || !summary.TotalExpense.Equal(amt("40")) {
		t.Errorf("summary = %+v", summary)
	}
	for _, v := range summary.Balances {
		if v.DebtorName == "" || v.CreditorName == "" {
			t.Errorf("balance view missing names: %+v", v)
		}
	}

	transfers, err := f.svc.Ledger.SimplifiedDebts(f.ctx, groupID, a.ID)
	if err != nil {
		t.Fatalf("SimplifiedDebts: %v", err)
	}
	if len(transfers) != 1 || transfers[0].From != a.Member || transfers[0].To != c.Member {
		t.Errorf("transfers = %+v, want a -> c", transfers)
	}

	overall, err := f.svc.Ledger.AccountSummary(f.ctx, b.ID)
	if err != nil {
		t.Fatalf("AccountSummary: %v", err)
	}
	if !overall.TotalOwed.Equal(amt("20")) || !overall.TotalOwing.Equal(amt("20")) || len(overall.Friends) != 2 {
		t.Errorf("overall for b = %+v", overall)
	}
}

func TestAccountSummaryNetsAcrossGroups(t *testing.T) {
	f := newFixture(t)
	a, b := f.account("a"), f.account("b")
	g1 := f.group(a, b)
	g2 := f.group(b, a)
	f.record(g1, a, a, "30", b) // b owes a 30
	f.record(g2, b, b, "10", a) // a owes b 10

	overall, err := f.svc.Ledger.AccountSummary(f.ctx, a.ID)
	if err != nil {
		t.Fatalf("AccountSummary: %v", err)
	}
	if len(overall.Friends) != 1 {
		t.Fatalf("friends = %+v", overall.Friends)
	}
	friend := overall.Friends[0]
	if friend.UserID != b.ID || !friend.Amount.Equal(amt("20")) {
		t.Errorf("friend = %+v, want b owes 20", friend)
	}
	if !overall.TotalOwed.Equal(amt("20")) || !overall.TotalOwing.IsZero() {
		t.Errorf("totals owed %s owing %s", overall.TotalOwed, overall.TotalOwing)
	}
}
